// Package export packages a completed training job's encoder state,
// statistics and configuration into a portable metadata bundle. The trained
// model binary itself is an opaque artifact saved by the tensor backend.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Meesho/BharatMLStack/trainflow/internal/dataset"
	"github.com/Meesho/BharatMLStack/trainflow/internal/trainer"
	"github.com/rs/zerolog/log"
)

// Manifest is the machine-readable half of an export bundle. Given the same
// retained job state it serializes byte-identically apart from the timestamp.
type Manifest struct {
	JobID           string                 `json:"job_id"`
	Config          trainer.TrainingConfig `json:"config"`
	DatasetStats    *dataset.DatasetStats  `json:"dataset_stats"`
	CategoryIndex   []dataset.CategoryPair `json:"category_index"`
	ExportTimestamp string                 `json:"export_timestamp"`
}

// Packager writes manifest bundles to disk. It implements
// trainer.ManifestWriter.
type Packager struct{}

func NewPackager() *Packager {
	return &Packager{}
}

// WriteManifest writes the JSON manifest and the human-readable description
// for one job under dir, returning both paths.
func (p *Packager) WriteManifest(dir string, data trainer.ManifestData) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}

	manifest := Manifest{
		JobID:           data.JobID,
		Config:          data.Config,
		DatasetStats:    data.Stats,
		CategoryIndex:   data.CategoryPairs,
		ExportTimestamp: data.ExportedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}

	encoded, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", "", err
	}

	manifestPath := filepath.Join(dir, data.JobID+".manifest.json")
	if err := os.WriteFile(manifestPath, encoded, 0o644); err != nil {
		return "", "", err
	}

	descriptionPath := filepath.Join(dir, data.JobID+".description.txt")
	if err := os.WriteFile(descriptionPath, []byte(Describe(data)), 0o644); err != nil {
		return "", "", err
	}

	log.Info().Str("job_id", data.JobID).Str("manifest", manifestPath).Msg("Export bundle written")
	return manifestPath, descriptionPath, nil
}

// Describe renders the human-readable bundle description: one line per
// feature column derived from its statistics, then the target column.
// The output is deterministic given the job's retained state.
func Describe(data trainer.ManifestData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Model: %s on dataset %q (%d records)\n",
		data.Config.ModelType, data.Config.DatasetName, data.Stats.RecordCount)
	fmt.Fprintf(&b, "Trained by job %s, exported %s\n\n",
		data.JobID, data.ExportedAt.UTC().Format("2006-01-02T15:04:05Z"))

	b.WriteString("Features:\n")
	for _, column := range data.Config.FeatureColumns {
		b.WriteString("  - ")
		b.WriteString(describeColumn(column, data.Stats))
		b.WriteByte('\n')
	}

	b.WriteString("\nTarget:\n")
	b.WriteString("  - ")
	b.WriteString(describeTarget(data.Config.TargetColumn, data.Stats))
	b.WriteByte('\n')

	if len(data.CategoryPairs) > 0 {
		fmt.Fprintf(&b, "\nCategory index (%d entries):\n", len(data.CategoryPairs))
		for _, pair := range data.CategoryPairs {
			fmt.Fprintf(&b, "  %d -> %q\n", pair.Code, pair.Category)
		}
	}
	return b.String()
}

func describeColumn(column string, stats *dataset.DatasetStats) string {
	colStats, ok := stats.Columns[column]
	if !ok {
		return fmt.Sprintf("%s: no statistics recorded", column)
	}
	if colStats.Kind == dataset.ColumnKindNumeric {
		return fmt.Sprintf("%s: numeric, range [%g, %g], mean %g, std %g, %d missing",
			column, colStats.Min, colStats.Max, colStats.Mean, colStats.Std, colStats.MissingValues)
	}
	return fmt.Sprintf("%s: categorical, %d unique values, most common %q, %d missing",
		column, colStats.UniqueCount, colStats.MostCommon, colStats.MissingValues)
}

func describeTarget(column string, stats *dataset.DatasetStats) string {
	if stats.TargetStats != nil {
		return fmt.Sprintf("%s: numeric, range [%g, %g], mean %g, std %g",
			column, stats.TargetStats.Min, stats.TargetStats.Max, stats.TargetStats.Mean, stats.TargetStats.Std)
	}
	parts := make([]string, 0, len(stats.TargetDistribution))
	for _, class := range stats.TargetDistribution {
		parts = append(parts, fmt.Sprintf("%q x%d", class.Value, class.Count))
	}
	return fmt.Sprintf("%s: %d classes (%s)", column, len(stats.TargetDistribution), strings.Join(parts, ", "))
}
