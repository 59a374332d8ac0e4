package dataset

import (
	"github.com/elliotchance/orderedmap/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type ModelType string

const (
	ModelTypeClassification     ModelType = "classification"
	ModelTypeRegression         ModelType = "regression"
	ModelTypeTextClassification ModelType = "text-classification"
)

// IsClassification reports whether the target is label-encoded and one-hot
// expanded. Text classification follows the classification path.
func (m ModelType) IsClassification() bool {
	return m == ModelTypeClassification || m == ModelTypeTextClassification
}

type ColumnKind string

const (
	ColumnKindNumeric     ColumnKind = "numeric"
	ColumnKindCategorical ColumnKind = "categorical"
)

// ColumnStatistics describes one feature column of the resolved row set.
// Numeric fields are populated for numeric columns, UniqueCount/MostCommon
// for categorical ones. MissingValues is tracked for both.
type ColumnStatistics struct {
	Kind          ColumnKind `json:"type"`
	Min           float64    `json:"min,omitempty"`
	Max           float64    `json:"max,omitempty"`
	Mean          float64    `json:"mean,omitempty"`
	Std           float64    `json:"std,omitempty"`
	UniqueCount   int        `json:"unique_count,omitempty"`
	MostCommon    string     `json:"most_common_value,omitempty"`
	MissingValues int        `json:"missing_values"`
}

// ClassCount is one target class and its row count, in first-seen order.
type ClassCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// TargetStats summarizes a regression target.
type TargetStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// DatasetStats is the full profile of a resolved row set. It is computed once
// per training job, before encoding, and never mutated afterwards.
type DatasetStats struct {
	RecordCount        int                         `json:"record_count"`
	Columns            map[string]ColumnStatistics `json:"columns"`
	TargetDistribution []ClassCount                `json:"target_distribution,omitempty"`
	TargetStats        *TargetStats                `json:"target_stats,omitempty"`
	Correlations       map[string]float64          `json:"correlations,omitempty"`
}

// ComputeStatistics profiles the row set for the configured feature and target
// columns. Columns whose non-null values all parse as numbers are classified
// numeric (min/max/mean/population std); everything else is categorical
// (unique count, most frequent value with ties broken by first appearance).
// For regression it also computes the Pearson correlation of each numeric
// feature against the target, over rows where both are present.
func ComputeStatistics(rows []Row, featureColumns []string, targetColumn string, modelType ModelType) (*DatasetStats, error) {
	if len(rows) == 0 {
		return nil, NewDataError("row set is empty")
	}

	stats := &DatasetStats{
		RecordCount: len(rows),
		Columns:     make(map[string]ColumnStatistics, len(featureColumns)),
	}

	for _, column := range featureColumns {
		colStats, err := profileColumn(rows, column)
		if err != nil {
			return nil, err
		}
		stats.Columns[column] = colStats
	}

	targets := collectValues(rows, targetColumn)
	if len(targets) == 0 {
		return nil, NewDataError("target column %q absent from every row", targetColumn)
	}

	if modelType.IsClassification() {
		stats.TargetDistribution = targetDistribution(targets)
	} else {
		stats.TargetStats = targetSummary(targets)
		stats.Correlations = featureCorrelations(rows, featureColumns, targetColumn, stats.Columns)
	}

	return stats, nil
}

// profileColumn builds ColumnStatistics for one feature column in a single
// left-to-right scan.
func profileColumn(rows []Row, column string) (ColumnStatistics, error) {
	values := collectValues(rows, column)
	if len(values) == 0 {
		return ColumnStatistics{}, NewDataError("feature column %q absent from every row", column)
	}

	missing := len(rows) - len(values)

	numeric := make([]float64, 0, len(values))
	allNumeric := true
	for _, v := range values {
		n, ok := AsNumber(v)
		if !ok {
			allNumeric = false
			break
		}
		numeric = append(numeric, n)
	}

	if allNumeric {
		return ColumnStatistics{
			Kind:          ColumnKindNumeric,
			Min:           floats.Min(numeric),
			Max:           floats.Max(numeric),
			Mean:          stat.Mean(numeric, nil),
			Std:           stat.PopStdDev(numeric, nil),
			MissingValues: missing,
		}, nil
	}

	counts := orderedmap.NewOrderedMap[string, int]()
	for _, v := range values {
		key := AsString(v)
		n, _ := counts.Get(key)
		counts.Set(key, n+1)
	}

	mostCommon := ""
	best := 0
	for el := counts.Front(); el != nil; el = el.Next() {
		if el.Value > best {
			best = el.Value
			mostCommon = el.Key
		}
	}

	return ColumnStatistics{
		Kind:          ColumnKindCategorical,
		UniqueCount:   counts.Len(),
		MostCommon:    mostCommon,
		MissingValues: missing,
	}, nil
}

func collectValues(rows []Row, column string) []interface{} {
	values := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		if row.Missing(column) {
			continue
		}
		values = append(values, row[column])
	}
	return values
}

func targetDistribution(targets []interface{}) []ClassCount {
	counts := orderedmap.NewOrderedMap[string, int]()
	for _, v := range targets {
		key := AsString(v)
		n, _ := counts.Get(key)
		counts.Set(key, n+1)
	}
	distribution := make([]ClassCount, 0, counts.Len())
	for el := counts.Front(); el != nil; el = el.Next() {
		distribution = append(distribution, ClassCount{Value: el.Key, Count: el.Value})
	}
	return distribution
}

func targetSummary(targets []interface{}) *TargetStats {
	numeric := make([]float64, 0, len(targets))
	for _, v := range targets {
		numeric = append(numeric, coerceNumeric(v))
	}
	return &TargetStats{
		Min:  floats.Min(numeric),
		Max:  floats.Max(numeric),
		Mean: stat.Mean(numeric, nil),
		Std:  stat.PopStdDev(numeric, nil),
	}
}

// featureCorrelations computes the Pearson correlation of every numeric
// feature column against the target, over rows where both values are present.
// Zero variance on either side yields 0 rather than dividing by zero.
func featureCorrelations(rows []Row, featureColumns []string, targetColumn string, columns map[string]ColumnStatistics) map[string]float64 {
	correlations := make(map[string]float64)
	for _, column := range featureColumns {
		if columns[column].Kind != ColumnKindNumeric {
			continue
		}
		var xs, ys []float64
		for _, row := range rows {
			if row.Missing(column) || row.Missing(targetColumn) {
				continue
			}
			x, ok := AsNumber(row[column])
			if !ok {
				continue
			}
			xs = append(xs, x)
			ys = append(ys, coerceNumeric(row[targetColumn]))
		}
		correlations[column] = pearson(xs, ys)
	}
	return correlations
}

func pearson(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) == 0 {
		return 0
	}
	if stat.PopVariance(xs, nil) == 0 || stat.PopVariance(ys, nil) == 0 {
		return 0
	}
	return stat.Correlation(xs, ys, nil)
}

// coerceNumeric casts a value to float64 the way the encoder does: numbers
// stay numbers, everything unparseable becomes 0.
func coerceNumeric(v interface{}) float64 {
	if n, ok := AsNumber(v); ok {
		return n
	}
	return 0
}
