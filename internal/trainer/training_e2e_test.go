package trainer_test

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/Meesho/BharatMLStack/trainflow/internal/dataset"
	"github.com/Meesho/BharatMLStack/trainflow/internal/export"
	"github.com/Meesho/BharatMLStack/trainflow/internal/trainer"
	"github.com/Meesho/BharatMLStack/trainflow/pkg/neural"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRows struct {
	rows []dataset.Row
}

func (s *staticRows) FetchRows(table string, limit int) ([]dataset.Row, error) {
	return s.rows, nil
}

func awaitCompletion(t *testing.T, o *trainer.Orchestrator, jobID string) {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		status := o.GetStatus(jobID)
		if status.State == trainer.StateCompleted {
			return
		}
		if status.State == trainer.StateFailed {
			t.Fatalf("job %s failed", jobID)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not complete in time", jobID)
}

// A linear row set trained with no hidden layers must recover the underlying
// relation closely enough to predict unseen inputs.
func TestTraining_LinearRegressionEndToEnd(t *testing.T) {
	rows := make([]dataset.Row, 0, 50)
	for i := 1; i <= 50; i++ {
		rows = append(rows, dataset.Row{"x": float64(i), "y": 2 * float64(i)})
	}

	o := trainer.NewOrchestrator(trainer.Options{
		RowSource: &staticRows{rows: rows},
		Backend:   neural.NewBackend(),
		Manifests: export.NewPackager(),
	})

	id, err := o.StartTraining(trainer.TrainingConfig{
		DatasetName:    "linear",
		DatasetSource:  trainer.DatasetSourceInternal,
		ModelType:      dataset.ModelTypeRegression,
		TargetColumn:   "y",
		FeatureColumns: []string{"x"},
		TestSplit:      0.2,
		Epochs:         300,
		BatchSize:      10,
		LearningRate:   0.2,
		OptimizerName:  trainer.OptimizerSGD,
		HiddenLayers:   []int{},
	})
	require.NoError(t, err)
	awaitCompletion(t, o, id)

	metrics, ok := o.Metrics(id)
	require.True(t, ok)
	require.Len(t, metrics.LossHistory, 300)
	assert.Less(t, metrics.LossHistory[299], metrics.LossHistory[0])
	assert.Greater(t, metrics.EvalMetrics["r2"], 0.95)

	predictions, err := o.Predict(id, []dataset.Row{{"x": 6.0}})
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	assert.InDelta(t, 12.0, predictions[0].Value, 1.5)
}

func TestTraining_ClassificationEndToEndWithExport(t *testing.T) {
	rows := make([]dataset.Row, 0, 50)
	for i := 1; i <= 50; i++ {
		label := "low"
		if i > 25 {
			label = "high"
		}
		rows = append(rows, dataset.Row{"x": float64(i), "tier": label})
	}

	o := trainer.NewOrchestrator(trainer.Options{
		RowSource: &staticRows{rows: rows},
		Backend:   neural.NewBackend(),
		Manifests: export.NewPackager(),
	})

	id, err := o.StartTraining(trainer.TrainingConfig{
		DatasetName:    "tiers",
		DatasetSource:  trainer.DatasetSourceInternal,
		ModelType:      dataset.ModelTypeClassification,
		TargetColumn:   "tier",
		FeatureColumns: []string{"x"},
		TestSplit:      0.2,
		Epochs:         300,
		BatchSize:      10,
		LearningRate:   0.1,
		HiddenLayers:   []int{},
	})
	require.NoError(t, err)
	awaitCompletion(t, o, id)

	metrics, ok := o.Metrics(id)
	require.True(t, ok)
	assert.GreaterOrEqual(t, metrics.EvalMetrics["accuracy"], 0.8)

	predictions, err := o.Predict(id, []dataset.Row{{"x": 45.0}, {"x": 3.0}})
	require.NoError(t, err)
	require.Len(t, predictions, 2)
	assert.Equal(t, "high", predictions[0].Label)
	assert.Equal(t, "low", predictions[1].Label)

	dir := t.TempDir()
	result, err := o.Export(id, dir)
	require.NoError(t, err)

	raw, err := os.ReadFile(result.ManifestPath)
	require.NoError(t, err)
	var manifest export.Manifest
	require.NoError(t, json.Unmarshal(raw, &manifest))
	assert.Equal(t, id, manifest.JobID)
	assert.Equal(t, 50, manifest.DatasetStats.RecordCount)
	require.Len(t, manifest.CategoryIndex, 2)
	assert.Equal(t, "low", manifest.CategoryIndex[0].Category)
	assert.Equal(t, "high", manifest.CategoryIndex[1].Category)

	// The saved model binary must load back cleanly.
	restored, err := neural.Load(result.ModelPath)
	require.NoError(t, err)
	require.NotNil(t, restored)

	description, err := os.ReadFile(result.DescriptionPath)
	require.NoError(t, err)
	assert.Contains(t, string(description), "tier")
	assert.Contains(t, string(description), id)
}
