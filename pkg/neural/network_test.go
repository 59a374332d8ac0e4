package neural

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/Meesho/BharatMLStack/trainflow/internal/dataset"
	"github.com/Meesho/BharatMLStack/trainflow/internal/trainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func regressionSpec() trainer.ModelSpec {
	return trainer.ModelSpec{
		ModelType:    dataset.ModelTypeRegression,
		InputDim:     1,
		OutputDim:    1,
		HiddenLayers: []int{},
		Activation:   trainer.ActivationRelu,
		Optimizer:    trainer.OptimizerSGD,
		LearningRate: 0.2,
		Seed:         42,
	}
}

// y = 3x + 1 on x in [0,1).
func linearData() (*mat.Dense, *mat.Dense) {
	n := 20
	x := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		v := float64(i) / float64(n)
		x.Set(i, 0, v)
		y.Set(i, 0, 3*v+1)
	}
	return x, y
}

func TestBuild_Validation(t *testing.T) {
	backend := NewBackend()

	tests := []struct {
		name   string
		mutate func(*trainer.ModelSpec)
	}{
		{"zero input dim", func(s *trainer.ModelSpec) { s.InputDim = 0 }},
		{"zero output dim", func(s *trainer.ModelSpec) { s.OutputDim = 0 }},
		{"unknown activation", func(s *trainer.ModelSpec) { s.Activation = "swish" }},
		{"non-positive hidden width", func(s *trainer.ModelSpec) { s.HiddenLayers = []int{8, 0} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := regressionSpec()
			tt.mutate(&spec)
			_, err := backend.Build(spec)
			assert.Error(t, err)
		})
	}
}

func TestFit_LinearRegressionConverges(t *testing.T) {
	model, err := NewBackend().Build(regressionSpec())
	require.NoError(t, err)

	x, y := linearData()
	var losses []float64
	err = model.Fit(x, y, nil, nil, trainer.FitOptions{Epochs: 500, BatchSize: 0}, func(stat trainer.EpochStat) bool {
		losses = append(losses, stat.Loss)
		// No held-out split, so the validation loss mirrors training loss.
		assert.Equal(t, stat.Loss, stat.ValLoss)
		return true
	})
	require.NoError(t, err)
	require.Len(t, losses, 500)
	assert.Less(t, losses[499], losses[0])

	probe := mat.NewDense(1, 1, []float64{0.5})
	output, err := model.Predict(probe)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, output.At(0, 0), 0.1)

	metrics, err := model.Evaluate(x, y)
	require.NoError(t, err)
	assert.Less(t, metrics["mse"], 0.01)
	assert.Greater(t, metrics["r2"], 0.95)
}

func TestFit_CallbackHaltsEarly(t *testing.T) {
	model, err := NewBackend().Build(regressionSpec())
	require.NoError(t, err)

	x, y := linearData()
	epochs := 0
	err = model.Fit(x, y, nil, nil, trainer.FitOptions{Epochs: 100, BatchSize: 4}, func(stat trainer.EpochStat) bool {
		epochs++
		return epochs < 5
	})
	require.NoError(t, err)
	assert.Equal(t, 5, epochs)
}

func TestFit_SingleRow(t *testing.T) {
	model, err := NewBackend().Build(regressionSpec())
	require.NoError(t, err)

	x := mat.NewDense(1, 1, []float64{0})
	y := mat.NewDense(1, 1, []float64{0})
	require.NoError(t, model.Fit(x, y, nil, nil, trainer.FitOptions{Epochs: 1, BatchSize: 8}, nil))
}

func TestPredict_DimensionMismatch(t *testing.T) {
	model, err := NewBackend().Build(regressionSpec())
	require.NoError(t, err)

	_, err = model.Predict(mat.NewDense(1, 3, []float64{1, 2, 3}))
	assert.Error(t, err)
}

func TestClassification_OutputsAreDistributions(t *testing.T) {
	spec := trainer.ModelSpec{
		ModelType:    dataset.ModelTypeClassification,
		InputDim:     2,
		OutputDim:    3,
		HiddenLayers: []int{8},
		DropoutRates: []float64{0.2},
		Activation:   trainer.ActivationRelu,
		Optimizer:    trainer.OptimizerAdam,
		LearningRate: 0.01,
		Seed:         7,
	}
	model, err := NewBackend().Build(spec)
	require.NoError(t, err)

	x := mat.NewDense(4, 2, []float64{0.1, 0.9, 0.5, 0.5, 0.9, 0.1, 0.3, 0.7})
	output, err := model.Predict(x)
	require.NoError(t, err)

	rows, cols := output.Dims()
	require.Equal(t, 4, rows)
	require.Equal(t, 3, cols)
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			p := output.At(i, j)
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestBuild_SameSeedIsDeterministic(t *testing.T) {
	backend := NewBackend()
	first, err := backend.Build(regressionSpec())
	require.NoError(t, err)
	second, err := backend.Build(regressionSpec())
	require.NoError(t, err)

	probe := mat.NewDense(1, 1, []float64{0.3})
	a, err := first.Predict(probe)
	require.NoError(t, err)
	b, err := second.Predict(probe)
	require.NoError(t, err)
	assert.Equal(t, a.At(0, 0), b.At(0, 0))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	model, err := NewBackend().Build(regressionSpec())
	require.NoError(t, err)

	x, y := linearData()
	require.NoError(t, model.Fit(x, y, nil, nil, trainer.FitOptions{Epochs: 50, BatchSize: 4}, nil))

	path := filepath.Join(t.TempDir(), "linear.model")
	require.NoError(t, model.Save(path))

	restored, err := Load(path)
	require.NoError(t, err)

	probe := mat.NewDense(1, 1, []float64{0.42})
	want, err := model.Predict(probe)
	require.NoError(t, err)
	got, err := restored.Predict(probe)
	require.NoError(t, err)
	assert.InDelta(t, want.At(0, 0), got.At(0, 0), 1e-12)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.model"))
	assert.Error(t, err)
}

func TestFit_AllOptimizersReduceLoss(t *testing.T) {
	x, y := linearData()
	for _, optimizer := range []string{trainer.OptimizerSGD, trainer.OptimizerAdam, trainer.OptimizerRMSProp, trainer.OptimizerAdagrad} {
		t.Run(optimizer, func(t *testing.T) {
			spec := regressionSpec()
			spec.Optimizer = optimizer
			spec.LearningRate = 0.05
			model, err := NewBackend().Build(spec)
			require.NoError(t, err)

			var first, last float64
			err = model.Fit(x, y, nil, nil, trainer.FitOptions{Epochs: 200, BatchSize: 5}, func(stat trainer.EpochStat) bool {
				if stat.Epoch == 0 {
					first = stat.Loss
				}
				last = stat.Loss
				return true
			})
			require.NoError(t, err)
			assert.Less(t, last, first)
			assert.False(t, math.IsNaN(last))
		})
	}
}

func TestFit_WithRegularizationStaysFinite(t *testing.T) {
	x, y := linearData()
	for _, kind := range []trainer.RegularizationKind{trainer.RegularizationL1, trainer.RegularizationL2} {
		t.Run(string(kind), func(t *testing.T) {
			spec := regressionSpec()
			spec.HiddenLayers = []int{8}
			spec.DropoutRates = []float64{0.1}
			spec.Activation = trainer.ActivationTanh
			spec.Optimizer = trainer.OptimizerAdam
			spec.LearningRate = 0.01
			spec.Regularization = &trainer.Regularization{Kind: kind, Value: 0.001}

			model, err := NewBackend().Build(spec)
			require.NoError(t, err)

			var last float64
			err = model.Fit(x, y, nil, nil, trainer.FitOptions{Epochs: 50, BatchSize: 4}, func(stat trainer.EpochStat) bool {
				last = stat.Loss
				return true
			})
			require.NoError(t, err)
			assert.False(t, math.IsNaN(last))
			assert.False(t, math.IsInf(last, 0))
		})
	}
}
