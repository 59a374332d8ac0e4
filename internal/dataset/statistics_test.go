package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regressionRows() []Row {
	return []Row{
		{"x": 1.0, "y": 2.0},
		{"x": 2.0, "y": 4.0},
		{"x": 3.0, "y": 6.0},
		{"x": 4.0, "y": 8.0},
	}
}

func TestComputeStatistics_NumericColumn(t *testing.T) {
	stats, err := ComputeStatistics(regressionRows(), []string{"x"}, "y", ModelTypeRegression)
	require.NoError(t, err)

	colStats := stats.Columns["x"]
	assert.Equal(t, ColumnKindNumeric, colStats.Kind)
	assert.Equal(t, 1.0, colStats.Min)
	assert.Equal(t, 4.0, colStats.Max)
	assert.Equal(t, 2.5, colStats.Mean)
	assert.InDelta(t, math.Sqrt(1.25), colStats.Std, 1e-12)
	assert.Equal(t, 0, colStats.MissingValues)

	assert.True(t, colStats.Min <= colStats.Mean)
	assert.True(t, colStats.Mean <= colStats.Max)
	assert.Equal(t, 4, stats.RecordCount)
}

func TestComputeStatistics_CountsMissingValues(t *testing.T) {
	rows := []Row{
		{"x": 1.0, "y": 1.0},
		{"x": nil, "y": 2.0},
		{"y": 3.0},
		{"x": 3.0, "y": 4.0},
	}
	stats, err := ComputeStatistics(rows, []string{"x"}, "y", ModelTypeRegression)
	require.NoError(t, err)

	colStats := stats.Columns["x"]
	assert.Equal(t, 2, colStats.MissingValues)
	assert.Equal(t, 2.0, colStats.Mean)
}

func TestComputeStatistics_CategoricalMostCommonTieBreak(t *testing.T) {
	rows := []Row{
		{"color": "red", "y": "a"},
		{"color": "blue", "y": "a"},
		{"color": "red", "y": "b"},
		{"color": "blue", "y": "b"},
	}
	stats, err := ComputeStatistics(rows, []string{"color"}, "y", ModelTypeClassification)
	require.NoError(t, err)

	colStats := stats.Columns["color"]
	assert.Equal(t, ColumnKindCategorical, colStats.Kind)
	assert.Equal(t, 2, colStats.UniqueCount)
	// Ties resolve to the value that appeared first.
	assert.Equal(t, "red", colStats.MostCommon)
}

func TestComputeStatistics_MixedColumnIsCategorical(t *testing.T) {
	rows := []Row{
		{"v": "tall", "y": "a"},
		{"v": 2.0, "y": "b"},
		{"v": "tall", "y": "a"},
	}
	stats, err := ComputeStatistics(rows, []string{"v"}, "y", ModelTypeClassification)
	require.NoError(t, err)
	assert.Equal(t, ColumnKindCategorical, stats.Columns["v"].Kind)
}

func TestComputeStatistics_TargetDistributionFirstSeenOrder(t *testing.T) {
	rows := []Row{
		{"x": 1.0, "label": "dog"},
		{"x": 2.0, "label": "cat"},
		{"x": 3.0, "label": "dog"},
		{"x": 4.0, "label": "dog"},
	}
	stats, err := ComputeStatistics(rows, []string{"x"}, "label", ModelTypeClassification)
	require.NoError(t, err)

	require.Len(t, stats.TargetDistribution, 2)
	assert.Equal(t, ClassCount{Value: "dog", Count: 3}, stats.TargetDistribution[0])
	assert.Equal(t, ClassCount{Value: "cat", Count: 1}, stats.TargetDistribution[1])
	assert.Nil(t, stats.TargetStats)
}

func TestComputeStatistics_RegressionTargetAndCorrelation(t *testing.T) {
	stats, err := ComputeStatistics(regressionRows(), []string{"x"}, "y", ModelTypeRegression)
	require.NoError(t, err)

	require.NotNil(t, stats.TargetStats)
	assert.Equal(t, 2.0, stats.TargetStats.Min)
	assert.Equal(t, 8.0, stats.TargetStats.Max)
	assert.Equal(t, 5.0, stats.TargetStats.Mean)

	assert.InDelta(t, 1.0, stats.Correlations["x"], 1e-12)
}

func TestComputeStatistics_ZeroVarianceCorrelationIsZero(t *testing.T) {
	rows := []Row{
		{"flat": 7.0, "y": 1.0},
		{"flat": 7.0, "y": 2.0},
		{"flat": 7.0, "y": 3.0},
	}
	stats, err := ComputeStatistics(rows, []string{"flat"}, "y", ModelTypeRegression)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.Correlations["flat"])
}

func TestComputeStatistics_Idempotent(t *testing.T) {
	rows := regressionRows()
	first, err := ComputeStatistics(rows, []string{"x"}, "y", ModelTypeRegression)
	require.NoError(t, err)
	second, err := ComputeStatistics(rows, []string{"x"}, "y", ModelTypeRegression)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeStatistics_Errors(t *testing.T) {
	tests := []struct {
		name    string
		rows    []Row
		columns []string
		target  string
	}{
		{"empty row set", nil, []string{"x"}, "y"},
		{"feature column absent everywhere", []Row{{"y": 1.0}, {"y": 2.0}}, []string{"x"}, "y"},
		{"target column absent everywhere", []Row{{"x": 1.0}, {"x": 2.0}}, []string{"x"}, "y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeStatistics(tt.rows, tt.columns, tt.target, ModelTypeRegression)
			require.Error(t, err)
			var dataErr *DataError
			assert.ErrorAs(t, err, &dataErr)
		})
	}
}
