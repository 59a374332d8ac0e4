package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_ClassificationOneHot(t *testing.T) {
	rows := []Row{
		{"x": 1.0, "label": "cat"},
		{"x": 2.0, "label": "dog"},
		{"x": 3.0, "label": "cat"},
	}
	spec := EncoderSpec{FeatureColumns: []string{"x"}, TargetColumn: "label", ModelType: ModelTypeClassification}
	stats, err := ComputeStatistics(rows, spec.FeatureColumns, spec.TargetColumn, spec.ModelType)
	require.NoError(t, err)

	encoded, err := Encode(rows, spec, stats)
	require.NoError(t, err)

	assert.Equal(t, 2, encoded.NumClasses)
	assert.Equal(t, 3, encoded.RowCount)

	labelRows, labelCols := encoded.Labels.Dims()
	assert.Equal(t, 3, labelRows)
	assert.Equal(t, 2, labelCols)

	// cat was seen first so it holds code 0.
	catCode, ok := encoded.Index.Code("cat")
	require.True(t, ok)
	assert.Equal(t, 0, catCode)
	dogCode, ok := encoded.Index.Code("dog")
	require.True(t, ok)
	assert.Equal(t, 1, dogCode)

	assert.Equal(t, 1.0, encoded.Labels.At(0, 0))
	assert.Equal(t, 0.0, encoded.Labels.At(0, 1))
	assert.Equal(t, 1.0, encoded.Labels.At(1, 1))
	assert.Equal(t, 1.0, encoded.Labels.At(2, 0))
}

func TestEncode_DropsRowsWithMissingTarget(t *testing.T) {
	rows := []Row{
		{"x": 1.0, "y": 2.0},
		{"x": 2.0, "y": nil},
		{"x": 3.0},
		{"x": 4.0, "y": 8.0},
	}
	spec := EncoderSpec{FeatureColumns: []string{"x"}, TargetColumn: "y", ModelType: ModelTypeRegression}
	stats, err := ComputeStatistics(rows, spec.FeatureColumns, spec.TargetColumn, spec.ModelType)
	require.NoError(t, err)

	encoded, err := Encode(rows, spec, stats)
	require.NoError(t, err)

	assert.Equal(t, 2, encoded.RowCount)
	labelRows, _ := encoded.Labels.Dims()
	assert.Equal(t, 2, labelRows)
	assert.Equal(t, 2.0, encoded.Labels.At(0, 0))
	assert.Equal(t, 8.0, encoded.Labels.At(1, 0))
}

func TestEncode_AllTargetsMissing(t *testing.T) {
	rows := []Row{{"x": 1.0}, {"x": 2.0}}
	spec := EncoderSpec{FeatureColumns: []string{"x"}, TargetColumn: "y", ModelType: ModelTypeRegression}

	_, err := Encode(rows, spec, &DatasetStats{Columns: map[string]ColumnStatistics{}})
	require.Error(t, err)
	var dataErr *DataError
	assert.ErrorAs(t, err, &dataErr)
}

func TestEncodeFeatures_ImputesMissingValues(t *testing.T) {
	trainRows := []Row{
		{"age": 10.0, "color": "red", "y": 1.0},
		{"age": 20.0, "color": "red", "y": 2.0},
		{"age": 30.0, "color": "blue", "y": 3.0},
	}
	stats, err := ComputeStatistics(trainRows, []string{"age", "color"}, "y", ModelTypeRegression)
	require.NoError(t, err)

	index := NewCategoryIndex()
	rows := []Row{
		{"age": nil, "color": nil},
	}
	features := EncodeFeatures(rows, []string{"age", "color"}, stats, index)

	// Numeric gaps take the column mean, categorical gaps the most common
	// value's code.
	assert.Equal(t, 20.0, features.At(0, 0))
	redCode, ok := index.Code("red")
	require.True(t, ok)
	assert.Equal(t, float64(redCode), features.At(0, 1))
}

func TestEncodeFeatures_ValueCoercion(t *testing.T) {
	index := NewCategoryIndex()
	rows := []Row{
		{"a": "small", "b": true, "c": []interface{}{1, 2, 3}},
		{"a": "large", "b": false, "c": []interface{}{}},
	}
	features := EncodeFeatures(rows, []string{"a", "b", "c"}, nil, index)

	assert.Equal(t, 0.0, features.At(0, 0)) // "small" assigned first
	assert.Equal(t, 1.0, features.At(1, 0)) // "large" assigned second
	assert.Equal(t, 1.0, features.At(0, 1))
	assert.Equal(t, 0.0, features.At(1, 1))
	assert.Equal(t, 3.0, features.At(0, 2))
	assert.Equal(t, 0.0, features.At(1, 2))
}

func TestEncode_NormalizesFeaturesIntoUnitRange(t *testing.T) {
	rows := []Row{
		{"x": 10.0, "flat": 5.0, "y": 1.0},
		{"x": 20.0, "flat": 5.0, "y": 2.0},
		{"x": 30.0, "flat": 5.0, "y": 3.0},
	}
	spec := EncoderSpec{FeatureColumns: []string{"x", "flat"}, TargetColumn: "y", ModelType: ModelTypeRegression}
	stats, err := ComputeStatistics(rows, spec.FeatureColumns, spec.TargetColumn, spec.ModelType)
	require.NoError(t, err)

	encoded, err := Encode(rows, spec, stats)
	require.NoError(t, err)

	featureRows, featureCols := encoded.Features.Dims()
	for i := 0; i < featureRows; i++ {
		for j := 0; j < featureCols; j++ {
			v := encoded.Features.At(i, j)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
	// Constant columns scale to 0 rather than NaN.
	for i := 0; i < featureRows; i++ {
		assert.Equal(t, 0.0, encoded.Features.At(i, 1))
	}

	assert.Equal(t, []float64{10.0, 5.0}, encoded.FeatureMin)
	assert.Equal(t, []float64{30.0, 5.0}, encoded.FeatureMax)
}

func TestApplyNormalization_ReusesTrainingBounds(t *testing.T) {
	rows := []Row{
		{"x": 10.0, "y": 1.0},
		{"x": 30.0, "y": 3.0},
	}
	spec := EncoderSpec{FeatureColumns: []string{"x"}, TargetColumn: "y", ModelType: ModelTypeRegression}
	stats, err := ComputeStatistics(rows, spec.FeatureColumns, spec.TargetColumn, spec.ModelType)
	require.NoError(t, err)
	encoded, err := Encode(rows, spec, stats)
	require.NoError(t, err)

	fresh := EncodeFeatures([]Row{{"x": 20.0}}, spec.FeatureColumns, stats, encoded.Index)
	ApplyNormalization(fresh, encoded.FeatureMin, encoded.FeatureMax)
	assert.InDelta(t, 0.5, fresh.At(0, 0), 1e-6)
}
