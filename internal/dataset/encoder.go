package dataset

import (
	"reflect"

	"gonum.org/v1/gonum/mat"
)

// normalizationEpsilon pads the min-max denominator so constant columns scale
// to zero instead of NaN.
const normalizationEpsilon = 1e-8

// EncoderSpec names the columns and problem type driving an encoding pass.
type EncoderSpec struct {
	FeatureColumns []string
	TargetColumn   string
	ModelType      ModelType
}

// Encoded is the tensor form of a row set: a normalized feature matrix, a
// label matrix (one column for regression, one per class for classification),
// the category index finalized during encoding, and the per-column min/max
// used for normalization. The min/max vectors are retained by the job so
// prediction inputs can be scaled identically.
type Encoded struct {
	Features   *mat.Dense
	Labels     *mat.Dense
	Index      *CategoryIndex
	FeatureMin []float64
	FeatureMax []float64
	NumClasses int
	RowCount   int
}

// Encode turns raw rows into numeric tensors. Rows with a missing target are
// dropped. Missing feature values are imputed from the column statistics
// (mean for numeric, most common value for categorical, 0 when no statistics
// exist). For classification the surviving targets are pre-scanned to fix the
// class count before any one-hot vector is emitted, so every label row has
// the same width; codes are still assigned in first-seen order.
func Encode(rows []Row, spec EncoderSpec, stats *DatasetStats) (*Encoded, error) {
	kept := make([]Row, 0, len(rows))
	for _, row := range rows {
		if row.Missing(spec.TargetColumn) {
			continue
		}
		kept = append(kept, row)
	}
	if len(kept) == 0 {
		return nil, NewDataError("no rows remain after dropping rows with missing target %q", spec.TargetColumn)
	}

	index := NewCategoryIndex()

	numClasses := 0
	if spec.ModelType.IsClassification() {
		for _, row := range kept {
			index.Assign(AsString(row[spec.TargetColumn]))
		}
		numClasses = index.Len()
	}

	features := EncodeFeatures(kept, spec.FeatureColumns, stats, index)

	var labels *mat.Dense
	if spec.ModelType.IsClassification() {
		labels = mat.NewDense(len(kept), numClasses, nil)
		for i, row := range kept {
			code, _ := index.Code(AsString(row[spec.TargetColumn]))
			labels.Set(i, code, 1)
		}
	} else {
		labels = mat.NewDense(len(kept), 1, nil)
		for i, row := range kept {
			labels.Set(i, 0, coerceNumeric(row[spec.TargetColumn]))
		}
	}

	mins, maxs := NormalizeInPlace(features)

	return &Encoded{
		Features:   features,
		Labels:     labels,
		Index:      index,
		FeatureMin: mins,
		FeatureMax: maxs,
		NumClasses: numClasses,
		RowCount:   len(kept),
	}, nil
}

// EncodeFeatures assembles the raw (un-normalized) feature matrix for the
// rows, imputing missing values from the statistics and assigning category
// codes through the shared index. It is reused at prediction time with the
// job's retained index.
func EncodeFeatures(rows []Row, featureColumns []string, stats *DatasetStats, index *CategoryIndex) *mat.Dense {
	m := mat.NewDense(len(rows), len(featureColumns), nil)
	for i, row := range rows {
		for j, column := range featureColumns {
			m.Set(i, j, encodeValue(row, column, stats, index))
		}
	}
	return m
}

func encodeValue(row Row, column string, stats *DatasetStats, index *CategoryIndex) float64 {
	if row.Missing(column) {
		return imputedValue(column, stats, index)
	}
	return coerceValue(row[column], index)
}

// imputedValue fills a missing feature cell: column mean for numeric columns,
// the most common value's category code for categorical ones, 0 when the
// column was never profiled.
func imputedValue(column string, stats *DatasetStats, index *CategoryIndex) float64 {
	if stats == nil {
		return 0
	}
	colStats, ok := stats.Columns[column]
	if !ok {
		return 0
	}
	switch colStats.Kind {
	case ColumnKindNumeric:
		return colStats.Mean
	case ColumnKindCategorical:
		return float64(index.Assign(colStats.MostCommon))
	default:
		return 0
	}
}

// coerceValue maps a present cell to a number: strings become category codes
// assigned on first sight, booleans become 0/1, sequences become their
// length, everything else is cast numerically (0 when unparseable).
func coerceValue(v interface{}, index *CategoryIndex) float64 {
	switch value := v.(type) {
	case string:
		return float64(index.Assign(value))
	case bool:
		if value {
			return 1
		}
		return 0
	case []interface{}:
		return float64(len(value))
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array || rv.Kind() == reflect.Map {
		return float64(rv.Len())
	}
	return coerceNumeric(v)
}

// NormalizeInPlace min-max scales every column of m into [0,1] using the
// matrix's own observed bounds, returning the per-column min and max vectors.
func NormalizeInPlace(m *mat.Dense) (mins, maxs []float64) {
	rows, cols := m.Dims()
	mins = make([]float64, cols)
	maxs = make([]float64, cols)
	if rows == 0 {
		return mins, maxs
	}
	for j := 0; j < cols; j++ {
		mins[j] = m.At(0, j)
		maxs[j] = m.At(0, j)
		for i := 1; i < rows; i++ {
			v := m.At(i, j)
			if v < mins[j] {
				mins[j] = v
			}
			if v > maxs[j] {
				maxs[j] = v
			}
		}
	}
	ApplyNormalization(m, mins, maxs)
	return mins, maxs
}

// ApplyNormalization scales m column-wise with previously observed bounds.
func ApplyNormalization(m *mat.Dense, mins, maxs []float64) {
	rows, cols := m.Dims()
	for j := 0; j < cols; j++ {
		span := maxs[j] - mins[j] + normalizationEpsilon
		for i := 0; i < rows; i++ {
			m.Set(i, j, (m.At(i, j)-mins[j])/span)
		}
	}
}
