package neural

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// activation pairs an elementwise function with its derivative, both taken
// over the pre-activation value.
type activation struct {
	fn         func(float64) float64
	derivative func(float64) float64
}

var activations = map[string]activation{
	"relu": {
		fn: func(z float64) float64 {
			if z > 0 {
				return z
			}
			return 0
		},
		derivative: func(z float64) float64 {
			if z > 0 {
				return 1
			}
			return 0
		},
	},
	"sigmoid": {
		fn: sigmoid,
		derivative: func(z float64) float64 {
			s := sigmoid(z)
			return s * (1 - s)
		},
	},
	"tanh": {
		fn: math.Tanh,
		derivative: func(z float64) float64 {
			t := math.Tanh(z)
			return 1 - t*t
		},
	},
	"elu": {
		fn: func(z float64) float64 {
			if z > 0 {
				return z
			}
			return math.Exp(z) - 1
		},
		derivative: func(z float64) float64 {
			if z > 0 {
				return 1
			}
			return math.Exp(z)
		},
	},
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// softmaxInPlace rewrites each row of m as a probability distribution,
// subtracting the row max first for numerical stability.
func softmaxInPlace(m *mat.Dense) {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		rowMax := math.Inf(-1)
		for j := 0; j < cols; j++ {
			if v := m.At(i, j); v > rowMax {
				rowMax = v
			}
		}
		sum := 0.0
		for j := 0; j < cols; j++ {
			e := math.Exp(m.At(i, j) - rowMax)
			m.Set(i, j, e)
			sum += e
		}
		for j := 0; j < cols; j++ {
			m.Set(i, j, m.At(i, j)/sum)
		}
	}
}
