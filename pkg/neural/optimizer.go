package neural

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	adamBeta1    = 0.9
	adamBeta2    = 0.999
	rmspropDecay = 0.9
	optimizerEps = 1e-8
)

// optState carries the per-parameter accumulators one optimizer kind needs.
// Moments are allocated lazily on the first update so the state matches the
// parameter's shape.
type optState struct {
	m, v *mat.Dense
	step int
}

func (s *optState) ensure(rows, cols int) {
	if s.m == nil {
		s.m = mat.NewDense(rows, cols, nil)
		s.v = mat.NewDense(rows, cols, nil)
	}
}

// applyUpdate steps one parameter matrix against its gradient, in place.
func applyUpdate(kind string, learningRate float64, param, grad *mat.Dense, state *optState) {
	rows, cols := param.Dims()
	state.ensure(rows, cols)
	state.step++

	switch kind {
	case "sgd":
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				param.Set(i, j, param.At(i, j)-learningRate*grad.At(i, j))
			}
		}
	case "adagrad":
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				g := grad.At(i, j)
				acc := state.v.At(i, j) + g*g
				state.v.Set(i, j, acc)
				param.Set(i, j, param.At(i, j)-learningRate*g/(math.Sqrt(acc)+optimizerEps))
			}
		}
	case "rmsprop":
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				g := grad.At(i, j)
				acc := rmspropDecay*state.v.At(i, j) + (1-rmspropDecay)*g*g
				state.v.Set(i, j, acc)
				param.Set(i, j, param.At(i, j)-learningRate*g/(math.Sqrt(acc)+optimizerEps))
			}
		}
	default: // adam
		correction1 := 1 - math.Pow(adamBeta1, float64(state.step))
		correction2 := 1 - math.Pow(adamBeta2, float64(state.step))
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				g := grad.At(i, j)
				m := adamBeta1*state.m.At(i, j) + (1-adamBeta1)*g
				v := adamBeta2*state.v.At(i, j) + (1-adamBeta2)*g*g
				state.m.Set(i, j, m)
				state.v.Set(i, j, v)
				mHat := m / correction1
				vHat := v / correction2
				param.Set(i, j, param.At(i, j)-learningRate*mHat/(math.Sqrt(vHat)+optimizerEps))
			}
		}
	}
}
