package neural

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/Meesho/BharatMLStack/trainflow/internal/trainer"
	"gonum.org/v1/gonum/mat"
)

// Backend builds dense networks. One backend serves all jobs; each Build
// returns an independent model with its own seeded random stream.
type Backend struct{}

func NewBackend() *Backend {
	return &Backend{}
}

func (b *Backend) Build(spec trainer.ModelSpec) (trainer.Model, error) {
	if spec.InputDim <= 0 {
		return nil, fmt.Errorf("model input dimension must be positive, got %d", spec.InputDim)
	}
	if spec.OutputDim <= 0 {
		return nil, fmt.Errorf("model output dimension must be positive, got %d", spec.OutputDim)
	}
	act, ok := activations[spec.Activation]
	if !ok {
		return nil, fmt.Errorf("unknown activation %q", spec.Activation)
	}
	for _, width := range spec.HiddenLayers {
		if width <= 0 {
			return nil, fmt.Errorf("hidden layer width must be positive, got %d", width)
		}
	}

	rng := rand.New(rand.NewSource(spec.Seed))
	dims := make([]int, 0, len(spec.HiddenLayers)+2)
	dims = append(dims, spec.InputDim)
	dims = append(dims, spec.HiddenLayers...)
	dims = append(dims, spec.OutputDim)

	layers := make([]*layer, len(dims)-1)
	for i := range layers {
		layers[i] = newLayer(dims[i], dims[i+1], rng)
	}

	return &Network{
		modelType:      spec.ModelType,
		activationName: spec.Activation,
		act:            act,
		layers:         layers,
		dropoutRates:   spec.DropoutRates,
		optimizer:      spec.Optimizer,
		learningRate:   spec.LearningRate,
		regularization: spec.Regularization,
		rng:            rng,
	}, nil
}

// newLayer initializes weights with Glorot-uniform draws and zero biases.
func newLayer(in, out int, rng *rand.Rand) *layer {
	limit := math.Sqrt(6 / float64(in+out))
	weights := mat.NewDense(in, out, nil)
	for r := 0; r < in; r++ {
		for c := 0; c < out; c++ {
			weights.Set(r, c, (2*rng.Float64()-1)*limit)
		}
	}
	return &layer{
		weights: weights,
		bias:    mat.NewDense(1, out, nil),
	}
}
