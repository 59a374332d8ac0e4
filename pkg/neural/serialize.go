package neural

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/Meesho/BharatMLStack/trainflow/internal/dataset"
	"gonum.org/v1/gonum/mat"
)

type layerSnapshot struct {
	In      int
	Out     int
	Weights []float64
	Bias    []float64
}

type networkSnapshot struct {
	ModelType  string
	Activation string
	Layers     []layerSnapshot
}

// Save writes the network weights to path as a gob-encoded snapshot.
// Optimizer state is not persisted; a restored network predicts but does not
// resume fitting.
func (n *Network) Save(path string) error {
	snapshot := networkSnapshot{
		ModelType:  string(n.modelType),
		Activation: n.activationName,
		Layers:     make([]layerSnapshot, len(n.layers)),
	}
	for i, l := range n.layers {
		in, out := l.weights.Dims()
		snapshot.Layers[i] = layerSnapshot{
			In:      in,
			Out:     out,
			Weights: append([]float64(nil), l.weights.RawMatrix().Data...),
			Bias:    append([]float64(nil), l.bias.RawMatrix().Data...),
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return gob.NewEncoder(file).Encode(snapshot)
}

// Load restores a saved network for inference.
func Load(path string) (*Network, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snapshot networkSnapshot
	if err := gob.NewDecoder(file).Decode(&snapshot); err != nil {
		return nil, err
	}
	act, ok := activations[snapshot.Activation]
	if !ok {
		return nil, fmt.Errorf("saved model uses unknown activation %q", snapshot.Activation)
	}

	layers := make([]*layer, len(snapshot.Layers))
	for i, saved := range snapshot.Layers {
		if len(saved.Weights) != saved.In*saved.Out || len(saved.Bias) != saved.Out {
			return nil, fmt.Errorf("saved layer %d has inconsistent dimensions", i)
		}
		layers[i] = &layer{
			weights: mat.NewDense(saved.In, saved.Out, saved.Weights),
			bias:    mat.NewDense(1, saved.Out, saved.Bias),
		}
	}

	return &Network{
		modelType:      dataset.ModelType(snapshot.ModelType),
		activationName: snapshot.Activation,
		act:            act,
		layers:         layers,
	}, nil
}
