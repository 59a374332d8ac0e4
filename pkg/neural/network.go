// Package neural is the tensor backend: a small dense feed-forward network
// on gonum matrices. Classification heads end in softmax with cross-entropy
// loss, regression heads are linear with mean squared error. A spec with no
// hidden layers degenerates to a single linear layer.
package neural

import (
	"errors"
	"math"
	"math/rand"

	"github.com/Meesho/BharatMLStack/trainflow/internal/dataset"
	"github.com/Meesho/BharatMLStack/trainflow/internal/trainer"
	"gonum.org/v1/gonum/mat"
)

const lossEps = 1e-12

type layer struct {
	weights *mat.Dense // in x out
	bias    *mat.Dense // 1 x out
	wState  optState
	bState  optState
}

// Network is one built model. It is not safe for concurrent Fit calls;
// Predict and Evaluate are read-only once fitting has finished.
type Network struct {
	modelType      dataset.ModelType
	activationName string
	act            activation
	layers         []*layer
	dropoutRates   []float64
	optimizer      string
	learningRate   float64
	regularization *trainer.Regularization
	rng            *rand.Rand
}

type forwardPass struct {
	inputs  []*mat.Dense // the matrix fed into each layer
	preacts []*mat.Dense // z = input*W + b, per layer
	masks   []*mat.Dense // inverted-dropout mask per hidden layer, nil when unused
	output  *mat.Dense
}

func (n *Network) forward(x *mat.Dense, training bool) *forwardPass {
	pass := &forwardPass{
		inputs:  make([]*mat.Dense, len(n.layers)),
		preacts: make([]*mat.Dense, len(n.layers)),
		masks:   make([]*mat.Dense, len(n.layers)),
	}
	current := x
	for i, l := range n.layers {
		pass.inputs[i] = current

		rows, _ := current.Dims()
		_, out := l.weights.Dims()
		z := mat.NewDense(rows, out, nil)
		z.Mul(current, l.weights)
		for r := 0; r < rows; r++ {
			for c := 0; c < out; c++ {
				z.Set(r, c, z.At(r, c)+l.bias.At(0, c))
			}
		}
		pass.preacts[i] = z

		last := i == len(n.layers)-1
		if last {
			output := mat.DenseCopyOf(z)
			if n.modelType.IsClassification() {
				softmaxInPlace(output)
			}
			pass.output = output
			break
		}

		a := mat.NewDense(rows, out, nil)
		for r := 0; r < rows; r++ {
			for c := 0; c < out; c++ {
				a.Set(r, c, n.act.fn(z.At(r, c)))
			}
		}
		if training && i < len(n.dropoutRates) && n.dropoutRates[i] > 0 {
			keep := 1 - n.dropoutRates[i]
			mask := mat.NewDense(rows, out, nil)
			for r := 0; r < rows; r++ {
				for c := 0; c < out; c++ {
					if n.rng.Float64() < keep {
						mask.Set(r, c, 1/keep)
					}
				}
			}
			a.MulElem(a, mask)
			pass.masks[i] = mask
		}
		current = a
	}
	return pass
}

// backward runs one gradient step over the batch captured in pass.
func (n *Network) backward(pass *forwardPass, y *mat.Dense) {
	rows, cols := pass.output.Dims()

	// Softmax with cross-entropy and linear output with squared error both
	// reduce to (prediction - label) at the head; squared error carries the
	// extra factor of two from its derivative.
	scale := 1 / float64(rows)
	if !n.modelType.IsClassification() {
		scale = 2 / float64(rows)
	}
	delta := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			delta.Set(r, c, scale*(pass.output.At(r, c)-y.At(r, c)))
		}
	}

	for i := len(n.layers) - 1; i >= 0; i-- {
		l := n.layers[i]
		in, out := l.weights.Dims()

		gradW := mat.NewDense(in, out, nil)
		gradW.Mul(pass.inputs[i].T(), delta)
		n.addRegularization(gradW, l.weights)

		gradB := mat.NewDense(1, out, nil)
		dRows, _ := delta.Dims()
		for c := 0; c < out; c++ {
			sum := 0.0
			for r := 0; r < dRows; r++ {
				sum += delta.At(r, c)
			}
			gradB.Set(0, c, sum)
		}

		if i > 0 {
			prev := mat.NewDense(dRows, in, nil)
			prev.Mul(delta, l.weights.T())
			preact := pass.preacts[i-1]
			for r := 0; r < dRows; r++ {
				for c := 0; c < in; c++ {
					prev.Set(r, c, prev.At(r, c)*n.act.derivative(preact.At(r, c)))
				}
			}
			if mask := pass.masks[i-1]; mask != nil {
				prev.MulElem(prev, mask)
			}
			delta = prev
		}

		applyUpdate(n.optimizer, n.learningRate, l.weights, gradW, &l.wState)
		applyUpdate(n.optimizer, n.learningRate, l.bias, gradB, &l.bState)
	}
}

func (n *Network) addRegularization(gradW, weights *mat.Dense) {
	if n.regularization == nil || n.regularization.Value == 0 {
		return
	}
	rows, cols := weights.Dims()
	lambda := n.regularization.Value
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			w := weights.At(r, c)
			penalty := lambda * w
			if n.regularization.Kind == trainer.RegularizationL1 {
				penalty = lambda * sign(w)
			}
			gradW.Set(r, c, gradW.At(r, c)+penalty)
		}
	}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// loss computes the data loss over x against y: cross-entropy for
// classification, mean squared error for regression.
func (n *Network) loss(x, y *mat.Dense) float64 {
	output := n.forward(x, false).output
	rows, cols := output.Dims()
	if n.modelType.IsClassification() {
		total := 0.0
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if y.At(r, c) > 0 {
					total -= y.At(r, c) * math.Log(output.At(r, c)+lossEps)
				}
			}
		}
		return total / float64(rows)
	}
	total := 0.0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			d := output.At(r, c) - y.At(r, c)
			total += d * d
		}
	}
	return total / float64(rows*cols)
}

// Fit trains with shuffled mini-batches. The reported validation loss falls
// back to the training loss when no held-out split exists, which keeps the
// early-stopping signal defined either way.
func (n *Network) Fit(trainX, trainY, valX, valY *mat.Dense, opts trainer.FitOptions, onEpoch func(trainer.EpochStat) bool) error {
	rows, _ := trainX.Dims()
	if rows == 0 {
		return errors.New("training split is empty")
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 || batchSize > rows {
		batchSize = rows
	}

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		perm := n.rng.Perm(rows)
		for start := 0; start < rows; start += batchSize {
			end := min(start+batchSize, rows)
			batchX, batchY := gatherRows(trainX, trainY, perm[start:end])
			pass := n.forward(batchX, true)
			n.backward(pass, batchY)
		}

		trainLoss := n.loss(trainX, trainY)
		valLoss := trainLoss
		if valX != nil {
			valLoss = n.loss(valX, valY)
		}
		if onEpoch != nil && !onEpoch(trainer.EpochStat{Epoch: epoch, Loss: trainLoss, ValLoss: valLoss}) {
			return nil
		}
	}
	return nil
}

// Predict returns raw model output: class probabilities for classification,
// one value per row for regression.
func (n *Network) Predict(x *mat.Dense) (*mat.Dense, error) {
	rows, cols := x.Dims()
	if rows == 0 {
		return nil, errors.New("prediction input is empty")
	}
	if in, _ := n.layers[0].weights.Dims(); cols != in {
		return nil, errors.New("prediction input width does not match the model")
	}
	return n.forward(x, false).output, nil
}

// Evaluate scores the model: accuracy and cross-entropy loss for
// classification, mean squared error and R-squared for regression.
func (n *Network) Evaluate(x, y *mat.Dense) (map[string]float64, error) {
	output, err := n.Predict(x)
	if err != nil {
		return nil, err
	}
	rows, cols := output.Dims()

	if n.modelType.IsClassification() {
		correct := 0
		for r := 0; r < rows; r++ {
			if argmax(output, r, cols) == argmax(y, r, cols) {
				correct++
			}
		}
		return map[string]float64{
			"accuracy": float64(correct) / float64(rows),
			"loss":     n.loss(x, y),
		}, nil
	}

	mean := 0.0
	for r := 0; r < rows; r++ {
		mean += y.At(r, 0)
	}
	mean /= float64(rows)

	residual, total := 0.0, 0.0
	for r := 0; r < rows; r++ {
		d := output.At(r, 0) - y.At(r, 0)
		residual += d * d
		t := y.At(r, 0) - mean
		total += t * t
	}
	r2 := 0.0
	if total > 0 {
		r2 = 1 - residual/total
	}
	return map[string]float64{
		"mse": residual / float64(rows),
		"r2":  r2,
	}, nil
}

func argmax(m *mat.Dense, row, cols int) int {
	best, bestV := 0, m.At(row, 0)
	for c := 1; c < cols; c++ {
		if v := m.At(row, c); v > bestV {
			best, bestV = c, v
		}
	}
	return best
}

func gatherRows(x, y *mat.Dense, indices []int) (*mat.Dense, *mat.Dense) {
	_, xCols := x.Dims()
	_, yCols := y.Dims()
	gx := mat.NewDense(len(indices), xCols, nil)
	gy := mat.NewDense(len(indices), yCols, nil)
	for i, idx := range indices {
		for c := 0; c < xCols; c++ {
			gx.Set(i, c, x.At(idx, c))
		}
		for c := 0; c < yCols; c++ {
			gy.Set(i, c, y.At(idx, c))
		}
	}
	return gx, gy
}
