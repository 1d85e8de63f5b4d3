package neuralnet

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Gradients holds one gradient per sample for every layer. Weights[i] has
// shape (batch, sizes[i+1], sizes[i]) and Biases[i] has shape
// (batch, sizes[i+1], 1).
type Gradients struct {
	Weights []*tensor.Dense
	Biases  []*tensor.Dense
}

// BatchSize is the number of samples the gradients were computed for.
func (g *Gradients) BatchSize() int {
	if len(g.Biases) == 0 {
		return 0
	}
	return g.Biases[0].Shape()[0]
}

// Sum reduces the per-sample gradients over the batch axis, giving matrices
// shaped like the network's weights and biases.
func (g *Gradients) Sum() ([]*mat.Dense, []*mat.VecDense, error) {
	if len(g.Weights) != len(g.Biases) {
		return nil, nil, errors.Wrapf(ErrShapeMismatch, "%d weight and %d bias gradients",
			len(g.Weights), len(g.Biases))
	}
	weights := make([]*mat.Dense, len(g.Weights))
	biases := make([]*mat.VecDense, len(g.Biases))
	for i := range g.Weights {
		ws, bs := g.Weights[i].Shape(), g.Biases[i].Shape()
		if ws.Dims() != 3 || bs.Dims() != 3 || bs[2] != 1 || ws[0] != bs[0] || ws[1] != bs[1] {
			return nil, nil, errors.Wrapf(ErrShapeMismatch, "layer %d gradients shaped %v and %v", i, ws, bs)
		}
		sw, err := sumBatch(g.Weights[i])
		if err != nil {
			return nil, nil, errors.Wrapf(err, "summing weight gradients of layer %d", i)
		}
		sb, err := sumBatch(g.Biases[i])
		if err != nil {
			return nil, nil, errors.Wrapf(err, "summing bias gradients of layer %d", i)
		}
		weights[i] = mat.NewDense(ws[1], ws[2], sw)
		biases[i] = mat.NewVecDense(bs[1], sb)
	}
	return weights, biases, nil
}

// sumBatch sums t along its leading axis and returns the flattened result.
func sumBatch(t *tensor.Dense) ([]float64, error) {
	shape := t.Shape()
	if shape[0] == 1 {
		return append([]float64(nil), t.Data().([]float64)...), nil
	}
	sum, err := t.Sum(0)
	if err != nil {
		return nil, err
	}
	data, ok := sum.Data().([]float64)
	if !ok || len(data) != shape[1]*shape[2] {
		return nil, errors.Wrapf(ErrShapeMismatch, "batch sum of %v", shape)
	}
	return data, nil
}

// Backprop computes the gradient of the quadratic cost with respect to every
// weight and bias, separately for each (inputs[s], targets[s]) pair.
func (nn *NeuralNetwork) Backprop(inputs, targets []*mat.VecDense) (*Gradients, error) {
	if len(inputs) == 0 {
		return nil, errors.Wrap(ErrShapeMismatch, "empty batch")
	}
	if len(inputs) != len(targets) {
		return nil, errors.Wrapf(ErrShapeMismatch, "%d inputs but %d targets", len(inputs), len(targets))
	}
	for s := range inputs {
		if err := nn.checkSample(inputs[s], targets[s]); err != nil {
			return nil, errors.Wrapf(err, "batch sample %d", s)
		}
	}

	x := packColumns(nn.sizes[0], inputs)
	y := packColumns(nn.sizes[len(nn.sizes)-1], targets)
	zs, activations := nn.forward(x)

	last := len(nn.weights) - 1
	grads := &Gradients{
		Weights: make([]*tensor.Dense, len(nn.weights)),
		Biases:  make([]*tensor.Dense, len(nn.biases)),
	}

	// Output layer.
	var delta mat.Dense
	delta.MulElem(Quadratic{}.Derivative(activations[last+1], y), derivative(zs[last]))
	grads.Biases[last] = columnsPerSample(&delta)
	grads.Weights[last] = outerPerSample(&delta, activations[last])

	// Hidden layers, from the one nearest the output back to the first.
	// Parameter index i feeds activations[i+1] from activations[i].
	for i := last - 1; i >= 0; i-- {
		back := batchMul(nn.weights[i+1].T(), &delta)
		delta.Reset()
		delta.MulElem(back, derivative(zs[i]))
		grads.Biases[i] = columnsPerSample(&delta)
		grads.Weights[i] = outerPerSample(&delta, activations[i])
	}
	return grads, nil
}
