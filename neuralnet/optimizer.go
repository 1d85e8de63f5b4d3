package neuralnet

import "github.com/pkg/errors"

// GradientDescent applies plain mini-batch gradient descent with learning
// rate Eta.
type GradientDescent struct {
	Eta float64
}

// Apply sums the per-sample gradients in g and updates every parameter as
// w ← w − (Eta / batch) · Σ nabla_w. The network is left untouched on error.
func (o GradientDescent) Apply(nn *NeuralNetwork, g *Gradients) error {
	if o.Eta <= 0 {
		return errors.Wrapf(ErrInvalidHyperparameter, "learning rate %v", o.Eta)
	}
	batchSize := g.BatchSize()
	if batchSize <= 0 {
		return errors.Wrap(ErrInvalidHyperparameter, "invalid batch size")
	}
	if len(g.Weights) != len(nn.weights) {
		return errors.Wrapf(ErrShapeMismatch, "%d gradient layers, network has %d", len(g.Weights), len(nn.weights))
	}
	nablaW, nablaB, err := g.Sum()
	if err != nil {
		return err
	}
	for i := range nn.weights {
		r, c := nablaW[i].Dims()
		if r != nn.sizes[i+1] || c != nn.sizes[i] {
			return errors.Wrapf(ErrShapeMismatch, "weight gradient %d is %dx%d, want %dx%d",
				i, r, c, nn.sizes[i+1], nn.sizes[i])
		}
		if n := g.Weights[i].Shape()[0]; n != batchSize {
			return errors.Wrapf(ErrShapeMismatch, "layer %d holds %d samples, want %d", i, n, batchSize)
		}
	}

	scale := o.Eta / float64(batchSize)
	for i := range nn.weights {
		nn.weights[i].Apply(func(r, c int, w float64) float64 {
			return w - scale*nablaW[i].At(r, c)
		}, nn.weights[i])
		nn.biases[i].AddScaledVec(nn.biases[i], -scale, nablaB[i])
	}
	return nil
}
