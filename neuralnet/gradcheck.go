package neuralnet

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// NumericalGradients estimates the gradient of the summed quadratic cost over
// the batch with central finite differences. The result is shaped like the
// network's parameters and is comparable to Backprop followed by Sum.
func (nn *NeuralNetwork) NumericalGradients(inputs, targets []*mat.VecDense) ([]*mat.Dense, []*mat.VecDense, error) {
	if len(inputs) != len(targets) {
		return nil, nil, errors.Wrapf(ErrShapeMismatch, "%d inputs but %d targets", len(inputs), len(targets))
	}
	for s := range inputs {
		if err := nn.checkSample(inputs[s], targets[s]); err != nil {
			return nil, nil, errors.Wrapf(err, "batch sample %d", s)
		}
	}

	probe := nn.Clone()
	x := probe.flatten()
	cost := func(params []float64) float64 {
		probe.unflatten(params)
		var total float64
		for s := range inputs {
			out, _ := probe.FeedForward(inputs[s])
			total += Quadratic{}.Compute(out, targets[s])
		}
		return total
	}
	grad := fd.Gradient(nil, cost, x, &fd.Settings{
		Formula: fd.Central,
		Step:    1e-6,
	})

	probe.unflatten(grad)
	return probe.weights, probe.biases, nil
}

// CheckGradients returns the largest absolute difference between the
// analytic and the numerical gradient over every weight and bias.
func (nn *NeuralNetwork) CheckGradients(inputs, targets []*mat.VecDense) (float64, error) {
	grads, err := nn.Backprop(inputs, targets)
	if err != nil {
		return 0, err
	}
	analyticW, analyticB, err := grads.Sum()
	if err != nil {
		return 0, err
	}
	numericW, numericB, err := nn.NumericalGradients(inputs, targets)
	if err != nil {
		return 0, err
	}
	var worst float64
	for i := range analyticW {
		worst = math.Max(worst, maxAbsDiff(analyticW[i], numericW[i]))
		worst = math.Max(worst, maxAbsDiff(analyticB[i], numericB[i]))
	}
	return worst, nil
}

func maxAbsDiff(a, b mat.Matrix) float64 {
	var diff mat.Dense
	diff.Sub(a, b)
	return math.Max(mat.Max(&diff), -mat.Min(&diff))
}

// flatten lays out all parameters layer by layer, weights before biases.
func (nn *NeuralNetwork) flatten() []float64 {
	var out []float64
	for i := range nn.weights {
		out = append(out, nn.weights[i].RawMatrix().Data...)
		out = append(out, nn.biases[i].RawVector().Data...)
	}
	return out
}

// unflatten is the inverse of flatten.
func (nn *NeuralNetwork) unflatten(params []float64) {
	k := 0
	for i := range nn.weights {
		r, c := nn.weights[i].Dims()
		for row := 0; row < r; row++ {
			for col := 0; col < c; col++ {
				nn.weights[i].Set(row, col, params[k])
				k++
			}
		}
		for row := 0; row < r; row++ {
			nn.biases[i].SetVec(row, params[k])
			k++
		}
	}
}
