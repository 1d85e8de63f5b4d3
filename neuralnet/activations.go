package neuralnet

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Sigmoid is the logistic activation used by every non-input layer.
type Sigmoid struct{}

func (s Sigmoid) Activate(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func (s Sigmoid) Derivative(z float64) float64 {
	sigmoid := s.Activate(z)
	return sigmoid * (1 - sigmoid)
}

// activate returns sigmoid(z) element-wise as a new matrix.
func activate(z *mat.Dense) *mat.Dense {
	var a mat.Dense
	a.Apply(func(_, _ int, v float64) float64 {
		return Sigmoid{}.Activate(v)
	}, z)
	return &a
}

// derivative returns sigmoid'(z) element-wise as a new matrix.
func derivative(z *mat.Dense) *mat.Dense {
	var sp mat.Dense
	sp.Apply(func(_, _ int, v float64) float64 {
		return Sigmoid{}.Derivative(v)
	}, z)
	return &sp
}
