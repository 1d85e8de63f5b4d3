package neuralnet

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Quadratic is the squared-error cost C = ½‖a − y‖².
type Quadratic struct{}

// Compute returns the cost of a single output activation against its target.
func (q Quadratic) Compute(output, target mat.Vector) float64 {
	var diff mat.VecDense
	diff.SubVec(output, target)
	raw := diff.RawVector().Data
	return 0.5 * floats.Dot(raw, raw)
}

// Derivative returns ∂C/∂a = a − y. Both arguments may hold one sample per
// column.
func (q Quadratic) Derivative(output, target mat.Matrix) *mat.Dense {
	var grad mat.Dense
	grad.Sub(output, target)
	return &grad
}
