package neuralnet

import (
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// A batch of vectors is held as a single matrix with one sample per column.
// Multiplying a layer's weights by such a matrix applies the same weights to
// every sample without replicating them.

// packColumns stacks vectors of length rows into a (rows, len(vs)) matrix.
func packColumns(rows int, vs []*mat.VecDense) *mat.Dense {
	m := mat.NewDense(rows, len(vs), nil)
	for s, v := range vs {
		for i := 0; i < rows; i++ {
			m.Set(i, s, v.AtVec(i))
		}
	}
	return m
}

// batchMul computes w·a for every sample column of a.
func batchMul(w mat.Matrix, a mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Mul(w, a)
	return &out
}

// addBias adds b to every column of z in place.
func addBias(z *mat.Dense, b *mat.VecDense) {
	rows, cols := z.Dims()
	for i := 0; i < rows; i++ {
		bi := b.AtVec(i)
		for s := 0; s < cols; s++ {
			z.Set(i, s, z.At(i, s)+bi)
		}
	}
}

// outerPerSample returns the per-sample outer products delta[:,s] · prev[:,s]ᵗ
// as a tensor of shape (batch, rows(delta), rows(prev)).
func outerPerSample(delta, prev *mat.Dense) *tensor.Dense {
	r, batch := delta.Dims()
	c, _ := prev.Dims()
	backing := make([]float64, batch*r*c)
	for s := 0; s < batch; s++ {
		block := backing[s*r*c : (s+1)*r*c]
		for i := 0; i < r; i++ {
			d := delta.At(i, s)
			for j := 0; j < c; j++ {
				block[i*c+j] = d * prev.At(j, s)
			}
		}
	}
	return tensor.New(tensor.WithShape(batch, r, c), tensor.WithBacking(backing))
}

// columnsPerSample returns delta as a tensor of shape (batch, rows, 1).
func columnsPerSample(delta *mat.Dense) *tensor.Dense {
	r, batch := delta.Dims()
	backing := make([]float64, batch*r)
	for s := 0; s < batch; s++ {
		for i := 0; i < r; i++ {
			backing[s*r+i] = delta.At(i, s)
		}
	}
	return tensor.New(tensor.WithShape(batch, r, 1), tensor.WithBacking(backing))
}
