package neuralnet

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Helper function for comparing floats with a tolerance
func floatEquals(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func randomVec(rng *rand.Rand, n int) *mat.VecDense {
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.Float64()
	}
	return mat.NewVecDense(n, v)
}

func oneHot(n, class int) *mat.VecDense {
	v := mat.NewVecDense(n, nil)
	v.SetVec(class, 1)
	return v
}

func TestNewNeuralNetworkShapes(t *testing.T) {
	tests := []struct {
		description string
		sizes       []int
	}{
		{"minimal", []int{1, 1}},
		{"single hidden layer", []int{2, 3, 1}},
		{"deep", []int{4, 5, 6, 3, 2}},
		{"wide input", []int{784, 30, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			nn, err := NewNeuralNetwork(tt.sizes, rand.New(rand.NewSource(1)))
			if err != nil {
				t.Fatalf("NewNeuralNetwork(%v) returned error: %v", tt.sizes, err)
			}
			if nn.NumLayers() != len(tt.sizes) {
				t.Fatalf("NumLayers() = %d; want %d", nn.NumLayers(), len(tt.sizes))
			}
			weights, biases := nn.Weights(), nn.Biases()
			if len(weights) != len(tt.sizes)-1 || len(biases) != len(tt.sizes)-1 {
				t.Fatalf("got %d weight and %d bias layers; want %d", len(weights), len(biases), len(tt.sizes)-1)
			}
			for i := range weights {
				r, c := weights[i].Dims()
				if r != tt.sizes[i+1] || c != tt.sizes[i] {
					t.Errorf("weights[%d] is %dx%d; want %dx%d", i, r, c, tt.sizes[i+1], tt.sizes[i])
				}
				if biases[i].Len() != r {
					t.Errorf("biases[%d] has %d rows; want %d", i, biases[i].Len(), r)
				}
			}
		})
	}
}

func TestNewNeuralNetworkInvalidTopology(t *testing.T) {
	tests := []struct {
		description string
		sizes       []int
	}{
		{"nil", nil},
		{"single layer", []int{3}},
		{"zero width", []int{2, 0, 1}},
		{"negative width", []int{-1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			_, err := NewNeuralNetwork(tt.sizes, rand.New(rand.NewSource(1)))
			if errors.Cause(err) != ErrInvalidTopology {
				t.Errorf("NewNeuralNetwork(%v) error = %v; want ErrInvalidTopology", tt.sizes, err)
			}
		})
	}
	if _, err := NewNeuralNetwork([]int{2, 1}, nil); errors.Cause(err) != ErrInvalidTopology {
		t.Errorf("NewNeuralNetwork with nil rng error = %v; want ErrInvalidTopology", err)
	}
}

func TestNewNeuralNetworkStandardNormal(t *testing.T) {
	nn, err := NewNeuralNetwork([]int{200, 100, 10}, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatal(err)
	}
	var values []float64
	for _, w := range nn.Weights() {
		values = append(values, w.RawMatrix().Data...)
	}
	mean := floats.Sum(values) / float64(len(values))
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	if !floatEquals(mean, 0, 0.02) || !floatEquals(variance, 1, 0.05) {
		t.Errorf("weights have mean %v and variance %v; want about 0 and 1", mean, variance)
	}
}

func TestNewNeuralNetworkDeterministic(t *testing.T) {
	a, _ := NewNeuralNetwork([]int{3, 4, 2}, rand.New(rand.NewSource(42)))
	b, _ := NewNeuralNetwork([]int{3, 4, 2}, rand.New(rand.NewSource(42)))
	for i := range a.weights {
		if !mat.Equal(a.weights[i], b.weights[i]) || !mat.Equal(a.biases[i], b.biases[i]) {
			t.Fatalf("layer %d differs between networks built from the same seed", i)
		}
	}
}

func TestFeedForwardRange(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	nn, err := NewNeuralNetwork([]int{4, 6, 3}, rng)
	if err != nil {
		t.Fatal(err)
	}
	for k := 0; k < 20; k++ {
		input := randomVec(rng, 4)
		before := nn.Weights()
		out, err := nn.FeedForward(input)
		if err != nil {
			t.Fatalf("FeedForward returned error: %v", err)
		}
		if out.Len() != 3 {
			t.Fatalf("output has %d rows; want 3", out.Len())
		}
		for i := 0; i < out.Len(); i++ {
			if v := out.AtVec(i); v <= 0 || v >= 1 {
				t.Errorf("output[%d] = %v; want in (0, 1)", i, v)
			}
		}
		for i, w := range nn.Weights() {
			if !mat.Equal(w, before[i]) {
				t.Fatalf("FeedForward changed weights of layer %d", i)
			}
		}
	}
}

func TestFeedForwardMatchesManualComputation(t *testing.T) {
	nn, _ := NewNeuralNetwork([]int{2, 2, 1}, rand.New(rand.NewSource(1)))
	err := nn.SetParams(
		[]*mat.Dense{
			mat.NewDense(2, 2, []float64{0.5, -1, 2, 0.25}),
			mat.NewDense(1, 2, []float64{1, -1}),
		},
		[]*mat.VecDense{
			mat.NewVecDense(2, []float64{0.1, -0.2}),
			mat.NewVecDense(1, []float64{0.3}),
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	s := Sigmoid{}
	x0, x1 := 0.4, 0.9
	h0 := s.Activate(0.5*x0 - 1*x1 + 0.1)
	h1 := s.Activate(2*x0 + 0.25*x1 - 0.2)
	want := s.Activate(h0 - h1 + 0.3)
	out, err := nn.FeedForward(mat.NewVecDense(2, []float64{x0, x1}))
	if err != nil {
		t.Fatal(err)
	}
	if !floatEquals(out.AtVec(0), want, 1e-12) {
		t.Errorf("FeedForward = %v; want %v", out.AtVec(0), want)
	}
}

func TestFeedForwardShapeMismatch(t *testing.T) {
	nn, _ := NewNeuralNetwork([]int{3, 2}, rand.New(rand.NewSource(1)))
	for _, input := range []*mat.VecDense{nil, mat.NewVecDense(2, nil), mat.NewVecDense(4, nil)} {
		if _, err := nn.FeedForward(input); errors.Cause(err) != ErrShapeMismatch {
			t.Errorf("FeedForward error = %v; want ErrShapeMismatch", err)
		}
	}
}

func TestSetParamsRejectsWrongShapes(t *testing.T) {
	nn, _ := NewNeuralNetwork([]int{2, 3, 1}, rand.New(rand.NewSource(1)))
	before := nn.Weights()
	err := nn.SetParams(
		[]*mat.Dense{mat.NewDense(3, 2, nil), mat.NewDense(3, 1, nil)},
		[]*mat.VecDense{mat.NewVecDense(3, nil), mat.NewVecDense(1, nil)},
	)
	if errors.Cause(err) != ErrShapeMismatch {
		t.Fatalf("SetParams error = %v; want ErrShapeMismatch", err)
	}
	for i, w := range nn.Weights() {
		if !mat.Equal(w, before[i]) {
			t.Errorf("SetParams partially applied layer %d", i)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	nn, _ := NewNeuralNetwork([]int{2, 3, 1}, rand.New(rand.NewSource(1)))
	clone := nn.Clone()
	clone.weights[0].Set(0, 0, 1000)
	if nn.weights[0].At(0, 0) == 1000 {
		t.Error("Clone shares weight storage with the original")
	}
}

func TestEvaluate(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	nn, _ := NewNeuralNetwork([]int{5, 8, 4}, rng)
	testData := make([]LabeledSample, 30)
	for i := range testData {
		input := randomVec(rng, 5)
		out, err := nn.FeedForward(input)
		if err != nil {
			t.Fatal(err)
		}
		testData[i] = LabeledSample{Input: input, Label: floats.MaxIdx(out.RawVector().Data)}
	}

	correct, err := nn.Evaluate(testData)
	if err != nil {
		t.Fatal(err)
	}
	if correct != len(testData) {
		t.Errorf("Evaluate = %d; want %d", correct, len(testData))
	}

	const k = 7
	for i := 0; i < k; i++ {
		testData[i*4].Label = (testData[i*4].Label + 1) % 4
	}
	correct, err = nn.Evaluate(testData)
	if err != nil {
		t.Fatal(err)
	}
	if correct != len(testData)-k {
		t.Errorf("Evaluate with %d wrong labels = %d; want %d", k, correct, len(testData)-k)
	}
}

func TestEvaluateTieBreaksToLowestIndex(t *testing.T) {
	nn, _ := NewNeuralNetwork([]int{2, 3}, rand.New(rand.NewSource(1)))
	if err := nn.SetParams([]*mat.Dense{mat.NewDense(3, 2, nil)}, []*mat.VecDense{mat.NewVecDense(3, nil)}); err != nil {
		t.Fatal(err)
	}
	input := mat.NewVecDense(2, []float64{1, 2})
	testData := []LabeledSample{{input, 0}, {input, 1}, {input, 2}}
	correct, err := nn.Evaluate(testData)
	if err != nil {
		t.Fatal(err)
	}
	if correct != 1 {
		t.Errorf("Evaluate = %d; want 1", correct)
	}
	if correct, _ := nn.Evaluate(testData[:1]); correct != 1 {
		t.Errorf("tied output did not predict class 0")
	}
}

func TestEvaluateShapeMismatch(t *testing.T) {
	nn, _ := NewNeuralNetwork([]int{2, 3}, rand.New(rand.NewSource(1)))
	_, err := nn.Evaluate([]LabeledSample{{Input: mat.NewVecDense(3, nil), Label: 0}})
	if errors.Cause(err) != ErrShapeMismatch {
		t.Errorf("Evaluate error = %v; want ErrShapeMismatch", err)
	}
}

func TestCost(t *testing.T) {
	nn, _ := NewNeuralNetwork([]int{2, 2}, rand.New(rand.NewSource(1)))
	if err := nn.SetParams([]*mat.Dense{mat.NewDense(2, 2, nil)}, []*mat.VecDense{mat.NewVecDense(2, nil)}); err != nil {
		t.Fatal(err)
	}
	samples := []Sample{
		{Input: mat.NewVecDense(2, []float64{1, 1}), Target: oneHot(2, 0)},
		{Input: mat.NewVecDense(2, []float64{0, 1}), Target: oneHot(2, 1)},
	}
	// Every output is 0.5, so each sample costs ½(0.25 + 0.25).
	cost, err := nn.Cost(samples)
	if err != nil {
		t.Fatal(err)
	}
	if !floatEquals(cost, 0.25, 1e-12) {
		t.Errorf("Cost = %v; want 0.25", cost)
	}
}
