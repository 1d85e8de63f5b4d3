package neuralnet

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Sample is a training pair: an input column and its one-hot target.
type Sample struct {
	Input  *mat.VecDense
	Target *mat.VecDense
}

// LabeledSample is an evaluation pair: an input column and its class index.
type LabeledSample struct {
	Input *mat.VecDense
	Label int
}

// NeuralNetwork is a fully-connected sigmoid network. weights[i] and
// biases[i] feed layer i+1 from layer i; the input layer has no parameters.
type NeuralNetwork struct {
	sizes   []int
	weights []*mat.Dense
	biases  []*mat.VecDense
}

// NewNeuralNetwork builds a network with one entry per layer in sizes, the
// first being the input width and the last the output width. Every weight
// and bias is drawn from a standard normal distribution using rng.
func NewNeuralNetwork(sizes []int, rng *rand.Rand) (*NeuralNetwork, error) {
	if len(sizes) < 2 {
		return nil, errors.Wrapf(ErrInvalidTopology, "need at least 2 layers, got %d", len(sizes))
	}
	for l, size := range sizes {
		if size <= 0 {
			return nil, errors.Wrapf(ErrInvalidTopology, "layer %d has %d neurons", l, size)
		}
	}
	if rng == nil {
		return nil, errors.Wrap(ErrInvalidTopology, "nil random source")
	}

	nn := &NeuralNetwork{
		sizes:   append([]int(nil), sizes...),
		weights: make([]*mat.Dense, len(sizes)-1),
		biases:  make([]*mat.VecDense, len(sizes)-1),
	}
	for i := range nn.weights {
		in, out := sizes[i], sizes[i+1]
		b := make([]float64, out)
		for j := range b {
			b[j] = rng.NormFloat64()
		}
		w := make([]float64, out*in)
		for j := range w {
			w[j] = rng.NormFloat64()
		}
		nn.biases[i] = mat.NewVecDense(out, b)
		nn.weights[i] = mat.NewDense(out, in, w)
	}
	return nn, nil
}

// Sizes returns the neuron count of every layer.
func (nn *NeuralNetwork) Sizes() []int {
	return append([]int(nil), nn.sizes...)
}

func (nn *NeuralNetwork) NumLayers() int {
	return len(nn.sizes)
}

// Weights returns copies of the weight matrices, one per non-input layer.
func (nn *NeuralNetwork) Weights() []*mat.Dense {
	out := make([]*mat.Dense, len(nn.weights))
	for i, w := range nn.weights {
		out[i] = mat.DenseCopyOf(w)
	}
	return out
}

// Biases returns copies of the bias vectors, one per non-input layer.
func (nn *NeuralNetwork) Biases() []*mat.VecDense {
	out := make([]*mat.VecDense, len(nn.biases))
	for i, b := range nn.biases {
		out[i] = mat.VecDenseCopyOf(b)
	}
	return out
}

// SetParams replaces every weight and bias. Nothing is changed unless all
// shapes match the topology.
func (nn *NeuralNetwork) SetParams(weights []*mat.Dense, biases []*mat.VecDense) error {
	if len(weights) != len(nn.weights) || len(biases) != len(nn.biases) {
		return errors.Wrapf(ErrShapeMismatch, "got %d weight and %d bias layers, want %d",
			len(weights), len(biases), len(nn.weights))
	}
	for i := range nn.weights {
		r, c := weights[i].Dims()
		if r != nn.sizes[i+1] || c != nn.sizes[i] {
			return errors.Wrapf(ErrShapeMismatch, "weights %d are %dx%d, want %dx%d",
				i, r, c, nn.sizes[i+1], nn.sizes[i])
		}
		if biases[i].Len() != nn.sizes[i+1] {
			return errors.Wrapf(ErrShapeMismatch, "biases %d have %d rows, want %d",
				i, biases[i].Len(), nn.sizes[i+1])
		}
	}
	for i := range nn.weights {
		nn.weights[i] = mat.DenseCopyOf(weights[i])
		nn.biases[i] = mat.VecDenseCopyOf(biases[i])
	}
	return nil
}

// Clone returns a deep copy of the network.
func (nn *NeuralNetwork) Clone() *NeuralNetwork {
	return &NeuralNetwork{
		sizes:   nn.Sizes(),
		weights: nn.Weights(),
		biases:  nn.Biases(),
	}
}

// forward runs the batched forward pass over x, which holds one sample per
// column. zs[i] is the weighted input of layer i+1; activations[0] is x and
// activations[i+1] = sigmoid(zs[i]).
func (nn *NeuralNetwork) forward(x *mat.Dense) (zs, activations []*mat.Dense) {
	zs = make([]*mat.Dense, 0, len(nn.weights))
	activations = make([]*mat.Dense, 0, len(nn.weights)+1)
	activation := x
	activations = append(activations, activation)
	for i, w := range nn.weights {
		z := batchMul(w, activation)
		addBias(z, nn.biases[i])
		zs = append(zs, z)
		activation = activate(z)
		activations = append(activations, activation)
	}
	return zs, activations
}

// FeedForward returns the output layer activation for a single input.
func (nn *NeuralNetwork) FeedForward(input *mat.VecDense) (*mat.VecDense, error) {
	if err := nn.checkInput(input); err != nil {
		return nil, err
	}
	_, activations := nn.forward(packColumns(nn.sizes[0], []*mat.VecDense{input}))
	out := activations[len(activations)-1]
	return mat.NewVecDense(nn.sizes[len(nn.sizes)-1], mat.Col(nil, 0, out)), nil
}

// Evaluate returns how many samples are classified correctly. The predicted
// class is the index of the largest output activation, the lowest index
// winning ties.
func (nn *NeuralNetwork) Evaluate(testData []LabeledSample) (int, error) {
	for i, sample := range testData {
		if err := nn.checkInput(sample.Input); err != nil {
			return 0, errors.Wrapf(err, "test sample %d", i)
		}
	}
	correct := 0
	for _, sample := range testData {
		out, err := nn.FeedForward(sample.Input)
		if err != nil {
			return 0, err
		}
		if floats.MaxIdx(out.RawVector().Data) == sample.Label {
			correct++
		}
	}
	return correct, nil
}

// Cost returns the mean quadratic cost over samples.
func (nn *NeuralNetwork) Cost(samples []Sample) (float64, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	var total float64
	for i, sample := range samples {
		if err := nn.checkSample(sample.Input, sample.Target); err != nil {
			return 0, errors.Wrapf(err, "sample %d", i)
		}
		out, err := nn.FeedForward(sample.Input)
		if err != nil {
			return 0, err
		}
		total += Quadratic{}.Compute(out, sample.Target)
	}
	return total / float64(len(samples)), nil
}

func (nn *NeuralNetwork) checkInput(input *mat.VecDense) error {
	if input == nil {
		return errors.Wrap(ErrShapeMismatch, "nil input")
	}
	if input.Len() != nn.sizes[0] {
		return errors.Wrapf(ErrShapeMismatch, "input has %d rows, want %d", input.Len(), nn.sizes[0])
	}
	return nil
}

func (nn *NeuralNetwork) checkSample(input, target *mat.VecDense) error {
	if err := nn.checkInput(input); err != nil {
		return err
	}
	want := nn.sizes[len(nn.sizes)-1]
	if target == nil {
		return errors.Wrap(ErrShapeMismatch, "nil target")
	}
	if target.Len() != want {
		return errors.Wrapf(ErrShapeMismatch, "target has %d rows, want %d", target.Len(), want)
	}
	return nil
}

// Debug
func (nn *NeuralNetwork) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Sizes: %v\n", nn.sizes))
	for i := range nn.weights {
		sb.WriteString(fmt.Sprintf("Layer %d:\nweights=%v\nbiases=%v\n", i+1,
			mat.Formatted(nn.weights[i], mat.Prefix("        "), mat.Squeeze()),
			mat.Formatted(nn.biases[i].T(), mat.Squeeze())))
	}
	return sb.String()
}
