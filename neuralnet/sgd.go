package neuralnet

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Params are the trainer's hyperparameters.
type Params struct {
	Epochs        int
	MiniBatchSize int
	Eta           float64
}

func NewParams(epochs, miniBatchSize int, eta float64) Params {
	return Params{Epochs: epochs, MiniBatchSize: miniBatchSize, Eta: eta}
}

// Validate reports a non-positive epoch count, batch size or learning rate.
func (p Params) Validate() error {
	if p.Epochs <= 0 {
		return errors.Wrapf(ErrInvalidHyperparameter, "epochs must be > 0 (got %d)", p.Epochs)
	}
	if p.MiniBatchSize <= 0 {
		return errors.Wrapf(ErrInvalidHyperparameter, "mini batch size must be > 0 (got %d)", p.MiniBatchSize)
	}
	if !(p.Eta > 0) {
		return errors.Wrapf(ErrInvalidHyperparameter, "eta must be > 0 (got %v)", p.Eta)
	}
	return nil
}

// EpochReport describes one finished epoch. Correct and Total are only
// meaningful when Evaluated is set.
type EpochReport struct {
	Epoch     int
	Correct   int
	Total     int
	Evaluated bool
	Elapsed   time.Duration
}

// SGD trains the network with mini-batch stochastic gradient descent. Each
// epoch shuffles the training data with rng, splits it into consecutive
// mini-batches of p.MiniBatchSize (the last one may be shorter) and applies
// one update per batch. If testData is non-empty the network is evaluated on
// it after every epoch. onEpoch, when set, receives every report as soon as
// the epoch ends; all reports are also returned.
func (nn *NeuralNetwork) SGD(rng *rand.Rand, trainingData []Sample, p Params, testData []LabeledSample, onEpoch func(EpochReport)) ([]EpochReport, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.Wrap(ErrInvalidHyperparameter, "nil random source")
	}
	for i, sample := range trainingData {
		if err := nn.checkSample(sample.Input, sample.Target); err != nil {
			return nil, errors.Wrapf(err, "training sample %d", i)
		}
	}
	for i, sample := range testData {
		if err := nn.checkInput(sample.Input); err != nil {
			return nil, errors.Wrapf(err, "test sample %d", i)
		}
	}

	data := append([]Sample(nil), trainingData...)
	n := len(data)
	optimizer := GradientDescent{Eta: p.Eta}
	reports := make([]EpochReport, 0, p.Epochs)
	for e := 0; e < p.Epochs; e++ {
		start := time.Now()
		rng.Shuffle(n, func(i, j int) {
			data[i], data[j] = data[j], data[i]
		})
		for k := 0; k < n; k += p.MiniBatchSize {
			end := k + p.MiniBatchSize
			if end > n {
				end = n
			}
			if err := nn.updateMiniBatch(data[k:end], optimizer); err != nil {
				return reports, errors.Wrapf(err, "epoch %d, batch at %d", e, k)
			}
		}

		report := EpochReport{Epoch: e}
		if len(testData) > 0 {
			correct, err := nn.Evaluate(testData)
			if err != nil {
				return reports, err
			}
			report.Correct = correct
			report.Total = len(testData)
			report.Evaluated = true
		}
		report.Elapsed = time.Since(start)
		reports = append(reports, report)
		if onEpoch != nil {
			onEpoch(report)
		}
	}
	return reports, nil
}

func (nn *NeuralNetwork) updateMiniBatch(batch []Sample, optimizer GradientDescent) error {
	inputs := make([]*mat.VecDense, len(batch))
	targets := make([]*mat.VecDense, len(batch))
	for i, sample := range batch {
		inputs[i] = sample.Input
		targets[i] = sample.Target
	}
	grads, err := nn.Backprop(inputs, targets)
	if err != nil {
		return err
	}
	return optimizer.Apply(nn, grads)
}
