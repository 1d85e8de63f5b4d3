package main

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"sgdnet/neuralnet"
)

const (
	ImageSize  = 32 * 32 * 3
	LabelSize  = 1
	Row        = LabelSize + ImageSize
	NumClasses = 10
)

// loadCIFAR10 reads a CIFAR-10 binary batch: records of one label byte
// followed by 3072 pixel bytes in channel-major order. Pixels are scaled to
// [0, 1]. At most limit records are read when limit > 0.
func loadCIFAR10(filePath string, limit int) ([]*tensor.Dense, []int, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open dataset")
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	images := make([]*tensor.Dense, 0)
	labels := make([]int, 0)
	row := make([]byte, Row)
	for limit <= 0 || len(labels) < limit {
		_, err := io.ReadFull(reader, row)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrapf(err, "record %d of %s", len(labels), filePath)
		}
		if int(row[0]) >= NumClasses {
			return nil, nil, errors.Errorf("record %d of %s: label %d out of range", len(labels), filePath, row[0])
		}
		labels = append(labels, int(row[0]))

		img := row[LabelSize : LabelSize+ImageSize]
		norm := make([]float64, ImageSize)
		for i := range img {
			norm[i] = float64(img[i]) / 255.0
		}
		images = append(images, tensor.New(tensor.WithShape(3, 32, 32), tensor.WithBacking(norm)))
	}
	return images, labels, nil
}

// readLabels reads one class name per line.
func readLabels(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "open label names")
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var words []string
	for scanner.Scan() {
		if word := scanner.Text(); word != "" {
			words = append(words, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read label names")
	}
	return words, nil
}

func oneHotEncode(labels []int, numClasses int) *tensor.Dense {
	numLabels := len(labels)
	norm := make([]float64, numLabels*numClasses)

	for i, label := range labels {
		norm[i*numClasses+label] = 1.0
	}

	return tensor.New(tensor.WithShape(numLabels, numClasses), tensor.WithBacking(norm))
}

// flatten turns an image tensor into an input column.
func flatten(img *tensor.Dense) *mat.VecDense {
	data := img.Data().([]float64)
	return mat.NewVecDense(len(data), append([]float64(nil), data...))
}

// trainingSamples pairs every image with its one-hot target.
func trainingSamples(images []*tensor.Dense, labels []int) []neuralnet.Sample {
	if len(labels) == 0 {
		return nil
	}
	targets := oneHotEncode(labels, NumClasses).Data().([]float64)
	samples := make([]neuralnet.Sample, len(images))
	for i, img := range images {
		target := append([]float64(nil), targets[i*NumClasses:(i+1)*NumClasses]...)
		samples[i] = neuralnet.Sample{
			Input:  flatten(img),
			Target: mat.NewVecDense(NumClasses, target),
		}
	}
	return samples
}

// testSamples pairs every image with its class index.
func testSamples(images []*tensor.Dense, labels []int) []neuralnet.LabeledSample {
	samples := make([]neuralnet.LabeledSample, len(images))
	for i, img := range images {
		samples[i] = neuralnet.LabeledSample{Input: flatten(img), Label: labels[i]}
	}
	return samples
}
