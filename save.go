package main

import (
	"bufio"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"sgdnet/neuralnet"
)

// saveParams writes the layer sizes followed by every weight matrix and
// bias vector in gonum's binary form.
func saveParams(path string, nn *neuralnet.NeuralNetwork) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create params file")
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	sizes := nn.Sizes()
	header := make([]int64, len(sizes)+1)
	header[0] = int64(len(sizes))
	for i, size := range sizes {
		header[i+1] = int64(size)
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return errors.Wrap(err, "write sizes")
	}
	biases := nn.Biases()
	for i, weights := range nn.Weights() {
		if _, err := weights.MarshalBinaryTo(w); err != nil {
			return errors.Wrapf(err, "write weights %d", i)
		}
		if _, err := biases[i].MarshalBinaryTo(w); err != nil {
			return errors.Wrapf(err, "write biases %d", i)
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "flush params file")
	}
	return file.Close()
}

// loadParams restores a network written by saveParams.
func loadParams(path string) (*neuralnet.NeuralNetwork, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open params file")
	}
	defer file.Close()

	r := bufio.NewReader(file)
	var n int64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, errors.Wrap(err, "read layer count")
	}
	if n < 2 || n > 1<<16 {
		return nil, errors.Errorf("params file declares %d layers", n)
	}
	raw := make([]int64, n)
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return nil, errors.Wrap(err, "read sizes")
	}
	sizes := make([]int, n)
	for i, size := range raw {
		sizes[i] = int(size)
	}

	// The generator only fills parameters that are overwritten below.
	nn, err := neuralnet.NewNeuralNetwork(sizes, rand.New(rand.NewSource(0)))
	if err != nil {
		return nil, err
	}
	weights := make([]*mat.Dense, n-1)
	biases := make([]*mat.VecDense, n-1)
	for i := range weights {
		weights[i] = &mat.Dense{}
		if _, err := weights[i].UnmarshalBinaryFrom(r); err != nil {
			return nil, errors.Wrapf(err, "read weights %d", i)
		}
		biases[i] = &mat.VecDense{}
		if _, err := biases[i].UnmarshalBinaryFrom(r); err != nil {
			return nil, errors.Wrapf(err, "read biases %d", i)
		}
	}
	if err := nn.SetParams(weights, biases); err != nil {
		return nil, err
	}
	return nn, nil
}

// savePreview writes a (3, 32, 32) image tensor as a PNG file.
func savePreview(path string, t *tensor.Dense) error {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			var rgb [3]uint8
			for c := range rgb {
				v, err := t.At(c, y, x)
				if err != nil {
					return errors.Wrapf(err, "pixel %d,%d", x, y)
				}
				rgb[c] = uint8(math.Round(v.(float64) * 255.0))
			}
			img.Set(x, y, color.RGBA{rgb[0], rgb[1], rgb[2], 255})
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create preview")
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return errors.Wrap(err, "encode preview")
	}
	return file.Close()
}
