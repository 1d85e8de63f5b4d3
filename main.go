package main

import (
	"flag"
	"log"
	"math/rand"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"sgdnet/neuralnet"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config")
	trainPath := flag.String("train", "", "CIFAR-10 training batch")
	testPath := flag.String("test", "", "CIFAR-10 test batch")
	epochs := flag.Int("epochs", 0, "Number of epochs")
	miniBatchSize := flag.Int("batch-size", 0, "Mini-batch size")
	eta := flag.Float64("eta", 0, "Learning rate")
	seed := flag.Int64("seed", 0, "PRNG seed")
	limit := flag.Int("limit", 0, "Read at most this many records per file")
	savePath := flag.String("save", "", "Write trained parameters to this file")
	resumePath := flag.String("resume", "", "Start from parameters saved earlier")
	gradCheck := flag.Int("gradcheck", 0, "Compare analytic and numerical gradients on this many samples before training")

	flag.Parse()

	cfg := DefaultConfig()
	if *cfgPath != "" {
		var err error
		if cfg, err = LoadConfig(*cfgPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	cfg.ApplyOverrides(Overrides{
		TrainPath:     *trainPath,
		TestPath:      *testPath,
		Epochs:        *epochs,
		MiniBatchSize: *miniBatchSize,
		Eta:           *eta,
		Seed:          *seed,
		Limit:         *limit,
		SavePath:      *savePath,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	images, labels, err := loadCIFAR10(cfg.TrainPath, cfg.Limit)
	if err != nil {
		log.Fatalf("Error loading CIFAR-10: %v", err)
	}
	trainingData := trainingSamples(images, labels)
	log.Printf("train=%s samples=%d", cfg.TrainPath, len(trainingData))

	if cfg.PreviewPath != "" && len(images) > 0 {
		name := "0"
		if cfg.LabelsPath != "" {
			if words, err := readLabels(cfg.LabelsPath); err == nil && labels[0] < len(words) {
				name = words[labels[0]]
			}
		}
		preview := filepath.Join(cfg.PreviewPath, "file_"+name+"_0.png")
		if err := savePreview(preview, images[0]); err != nil {
			log.Printf("preview failed: %v", err)
		} else {
			log.Printf("Image saved as %s", preview)
		}
	}

	var testData []neuralnet.LabeledSample
	if cfg.TestPath != "" {
		testImages, testLabels, err := loadCIFAR10(cfg.TestPath, cfg.Limit)
		if err != nil {
			log.Fatalf("Error loading CIFAR-10: %v", err)
		}
		testData = testSamples(testImages, testLabels)
		log.Printf("test=%s samples=%d", cfg.TestPath, len(testData))
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	var nn *neuralnet.NeuralNetwork
	if *resumePath != "" {
		if nn, err = loadParams(*resumePath); err != nil {
			log.Fatalf("failed to resume: %v", err)
		}
	} else if nn, err = neuralnet.NewNeuralNetwork(cfg.Sizes, rng); err != nil {
		log.Fatalf("failed to build network: %v", err)
	}

	if *gradCheck > 0 {
		n := *gradCheck
		if n > len(trainingData) {
			n = len(trainingData)
		}
		inputs := make([]*mat.VecDense, n)
		targets := make([]*mat.VecDense, n)
		for i := 0; i < n; i++ {
			inputs[i], targets[i] = trainingData[i].Input, trainingData[i].Target
		}
		worst, err := nn.CheckGradients(inputs, targets)
		if err != nil {
			log.Fatalf("gradient check failed: %v", err)
		}
		log.Printf("gradcheck samples=%d max_abs_diff=%.3g", n, worst)
	}

	params := neuralnet.NewParams(cfg.Epochs, cfg.MiniBatchSize, cfg.Eta)
	_, err = nn.SGD(rng, trainingData, params, testData, func(r neuralnet.EpochReport) {
		if r.Evaluated {
			log.Printf("Epoch %d: %d / %d elapsed=%s", r.Epoch, r.Correct, r.Total, r.Elapsed)
		} else {
			log.Printf("Epoch %d complete elapsed=%s", r.Epoch, r.Elapsed)
		}
	})
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}

	if cfg.SavePath != "" {
		if err := saveParams(cfg.SavePath, nn); err != nil {
			log.Fatalf("failed to save parameters: %v", err)
		}
		log.Printf("params saved to %s", cfg.SavePath)
	}
}
