package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config captures the knobs of a training run.
type Config struct {
	TrainPath     string  `yaml:"train_path"`
	TestPath      string  `yaml:"test_path"`
	LabelsPath    string  `yaml:"labels_path"`
	Sizes         []int   `yaml:"sizes"`
	Epochs        int     `yaml:"epochs"`
	MiniBatchSize int     `yaml:"mini_batch_size"`
	Eta           float64 `yaml:"eta"`
	Seed          int64   `yaml:"seed"`
	Limit         int     `yaml:"limit"`
	SavePath      string  `yaml:"save_path"`
	PreviewPath   string  `yaml:"preview_path"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	TrainPath     string
	TestPath      string
	Epochs        int
	MiniBatchSize int
	Eta           float64
	Seed          int64
	Limit         int
	SavePath      string
}

// DefaultConfig mirrors the classic setup: one hidden layer of 30 neurons,
// 30 epochs of mini-batches of 10 at learning rate 3.0.
func DefaultConfig() *Config {
	return &Config{
		Sizes:         []int{ImageSize, 30, NumClasses},
		Epochs:        30,
		MiniBatchSize: 10,
		Eta:           3.0,
	}
}

// LoadConfig reads a YAML file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.TrainPath != "" {
		c.TrainPath = o.TrainPath
	}
	if o.TestPath != "" {
		c.TestPath = o.TestPath
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.MiniBatchSize > 0 {
		c.MiniBatchSize = o.MiniBatchSize
	}
	if o.Eta > 0 {
		c.Eta = o.Eta
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Limit > 0 {
		c.Limit = o.Limit
	}
	if o.SavePath != "" {
		c.SavePath = o.SavePath
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.TrainPath == "" {
		return errors.New("train_path must be set")
	}
	if len(c.Sizes) < 2 {
		return errors.Errorf("sizes needs at least 2 layers (got %v)", c.Sizes)
	}
	if c.Sizes[0] != ImageSize || c.Sizes[len(c.Sizes)-1] != NumClasses {
		return errors.Errorf("sizes must start with %d and end with %d (got %v)", ImageSize, NumClasses, c.Sizes)
	}
	if c.Epochs <= 0 {
		return errors.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.MiniBatchSize <= 0 {
		return errors.Errorf("mini_batch_size must be > 0 (got %d)", c.MiniBatchSize)
	}
	if c.Eta <= 0 {
		return errors.Errorf("eta must be > 0 (got %v)", c.Eta)
	}
	return nil
}
