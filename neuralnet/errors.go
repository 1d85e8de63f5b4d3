package neuralnet

// Error is the kind of failure reported by the network. Call sites wrap these
// values with detail, so compare against errors.Cause(err).
type Error struct{ string }

func (err Error) Error() string {
	return err.string
}

var (
	ErrInvalidTopology       = Error{"invalid topology"}
	ErrShapeMismatch         = Error{"shape mismatch"}
	ErrInvalidHyperparameter = Error{"invalid hyperparameter"}
)
