package network

import "errors"

// NetworkError implements errors unique to a neural network. Op is the
// operation that failed.
type NetworkError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *NetworkError) Unwrap() error {
	return e.Err
}

var (
	// ErrInvalidInput is reported when an input or target vector has
	// the wrong length
	ErrInvalidInput = errors.New("invalid input")

	// ErrShapeMismatch is reported when copying parameters between
	// networks with different layer sizes
	ErrShapeMismatch = errors.New("shape mismatch")

	errNoSolver = errors.New("network has no solver")
)

// IsInvalidInput returns whether an error reports an input vector of
// the wrong length
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsShapeMismatch returns whether an error reports that two networks
// do not share the same architecture
func IsShapeMismatch(err error) bool {
	return errors.Is(err, ErrShapeMismatch)
}
