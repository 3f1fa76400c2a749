package expreplay

import "errors"

// ExpReplayError implements errors unique to an experience replay
// buffer.
type ExpReplayError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *ExpReplayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *ExpReplayError) Unwrap() error {
	return e.Err
}

var errZeroCapacity = errors.New("capacity must be positive")

var errNilSource = errors.New("nil random source")

// IsZeroCapacity returns whether or not an error reports that a
// replay buffer was configured without room for any experience.
func IsZeroCapacity(err error) bool {
	return errors.Is(err, errZeroCapacity)
}
