package deepq

import "errors"

var (
	// ErrInvalidAction is reported for action indices outside
	// [0, number of actions)
	ErrInvalidAction = errors.New("invalid action")

	// ErrInvalidState is reported for state vectors of the wrong length
	ErrInvalidState = errors.New("invalid state")
)

// IsInvalidAction returns whether an error reports an out-of-range
// action index
func IsInvalidAction(err error) bool {
	return errors.Is(err, ErrInvalidAction)
}

// IsInvalidState returns whether an error reports a state vector of the
// wrong length
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}
