// Package placement implements policies that decide which node each
// task is placed on
package placement

import (
	"errors"

	ts "github.com/samuelfneumann/drlplace/timestep"
)

// Policy decides where tasks are placed. For each TimeStep, Select is
// called once, the host executes the task on the selected node, and
// Observe is called with the measured outcome and the TimeStep that
// follows the placement.
type Policy interface {
	// Name returns a short name identifying the policy in reports
	Name() string

	// Select returns the ID of the node to place step.Task on
	Select(step ts.TimeStep) (string, error)

	// Observe reports the outcome of the last selection and the next
	// TimeStep observed by the host. next may carry no nodes if the host
	// cannot observe the state after the placement.
	Observe(outcome ts.Outcome, next ts.TimeStep) error
}

// ErrNoCandidate is reported when a policy cannot find any node able
// to host a task
var ErrNoCandidate = errors.New("no candidate node")

// IsNoCandidate returns whether an error reports that no node could
// host a task
func IsNoCandidate(err error) bool {
	return errors.Is(err, ErrNoCandidate)
}
