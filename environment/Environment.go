// Package environment outlines the interface between placement
// policies and the hosts that execute placed tasks
package environment

import (
	ts "github.com/samuelfneumann/drlplace/timestep"
)

// Host is a simulated or real compute hierarchy. Each TimeStep a Host
// returns carries the current node telemetry and the next task to be
// placed. Hosts report nodes in a stable order for their lifetime.
type Host interface {
	// Nodes returns the IDs of all nodes, in reporting order
	Nodes() []string

	// Reset starts a new episode and returns its first TimeStep
	Reset() (ts.TimeStep, error)

	// Step executes the current task on the node with the given ID and
	// returns the next TimeStep and the outcome of the execution
	Step(nodeID string) (ts.TimeStep, ts.Outcome, error)
}
