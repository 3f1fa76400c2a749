// Package agent defines the capability interfaces of learning agents
// that choose among a fixed set of discrete actions
package agent

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state. The Policy chooses which actions
// are taken, and the Learner uses these actions to update the Policy.
type Agent interface {
	Learner
	Policy

	// Features returns the length of state vectors
	Features() int
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Remember records that taking action in state led to reward and
	// nextState
	Remember(state []float64, action int, reward float64,
		nextState []float64, terminal bool) error

	// Train performs a single update and returns its loss
	Train() (float64, error)
}

// Policy represents a policy that an agent can have.
//
// In evaluation mode a policy acts greedily with respect to its current
// estimates and does not explore.
type Policy interface {
	SelectAction(state []float64) (int, error)

	// ActionCount returns the number of discrete actions
	ActionCount() int

	Eval()        // Set policy to evaluation mode
	Explore()     // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// EGreedy is a Policy which explores by taking random actions with
// probability epsilon
type EGreedy interface {
	Policy
	Epsilon() float64
}

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes for
	// states of the given length and the given number of actions. All
	// randomness is drawn from src.
	CreateAgent(features, actions int, src rand.Source,
		log logrus.FieldLogger) (Agent, error)

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error
}
