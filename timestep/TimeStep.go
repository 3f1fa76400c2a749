// Package timestep implements the decision epochs of the
// host-placement interaction
package timestep

import (
	"fmt"
)

// StepType denotes the type of step that a TimeStep can be, either the
// first decision of an episode, a middle decision, or the last one
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// Tier is the level of the compute hierarchy a node belongs to
type Tier int

const (
	Cloud Tier = iota
	Edge
	Mobile
)

func (t Tier) String() string {
	switch t {
	case Cloud:
		return "cloud"
	case Edge:
		return "edge"
	case Mobile:
		return "mobile"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier returns the Tier named by s
func ParseTier(s string) (Tier, error) {
	switch s {
	case "cloud":
		return Cloud, nil
	case "edge":
		return Edge, nil
	case "mobile":
		return Mobile, nil
	}
	return 0, fmt.Errorf("parseTier: unknown tier %q", s)
}

// Node is the telemetry reported for one candidate placement target
type Node struct {
	ID              string
	Tier            Tier
	UtilizationPct  float64
	MemoryPct       float64
	UplinkLatencyMs float64

	// Free capacity, used by capacity-aware baselines
	AvailableMIPS float64
	AvailableRAM  float64
}

// Task describes the resource requirements of one task module
type Task struct {
	ID           string
	ComputeUnits float64
	MemoryUnits  float64
	InputKB      float64
}

// Outcome is measured by the host after a placed task has executed
type Outcome struct {
	ExecutionTimeMs float64
	EnergyJoules    float64
	NetworkBytes    float64
	Failed          bool
}

// TimeStep packages together a single decision epoch: the candidate
// nodes and the task that must be placed on one of them
type TimeStep struct {
	stepType StepType
	Number   int
	Nodes    []Node
	Task     Task
}

// New returns a new TimeStep
func New(t StepType, n int, nodes []Node, task Task) TimeStep {
	return TimeStep{stepType: t, Number: n, Nodes: nodes, Task: task}
}

// Type returns the StepType of the TimeStep
func (t TimeStep) Type() StepType {
	return t.stepType
}

// First returns whether a TimeStep is the first in an episode
func (t TimeStep) First() bool {
	return t.stepType == First
}

// Mid returns whether a TimeStep is a middle step in an episode
func (t TimeStep) Mid() bool {
	return t.stepType == Mid
}

// Last returns whether a TimeStep is the last step in an episode
func (t TimeStep) Last() bool {
	return t.stepType == Last
}

// Node returns the telemetry of the node with the given ID
func (t TimeStep) Node(id string) (Node, bool) {
	for _, n := range t.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Nodes: %d  |  Task: %v  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.stepType, len(t.Nodes), t.Task.ID, t.Number)
}
