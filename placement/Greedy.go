package placement

import (
	"fmt"
	"math"

	ts "github.com/samuelfneumann/drlplace/timestep"
)

// strainWeight scales resource strain against the tier penalties
const strainWeight = 50

// Greedy places each task on the node with the lowest score
//
//	tierPenalty + 50 * (computeStrain + memoryStrain) / 2
//
// among the nodes with enough free compute and memory, where strain is
// the fraction of the free capacity the task would use. Ties go to the
// node listed first.
type Greedy struct {
	penalties map[ts.Tier]float64
}

// NewGreedy returns a Greedy policy with tier penalties of 100 for
// cloud, 20 for edge and 5 for mobile nodes
func NewGreedy() *Greedy {
	return &Greedy{penalties: map[ts.Tier]float64{
		ts.Cloud:  100,
		ts.Edge:   20,
		ts.Mobile: 5,
	}}
}

// Name implements the Policy interface
func (g *Greedy) Name() string {
	return "greedy"
}

// Select implements the Policy interface
func (g *Greedy) Select(step ts.TimeStep) (string, error) {
	task := step.Task
	best, bestScore := "", math.Inf(1)

	for _, n := range step.Nodes {
		if n.AvailableMIPS <= 0 || n.AvailableRAM <= 0 ||
			n.AvailableMIPS < task.ComputeUnits ||
			n.AvailableRAM < task.MemoryUnits {
			continue
		}

		strain := (task.ComputeUnits/n.AvailableMIPS +
			task.MemoryUnits/n.AvailableRAM) / 2
		score := g.penalties[n.Tier] + strainWeight*strain
		if score < bestScore {
			best, bestScore = n.ID, score
		}
	}

	if best == "" {
		return "", fmt.Errorf("greedy: %w for task %q", ErrNoCandidate,
			task.ID)
	}
	return best, nil
}

// Observe implements the Policy interface
func (g *Greedy) Observe(ts.Outcome, ts.TimeStep) error {
	return nil
}
