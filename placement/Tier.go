package placement

import (
	"fmt"

	ts "github.com/samuelfneumann/drlplace/timestep"
)

// Tier places every task on the first listed node of a fixed tier.
// Tier policies are the cloud-only, edge-only and mobile-only
// baselines.
type Tier struct {
	tier ts.Tier
}

// NewTier returns a Tier policy for tier t
func NewTier(t ts.Tier) *Tier {
	return &Tier{tier: t}
}

// Name implements the Policy interface
func (t *Tier) Name() string {
	return t.tier.String() + "-only"
}

// Select implements the Policy interface
func (t *Tier) Select(step ts.TimeStep) (string, error) {
	for _, n := range step.Nodes {
		if n.Tier == t.tier {
			return n.ID, nil
		}
	}
	return "", fmt.Errorf("%v: %w", t.Name(), ErrNoCandidate)
}

// Observe implements the Policy interface
func (t *Tier) Observe(ts.Outcome, ts.TimeStep) error {
	return nil
}
