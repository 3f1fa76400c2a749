package experiment

import (
	"context"
	"fmt"

	env "github.com/samuelfneumann/drlplace/environment"
	"github.com/samuelfneumann/drlplace/experiment/tracker"
	"github.com/samuelfneumann/drlplace/placement"
	"github.com/samuelfneumann/drlplace/reward"
	"github.com/sirupsen/logrus"
)

// evaluator is implemented by policies with a separate, non-learning
// evaluation mode
type evaluator interface {
	Eval()
	Explore()
}

// Evaluate runs each policy for steps placements on a fresh host built
// by newHost and returns the Summary of each policy, in order. Hosts
// built from the same seed present every policy with the same
// workload. Learning policies are evaluated in their evaluation mode
// and are set back to exploring once all policies are evaluated.
//
// Each Record is also passed to the extra Trackers t.
func Evaluate(ctx context.Context, newHost func() (env.Host, error),
	policies []placement.Policy, steps int, r *reward.Model,
	t []tracker.Tracker, log logrus.FieldLogger) ([]tracker.Summary, error) {
	summaries := make([]tracker.Summary, 0, len(policies))

	for _, p := range policies {
		host, err := newHost()
		if err != nil {
			return nil, fmt.Errorf("evaluate: could not create host: %v", err)
		}

		if e, ok := p.(evaluator); ok {
			e.Eval()
			defer e.Explore()
		}

		metrics := tracker.NewMetrics(p.Name(), "")
		trackers := append([]tracker.Tracker{metrics}, t...)
		exp, err := NewOnline(host, p, r, steps, trackers, nil, log)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %v", err)
		}
		if err := exp.Run(ctx); err != nil {
			return nil, fmt.Errorf("evaluate: %v: %v", p.Name(), err)
		}

		summaries = append(summaries, metrics.Summary())
	}

	return summaries, nil
}
