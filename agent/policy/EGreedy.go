// Package policy implements action selection policies over action
// values
package policy

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/drlplace/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// EGreedy implements an ε-greedy policy whose ε decays geometrically
// towards a floor: ε <- max(min, ε * decay).
type EGreedy struct {
	epsilon float64
	decay   float64
	min     float64
	seed    rand.Source // Source for random number generation
}

// NewEGreedy returns a new EGreedy policy that starts at ε = epsilon
func NewEGreedy(epsilon, decay, min float64, seed rand.Source) (*EGreedy,
	error) {
	if seed == nil {
		return nil, fmt.Errorf("newEGreedy: nil random source")
	}
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("newEGreedy: epsilon must be in [0, 1] "+
			"\n\twant(0 <= ε <= 1) \n\thave(%v)", epsilon)
	}
	if decay <= 0 || decay > 1 {
		return nil, fmt.Errorf("newEGreedy: decay must be in (0, 1] "+
			"\n\twant(0 < decay <= 1) \n\thave(%v)", decay)
	}
	if min < 0 || min > epsilon {
		return nil, fmt.Errorf("newEGreedy: floor must be in [0, ε] "+
			"\n\twant(0 <= min <= %v) \n\thave(%v)", epsilon, min)
	}

	return &EGreedy{epsilon: epsilon, decay: decay, min: min, seed: seed},
		nil
}

// SelectAction selects an action given the values of all actions. With
// probability ε the action is drawn uniformly at random, otherwise the
// greedy action is taken, with ties broken by the lowest index.
func (p *EGreedy) SelectAction(actionValues []float64) int {
	return p.selectAction(actionValues, p.epsilon)
}

// Greedy returns the greedy action, ignoring ε
func (p *EGreedy) Greedy(actionValues []float64) int {
	return floatutils.Argmax(actionValues)
}

func (p *EGreedy) selectAction(actionValues []float64, ε float64) int {
	numActions := len(actionValues)
	greedyAction := floatutils.Argmax(actionValues)
	if ε == 0 {
		return greedyAction
	}

	// Calculate the ε probability of choosing any action at random
	prob := ε / float64(numActions)
	actionProbabilities := make([]float64, numActions)
	for i := range actionProbabilities {
		actionProbabilities[i] = prob
	}

	// Adjust the probability of choosing the greedy action
	actionProbabilities[greedyAction] += 1.0 - ε

	// Construct a categorical distribution over actions using action
	// probabilities and sample an action
	dist := distuv.NewCategorical(actionProbabilities, p.seed)
	return int(dist.Rand())
}

// Decay decays ε once and returns its new value
func (p *EGreedy) Decay() float64 {
	p.epsilon = math.Max(p.min, p.epsilon*p.decay)
	return p.epsilon
}

// Epsilon returns the current ε
func (p *EGreedy) Epsilon() float64 {
	return p.epsilon
}

// SetEpsilon sets ε, which is clamped to [min, 1]
func (p *EGreedy) SetEpsilon(ε float64) {
	p.epsilon = floatutils.Clip(ε, p.min, 1)
}
