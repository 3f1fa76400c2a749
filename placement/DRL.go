package placement

import (
	"fmt"
	"io"

	"github.com/samuelfneumann/drlplace/agent"
	"github.com/samuelfneumann/drlplace/features"
	"github.com/samuelfneumann/drlplace/reward"
	ts "github.com/samuelfneumann/drlplace/timestep"
	"github.com/sirupsen/logrus"
)

// DRL places tasks using a learning agent. Each node of the encoder's
// ordering is one action of the agent. Observed outcomes are scored by
// a reward.Model, stored by the agent and used for one training update.
type DRL struct {
	agent   agent.Agent
	encoder *features.Encoder
	reward  *reward.Model
	log     logrus.FieldLogger

	// The selection awaiting its outcome
	pending bool
	state   []float64
	action  int
	step    ts.TimeStep

	learn      bool
	lastReward float64
	lastLoss   float64
	fallbacks  int
}

// NewDRL returns a new DRL policy. The agent must accept states of the
// encoder's length and have one action per encoded node.
func NewDRL(a agent.Agent, enc *features.Encoder, r *reward.Model,
	log logrus.FieldLogger) (*DRL, error) {
	if a == nil || enc == nil || r == nil {
		return nil, fmt.Errorf("newDRL: agent, encoder and reward model " +
			"must not be nil")
	}
	if a.Features() != enc.Len() {
		return nil, fmt.Errorf("newDRL: agent and encoder disagree on the "+
			"state length \n\twant(%v) \n\thave(%v)", enc.Len(), a.Features())
	}
	if nodes := len(enc.Nodes()); a.ActionCount() != nodes {
		return nil, fmt.Errorf("newDRL: agent must have one action per "+
			"node \n\twant(%v) \n\thave(%v)", nodes, a.ActionCount())
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	return &DRL{
		agent:   a,
		encoder: enc,
		reward:  r,
		log:     log,
		learn:   true,
	}, nil
}

// Name implements the Policy interface
func (d *DRL) Name() string {
	return "drl"
}

// Select implements the Policy interface. The outcome of each selection
// must be observed before the next selection is made.
func (d *DRL) Select(step ts.TimeStep) (string, error) {
	if d.pending {
		return "", fmt.Errorf("select: outcome of the previous selection " +
			"was never observed")
	}
	state := d.encoder.EncodeStep(step)

	action, err := d.agent.SelectAction(state)
	if err != nil {
		return "", fmt.Errorf("select: %v", err)
	}
	id, ok := d.encoder.Node(action)
	if !ok {
		return "", fmt.Errorf("select: agent chose action %v outside the "+
			"%v encoded nodes", action, len(d.encoder.Nodes()))
	}

	d.pending = true
	d.state = state
	d.action = action
	d.step = step
	return id, nil
}

// Observe implements the Policy interface. The reward is computed from
// the outcome and the node telemetry of next. If next carries no
// nodes, the state the selection was made in is used as the next state
// and for the balance measurement.
func (d *DRL) Observe(outcome ts.Outcome, next ts.TimeStep) error {
	if !d.pending {
		return fmt.Errorf("observe: no selection awaiting an outcome")
	}
	d.pending = false

	nextState := d.state
	nodes := d.step.Nodes
	if len(next.Nodes) > 0 {
		nextState = d.encoder.EncodeStep(next)
		nodes = next.Nodes
	} else {
		d.fallbacks++
		d.log.WithField("step", d.step.Number).Debug(
			"no post-placement observation, reusing current state")
	}

	d.lastReward = d.reward.Reward(outcome, nodes)
	if !d.learn {
		return nil
	}

	err := d.agent.Remember(d.state, d.action, d.lastReward, nextState,
		next.Last())
	if err != nil {
		return fmt.Errorf("observe: %v", err)
	}

	d.lastLoss, err = d.agent.Train()
	if err != nil {
		return fmt.Errorf("observe: %v", err)
	}
	return nil
}

// Eval stops learning and makes the agent act greedily
func (d *DRL) Eval() {
	d.learn = false
	d.agent.Eval()
}

// Explore resumes learning and exploration
func (d *DRL) Explore() {
	d.learn = true
	d.agent.Explore()
}

// Agent returns the underlying agent
func (d *DRL) Agent() agent.Agent {
	return d.agent
}

// LastReward returns the reward of the last observed outcome
func (d *DRL) LastReward() float64 {
	return d.lastReward
}

// LastLoss returns the training loss of the last update
func (d *DRL) LastLoss() float64 {
	return d.lastLoss
}

// Epsilon returns the exploration rate of the agent, or 0 if the agent
// does not explore ε-greedily
func (d *DRL) Epsilon() float64 {
	if e, ok := d.agent.(agent.EGreedy); ok {
		return e.Epsilon()
	}
	return 0
}

// Fallbacks returns how many outcomes arrived without a post-placement
// observation
func (d *DRL) Fallbacks() int {
	return d.fallbacks
}
