package experiment

import (
	"context"
	"fmt"
	"io"

	env "github.com/samuelfneumann/drlplace/environment"
	"github.com/samuelfneumann/drlplace/experiment/checkpointer"
	"github.com/samuelfneumann/drlplace/experiment/tracker"
	"github.com/samuelfneumann/drlplace/placement"
	"github.com/samuelfneumann/drlplace/reward"
	ts "github.com/samuelfneumann/drlplace/timestep"
	"github.com/sirupsen/logrus"
)

// learner is implemented by policies which report training progress
type learner interface {
	LastLoss() float64
	Epsilon() float64
}

// Online is an Experiment that places tasks online only. Whether the
// policy learns from the placements is up to the policy.
//
// Every outcome is scored by the experiment's reward.Model so that
// Records of different policies are comparable.
type Online struct {
	host   env.Host
	policy placement.Policy
	reward *reward.Model

	maxSteps     int
	currentSteps int
	episodes     int
	rejections   int

	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
	log           logrus.FieldLogger
}

// NewOnline creates and returns a new online experiment on a given
// host with a given policy. The steps parameter determines how many
// placements the experiment is run for, t determines what data is
// tracked, and c when the policy is checkpointed. A nil log discards
// log output.
func NewOnline(h env.Host, p placement.Policy, r *reward.Model, steps int,
	t []tracker.Tracker, c []checkpointer.Checkpointer,
	log logrus.FieldLogger) (*Online, error) {
	if h == nil || p == nil || r == nil {
		return nil, fmt.Errorf("newOnline: host, policy and reward model " +
			"must not be nil")
	}
	if steps < 1 {
		return nil, fmt.Errorf("newOnline: steps must be positive "+
			"\n\twant(>0) \n\thave(%v)", steps)
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	return &Online{
		host:          h,
		policy:        p,
		reward:        r,
		maxSteps:      steps,
		trackers:      t,
		checkpointers: c,
		log:           log.WithField("policy", p.Name()),
	}, nil
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single episode of the experiment. It returns
// whether or not the decision limit has been reached.
//
// If the policy finds no node able to host a task, the task is placed
// on the first node the host reports and the placement counts as a
// rejection. The policy does not observe the outcome of such a
// placement.
//
// An episode which ends before any placement is made is an error, since
// running it again would make no progress.
func (o *Online) RunEpisode(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	step, err := o.host.Reset()
	if err != nil {
		return false, fmt.Errorf("runEpisode: could not reset host: %v", err)
	}
	if step.Last() {
		return false, fmt.Errorf("runEpisode: host reset into the last step " +
			"of an episode")
	}

	var episodeReward float64
	episodeStart := o.currentSteps
	for !step.Last() && o.currentSteps < o.maxSteps {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		// Select node, step in host
		nodeID, rejected, err := o.selectNode(step)
		if err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
		next, outcome, err := o.host.Step(nodeID)
		if err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
		o.currentSteps++

		// Observe the outcome and step the policy
		if !rejected {
			if err := o.policy.Observe(outcome, next); err != nil {
				return false, fmt.Errorf("runEpisode: %v", err)
			}
		}

		record := o.record(step, next, nodeID, outcome)
		episodeReward += record.Reward
		o.track(record)

		if err := o.checkpoint(ctx); err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
		step = next
	}

	fields := logrus.Fields{
		"episode":    o.episodes,
		"placements": o.currentSteps - episodeStart,
		"return":     episodeReward,
	}
	if step.Last() {
		o.episodes++
		o.log.WithFields(fields).Info("episode complete")
	} else {
		o.log.WithFields(fields).Info("episode cut off at step limit")
	}

	// Return whether or not the max timestep limit has been reached
	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all placements
func (o *Online) Run(ctx context.Context) error {
	for ended := false; !ended; {
		var err error
		if ended, err = o.RunEpisode(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Save saves all the data cached by the Trackers
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return err
		}
	}
	return nil
}

// Steps returns the number of placements made so far
func (o *Online) Steps() int {
	return o.currentSteps
}

// Episodes returns the number of episodes completed so far
func (o *Online) Episodes() int {
	return o.episodes
}

// Rejections returns the number of tasks the policy could not place
func (o *Online) Rejections() int {
	return o.rejections
}

func (o *Online) selectNode(step ts.TimeStep) (string, bool, error) {
	nodeID, err := o.policy.Select(step)
	if err == nil {
		return nodeID, false, nil
	}
	if !placement.IsNoCandidate(err) || len(step.Nodes) == 0 {
		return "", false, err
	}

	o.rejections++
	o.log.WithFields(logrus.Fields{
		"task": step.Task.ID,
		"node": step.Nodes[0].ID,
	}).Warn("no candidate node, placing on first node")
	return step.Nodes[0].ID, true, nil
}

// record builds the tracker.Record of one placement
func (o *Online) record(step, next ts.TimeStep, nodeID string,
	outcome ts.Outcome) tracker.Record {
	nodes := next.Nodes
	if len(nodes) == 0 {
		nodes = step.Nodes
	}

	r := tracker.Record{
		Policy:  o.policy.Name(),
		Episode: o.episodes,
		Step:    step,
		Next:    next,
		NodeID:  nodeID,
		Outcome: outcome,
		Reward:  o.reward.Reward(outcome, nodes),
	}
	if n, ok := step.Node(nodeID); ok {
		r.Tier = n.Tier
	}
	if l, ok := o.policy.(learner); ok {
		r.Loss = l.LastLoss()
		r.Epsilon = l.Epsilon()
	}
	return r
}

// track sends a Record to each Tracker
func (o *Online) track(r tracker.Record) {
	for _, t := range o.trackers {
		t.Track(r)
	}
}

// checkpoint runs each Checkpointer on the current step count
func (o *Online) checkpoint(ctx context.Context) error {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(ctx, o.currentSteps); err != nil {
			return err
		}
	}
	return nil
}
