// Package deepq implements the deep Q-learning algorithm with an
// experience replay memory and a periodically synchronized target
// network
package deepq

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/samuelfneumann/drlplace/agent/policy"
	"github.com/samuelfneumann/drlplace/expreplay"
	"github.com/samuelfneumann/drlplace/network"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

// DeepQ implements the deep Q-learning algorithm, minimizing the mean
// squared TD error of the action taken.
//
// A DeepQ agent is not safe for concurrent use. Independent agents share
// no state.
type DeepQ struct {
	// trainNet is adapted by gradient descent and selects actions.
	// targetNet is a lagged copy of trainNet which provides the update
	// target r + γ max_a' Q(s', a').
	trainNet  *network.MLP
	targetNet *network.MLP

	behaviourPolicy *policy.EGreedy

	// Variables to track target network updates
	targetUpdateInterval int
	gradientSteps        int

	replay    *expreplay.Memory
	batchSize int
	gamma     float64

	features   int
	numActions int
	eval       bool // Whether or not in evaluation mode

	log logrus.FieldLogger
}

// New creates and returns a new DeepQ agent for states of length
// features and numActions discrete actions. All randomness (weight
// initialization, exploration and replay sampling) is drawn from src.
// A nil log discards log output.
func New(features, numActions int, config Config, src rand.Source,
	log logrus.FieldLogger) (*DeepQ, error) {
	if features < 1 {
		return nil, fmt.Errorf("new: states must have positive length "+
			"\n\twant(>0) \n\thave(%v)", features)
	}
	if numActions < 1 {
		return nil, fmt.Errorf("new: there must be at least one action "+
			"\n\twant(>0) \n\thave(%v)", numActions)
	}
	if src == nil {
		return nil, fmt.Errorf("new: nil random source")
	}

	// Ensure the configuration is valid
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	// Independent streams for each consumer of randomness
	rng := rand.New(src)
	netSource := rand.NewSource(rng.Uint64())
	policySource := rand.NewSource(rng.Uint64())
	replaySource := rand.NewSource(rng.Uint64())

	init, err := config.initWFn()
	if err != nil {
		return nil, fmt.Errorf("new: could not create weight initializer: %v",
			err)
	}
	s, err := config.solver()
	if err != nil {
		return nil, fmt.Errorf("new: could not create solver: %v", err)
	}

	act, err := config.hiddenActivation()
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	trainNet, err := network.NewMLP(features, config.HiddenSize, numActions,
		init, s.Stepper, netSource)
	if err != nil {
		return nil, fmt.Errorf("new: could not create learning network: %v",
			err)
	}
	trainNet.SetHiddenActivation(act)

	// The target network starts as an exact copy and is never trained
	targetNet := trainNet.Clone()
	targetNet.SetSolver(nil)

	behaviourPolicy, err := policy.NewEGreedy(config.Epsilon,
		config.EpsilonDecay, config.EpsilonMin, policySource)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour policy: %v",
			err)
	}

	replay, err := config.ExpReplay.Create(replaySource)
	if err != nil {
		msg := "new: could not create experience replay buffer: %v"
		return nil, fmt.Errorf(msg, err)
	}

	return &DeepQ{
		trainNet:             trainNet,
		targetNet:            targetNet,
		behaviourPolicy:      behaviourPolicy,
		targetUpdateInterval: config.TargetUpdateInterval,
		replay:               replay,
		batchSize:            config.BatchSize,
		gamma:                config.Gamma,
		features:             features,
		numActions:           numActions,
		log:                  log,
	}, nil
}

// SelectAction returns the action to take in state. In training mode
// the ε-greedy behaviour policy is followed, in evaluation mode the
// greedy action is taken. Ties are broken by the lowest index.
func (d *DeepQ) SelectAction(state []float64) (int, error) {
	actionValues, err := d.trainNet.Forward(state)
	if err != nil {
		return 0, fmt.Errorf("selectAction: %w: %v", ErrInvalidState, err)
	}

	if d.eval {
		return d.behaviourPolicy.Greedy(actionValues), nil
	}
	return d.behaviourPolicy.SelectAction(actionValues), nil
}

// ActionValues returns the estimated value of each action in state
func (d *DeepQ) ActionValues(state []float64) ([]float64, error) {
	return d.trainNet.Forward(state)
}

// Remember stores a transition in the experience replay memory
func (d *DeepQ) Remember(state []float64, action int, reward float64,
	nextState []float64, terminal bool) error {
	if action < 0 || action >= d.numActions {
		return fmt.Errorf("remember: %w \n\twant(0 <= action < %v) "+
			"\n\thave(%v)", ErrInvalidAction, d.numActions, action)
	}
	if len(state) != d.features {
		return fmt.Errorf("remember: %w: state \n\twant(len %v) "+
			"\n\thave(len %v)", ErrInvalidState, d.features, len(state))
	}
	if len(nextState) != d.features {
		return fmt.Errorf("remember: %w: next state \n\twant(len %v) "+
			"\n\thave(len %v)", ErrInvalidState, d.features, len(nextState))
	}

	d.replay.Add(expreplay.NewExperience(state, action, reward, nextState,
		terminal))
	return nil
}

// Train performs one update of the learning network on a batch sampled
// from the replay memory and returns the average loss of the batch.
// Until the memory holds a full batch, Train does nothing and returns
// zero loss.
//
// For each sampled transition the update target equals the current
// prediction in every component except the one of the action taken,
// which is set to r if the transition is terminal and to
// r + γ max_a' Q_target(s', a') otherwise. After the update the target
// network is synchronized every targetUpdateInterval updates, and ε
// decays.
func (d *DeepQ) Train() (float64, error) {
	// Don't update if replay buffer has insufficient samples
	if d.replay.Size() < d.batchSize {
		return 0, nil
	}

	batch := d.replay.Sample(d.batchSize)
	states := make([][]float64, len(batch))
	targets := make([][]float64, len(batch))

	for i, e := range batch {
		state := e.State()
		target, err := d.trainNet.Forward(state)
		if err != nil {
			return 0, fmt.Errorf("train: could not predict action values: %v",
				err)
		}

		updateTarget := e.Reward()
		if !e.Terminal() {
			nextActionValues, err := d.targetNet.Forward(e.NextState())
			if err != nil {
				return 0, fmt.Errorf("train: could not predict next action "+
					"values: %v", err)
			}
			updateTarget += d.gamma * floats.Max(nextActionValues)
		}
		target[e.Action()] = updateTarget

		states[i] = state
		targets[i] = target
	}

	loss, err := d.trainNet.TrainBatch(states, targets)
	if err != nil {
		return 0, fmt.Errorf("train: %v", err)
	}
	d.gradientSteps++

	// Update the target network by setting its weights to the newly
	// learned weights
	if d.gradientSteps%d.targetUpdateInterval == 0 {
		if err := d.targetNet.CopyParameters(d.trainNet); err != nil {
			return 0, fmt.Errorf("train: could not update target network: %v",
				err)
		}
		d.log.WithField("step", d.gradientSteps).Debug("target network updated")
	}

	d.behaviourPolicy.Decay()
	return loss, nil
}

// Epsilon returns the current exploration rate of the behaviour policy
func (d *DeepQ) Epsilon() float64 {
	return d.behaviourPolicy.Epsilon()
}

// Steps returns the number of updates performed
func (d *DeepQ) Steps() int {
	return d.gradientSteps
}

// ReplaySize returns the number of transitions in the replay memory
func (d *DeepQ) ReplaySize() int {
	return d.replay.Size()
}

// Features returns the length of state vectors
func (d *DeepQ) Features() int {
	return d.features
}

// ActionCount returns the number of actions
func (d *DeepQ) ActionCount() int {
	return d.numActions
}

// Eval sets the agent into evaluation mode
func (d *DeepQ) Eval() {
	d.eval = true
}

// Explore sets the agent into training mode
func (d *DeepQ) Explore() {
	d.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (d *DeepQ) IsEval() bool {
	return d.eval
}

// deepQGob is the serialized form of a DeepQ agent. The replay memory
// is not serialized.
type deepQGob struct {
	TrainNet, TargetNet *network.MLP
	Epsilon             float64
	GradientSteps       int
}

// GobEncode implements the gob.GobEncoder interface
func (d *DeepQ) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(deepQGob{
		TrainNet:      d.trainNet,
		TargetNet:     d.targetNet,
		Epsilon:       d.behaviourPolicy.Epsilon(),
		GradientSteps: d.gradientSteps,
	})
	if err != nil {
		return nil, fmt.Errorf("gobEncode: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The agent must
// have been constructed with the same state length and number of
// actions as the encoded agent.
func (d *DeepQ) GobDecode(data []byte) error {
	if d.trainNet == nil {
		return fmt.Errorf("gobDecode: agent must be constructed with New " +
			"before decoding")
	}

	// Decode into copies so that the learning network keeps its solver
	dec := deepQGob{TrainNet: d.trainNet.Clone(), TargetNet: d.targetNet.Clone()}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&dec); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}

	if err := d.trainNet.CopyParameters(dec.TrainNet); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}
	if err := d.targetNet.CopyParameters(dec.TargetNet); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}
	d.behaviourPolicy.SetEpsilon(dec.Epsilon)
	d.gradientSteps = dec.GradientSteps
	return nil
}
