package expreplay

import "fmt"

// Experience is a single (state, action, reward, next state, terminal)
// transition. An Experience is immutable: it holds copies of the
// vectors it is constructed with and its accessors return copies.
type Experience struct {
	state     []float64
	action    int
	reward    float64
	nextState []float64
	terminal  bool
}

// NewExperience returns a new Experience
func NewExperience(state []float64, action int, reward float64,
	nextState []float64, terminal bool) Experience {
	return Experience{
		state:     clone(state),
		action:    action,
		reward:    reward,
		nextState: clone(nextState),
		terminal:  terminal,
	}
}

// State returns the state the action was taken in
func (e Experience) State() []float64 {
	return clone(e.state)
}

// Action returns the index of the action taken
func (e Experience) Action() int {
	return e.action
}

// Reward returns the reward received for the action
func (e Experience) Reward() float64 {
	return e.reward
}

// NextState returns the state observed after the action
func (e Experience) NextState() []float64 {
	return clone(e.nextState)
}

// Terminal returns whether the next state ended the episode
func (e Experience) Terminal() bool {
	return e.terminal
}

func (e Experience) String() string {
	return fmt.Sprintf("Experience | Action: %v  |  Reward: %.3f  |  "+
		"Terminal: %v", e.action, e.reward, e.terminal)
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	c := make([]float64, len(v))
	copy(c, v)
	return c
}
