package expreplay

import (
	"golang.org/x/exp/rand"
)

// Selector implements functionality for choosing which stored
// experiences should be sampled from an experience replay buffer
type Selector interface {
	// choose selects n positions in [0, size), where position 0 is the
	// oldest stored experience
	choose(size, n int) []int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly with replacement
type uniformSelector struct {
	rng *rand.Rand
}

// NewUniformSelector returns a new Selector which selects data uniformly
// randomly from an experience replay buffer
func NewUniformSelector(src rand.Source) Selector {
	return &uniformSelector{rng: rand.New(src)}
}

// choose selects a number of positions at which to draw data from the
// buffer
func (u *uniformSelector) choose(size, n int) []int {
	selected := make([]int, n)
	for i := range selected {
		selected[i] = u.rng.Intn(size)
	}

	return selected
}
