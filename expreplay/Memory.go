// Package expreplay implements a bounded experience replay memory
package expreplay

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// Config implements a configuration of a Memory
type Config struct {
	Capacity int `mapstructure:"capacity" json:"capacity"`
}

// Validate checks a Config to ensure it describes a usable Memory
func (c Config) Validate() error {
	if c.Capacity < 1 {
		return &ExpReplayError{
			Op: "new",
			Err: fmt.Errorf("%w \n\twant(>0) \n\thave(%v)", errZeroCapacity,
				c.Capacity),
		}
	}
	return nil
}

// Create returns the Memory described by the Config
func (c Config) Create(src rand.Source) (*Memory, error) {
	return New(c.Capacity, src)
}

// Memory is a fixed capacity, first-in-first-out store of Experience.
// When full, adding an experience evicts the oldest one. Memory is
// backed by a ring so that Add is O(1).
//
// A Memory is not safe for concurrent use.
type Memory struct {
	buffer   []Experience
	head     int // Position of the oldest experience in buffer
	size     int
	capacity int
	sampler  Selector
}

// New returns a new Memory holding at most capacity experiences.
// Sampling draws its randomness from src.
func New(capacity int, src rand.Source) (*Memory, error) {
	if err := (Config{Capacity: capacity}).Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, &ExpReplayError{Op: "new", Err: errNilSource}
	}

	return NewWithSelector(capacity, NewUniformSelector(src))
}

// NewWithSelector returns a new Memory which samples using s
func NewWithSelector(capacity int, s Selector) (*Memory, error) {
	if err := (Config{Capacity: capacity}).Validate(); err != nil {
		return nil, err
	}

	return &Memory{
		buffer:   make([]Experience, 0, capacity),
		capacity: capacity,
		sampler:  s,
	}, nil
}

// Add adds an experience, evicting the oldest one if the memory is
// at capacity
func (m *Memory) Add(e Experience) {
	if len(m.buffer) < m.capacity {
		m.buffer = append(m.buffer, e)
		m.size++
		return
	}

	m.buffer[m.head] = e
	m.head = (m.head + 1) % m.capacity
}

// Sample returns n experiences. If the memory holds n or fewer
// experiences, every stored experience is returned in insertion order.
// Otherwise n experiences are drawn uniformly with replacement, so a
// batch may contain duplicates.
func (m *Memory) Sample(n int) []Experience {
	if n <= 0 {
		return []Experience{}
	}
	if m.size <= n {
		return m.Contents()
	}

	positions := m.sampler.choose(m.size, n)
	batch := make([]Experience, len(positions))
	for i, p := range positions {
		batch[i] = m.at(p)
	}
	return batch
}

// Contents returns every stored experience, oldest first
func (m *Memory) Contents() []Experience {
	contents := make([]Experience, m.size)
	for i := range contents {
		contents[i] = m.at(i)
	}
	return contents
}

// at returns the experience at position i, where position 0 is the
// oldest
func (m *Memory) at(i int) Experience {
	return m.buffer[(m.head+i)%m.capacity]
}

// Size returns the number of stored experiences
func (m *Memory) Size() int {
	return m.size
}

// Capacity returns the maximum number of stored experiences
func (m *Memory) Capacity() int {
	return m.capacity
}

// Clear removes all stored experiences
func (m *Memory) Clear() {
	m.buffer = m.buffer[:0]
	m.head = 0
	m.size = 0
}
