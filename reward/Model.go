// Package reward scores the measured outcome of a placement decision
package reward

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/drlplace/timestep"
	"github.com/samuelfneumann/drlplace/utils/floatutils"
)

// Weights of each scored component. Weights must be non-negative and
// sum to 1.
type Weights struct {
	Latency float64 `mapstructure:"latency"`
	Energy  float64 `mapstructure:"energy"`
	Balance float64 `mapstructure:"balance"`
	Network float64 `mapstructure:"network"`
}

// Maxima are the measurements at which a component scores -1
type Maxima struct {
	LatencyMs    float64 `mapstructure:"latency_ms"`
	EnergyJoules float64 `mapstructure:"energy_joules"`
	Imbalance    float64 `mapstructure:"imbalance"`
	NetworkBytes float64 `mapstructure:"network_bytes"`
}

// Config configures a Model
type Config struct {
	Weights Weights `mapstructure:"weights"`
	Maxima  Maxima  `mapstructure:"maxima"`
}

// DefaultConfig returns the canonical reward: latency 0.5, energy 0.3
// and balance 0.2, capped at 1000 ms, 100 J and an imbalance of 0.5.
// Network traffic is measured against 1 MB but carries no weight.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{Latency: 0.5, Energy: 0.3, Balance: 0.2},
		Maxima: Maxima{
			LatencyMs:    1000,
			EnergyJoules: 100,
			Imbalance:    0.5,
			NetworkBytes: 1 << 20,
		},
	}
}

// field is a named configuration value, checked in order
type field struct {
	name string
	v    float64
}

// weightTolerance is the allowed deviation of the weight sum from 1
const weightTolerance = 1e-9

// Validate checks a Config to ensure it describes a valid Model
func (c Config) Validate() error {
	w := c.Weights
	for _, f := range []field{
		{"latency", w.Latency},
		{"energy", w.Energy},
		{"balance", w.Balance},
		{"network", w.Network},
	} {
		if f.v < 0 || math.IsNaN(f.v) {
			return fmt.Errorf("reward: %v weight must be non-negative "+
				"\n\twant(>=0) \n\thave(%v)", f.name, f.v)
		}
	}
	if sum := w.Latency + w.Energy + w.Balance + w.Network; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("reward: weights must sum to 1 \n\twant(1) "+
			"\n\thave(%v)", sum)
	}

	m := c.Maxima
	for _, f := range []field{
		{"latency", m.LatencyMs},
		{"energy", m.EnergyJoules},
		{"imbalance", m.Imbalance},
		{"network", m.NetworkBytes},
	} {
		if !(f.v > 0) {
			return fmt.Errorf("reward: %v maximum must be positive "+
				"\n\twant(>0) \n\thave(%v)", f.name, f.v)
		}
	}
	return nil
}

// Measurement holds the raw measurements of one placement
type Measurement struct {
	LatencyMs    float64
	EnergyJoules float64
	Imbalance    float64
	NetworkBytes float64
}

// Model computes rewards in [-1, 1]
type Model struct {
	cfg Config
}

// New returns a new Model
func New(c Config) (*Model, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Model{cfg: c}, nil
}

// Config returns the configuration of the Model
func (m *Model) Config() Config {
	return m.cfg
}

// Score maps a measurement linearly onto [-1, 1]: 0 scores 1 and
// anything at or above max scores -1. Negative and NaN measurements
// score as 0.
func Score(value, max float64) float64 {
	return 1 - 2*floatutils.Clip(floatutils.OrZero(value)/max, 0, 1)
}

// Compute returns the weighted sum of the component scores, clamped to
// [-1, 1]
func (m *Model) Compute(ms Measurement) float64 {
	w, max := m.cfg.Weights, m.cfg.Maxima

	r := w.Latency*Score(ms.LatencyMs, max.LatencyMs) +
		w.Energy*Score(ms.EnergyJoules, max.EnergyJoules) +
		w.Balance*Score(ms.Imbalance, max.Imbalance) +
		w.Network*Score(ms.NetworkBytes, max.NetworkBytes)

	return floatutils.Clip(r, -1, 1)
}

// Reward returns the reward for an outcome given the node telemetry
// observed after the placement. Failed placements receive -1.
func (m *Model) Reward(o timestep.Outcome, nodes []timestep.Node) float64 {
	if o.Failed {
		return -1
	}

	return m.Compute(Measurement{
		LatencyMs:    o.ExecutionTimeMs,
		EnergyJoules: o.EnergyJoules,
		Imbalance:    Imbalance(nodes),
		NetworkBytes: o.NetworkBytes,
	})
}
