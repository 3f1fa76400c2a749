// Package features encodes host telemetry into fixed length feature
// vectors
package features

import (
	"fmt"

	"github.com/samuelfneumann/drlplace/timestep"
	"github.com/samuelfneumann/drlplace/utils/floatutils"
)

const (
	// NodeFeatures is the number of features in each node's block:
	// utilization, memory and uplink latency
	NodeFeatures = 3

	// TaskFeatures is the number of task features appended after the
	// node blocks: compute and memory requirements
	TaskFeatures = 2
)

// Config holds the assumed maxima each raw value is normalized by
type Config struct {
	MaxUtilizationPct float64 `mapstructure:"max_utilization_pct"`
	MaxMemoryPct      float64 `mapstructure:"max_memory_pct"`
	MaxLatencyMs      float64 `mapstructure:"max_latency_ms"`
	MaxTaskUnits      float64 `mapstructure:"max_task_units"`

	// ClipLatency bounds the latency feature at 1. When false, latencies
	// above MaxLatencyMs produce features greater than 1.
	ClipLatency bool `mapstructure:"clip_latency"`
}

// DefaultConfig returns the default normalization maxima
func DefaultConfig() Config {
	return Config{
		MaxUtilizationPct: 100,
		MaxMemoryPct:      100,
		MaxLatencyMs:      500,
		MaxTaskUnits:      10000,
		ClipLatency:       true,
	}
}

// Validate checks that every maximum is positive
func (c Config) Validate() error {
	for _, m := range []struct {
		name string
		v    float64
	}{
		{"utilization", c.MaxUtilizationPct},
		{"memory", c.MaxMemoryPct},
		{"latency", c.MaxLatencyMs},
		{"task units", c.MaxTaskUnits},
	} {
		if m.v <= 0 {
			return fmt.Errorf("features: maximum %v must be positive "+
				"\n\twant(>0) \n\thave(%v)", m.name, m.v)
		}
	}
	return nil
}

// Encoder converts the telemetry of a fixed, ordered set of nodes and
// one task into a feature vector of length
//
//	len(nodes) * NodeFeatures + TaskFeatures
//
// The node ordering is fixed at construction so that a given feature
// position always describes the same node.
type Encoder struct {
	ids   []string
	index map[string]int
	cfg   Config
}

// NewEncoder returns an Encoder over the nodes with the given IDs, in
// the given order
func NewEncoder(ids []string, cfg Config) (*Encoder, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("newEncoder: node list must not be empty")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, ok := index[id]; ok {
			return nil, fmt.Errorf("newEncoder: duplicate node %q", id)
		}
		index[id] = i
	}

	return &Encoder{
		ids:   append([]string(nil), ids...),
		index: index,
		cfg:   cfg,
	}, nil
}

// Len returns the length of encoded feature vectors
func (e *Encoder) Len() int {
	return len(e.ids)*NodeFeatures + TaskFeatures
}

// Nodes returns the node IDs in encoding order
func (e *Encoder) Nodes() []string {
	return append([]string(nil), e.ids...)
}

// Node returns the ID of the node at position i of the ordering
func (e *Encoder) Node(i int) (string, bool) {
	if i < 0 || i >= len(e.ids) {
		return "", false
	}
	return e.ids[i], true
}

// Index returns the position of node id in the ordering
func (e *Encoder) Index(id string) (int, bool) {
	i, ok := e.index[id]
	return i, ok
}

// Encode returns the feature vector for the given telemetry. Nodes
// that are not part of the ordering are ignored and nodes with no
// telemetry encode as zeros, as do NaN and infinite readings. If a node
// is reported more than once, its first report is used.
func (e *Encoder) Encode(nodes []timestep.Node, task timestep.Task) []float64 {
	features := make([]float64, e.Len())
	seen := make([]bool, len(e.ids))

	for _, n := range nodes {
		i, ok := e.index[n.ID]
		if !ok || seen[i] {
			continue
		}
		seen[i] = true

		block := features[i*NodeFeatures : (i+1)*NodeFeatures]
		block[0] = e.unit(n.UtilizationPct, e.cfg.MaxUtilizationPct)
		block[1] = e.unit(n.MemoryPct, e.cfg.MaxMemoryPct)
		block[2] = e.latency(n.UplinkLatencyMs)
	}

	offset := len(e.ids) * NodeFeatures
	features[offset] = e.unit(task.ComputeUnits, e.cfg.MaxTaskUnits)
	features[offset+1] = e.unit(task.MemoryUnits, e.cfg.MaxTaskUnits)

	return features
}

// EncodeStep encodes the nodes and task of a TimeStep
func (e *Encoder) EncodeStep(t timestep.TimeStep) []float64 {
	return e.Encode(t.Nodes, t.Task)
}

// unit normalizes v by max into [0, 1]
func (e *Encoder) unit(v, max float64) float64 {
	return floatutils.Clip(floatutils.OrZero(v)/max, 0, 1)
}

func (e *Encoder) latency(v float64) float64 {
	if e.cfg.ClipLatency {
		return e.unit(v, e.cfg.MaxLatencyMs)
	}
	return floatutils.Max(0, floatutils.OrZero(v)/e.cfg.MaxLatencyMs)
}
