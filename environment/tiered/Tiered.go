// Package tiered implements a synthetic cloud, edge and mobile compute
// hierarchy which executes placed tasks and reports their outcome
package tiered

import (
	"fmt"
	"math"

	ts "github.com/samuelfneumann/drlplace/timestep"
	"github.com/samuelfneumann/drlplace/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Transmission energy is a fixed radio cost plus a cost per KB sent
const (
	txBaseJoules  = 0.1
	txJoulesPerKB = 0.05
)

// minCapacity is the fraction of a node's compute available to a task
// when the node is fully utilized
const minCapacity = 0.05

type node struct {
	id   string
	tier ts.Tier
	cfg  TierConfig

	utilization float64 // %
	memory      float64 // %
	latency     float64 // ms, current
	bandwidth   float64 // Mbps, current
}

func (n *node) local() bool {
	return n.tier == ts.Mobile
}

func (n *node) availableMIPS() float64 {
	return n.cfg.MIPS * math.Max(minCapacity, 1-n.utilization/100)
}

func (n *node) availableRAM() float64 {
	return n.cfg.RAM * math.Max(0, 1-n.memory/100)
}

func (n *node) telemetry() ts.Node {
	return ts.Node{
		ID:              n.id,
		Tier:            n.tier,
		UtilizationPct:  n.utilization,
		MemoryPct:       n.memory,
		UplinkLatencyMs: n.latency,
		AvailableMIPS:   n.availableMIPS(),
		AvailableRAM:    n.availableRAM(),
	}
}

// Host is a synthetic three-tier compute hierarchy. Each placement
// executes the current task on the chosen node, which raises the
// node's load. Between placements load decays and uplink conditions
// drift around their base values.
//
// Nodes are named "<tier>-<index>" and reported cloud first, then edge,
// then mobile. A Host is not safe for concurrent use.
type Host struct {
	cfg   Config
	nodes []*node
	index map[string]int

	unit   distuv.Uniform
	jitter distuv.Uniform

	task     ts.Task
	tasks    int
	step     int
	started  bool
	finished bool
}

// New returns a new Host. All randomness is drawn from src, so hosts
// created with equal configurations and sources behave identically.
func New(c Config, src rand.Source) (*Host, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("new: nil random source")
	}

	h := &Host{
		cfg:    c,
		index:  make(map[string]int),
		unit:   distuv.Uniform{Min: 0, Max: 1, Src: src},
		jitter: distuv.Uniform{Min: 1 - c.LatencyJitter, Max: 1 + c.LatencyJitter, Src: src},
	}

	for _, tier := range []struct {
		t   ts.Tier
		cfg TierConfig
	}{{ts.Cloud, c.Cloud}, {ts.Edge, c.Edge}, {ts.Mobile, c.Mobile}} {
		for i := 0; i < tier.cfg.Count; i++ {
			n := &node{
				id:        fmt.Sprintf("%v-%d", tier.t, i),
				tier:      tier.t,
				cfg:       tier.cfg,
				latency:   tier.cfg.UplinkLatencyMs,
				bandwidth: tier.cfg.BandwidthMbps,
			}
			h.index[n.id] = len(h.nodes)
			h.nodes = append(h.nodes, n)
		}
	}
	return h, nil
}

// Nodes implements the environment.Host interface
func (h *Host) Nodes() []string {
	ids := make([]string, len(h.nodes))
	for i, n := range h.nodes {
		ids[i] = n.id
	}
	return ids
}

// Reset implements the environment.Host interface. Nodes start each
// episode with a random background load.
func (h *Host) Reset() (ts.TimeStep, error) {
	for _, n := range h.nodes {
		n.utilization = h.between(0, h.cfg.BackgroundLoadPct)
		n.memory = h.between(0, h.cfg.BackgroundLoadPct)
		h.drift(n)
	}

	h.step = 0
	h.started = true
	h.finished = false
	h.nextTask()

	return ts.New(ts.First, h.step, h.telemetry(), h.task), nil
}

// Step implements the environment.Host interface. A task whose memory
// requirement exceeds the free memory of the chosen node fails. The
// TimeStep returned with the EpisodeLength'th placement is the Last
// one of the episode, after which the Host must be Reset.
func (h *Host) Step(nodeID string) (ts.TimeStep, ts.Outcome, error) {
	if !h.started || h.finished {
		return ts.TimeStep{}, ts.Outcome{}, fmt.Errorf("step: episode " +
			"not started, call Reset")
	}
	i, ok := h.index[nodeID]
	if !ok {
		return ts.TimeStep{}, ts.Outcome{}, fmt.Errorf("step: unknown node %q",
			nodeID)
	}

	n := h.nodes[i]
	outcome := h.execute(n, h.task)

	// Load from the executed task lands on the node, then all nodes
	// relax towards idle
	if !outcome.Failed {
		busySec := h.task.ComputeUnits / n.availableMIPS()
		n.utilization += 100 * busySec / h.cfg.LoadWindowSec
		n.memory += 100 * h.task.MemoryUnits / n.cfg.RAM
	}
	for _, m := range h.nodes {
		m.utilization = floatutils.Clip(m.utilization*h.cfg.LoadDecay, 0, 100)
		m.memory = floatutils.Clip(m.memory*h.cfg.LoadDecay, 0, 100)
		h.drift(m)
	}

	h.step++
	stepType := ts.Mid
	if h.step >= h.cfg.EpisodeLength {
		stepType = ts.Last
		h.finished = true
	}
	h.nextTask()

	return ts.New(stepType, h.step, h.telemetry(), h.task), outcome, nil
}

// execute measures running task on n under the node's current load
func (h *Host) execute(n *node, task ts.Task) ts.Outcome {
	computeMs := task.ComputeUnits / n.availableMIPS() * 1000
	energy := task.ComputeUnits * n.cfg.JoulesPerMI

	var bytes float64
	if !n.local() {
		computeMs += h.transmissionMs(n, task.InputKB)
		energy += txBaseJoules + txJoulesPerKB*task.InputKB
		bytes = task.InputKB * 1024
	}

	return ts.Outcome{
		ExecutionTimeMs: computeMs,
		EnergyJoules:    energy,
		NetworkBytes:    bytes,
		Failed:          task.MemoryUnits > n.availableRAM(),
	}
}

// transmissionMs returns the time to ship kb to n over its uplink
func (h *Host) transmissionMs(n *node, kb float64) float64 {
	megabits := kb * 8 / 1024
	return megabits/n.bandwidth*1000 + n.latency
}

// drift perturbs the uplink of n around its base conditions. Latency
// and bandwidth move in opposite directions.
func (h *Host) drift(n *node) {
	if n.local() {
		n.latency, n.bandwidth = 0, 0
		return
	}
	f := h.jitter.Rand()
	n.latency = n.cfg.UplinkLatencyMs * f
	n.bandwidth = n.cfg.BandwidthMbps / f
}

func (h *Host) nextTask() {
	h.task = ts.Task{
		ID:           fmt.Sprintf("task-%d", h.tasks),
		ComputeUnits: h.between(h.cfg.ComputeUnits.Min, h.cfg.ComputeUnits.Max),
		MemoryUnits:  h.between(h.cfg.MemoryUnits.Min, h.cfg.MemoryUnits.Max),
		InputKB:      h.between(h.cfg.InputKB.Min, h.cfg.InputKB.Max),
	}
	h.tasks++
}

func (h *Host) between(min, max float64) float64 {
	return min + (max-min)*h.unit.Rand()
}

func (h *Host) telemetry() []ts.Node {
	nodes := make([]ts.Node, len(h.nodes))
	for i, n := range h.nodes {
		nodes[i] = n.telemetry()
	}
	return nodes
}
