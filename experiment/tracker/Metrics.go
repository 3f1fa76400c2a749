package tracker

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	ts "github.com/samuelfneumann/drlplace/timestep"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the offloading performance of one policy
type Summary struct {
	Policy string `json:"policy"`

	Tasks       int     `json:"tasks"`
	Succeeded   int     `json:"succeeded"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`

	TotalLatencyMs   float64 `json:"total_latency_ms"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
	P95LatencyMs     float64 `json:"p95_latency_ms"`

	TotalEnergyJ   float64 `json:"total_energy_j"`
	AverageEnergyJ float64 `json:"average_energy_j"`

	// Mean over all decisions of the mean node load after placement
	AverageCPUPct    float64 `json:"average_cpu_pct"`
	AverageMemoryPct float64 `json:"average_memory_pct"`

	NetworkBytes  float64 `json:"network_bytes"`
	AverageReward float64 `json:"average_reward"`

	// Placements counts decisions per tier name
	Placements map[string]int `json:"placements"`
}

// Metrics tracks latency, energy, load, network and completion metrics
// of placement decisions. If constructed with a filename, Save writes
// the Summary there as JSON.
type Metrics struct {
	policy   string
	filename string

	latencies []float64
	energy    []float64
	cpu       []float64
	memory    []float64
	rewards   []float64

	bytes      float64
	failed     int
	placements map[string]int
}

// NewMetrics returns a new Metrics tracker for the named policy
func NewMetrics(policy, filename string) *Metrics {
	return &Metrics{
		policy:     policy,
		filename:   filename,
		placements: make(map[string]int),
	}
}

// Track implements the Tracker interface
func (m *Metrics) Track(r Record) {
	m.latencies = append(m.latencies, r.Outcome.ExecutionTimeMs)
	m.energy = append(m.energy, r.Outcome.EnergyJoules)
	m.rewards = append(m.rewards, r.Reward)
	m.bytes += r.Outcome.NetworkBytes
	if r.Outcome.Failed {
		m.failed++
	}
	m.placements[r.Tier.String()]++

	nodes := r.Next.Nodes
	if len(nodes) == 0 {
		nodes = r.Step.Nodes
	}
	if len(nodes) > 0 {
		cpu, mem := meanLoad(nodes)
		m.cpu = append(m.cpu, cpu)
		m.memory = append(m.memory, mem)
	}
}

func meanLoad(nodes []ts.Node) (cpu, mem float64) {
	c := make([]float64, len(nodes))
	r := make([]float64, len(nodes))
	for i, n := range nodes {
		c[i] = n.UtilizationPct
		r[i] = n.MemoryPct
	}
	return stat.Mean(c, nil), stat.Mean(r, nil)
}

// Summary returns the metrics of all decisions tracked so far
func (m *Metrics) Summary() Summary {
	s := Summary{
		Policy:       m.policy,
		Tasks:        len(m.latencies),
		Failed:       m.failed,
		NetworkBytes: m.bytes,
		Placements:   make(map[string]int, len(m.placements)),
	}
	for k, v := range m.placements {
		s.Placements[k] = v
	}
	if s.Tasks == 0 {
		return s
	}

	s.Succeeded = s.Tasks - s.Failed
	s.SuccessRate = float64(s.Succeeded) / float64(s.Tasks)

	s.AverageLatencyMs = stat.Mean(m.latencies, nil)
	s.TotalLatencyMs = s.AverageLatencyMs * float64(s.Tasks)
	sorted := make([]float64, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Float64s(sorted)
	s.P95LatencyMs = stat.Quantile(0.95, stat.Empirical, sorted, nil)

	s.AverageEnergyJ = stat.Mean(m.energy, nil)
	s.TotalEnergyJ = s.AverageEnergyJ * float64(s.Tasks)
	s.AverageReward = stat.Mean(m.rewards, nil)

	if len(m.cpu) > 0 {
		s.AverageCPUPct = stat.Mean(m.cpu, nil)
		s.AverageMemoryPct = stat.Mean(m.memory, nil)
	}
	return s
}

// Report returns a human readable report of the Summary
func (m *Metrics) Report() string {
	return m.Summary().Report()
}

// Report returns a human readable report of s
func (s Summary) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "===== %v =====\n", s.Policy)
	fmt.Fprintf(&b, "Tasks processed:     %d (%d ok, %d failed, %.2f%% success)\n",
		s.Tasks, s.Succeeded, s.Failed, 100*s.SuccessRate)
	fmt.Fprintf(&b, "Latency:             %.2f ms avg, %.2f ms p95, %.2f ms total\n",
		s.AverageLatencyMs, s.P95LatencyMs, s.TotalLatencyMs)
	fmt.Fprintf(&b, "Energy:              %.2f J avg, %.2f J total\n",
		s.AverageEnergyJ, s.TotalEnergyJ)
	fmt.Fprintf(&b, "Utilization:         %.2f%% cpu, %.2f%% memory\n",
		s.AverageCPUPct, s.AverageMemoryPct)
	fmt.Fprintf(&b, "Data transferred:    %.0f bytes\n", s.NetworkBytes)
	fmt.Fprintf(&b, "Average reward:      %.4f\n", s.AverageReward)

	tiers := make([]string, 0, len(s.Placements))
	for t := range s.Placements {
		tiers = append(tiers, t)
	}
	sort.Strings(tiers)
	for _, t := range tiers {
		fmt.Fprintf(&b, "Placed on %-10v %d\n", t+":", s.Placements[t])
	}
	return b.String()
}

// Save writes the Summary as JSON to the Tracker's file. A Metrics
// tracker without a file saves nothing.
func (m *Metrics) Save() error {
	if m.filename == "" {
		return nil
	}

	data, err := json.MarshalIndent(m.Summary(), "", "  ")
	if err != nil {
		return fmt.Errorf("save: metrics: %v", err)
	}
	if err := os.WriteFile(m.filename, data, 0o644); err != nil {
		return fmt.Errorf("save: metrics: %v", err)
	}
	return nil
}
