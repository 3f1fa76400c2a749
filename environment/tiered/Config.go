package tiered

import (
	"fmt"

	ts "github.com/samuelfneumann/drlplace/timestep"
)

// TierConfig describes every node of one tier. Nodes of a tier are
// identical apart from their load.
type TierConfig struct {
	Count int     `mapstructure:"count"`
	MIPS  float64 `mapstructure:"mips"`
	RAM   float64 `mapstructure:"ram"`

	// Base uplink latency and bandwidth between the task source and a
	// node of the tier. Mobile nodes execute locally and ignore both.
	UplinkLatencyMs float64 `mapstructure:"uplink_latency_ms"`
	BandwidthMbps   float64 `mapstructure:"bandwidth_mbps"`

	// Energy drawn per million instructions executed
	JoulesPerMI float64 `mapstructure:"joules_per_mi"`
}

func (t TierConfig) validate(tier ts.Tier) error {
	if t.Count < 0 {
		return fmt.Errorf("%v: negative node count %v", tier, t.Count)
	}
	if t.Count == 0 {
		return nil
	}
	if t.MIPS <= 0 || t.RAM <= 0 {
		return fmt.Errorf("%v: capacity must be positive \n\twant(>0) "+
			"\n\thave(mips=%v ram=%v)", tier, t.MIPS, t.RAM)
	}
	if t.JoulesPerMI < 0 || t.UplinkLatencyMs < 0 {
		return fmt.Errorf("%v: negative energy or latency", tier)
	}
	if tier != ts.Mobile && t.BandwidthMbps <= 0 {
		return fmt.Errorf("%v: bandwidth must be positive \n\twant(>0) "+
			"\n\thave(%v)", tier, t.BandwidthMbps)
	}
	return nil
}

// Range is a closed interval tasks draw their requirements from
type Range struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

func (r Range) validate(name string) error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("%v: invalid range [%v, %v]", name, r.Min, r.Max)
	}
	return nil
}

// Config configures a synthetic three-tier Host
type Config struct {
	Cloud  TierConfig `mapstructure:"cloud"`
	Edge   TierConfig `mapstructure:"edge"`
	Mobile TierConfig `mapstructure:"mobile"`

	// EpisodeLength is the number of placements per episode
	EpisodeLength int `mapstructure:"episode_length"`

	ComputeUnits Range `mapstructure:"compute_units"`
	MemoryUnits  Range `mapstructure:"memory_units"`
	InputKB      Range `mapstructure:"input_kb"`

	// LoadWindowSec is the period over which a node's utilization is
	// measured. A task occupying a node for the whole window raises
	// its utilization by 100%.
	LoadWindowSec float64 `mapstructure:"load_window_sec"`

	// LoadDecay is the fraction of utilization and memory load a node
	// retains from one placement to the next
	LoadDecay float64 `mapstructure:"load_decay"`

	// LatencyJitter is the relative amount uplink latency and bandwidth
	// vary by at each placement
	LatencyJitter float64 `mapstructure:"latency_jitter"`

	// BackgroundLoadPct bounds the random load nodes start an episode
	// with
	BackgroundLoadPct float64 `mapstructure:"background_load_pct"`
}

// DefaultConfig returns a small hierarchy of one cloud, two edge and
// two mobile nodes
func DefaultConfig() Config {
	return Config{
		Cloud: TierConfig{Count: 1, MIPS: 20000, RAM: 32000,
			UplinkLatencyMs: 120, BandwidthMbps: 50, JoulesPerMI: 0.002},
		Edge: TierConfig{Count: 2, MIPS: 4000, RAM: 4000,
			UplinkLatencyMs: 15, BandwidthMbps: 20, JoulesPerMI: 0.005},
		Mobile: TierConfig{Count: 2, MIPS: 1000, RAM: 1000,
			JoulesPerMI: 0.02},
		EpisodeLength:     100,
		ComputeUnits:      Range{Min: 200, Max: 3000},
		MemoryUnits:       Range{Min: 50, Max: 800},
		InputKB:           Range{Min: 50, Max: 500},
		LoadWindowSec:     2,
		LoadDecay:         0.8,
		LatencyJitter:     0.2,
		BackgroundLoadPct: 30,
	}
}

// Validate checks that c describes at least one node and a sensible
// task distribution
func (c Config) Validate() error {
	if c.Cloud.Count+c.Edge.Count+c.Mobile.Count == 0 {
		return fmt.Errorf("tiered: host must have at least one node")
	}
	for _, t := range []struct {
		tier ts.Tier
		TierConfig
	}{{ts.Cloud, c.Cloud}, {ts.Edge, c.Edge}, {ts.Mobile, c.Mobile}} {
		if err := t.validate(t.tier); err != nil {
			return fmt.Errorf("tiered: %v", err)
		}
	}

	if c.EpisodeLength < 1 {
		return fmt.Errorf("tiered: episode length must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.EpisodeLength)
	}
	for _, r := range []struct {
		name string
		Range
	}{
		{"compute units", c.ComputeUnits},
		{"memory units", c.MemoryUnits},
		{"input kb", c.InputKB},
	} {
		if err := r.validate(r.name); err != nil {
			return fmt.Errorf("tiered: %v", err)
		}
	}

	if c.LoadWindowSec <= 0 {
		return fmt.Errorf("tiered: load window must be positive")
	}
	if c.LoadDecay < 0 || c.LoadDecay > 1 {
		return fmt.Errorf("tiered: load decay \n\twant(0 <= decay <= 1) "+
			"\n\thave(%v)", c.LoadDecay)
	}
	if c.LatencyJitter < 0 || c.LatencyJitter >= 1 {
		return fmt.Errorf("tiered: latency jitter \n\twant(0 <= jitter < 1) "+
			"\n\thave(%v)", c.LatencyJitter)
	}
	if c.BackgroundLoadPct < 0 || c.BackgroundLoadPct > 100 {
		return fmt.Errorf("tiered: background load \n\twant([0, 100]) "+
			"\n\thave(%v)", c.BackgroundLoadPct)
	}
	return nil
}
