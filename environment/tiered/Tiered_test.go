package tiered

import (
	"math"
	"strings"
	"testing"

	ts "github.com/samuelfneumann/drlplace/timestep"
	"golang.org/x/exp/rand"
)

func newTestHost(t *testing.T, c Config, seed uint64) *Host {
	t.Helper()

	h, err := New(c, rand.NewSource(seed))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return h
}

func TestNodes(t *testing.T) {
	h := newTestHost(t, DefaultConfig(), 1)

	want := []string{"cloud-0", "edge-0", "edge-1", "mobile-0", "mobile-1"}
	have := h.Nodes()
	if len(have) != len(want) {
		t.Fatalf("want(%v) have(%v)", want, have)
	}
	for i := range want {
		if have[i] != want[i] {
			t.Fatalf("want(%v) have(%v)", want, have)
		}
	}

	step, _ := h.Reset()
	for i, n := range step.Nodes {
		if n.ID != want[i] {
			t.Errorf("telemetry order: want(%v) have(%v)", want[i], n.ID)
		}
	}
}

func TestEpisodeLength(t *testing.T) {
	c := DefaultConfig()
	c.EpisodeLength = 5
	h := newTestHost(t, c, 1)

	step, err := h.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !step.First() || step.Number != 0 {
		t.Fatalf("reset: want first step 0, have %v", step)
	}

	for i := 1; i <= c.EpisodeLength; i++ {
		step, _, err = h.Step("edge-0")
		if err != nil {
			t.Fatalf("step %v: %v", i, err)
		}
		if step.Number != i {
			t.Errorf("step number: want(%v) have(%v)", i, step.Number)
		}
		if last := i == c.EpisodeLength; step.Last() != last {
			t.Errorf("step %v: want last %v, have %v", i, last, step.Type())
		}
	}

	if _, _, err := h.Step("edge-0"); err == nil {
		t.Errorf("expected error stepping after the last step")
	}
	if step, _ := h.Reset(); !step.First() {
		t.Errorf("reset after episode: have %v", step.Type())
	}
}

func TestStepBeforeReset(t *testing.T) {
	h := newTestHost(t, DefaultConfig(), 1)
	if _, _, err := h.Step("cloud-0"); err == nil {
		t.Errorf("expected error")
	}
}

func TestUnknownNode(t *testing.T) {
	h := newTestHost(t, DefaultConfig(), 1)
	h.Reset()
	if _, _, err := h.Step("fog-7"); err == nil {
		t.Errorf("expected error")
	}
}

func TestReproducible(t *testing.T) {
	a := newTestHost(t, DefaultConfig(), 42)
	b := newTestHost(t, DefaultConfig(), 42)

	sa, _ := a.Reset()
	sb, _ := b.Reset()
	ids := a.Nodes()
	for i := 0; i < 30; i++ {
		if sa.Task != sb.Task {
			t.Fatalf("step %v: tasks differ: %v != %v", i, sa.Task, sb.Task)
		}
		var oa, ob ts.Outcome
		sa, oa, _ = a.Step(ids[i%len(ids)])
		sb, ob, _ = b.Step(ids[i%len(ids)])
		if oa != ob {
			t.Fatalf("step %v: outcomes differ: %v != %v", i, oa, ob)
		}
	}
}

func TestTransmission(t *testing.T) {
	c := DefaultConfig()
	c.LatencyJitter = 0
	c.BackgroundLoadPct = 0
	c.InputKB = Range{Min: 1024, Max: 1024}
	c.ComputeUnits = Range{Min: 1000, Max: 1000}
	c.MemoryUnits = Range{Min: 10, Max: 10}
	h := newTestHost(t, c, 1)
	h.Reset()

	_, cloud, _ := h.Step("cloud-0")

	// 1024 KB = 8 Mb over 50 Mbps plus 120 ms, then 1000 MI at 20000 MIPS
	wantMs := 8.0/50*1000 + 120 + 1000.0/20000*1000
	if math.Abs(cloud.ExecutionTimeMs-wantMs) > 1e-9 {
		t.Errorf("cloud time: want(%v) have(%v)", wantMs, cloud.ExecutionTimeMs)
	}
	wantJ := 1000*c.Cloud.JoulesPerMI + txBaseJoules + txJoulesPerKB*1024
	if math.Abs(cloud.EnergyJoules-wantJ) > 1e-9 {
		t.Errorf("cloud energy: want(%v) have(%v)", wantJ, cloud.EnergyJoules)
	}
	if cloud.NetworkBytes != 1024*1024 {
		t.Errorf("cloud bytes: want(%v) have(%v)", 1024*1024, cloud.NetworkBytes)
	}

	_, mobile, _ := h.Step("mobile-0")
	if mobile.NetworkBytes != 0 {
		t.Errorf("local execution sent %v bytes", mobile.NetworkBytes)
	}
	if want := 1000.0 / 1000 * 1000; math.Abs(mobile.ExecutionTimeMs-want) > 1e-9 {
		t.Errorf("mobile time: want(%v) have(%v)", want, mobile.ExecutionTimeMs)
	}
}

func TestLoadRisesAndDecays(t *testing.T) {
	c := DefaultConfig()
	c.BackgroundLoadPct = 0
	c.MemoryUnits = Range{Min: 100, Max: 100}
	h := newTestHost(t, c, 3)
	h.Reset()

	step, _, _ := h.Step("edge-0")
	busy, _ := step.Node("edge-0")
	idle, _ := step.Node("edge-1")
	if busy.UtilizationPct <= 0 || busy.MemoryPct <= 0 {
		t.Fatalf("placement did not load the node: %+v", busy)
	}
	if idle.UtilizationPct != 0 || idle.MemoryPct != 0 {
		t.Fatalf("placement loaded another node: %+v", idle)
	}

	step, _, _ = h.Step("edge-1")
	after, _ := step.Node("edge-0")
	if after.UtilizationPct >= busy.UtilizationPct {
		t.Errorf("load did not decay: %v -> %v", busy.UtilizationPct,
			after.UtilizationPct)
	}
}

func TestMemoryFailure(t *testing.T) {
	c := DefaultConfig()
	c.MemoryUnits = Range{Min: 5000, Max: 5000}
	h := newTestHost(t, c, 1)
	h.Reset()

	if _, o, _ := h.Step("mobile-0"); !o.Failed {
		t.Errorf("task larger than node memory did not fail")
	}
	if _, o, _ := h.Step("cloud-0"); o.Failed {
		t.Errorf("task fitting in node memory failed")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"noNodes", func(c *Config) {
			c.Cloud.Count, c.Edge.Count, c.Mobile.Count = 0, 0, 0
		}},
		{"episode", func(c *Config) { c.EpisodeLength = 0 }},
		{"mips", func(c *Config) { c.Edge.MIPS = 0 }},
		{"bandwidth", func(c *Config) { c.Cloud.BandwidthMbps = 0 }},
		{"range", func(c *Config) { c.InputKB = Range{Min: 10, Max: 1} }},
		{"decay", func(c *Config) { c.LoadDecay = 1.5 }},
		{"jitter", func(c *Config) { c.LatencyJitter = 1 }},
		{"window", func(c *Config) { c.LoadWindowSec = 0 }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := DefaultConfig()
			test.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Errorf("expected error")
			}
		})
	}

	// Tiers without nodes need no capacity
	c := DefaultConfig()
	c.Mobile = TierConfig{}
	if err := c.Validate(); err != nil {
		t.Errorf("empty tier: %v", err)
	}
}

func TestConfigValidateOrder(t *testing.T) {
	c := DefaultConfig()
	c.Cloud.MIPS = 0
	c.Mobile.Count = -1
	c.InputKB = Range{Min: 2, Max: 1}

	for i := 0; i < 10; i++ {
		err := c.Validate()
		if err == nil || !strings.Contains(err.Error(), "cloud") {
			t.Fatalf("want cloud error first, have %v", err)
		}
	}
}
