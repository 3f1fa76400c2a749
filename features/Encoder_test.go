package features

import (
	"math"
	"strings"
	"testing"

	"github.com/samuelfneumann/drlplace/timestep"
)

func TestEncodeLayout(t *testing.T) {
	e, err := NewEncoder([]string{"cloud", "edge", "mobile"}, DefaultConfig())
	if err != nil {
		t.Fatalf("newEncoder: %v", err)
	}

	nodes := []timestep.Node{
		{ID: "edge", UtilizationPct: 50, MemoryPct: 25, UplinkLatencyMs: 100},
		{ID: "cloud", UtilizationPct: 10, MemoryPct: 20, UplinkLatencyMs: 250},
		{ID: "mobile", UtilizationPct: 100, MemoryPct: 0, UplinkLatencyMs: 0},
	}
	task := timestep.Task{ComputeUnits: 2500, MemoryUnits: 10000}

	want := []float64{
		0.1, 0.2, 0.5,
		0.5, 0.25, 0.2,
		1, 0, 0,
		0.25, 1,
	}
	have := e.Encode(nodes, task)
	if len(have) != e.Len() || e.Len() != 11 {
		t.Fatalf("length: want(11) have(%v)", len(have))
	}
	for i := range want {
		if math.Abs(have[i]-want[i]) > 1e-12 {
			t.Errorf("feature %v: want(%v) have(%v)", i, want[i], have[i])
		}
	}
}

func TestEncodeMissingTelemetry(t *testing.T) {
	e, _ := NewEncoder([]string{"a", "b"}, DefaultConfig())

	have := e.Encode([]timestep.Node{
		{ID: "b", UtilizationPct: math.NaN(), MemoryPct: 50,
			UplinkLatencyMs: math.Inf(1)},
		{ID: "unknown", UtilizationPct: 90},
	}, timestep.Task{})

	want := []float64{0, 0, 0, 0, 0.5, 0, 0, 0}
	for i := range want {
		if have[i] != want[i] {
			t.Fatalf("want(%v) have(%v)", want, have)
		}
	}
}

func TestEncodeClipping(t *testing.T) {
	nodes := []timestep.Node{
		{ID: "a", UtilizationPct: 150, MemoryPct: -5, UplinkLatencyMs: 1000},
	}
	task := timestep.Task{ComputeUnits: 20000}

	clipped, _ := NewEncoder([]string{"a"}, DefaultConfig())
	if have := clipped.Encode(nodes, task); have[0] != 1 || have[1] != 0 ||
		have[2] != 1 || have[3] != 1 {
		t.Errorf("clipped: have(%v)", have)
	}

	cfg := DefaultConfig()
	cfg.ClipLatency = false
	unclipped, _ := NewEncoder([]string{"a"}, cfg)
	if have := unclipped.Encode(nodes, task); have[2] != 2 {
		t.Errorf("unclipped latency: want(2) have(%v)", have[2])
	}
}

func TestEncodeDeterministic(t *testing.T) {
	e, _ := NewEncoder([]string{"x", "y"}, DefaultConfig())
	nodes := []timestep.Node{
		{ID: "x", UtilizationPct: 33, MemoryPct: 44, UplinkLatencyMs: 55},
		{ID: "y", UtilizationPct: 66, MemoryPct: 77, UplinkLatencyMs: 88},
	}
	reversed := []timestep.Node{nodes[1], nodes[0]}
	task := timestep.Task{ComputeUnits: 123, MemoryUnits: 456}

	a := e.Encode(nodes, task)
	b := e.Encode(reversed, task)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("input order changed encoding: %v != %v", a, b)
		}
	}
}

func TestNewEncoderErrors(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		cfg  Config
	}{
		{"empty", nil, DefaultConfig()},
		{"duplicate", []string{"a", "a"}, DefaultConfig()},
		{"zeroMax", []string{"a"}, Config{MaxUtilizationPct: 100}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := NewEncoder(test.ids, test.cfg); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestValidateOrder(t *testing.T) {
	c := DefaultConfig()
	c.MaxUtilizationPct = 0
	c.MaxTaskUnits = -1

	for i := 0; i < 10; i++ {
		err := c.Validate()
		if err == nil || !strings.Contains(err.Error(), "utilization") {
			t.Fatalf("want utilization error first, have %v", err)
		}
	}
}
