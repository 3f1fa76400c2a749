package deepq

import (
	"bytes"
	"encoding/gob"
	"math"
	"reflect"
	"testing"

	"github.com/samuelfneumann/drlplace/expreplay"
	"github.com/samuelfneumann/drlplace/initwfn"
	"github.com/samuelfneumann/drlplace/solver"
	"github.com/samuelfneumann/drlplace/utils/floatutils"
	"golang.org/x/exp/rand"
)

func testConfig() Config {
	c := DefaultConfig()
	c.HiddenSize = 8
	c.LearningRate = 0.01
	c.BatchSize = 4
	c.TargetUpdateInterval = 3
	c.ExpReplay = expreplay.Config{Capacity: 50}
	return c
}

func newTestAgent(t *testing.T, c Config, seed uint64) *DeepQ {
	t.Helper()

	d, err := New(4, 3, c, rand.NewSource(seed), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return d
}

// fill remembers n transitions with random states
func fill(t *testing.T, d *DeepQ, n int, seed uint64) {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	state := func() []float64 {
		s := make([]float64, d.Features())
		for i := range s {
			s[i] = rng.Float64()
		}
		return s
	}

	for i := 0; i < n; i++ {
		err := d.Remember(state(), rng.Intn(d.ActionCount()),
			rng.Float64()*2-1, state(), i%5 == 4)
		if err != nil {
			t.Fatalf("remember: %v", err)
		}
	}
}

func TestTrainWarmUp(t *testing.T) {
	d := newTestAgent(t, testConfig(), 1)
	fill(t, d, 3, 2)

	loss, err := d.Train()
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if loss != 0 || d.Steps() != 0 || d.Epsilon() != 1 {
		t.Errorf("warm-up train: loss %v, steps %v, ε %v", loss, d.Steps(),
			d.Epsilon())
	}
}

func TestEpsilonSchedule(t *testing.T) {
	c := testConfig()
	c.EpsilonDecay = 0.9
	c.EpsilonMin = 0.05
	d := newTestAgent(t, c, 1)
	fill(t, d, 10, 2)

	for n := 1; n <= 40; n++ {
		if _, err := d.Train(); err != nil {
			t.Fatalf("train: %v", err)
		}
		want := math.Max(c.EpsilonMin, c.Epsilon*math.Pow(c.EpsilonDecay,
			float64(n)))
		if math.Abs(d.Epsilon()-want) > 1e-9 {
			t.Fatalf("after %v updates: want(%v) have(%v)", n, want,
				d.Epsilon())
		}
	}
}

func TestGreedySelection(t *testing.T) {
	c := testConfig()
	c.Epsilon = 0
	c.EpsilonMin = 0
	d := newTestAgent(t, c, 3)

	rng := rand.New(rand.NewSource(4))
	for trial := 0; trial < 50; trial++ {
		state := []float64{rng.Float64(), rng.Float64(), rng.Float64(),
			rng.Float64()}
		values, err := d.ActionValues(state)
		if err != nil {
			t.Fatalf("actionValues: %v", err)
		}
		action, err := d.SelectAction(state)
		if err != nil {
			t.Fatalf("selectAction: %v", err)
		}
		if want := floatutils.Argmax(values); action != want {
			t.Fatalf("want(%v) have(%v) for values %v", want, action, values)
		}
	}
}

func TestEvalIsGreedy(t *testing.T) {
	d := newTestAgent(t, testConfig(), 5)
	d.Eval()
	if !d.IsEval() {
		t.Fatalf("agent not in evaluation mode")
	}

	state := []float64{0.1, 0.9, 0.3, 0.7}
	values, _ := d.ActionValues(state)
	for i := 0; i < 20; i++ {
		action, _ := d.SelectAction(state)
		if action != floatutils.Argmax(values) {
			t.Fatalf("evaluation mode explored")
		}
	}
}

func TestExploreIsUniform(t *testing.T) {
	d := newTestAgent(t, testConfig(), 6)

	const trials = 6000
	counts := make([]int, d.ActionCount())
	state := []float64{0.2, 0.4, 0.6, 0.8}
	for i := 0; i < trials; i++ {
		a, err := d.SelectAction(state)
		if err != nil {
			t.Fatalf("selectAction: %v", err)
		}
		counts[a]++
	}

	for a, c := range counts {
		if math.Abs(float64(c)-trials/3.0) > 250 {
			t.Errorf("action %v selected %v times out of %v", a, c, trials)
		}
	}
}

func TestRememberInvalid(t *testing.T) {
	d := newTestAgent(t, testConfig(), 1)
	s := make([]float64, 4)

	for _, a := range []int{-1, 3, 100} {
		if err := d.Remember(s, a, 0, s, false); !IsInvalidAction(err) {
			t.Errorf("action %v: expected invalid action, have %v", a, err)
		}
	}

	if err := d.Remember(s[:2], 0, 0, s, false); !IsInvalidState(err) {
		t.Errorf("short state: expected invalid state, have %v", err)
	}
	if _, err := d.SelectAction(s[:3]); !IsInvalidState(err) {
		t.Errorf("short state: expected invalid state, have %v", err)
	}
	if d.ReplaySize() != 0 {
		t.Errorf("invalid transitions were stored")
	}
}

func TestTargetSync(t *testing.T) {
	c := testConfig()
	c.TargetUpdateInterval = 2
	d := newTestAgent(t, c, 7)
	fill(t, d, 10, 8)

	probe := []float64{0.3, 0.1, 0.8, 0.5}
	same := func() bool {
		a, _ := d.trainNet.Forward(probe)
		b, _ := d.targetNet.Forward(probe)
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}

	if !same() {
		t.Fatalf("target network does not start as a copy")
	}

	d.Train()
	if same() {
		t.Fatalf("target network moved before its update interval")
	}

	d.Train()
	if !same() {
		t.Fatalf("target network not synchronized after its update interval")
	}
}

func TestLearnsTerminalReward(t *testing.T) {
	c := testConfig()
	c.BatchSize = 1
	c.LearningRate = 0.05
	d := newTestAgent(t, c, 9)

	state := []float64{0.5, 0.25, 0.75, 1}
	if err := d.Remember(state, 1, 0.8, state, true); err != nil {
		t.Fatalf("remember: %v", err)
	}

	for i := 0; i < 500; i++ {
		if _, err := d.Train(); err != nil {
			t.Fatalf("train: %v", err)
		}
	}

	values, _ := d.ActionValues(state)
	if math.Abs(values[1]-0.8) > 0.01 {
		t.Errorf("Q(s, 1): want(0.8) have(%v)", values[1])
	}
}

func TestGobRoundTrip(t *testing.T) {
	d := newTestAgent(t, testConfig(), 11)
	fill(t, d, 10, 12)
	for i := 0; i < 5; i++ {
		d.Train()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(d); err != nil {
		t.Fatalf("encode: %v", err)
	}

	restored := newTestAgent(t, testConfig(), 99)
	if err := gob.NewDecoder(&buf).Decode(restored); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if restored.Epsilon() != d.Epsilon() || restored.Steps() != d.Steps() {
		t.Errorf("schedule not restored: ε %v/%v steps %v/%v",
			restored.Epsilon(), d.Epsilon(), restored.Steps(), d.Steps())
	}

	probe := []float64{0.9, 0.8, 0.7, 0.6}
	a, _ := d.ActionValues(probe)
	b, _ := restored.ActionValues(probe)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("restored values differ: %v != %v", a, b)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"hidden", func(c *Config) { c.HiddenSize = 0 }},
		{"learningRate", func(c *Config) { c.LearningRate = 0 }},
		{"gammaOne", func(c *Config) { c.Gamma = 1 }},
		{"batch", func(c *Config) { c.BatchSize = 0 }},
		{"targetInterval", func(c *Config) { c.TargetUpdateInterval = 0 }},
		{"epsilonFloor", func(c *Config) { c.EpsilonMin = 2 }},
		{"replay", func(c *Config) { c.ExpReplay.Capacity = 0 }},
		{"activation", func(c *Config) { c.HiddenActivation = "softmax" }},
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

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config: %v", err)
	}
}

func TestIndependentAgents(t *testing.T) {
	a := newTestAgent(t, testConfig(), 21)
	b := newTestAgent(t, testConfig(), 21)
	fill(t, a, 10, 22)

	for i := 0; i < 3; i++ {
		a.Train()
	}
	if b.Steps() != 0 || b.ReplaySize() != 0 || b.Epsilon() != 1 {
		t.Errorf("training one agent changed another")
	}
}

func TestEpsilonChangesOnlyByTraining(t *testing.T) {
	// Exploration is scheduled by Train alone
	if _, ok := reflect.TypeOf(&DeepQ{}).MethodByName("SetEpsilon"); ok {
		t.Errorf("DeepQ exposes SetEpsilon")
	}

	d := newTestAgent(t, testConfig(), 31)
	fill(t, d, 10, 32)
	for i := 0; i < 10; i++ {
		if _, err := d.SelectAction(make([]float64, d.Features())); err != nil {
			t.Fatalf("selectAction: %v", err)
		}
	}
	if d.Epsilon() != 1 {
		t.Errorf("ε changed without training: %v", d.Epsilon())
	}
}

func TestNetworkConfig(t *testing.T) {
	init, err := initwfn.NewUniform(-0.1, 0.1)
	if err != nil {
		t.Fatalf("newUniform: %v", err)
	}
	s, err := solver.NewVanilla(0.05, 0.5)
	if err != nil {
		t.Fatalf("newVanilla: %v", err)
	}

	c := testConfig()
	c.InitWFn = init
	c.Solver = s
	c.LearningRate = 0 // unused with an explicit solver
	c.HiddenActivation = "tanh"

	a := newTestAgent(t, c, 41)
	b := newTestAgent(t, c, 41)
	fill(t, a, 10, 42)
	if _, err := a.Train(); err != nil {
		t.Fatalf("train: %v", err)
	}
	if a.Steps() != 1 {
		t.Errorf("steps: want(1) have(%v)", a.Steps())
	}
	if a.trainNet.HiddenActivation().String() != "tanh" ||
		a.targetNet.HiddenActivation().String() != "tanh" {
		t.Errorf("activation not applied to both networks")
	}

	// Uniform(-0.1, 0.1) weights keep the untrained outputs small
	values, err := b.ActionValues([]float64{1, 1, 1, 1})
	if err != nil {
		t.Fatalf("actionValues: %v", err)
	}
	for _, v := range values {
		if math.Abs(v) > 1 {
			t.Errorf("action value %v outside the initializer's reach", v)
		}
	}
}
