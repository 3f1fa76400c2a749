package network

import (
	"bytes"
	"encoding/gob"
	"math"
	"testing"

	"github.com/samuelfneumann/drlplace/initwfn"
	"github.com/samuelfneumann/drlplace/solver"
	"golang.org/x/exp/rand"
)

func newTestMLP(t testing.TB, inputs, hidden, outputs int, lr float64,
	seed uint64) *MLP {
	t.Helper()

	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		t.Fatalf("newGlorotU: %v", err)
	}
	s, err := solver.NewVanilla(lr, 0)
	if err != nil {
		t.Fatalf("newVanilla: %v", err)
	}
	net, err := NewMLP(inputs, hidden, outputs, init, s, rand.NewSource(seed))
	if err != nil {
		t.Fatalf("newMLP: %v", err)
	}
	return net
}

func finite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func TestForwardZeroVector(t *testing.T) {
	net := newTestMLP(t, 4, 8, 3, 0.01, 1)

	out, err := net.Forward(make([]float64, 4))
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("output length: want(3) have(%v)", len(out))
	}
	if !finite(out) {
		t.Errorf("non-finite output %v", out)
	}

	// Biases start at zero, so a zero input gives a zero output
	for _, v := range out {
		if v != 0 {
			t.Errorf("zero input: want(0) have(%v)", v)
		}
	}
}

func TestForwardShapes(t *testing.T) {
	tests := []struct {
		inputs, hidden, outputs int
	}{
		{1, 1, 1},
		{4, 8, 3},
		{17, 64, 9},
	}

	src := rand.New(rand.NewSource(7))
	for _, test := range tests {
		net := newTestMLP(t, test.inputs, test.hidden, test.outputs, 0.01, 2)

		x := make([]float64, test.inputs)
		for i := range x {
			x[i] = src.Float64()*2 - 1
		}
		out, err := net.Forward(x)
		if err != nil {
			t.Fatalf("forward: %v", err)
		}
		if len(out) != test.outputs || !finite(out) {
			t.Errorf("(%v, %v, %v): have %v", test.inputs, test.hidden,
				test.outputs, out)
		}
	}
}

func TestForwardWrongLength(t *testing.T) {
	net := newTestMLP(t, 4, 8, 3, 0.01, 1)

	for _, n := range []int{0, 3, 5} {
		_, err := net.Forward(make([]float64, n))
		if !IsInvalidInput(err) {
			t.Errorf("length %v: expected invalid input error, have %v", n,
				err)
		}
	}
}

func TestTrainWrongTargetLength(t *testing.T) {
	net := newTestMLP(t, 4, 8, 3, 0.01, 1)

	if _, err := net.Train(make([]float64, 4), make([]float64, 2)); !IsInvalidInput(err) {
		t.Errorf("expected invalid input error, have %v", err)
	}
}

func TestCopyParameters(t *testing.T) {
	online := newTestMLP(t, 4, 8, 3, 0.01, 1)
	target := newTestMLP(t, 4, 8, 3, 0.01, 2)

	x := []float64{0.3, -0.2, 0.9, 0.5}
	before, _ := target.Forward(x)
	want, _ := online.Forward(x)
	if equal(before, want) {
		t.Fatalf("differently seeded networks should differ")
	}

	if err := target.CopyParameters(online); err != nil {
		t.Fatalf("copyParameters: %v", err)
	}

	src := rand.New(rand.NewSource(11))
	for trial := 0; trial < 20; trial++ {
		for i := range x {
			x[i] = src.NormFloat64()
		}
		a, _ := online.Forward(x)
		b, _ := target.Forward(x)
		if !equal(a, b) {
			t.Fatalf("outputs differ after copy: %v != %v", a, b)
		}
	}

	// The copy is deep: training the source does not move the target
	if _, err := online.Train(x, []float64{1, 1, 1}); err != nil {
		t.Fatalf("train: %v", err)
	}
	a, _ := online.Forward(x)
	b, _ := target.Forward(x)
	if equal(a, b) {
		t.Errorf("training the source changed the copy")
	}
}

func TestCopyParametersShapeMismatch(t *testing.T) {
	a := newTestMLP(t, 4, 8, 3, 0.01, 1)

	for _, b := range []*MLP{
		newTestMLP(t, 5, 8, 3, 0.01, 1),
		newTestMLP(t, 4, 9, 3, 0.01, 1),
		newTestMLP(t, 4, 8, 2, 0.01, 1),
	} {
		if err := a.CopyParameters(b); !IsShapeMismatch(err) {
			t.Errorf("expected shape mismatch, have %v", err)
		}
	}
}

func TestTrainDecreasesLoss(t *testing.T) {
	net := newTestMLP(t, 4, 8, 3, 0.01, 5)
	x := []float64{0.5, 0.2, 0.9, 0.1}
	target := []float64{1, -1, 0.5}

	prev := math.Inf(1)
	for i := 0; i < 500; i++ {
		loss, err := net.Train(x, target)
		if err != nil {
			t.Fatalf("train: %v", err)
		}
		if loss < 1e-10 {
			return
		}
		if loss >= prev {
			t.Fatalf("iteration %v: loss did not decrease: %v -> %v", i,
				prev, loss)
		}
		prev = loss
	}
}

func TestTrainBatchSequential(t *testing.T) {
	xs := [][]float64{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}}
	targets := [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	batched := newTestMLP(t, 4, 8, 3, 0.05, 9)
	single := newTestMLP(t, 4, 8, 3, 0.05, 9)

	avg, err := batched.TrainBatch(xs, targets)
	if err != nil {
		t.Fatalf("trainBatch: %v", err)
	}

	var total float64
	for i := range xs {
		loss, err := single.Train(xs[i], targets[i])
		if err != nil {
			t.Fatalf("train: %v", err)
		}
		total += loss
	}

	if math.Abs(avg-total/3) > 1e-12 {
		t.Errorf("average loss: want(%v) have(%v)", total/3, avg)
	}

	probe := []float64{0.1, 0.2, 0.3, 0.4}
	a, _ := batched.Forward(probe)
	b, _ := single.Forward(probe)
	if !equal(a, b) {
		t.Errorf("batched and sequential training differ: %v != %v", a, b)
	}
}

func TestGobRoundTrip(t *testing.T) {
	net := newTestMLP(t, 4, 8, 3, 0.01, 3)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(net); err != nil {
		t.Fatalf("encode: %v", err)
	}

	restored := &MLP{}
	if err := gob.NewDecoder(&buf).Decode(restored); err != nil {
		t.Fatalf("decode: %v", err)
	}

	x := []float64{0.25, -1, 0.5, 2}
	a, _ := net.Forward(x)
	b, err := restored.Forward(x)
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if !equal(a, b) {
		t.Errorf("restored network differs: %v != %v", a, b)
	}
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func BenchmarkForward(b *testing.B) {
	net := newTestMLP(b, 32, 64, 10, 0.001, 1)
	x := make([]float64, 32)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		net.Forward(x)
	}
}

func BenchmarkTrain(b *testing.B) {
	net := newTestMLP(b, 32, 64, 10, 0.001, 1)
	x := make([]float64, 32)
	target := make([]float64, 10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		net.Train(x, target)
	}
}

func TestHiddenActivation(t *testing.T) {
	relu := newTestMLP(t, 3, 6, 2, 0.01, 4)
	tanh := newTestMLP(t, 3, 6, 2, 0.01, 4)

	act, err := ParseActivation("tanh")
	if err != nil {
		t.Fatalf("parseActivation: %v", err)
	}
	tanh.SetHiddenActivation(act)
	if tanh.HiddenActivation().String() != "tanh" {
		t.Fatalf("activation not set: %v", tanh.HiddenActivation())
	}

	x := []float64{0.5, -1, 2}
	a, _ := relu.Forward(x)
	b, _ := tanh.Forward(x)
	if a[0] == b[0] && a[1] == b[1] {
		t.Errorf("activation has no effect: %v %v", a, b)
	}

	// Clones and decoded copies keep the activation
	clone := tanh.Clone()
	c, _ := clone.Forward(x)
	if c[0] != b[0] || c[1] != b[1] {
		t.Errorf("clone: want(%v) have(%v)", b, c)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(tanh); err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded := &MLP{}
	if err := gob.NewDecoder(&buf).Decode(decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.HiddenActivation().String() != "tanh" {
		t.Errorf("decoded activation: %v", decoded.HiddenActivation())
	}

	// Training through tanh still reduces the loss
	target := []float64{0.3, -0.2}
	first, _ := tanh.Train(x, target)
	var last float64
	for i := 0; i < 50; i++ {
		last, _ = tanh.Train(x, target)
	}
	if !(last < first) {
		t.Errorf("loss did not decrease: first %v last %v", first, last)
	}
}

func TestParseActivationUnknown(t *testing.T) {
	if _, err := ParseActivation("sigmoid"); err == nil {
		t.Errorf("expected error")
	}
	for _, name := range []string{"relu", "tanh", "identity"} {
		a, err := ParseActivation(name)
		if err != nil || a.String() != name {
			t.Errorf("%v: %v %v", name, a, err)
		}
		if a.IsIdentity() != (name == "identity") {
			t.Errorf("%v: isIdentity %v", name, a.IsIdentity())
		}
	}
}
