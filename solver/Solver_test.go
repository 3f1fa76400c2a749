package solver

import (
	"encoding/json"
	"testing"
)

func TestVanillaStep(t *testing.T) {
	tests := []struct {
		name   string
		clip   float64
		params []float64
		grads  []float64
		want   []float64
	}{
		{"noClip", 0, []float64{1, 2}, []float64{10, -10}, []float64{0, 3}},
		{"clip", 1, []float64{1, 2}, []float64{10, -10}, []float64{0.9, 2.1}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, err := NewVanilla(0.1, test.clip)
			if err != nil {
				t.Fatalf("newVanilla: %v", err)
			}
			s.Step(test.params, test.grads)
			for i := range test.want {
				if d := test.params[i] - test.want[i]; d > 1e-12 || d < -1e-12 {
					t.Errorf("param %d: want(%v) have(%v)", i, test.want[i],
						test.params[i])
				}
			}
		})
	}
}

func TestVanillaRejectsNonPositiveStep(t *testing.T) {
	if _, err := NewVanilla(0, 0); err == nil {
		t.Errorf("expected error for zero step size")
	}
}

func TestUnmarshalJSON(t *testing.T) {
	var s Solver
	data := []byte(`{"Type": "Vanilla", "Config": {"StepSize": 0.01}}`)
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Type != Vanilla || s.Stepper == nil {
		t.Fatalf("unexpected solver %+v", s)
	}

	params := []float64{1}
	s.Step(params, []float64{1})
	if d := params[0] - 0.99; d > 1e-12 || d < -1e-12 {
		t.Errorf("want(0.99) have(%v)", params[0])
	}
}
