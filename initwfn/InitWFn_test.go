package initwfn

import (
	"encoding/json"
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func TestGlorotUBound(t *testing.T) {
	init, err := NewGlorotU(1.0)
	if err != nil {
		t.Fatalf("newGlorotU: %v", err)
	}

	w := mat.NewDense(10, 30, nil)
	init.Init(w, rand.NewSource(1))

	bound := math.Sqrt(2.0 / 40.0)
	nonZero := 0
	for _, v := range w.RawMatrix().Data {
		if math.Abs(v) > bound {
			t.Fatalf("weight %v outside bound %v", v, bound)
		}
		if v != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Errorf("all weights are zero")
	}
}

func TestSameSourceSameWeights(t *testing.T) {
	init, _ := NewGlorotU(1.0)

	a := mat.NewDense(4, 8, nil)
	b := mat.NewDense(4, 8, nil)
	init.Init(a, rand.NewSource(42))
	init.Init(b, rand.NewSource(42))

	if !mat.Equal(a, b) {
		t.Errorf("equal seeds produced different weights")
	}
}

func TestConstantInitializers(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want float64
	}{
		{"zeroes", ZeroesConfig{}, 0},
		{"ones", OnesConfig{}, 1},
		{"constant", ConstantConfig{Value: 0.25}, 0.25},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			init, err := New(test.cfg)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			w := mat.NewDense(3, 2, nil)
			init.Init(w, rand.NewSource(0))
			for _, v := range w.RawMatrix().Data {
				if v != test.want {
					t.Fatalf("want(%v) have(%v)", test.want, v)
				}
			}
		})
	}
}

func TestUnmarshalJSON(t *testing.T) {
	data := []byte(`{"Type": "Uniform", "Config": {"Low": -0.5, "High": 0.5}}`)

	var init InitWFn
	if err := json.Unmarshal(data, &init); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if init.Type != Uniform {
		t.Fatalf("type: want(%v) have(%v)", Uniform, init.Type)
	}
	cfg, ok := init.Config.(UniformConfig)
	if !ok || cfg.Low != -0.5 || cfg.High != 0.5 {
		t.Fatalf("config: have(%#v)", init.Config)
	}

	w := mat.NewDense(5, 5, nil)
	init.Init(w, rand.NewSource(3))
	for _, v := range w.RawMatrix().Data {
		if v < -0.5 || v > 0.5 {
			t.Fatalf("weight %v outside [-0.5, 0.5]", v)
		}
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	var init InitWFn
	err := json.Unmarshal([]byte(`{"Type": "Xavier"}`), &init)
	if err == nil {
		t.Errorf("expected error for unknown type")
	}
}
