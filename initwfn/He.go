package initwfn

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// HeUConfig implements a configuration of the He uniform
// initialization algorithm.
type HeUConfig struct {
	Gain float64
}

// NewHeU returns a new He Uniform weight initializer
func NewHeU(gain float64) (*InitWFn, error) {
	config := HeUConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (h HeUConfig) Type() Type {
	return HeU
}

// Create returns the weight initialization algorithm
func (h HeUConfig) Create() Fn {
	return func(w *mat.Dense, src rand.Source) {
		fanIn, _ := w.Dims()
		bound := h.Gain * math.Sqrt(6.0/float64(fanIn))
		dist := distuv.Uniform{Min: -bound, Max: bound, Src: src}
		fill(w, dist.Rand)
	}
}

// HeNConfig implements a configuration of the He normal
// initialization algorithm.
type HeNConfig struct {
	Gain float64
}

// NewHeN returns a new He Normal weight initializer
func NewHeN(gain float64) (*InitWFn, error) {
	config := HeNConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (h HeNConfig) Type() Type {
	return HeN
}

// Create returns the weight initialization algorithm
func (h HeNConfig) Create() Fn {
	return func(w *mat.Dense, src rand.Source) {
		fanIn, _ := w.Dims()
		sigma := h.Gain * math.Sqrt(2.0/float64(fanIn))
		dist := distuv.Normal{Mu: 0, Sigma: sigma, Src: src}
		fill(w, dist.Rand)
	}
}
