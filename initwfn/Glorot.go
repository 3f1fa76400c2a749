package initwfn

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// glorotScale returns gain * sqrt(2 / (fanIn + fanOut)) for the
// weight matrix w
func glorotScale(w *mat.Dense, gain float64) float64 {
	fanIn, fanOut := w.Dims()
	return gain * math.Sqrt(2.0/float64(fanIn+fanOut))
}

// GlorotUConfig implements a configuration of the Glorot Uniform
// initialization algorithm. Weights are drawn from U(-b, b) where
// b = Gain * sqrt(2 / (fan_in + fan_out)).
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new Glorot Uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	config := GlorotUConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (g GlorotUConfig) Type() Type {
	return GlorotU
}

// Create returns the weight initialization algorithm
func (g GlorotUConfig) Create() Fn {
	return func(w *mat.Dense, src rand.Source) {
		bound := glorotScale(w, g.Gain)
		dist := distuv.Uniform{Min: -bound, Max: bound, Src: src}
		fill(w, dist.Rand)
	}
}

// GlorotNConfig implements a configuration of the Glorot Normal
// initialization algorithm.
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a new Glorot Normal weight initializer.
func NewGlorotN(gain float64) (*InitWFn, error) {
	config := GlorotNConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by the
// configuration.
func (g GlorotNConfig) Type() Type {
	return GlorotN
}

// Create returns the weight initialization algorithm
func (g GlorotNConfig) Create() Fn {
	return func(w *mat.Dense, src rand.Source) {
		dist := distuv.Normal{Mu: 0, Sigma: glorotScale(w, g.Gain), Src: src}
		fill(w, dist.Rand)
	}
}
