package solver

import (
	"fmt"

	"github.com/samuelfneumann/drlplace/utils/floatutils"
	"gonum.org/v1/gonum/floats"
)

// VanillaConfig describes a configuration of the vanilla gradient
// descent solver.
type VanillaConfig struct {
	StepSize float64
	Clip     float64 // <= 0 if no clipping
}

// NewVanilla returns a new Vanilla Solver
func NewVanilla(stepSize, clip float64) (*Solver, error) {
	vanilla := VanillaConfig{
		StepSize: stepSize,
		Clip:     clip,
	}

	return newSolver(Vanilla, vanilla)
}

// Create returns a vanilla gradient descent Stepper as described by
// the VanillaConfig
func (v VanillaConfig) Create() Stepper {
	return &vanilla{stepSize: v.StepSize, clip: v.Clip}
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (v VanillaConfig) ValidType(t Type) bool {
	return t == Vanilla
}

// Validate checks that the step size is positive
func (v VanillaConfig) Validate() error {
	if v.StepSize <= 0 {
		return fmt.Errorf("vanilla: step size must be positive "+
			"\n\twant(>0) \n\thave(%v)", v.StepSize)
	}
	return nil
}

// vanilla performs w <- w - α * g, optionally clipping each gradient
// element to [-clip, clip] first
type vanilla struct {
	stepSize float64
	clip     float64
}

// Step implements the Stepper interface
func (v *vanilla) Step(params, grads []float64) {
	if v.clip <= 0 {
		floats.AddScaled(params, -v.stepSize, grads)
		return
	}

	for i, g := range grads {
		params[i] -= v.stepSize * floatutils.Clip(g, -v.clip, v.clip)
	}
}
