package network

import (
	"fmt"
	"math"
)

type activationType string

const (
	relu     activationType = "relu"
	identity activationType = "identity"
	tanh     activationType = "tanh"
)

// Activation represents an element-wise activation function and its
// derivative with respect to the pre-activation
type Activation struct {
	activationType
	f  func(z float64) float64
	df func(z float64) float64
}

// fwd applies the activation to z
func (a *Activation) fwd(z float64) float64 {
	return a.f(z)
}

// grad returns the derivative of the activation at pre-activation z
func (a *Activation) grad(z float64) float64 {
	return a.df(z)
}

// String implements the Stringer interface
func (a *Activation) String() string {
	return string(a.activationType)
}

// IsIdentity returns whether or not the Activation is the identity
// function.
func (a *Activation) IsIdentity() bool {
	return a.activationType == identity
}

// GobEncode implements the GobEncoder interface
func (a *Activation) GobEncode() ([]byte, error) {
	return []byte(a.activationType), nil
}

// GobDecode implements the GobDecoder interface
func (a *Activation) GobDecode(encoded []byte) error {
	decoded, err := activationOf(activationType(encoded))
	if err != nil {
		return fmt.Errorf("gobdecode: %v", err)
	}
	*a = *decoded
	return nil
}

// ParseActivation returns the Activation named name, one of "relu",
// "tanh" or "identity"
func ParseActivation(name string) (*Activation, error) {
	a, err := activationOf(activationType(name))
	if err != nil {
		return nil, fmt.Errorf("parseActivation: %v", err)
	}
	return a, nil
}

func activationOf(t activationType) (*Activation, error) {
	switch t {
	case relu:
		return ReLU(), nil
	case identity:
		return Identity(), nil
	case tanh:
		return TanH(), nil
	}
	return nil, fmt.Errorf("illegal Activation type %q", string(t))
}

// Identity returns an identity *Activation
func Identity() *Activation {
	return &Activation{
		activationType: identity,
		f:              func(z float64) float64 { return z },
		df:             func(float64) float64 { return 1 },
	}
}

// ReLU returns a ReLU *Activation. Its derivative is 1 where the
// pre-activation is strictly positive and 0 elsewhere.
func ReLU() *Activation {
	return &Activation{
		activationType: relu,
		f: func(z float64) float64 {
			if z > 0 {
				return z
			}
			return 0
		},
		df: func(z float64) float64 {
			if z > 0 {
				return 1
			}
			return 0
		},
	}
}

// TanH returns a tanh *Activation
func TanH() *Activation {
	return &Activation{
		activationType: tanh,
		f:              math.Tanh,
		df: func(z float64) float64 {
			t := math.Tanh(z)
			return 1 - t*t
		},
	}
}
