// Package network implements a single hidden layer feed-forward
// neural network used to approximate action values.
package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/samuelfneumann/drlplace/initwfn"
	"github.com/samuelfneumann/drlplace/solver"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// DefaultHiddenSize is the number of hidden units used when none is
// configured
const DefaultHiddenSize = 64

// MLP is a two layer feed-forward network:
//
//	hidden = ReLU(W_ihᵀ x + b_h)
//	output = W_hoᵀ hidden + b_o
//
// W_ih is inputs×hidden and W_ho is hidden×outputs. The network trains
// by plain per-sample gradient descent on the mean squared error.
//
// An MLP is not safe for concurrent use.
type MLP struct {
	inputs  int
	hidden  int
	outputs int

	wIH *mat.Dense
	bH  *mat.VecDense
	wHO *mat.Dense
	bO  *mat.VecDense

	hiddenAct *Activation
	outputAct *Activation

	solver solver.Stepper

	// Cached forward pass
	zH, aH, zO, aO *mat.VecDense

	// Gradient buffers, same shapes as the parameters
	gWIH, gWHO *mat.Dense
	gBH, gBO   *mat.VecDense
}

// NewMLP returns a new MLP with the given layer sizes. Weights are
// initialized by init using randomness from src only, and biases start
// at zero. The solver s adapts the weights during training; it may be
// nil for networks that are only ever evaluated or copied into, such
// as target networks.
func NewMLP(inputs, hidden, outputs int, init *initwfn.InitWFn,
	s solver.Stepper, src rand.Source) (*MLP, error) {
	if inputs < 1 || hidden < 1 || outputs < 1 {
		return nil, fmt.Errorf("newMLP: layer sizes must be positive "+
			"\n\twant(>0, >0, >0) \n\thave(%v, %v, %v)", inputs, hidden,
			outputs)
	}
	if init == nil {
		return nil, fmt.Errorf("newMLP: nil weight initializer")
	}
	if src == nil {
		return nil, fmt.Errorf("newMLP: nil random source")
	}

	m := newMLP(inputs, hidden, outputs, s)
	init.Init(m.wIH, src)
	init.Init(m.wHO, src)

	return m, nil
}

// newMLP allocates a zeroed network
func newMLP(inputs, hidden, outputs int, s solver.Stepper) *MLP {
	return &MLP{
		inputs:    inputs,
		hidden:    hidden,
		outputs:   outputs,
		wIH:       mat.NewDense(inputs, hidden, nil),
		bH:        mat.NewVecDense(hidden, nil),
		wHO:       mat.NewDense(hidden, outputs, nil),
		bO:        mat.NewVecDense(outputs, nil),
		hiddenAct: ReLU(),
		outputAct: Identity(),
		solver:    s,
		zH:        mat.NewVecDense(hidden, nil),
		aH:        mat.NewVecDense(hidden, nil),
		zO:        mat.NewVecDense(outputs, nil),
		aO:        mat.NewVecDense(outputs, nil),
		gWIH:      mat.NewDense(inputs, hidden, nil),
		gWHO:      mat.NewDense(hidden, outputs, nil),
		gBH:       mat.NewVecDense(hidden, nil),
		gBO:       mat.NewVecDense(outputs, nil),
	}
}

// Features returns the length of input vectors
func (m *MLP) Features() int {
	return m.inputs
}

// Hidden returns the number of hidden units
func (m *MLP) Hidden() int {
	return m.hidden
}

// Outputs returns the length of output vectors
func (m *MLP) Outputs() int {
	return m.outputs
}

// SetHiddenActivation replaces the activation of the hidden layer,
// ReLU by default. A nil Activation is ignored.
func (m *MLP) SetHiddenActivation(a *Activation) {
	if a != nil {
		m.hiddenAct = a
	}
}

// HiddenActivation returns the activation of the hidden layer
func (m *MLP) HiddenActivation() *Activation {
	return m.hiddenAct
}

// SetSolver sets the solver used to adapt the weights
func (m *MLP) SetSolver(s solver.Stepper) {
	m.solver = s
}

// Forward returns the network output for input x. The returned slice is
// owned by the caller.
func (m *MLP) Forward(x []float64) ([]float64, error) {
	if len(x) != m.inputs {
		return nil, m.inputErr("forward", m.inputs, len(x))
	}

	m.fwd(x)
	out := make([]float64, m.outputs)
	copy(out, m.aO.RawVector().Data)
	return out, nil
}

// fwd runs the forward pass and caches the pre-activations and
// activations of both layers
func (m *MLP) fwd(x []float64) {
	in := mat.NewVecDense(len(x), x)

	m.zH.MulVec(m.wIH.T(), in)
	m.zH.AddVec(m.zH, m.bH)
	for i := 0; i < m.hidden; i++ {
		m.aH.SetVec(i, m.hiddenAct.fwd(m.zH.AtVec(i)))
	}

	m.zO.MulVec(m.wHO.T(), m.aH)
	m.zO.AddVec(m.zO, m.bO)
	for i := 0; i < m.outputs; i++ {
		m.aO.SetVec(i, m.outputAct.fwd(m.zO.AtVec(i)))
	}
}

// Train performs one gradient descent step on the squared error
// between the network's prediction for x and target, and returns the
// mean squared error of the prediction made before the step.
//
// The output error used for backpropagation is (prediction - target),
// the gradient of half the summed squared error. The constant factor
// between this and the gradient of the mean is absorbed into the
// learning rate.
func (m *MLP) Train(x, target []float64) (float64, error) {
	if m.solver == nil {
		return 0, &NetworkError{Op: "train", Err: errNoSolver}
	}
	if len(x) != m.inputs {
		return 0, m.inputErr("train", m.inputs, len(x))
	}
	if len(target) != m.outputs {
		return 0, m.inputErr("train", m.outputs, len(target))
	}

	m.fwd(x)

	// Output layer error
	var loss float64
	for i := 0; i < m.outputs; i++ {
		diff := m.aO.AtVec(i) - target[i]
		loss += diff * diff
		if !m.outputAct.IsIdentity() {
			diff *= m.outputAct.grad(m.zO.AtVec(i))
		}
		m.gBO.SetVec(i, diff)
	}
	loss /= float64(m.outputs)

	// Hidden layer error, through the weights used for the prediction
	m.gBH.MulVec(m.wHO, m.gBO)
	for i := 0; i < m.hidden; i++ {
		m.gBH.SetVec(i, m.gBH.AtVec(i)*m.hiddenAct.grad(m.zH.AtVec(i)))
	}

	in := mat.NewVecDense(len(x), x)
	m.gWHO.Outer(1, m.aH, m.gBO)
	m.gWIH.Outer(1, in, m.gBH)

	m.solver.Step(m.wHO.RawMatrix().Data, m.gWHO.RawMatrix().Data)
	m.solver.Step(m.bO.RawVector().Data, m.gBO.RawVector().Data)
	m.solver.Step(m.wIH.RawMatrix().Data, m.gWIH.RawMatrix().Data)
	m.solver.Step(m.bH.RawVector().Data, m.gBH.RawVector().Data)

	return loss, nil
}

// TrainBatch trains on each (xs[i], targets[i]) pair in order, each
// update being visible to the next, and returns the average loss. An
// empty batch returns zero loss.
func (m *MLP) TrainBatch(xs, targets [][]float64) (float64, error) {
	if len(xs) != len(targets) {
		return 0, &NetworkError{
			Op: "trainBatch",
			Err: fmt.Errorf("%w: inputs and targets differ in length "+
				"\n\twant(%v) \n\thave(%v)", ErrInvalidInput, len(xs),
				len(targets)),
		}
	}
	if len(xs) == 0 {
		return 0, nil
	}

	var total float64
	for i := range xs {
		loss, err := m.Train(xs[i], targets[i])
		if err != nil {
			return 0, err
		}
		total += loss
	}
	return total / float64(len(xs)), nil
}

// CopyParameters deep copies all weights and biases of src into m.
// Both networks must have the same layer sizes.
func (m *MLP) CopyParameters(src *MLP) error {
	if src == nil {
		return &NetworkError{Op: "copyParameters",
			Err: fmt.Errorf("%w: nil source", ErrShapeMismatch)}
	}
	if m.inputs != src.inputs || m.hidden != src.hidden ||
		m.outputs != src.outputs {
		return &NetworkError{
			Op: "copyParameters",
			Err: fmt.Errorf("%w \n\twant(%v, %v, %v) \n\thave(%v, %v, %v)",
				ErrShapeMismatch, m.inputs, m.hidden, m.outputs, src.inputs,
				src.hidden, src.outputs),
		}
	}

	m.wIH.Copy(src.wIH)
	m.bH.CopyVec(src.bH)
	m.wHO.Copy(src.wHO)
	m.bO.CopyVec(src.bO)
	return nil
}

// Clone returns a deep copy of the network that shares its solver
func (m *MLP) Clone() *MLP {
	clone := newMLP(m.inputs, m.hidden, m.outputs, m.solver)
	clone.hiddenAct, clone.outputAct = m.hiddenAct, m.outputAct
	clone.CopyParameters(m)
	return clone
}

// inputErr returns an invalid input error for operation op
func (m *MLP) inputErr(op string, want, have int) error {
	return &NetworkError{
		Op: op,
		Err: fmt.Errorf("%w: wrong vector length \n\twant(%v) \n\thave(%v)",
			ErrInvalidInput, want, have),
	}
}

// mlpGob is the serialized form of an MLP
type mlpGob struct {
	Inputs, Hidden, Outputs int
	WIH, BH, WHO, BO        []byte
	HiddenAct, OutputAct    *Activation
}

// GobEncode implements the gob.GobEncoder interface. The solver is not
// encoded.
func (m *MLP) GobEncode() ([]byte, error) {
	enc := mlpGob{
		Inputs:    m.inputs,
		Hidden:    m.hidden,
		Outputs:   m.outputs,
		HiddenAct: m.hiddenAct,
		OutputAct: m.outputAct,
	}

	var err error
	if enc.WIH, err = m.wIH.MarshalBinary(); err != nil {
		return nil, fmt.Errorf("gobEncode: %v", err)
	}
	if enc.BH, err = m.bH.MarshalBinary(); err != nil {
		return nil, fmt.Errorf("gobEncode: %v", err)
	}
	if enc.WHO, err = m.wHO.MarshalBinary(); err != nil {
		return nil, fmt.Errorf("gobEncode: %v", err)
	}
	if enc.BO, err = m.bO.MarshalBinary(); err != nil {
		return nil, fmt.Errorf("gobEncode: %v", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(enc); err != nil {
		return nil, fmt.Errorf("gobEncode: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The solver of m,
// if any, is kept.
func (m *MLP) GobDecode(data []byte) error {
	var dec mlpGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&dec); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}

	decoded := newMLP(dec.Inputs, dec.Hidden, dec.Outputs, m.solver)
	decoded.wIH.Reset()
	decoded.bH.Reset()
	decoded.wHO.Reset()
	decoded.bO.Reset()
	if err := decoded.wIH.UnmarshalBinary(dec.WIH); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}
	if err := decoded.bH.UnmarshalBinary(dec.BH); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}
	if err := decoded.wHO.UnmarshalBinary(dec.WHO); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}
	if err := decoded.bO.UnmarshalBinary(dec.BO); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}
	if dec.HiddenAct != nil {
		decoded.hiddenAct = dec.HiddenAct
	}
	if dec.OutputAct != nil {
		decoded.outputAct = dec.OutputAct
	}

	*m = *decoded
	return nil
}
