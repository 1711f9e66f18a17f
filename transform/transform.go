// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transform composes an affine unrounding map with a proposal
// so that samples are reported in the original space while the kernel
// walks a rounded polytope. The typical map is y = L x + c with L the
// lower-triangular Cholesky factor of a maximum-volume inscribed
// ellipsoid.
package transform

import (
	"gonum.org/v1/gonum/mat"

	"github.com/polywalk/polywalk"
	"github.com/polywalk/polywalk/proposal"
	"github.com/polywalk/polywalk/rng"
)

// Affine is the map y = T x + c. When T is a *mat.TriDense lower
// triangle (the rounding use-case), the inverse is computed by
// substitution; general matrices go through an LU solve.
type Affine struct {
	T     mat.Matrix
	Shift []float64
}

// NewAffine builds an affine map. T must be square and match the
// shift length.
func NewAffine(t mat.Matrix, shift []float64) (*Affine, error) {
	r, c := t.Dims()
	if r != c {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "transformation matrix must be square")
	}
	if r != len(shift) {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "transformation matrix and shift dimension mismatch")
	}
	return &Affine{T: t, Shift: append([]float64(nil), shift...)}, nil
}

// Apply computes y = T x + c.
func (a *Affine) Apply(x []float64) []float64 {
	n := len(a.Shift)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := a.Shift[i]
		for j := 0; j < n; j++ {
			sum += a.T.At(i, j) * x[j]
		}
		y[i] = sum
	}
	return y
}

// ApplyInverse computes x = T^-1 (y - c). For a lower-triangular T
// this is forward substitution; otherwise an LU solve. It returns
// NumericFailure when T is singular.
func (a *Affine) ApplyInverse(y []float64) ([]float64, error) {
	n := len(a.Shift)
	rhs := make([]float64, n)
	for i := range rhs {
		rhs[i] = y[i] - a.Shift[i]
	}
	if tri, ok := a.T.(*mat.TriDense); ok {
		if _, kind := tri.Triangle(); kind == mat.Lower {
			return forwardSolve(tri, rhs)
		}
	}
	var sol mat.VecDense
	if err := sol.SolveVec(a.T, mat.NewVecDense(n, rhs)); err != nil {
		return nil, polywalk.NewError(polywalk.NumericFailure, "transformation solve failed: "+err.Error())
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = sol.AtVec(i)
	}
	return out, nil
}

// forwardSolve solves L x = b for lower-triangular L by forward
// substitution.
func forwardSolve(l *mat.TriDense, b []float64) ([]float64, error) {
	n := len(b)
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= l.At(i, j) * x[j]
		}
		d := l.At(i, i)
		if d == 0 {
			return nil, polywalk.NewError(polywalk.NumericFailure, "singular triangular transformation")
		}
		x[i] = sum / d
	}
	return x, nil
}

// StateTransformed decorates an inner proposal with an affine
// unrounding map: external observers see y = T x + c while the inner
// kernel walks x over its rounded polytope.
type StateTransformed struct {
	Inner proposal.Proposal
	Map   *Affine
}

// NewStateTransformed wraps inner with the unrounding map m.
func NewStateTransformed(inner proposal.Proposal, m *Affine) *StateTransformed {
	return &StateTransformed{Inner: inner, Map: m}
}

func (t *StateTransformed) Propose(r rng.UniformRng) ([]float64, float64) {
	candidate, logCorrection := t.Inner.Propose(r)
	return t.Map.Apply(candidate), logCorrection
}

func (t *StateTransformed) Accept() []float64 {
	return t.Map.Apply(t.Inner.Accept())
}

// SetState rehomes the inner kernel at the pre-image of y. The
// feasibility check runs in the inner (rounded) space.
func (t *StateTransformed) SetState(y []float64) error {
	x, err := t.Map.ApplyInverse(y)
	if err != nil {
		return err
	}
	return t.Inner.SetState(x)
}

func (t *StateTransformed) GetState() []float64    { return t.Map.Apply(t.Inner.GetState()) }
func (t *StateTransformed) GetProposal() []float64 { return t.Map.Apply(t.Inner.GetProposal()) }

// IsModelAware forwards the inner kernel's model-awareness. A target
// composed with a transformed kernel must already be expressed in the
// inner coordinates.
func (t *StateTransformed) IsModelAware() bool {
	aware, ok := t.Inner.(proposal.ModelAware)
	return ok && aware.IsModelAware()
}

// ClearHistory forwards to the inner kernel when it keeps history.
func (t *StateTransformed) ClearHistory() {
	if hc, ok := t.Inner.(proposal.HistoryClearer); ok {
		hc.ClearHistory()
	}
}

// StepSize forwards to the inner kernel when it is a StepSizer.
func (t *StateTransformed) StepSize() float64 {
	if s, ok := t.Inner.(proposal.StepSizer); ok {
		return s.StepSize()
	}
	return 0
}

// SetStepSize forwards to the inner kernel when it is a StepSizer.
func (t *StateTransformed) SetStepSize(sigma float64) error {
	if s, ok := t.Inner.(proposal.StepSizer); ok {
		return s.SetStepSize(sigma)
	}
	return polywalk.NewError(polywalk.InvalidParameter, "inner proposal has no step size")
}
