// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proposal

import (
	"math"

	"github.com/polywalk/polywalk/rng"
	"github.com/polywalk/polywalk/target"
)

// ModelMixed wraps a symmetric, polytope-only Proposal (CHRR,
// HitAndRun, BallWalk, Gaussian, Billiard) and folds a Target's
// negative-log-likelihood difference into its log-correction, turning
// a uniform-on-the-polytope kernel into one that targets pi restricted
// to the polytope. This is the generic decorator; the
// individually model-aware kernels (Dikin-adjacent TruncatedGaussian,
// CSmMALA, billiard-MALA) compute their own correction directly instead
// of being wrapped here.
type ModelMixed struct {
	Inner  Proposal
	Target target.Target

	innerCorrection float64
}

// NewModelMixed builds a model-mixed proposal over inner and t. inner
// must itself report a zero log-correction (i.e. be symmetric); ModelMixed
// does not attempt to compose with an inner kernel that is already
// model-aware.
func NewModelMixed(inner Proposal, t target.Target) *ModelMixed {
	return &ModelMixed{Inner: inner, Target: t}
}

func (k *ModelMixed) IsModelAware() bool { return true }

func (k *ModelMixed) Propose(r rng.UniformRng) ([]float64, float64) {
	candidate, innerCorrection := k.Inner.Propose(r)
	k.innerCorrection = innerCorrection
	if math.IsInf(innerCorrection, -1) {
		return candidate, innerCorrection
	}
	x := k.Inner.GetState()
	delta := k.Target.NegLogProb(x) - k.Target.NegLogProb(candidate)
	return candidate, innerCorrection + delta
}

func (k *ModelMixed) Accept() []float64          { return k.Inner.Accept() }
func (k *ModelMixed) SetState(x []float64) error { return k.Inner.SetState(x) }
func (k *ModelMixed) GetState() []float64        { return k.Inner.GetState() }
func (k *ModelMixed) GetProposal() []float64     { return k.Inner.GetProposal() }

// ClearHistory forwards to the inner kernel when it keeps history.
func (k *ModelMixed) ClearHistory() {
	if hc, ok := k.Inner.(HistoryClearer); ok {
		hc.ClearHistory()
	}
}

// StepSize forwards to the inner kernel when it is a StepSizer.
func (k *ModelMixed) StepSize() (float64, bool) {
	if s, ok := k.Inner.(StepSizer); ok {
		return s.StepSize(), true
	}
	return 0, false
}

// SetStepSize forwards to the inner kernel when it is a StepSizer.
func (k *ModelMixed) SetStepSize(sigma float64) error {
	if s, ok := k.Inner.(StepSizer); ok {
		return s.SetStepSize(sigma)
	}
	return nil
}
