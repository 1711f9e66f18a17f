// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proposal

import (
	"math"

	"github.com/polywalk/polywalk"
	"github.com/polywalk/polywalk/polytope"
	"github.com/polywalk/polywalk/rng"
)

// Dikin proposes x + (sigma/sqrt(n)) L(x)^-T xi, where L(x) L(x)^T =
// H(x) is the Cholesky factor of the Dikin local metric. Its
// acceptance correction is the log-ratio of local Gaussian densities
// at the current and candidate states.
type Dikin struct {
	P     *polytope.Polytope
	Sigma float64

	x         []float64
	s         []float64
	candidate []float64
}

// NewDikin builds a Dikin-walk kernel rooted at start.
func NewDikin(p *polytope.Polytope, start []float64, sigma float64) (*Dikin, error) {
	if sigma <= 0 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "Dikin walk sigma must be positive")
	}
	if err := p.CheckStart(start); err != nil {
		return nil, err
	}
	x := append([]float64(nil), start...)
	return &Dikin{P: p, Sigma: sigma, x: x, s: p.Slacks(x), candidate: append([]float64(nil), x...)}, nil
}

func (k *Dikin) Propose(r rng.UniformRng) ([]float64, float64) {
	n := len(k.x)
	h := polytope.DikinMetric(k.P, k.s)
	l, logDetH, ok := polytope.Cholesky(h)
	if !ok {
		return k.candidate, math.Inf(-1)
	}
	xi := make([]float64, n)
	for i := range xi {
		xi[i] = r.NormFloat64()
	}
	step := polytope.SolveLowerTransposed(l, xi)
	scale := k.Sigma / math.Sqrt(float64(n))
	for i := range k.candidate {
		k.candidate[i] = k.x[i] + scale*step[i]
	}
	if !k.P.Feasible(k.candidate) {
		return k.candidate, math.Inf(-1)
	}

	sPrime := k.P.Slacks(k.candidate)
	hPrime := polytope.DikinMetric(k.P, sPrime)
	_, logDetHPrime, ok2 := polytope.Cholesky(hPrime)
	if !ok2 {
		return k.candidate, math.Inf(-1)
	}

	diff := make([]float64, n)
	for i := range diff {
		diff[i] = k.x[i] - k.candidate[i]
	}
	quadH := polytope.QuadForm(h, diff)
	quadHPrime := polytope.QuadForm(hPrime, diff)
	nOverSigma2 := float64(n) / (2 * k.Sigma * k.Sigma)

	logCorrection := 0.5*logDetHPrime - 0.5*logDetH + nOverSigma2*(quadH-quadHPrime)
	return k.candidate, logCorrection
}

func (k *Dikin) Accept() []float64 {
	copy(k.x, k.candidate)
	k.P.SlacksInto(k.x, k.s)
	return k.x
}

func (k *Dikin) SetState(x []float64) error {
	if err := k.P.CheckStart(x); err != nil {
		return err
	}
	copy(k.x, x)
	k.P.SlacksInto(k.x, k.s)
	return nil
}

func (k *Dikin) GetState() []float64    { return k.x }
func (k *Dikin) GetProposal() []float64 { return k.candidate }

func (k *Dikin) StepSize() float64 { return k.Sigma }
func (k *Dikin) SetStepSize(sigma float64) error {
	if sigma <= 0 {
		return polywalk.NewError(polywalk.InvalidParameter, "Dikin walk sigma must be positive")
	}
	k.Sigma = sigma
	return nil
}
