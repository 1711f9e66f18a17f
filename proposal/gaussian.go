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

// Gaussian proposes x + sigma*xi, xi ~ N(0, I). It is
// symmetric: log-correction is 0 if the candidate is interior, -Inf
// otherwise.
type Gaussian struct {
	P     *polytope.Polytope
	Sigma float64

	x         []float64
	candidate []float64
}

// NewGaussian builds a Gaussian-proposal kernel rooted at start.
func NewGaussian(p *polytope.Polytope, start []float64, sigma float64) (*Gaussian, error) {
	if sigma <= 0 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "Gaussian proposal sigma must be positive")
	}
	if err := p.CheckStart(start); err != nil {
		return nil, err
	}
	x := append([]float64(nil), start...)
	return &Gaussian{P: p, Sigma: sigma, x: x, candidate: append([]float64(nil), x...)}, nil
}

func (k *Gaussian) Propose(r rng.UniformRng) ([]float64, float64) {
	for i := range k.candidate {
		k.candidate[i] = k.x[i] + k.Sigma*r.NormFloat64()
	}
	if !k.P.Feasible(k.candidate) {
		return k.candidate, math.Inf(-1)
	}
	return k.candidate, 0
}

// ProposeMasked perturbs only the active coordinates, leaving pinned
// ones at their current values.
func (k *Gaussian) ProposeMasked(r rng.UniformRng, active []bool) ([]float64, float64) {
	for i := range k.candidate {
		k.candidate[i] = k.x[i]
		if active[i] {
			k.candidate[i] += k.Sigma * r.NormFloat64()
		}
	}
	if !k.P.Feasible(k.candidate) {
		return k.candidate, math.Inf(-1)
	}
	return k.candidate, 0
}

func (k *Gaussian) Accept() []float64 {
	copy(k.x, k.candidate)
	return k.x
}

func (k *Gaussian) SetState(x []float64) error {
	if err := k.P.CheckStart(x); err != nil {
		return err
	}
	copy(k.x, x)
	return nil
}

func (k *Gaussian) GetState() []float64    { return k.x }
func (k *Gaussian) GetProposal() []float64 { return k.candidate }

func (k *Gaussian) StepSize() float64 { return k.Sigma }
func (k *Gaussian) SetStepSize(sigma float64) error {
	if sigma <= 0 {
		return polywalk.NewError(polywalk.InvalidParameter, "Gaussian proposal sigma must be positive")
	}
	k.Sigma = sigma
	return nil
}
