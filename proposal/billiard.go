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

// Billiard proposes a tentative endpoint at an exponentially
// distributed distance along a uniform direction, then bounces it back
// inside the polytope via the Reflector. Acceptance is
// 0 on a successful reflection, -Inf if the reflection cap is hit or
// the reflected point is not interior.
type Billiard struct {
	P              *polytope.Polytope
	Tau            float64
	MaxReflections int

	x         []float64
	candidate []float64
	direction []float64

	lastReflections int
}

// NewBilliard builds a billiard-walk kernel rooted at start, with step
// size tau (> 0) and reflection cap maxReflections (>= 1).
func NewBilliard(p *polytope.Polytope, start []float64, tau float64, maxReflections int) (*Billiard, error) {
	if tau <= 0 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "billiard walk tau must be positive")
	}
	if maxReflections < 1 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "billiard walk max reflections must be >= 1")
	}
	if err := p.CheckStart(start); err != nil {
		return nil, err
	}
	x := append([]float64(nil), start...)
	return &Billiard{
		P: p, Tau: tau, MaxReflections: maxReflections,
		x: x, candidate: append([]float64(nil), x...), direction: make([]float64, len(x)),
	}, nil
}

func (k *Billiard) Propose(r rng.UniformRng) ([]float64, float64) {
	sampleUnitDirection(r, k.direction)
	u := r.Float64()
	length := -k.Tau * math.Log(u)

	end := make([]float64, len(k.x))
	for i := range end {
		end[i] = k.x[i] + length*k.direction[i]
	}
	res := polytope.Reflect(k.P, k.x, end, k.MaxReflections)
	k.lastReflections = res.Count
	copy(k.candidate, res.Point)
	if !res.Success || !k.P.Feasible(k.candidate) {
		return k.candidate, math.Inf(-1)
	}
	return k.candidate, 0
}

func (k *Billiard) Accept() []float64 {
	copy(k.x, k.candidate)
	return k.x
}

func (k *Billiard) SetState(x []float64) error {
	if err := k.P.CheckStart(x); err != nil {
		return err
	}
	copy(k.x, x)
	return nil
}

func (k *Billiard) GetState() []float64    { return k.x }
func (k *Billiard) GetProposal() []float64 { return k.candidate }

func (k *Billiard) StepSize() float64 { return k.Tau }
func (k *Billiard) SetStepSize(sigma float64) error {
	if sigma <= 0 {
		return polywalk.NewError(polywalk.InvalidParameter, "billiard walk tau must be positive")
	}
	k.Tau = sigma
	return nil
}

// ProposalInfo reports the facet-bounce count of the most recent
// proposal, surfaced in chain records.
func (k *Billiard) ProposalInfo() map[string]float64 {
	return map[string]float64{"reflections": float64(k.lastReflections)}
}

func (k *Billiard) Parameter(name polywalk.Parameter) (float64, bool) {
	switch name {
	case polywalk.StepSize:
		return k.Tau, true
	case polywalk.MaxReflections:
		return float64(k.MaxReflections), true
	default:
		return 0, false
	}
}

func (k *Billiard) SetParameter(name polywalk.Parameter, value float64) error {
	switch name {
	case polywalk.StepSize:
		return k.SetStepSize(value)
	case polywalk.MaxReflections:
		if value < 1 {
			return polywalk.NewError(polywalk.InvalidParameter, "max reflections must be >= 1")
		}
		k.MaxReflections = int(value)
		return nil
	default:
		return polywalk.NewError(polywalk.InvalidParameter, "unsupported parameter for billiard walk")
	}
}
