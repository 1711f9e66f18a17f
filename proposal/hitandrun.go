// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proposal

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/polywalk/polywalk/polytope"
	"github.com/polywalk/polywalk/rng"
)

// HitAndRun samples a uniform direction on the unit sphere each step
// and proposes a 1-D chord move along it. In Precise
// mode, slacks are recomputed exactly from x on acceptance rather than
// updated incrementally, guarding against accumulated floating-point
// drift at the cost of an O(mn) recompute per accepted step.
type HitAndRun struct {
	P       *polytope.Polytope
	Dist    ChordDistribution
	Precise bool

	x         []float64
	s         []float64
	candidate []float64
	direction []float64
	lastT     float64
}

// NewHitAndRun builds a hit-and-run kernel rooted at start.
func NewHitAndRun(p *polytope.Polytope, start []float64, dist ChordDistribution, precise bool) (*HitAndRun, error) {
	if err := p.CheckStart(start); err != nil {
		return nil, err
	}
	x := append([]float64(nil), start...)
	return &HitAndRun{
		P:         p,
		Dist:      dist,
		Precise:   precise,
		x:         x,
		s:         p.Slacks(x),
		candidate: append([]float64(nil), x...),
		direction: make([]float64, len(x)),
	}, nil
}

func sampleUnitDirection(r rng.UniformRng, dst []float64) {
	for i := range dst {
		dst[i] = r.NormFloat64()
	}
	floats.Scale(1/floats.Norm(dst, 2), dst)
}

func (k *HitAndRun) Propose(r rng.UniformRng) ([]float64, float64) {
	sampleUnitDirection(r, k.direction)
	return k.proposeAlongDirection(r)
}

// ProposeMasked samples a unit direction restricted to the active
// coordinates: the inactive components of the Gaussian direction are
// zeroed before normalization, so the move never displaces a pinned
// coordinate. With no active coordinate the candidate is the current
// state.
func (k *HitAndRun) ProposeMasked(r rng.UniformRng, active []bool) ([]float64, float64) {
	for i := range k.direction {
		k.direction[i] = 0
		if active[i] {
			k.direction[i] = r.NormFloat64()
		}
	}
	norm := floats.Norm(k.direction, 2)
	if norm == 0 {
		copy(k.candidate, k.x)
		k.lastT = 0
		return k.candidate, 0
	}
	floats.Scale(1/norm, k.direction)
	return k.proposeAlongDirection(r)
}

func (k *HitAndRun) proposeAlongDirection(r rng.UniformRng) ([]float64, float64) {
	backward, forward := k.P.Chord(k.s, k.direction)
	t := k.Dist.Sample(r, backward, forward)

	copy(k.candidate, k.x)
	floats.AddScaled(k.candidate, t, k.direction)

	logCorrection := 0.0
	if gc, ok := k.Dist.(GaussianChord); ok {
		sPrime := k.P.Slacks(k.candidate)
		bPrime, fPrime := k.P.Chord(sPrime, k.direction)
		logCorrection = gc.LogCorrection(backward, forward, bPrime, fPrime)
	}
	if k.Precise && !k.P.Feasible(k.candidate) {
		// Recomputed (not incrementally updated) slacks show the
		// candidate is outside the polytope: accumulated floating-point
		// drift, not a real admissible move. Force rejection.
		logCorrection = math.Inf(-1)
	}

	k.lastT = t
	return k.candidate, logCorrection
}

func (k *HitAndRun) Accept() []float64 {
	if k.Precise {
		copy(k.x, k.candidate)
		k.P.SlacksInto(k.x, k.s)
		return k.x
	}
	floats.AddScaled(k.x, k.lastT, k.direction)
	for i := range k.s {
		k.s[i] -= k.lastT * k.P.A.Dot(i, k.direction)
	}
	return k.x
}

func (k *HitAndRun) SetState(x []float64) error {
	if err := k.P.CheckStart(x); err != nil {
		return err
	}
	copy(k.x, x)
	k.P.SlacksInto(k.x, k.s)
	return nil
}

func (k *HitAndRun) GetState() []float64    { return k.x }
func (k *HitAndRun) GetProposal() []float64 { return k.candidate }
