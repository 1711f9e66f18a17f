// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proposal

import (
	"github.com/polywalk/polywalk/polytope"
	"github.com/polywalk/polywalk/rng"
)

// CoordinateHitAndRun cycles through coordinate axes by a round-robin
// counter, sampling a 1-D chord move along each in turn.
type CoordinateHitAndRun struct {
	P    *polytope.Polytope
	Dist ChordDistribution

	x         []float64
	s         []float64
	candidate []float64
	axis      int
	lastT     float64
	lastAxis  int
}

// NewCoordinateHitAndRun builds a coordinate hit-and-run kernel rooted
// at start, which must satisfy A x <= b. dist is typically
// UniformChord{} (uniform step) or GaussianChord{Sigma: sigma}.
func NewCoordinateHitAndRun(p *polytope.Polytope, start []float64, dist ChordDistribution) (*CoordinateHitAndRun, error) {
	if err := p.CheckStart(start); err != nil {
		return nil, err
	}
	x := append([]float64(nil), start...)
	k := &CoordinateHitAndRun{
		P:         p,
		Dist:      dist,
		x:         x,
		s:         p.Slacks(x),
		candidate: append([]float64(nil), x...),
	}
	return k, nil
}

func (k *CoordinateHitAndRun) Propose(r rng.UniformRng) ([]float64, float64) {
	axis := k.axis
	k.axis = (k.axis + 1) % len(k.x)
	return k.proposeAlong(r, axis)
}

// ProposeMasked advances the round-robin counter to the next active
// axis and proposes along it. With no active axis the candidate is
// the current state (a zero move).
func (k *CoordinateHitAndRun) ProposeMasked(r rng.UniformRng, active []bool) ([]float64, float64) {
	n := len(k.x)
	axis := -1
	for tries := 0; tries < n; tries++ {
		a := k.axis
		k.axis = (k.axis + 1) % n
		if active[a] {
			axis = a
			break
		}
	}
	if axis < 0 {
		copy(k.candidate, k.x)
		k.lastT = 0
		k.lastAxis = 0
		return k.candidate, 0
	}
	return k.proposeAlong(r, axis)
}

func (k *CoordinateHitAndRun) proposeAlong(r rng.UniformRng, axis int) ([]float64, float64) {
	backward, forward := k.P.ChordCoordinate(k.s, axis)
	t := k.Dist.Sample(r, backward, forward)

	copy(k.candidate, k.x)
	k.candidate[axis] += t

	logCorrection := 0.0
	if gc, ok := k.Dist.(GaussianChord); ok {
		// The reverse chord at the candidate is recomputed against the
		// *candidate* slacks so the asymmetric-chord correction reflects
		// the true admissible range at x'.
		sPrime := make([]float64, len(k.s))
		copy(sPrime, k.s)
		for i := range sPrime {
			sPrime[i] -= k.P.A.At(i, axis) * t
		}
		bPrime, fPrime := k.P.ChordCoordinate(sPrime, axis)
		logCorrection = gc.LogCorrection(backward, forward, bPrime, fPrime)
	}

	k.lastT = t
	k.lastAxis = axis
	return k.candidate, logCorrection
}

func (k *CoordinateHitAndRun) Accept() []float64 {
	for i := range k.s {
		k.s[i] -= k.P.A.At(i, k.lastAxis) * k.lastT
	}
	k.x[k.lastAxis] += k.lastT
	return k.x
}

func (k *CoordinateHitAndRun) SetState(x []float64) error {
	if err := k.P.CheckStart(x); err != nil {
		return err
	}
	copy(k.x, x)
	k.P.SlacksInto(k.x, k.s)
	return nil
}

func (k *CoordinateHitAndRun) GetState() []float64    { return k.x }
func (k *CoordinateHitAndRun) GetProposal() []float64 { return k.candidate }
