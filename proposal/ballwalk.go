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

// BallWalk draws its step uniformly from a ball of radius StepSize
// centered at the origin: a normalized Gaussian vector
// rescaled by r*u^(1/n). It is symmetric, so its log-correction is 0
// when the candidate is interior and -Inf otherwise.
type BallWalk struct {
	P    *polytope.Polytope
	Step float64

	x         []float64
	candidate []float64
	v         []float64
}

// NewBallWalk builds a ball-walk kernel rooted at start with the given
// radius (step size), which must be positive.
func NewBallWalk(p *polytope.Polytope, start []float64, step float64) (*BallWalk, error) {
	if step <= 0 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "ball walk step size must be positive")
	}
	if err := p.CheckStart(start); err != nil {
		return nil, err
	}
	x := append([]float64(nil), start...)
	return &BallWalk{
		P:         p,
		Step:      step,
		x:         x,
		candidate: append([]float64(nil), x...),
		v:         make([]float64, len(x)),
	}, nil
}

func (k *BallWalk) Propose(r rng.UniformRng) ([]float64, float64) {
	sampleUnitDirection(r, k.v)
	u := r.Float64()
	radius := k.Step * math.Pow(u, 1/float64(len(k.v)))
	for i := range k.candidate {
		k.candidate[i] = k.x[i] + radius*k.v[i]
	}
	if !k.P.Feasible(k.candidate) {
		return k.candidate, math.Inf(-1)
	}
	return k.candidate, 0
}

func (k *BallWalk) Accept() []float64 {
	copy(k.x, k.candidate)
	return k.x
}

func (k *BallWalk) SetState(x []float64) error {
	if err := k.P.CheckStart(x); err != nil {
		return err
	}
	copy(k.x, x)
	return nil
}

func (k *BallWalk) GetState() []float64    { return k.x }
func (k *BallWalk) GetProposal() []float64 { return k.candidate }

func (k *BallWalk) StepSize() float64 { return k.Step }
func (k *BallWalk) SetStepSize(sigma float64) error {
	if sigma <= 0 {
		return polywalk.NewError(polywalk.InvalidParameter, "ball walk step size must be positive")
	}
	k.Step = sigma
	return nil
}
