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

// BilliardAdaptiveMetropolis routes an adaptive-Metropolis candidate
// through the billiard Reflector before it reaches the acceptance
// test, letting the adapted covariance take long strides that bounce
// off the polytope walls instead of being rejected outright. The
// correction is the adaptive-Metropolis one evaluated at the reflected
// endpoint: 0 during warm-up, the two-Gaussian log-ratio after it, and
// -Inf when the reflection cap is hit, the endpoint is exterior or the
// updated covariance does not factor.
type BilliardAdaptiveMetropolis struct {
	inner          *AdaptiveMetropolis
	MaxReflections int

	lastReflections int
}

// NewBilliardAdaptiveMetropolis builds a billiard-reflected
// adaptive-Metropolis kernel.
func NewBilliardAdaptiveMetropolis(p *polytope.Polytope, start []float64, mve *polytope.MVE, sigma, epsilon float64, warmUp, maxReflections int) (*BilliardAdaptiveMetropolis, error) {
	if maxReflections < 1 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "max reflections must be >= 1")
	}
	inner, err := NewAdaptiveMetropolis(p, start, mve, sigma, epsilon, warmUp)
	if err != nil {
		return nil, err
	}
	return &BilliardAdaptiveMetropolis{inner: inner, MaxReflections: maxReflections}, nil
}

func (k *BilliardAdaptiveMetropolis) Propose(r rng.UniformRng) ([]float64, float64) {
	in := k.inner
	in.proposeRaw(r)
	res := polytope.Reflect(in.P, in.x, in.candidate, k.MaxReflections)
	k.lastReflections = res.Count
	copy(in.candidate, res.Point)
	if !res.Success {
		return in.candidate, math.Inf(-1)
	}
	// The acceptance correction is evaluated at the reflected
	// endpoint, which is the candidate the filter actually sees.
	return in.candidate, in.logAcceptance()
}

func (k *BilliardAdaptiveMetropolis) Accept() []float64          { return k.inner.Accept() }
func (k *BilliardAdaptiveMetropolis) SetState(x []float64) error { return k.inner.SetState(x) }
func (k *BilliardAdaptiveMetropolis) GetState() []float64        { return k.inner.GetState() }
func (k *BilliardAdaptiveMetropolis) GetProposal() []float64     { return k.inner.GetProposal() }

// ClearHistory resets the underlying adaptation state.
func (k *BilliardAdaptiveMetropolis) ClearHistory() { k.inner.ClearHistory() }

// ProposalInfo reports the facet-bounce count of the most recent
// proposal.
func (k *BilliardAdaptiveMetropolis) ProposalInfo() map[string]float64 {
	return map[string]float64{"reflections": float64(k.lastReflections)}
}
