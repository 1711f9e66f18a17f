// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proposal

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/polywalk/polywalk/rng"
)

// ChordDistribution is the 1-D distribution a chord-based kernel
// (coordinate hit-and-run, hit-and-run) samples its travel distance t
// from, restricted to [backward, forward].
type ChordDistribution interface {
	// Sample draws t in [backward, forward].
	Sample(r rng.UniformRng, backward, forward float64) float64
	// LogCorrection returns the MH log-correction for moving the chord
	// endpoints from (backward, forward) to (backwardPrime, forwardPrime)
	// after the step; zero for a symmetric (uniform) chord distribution.
	LogCorrection(backward, forward, backwardPrime, forwardPrime float64) float64
}

// UniformChord samples t uniformly on the chord; it is symmetric, so
// its log-correction is always zero.
type UniformChord struct{}

func (UniformChord) Sample(r rng.UniformRng, backward, forward float64) float64 {
	return backward + r.Float64()*(forward-backward)
}

func (UniformChord) LogCorrection(backward, forward, backwardPrime, forwardPrime float64) float64 {
	return 0
}

// GaussianChord samples t from a Gaussian truncated to the chord,
// centered at 0 with standard deviation Sigma. Its log-correction is
// the log-ratio of truncated-normal normalizers over the two chord
// lengths, asymmetric because the move changes the admissible range.
type GaussianChord struct {
	Sigma float64
}

func (g GaussianChord) norm() distuv.Normal {
	return distuv.Normal{Mu: 0, Sigma: g.Sigma}
}

func (g GaussianChord) Sample(r rng.UniformRng, backward, forward float64) float64 {
	n := g.norm()
	lo := n.CDF(backward)
	hi := n.CDF(forward)
	u := lo + r.Float64()*(hi-lo)
	// Clamp away from exact 0/1 so Quantile stays finite.
	const eps = 1e-300
	if u < eps {
		u = eps
	}
	if upper := math.Nextafter(1, 0); u > upper {
		u = upper
	}
	return n.Quantile(u)
}

func (g GaussianChord) logZ(backward, forward float64) float64 {
	n := g.norm()
	z := n.CDF(forward) - n.CDF(backward)
	if z <= 0 {
		return math.Inf(-1)
	}
	return math.Log(z)
}

func (g GaussianChord) LogCorrection(backward, forward, backwardPrime, forwardPrime float64) float64 {
	// log q(x|x') - log q(x'|x): the truncated-normal density itself is
	// symmetric in its (forward) argument once centered at 0, so only
	// the normalizers differ between the chord at x (used going
	// forward) and the chord at x' (used for the reverse move).
	return g.logZ(backward, forward) - g.logZ(backwardPrime, forwardPrime)
}
