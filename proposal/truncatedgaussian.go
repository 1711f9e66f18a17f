// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proposal

import (
	"gonum.org/v1/gonum/mat"

	"github.com/polywalk/polywalk/polytope"
	"github.com/polywalk/polywalk/rng"
	"github.com/polywalk/polywalk/target/gauss"
)

// TruncatedGaussian proposes one whitened coordinate at a time for a
// Gaussian target N(mu, Sigma) restricted to a polytope. Writing
// x = mu + L z with L L^T = Sigma, the post-whitening
// target density is iid standard normal, so sampling z_i from a
// standard normal truncated to the chord of the whitened polytope
// along e_i (holding the other coordinates fixed) draws exactly from
// that coordinate's full conditional: this is a Gibbs step, which
// always accepts, so the kernel is model-aware with a log-correction
// identically zero.
type TruncatedGaussian struct {
	Target *gauss.Target

	whitened *polytope.Polytope // A' = A L, b' = b - A mu

	z         []float64 // current whitened state
	zProp     []float64
	x         []float64 // un-whitened state, x = mu + L z
	xProp     []float64
	axis      int
	norm      GaussianChord // Sigma=1, used as the standard-normal chord distribution
	lastAxis  int
	lastDelta float64
}

// NewTruncatedGaussian builds a truncated-Gaussian kernel. p is the
// polytope, start a feasible point in the original (un-whitened)
// coordinates and target the Gaussian whose restriction is sampled.
func NewTruncatedGaussian(p *polytope.Polytope, start []float64, target *gauss.Target) (*TruncatedGaussian, error) {
	if err := p.CheckStart(start); err != nil {
		return nil, err
	}
	n := p.N
	var l mat.TriDense
	target.CholeskyL(&l)

	aPrime := mat.NewDense(p.A.Rows(), n, nil)
	for i := 0; i < p.A.Rows(); i++ {
		for j := 0; j < n; j++ {
			var sum float64
			for kk := 0; kk < n; kk++ {
				sum += p.A.At(i, kk) * l.At(kk, j)
			}
			aPrime.Set(i, j, sum)
		}
	}
	mu := target.Mean()
	bPrime := make([]float64, len(p.B))
	for i := range bPrime {
		bPrime[i] = p.B[i] - p.A.Dot(i, mu)
	}
	whitened, err := polytope.New(polytope.DenseA{M: aPrime}, bPrime, p.Cushion)
	if err != nil {
		return nil, err
	}

	// Solve for z such that mu + L z = start, i.e. L z = start - mu.
	rhs := make([]float64, n)
	for i := range rhs {
		rhs[i] = start[i] - mu[i]
	}
	z := forwardSolveLower(&l, rhs)

	x := append([]float64(nil), start...)
	return &TruncatedGaussian{
		Target:   target,
		whitened: whitened,
		z:        z,
		zProp:    append([]float64(nil), z...),
		x:        x,
		xProp:    append([]float64(nil), x...),
		norm:     GaussianChord{Sigma: 1},
	}, nil
}

func forwardSolveLower(l *mat.TriDense, b []float64) []float64 {
	n := len(b)
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= l.At(i, j) * x[j]
		}
		x[i] = sum / l.At(i, i)
	}
	return x
}

func (k *TruncatedGaussian) IsModelAware() bool { return true }

func (k *TruncatedGaussian) Propose(r rng.UniformRng) ([]float64, float64) {
	axis := k.axis
	k.axis = (k.axis + 1) % len(k.z)

	s := k.whitened.Slacks(k.z)
	backward, forward := k.whitened.ChordCoordinate(s, axis)
	// The full conditional of z_axis is a standard normal truncated to
	// [z_axis+backward, z_axis+forward]; t is the offset of that draw.
	zi := k.z[axis]
	t := k.norm.Sample(r, zi+backward, zi+forward) - zi

	copy(k.zProp, k.z)
	k.zProp[axis] += t
	k.lastAxis = axis
	k.lastDelta = t

	// x' = mu + L z' = x + t*L[:,axis] since only coordinate axis of z
	// changed.
	var l mat.TriDense
	k.Target.CholeskyL(&l)
	for i := range k.xProp {
		k.xProp[i] = k.x[i] + t*l.At(i, axis)
	}
	// A Gibbs full-conditional step always accepts.
	return k.xProp, 0
}

func (k *TruncatedGaussian) Accept() []float64 {
	copy(k.z, k.zProp)
	copy(k.x, k.xProp)
	return k.x
}

func (k *TruncatedGaussian) SetState(x []float64) error {
	mu := k.Target.Mean()
	var l mat.TriDense
	k.Target.CholeskyL(&l)
	rhs := make([]float64, len(x))
	for i := range rhs {
		rhs[i] = x[i] - mu[i]
	}
	z := forwardSolveLower(&l, rhs)
	if err := k.whitened.CheckStart(z); err != nil {
		return err
	}
	copy(k.z, z)
	copy(k.x, x)
	return nil
}

func (k *TruncatedGaussian) GetState() []float64    { return k.x }
func (k *TruncatedGaussian) GetProposal() []float64 { return k.xProp }
