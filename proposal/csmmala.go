// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proposal

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/polywalk/polywalk"
	"github.com/polywalk/polywalk/polytope"
	"github.com/polywalk/polywalk/rng"
	"github.com/polywalk/polywalk/target"
)

// CSmMALA is the constrained simplified manifold MALA kernel. Its
// local metric M(x) = w*c*I(x) + (1-w)*H(x) blends the target's
// expected Fisher information (when available) with the Dikin local
// metric; its sqrt-inverse is formed via mat.SVD because the square
// root (not just a triangular Cholesky factor) is needed symmetrically
// on both sides of the drift and acceptance terms.
type CSmMALA struct {
	P      *polytope.Polytope
	Target target.Target
	Tau    float64
	Weight float64 // w in [0,1]
	Scale  float64 // c

	x         []float64
	candidate []float64
}

// NewCSmMALA builds a CSmMALA kernel. Target must at least implement
// target.GradientTarget; target.FisherTarget is optional, and its
// absence means I(x) is treated as zero.
func NewCSmMALA(p *polytope.Polytope, start []float64, t target.GradientTarget, tau, weight, scale float64) (*CSmMALA, error) {
	if tau <= 0 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "CSmMALA tau must be positive")
	}
	if weight < 0 || weight > 1 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "CSmMALA weight must lie in [0,1]")
	}
	if err := p.CheckStart(start); err != nil {
		return nil, err
	}
	x := append([]float64(nil), start...)
	return &CSmMALA{
		P: p, Target: t, Tau: tau, Weight: weight, Scale: scale,
		x: x, candidate: append([]float64(nil), x...),
	}, nil
}

func (k *CSmMALA) IsModelAware() bool { return true }

// metric computes M(x), its sqrt-inverse (symmetric, via SVD) and
// log|det M(x)|.
func (k *CSmMALA) metric(x []float64) (m, sqrtInvM *mat.SymDense, logDet float64, ok bool) {
	n := len(x)
	s := k.P.Slacks(x)
	h := polytope.DikinMetric(k.P, s)

	var fisher *mat.SymDense
	if ft, isFisher := k.Target.(target.FisherTarget); isFisher {
		flat := ft.FisherInformation(x)
		fisher = mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				fisher.SetSym(i, j, flat[i*n+j])
			}
		}
	}

	m = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := (1 - k.Weight) * h.At(i, j)
			if fisher != nil {
				v += k.Weight * k.Scale * fisher.At(i, j)
			}
			m.SetSym(i, j, v)
		}
	}

	var svd mat.SVD
	dense := mat.DenseCopyOf(m)
	if !svd.Factorize(dense, mat.SVDFull) {
		return m, nil, 0, false
	}
	values := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)
	sqrtInvM = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var sum float64
			for kk := 0; kk < n; kk++ {
				sv := values[kk]
				if sv <= 0 {
					return m, nil, 0, false
				}
				sum += v.At(i, kk) * v.At(j, kk) / math.Sqrt(sv)
			}
			sqrtInvM.SetSym(i, j, sum)
		}
	}
	logDet = 0
	for _, sv := range values {
		logDet += math.Log(sv)
	}
	return m, sqrtInvM, logDet, true
}

// drift computes d(x) = x + 1/2 (tau/sqrt(n))^2 * sqrtInvM*sqrtInvM^T * grad log pi(x)
// = x + 1/2 (tau/sqrt(n))^2 * M^-1 * grad log pi(x), using sqrtInvM^2 = M^-1.
func (k *CSmMALA) drift(x []float64, sqrtInvM *mat.SymDense) []float64 {
	n := len(x)
	gt := k.Target.(target.GradientTarget)
	grad := gt.Gradient(x)
	var tmp, minv mat.VecDense
	tmp.MulVec(sqrtInvM, mat.NewVecDense(n, grad))
	minv.MulVec(sqrtInvM, &tmp)
	out := append([]float64(nil), x...)
	floats.AddScaled(out, 0.5*(k.Tau*k.Tau)/float64(n), minv.RawVector().Data)
	return out
}

// mulSym computes m*x into a fresh slice.
func mulSym(m *mat.SymDense, x []float64) []float64 {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(len(x), x))
	return out.RawVector().Data
}

func quadFormSym(m *mat.SymDense, x []float64) float64 {
	v := mat.NewVecDense(len(x), x)
	return mat.Inner(v, m, v)
}

func (k *CSmMALA) Propose(r rng.UniformRng) ([]float64, float64) {
	n := len(k.x)
	_, sqrtInvM, logDetM, ok := k.metric(k.x)
	if !ok {
		return k.candidate, math.Inf(-1)
	}
	dx := k.drift(k.x, sqrtInvM)

	xi := make([]float64, n)
	for i := range xi {
		xi[i] = r.NormFloat64()
	}
	noise := mulSym(sqrtInvM, xi)
	copy(k.candidate, dx)
	floats.AddScaled(k.candidate, k.Tau/math.Sqrt(float64(n)), noise)
	if !k.P.Feasible(k.candidate) {
		return k.candidate, math.Inf(-1)
	}

	mPrime, sqrtInvMPrime, logDetMPrime, ok2 := k.metric(k.candidate)
	if !ok2 {
		return k.candidate, math.Inf(-1)
	}
	m, _, _, _ := k.metric(k.x)
	dxPrime := k.drift(k.candidate, sqrtInvMPrime)

	diffFwd := make([]float64, n)
	floats.SubTo(diffFwd, dx, k.candidate)
	diffBack := make([]float64, n)
	floats.SubTo(diffBack, k.x, dxPrime)
	quadFwd := quadFormSym(m, diffFwd)
	quadBack := quadFormSym(mPrime, diffBack)

	logPiX := -k.Target.NegLogProb(k.x)
	logPiXPrime := -k.Target.NegLogProb(k.candidate)
	nOver2tau2 := float64(n) / (2 * k.Tau * k.Tau)

	logAlpha := logPiXPrime - logPiX + 0.5*logDetMPrime - 0.5*logDetM + nOver2tau2*(quadFwd-quadBack)
	return k.candidate, logAlpha
}

func (k *CSmMALA) Accept() []float64 {
	copy(k.x, k.candidate)
	return k.x
}

func (k *CSmMALA) SetState(x []float64) error {
	if err := k.P.CheckStart(x); err != nil {
		return err
	}
	copy(k.x, x)
	return nil
}

func (k *CSmMALA) GetState() []float64    { return k.x }
func (k *CSmMALA) GetProposal() []float64 { return k.candidate }

func (k *CSmMALA) StepSize() float64 { return k.Tau }
func (k *CSmMALA) SetStepSize(sigma float64) error {
	if sigma <= 0 {
		return polywalk.NewError(polywalk.InvalidParameter, "CSmMALA tau must be positive")
	}
	k.Tau = sigma
	return nil
}
