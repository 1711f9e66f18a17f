// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proposal

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/polywalk/polywalk"
	"github.com/polywalk/polywalk/polytope"
	"github.com/polywalk/polywalk/rng"
)

// AdaptiveMetropolis proposes from a fixed MVE-scaled Gaussian during
// a warm-up phase, then from a Gaussian whose covariance is the
// running covariance of the chain's states, following the Haario
// (2001) adaptive Metropolis recursion. The epsilon regularization is
// scaled down by the dimension (Roberts and Rosenthal, 2001) and an
// eps-weighted copy of the MVE is folded into every covariance update
// as a positive-definite floor.
//
// After warm-up the forward and reverse proposal covariances differ
// (the reverse one is the covariance as it would be after accepting
// the candidate), so the log-correction is the log-ratio of the two
// state-dependent Gaussians; during warm-up the kernel is symmetric.
type AdaptiveMetropolis struct {
	P      *polytope.Polytope
	MVE    *polytope.MVE
	WarmUp int
	Sigma  float64 // standard deviation of the driving noise

	eps float64 // epsilon / n

	x         []float64
	candidate []float64

	t          int       // proposals made so far
	mean       []float64 // running mean of the visited states
	lastWarmUp bool      // whether the most recent proposal was a warm-up draw

	stateCov        *mat.SymDense
	stateChol       *mat.TriDense
	stateLogSqrtDet float64

	propCov        *mat.SymDense
	propChol       *mat.TriDense
	propLogSqrtDet float64
}

// NewAdaptiveMetropolis builds an adaptive-Metropolis kernel. mve
// supplies both the warm-up proposal scale and the covariance floor;
// sigma is the noise standard deviation and epsilon the
// regularization weight (scaled internally by 1/n).
func NewAdaptiveMetropolis(p *polytope.Polytope, start []float64, mve *polytope.MVE, sigma, epsilon float64, warmUp int) (*AdaptiveMetropolis, error) {
	if sigma <= 0 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "adaptive Metropolis sigma must be positive")
	}
	if epsilon <= 0 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "epsilon must be positive")
	}
	if warmUp < 0 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "warm-up length must be non-negative")
	}
	if err := p.CheckStart(start); err != nil {
		return nil, err
	}
	n := p.N
	x := append([]float64(nil), start...)
	k := &AdaptiveMetropolis{
		P: p, MVE: mve, WarmUp: warmUp, Sigma: sigma,
		eps:       epsilon / float64(n),
		x:         x,
		candidate: append([]float64(nil), x...),
		mean:      append([]float64(nil), x...),
		stateCov:  mat.NewSymDense(n, nil),
		stateChol: mat.NewTriDense(n, mat.Lower, nil),
	}
	k.stateCov.CopySym(mve.E)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			k.stateChol.SetTri(i, j, mve.L.At(i, j))
		}
	}
	k.stateLogSqrtDet = logDiagSum(k.stateChol)
	return k, nil
}

func logDiagSum(l *mat.TriDense) float64 {
	n, _ := l.Dims()
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Log(l.At(i, i))
	}
	return sum
}

func (k *AdaptiveMetropolis) inWarmUp() bool { return k.t <= k.WarmUp }

func (k *AdaptiveMetropolis) Propose(r rng.UniformRng) ([]float64, float64) {
	k.proposeRaw(r)
	return k.candidate, k.logAcceptance()
}

// proposeRaw draws the candidate and advances the running mean and
// proposal clock without evaluating the acceptance correction, so the
// billiard variant can reflect the candidate first.
func (k *AdaptiveMetropolis) proposeRaw(r rng.UniformRng) {
	t := float64(k.t)
	for i := range k.mean {
		k.mean[i] = (t*k.mean[i] + k.x[i]) / (t + 1)
	}

	xi := make([]float64, len(k.x))
	for i := range xi {
		xi[i] = k.Sigma * r.NormFloat64()
	}
	k.lastWarmUp = k.inWarmUp()
	if k.lastWarmUp {
		step := polytope.SolveLowerTransposed(k.MVE.L, xi)
		for i := range k.candidate {
			k.candidate[i] = k.x[i] + k.eps*step[i]
		}
	} else {
		step := polytope.MulLower(k.stateChol, xi)
		for i := range k.candidate {
			k.candidate[i] = k.x[i] + step[i]
		}
	}
	k.t++
}

// logAcceptance evaluates the correction for the current candidate:
// -Inf for exterior candidates or a non-factorizable updated
// covariance, 0 during warm-up, and the two-Gaussian log-ratio after.
func (k *AdaptiveMetropolis) logAcceptance() float64 {
	if !k.P.Feasible(k.candidate) {
		return math.Inf(-1)
	}

	k.propCov = k.updateCovariance(k.stateCov, k.mean, k.candidate)
	l, _, ok := polytope.Cholesky(k.propCov)
	if !ok {
		return math.Inf(-1)
	}
	k.propChol = l
	k.propLogSqrtDet = logDiagSum(l)

	if k.lastWarmUp {
		return 0
	}

	diff := make([]float64, len(k.x))
	for i := range diff {
		diff[i] = k.candidate[i] - k.x[i]
	}
	forward := solveLowerSquaredNorm(k.stateChol, diff)
	reverse := solveLowerSquaredNorm(k.propChol, diff)
	return k.stateLogSqrtDet - k.propLogSqrtDet - 0.5*(reverse-forward)/(k.Sigma*k.Sigma)
}

// updateCovariance applies the recursive update
//
//	C' = ((t-1) C + t m m^T - (t+1) m' m'^T + x' x'^T + eps*E) / t
//
// where m' is the mean after folding in the candidate x'.
func (k *AdaptiveMetropolis) updateCovariance(cov *mat.SymDense, mean, newState []float64) *mat.SymDense {
	n := len(newState)
	t := float64(k.t)
	newMean := make([]float64, n)
	for i := range newMean {
		newMean[i] = (t*mean[i] + newState[i]) / (t + 1)
	}
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := (t-1)*cov.At(i, j) +
				t*mean[i]*mean[j] -
				(t+1)*newMean[i]*newMean[j] +
				newState[i]*newState[j] +
				k.eps*k.MVE.E.At(i, j)
			out.SetSym(i, j, v/t)
		}
	}
	return out
}

// solveLowerSquaredNorm returns ||L^-1 d||^2.
func solveLowerSquaredNorm(l *mat.TriDense, d []float64) float64 {
	n := len(d)
	var sum float64
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		v := d[i]
		for j := 0; j < i; j++ {
			v -= l.At(i, j) * y[j]
		}
		y[i] = v / l.At(i, i)
		sum += y[i] * y[i]
	}
	return sum
}

func (k *AdaptiveMetropolis) Accept() []float64 {
	copy(k.x, k.candidate)
	if k.propCov != nil {
		k.stateCov = k.propCov
		k.stateChol = k.propChol
		k.stateLogSqrtDet = k.propLogSqrtDet
	}
	return k.x
}

func (k *AdaptiveMetropolis) SetState(x []float64) error {
	if err := k.P.CheckStart(x); err != nil {
		return err
	}
	copy(k.x, x)
	return nil
}

func (k *AdaptiveMetropolis) GetState() []float64    { return k.x }
func (k *AdaptiveMetropolis) GetProposal() []float64 { return k.candidate }

// ClearHistory resets the adaptation state (proposal clock, running
// mean and covariance) back to its post-construction values, leaving
// the current state untouched.
func (k *AdaptiveMetropolis) ClearHistory() {
	k.t = 0
	copy(k.mean, k.x)
	k.stateCov.CopySym(k.MVE.E)
	n := len(k.x)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			k.stateChol.SetTri(i, j, k.MVE.L.At(i, j))
		}
	}
	k.stateLogSqrtDet = logDiagSum(k.stateChol)
	k.propCov = nil
	k.propChol = nil
	k.propLogSqrtDet = 0
}

func (k *AdaptiveMetropolis) StepSize() float64 { return k.Sigma }
func (k *AdaptiveMetropolis) SetStepSize(sigma float64) error {
	if sigma <= 0 {
		return polywalk.NewError(polywalk.InvalidParameter, "adaptive Metropolis sigma must be positive")
	}
	k.Sigma = sigma
	return nil
}

func (k *AdaptiveMetropolis) Parameter(name polywalk.Parameter) (float64, bool) {
	switch name {
	case polywalk.StepSize:
		return k.Sigma, true
	case polywalk.Epsilon:
		return k.eps * float64(len(k.x)), true
	case polywalk.WarmUp:
		return float64(k.WarmUp), true
	default:
		return 0, false
	}
}

func (k *AdaptiveMetropolis) SetParameter(name polywalk.Parameter, value float64) error {
	switch name {
	case polywalk.StepSize:
		return k.SetStepSize(value)
	case polywalk.Epsilon:
		if value <= 0 {
			return polywalk.NewError(polywalk.InvalidParameter, "epsilon must be positive")
		}
		k.eps = value / float64(len(k.x))
		return nil
	case polywalk.WarmUp:
		if value < 0 {
			return polywalk.NewError(polywalk.InvalidParameter, "warm-up length must be non-negative")
		}
		k.WarmUp = int(value)
		return nil
	default:
		return polywalk.NewError(polywalk.InvalidParameter, "unsupported parameter for adaptive Metropolis")
	}
}
