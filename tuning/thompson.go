// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tuning

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/polywalk/polywalk"
	"github.com/polywalk/polywalk/chain"
	"github.com/polywalk/polywalk/rng"
)

// ESJDThompsonParams configures the Gaussian-process Thompson-
// sampling ESJD tuner: a squared-exponential GP posterior over step
// sizes is refit after every observation, and each round evaluates
// the argmax of one posterior sample.
type ESJDThompsonParams struct {
	IterationsPerTrial int
	GridSize           int
	LowerStepSize      float64
	UpperStepSize      float64
	// MaxObservations bounds the number of (step size, ESJD)
	// observations posted to the surrogate.
	MaxObservations int
	// LengthScale and SignalVariance parameterize the squared-
	// exponential kernel; NoiseVariance is the observation noise
	// floor added on the diagonal.
	LengthScale    float64
	SignalVariance float64
	NoiseVariance  float64
	// ConsiderTimeCost divides observed ESJD by trial wall-clock
	// seconds.
	ConsiderTimeCost bool
}

// NewESJDThompsonParams validates and builds Thompson-tuner
// parameters with kernel hyperparameters scaled to the bracket width.
func NewESJDThompsonParams(perTrial, gridSize int, sLo, sHi float64, maxObservations int) (ESJDThompsonParams, error) {
	if sLo >= sHi {
		return ESJDThompsonParams{}, polywalk.NewError(polywalk.InvalidParameter, "lower step-size limit must be below the upper limit")
	}
	if perTrial < 1 {
		return ESJDThompsonParams{}, polywalk.NewError(polywalk.InvalidParameter, "iterations per trial must be >= 1")
	}
	if gridSize < 2 {
		return ESJDThompsonParams{}, polywalk.NewError(polywalk.InvalidParameter, "grid size must be >= 2")
	}
	if maxObservations < 1 {
		return ESJDThompsonParams{}, polywalk.NewError(polywalk.InvalidParameter, "observation budget must be >= 1")
	}
	return ESJDThompsonParams{
		IterationsPerTrial: perTrial,
		GridSize:           gridSize,
		LowerStepSize:      sLo,
		UpperStepSize:      sHi,
		MaxObservations:    maxObservations,
		LengthScale:        (sHi - sLo) / 4,
		SignalVariance:     1,
		NoiseVariance:      1e-4,
	}, nil
}

// gpSurrogate is a one-dimensional squared-exponential Gaussian
// process over step sizes, refit from scratch on each observation
// set. Observation counts here are tiny (tens), so the cubic refit
// cost is irrelevant next to the chain draws.
type gpSurrogate struct {
	lengthScale    float64
	signalVariance float64
	noiseVariance  float64

	inputs []float64
	values []float64
}

func (g *gpSurrogate) kernel(a, b float64) float64 {
	d := (a - b) / g.lengthScale
	return g.signalVariance * math.Exp(-0.5*d*d)
}

func (g *gpSurrogate) observe(x, y float64) {
	g.inputs = append(g.inputs, x)
	g.values = append(g.values, y)
}

// posterior returns the posterior mean and covariance over the grid.
func (g *gpSurrogate) posterior(grid []float64) (mean []float64, cov *mat.SymDense, err error) {
	m := len(grid)
	mean = make([]float64, m)
	cov = mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			cov.SetSym(i, j, g.kernel(grid[i], grid[j]))
		}
	}
	n := len(g.inputs)
	if n == 0 {
		return mean, cov, nil
	}

	obs := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := g.kernel(g.inputs[i], g.inputs[j])
			if i == j {
				v += g.noiseVariance
			}
			obs.SetSym(i, j, v)
		}
	}
	var cholObs mat.Cholesky
	if !cholObs.Factorize(obs) {
		return nil, nil, polywalk.NewError(polywalk.NumericFailure, "surrogate covariance failed to factorize")
	}

	cross := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			cross.Set(i, j, g.kernel(g.inputs[i], grid[j]))
		}
	}

	var alpha mat.VecDense
	if err := cholObs.SolveVecTo(&alpha, mat.NewVecDense(n, append([]float64(nil), g.values...))); err != nil {
		return nil, nil, polywalk.NewError(polywalk.NumericFailure, "surrogate solve failed")
	}
	for j := 0; j < m; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += cross.At(i, j) * alpha.AtVec(i)
		}
		mean[j] = sum
	}

	var v mat.Dense
	if err := cholObs.SolveTo(&v, cross); err != nil {
		return nil, nil, polywalk.NewError(polywalk.NumericFailure, "surrogate solve failed")
	}
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			var sum float64
			for k := 0; k < n; k++ {
				sum -= cross.At(k, i) * v.At(k, j)
			}
			cov.SetSym(i, j, cov.At(i, j)+sum)
		}
	}
	return mean, cov, nil
}

// samplePosteriorArgmax draws one function sample from the posterior
// over the grid and returns the index of its maximum.
func (g *gpSurrogate) samplePosteriorArgmax(grid []float64, r rng.UniformRng) (int, error) {
	mean, cov, err := g.posterior(grid)
	if err != nil {
		return 0, err
	}
	m := len(grid)
	// Jitter keeps the posterior factorizable once observations pin
	// grid points down to near-zero variance.
	for i := 0; i < m; i++ {
		cov.SetSym(i, i, cov.At(i, i)+1e-9)
	}
	var chol mat.Cholesky
	if !chol.Factorize(cov) {
		return 0, polywalk.NewError(polywalk.NumericFailure, "posterior covariance failed to factorize")
	}
	l := mat.NewTriDense(m, mat.Lower, nil)
	chol.LTo(l)

	sample := make([]float64, m)
	xi := make([]float64, m)
	for i := range xi {
		xi[i] = r.NormFloat64()
	}
	best := 0
	for i := 0; i < m; i++ {
		sum := mean[i]
		for j := 0; j <= i; j++ {
			sum += l.At(i, j) * xi[j]
		}
		sample[i] = sum
		if sample[i] > sample[best] {
			best = i
		}
	}
	return best, nil
}

// TuneESJDThompson tunes the step size by Thompson sampling on a GP
// surrogate: each round samples a posterior function, evaluates the
// chain at its argmax step size, and posts the observed ESJD back to
// the surrogate, until the observation budget is exhausted. The
// returned result is the best observation made.
func TuneESJDThompson(c *chain.Chain, r rng.UniformRng, p ESJDThompsonParams) (Result, error) {
	if _, ok := c.StepSize(); !ok {
		return Result{}, polywalk.NewError(polywalk.InvalidParameter, "chain's proposal has no step size")
	}
	grid := stepSizeGrid(p.LowerStepSize, p.UpperStepSize, p.GridSize)
	gp := &gpSurrogate{
		lengthScale:    p.LengthScale,
		signalVariance: p.SignalVariance,
		noiseVariance:  p.NoiseVariance,
	}

	best := Result{}
	for len(gp.inputs) < p.MaxObservations {
		idx, err := gp.samplePosteriorArgmax(grid, r)
		if err != nil {
			return Result{}, err
		}
		stepSize := grid[idx]
		esjd, err := measureESJD(c, r, stepSize, p.IterationsPerTrial, p.ConsiderTimeCost)
		if err != nil {
			return Result{}, err
		}
		gp.observe(stepSize, esjd)
		if !best.Tuned || esjd > best.Diagnostic {
			best = Result{Tuned: true, StepSize: stepSize, Diagnostic: esjd}
		}
	}
	c.ClearHistory()
	if err := c.SetStepSize(best.StepSize); err != nil {
		return Result{}, err
	}
	return best, nil
}
