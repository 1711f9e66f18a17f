// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tuning adjusts a chain's proposal step size, either to land
// its acceptance rate inside a target band (nested intervals) or to
// maximize expected squared jump distance (grid search or
// Gaussian-process Thompson sampling). Tuners borrow the chain
// mutably for the duration of tuning and clear its history between
// trial windows; budgets are enforced exactly, with no overshoot
// beyond the last completed trial.
package tuning

import (
	"math"

	"github.com/polywalk/polywalk"
	"github.com/polywalk/polywalk/chain"
	"github.com/polywalk/polywalk/rng"
)

// AcceptanceRateParams configures the nested-interval acceptance-rate
// tuner.
type AcceptanceRateParams struct {
	LowerAcceptanceRate float64
	UpperAcceptanceRate float64
	LowerStepSize       float64
	UpperStepSize       float64 // may be +Inf for an open bracket
	IterationsPerTrial  int
	MaxTotalIterations  int
}

// NewAcceptanceRateParams validates and builds tuner parameters.
func NewAcceptanceRateParams(aLo, aHi, sLo, sHi float64, perTrial, maxTotal int) (AcceptanceRateParams, error) {
	if aLo >= aHi {
		return AcceptanceRateParams{}, polywalk.NewError(polywalk.InvalidParameter, "lower acceptance-rate limit must be below the upper limit")
	}
	if sLo >= sHi {
		return AcceptanceRateParams{}, polywalk.NewError(polywalk.InvalidParameter, "lower step-size limit must be below the upper limit")
	}
	if perTrial < 1 {
		return AcceptanceRateParams{}, polywalk.NewError(polywalk.InvalidParameter, "iterations per trial must be >= 1")
	}
	return AcceptanceRateParams{
		LowerAcceptanceRate: aLo,
		UpperAcceptanceRate: aHi,
		LowerStepSize:       sLo,
		UpperStepSize:       sHi,
		IterationsPerTrial:  perTrial,
		MaxTotalIterations:  maxTotal,
	}, nil
}

// Result reports a tuning outcome. Tuned is false when the iteration
// budget ran out before the target was met; StepSize and the
// diagnostic (acceptance rate or ESJD) describe the last completed
// trial either way.
type Result struct {
	Tuned      bool
	StepSize   float64
	Diagnostic float64
}

// TuneAcceptanceRate shrinks a step-size bracket by nested intervals
// until the measured acceptance rate lands inside the target band or
// the total iteration budget is exhausted. The chain's history is
// cleared before each trial and once more before returning.
func TuneAcceptanceRate(c *chain.Chain, r rng.UniformRng, p AcceptanceRateParams) (Result, error) {
	stepSize, ok := c.StepSize()
	if !ok {
		return Result{}, polywalk.NewError(polywalk.InvalidParameter, "chain's proposal has no step size")
	}

	lo, hi := p.LowerStepSize, p.UpperStepSize
	var acceptanceRate float64
	triedStepSize := stepSize
	iterations := 0
	for {
		c.ClearHistory()
		if iterations > p.MaxTotalIterations {
			return Result{Tuned: false, StepSize: triedStepSize, Diagnostic: acceptanceRate}, nil
		}
		if err := c.SetStepSize(stepSize); err != nil {
			return Result{}, err
		}
		c.Draw(r, p.IterationsPerTrial)
		triedStepSize = stepSize
		acceptanceRate = c.AcceptanceRate()
		iterations += p.IterationsPerTrial

		switch {
		case acceptanceRate > p.UpperAcceptanceRate:
			// Too timid: grow the step size into the upper half.
			if stepSize > lo {
				lo = stepSize
			}
			if math.IsInf(hi, 1) {
				stepSize *= 2
			} else {
				stepSize = (stepSize + hi) / 2
			}
		case acceptanceRate < p.LowerAcceptanceRate:
			if stepSize < hi {
				hi = stepSize
			}
			stepSize = (stepSize + lo) / 2
		default:
			c.ClearHistory()
			return Result{Tuned: true, StepSize: stepSize, Diagnostic: acceptanceRate}, nil
		}
	}
}
