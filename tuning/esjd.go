// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tuning

import (
	"time"

	"github.com/polywalk/polywalk"
	"github.com/polywalk/polywalk/chain"
	"github.com/polywalk/polywalk/diagnostics"
	"github.com/polywalk/polywalk/rng"
)

// ESJDGridParams configures the grid-search expected-squared-jump-
// distance tuner.
type ESJDGridParams struct {
	IterationsPerTrial int
	GridSize           int
	LowerStepSize      float64
	UpperStepSize      float64
	// ConsiderTimeCost divides each trial's ESJD by its wall-clock
	// seconds, preferring cheap mixing over raw mixing.
	ConsiderTimeCost bool
}

// NewESJDGridParams validates and builds grid-tuner parameters.
func NewESJDGridParams(perTrial, gridSize int, sLo, sHi float64, considerTimeCost bool) (ESJDGridParams, error) {
	if sLo >= sHi {
		return ESJDGridParams{}, polywalk.NewError(polywalk.InvalidParameter, "lower step-size limit must be below the upper limit")
	}
	if perTrial < 1 {
		return ESJDGridParams{}, polywalk.NewError(polywalk.InvalidParameter, "iterations per trial must be >= 1")
	}
	if gridSize < 2 {
		return ESJDGridParams{}, polywalk.NewError(polywalk.InvalidParameter, "grid size must be >= 2")
	}
	return ESJDGridParams{
		IterationsPerTrial: perTrial,
		GridSize:           gridSize,
		LowerStepSize:      sLo,
		UpperStepSize:      sHi,
		ConsiderTimeCost:   considerTimeCost,
	}, nil
}

// stepSizeGrid returns gridSize points evenly spaced on [lo, hi].
func stepSizeGrid(lo, hi float64, gridSize int) []float64 {
	grid := make([]float64, gridSize)
	for i := range grid {
		grid[i] = lo + (hi-lo)*float64(i)/float64(gridSize-1)
	}
	return grid
}

// measureESJD runs one trial at the given step size and returns the
// observed expected squared jump distance over the trial's recorded
// states, optionally scaled by the inverse trial duration.
func measureESJD(c *chain.Chain, r rng.UniformRng, stepSize float64, iterations int, considerTimeCost bool) (float64, error) {
	c.ClearHistory()
	if err := c.SetStepSize(stepSize); err != nil {
		return 0, err
	}
	start := time.Now()
	c.Draw(r, iterations)
	elapsed := time.Since(start).Seconds()
	esjd, err := diagnostics.ExpectedSquaredJumpDistance(c.States())
	if err != nil {
		return 0, err
	}
	if considerTimeCost && elapsed > 0 {
		esjd /= elapsed
	}
	return esjd, nil
}

// TuneESJDGrid evaluates every grid point once and returns the step
// size with the largest observed ESJD. The chain's history is cleared
// between trials and before returning.
func TuneESJDGrid(c *chain.Chain, r rng.UniformRng, p ESJDGridParams) (Result, error) {
	if _, ok := c.StepSize(); !ok {
		return Result{}, polywalk.NewError(polywalk.InvalidParameter, "chain's proposal has no step size")
	}
	best := Result{}
	for _, stepSize := range stepSizeGrid(p.LowerStepSize, p.UpperStepSize, p.GridSize) {
		esjd, err := measureESJD(c, r, stepSize, p.IterationsPerTrial, p.ConsiderTimeCost)
		if err != nil {
			return Result{}, err
		}
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
