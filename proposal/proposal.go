// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package proposal implements the polytope-aware Metropolis-Hastings
// proposal kernels: coordinate hit-and-run, hit-and-run, ball walk,
// Gaussian, Dikin, adaptive Metropolis, truncated-Gaussian, billiard
// walk, CSmMALA and billiard-MALA.
//
// Every kernel shares the Proposal interface. Capability probes (step
// size, named parameters, model-awareness) are explicit optional
// interfaces rather than type-erased dictionaries, the same "probe
// with a type assertion" idiom distmv uses for its RandLogProber /
// LogProber split.
package proposal

import (
	"github.com/polywalk/polywalk"
	"github.com/polywalk/polywalk/rng"
)

// Proposal is the interface every kernel implements. Propose draws a
// candidate and its Metropolis-Hastings log-correction
// log q(x|x') - log q(x'|x) (zero for symmetric kernels). Accept
// commits the most recently proposed candidate as the new current
// state and returns it; SetState forcibly rehomes the kernel (e.g.
// after a rejected parallel-tempering exchange, or to seed a chain).
type Proposal interface {
	Propose(r rng.UniformRng) (candidate []float64, logCorrection float64)
	Accept() []float64
	SetState(x []float64) error
	GetState() []float64
	GetProposal() []float64
}

// StepSizer is implemented by kernels with a scalar step size.
type StepSizer interface {
	StepSize() float64
	SetStepSize(sigma float64) error
}

// ModelAware is implemented by kernels whose LogCorrection already
// folds in the target log-density difference, so the
// Metropolis-Hastings filter must not subtract neg-log-likelihoods a
// second time.
type ModelAware interface {
	IsModelAware() bool
}

// HistoryClearer is implemented by kernels that keep internal history
// (adaptation state, proposal clocks) that should be discarded along
// with the Metropolis-Hastings filter's acceptance counters, e.g.
// between tuner trial windows.
type HistoryClearer interface {
	ClearHistory()
}

// MaskedProposer is implemented by kernels that can restrict a move
// to a subset of active coordinates, leaving the inactive ones
// untouched. The reversible-jump layer delegates its within-model
// moves through this interface.
type MaskedProposer interface {
	ProposeMasked(r rng.UniformRng, active []bool) (candidate []float64, logCorrection float64)
}

// Parameters is the optional named-parameter dictionary, modeled as a
// tagged lookup rather than a type-erased map: each kernel advertises
// which polywalk.Parameter tags it recognizes.
type Parameters interface {
	Parameter(name polywalk.Parameter) (value float64, ok bool)
	SetParameter(name polywalk.Parameter, value float64) error
}
