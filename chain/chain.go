// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chain drives a Metropolis-Hastings filter to produce a
// record of draws: states, acceptance flags and rates, millisecond
// timestamps, and (optionally) negative-log-likelihood and
// per-proposal diagnostic histories, with thinning.
package chain

import (
	"time"

	"github.com/polywalk/polywalk"
	"github.com/polywalk/polywalk/mh"
	"github.com/polywalk/polywalk/proposal"
	"github.com/polywalk/polywalk/rng"
)

// InfoProvider is implemented by proposals that expose a per-draw
// diagnostic map, surfaced verbatim in the chain record.
type InfoProvider interface {
	ProposalInfo() map[string]float64
}

// Record is the append-only per-chain draw history. States, Accepted,
// AcceptanceRates and Timestamps share one length, as do the optional
// histories when populated: entry i describes the i-th recorded
// (post-thinning) draw.
type Record struct {
	States          [][]float64
	Accepted        []bool
	AcceptanceRates []float64
	// Timestamps are milliseconds since the Unix epoch.
	Timestamps []int64
	// NegLogLikelihoods is populated only when the chain was built
	// with StoreNegLogLikelihood.
	NegLogLikelihoods []float64
	// ProposalInfos is populated only when the proposal is an
	// InfoProvider.
	ProposalInfos []map[string]float64
}

// Chain owns one proposal/filter pair and its record. Each chain is
// driven from a single goroutine and owns its RNG exclusively;
// nothing here is safe for concurrent use.
type Chain struct {
	Filter *mh.Filter

	// Thinning stores only every k-th draw; 1 stores everything.
	Thinning int
	// StoreNegLogLikelihood additionally records the target's
	// negative log-likelihood at each recorded state.
	StoreNegLogLikelihood bool
	// Recording gates record storage entirely; a disabled chain still
	// steps and counts acceptance. Parallel tempering records only
	// the beta=1 chain this way.
	Recording bool

	rec       Record
	stepCount int
}

// New builds a chain around f with the given thinning (>= 1).
func New(f *mh.Filter, thinning int) (*Chain, error) {
	if thinning < 1 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "thinning must be >= 1")
	}
	return &Chain{Filter: f, Thinning: thinning, Recording: true}, nil
}

// Step performs one Metropolis-Hastings draw, recording it if it
// falls on the thinning grid, and returns the resulting state and
// whether the proposal was accepted.
func (c *Chain) Step(r rng.UniformRng) ([]float64, bool) {
	x, accepted := c.Filter.Step(r)
	c.stepCount++
	if c.Recording && c.stepCount%c.Thinning == 0 {
		c.store(x, accepted)
	}
	return x, accepted
}

// Draw performs n draws.
func (c *Chain) Draw(r rng.UniformRng, n int) {
	for i := 0; i < n; i++ {
		c.Step(r)
	}
}

func (c *Chain) store(x []float64, accepted bool) {
	c.rec.States = append(c.rec.States, append([]float64(nil), x...))
	c.rec.Accepted = append(c.rec.Accepted, accepted)
	c.rec.AcceptanceRates = append(c.rec.AcceptanceRates, c.Filter.AcceptanceRate())
	c.rec.Timestamps = append(c.rec.Timestamps, time.Now().UnixMilli())
	if c.StoreNegLogLikelihood {
		c.rec.NegLogLikelihoods = append(c.rec.NegLogLikelihoods, c.Filter.Target.NegLogProb(x))
	}
	if ip, ok := c.Filter.Proposal.(InfoProvider); ok {
		c.rec.ProposalInfos = append(c.rec.ProposalInfos, ip.ProposalInfo())
	}
}

// Record returns the chain's draw history. The returned struct shares
// backing storage with the chain; callers must not mutate it while
// the chain is still being driven.
func (c *Chain) Record() Record { return c.rec }

// States returns the recorded states.
func (c *Chain) States() [][]float64 { return c.rec.States }

// State returns the chain's current state.
func (c *Chain) State() []float64 { return c.Filter.Proposal.GetState() }

// SetState rehomes the chain (and its proposal) at x.
func (c *Chain) SetState(x []float64) error { return c.Filter.Proposal.SetState(x) }

// AcceptanceRate returns the filter's running acceptance rate.
func (c *Chain) AcceptanceRate() float64 { return c.Filter.AcceptanceRate() }

// ClearHistory drops the record and resets the filter's acceptance
// counters, leaving the current state untouched. Tuners call this
// between trial windows.
func (c *Chain) ClearHistory() {
	c.rec = Record{}
	c.stepCount = 0
	c.Filter.ClearHistory()
}

// StepSize returns the proposal's step size, or ok=false when the
// proposal has none.
func (c *Chain) StepSize() (float64, bool) {
	if s, ok := c.Filter.Proposal.(proposal.StepSizer); ok {
		return s.StepSize(), true
	}
	return 0, false
}

// SetStepSize sets the proposal's step size, returning
// InvalidParameter when the proposal has none.
func (c *Chain) SetStepSize(sigma float64) error {
	if s, ok := c.Filter.Proposal.(proposal.StepSizer); ok {
		return s.SetStepSize(sigma)
	}
	return polywalk.NewError(polywalk.InvalidParameter, "proposal has no step size")
}
