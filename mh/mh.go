// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mh implements the Metropolis-Hastings acceptance filter,
// the single point in the pipeline where a proposal's log-correction
// is turned into an accept/reject decision.
package mh

import (
	"fmt"
	"math"

	"github.com/polywalk/polywalk/proposal"
	"github.com/polywalk/polywalk/rng"
	"github.com/polywalk/polywalk/target"
)

// Filter wraps a proposal.Proposal and a target.Target, running the
// Metropolis-Hastings accept/reject test on every draw and tracking
// the running acceptance count. When the wrapped proposal reports
// IsModelAware()==true (via proposal.ModelAware), its log-correction
// is already a full log pi(x')q(x|x') / pi(x)q(x'|x) term, so the
// filter uses it directly; otherwise it subtracts the
// negative-log-likelihoods of x and x' to fold the target in.
type Filter struct {
	Proposal proposal.Proposal
	Target   target.Target

	// Trace, when non-nil, receives a line per rejected draw and per
	// history clear. It replaces the free-text message recorder of the
	// systems this design descends from without pulling in a logging
	// dependency; leave it nil for silent operation.
	Trace func(string)

	nProposals int
	nAccepted  int
}

// NewFilter builds a Metropolis-Hastings filter around p, targeting t.
func NewFilter(p proposal.Proposal, t target.Target) *Filter {
	return &Filter{Proposal: p, Target: t}
}

// Step draws one candidate, applies the Metropolis-Hastings test with
// uniform variate u=r.Float64(), and returns the resulting current
// state (the candidate on acceptance, the prior state on rejection)
// along with whether it was accepted.
func (f *Filter) Step(r rng.UniformRng) ([]float64, bool) {
	x := f.Proposal.GetState()
	candidate, logCorrection := f.Proposal.Propose(r)

	var alpha float64
	if aware, ok := f.Proposal.(proposal.ModelAware); ok && aware.IsModelAware() {
		alpha = logCorrection
	} else {
		alpha = logCorrection + (f.Target.NegLogProb(x) - f.Target.NegLogProb(candidate))
	}

	f.nProposals++
	logU := math.Log(r.Float64())
	if logU < alpha {
		f.nAccepted++
		return f.Proposal.Accept(), true
	}
	if f.Trace != nil {
		f.Trace(fmt.Sprintf("rejected draw %d: log alpha = %g", f.nProposals, alpha))
	}
	return x, false
}

// NumProposals returns the number of Step calls made so far.
func (f *Filter) NumProposals() int { return f.nProposals }

// NumAccepted returns the number of Step calls that accepted.
func (f *Filter) NumAccepted() int { return f.nAccepted }

// AcceptanceRate returns NumAccepted/NumProposals, or 0 if no proposals
// have been made.
func (f *Filter) AcceptanceRate() float64 {
	if f.nProposals == 0 {
		return 0
	}
	return float64(f.nAccepted) / float64(f.nProposals)
}

// ClearHistory resets the acceptance counters without disturbing the
// current state, used by tuners between trial windows. When the
// wrapped proposal keeps internal history of its own
// (proposal.HistoryClearer), that is cleared too.
func (f *Filter) ClearHistory() {
	f.nProposals = 0
	f.nAccepted = 0
	if hc, ok := f.Proposal.(proposal.HistoryClearer); ok {
		hc.ClearHistory()
	}
	if f.Trace != nil {
		f.Trace("history cleared")
	}
}
