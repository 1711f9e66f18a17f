// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tempering coordinates parallel tempering: N chains at N
// coldness levels, run one goroutine per chain, periodically
// proposing state swaps between neighboring coldness levels. The
// pairwise exchange is a synchronous send/receive on a per-pair
// channel link, the in-process stand-in for the point-to-point
// message passing a distributed deployment would use.
package tempering

import (
	"math"

	"github.com/polywalk/polywalk"
	"github.com/polywalk/polywalk/chain"
	"github.com/polywalk/polywalk/rng"
	"github.com/polywalk/polywalk/target"
)

// exchangeMsg carries one side's coldness and uncolded negative
// log-likelihood (first phase) or its state vector (second phase).
type exchangeMsg struct {
	beta  float64
	negLL float64
	state []float64
}

// link is a bidirectional channel pair between neighbor chains k and
// k+1. Buffered by one message so both sides can send before
// receiving without deadlocking.
type link struct {
	up, down chan exchangeMsg
}

// schedule is the per-iteration exchange plan broadcast to every
// chain goroutine: whether an exchange trial happens, which neighbor
// pair participates, and the shared acceptance uniform.
type schedule struct {
	attempt bool
	pair    int // exchange between chains pair and pair+1
	u       float64
}

// Ensemble holds N chains at descending coldness beta_k = 1 -
// k/max(1, N-1). Chain 0 (beta = 1) is the only recording chain.
type Ensemble struct {
	Chains []*chain.Chain
	// ExchangeAttemptProbability is the per-step probability that a
	// neighbor pair attempts a state swap. Clamped to [0,1].
	ExchangeAttemptProbability float64

	coldness []*target.Coldness
	links    []link
}

// New builds an ensemble over the given chains, whose targets must be
// the supplied Coldness wrappers (chain k draws against coldness[k]).
// Coldness levels are overwritten with the ladder beta_k =
// 1 - k/max(1, N-1), and recording is left enabled only on chain 0.
func New(chains []*chain.Chain, coldness []*target.Coldness, exchangeAttemptProbability float64) (*Ensemble, error) {
	if len(chains) == 0 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "no chains")
	}
	if len(chains) != len(coldness) {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "chains and coldness dimension mismatch")
	}
	if exchangeAttemptProbability < 0 {
		exchangeAttemptProbability = 0
	}
	if exchangeAttemptProbability > 1 {
		exchangeAttemptProbability = 1
	}
	n := len(chains)
	ladderDenominator := float64(n - 1)
	if n == 1 {
		ladderDenominator = 1
	}
	for k, c := range coldness {
		c.SetBeta(1 - float64(k)/ladderDenominator)
		chains[k].Recording = k == 0
	}
	links := make([]link, n-1)
	for i := range links {
		links[i] = link{up: make(chan exchangeMsg, 1), down: make(chan exchangeMsg, 1)}
	}
	return &Ensemble{
		Chains:                     chains,
		ExchangeAttemptProbability: exchangeAttemptProbability,
		coldness:                   coldness,
		links:                      links,
	}, nil
}

// Coldness returns chain k's coldness wrapper.
func (e *Ensemble) Coldness(k int) *target.Coldness { return e.coldness[k] }

// Run drives every chain for iterations steps, one goroutine per
// chain, each owning rngs[k] exclusively. scheduleRng drives the
// shared exchange schedule (attempt decision, pair choice, and the
// acceptance uniform); every chain additionally consumes one uniform
// from its own stream per exchange trial so the per-chain streams
// stay aligned whether or not the chain participates.
func (e *Ensemble) Run(iterations int, rngs []rng.UniformRng, scheduleRng rng.UniformRng) error {
	n := len(e.Chains)
	if len(rngs) != n {
		return polywalk.NewError(polywalk.InvalidParameter, "need one RNG per chain")
	}

	plans := make([]chan schedule, n)
	for k := range plans {
		plans[k] = make(chan schedule, 1)
	}
	done := make(chan struct{}, n)

	for k := 0; k < n; k++ {
		go func(k int) {
			defer func() { done <- struct{}{} }()
			for it := 0; it < iterations; it++ {
				e.Chains[k].Step(rngs[k])
				plan := <-plans[k]
				if !plan.attempt {
					continue
				}
				// One uniform per exchange trial, participant or not.
				rngs[k].Float64()
				switch k {
				case plan.pair:
					e.exchange(k, e.links[plan.pair].up, e.links[plan.pair].down, plan.u)
				case plan.pair + 1:
					e.exchange(k, e.links[plan.pair].down, e.links[plan.pair].up, plan.u)
				}
			}
		}(k)
	}

	for it := 0; it < iterations; it++ {
		plan := schedule{}
		if scheduleRng.Float64() < e.ExchangeAttemptProbability && n > 1 {
			plan.attempt = true
			plan.pair = int(scheduleRng.Float64() * float64(n-1))
			if plan.pair == n-1 {
				plan.pair = n - 2
			}
			plan.u = scheduleRng.Float64()
		}
		for k := range plans {
			plans[k] <- plan
		}
	}

	for k := 0; k < n; k++ {
		<-done
	}
	return nil
}

// exchange performs one side of the pairwise swap trial: trade
// (beta, uncolded neg-log-likelihood) with the neighbor, evaluate the
// shared acceptance test, and swap states iff accepted. Both sides
// compute the same alpha because the product of the two differences
// is symmetric under exchanging roles.
func (e *Ensemble) exchange(k int, send, recv chan exchangeMsg, u float64) {
	c := e.Chains[k]
	state := c.State()
	negLL := e.coldness[k].UncoldedNegLogProb(state)
	send <- exchangeMsg{beta: e.coldness[k].Beta(), negLL: negLL}
	msg := <-recv

	alpha := math.Exp((e.coldness[k].Beta() - msg.beta) * (negLL - msg.negLL))
	if u > alpha {
		return
	}
	send <- exchangeMsg{state: append([]float64(nil), state...)}
	peerMsg := <-recv
	if err := c.SetState(peerMsg.state); err != nil {
		// The peer state was feasible in the peer chain over the same
		// polytope; a failure here means the geometry differs between
		// chains, which is a configuration error.
		panic("tempering: exchanged state rejected: " + err.Error())
	}
}
