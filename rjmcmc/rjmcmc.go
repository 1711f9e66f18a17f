// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rjmcmc implements the reversible-jump layer: a decorator
// that augments a base proposal with an activation mask over
// designated jumpable coordinates, proposing jumps between sub-models
// of differing dimension while preserving detailed balance.
//
// The exposed state is the activation mask (as 0/1 values) followed
// by the parameter vector, so a chain record carries both the model
// indicator and the coordinates of every draw.
package rjmcmc

import (
	"math"

	"github.com/polywalk/polywalk"
	"github.com/polywalk/polywalk/polytope"
	"github.com/polywalk/polywalk/proposal"
	"github.com/polywalk/polywalk/rng"
	"github.com/polywalk/polywalk/target"
)

// ReversibleJump wraps a base proposal with model-jump moves over the
// jumpable coordinates. With probability ModelJumpProbability a step
// toggles activation bits (activating coordinates draw a fresh value
// uniformly on the feasible chord through the default; deactivating
// ones reset to the default); otherwise the base proposal moves the
// currently active coordinates.
//
// The kernel is model-aware: both move types fold the target
// log-density difference into their log-correction.
type ReversibleJump struct {
	Inner  proposal.Proposal
	Target target.Target

	// ModelJumpProbability, ActivationProbability and
	// DeactivationProbability must each lie in [0, 1).
	ModelJumpProbability    float64
	ActivationProbability   float64
	DeactivationProbability float64

	p           *polytope.Polytope
	masked      proposal.MaskedProposer
	jumpIndices []int
	defaults    []float64
	// Chord widths through each default under the default-valued
	// reference point, fixed at construction. Keeping them
	// state-independent is what makes the uniform activation draw
	// exactly reversible without an extra Jacobian term.
	backward, forward []float64

	activation     []bool
	activationProp []bool
	paramProp      []float64
	lastJumped     bool
	jumpLogAlpha   float64

	// Separate scratch buffers for the exposed (mask, x) vectors so a
	// state read taken before Propose is not clobbered by it.
	concatState []float64
	concatProp  []float64
}

// New builds a reversible-jump layer over inner, which must support
// masked proposing (proposal.MaskedProposer) so within-model moves
// can be restricted to the active coordinates. jumpIndices designates
// the toggleable coordinates and defaults their pinned values; all
// jumpable coordinates start deactivated (the simplest sub-model),
// and inner's state is rehomed accordingly.
func New(p *polytope.Polytope, inner proposal.Proposal, t target.Target, jumpIndices []int, defaults []float64) (*ReversibleJump, error) {
	if len(jumpIndices) != len(defaults) {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "jump indices and default values dimension mismatch")
	}
	if len(jumpIndices) == 0 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "no jumpable coordinates")
	}
	masked, ok := inner.(proposal.MaskedProposer)
	if !ok {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "base proposal does not support masked moves")
	}
	n := p.N
	seen := make(map[int]bool, len(jumpIndices))
	for _, j := range jumpIndices {
		if j < 0 || j >= n {
			return nil, polywalk.NewError(polywalk.InvalidParameter, "jump index out of range")
		}
		if seen[j] {
			return nil, polywalk.NewError(polywalk.InvalidParameter, "duplicate jump index")
		}
		seen[j] = true
	}

	k := &ReversibleJump{
		Inner:                   inner,
		Target:                  t,
		ModelJumpProbability:    0.5,
		ActivationProbability:   0.1,
		DeactivationProbability: 0.1,
		p:                       p,
		masked:                  masked,
		jumpIndices:             append([]int(nil), jumpIndices...),
		defaults:                append([]float64(nil), defaults...),
		backward:                make([]float64, len(jumpIndices)),
		forward:                 make([]float64, len(jumpIndices)),
		activation:              make([]bool, n),
		activationProp:          make([]bool, n),
		paramProp:               make([]float64, n),
		concatState:             make([]float64, 2*n),
		concatProp:              make([]float64, 2*n),
	}
	for i := range k.activation {
		k.activation[i] = true
	}

	state := append([]float64(nil), inner.GetState()...)
	for i, j := range jumpIndices {
		state[j] = defaults[i]
		k.activation[j] = false
		k.backward[i], k.forward[i] = chordThroughDefault(p, j, defaults[i])
	}
	if err := inner.SetState(state); err != nil {
		return nil, err
	}
	return k, nil
}

// chordThroughDefault computes the feasible interval around value
// along axis j under the default-valued reference point: slacks are
// taken against A[:,j]*value alone, with indeterminate (0/0) rows
// dropped, and the interval clamped to contain 0.
func chordThroughDefault(p *polytope.Polytope, j int, value float64) (backward, forward float64) {
	maxQ := math.Inf(-1)
	minQ := math.Inf(1)
	for i := range p.B {
		a := p.A.At(i, j)
		slack := p.B[i] - a*value
		q := a / slack
		if math.IsNaN(q) {
			continue
		}
		if q > maxQ {
			maxQ = q
		}
		if q < minQ {
			minQ = q
		}
	}
	forward = math.Inf(1)
	if maxQ > 0 {
		forward = 1 / maxQ
	}
	backward = math.Inf(-1)
	if minQ < 0 {
		backward = 1 / minQ
	}
	if forward < 0 {
		forward = 0
	}
	if backward > 0 {
		backward = 0
	}
	return backward, forward
}

// IsModelAware reports true: both move types already include the
// target density difference in their log-correction.
func (k *ReversibleJump) IsModelAware() bool { return true }

func (k *ReversibleJump) Propose(r rng.UniformRng) ([]float64, float64) {
	if r.Float64() < k.ModelJumpProbability {
		k.lastJumped = true
		return k.proposeModel(r)
	}
	k.lastJumped = false
	copy(k.activationProp, k.activation)
	candidate, logCorrection := k.masked.ProposeMasked(r, k.activation)
	if !math.IsInf(logCorrection, -1) {
		x := k.Inner.GetState()
		logCorrection += k.Target.NegLogProb(x) - k.Target.NegLogProb(candidate)
	}
	return k.wrap(k.concatProp, k.activationProp, candidate), logCorrection
}

// proposeModel toggles each jumpable coordinate independently:
// activation with probability ActivationProbability, deactivation
// with DeactivationProbability. The log-acceptance collects the
// proposal-asymmetry terms log(p_off/p_on) per activation (negated
// per deactivation) plus the target density difference; the uniform
// chord Jacobians cancel because the chord widths are fixed under the
// default-valued reference.
func (k *ReversibleJump) proposeModel(r rng.UniformRng) ([]float64, float64) {
	x := k.Inner.GetState()
	copy(k.paramProp, x)
	copy(k.activationProp, k.activation)
	logAlpha := 0.0

	for i, j := range k.jumpIndices {
		isActive := k.activation[j]
		jumpProb := k.ActivationProbability
		if isActive {
			jumpProb = k.DeactivationProbability
		}
		k.activationProp[j] = isActive
		if r.Float64() < jumpProb {
			k.activationProp[j] = !isActive
		}

		switch {
		case isActive && !k.activationProp[j]:
			logAlpha += math.Log(k.ActivationProbability) - math.Log(k.DeactivationProbability)
			k.paramProp[j] = k.defaults[i]
		case !isActive && k.activationProp[j]:
			logAlpha += math.Log(k.DeactivationProbability) - math.Log(k.ActivationProbability)
			k.paramProp[j] = k.defaults[i] + k.backward[i] + r.Float64()*(k.forward[i]-k.backward[i])
		}
	}

	if !k.p.Feasible(k.paramProp) {
		k.jumpLogAlpha = math.Inf(-1)
		return k.wrap(k.concatProp, k.activationProp, k.paramProp), k.jumpLogAlpha
	}
	logAlpha += k.Target.NegLogProb(x) - k.Target.NegLogProb(k.paramProp)
	k.jumpLogAlpha = logAlpha
	return k.wrap(k.concatProp, k.activationProp, k.paramProp), k.jumpLogAlpha
}

func (k *ReversibleJump) Accept() []float64 {
	copy(k.activation, k.activationProp)
	if k.lastJumped {
		// The jump candidate was built outside the base kernel; rehome
		// it. Feasibility was checked at proposal time.
		if err := k.Inner.SetState(k.paramProp); err != nil {
			// Cushion-boundary drift between the proposal-time check and
			// now is impossible: nothing moved the state in between.
			panic("rjmcmc: accepted jump state rejected by base proposal: " + err.Error())
		}
		return k.wrap(k.concatState, k.activation, k.Inner.GetState())
	}
	return k.wrap(k.concatState, k.activation, k.Inner.Accept())
}

// SetState expects the concatenated (mask, x) layout produced by
// GetState: the first n entries are activation indicators (nonzero
// means active), the last n the parameter vector.
func (k *ReversibleJump) SetState(state []float64) error {
	n := k.p.N
	if len(state) != 2*n {
		return polywalk.NewError(polywalk.InvalidParameter, "state must be the concatenated activation mask and coordinates")
	}
	if err := k.Inner.SetState(state[n:]); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		k.activation[i] = state[i] != 0
	}
	return nil
}

func (k *ReversibleJump) GetState() []float64 {
	return k.wrap(k.concatState, k.activation, k.Inner.GetState())
}

func (k *ReversibleJump) GetProposal() []float64 {
	if k.lastJumped {
		return k.wrap(k.concatProp, k.activationProp, k.paramProp)
	}
	return k.wrap(k.concatProp, k.activationProp, k.Inner.GetProposal())
}

func (k *ReversibleJump) wrap(dst []float64, activation []bool, params []float64) []float64 {
	n := k.p.N
	for i := 0; i < n; i++ {
		dst[i] = 0
		if activation[i] {
			dst[i] = 1
		}
		dst[n+i] = params[i]
	}
	return dst
}

// ClearHistory forwards to the base kernel when it keeps history.
func (k *ReversibleJump) ClearHistory() {
	if hc, ok := k.Inner.(proposal.HistoryClearer); ok {
		hc.ClearHistory()
	}
}

// Parameter exposes the jump probabilities alongside the base
// kernel's parameters.
func (k *ReversibleJump) Parameter(name polywalk.Parameter) (float64, bool) {
	switch name {
	case polywalk.ModelJumpProbability:
		return k.ModelJumpProbability, true
	case polywalk.ActivationProbability:
		return k.ActivationProbability, true
	case polywalk.DeactivationProbability:
		return k.DeactivationProbability, true
	}
	if params, ok := k.Inner.(proposal.Parameters); ok {
		return params.Parameter(name)
	}
	return 0, false
}

// SetParameter validates that each probability lies in [0, 1);
// anything else is InvalidParameter. Unknown names forward to the
// base kernel.
func (k *ReversibleJump) SetParameter(name polywalk.Parameter, value float64) error {
	switch name {
	case polywalk.ModelJumpProbability, polywalk.ActivationProbability, polywalk.DeactivationProbability:
		if value < 0 || value >= 1 {
			return polywalk.NewError(polywalk.InvalidParameter, name.String()+" must lie in [0, 1)")
		}
	}
	switch name {
	case polywalk.ModelJumpProbability:
		k.ModelJumpProbability = value
	case polywalk.ActivationProbability:
		k.ActivationProbability = value
	case polywalk.DeactivationProbability:
		k.DeactivationProbability = value
	default:
		if params, ok := k.Inner.(proposal.Parameters); ok {
			return params.SetParameter(name, value)
		}
		return polywalk.NewError(polywalk.InvalidParameter, "unsupported parameter "+name.String())
	}
	return nil
}
