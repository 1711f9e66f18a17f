// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package polywalk samples from probability distributions supported on
// convex polytopes {x : A x <= b} using Markov-chain Monte Carlo.
//
// The package is organized as a set of composable proposal kernels
// (package proposal), a polytope/reflection geometry layer (package
// polytope), a Metropolis-Hastings acceptance filter (package mh), and
// higher-level compositions for rounding, tempering, reversible-jump
// model search, and step-size tuning (packages transform, tempering,
// rjmcmc, tuning). The chain package drives a proposal to produce a
// record of draws.
package polywalk // import "github.com/polywalk/polywalk"

// ErrorKind classifies the recoverable and fatal failure modes that the
// sampler surfaces to callers.
type ErrorKind int

const (
	// InvalidPolytope means A and b have mismatched dimensions, A has an
	// empty row set, or the polytope has no interior.
	InvalidPolytope ErrorKind = iota
	// StartingPointOutsidePolytope means a proposal or chain was
	// constructed with a starting state that fails A x <= b.
	StartingPointOutsidePolytope
	// InvalidParameter means a parameter value lies outside its
	// admissible range (e.g. a probability >= 1, a negative step size).
	InvalidParameter
	// NumericFailure means a Cholesky or SVD factorization failed to
	// converge. At a candidate state this is recoverable (the proposal
	// is rejected); at the current state after construction it is
	// fatal.
	NumericFailure
	// ExternalSolverUnavailable means an LP solver or MVE builder was
	// required but not configured.
	ExternalSolverUnavailable
	// ReflectionExceeded means the billiard Reflector reached its
	// iteration cap before finding an interior endpoint.
	ReflectionExceeded
	// MpiTransportFailure means a parallel-tempering exchange failed to
	// complete; the exchange step aborts but the chains continue.
	MpiTransportFailure
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidPolytope:
		return "InvalidPolytope"
	case StartingPointOutsidePolytope:
		return "StartingPointOutsidePolytope"
	case InvalidParameter:
		return "InvalidParameter"
	case NumericFailure:
		return "NumericFailure"
	case ExternalSolverUnavailable:
		return "ExternalSolverUnavailable"
	case ReflectionExceeded:
		return "ReflectionExceeded"
	case MpiTransportFailure:
		return "MpiTransportFailure"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by fallible constructors and fatal
// failures throughout polywalk.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Msg
}

// NewError builds an *Error of the given kind with a descriptive message.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Parameter is a stable identifier for the tagged parameter dictionary
// that proposal kernels optionally expose.
type Parameter int

const (
	StepSize Parameter = iota
	FisherWeight
	Coldness
	Epsilon
	BoundaryCushion
	WarmUp
	MaxReflections
	ModelJumpProbability
	ActivationProbability
	DeactivationProbability
)

func (p Parameter) String() string {
	switch p {
	case StepSize:
		return "STEP_SIZE"
	case FisherWeight:
		return "FISHER_WEIGHT"
	case Coldness:
		return "COLDNESS"
	case Epsilon:
		return "EPSILON"
	case BoundaryCushion:
		return "BOUNDARY_CUSHION"
	case WarmUp:
		return "WARM_UP"
	case MaxReflections:
		return "MAX_REFLECTIONS"
	case ModelJumpProbability:
		return "MODEL_JUMP_PROBABILITY"
	case ActivationProbability:
		return "ACTIVATION_PROBABILITY"
	case DeactivationProbability:
		return "DEACTIVATION_PROBABILITY"
	default:
		return "UNKNOWN"
	}
}
