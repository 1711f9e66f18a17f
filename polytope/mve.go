// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package polytope

import "gonum.org/v1/gonum/mat"

// MVE is the cached result of a maximum-volume-ellipsoid computation:
// a symmetric positive-definite matrix E and its lower-triangular
// Cholesky factor L, with x^T E^-1 x <= 1 describing the largest
// ellipsoid inscribed in a polytope. It is built once per polytope and
// shared immutably across chains.
type MVE struct {
	E *mat.SymDense
	L *mat.TriDense // lower-triangular Cholesky factor of E
}

// MVEBuilder is the external collaborator that computes a
// maximum-volume inscribed ellipsoid for a polytope, typically a
// Khachiyan-style interior-point routine. polywalk never
// implements this itself; callers wanting a default rounding transform
// must supply one.
type MVEBuilder interface {
	Build(p *Polytope) (*MVE, error)
}

// SolverStatus is the status returned by an external LP solve.
type SolverStatus int

const (
	Optimal SolverStatus = iota
	Infeasible
	Unbounded
	Undefined
	SolverError
)

// LPResult is the return shape of an external LP solver call.
type LPResult struct {
	Objective float64
	X         []float64
	Status    SolverStatus
}

// ChebyshevSolver is the external linear-program collaborator used to
// find a default interior starting point and to simplify a polytope's
// description. polywalk depends only on this
// interface; no implementation ships in the core.
type ChebyshevSolver interface {
	// Solve minimizes/maximizes c^T x over the solver's configured
	// feasible region.
	Solve(c []float64) LPResult
	// ChebyshevCenter maximizes r subject to A x + r ||a_i|| <= b_i,
	// returning the deepest interior point and its radius.
	ChebyshevCenter() LPResult
	// RemoveRedundantConstraints drops rows of A that are implied by
	// the others to within tol.
	RemoveRedundantConstraints(tol float64) error
	// UnconstrainedDimensions returns indices of coordinates with no
	// finite bound in either direction.
	UnconstrainedDimensions() []int
	// AddBoxConstraints intersects the feasible region with a box
	// [lb, ub].
	AddBoxConstraints(lb, ub []float64) error
}
