// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package polytope implements the geometry primitives the sampling core
// shares: the half-space representation {x : A x <= b}, its slacks
// cache, chord (line-polytope intersection) arithmetic, and the
// billiard reflection primitive. It accepts both dense (gonum/mat) and
// sparse row-compressed constraint matrices through a common RowSource
// contract, mirroring distmv.Normal's split between a
// covariance Matrix interface and its Cholesky-derived internals.
package polytope

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/polywalk/polywalk"
)

// RowSource is the contract the constraint matrix A must satisfy. Both
// dense (DenseA) and sparse (SparseA) adapters implement it, so
// proposals never need to know which representation backs a Polytope.
type RowSource interface {
	// Dot returns row i of A dotted with x: (A x)_i.
	Dot(i int, x []float64) float64
	// At returns the single element A[i][j].
	At(i, j int) float64
	// AddRowScaled adds alpha*A[i,:] into dst in place.
	AddRowScaled(i int, alpha float64, dst []float64)
	// RowNormSq returns ||A[i,:]||^2.
	RowNormSq(i int) float64
	Rows() int
	Cols() int
}

// DenseA adapts a *mat.Dense row-major constraint matrix to RowSource.
type DenseA struct {
	M *mat.Dense
}

func (d DenseA) Dot(i int, x []float64) float64 {
	return floats.Dot(d.M.RawRowView(i), x)
}

func (d DenseA) Rows() int { r, _ := d.M.Dims(); return r }
func (d DenseA) Cols() int { _, c := d.M.Dims(); return c }
func (d DenseA) At(i, j int) float64 { return d.M.At(i, j) }

func (d DenseA) AddRowScaled(i int, alpha float64, dst []float64) {
	floats.AddScaled(dst, alpha, d.M.RawRowView(i))
}

func (d DenseA) RowNormSq(i int) float64 {
	row := d.M.RawRowView(i)
	return floats.Dot(row, row)
}

// SparseA adapts a row-compressed (CSR-like) constraint matrix to
// RowSource; advantageous when the number of constraints m greatly
// exceeds the dimension n.
type SparseA struct {
	NRows, NCols int
	// RowStart has length NRows+1; entries Indices[RowStart[i]:RowStart[i+1]]
	// and Values[RowStart[i]:RowStart[i+1]] are the nonzero columns/values
	// of row i.
	RowStart []int
	Indices  []int
	Values   []float64
}

func (s SparseA) Dot(i int, x []float64) float64 {
	var sum float64
	for k := s.RowStart[i]; k < s.RowStart[i+1]; k++ {
		sum += s.Values[k] * x[s.Indices[k]]
	}
	return sum
}

func (s SparseA) Rows() int { return s.NRows }
func (s SparseA) Cols() int { return s.NCols }

func (s SparseA) At(i, j int) float64 {
	for k := s.RowStart[i]; k < s.RowStart[i+1]; k++ {
		if s.Indices[k] == j {
			return s.Values[k]
		}
	}
	return 0
}

func (s SparseA) AddRowScaled(i int, alpha float64, dst []float64) {
	for k := s.RowStart[i]; k < s.RowStart[i+1]; k++ {
		dst[s.Indices[k]] += alpha * s.Values[k]
	}
}

func (s SparseA) RowNormSq(i int) float64 {
	var sum float64
	for k := s.RowStart[i]; k < s.RowStart[i+1]; k++ {
		sum += s.Values[k] * s.Values[k]
	}
	return sum
}

// Polytope is the half-space representation {x : A x <= b}, optionally
// relaxed by a non-negative boundary cushion for numerical safety.
type Polytope struct {
	A       RowSource
	B       []float64
	Cushion float64
	N       int // dimension
}

// New validates and builds a Polytope. It returns InvalidPolytope if A
// and b have mismatched dimensions or A has zero rows, and
// InvalidParameter if cushion is negative.
func New(a RowSource, b []float64, cushion float64) (*Polytope, error) {
	if a.Rows() == 0 {
		return nil, polywalk.NewError(polywalk.InvalidPolytope, "A has no rows")
	}
	if a.Rows() != len(b) {
		return nil, polywalk.NewError(polywalk.InvalidPolytope, "A and b dimension mismatch")
	}
	if cushion < 0 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "negative boundary cushion")
	}
	return &Polytope{A: a, B: b, Cushion: cushion, N: a.Cols()}, nil
}

// Slacks computes s = b - A x.
func (p *Polytope) Slacks(x []float64) []float64 {
	s := make([]float64, len(p.B))
	p.SlacksInto(x, s)
	return s
}

// SlacksInto computes s = b - A x into dst, which must have length
// len(p.B).
func (p *Polytope) SlacksInto(x []float64, dst []float64) {
	for i := range p.B {
		dst[i] = p.B[i] - p.A.Dot(i, x)
	}
}

// Feasible reports whether x satisfies A x <= b + cushion.
func (p *Polytope) Feasible(x []float64) bool {
	for i := range p.B {
		if p.A.Dot(i, x) > p.B[i]+p.Cushion {
			return false
		}
	}
	return true
}

// FeasibleSlacks reports whether a precomputed slacks vector satisfies
// s >= -cushion componentwise.
func (p *Polytope) FeasibleSlacks(s []float64) bool {
	for _, si := range s {
		if si < -p.Cushion {
			return false
		}
	}
	return true
}

// CheckStart validates that x is a feasible starting point, returning
// StartingPointOutsidePolytope otherwise. Every proposal constructor
// calls this before accepting an initial state.
func (p *Polytope) CheckStart(x []float64) error {
	if len(x) != p.N {
		return polywalk.NewError(polywalk.StartingPointOutsidePolytope, "dimension mismatch")
	}
	if !p.Feasible(x) {
		return polywalk.NewError(polywalk.StartingPointOutsidePolytope, "A x <= b violated at construction")
	}
	return nil
}

// DirectionCoeffs returns q_i = (A_i . direction) / s_i for every
// constraint i, the per-constraint inverse distance used by both the
// chord and reflection computations.
func (p *Polytope) DirectionCoeffs(s []float64, direction []float64) []float64 {
	q := make([]float64, len(p.B))
	for i := range p.B {
		q[i] = p.A.Dot(i, direction) / s[i]
	}
	return q
}

// Chord returns the signed interval [backward, forward] of feasible
// travel along direction from the state with slacks s:
//
//	forward  = 1 / max_i(q_i)   over q_i > 0
//	backward = 1 / min_i(q_i)   over q_i < 0
//
// For an interior state and a nonzero direction this satisfies
// backward < 0 < forward.
func (p *Polytope) Chord(s []float64, direction []float64) (backward, forward float64) {
	q := p.DirectionCoeffs(s, direction)
	return ChordFromCoeffs(q)
}

// ChordFromCoeffs computes the chord bounds from precomputed
// per-constraint coefficients q_i = (A_i . direction)/s_i.
func ChordFromCoeffs(q []float64) (backward, forward float64) {
	maxQ := math.Inf(-1)
	minQ := math.Inf(1)
	for _, qi := range q {
		if qi > 0 && qi > maxQ {
			maxQ = qi
		}
		if qi < 0 && qi < minQ {
			minQ = qi
		}
	}
	forward = math.Inf(1)
	if !math.IsInf(maxQ, -1) {
		forward = 1 / maxQ
	}
	backward = math.Inf(-1)
	if !math.IsInf(minQ, 1) {
		backward = 1 / minQ
	}
	return backward, forward
}

// ChordCoordinate is a convenience for coordinate hit-and-run: the
// chord along axis e_i, computed directly from column `axis` of A
// rather than a full direction dot product.
func (p *Polytope) ChordCoordinate(s []float64, axis int) (backward, forward float64) {
	q := make([]float64, len(p.B))
	for i := range p.B {
		q[i] = p.A.At(i, axis) / s[i]
	}
	return ChordFromCoeffs(q)
}
