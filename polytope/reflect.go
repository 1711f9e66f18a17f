// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package polytope

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// reflectionTolerance is the slack threshold at or below which a
// constraint counts as hit and its facet reflects the trajectory.
const reflectionTolerance = 1e-15

// slackResyncInterval bounds how many incremental slack updates may
// accumulate before the slacks are recomputed from the position,
// limiting drift over very long billiard trajectories.
const slackResyncInterval = 512

// ReflectResult is the outcome of a billiard reflection.
type ReflectResult struct {
	Success bool
	Count   int // number of border hits
	Point   []float64
}

// Reflect maps the trajectory start->end back into the polytope by
// elastic reflection off the constraint facets it crosses, up to
// maxReflections border hits. start must already be feasible. A
// border hit counts once even when several facets meet there (a
// corner); every facet whose slack has fallen to the tolerance
// reflects the direction in sequence within that hit. On failure (the
// cap was reached with trajectory length still to traverse), Point is
// the original end, forcing the caller to reject the candidate.
func Reflect(p *Polytope, start, end []float64, maxReflections int) ReflectResult {
	n := p.N
	current := make([]float64, n)
	copy(current, start)

	direction := make([]float64, n)
	floats.SubTo(direction, end, start)
	length := floats.Norm(direction, 2)
	if length == 0 {
		return ReflectResult{Success: true, Count: 0, Point: current}
	}
	originalLength := length
	floats.Scale(1/length, direction)

	s := p.Slacks(current)
	active := make([]bool, len(p.B))
	for i := range active {
		active[i] = true
	}

	// Kahan-compensated distance travelled: the remaining length is
	// always derived from the original, not decremented in place, so
	// the subtraction error cannot compound across many bounces.
	var travelled, comp float64

	count := 0
	for {
		delta := borderDistance(p, active, s, direction)
		if length < delta {
			floats.AddScaled(current, length, direction)
			return ReflectResult{Success: true, Count: count, Point: current}
		}

		count++
		y := delta - comp
		t := travelled + y
		comp = (t - travelled) - y
		travelled = t
		length = originalLength - travelled

		floats.AddScaled(current, delta, direction)
		if count%slackResyncInterval == 0 {
			p.SlacksInto(current, s)
		} else {
			for i := range s {
				s[i] -= p.A.Dot(i, direction) * delta
			}
		}
		for i := range s {
			if s[i] <= reflectionTolerance {
				active[i] = false
				reflectAcross(p, i, direction)
			} else {
				active[i] = true
			}
		}

		if !(length > 0 && count < maxReflections) {
			break
		}
	}
	if count < maxReflections {
		return ReflectResult{Success: true, Count: count, Point: current}
	}
	pt := make([]float64, n)
	copy(pt, end)
	return ReflectResult{Success: false, Count: count, Point: pt}
}

// borderDistance returns the distance to the nearest active facet
// along direction, +Inf when nothing ahead limits the move.
func borderDistance(p *Polytope, active []bool, s, direction []float64) float64 {
	maxQ := math.Inf(-1)
	for i := range p.B {
		if !active[i] {
			continue
		}
		q := p.A.Dot(i, direction) / s[i]
		if math.IsInf(q, 0) || math.IsNaN(q) {
			continue
		}
		if q > maxQ {
			maxQ = q
		}
	}
	if maxQ <= 0 {
		return math.Inf(1)
	}
	return 1 / maxQ
}

// reflectAcross mirrors direction across facet j's normal:
// d <- d - 2 (d . a_j) a_j / ||a_j||^2.
func reflectAcross(p *Polytope, j int, direction []float64) {
	normSq := p.A.RowNormSq(j)
	if normSq == 0 {
		return
	}
	dot := p.A.Dot(j, direction)
	alpha := -2 * dot / normSq
	p.A.AddRowScaled(j, alpha, direction)
}
