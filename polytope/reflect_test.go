// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package polytope

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestReflectHalfLine(t *testing.T) {
	// Single constraint -x <= 0 (x >= 0): the trajectory 1 -> -9
	// bounces off the origin once and lands at 9.
	a := mat.NewDense(1, 1, []float64{-1})
	p, err := New(DenseA{M: a}, []float64{0}, 0)
	if err != nil {
		t.Fatal(err)
	}
	res := Reflect(p, []float64{1}, []float64{-9}, 200)
	if !res.Success {
		t.Fatal("reflection failed")
	}
	if res.Count != 1 {
		t.Errorf("got %d reflections, want 1", res.Count)
	}
	if math.Abs(res.Point[0]-9) > 1e-12 {
		t.Errorf("got endpoint %v, want 9", res.Point[0])
	}
}

func TestReflectIntoSimplex(t *testing.T) {
	// Unit simplex x >= 0, y >= 0, x+y <= 1: the diagonal trajectory
	// (0.25,0.25) -> (1,1) reflects off the hypotenuse and then hits
	// the corner, ending at the origin after exactly two bounces.
	a := mat.NewDense(3, 2, []float64{
		-1, 0,
		0, -1,
		1, 1,
	})
	p, err := New(DenseA{M: a}, []float64{0, 0, 1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	res := Reflect(p, []float64{0.25, 0.25}, []float64{1, 1}, 3)
	if !res.Success {
		t.Fatal("reflection failed")
	}
	if res.Count != 2 {
		t.Errorf("got %d reflections, want 2", res.Count)
	}
	if math.Abs(res.Point[0]) > 1e-12 || math.Abs(res.Point[1]) > 1e-12 {
		t.Errorf("got endpoint %v, want (0,0)", res.Point)
	}
}

func TestReflectFailureReturnsEnd(t *testing.T) {
	a := mat.NewDense(1, 1, []float64{-1})
	p, err := New(DenseA{M: a}, []float64{0}, 0)
	if err != nil {
		t.Fatal(err)
	}
	end := []float64{-9}
	res := Reflect(p, []float64{1}, end, 0)
	if res.Success {
		t.Fatal("expected failure with a zero reflection budget")
	}
	if res.Point[0] != end[0] {
		t.Errorf("failed reflection must return the unaltered end: got %v, want %v", res.Point[0], end[0])
	}
}

func TestReflectInteriorTrajectory(t *testing.T) {
	p := cube(2)
	res := Reflect(p, []float64{-0.5, -0.5}, []float64{0.5, 0.25}, 10)
	if !res.Success || res.Count != 0 {
		t.Fatalf("interior trajectory: success=%v count=%d, want success with no bounces", res.Success, res.Count)
	}
	if math.Abs(res.Point[0]-0.5) > 1e-12 || math.Abs(res.Point[1]-0.25) > 1e-12 {
		t.Errorf("got endpoint %v, want (0.5,0.25)", res.Point)
	}
}

func TestReflectZeroLength(t *testing.T) {
	p := cube(2)
	res := Reflect(p, []float64{0.1, 0.2}, []float64{0.1, 0.2}, 10)
	if !res.Success || res.Count != 0 {
		t.Fatalf("zero-length trajectory: success=%v count=%d", res.Success, res.Count)
	}
}

func TestReflectManyBouncesStaysInside(t *testing.T) {
	p := cube(3)
	start := []float64{0.1, -0.2, 0.3}
	end := []float64{25.4, -17.9, 31.1}
	res := Reflect(p, start, end, 1000)
	if !res.Success {
		t.Fatal("long trajectory failed to reflect within budget")
	}
	for _, v := range res.Point {
		if math.Abs(v) > 1+1e-9 {
			t.Errorf("reflected endpoint %v left the cube", res.Point)
			break
		}
	}
}
