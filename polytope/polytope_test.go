// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package polytope

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/polywalk/polywalk"
)

// cube returns the unit-radius box [-1,1]^n as A = [I; -I], b = 1.
func cube(n int) *Polytope {
	a := mat.NewDense(2*n, n, nil)
	b := make([]float64, 2*n)
	for i := 0; i < n; i++ {
		a.Set(i, i, 1)
		a.Set(n+i, i, -1)
		b[i] = 1
		b[n+i] = 1
	}
	p, err := New(DenseA{M: a}, b, 0)
	if err != nil {
		panic(err)
	}
	return p
}

func TestNewValidation(t *testing.T) {
	for _, test := range []struct {
		name    string
		a       *mat.Dense
		b       []float64
		cushion float64
		want    polywalk.ErrorKind
	}{
		{
			name: "dimension mismatch",
			a:    mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
			b:    []float64{1},
			want: polywalk.InvalidPolytope,
		},
		{
			name:    "negative cushion",
			a:       mat.NewDense(1, 1, []float64{1}),
			b:       []float64{1},
			cushion: -1e-3,
			want:    polywalk.InvalidParameter,
		},
	} {
		_, err := New(DenseA{M: test.a}, test.b, test.cushion)
		var perr *polywalk.Error
		if !errors.As(err, &perr) {
			t.Errorf("%s: got err=%v, want *polywalk.Error", test.name, err)
			continue
		}
		if perr.Kind != test.want {
			t.Errorf("%s: got kind %v, want %v", test.name, perr.Kind, test.want)
		}
	}
}

func TestSlacks(t *testing.T) {
	p := cube(2)
	x := []float64{0.5, -0.25}
	s := p.Slacks(x)
	want := []float64{0.5, 1.25, 1.5, 0.75}
	if !floats.EqualApprox(s, want, 1e-15) {
		t.Errorf("got slacks %v, want %v", s, want)
	}
	if !p.FeasibleSlacks(s) {
		t.Error("interior point reported infeasible slacks")
	}
	if p.Feasible([]float64{1.5, 0}) {
		t.Error("exterior point reported feasible")
	}
}

func TestCheckStart(t *testing.T) {
	p := cube(2)
	if err := p.CheckStart([]float64{0, 0}); err != nil {
		t.Errorf("center rejected: %v", err)
	}
	err := p.CheckStart([]float64{2, 0})
	var perr *polywalk.Error
	if !errors.As(err, &perr) || perr.Kind != polywalk.StartingPointOutsidePolytope {
		t.Errorf("exterior start: got %v, want StartingPointOutsidePolytope", err)
	}
	err = p.CheckStart([]float64{0})
	if !errors.As(err, &perr) || perr.Kind != polywalk.StartingPointOutsidePolytope {
		t.Errorf("dimension mismatch: got %v, want StartingPointOutsidePolytope", err)
	}
}

func TestChordCube(t *testing.T) {
	p := cube(2)
	x := []float64{0.5, 0}
	s := p.Slacks(x)

	backward, forward := p.Chord(s, []float64{1, 0})
	if math.Abs(forward-0.5) > 1e-14 || math.Abs(backward+1.5) > 1e-14 {
		t.Errorf("chord along e_0 from (0.5,0): got [%v, %v], want [-1.5, 0.5]", backward, forward)
	}

	backward, forward = p.ChordCoordinate(s, 1)
	if math.Abs(forward-1) > 1e-14 || math.Abs(backward+1) > 1e-14 {
		t.Errorf("coordinate chord along e_1: got [%v, %v], want [-1, 1]", backward, forward)
	}
}

func TestChordUnboundedDirection(t *testing.T) {
	// Half-space x <= 1: the backward direction is unbounded.
	a := mat.NewDense(1, 1, []float64{1})
	p, err := New(DenseA{M: a}, []float64{1}, 0)
	if err != nil {
		t.Fatal(err)
	}
	s := p.Slacks([]float64{0})
	backward, forward := p.Chord(s, []float64{1})
	if forward != 1 {
		t.Errorf("forward: got %v, want 1", forward)
	}
	if !math.IsInf(backward, -1) {
		t.Errorf("backward: got %v, want -Inf", backward)
	}
}

func TestSparseMatchesDense(t *testing.T) {
	dense := mat.NewDense(3, 2, []float64{
		-1, 0,
		0, -1,
		1, 1,
	})
	sparse := SparseA{
		NRows: 3, NCols: 2,
		RowStart: []int{0, 1, 2, 4},
		Indices:  []int{0, 1, 0, 1},
		Values:   []float64{-1, -1, 1, 1},
	}
	x := []float64{0.25, 0.5}
	dst1 := make([]float64, 2)
	dst2 := make([]float64, 2)
	for i := 0; i < 3; i++ {
		d := DenseA{M: dense}
		if got, want := sparse.Dot(i, x), d.Dot(i, x); math.Abs(got-want) > 1e-15 {
			t.Errorf("row %d: sparse dot %v != dense dot %v", i, got, want)
		}
		if got, want := sparse.RowNormSq(i), d.RowNormSq(i); got != want {
			t.Errorf("row %d: sparse norm %v != dense norm %v", i, got, want)
		}
		for j := 0; j < 2; j++ {
			if got, want := sparse.At(i, j), d.At(i, j); got != want {
				t.Errorf("at (%d,%d): sparse %v != dense %v", i, j, got, want)
			}
		}
		sparse.AddRowScaled(i, 0.5, dst1)
		DenseA{M: dense}.AddRowScaled(i, 0.5, dst2)
	}
	if !floats.EqualApprox(dst1, dst2, 1e-15) {
		t.Errorf("AddRowScaled: sparse %v != dense %v", dst1, dst2)
	}
}

func TestDikinMetricCube(t *testing.T) {
	p := cube(2)
	s := p.Slacks([]float64{0, 0})
	h := DikinMetric(p, s)
	// At the center of the unit cube every slack is 1, so H = 2 I.
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			want := 0.0
			if i == j {
				want = 2
			}
			if math.Abs(h.At(i, j)-want) > 1e-14 {
				t.Errorf("H[%d,%d] = %v, want %v", i, j, h.At(i, j), want)
			}
		}
	}
	l, logDet, ok := Cholesky(h)
	if !ok {
		t.Fatal("Dikin metric at center not SPD")
	}
	if math.Abs(logDet-math.Log(4)) > 1e-12 {
		t.Errorf("log det: got %v, want log 4", logDet)
	}
	x := SolveLowerTransposed(l, []float64{1, 1})
	want := 1 / math.Sqrt2
	if math.Abs(x[0]-want) > 1e-12 || math.Abs(x[1]-want) > 1e-12 {
		t.Errorf("L^-T [1 1]: got %v, want [%v %v]", x, want, want)
	}
}
