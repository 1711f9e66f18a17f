// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transform

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/polywalk/polywalk/polytope"
	"github.com/polywalk/polywalk/proposal"
	"github.com/polywalk/polywalk/rng"
)

func cube(n int, r float64) *polytope.Polytope {
	a := mat.NewDense(2*n, n, nil)
	b := make([]float64, 2*n)
	for i := 0; i < n; i++ {
		a.Set(i, i, 1)
		a.Set(n+i, i, -1)
		b[i] = r
		b[n+i] = r
	}
	p, err := polytope.New(polytope.DenseA{M: a}, b, 0)
	if err != nil {
		panic(err)
	}
	return p
}

func TestAffineValidation(t *testing.T) {
	if _, err := NewAffine(mat.NewDense(2, 3, nil), []float64{0, 0}); err == nil {
		t.Error("non-square matrix accepted")
	}
	if _, err := NewAffine(mat.NewDense(2, 2, nil), []float64{0}); err == nil {
		t.Error("shift dimension mismatch accepted")
	}
}

func TestAffineRoundTripTriangular(t *testing.T) {
	l := mat.NewTriDense(2, mat.Lower, nil)
	l.SetTri(0, 0, 2)
	l.SetTri(1, 0, 1)
	l.SetTri(1, 1, 3)
	m, err := NewAffine(l, []float64{-1, 4})
	if err != nil {
		t.Fatal(err)
	}
	x := []float64{0.5, -0.25}
	y := m.Apply(x)
	want := []float64{2*0.5 - 1, 0.5 - 3*0.25 + 4}
	if !floats.EqualApprox(y, want, 1e-14) {
		t.Errorf("Apply: got %v, want %v", y, want)
	}
	back, err := m.ApplyInverse(y)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(back, x, 1e-12) {
		t.Errorf("round trip: got %v, want %v", back, x)
	}
}

func TestAffineRoundTripGeneral(t *testing.T) {
	d := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	m, err := NewAffine(d, []float64{0.5, -0.5})
	if err != nil {
		t.Fatal(err)
	}
	x := []float64{1, -1}
	back, err := m.ApplyInverse(m.Apply(x))
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(back, x, 1e-12) {
		t.Errorf("round trip: got %v, want %v", back, x)
	}
}

func TestAffineSingular(t *testing.T) {
	l := mat.NewTriDense(2, mat.Lower, nil)
	l.SetTri(0, 0, 1)
	// l[1,1] stays zero.
	m, err := NewAffine(l, []float64{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ApplyInverse([]float64{1, 1}); err == nil {
		t.Error("singular triangular inverse succeeded")
	}
}

func TestStateTransformedReportsOuterSpace(t *testing.T) {
	p := cube(2, 1)
	inner, err := proposal.NewCoordinateHitAndRun(p, []float64{0, 0}, proposal.UniformChord{})
	if err != nil {
		t.Fatal(err)
	}
	l := mat.NewTriDense(2, mat.Lower, nil)
	l.SetTri(0, 0, 2)
	l.SetTri(1, 1, 2)
	m, err := NewAffine(l, []float64{10, -10})
	if err != nil {
		t.Fatal(err)
	}
	st := NewStateTransformed(inner, m)

	r := rng.NewPCG(263, 269)
	for i := 0; i < 100; i++ {
		candidate, logCorrection := st.Propose(r)
		if logCorrection != 0 {
			t.Fatalf("uniform CHRR through a transform gave correction %v", logCorrection)
		}
		// The outer candidate is the affine image of an inner point in
		// [-1,1]^2, so it lives in [8,12] x [-12,-8].
		if candidate[0] < 8-1e-9 || candidate[0] > 12+1e-9 || candidate[1] < -12-1e-9 || candidate[1] > -8+1e-9 {
			t.Fatalf("outer candidate %v outside the transformed cube", candidate)
		}
		x := st.Accept()
		back, err := m.ApplyInverse(x)
		if err != nil {
			t.Fatal(err)
		}
		if !p.Feasible(back) {
			t.Fatalf("inner pre-image %v infeasible", back)
		}
	}
}

func TestStateTransformedSetState(t *testing.T) {
	p := cube(2, 1)
	inner, err := proposal.NewCoordinateHitAndRun(p, []float64{0, 0}, proposal.UniformChord{})
	if err != nil {
		t.Fatal(err)
	}
	l := mat.NewTriDense(2, mat.Lower, nil)
	l.SetTri(0, 0, 2)
	l.SetTri(1, 1, 2)
	m, _ := NewAffine(l, []float64{10, -10})
	st := NewStateTransformed(inner, m)

	if err := st.SetState([]float64{11, -11}); err != nil {
		t.Fatalf("feasible outer state rejected: %v", err)
	}
	got := st.GetState()
	if math.Abs(got[0]-11) > 1e-12 || math.Abs(got[1]+11) > 1e-12 {
		t.Errorf("outer state: got %v, want [11 -11]", got)
	}
	// (14, -10) maps back to x = (2, 0), outside the unit cube.
	if err := st.SetState([]float64{14, -10}); err == nil {
		t.Error("outer state with infeasible pre-image accepted")
	}
}
