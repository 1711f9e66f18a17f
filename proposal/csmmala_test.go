// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proposal

import (
	"errors"
	"math"
	"testing"

	"github.com/polywalk/polywalk"
	"github.com/polywalk/polywalk/rng"
	"github.com/polywalk/polywalk/target/gauss"
	"github.com/polywalk/polywalk/target/rosenbrock"
)

func TestCSmMALAParameterValidation(t *testing.T) {
	p := cube(2, 5)
	start := []float64{0, 0}
	model := gauss.Standard(2)
	var perr *polywalk.Error
	if _, err := NewCSmMALA(p, start, model, 0, 0.5, 1); !errors.As(err, &perr) || perr.Kind != polywalk.InvalidParameter {
		t.Errorf("tau=0: got %v, want InvalidParameter", err)
	}
	if _, err := NewCSmMALA(p, start, model, 1, 1.5, 1); !errors.As(err, &perr) || perr.Kind != polywalk.InvalidParameter {
		t.Errorf("weight=1.5: got %v, want InvalidParameter", err)
	}
}

func TestCSmMALAGaussianTarget(t *testing.T) {
	p := cube(2, 50)
	model := gauss.Standard(2)
	k, err := NewCSmMALA(p, []float64{1, -1}, model, 1, 0.5, 1)
	if err != nil {
		t.Fatal(err)
	}
	r := rng.NewPCG(107, 109)
	finite := 0
	for i := 0; i < 200; i++ {
		candidate, logAlpha := k.Propose(r)
		if math.IsInf(logAlpha, -1) {
			continue
		}
		finite++
		if math.IsNaN(logAlpha) {
			t.Fatalf("log-acceptance NaN at candidate %v", candidate)
		}
		if !p.Feasible(candidate) {
			t.Fatalf("finite-acceptance candidate %v infeasible", candidate)
		}
		if logAlpha > 0 || r.Float64() < math.Exp(logAlpha) {
			k.Accept()
		}
	}
	if finite == 0 {
		t.Error("CSmMALA never produced a usable candidate")
	}
}

func TestCSmMALARosenbrockTarget(t *testing.T) {
	p := cube(2, 100)
	model, err := rosenbrock.New(0.1, []float64{1})
	if err != nil {
		t.Fatal(err)
	}
	k, err := NewCSmMALA(p, []float64{0.5, 0.5}, model, 0.5, 0.5, 1)
	if err != nil {
		t.Fatal(err)
	}
	r := rng.NewPCG(113, 127)
	for i := 0; i < 100; i++ {
		_, logAlpha := k.Propose(r)
		if math.IsNaN(logAlpha) {
			t.Fatal("log-acceptance NaN on Rosenbrock target")
		}
		if !math.IsInf(logAlpha, -1) && (logAlpha > 0 || r.Float64() < math.Exp(logAlpha)) {
			k.Accept()
		}
	}
}

func TestBilliardMALACachesGaussianMetric(t *testing.T) {
	p := cube(2, 50)
	model := gauss.Standard(2)
	k, err := NewBilliardMALA(p, []float64{1, 1}, model, 1, 0.5, 1, 200)
	if err != nil {
		t.Fatal(err)
	}
	if !k.cached {
		t.Fatal("constant Gaussian metric was not cached at construction")
	}
	r := rng.NewPCG(131, 137)
	for i := 0; i < 200; i++ {
		candidate, logAlpha := k.Propose(r)
		if math.IsInf(logAlpha, -1) {
			continue
		}
		if !p.Feasible(candidate) {
			t.Fatalf("billiard-MALA candidate %v infeasible with finite acceptance", candidate)
		}
		if logAlpha > 0 || r.Float64() < math.Exp(logAlpha) {
			k.Accept()
		}
	}
}

func TestBilliardMALARejectionCapValidation(t *testing.T) {
	p := cube(2, 5)
	model := gauss.Standard(2)
	var perr *polywalk.Error
	_, err := NewBilliardMALA(p, []float64{0, 0}, model, 1, 0.5, 1, 0)
	if !errors.As(err, &perr) || perr.Kind != polywalk.InvalidParameter {
		t.Errorf("cap=0: got %v, want InvalidParameter", err)
	}
}
