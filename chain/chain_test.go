// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chain

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/polywalk/polywalk/mh"
	"github.com/polywalk/polywalk/polytope"
	"github.com/polywalk/polywalk/proposal"
	"github.com/polywalk/polywalk/rng"
	"github.com/polywalk/polywalk/target/gauss"
	"github.com/polywalk/polywalk/target/uniform"
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

func newCubeChain(t *testing.T, thinning int) *Chain {
	t.Helper()
	p := cube(2, 1)
	k, err := proposal.NewCoordinateHitAndRun(p, []float64{0, 0}, proposal.UniformChord{})
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(mh.NewFilter(k, uniform.Target{}), thinning)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewValidatesThinning(t *testing.T) {
	p := cube(2, 1)
	k, err := proposal.NewCoordinateHitAndRun(p, []float64{0, 0}, proposal.UniformChord{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(mh.NewFilter(k, uniform.Target{}), 0); err == nil {
		t.Error("thinning=0 accepted")
	}
}

func TestThinning(t *testing.T) {
	c := newCubeChain(t, 5)
	r := rng.NewPCG(199, 211)
	c.Draw(r, 100)
	rec := c.Record()
	if got := len(rec.States); got != 20 {
		t.Errorf("recorded %d states with thinning 5 over 100 draws, want 20", got)
	}
	if len(rec.Accepted) != 20 || len(rec.Timestamps) != 20 || len(rec.AcceptanceRates) != 20 {
		t.Error("record slices have inconsistent lengths")
	}
}

func TestTimestampsNonDecreasing(t *testing.T) {
	c := newCubeChain(t, 1)
	r := rng.NewPCG(223, 227)
	c.Draw(r, 50)
	ts := c.Record().Timestamps
	for i := 1; i < len(ts); i++ {
		if ts[i] < ts[i-1] {
			t.Fatalf("timestamps not monotone at %d: %d < %d", i, ts[i], ts[i-1])
		}
	}
}

func TestNegLogLikelihoodHistory(t *testing.T) {
	p := cube(2, 100)
	model := gauss.Standard(2)
	k, err := proposal.NewGaussian(p, []float64{0, 0}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(mh.NewFilter(k, model), 1)
	if err != nil {
		t.Fatal(err)
	}
	c.StoreNegLogLikelihood = true
	r := rng.NewPCG(229, 233)
	c.Draw(r, 40)
	rec := c.Record()
	if len(rec.NegLogLikelihoods) != len(rec.States) {
		t.Fatalf("NLL history length %d != states %d", len(rec.NegLogLikelihoods), len(rec.States))
	}
	for i, x := range rec.States {
		if got, want := rec.NegLogLikelihoods[i], model.NegLogProb(x); got != want {
			t.Fatalf("NLL[%d]: got %v, want %v", i, got, want)
		}
	}
}

func TestRecordingDisabled(t *testing.T) {
	c := newCubeChain(t, 1)
	c.Recording = false
	r := rng.NewPCG(239, 241)
	c.Draw(r, 30)
	if len(c.States()) != 0 {
		t.Error("disabled chain recorded states")
	}
	if c.Filter.NumProposals() != 30 {
		t.Error("disabled chain did not step")
	}
}

func TestClearHistoryKeepsState(t *testing.T) {
	c := newCubeChain(t, 1)
	r := rng.NewPCG(251, 257)
	c.Draw(r, 25)
	state := append([]float64(nil), c.State()...)
	c.ClearHistory()
	if len(c.States()) != 0 || c.AcceptanceRate() != 0 {
		t.Error("history not cleared")
	}
	for i, v := range c.State() {
		if v != state[i] {
			t.Fatal("ClearHistory moved the state")
		}
	}
}

func TestProposalInfoRecorded(t *testing.T) {
	p := cube(2, 1)
	k, err := proposal.NewBilliard(p, []float64{0, 0}, 1, 500)
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(mh.NewFilter(k, uniform.Target{}), 1)
	if err != nil {
		t.Fatal(err)
	}
	r := rng.NewPCG(269, 271)
	c.Draw(r, 25)
	rec := c.Record()
	if len(rec.ProposalInfos) != len(rec.States) {
		t.Fatalf("proposal info length %d != states %d", len(rec.ProposalInfos), len(rec.States))
	}
	for i, info := range rec.ProposalInfos {
		if _, ok := info["reflections"]; !ok {
			t.Fatalf("entry %d missing reflection count", i)
		}
	}
}

func TestStepSizeForwarding(t *testing.T) {
	p := cube(2, 1)
	k, err := proposal.NewBallWalk(p, []float64{0, 0}, 0.4)
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(mh.NewFilter(k, uniform.Target{}), 1)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := c.StepSize(); !ok || v != 0.4 {
		t.Errorf("StepSize: got (%v,%v), want (0.4,true)", v, ok)
	}
	if err := c.SetStepSize(0.9); err != nil {
		t.Fatal(err)
	}
	if v, _ := c.StepSize(); v != 0.9 {
		t.Errorf("after SetStepSize: got %v, want 0.9", v)
	}

	// A step-size-less proposal must refuse.
	chrr, err := proposal.NewCoordinateHitAndRun(p, []float64{0, 0}, proposal.UniformChord{})
	if err != nil {
		t.Fatal(err)
	}
	c2, err := New(mh.NewFilter(chrr, uniform.Target{}), 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c2.StepSize(); ok {
		t.Error("CHRR reported a step size")
	}
	if err := c2.SetStepSize(1); err == nil {
		t.Error("SetStepSize on CHRR succeeded")
	}
}
