// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tempering

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/polywalk/polywalk/chain"
	"github.com/polywalk/polywalk/mh"
	"github.com/polywalk/polywalk/polytope"
	"github.com/polywalk/polywalk/proposal"
	"github.com/polywalk/polywalk/rng"
	"github.com/polywalk/polywalk/target"
	"github.com/polywalk/polywalk/target/gauss"
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

// buildEnsemble wires numChains CHRR chains over a shared polytope,
// each targeting a Coldness wrapper of the same Gaussian.
func buildEnsemble(t *testing.T, numChains int, pExchange float64) *Ensemble {
	t.Helper()
	p := cube(2, 10)
	model := gauss.Standard(2)
	chains := make([]*chain.Chain, numChains)
	colds := make([]*target.Coldness, numChains)
	for k := 0; k < numChains; k++ {
		colds[k] = target.NewColdness(model, 1)
		prop, err := proposal.NewCoordinateHitAndRun(p, []float64{0, 0}, proposal.UniformChord{})
		if err != nil {
			t.Fatal(err)
		}
		c, err := chain.New(mh.NewFilter(prop, colds[k]), 1)
		if err != nil {
			t.Fatal(err)
		}
		chains[k] = c
	}
	e, err := New(chains, colds, pExchange)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestColdnessLadder(t *testing.T) {
	e := buildEnsemble(t, 4, 0.1)
	want := []float64{1, 2.0 / 3, 1.0 / 3, 0}
	for k, w := range want {
		if got := e.Coldness(k).Beta(); math.Abs(got-w) > 1e-14 {
			t.Errorf("chain %d coldness: got %v, want %v", k, got, w)
		}
	}
	e1 := buildEnsemble(t, 1, 0.1)
	if got := e1.Coldness(0).Beta(); got != 1 {
		t.Errorf("single-chain coldness: got %v, want 1", got)
	}
}

func TestOnlyColdChainRecords(t *testing.T) {
	e := buildEnsemble(t, 3, 0.2)
	rngs := []rng.UniformRng{rng.NewPCG(1, 1), rng.NewPCG(2, 2), rng.NewPCG(3, 3)}
	if err := e.Run(200, rngs, rng.NewPCG(9, 9)); err != nil {
		t.Fatal(err)
	}
	if got := len(e.Chains[0].States()); got != 200 {
		t.Errorf("cold chain recorded %d states, want 200", got)
	}
	for k := 1; k < 3; k++ {
		if got := len(e.Chains[k].States()); got != 0 {
			t.Errorf("hot chain %d recorded %d states, want 0", k, got)
		}
	}
}

func TestRunKeepsStatesFeasible(t *testing.T) {
	e := buildEnsemble(t, 3, 0.5)
	rngs := []rng.UniformRng{rng.NewPCG(11, 1), rng.NewPCG(12, 2), rng.NewPCG(13, 3)}
	if err := e.Run(500, rngs, rng.NewPCG(7, 7)); err != nil {
		t.Fatal(err)
	}
	for _, x := range e.Chains[0].States() {
		if math.Abs(x[0]) > 10+1e-10 || math.Abs(x[1]) > 10+1e-10 {
			t.Fatalf("recorded state %v escaped the polytope", x)
		}
	}
}

func TestRunValidatesRngCount(t *testing.T) {
	e := buildEnsemble(t, 2, 0.1)
	if err := e.Run(10, []rng.UniformRng{rng.NewPCG(1, 1)}, rng.NewPCG(2, 2)); err == nil {
		t.Error("mismatched RNG count accepted")
	}
}

func TestExchangeEveryStepKeepsColdRecord(t *testing.T) {
	// Two chains, exchange attempted every step, same target at
	// coldness 1 and 0: the cold chain still records every draw, and
	// its record stays feasible whichever swaps were accepted.
	e := buildEnsemble(t, 2, 1)
	rngs := []rng.UniformRng{rng.NewPCG(21, 1), rng.NewPCG(22, 2)}
	if err := e.Run(300, rngs, rng.NewPCG(23, 3)); err != nil {
		t.Fatal(err)
	}
	if got := len(e.Chains[0].States()); got != 300 {
		t.Errorf("cold chain recorded %d states, want 300", got)
	}
	for _, x := range e.Chains[0].States() {
		if math.Abs(x[0]) > 10+1e-10 || math.Abs(x[1]) > 10+1e-10 {
			t.Fatalf("recorded state %v escaped the polytope", x)
		}
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, nil, 0.1); err == nil {
		t.Error("empty ensemble accepted")
	}
}
