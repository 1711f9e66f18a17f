// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proposal

import (
	"math"
	"testing"

	"github.com/polywalk/polywalk/rng"
	"github.com/polywalk/polywalk/target/gauss"
	"github.com/polywalk/polywalk/target/uniform"
)

func TestModelMixedFoldsDensity(t *testing.T) {
	p := cube(2, 5)
	r := rng.NewPCG(89, 97)
	inner, err := NewGaussian(p, []float64{1, 1}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	model := gauss.Standard(2)
	k := NewModelMixed(inner, model)
	if !k.IsModelAware() {
		t.Fatal("ModelMixed must report model awareness")
	}
	for i := 0; i < 100; i++ {
		x := append([]float64(nil), k.GetState()...)
		candidate, logCorrection := k.Propose(r)
		if math.IsInf(logCorrection, -1) {
			continue
		}
		want := model.NegLogProb(x) - model.NegLogProb(candidate)
		if math.Abs(logCorrection-want) > 1e-12 {
			t.Fatalf("correction %v, want NLL difference %v", logCorrection, want)
		}
		k.Accept()
	}
}

func TestModelMixedUniformMatchesInner(t *testing.T) {
	p := cube(2, 1)
	r := rng.NewPCG(101, 103)
	inner, err := NewBallWalk(p, []float64{0, 0}, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	k := NewModelMixed(inner, uniform.Target{})
	for i := 0; i < 100; i++ {
		_, logCorrection := k.Propose(r)
		if !math.IsInf(logCorrection, -1) && logCorrection != 0 {
			t.Fatalf("uniform-target correction %v, want 0", logCorrection)
		}
	}
}

func TestModelMixedForwardsStepSize(t *testing.T) {
	p := cube(2, 1)
	inner, err := NewBallWalk(p, []float64{0, 0}, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	k := NewModelMixed(inner, uniform.Target{})
	if v, ok := k.StepSize(); !ok || v != 0.3 {
		t.Errorf("StepSize: got (%v,%v), want (0.3,true)", v, ok)
	}
	if err := k.SetStepSize(0.7); err != nil {
		t.Fatal(err)
	}
	if inner.Step != 0.7 {
		t.Errorf("inner step after SetStepSize: got %v, want 0.7", inner.Step)
	}
}
