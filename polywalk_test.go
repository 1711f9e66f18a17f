// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package polywalk

import "testing"

func TestErrorFormatting(t *testing.T) {
	err := NewError(InvalidParameter, "step size must be positive")
	if got, want := err.Error(), "InvalidParameter: step size must be positive"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	bare := &Error{Kind: ReflectionExceeded}
	if got, want := bare.Error(), "ReflectionExceeded"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParameterNames(t *testing.T) {
	for _, test := range []struct {
		p    Parameter
		want string
	}{
		{StepSize, "STEP_SIZE"},
		{FisherWeight, "FISHER_WEIGHT"},
		{Coldness, "COLDNESS"},
		{Epsilon, "EPSILON"},
		{BoundaryCushion, "BOUNDARY_CUSHION"},
		{WarmUp, "WARM_UP"},
		{MaxReflections, "MAX_REFLECTIONS"},
		{ModelJumpProbability, "MODEL_JUMP_PROBABILITY"},
		{ActivationProbability, "ACTIVATION_PROBABILITY"},
		{DeactivationProbability, "DEACTIVATION_PROBABILITY"},
	} {
		if got := test.p.String(); got != test.want {
			t.Errorf("Parameter(%d).String() = %q, want %q", int(test.p), got, test.want)
		}
	}
}
