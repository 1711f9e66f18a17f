// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rng defines the abstract uniform-bit-stream source that the
// sampling core consumes, and supplies the recommended default
// generator.
package rng

import "math/rand/v2"

// UniformRng is the uniform-bit-stream contract the sampling core
// requires. *rand.Rand from math/rand/v2 satisfies it directly.
type UniformRng interface {
	// Uint64 returns a uniformly distributed pseudo-random 64-bit value.
	Uint64() uint64
	// Float64 returns a pseudo-random float64 in [0,1).
	Float64() float64
	// NormFloat64 returns a pseudo-random float64 from the standard
	// normal distribution.
	NormFloat64() float64
}

// NewPCG builds the recommended default UniformRng: a 64-bit, seedable,
// streamable permuted-congruential generator, via the standard
// library's math/rand/v2 PCG source.
func NewPCG(seed1, seed2 uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed1, seed2))
}
