// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diagnostics provides the convergence and mixing diagnostics
// for chain records: FFT-based autocorrelation, effective sample size
// (Vehtari et al. 2020), expected squared jump distance, and the
// potential scale reduction factor.
package diagnostics

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/polywalk/polywalk"
)

// NextGoodFFTSize rounds n up to the next 2-, 3-, 5-smooth integer
// (minimum 2), the sizes the FFT backend handles without falling back
// to a slow generic transform.
func NextGoodFFTSize(n int) int {
	if n <= 2 {
		return 2
	}
	for {
		m := n
		for m%2 == 0 {
			m /= 2
		}
		for m%3 == 0 {
			m /= 3
		}
		for m%5 == 0 {
			m /= 5
		}
		if m <= 1 {
			return n
		}
		n++
	}
}

// Autocorrelations computes the per-lag autocorrelation of dimension
// dim across the draws of a single chain, using the biased (Geyer
// 1992) estimator: the series is centered, zero-padded to twice the
// next good FFT size, transformed, and the squared magnitudes
// inverse-transformed. The result has length len(draws) and is
// normalized so that the lag-0 entry is 1.
func Autocorrelations(draws [][]float64, dim int) ([]float64, error) {
	n := len(draws)
	if n == 0 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "no draws")
	}
	x := column(draws, dim)
	mean := stat.Mean(x, nil)

	padded := make([]float64, 2*NextGoodFFTSize(n))
	for i := range x {
		padded[i] = x[i] - mean
	}

	fft := fourier.NewFFT(len(padded))
	coeff := fft.Coefficients(nil, padded)
	for i, c := range coeff {
		mag := cmplx.Abs(c)
		coeff[i] = complex(mag*mag, 0)
	}
	seq := fft.Sequence(nil, coeff)

	// The forward/inverse round trip multiplies by the padded length;
	// the remaining factors drop out of the final normalization.
	ac := make([]float64, n)
	norm := seq[0]
	if norm == 0 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "constant sequence has no autocorrelation")
	}
	for i := range ac {
		ac[i] = seq[i] / norm
	}
	return ac, nil
}
