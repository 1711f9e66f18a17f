// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package polytope

import "gonum.org/v1/gonum/mat"

// DikinMetric computes H(x) = A^T diag(1/s^2) A, the Dikin local
// metric at the state with slacks s.
func DikinMetric(p *Polytope, s []float64) *mat.SymDense {
	n := p.N
	h := mat.NewSymDense(n, nil)
	row := make([]float64, n)
	for i := range p.B {
		w := 1 / (s[i] * s[i])
		for j := 0; j < n; j++ {
			row[j] = p.A.At(i, j)
		}
		for a := 0; a < n; a++ {
			if row[a] == 0 {
				continue
			}
			for b := a; b < n; b++ {
				if row[b] == 0 {
					continue
				}
				h.SetSym(a, b, h.At(a, b)+w*row[a]*row[b])
			}
		}
	}
	return h
}

// Cholesky factors a symmetric matrix, returning its lower-triangular
// factor L (LL^T = m) and log|det m|. ok is false if m is not
// positive-definite, signalling NumericFailure to the caller.
func Cholesky(m *mat.SymDense) (l *mat.TriDense, logDet float64, ok bool) {
	var chol mat.Cholesky
	if !chol.Factorize(m) {
		return nil, 0, false
	}
	n, _ := m.Dims()
	l = mat.NewTriDense(n, mat.Lower, nil)
	chol.LTo(l)
	return l, chol.LogDet(), true
}

// SolveLowerTransposed solves L^T x = b by back substitution, where L
// is lower-triangular (so L^T is upper-triangular). This is the
// L(x)^-T sqrt-inverse-metric multiply used by the Dikin walk and
// adaptive-Metropolis proposals.
func SolveLowerTransposed(l *mat.TriDense, b []float64) []float64 {
	n := len(b)
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < n; j++ {
			sum -= l.At(j, i) * x[j]
		}
		x[i] = sum / l.At(i, i)
	}
	return x
}

// MulLower computes L x (L lower-triangular).
func MulLower(l *mat.TriDense, x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j <= i; j++ {
			sum += l.At(i, j) * x[j]
		}
		out[i] = sum
	}
	return out
}

// QuadForm computes x^T M x for a symmetric matrix M.
func QuadForm(m *mat.SymDense, x []float64) float64 {
	n := len(x)
	var sum float64
	for i := 0; i < n; i++ {
		var rowSum float64
		for j := 0; j < n; j++ {
			rowSum += m.At(i, j) * x[j]
		}
		sum += x[i] * rowSum
	}
	return sum
}
