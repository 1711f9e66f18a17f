// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/polywalk/polywalk"
)

// column extracts dimension dim of every draw in a chain.
func column(chain [][]float64, dim int) []float64 {
	col := make([]float64, len(chain))
	for i, d := range chain {
		col[i] = d[dim]
	}
	return col
}

// EffectiveSampleSize estimates the effective sample size of
// dimension dim across chains, following Vehtari et al. 2020: the
// chain-averaged autocovariances are combined with the within- and
// between-chain variances into the rho-hat sequence, which is
// truncated at the first non-positive paired sum and smoothed to an
// initial monotone sequence before summing into tau-hat. The result
// is capped at M*N*log10(M*N).
func EffectiveSampleSize(chains [][][]float64, dim int) (float64, error) {
	numChains := len(chains)
	if numChains == 0 {
		return 0, polywalk.NewError(polywalk.InvalidParameter, "no chains")
	}
	numDraws := len(chains[0])
	if numDraws == 0 {
		return 0, polywalk.NewError(polywalk.InvalidParameter, "no draws in chains")
	}
	for _, c := range chains {
		if len(c) != numDraws {
			return 0, polywalk.NewError(polywalk.InvalidParameter, "chains have unequal lengths")
		}
	}

	intra := make([]float64, numChains)
	sampleVar := make([]float64, numChains)
	for m, c := range chains {
		intra[m], sampleVar[m] = stat.MeanVariance(column(c, dim), nil)
	}
	within := stat.Mean(sampleVar, nil)
	between := 0.0
	if numChains > 1 {
		between = float64(numDraws) * stat.Variance(intra, nil)
	}
	variance := (float64(numDraws-1)*within + between) / float64(numDraws)

	acs := make([][]float64, numChains)
	for m, c := range chains {
		ac, err := Autocorrelations(c, dim)
		if err != nil {
			return 0, err
		}
		acs[m] = ac
	}

	chainAvgAutocov := func(lag int) float64 {
		var sum float64
		for m := range chains {
			sum += float64(numDraws-1) * sampleVar[m] * acs[m][lag]
		}
		return sum / float64(numChains*numDraws)
	}

	var rhoHat []float64
	var rhoHatEven float64
	for t := 0; t < numDraws/2; t++ {
		rhoHatEven = 1
		if t > 0 {
			rhoHatEven = 1 - (within-chainAvgAutocov(2*t))/variance
		}
		rhoHatOdd := 1 - (within-chainAvgAutocov(2*t+1))/variance
		if rhoHatEven+rhoHatOdd <= 0 {
			break
		}
		rhoHat = append(rhoHat, rhoHatEven, rhoHatOdd)
	}
	// Antithetic-case improvement: keep a trailing positive even term.
	if rhoHatEven > 0 {
		rhoHat = append(rhoHat, rhoHatEven)
	}

	// Initial monotone sequence over the paired sums.
	for t := 1; t < (len(rhoHat)-2)/2; t++ {
		if rhoHat[2*t]+rhoHat[2*t+1] > rhoHat[2*t-2]+rhoHat[2*t-1] {
			rhoHat[2*t] = (rhoHat[2*t-2] + rhoHat[2*t-1]) / 2
			rhoHat[2*t+1] = rhoHat[2*t]
		}
	}

	tauHat := -1.0
	for t := 0; t < len(rhoHat)/2; t++ {
		tauHat += 2 * (rhoHat[2*t] + rhoHat[2*t+1])
	}
	if len(rhoHat)%2 == 1 {
		tauHat += rhoHat[len(rhoHat)-1]
	}

	mn := float64(numDraws * numChains)
	return math.Min(mn/tauHat, mn*math.Log10(mn)), nil
}

// EffectiveSampleSizes computes the ESS for every dimension.
func EffectiveSampleSizes(chains [][][]float64) ([]float64, error) {
	if len(chains) == 0 || len(chains[0]) == 0 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "no draws in chains")
	}
	dims := len(chains[0][0])
	out := make([]float64, dims)
	for d := 0; d < dims; d++ {
		ess, err := EffectiveSampleSize(chains, d)
		if err != nil {
			return nil, err
		}
		out[d] = ess
	}
	return out, nil
}
