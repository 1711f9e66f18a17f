// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/polywalk/polywalk"
)

// PotentialScaleReduction computes the per-dimension potential scale
// reduction factor R-hat = sqrt(V/W), the between-vs-within-chain
// variance diagnostic. Values near 1 indicate the chains have mixed.
func PotentialScaleReduction(chains [][][]float64) ([]float64, error) {
	numChains := len(chains)
	if numChains < 2 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "potential scale reduction needs at least two chains")
	}
	numDraws := len(chains[0])
	if numDraws < 2 {
		return nil, polywalk.NewError(polywalk.InvalidParameter, "need at least two draws per chain")
	}
	for _, c := range chains {
		if len(c) != numDraws {
			return nil, polywalk.NewError(polywalk.InvalidParameter, "chains have unequal lengths")
		}
	}
	dims := len(chains[0][0])

	out := make([]float64, dims)
	intra := make([]float64, numChains)
	sampleVar := make([]float64, numChains)
	for d := 0; d < dims; d++ {
		for m, c := range chains {
			intra[m], sampleVar[m] = stat.MeanVariance(column(c, d), nil)
		}
		within := stat.Mean(sampleVar, nil)
		between := float64(numDraws) * stat.Variance(intra, nil)

		variance := (float64(numDraws-1)*within + between) / float64(numDraws)
		out[d] = math.Sqrt(variance / within)
	}
	return out, nil
}
