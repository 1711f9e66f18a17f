// Copyright ©2026 The Polywalk Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diagnostics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/polywalk/polywalk"
)

// ExpectedSquaredJumpDistance computes E||x_{t+1} - x_t||^2 over all
// consecutive pairs of draws.
func ExpectedSquaredJumpDistance(draws [][]float64) (float64, error) {
	return ExpectedSquaredJumpDistanceIncremental(draws, len(draws), 0, 0)
}

// ExpectedSquaredJumpDistanceIncremental extends a previously
// computed ESJD with the trailing numUnseen draws of draws: the old
// estimate over numSeen draws is blended with the new batch's mean
// squared jump by eta = (numSeen-1)/(numSeen+numUnseen-1). When a
// prior batch exists, the jump across the batch boundary is included.
func ExpectedSquaredJumpDistanceIncremental(draws [][]float64, numUnseen int, esjdSeen float64, numSeen int) (float64, error) {
	numDraws := len(draws)
	if numUnseen < 2 && numSeen == 0 {
		return 0, polywalk.NewError(polywalk.InvalidParameter, "need at least two draws for a jump distance")
	}
	if numUnseen > numDraws {
		return 0, polywalk.NewError(polywalk.InvalidParameter, "more unseen draws than draws provided")
	}

	correction := 0
	if numSeen > 0 && numDraws > numUnseen {
		correction = 1
	}
	if numSeen == 0 {
		// Forces eta to 0 so the result is the fresh batch alone.
		numSeen = 1
	}

	eta := float64(numSeen-1) / float64(numSeen+numUnseen-1)
	var esjd float64
	for i := numDraws - numUnseen - correction; i < numDraws-1; i++ {
		d := floats.Distance(draws[i], draws[i+1], 2)
		esjd += d * d
	}
	esjd /= float64(numUnseen - 1 + correction)
	return eta*esjdSeen + (1-eta)*esjd, nil
}
