package estimators

import (
	"fmt"
	"math"
	"sort"

	"hyperit/domain/core"
)

// SymbolicMI computes mutual information between two univariate sequences
// over their ordinal (permutation) patterns: each sliding window of length m
// with lag l is rank-encoded and hashed, then the 3-entropy decomposition
// runs over the hash distributions. Result in bits.
func SymbolicMI(x, y []float64, lag, m int) (float64, error) {
	if len(x) != len(y) || len(x) == 0 {
		return 0, core.NewValidationError("observations", "sequences must share a non-zero length")
	}
	hx, err := symbolise(x, lag, m)
	if err != nil {
		return 0, err
	}
	hy, err := symbolise(y, lag, m)
	if err != nil {
		return 0, err
	}

	countX := map[int]float64{}
	countY := map[int]float64{}
	countXY := map[[2]int]float64{}
	for i := range hx {
		countX[hx[i]]++
		countY[hy[i]]++
		countXY[[2]int{hx[i], hy[i]}]++
	}

	n := float64(len(hx))
	entX := mapEntropy(countX, n)
	entY := mapEntropy(countY, n)
	entXY := 0.0
	for _, c := range countXY {
		p := c / n
		entXY -= p * math.Log2(p+machineEps)
	}

	return entX + entY - entXY, nil
}

// symbolise embeds a sequence into ordinal patterns and hashes each ranked
// window with positional weights m^index.
func symbolise(seq []float64, lag, m int) ([]int, error) {
	lag, m = atLeast(lag, 1), atLeast(m, 2)
	windows := len(seq) - (m-1)*lag
	if windows < 2 {
		return nil, fmt.Errorf("%w: %d samples cannot embed dimension %d with lag %d",
			core.ErrInsufficientData, len(seq), m, lag)
	}

	weights := make([]int, m)
	w := 1
	for i := range weights {
		weights[i] = w
		w *= m
	}

	hashes := make([]int, windows)
	window := make([]float64, m)
	order := make([]int, m)
	for t := 0; t < windows; t++ {
		for i := 0; i < m; i++ {
			window[i] = seq[t+i*lag]
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return window[order[a]] < window[order[b]] })

		h := 0
		for i, o := range order {
			h += o * weights[i]
		}
		hashes[t] = h
	}
	return hashes, nil
}

func mapEntropy(counts map[int]float64, n float64) float64 {
	h := 0.0
	for _, c := range counts {
		p := c / n
		h -= p * math.Log2(p+machineEps)
	}
	return h
}
