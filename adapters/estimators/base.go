package estimators

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"hyperit/domain/core"
)

// observations holds the per-pair state shared by every calculator: the
// declared dimensionality and the stored samples-major blocks. Initialise
// clears it so state never leaks across pairs.
type observations struct {
	dimX, dimY int
	x, y       [][]float64
}

func (o *observations) initialise(dimX, dimY int) error {
	if dimX < 1 || dimY < 1 {
		return core.NewValidationError("dimensions",
			fmt.Sprintf("(%d,%d) must be positive", dimX, dimY))
	}
	o.dimX, o.dimY = dimX, dimY
	o.x, o.y = nil, nil
	return nil
}

func (o *observations) set(x, y [][]float64) error {
	if o.dimX == 0 {
		return core.NewValidationError("observations", "calculator not initialised")
	}
	if len(x) == 0 || len(x) != len(y) {
		return core.NewValidationError("observations",
			fmt.Sprintf("source has %d samples, target %d", len(x), len(y)))
	}
	for t := range x {
		if len(x[t]) != o.dimX || len(y[t]) != o.dimY {
			return core.NewValidationError("observations",
				fmt.Sprintf("sample %d has width (%d,%d), expected (%d,%d)",
					t, len(x[t]), len(y[t]), o.dimX, o.dimY))
		}
	}
	o.x, o.y = x, y
	return nil
}

func (o *observations) ready() error {
	if len(o.x) == 0 {
		return core.NewValidationError("observations", "no observations set")
	}
	return nil
}

// normalise z-scores each column of a samples-major block and returns a copy.
// A zero-variance column is left centred only.
func normalise(block [][]float64) [][]float64 {
	if len(block) == 0 {
		return nil
	}
	n, d := len(block), len(block[0])
	out := make([][]float64, n)
	for t := range out {
		out[t] = make([]float64, d)
	}
	col := make([]float64, n)
	for c := 0; c < d; c++ {
		for t := 0; t < n; t++ {
			col[t] = block[t][c]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for t := 0; t < n; t++ {
			out[t][c] = (block[t][c] - mean) / std
		}
	}
	return out
}

// maxNormDist is the Chebyshev distance between two sample vectors.
func maxNormDist(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		if v := math.Abs(a[i] - b[i]); v > d {
			d = v
		}
	}
	return d
}

// concatRows joins samples-major blocks column-wise into one joint block.
func concatRows(blocks ...[][]float64) [][]float64 {
	if len(blocks) == 0 || len(blocks[0]) == 0 {
		return nil
	}
	n := len(blocks[0])
	out := make([][]float64, n)
	for t := 0; t < n; t++ {
		width := 0
		for _, b := range blocks {
			width += len(b[t])
		}
		row := make([]float64, 0, width)
		for _, b := range blocks {
			row = append(row, b[t]...)
		}
		out[t] = row
	}
	return out
}

// shuffleRows returns a row-permuted copy of a samples-major block.
func shuffleRows(block [][]float64, perm []int) [][]float64 {
	out := make([][]float64, len(block))
	for i, p := range perm {
		out[i] = block[p]
	}
	return out
}
