package estimators

import (
	"fmt"

	"hyperit/domain/core"
)

// teEmbedding aligns the three observation blocks every transfer entropy
// estimator conditions on: the target's next sample, the target's history and
// the source's (delayed) history. All blocks are samples-major.
type teEmbedding struct {
	yNext [][]float64 // target present, width dimY
	yHist [][]float64 // target past, width kHistory*dimY
	xHist [][]float64 // source past, width lHistory*dimX
}

func (e teEmbedding) len() int { return len(e.yNext) }

// buildTEEmbedding constructs the aligned blocks. Target history samples sit
// at t-1, t-1-kTau, ...; source history samples at t-delay, t-delay-lTau, ...
func buildTEEmbedding(x, y [][]float64, p Params) (teEmbedding, error) {
	kHist, kTau := atLeast(p.KHistory, 1), atLeast(p.KTau, 1)
	lHist, lTau := atLeast(p.LHistory, 1), atLeast(p.LTau, 1)
	delay := atLeast(p.Delay, 1)

	minT := 1 + (kHist-1)*kTau
	if srcReach := delay + (lHist-1)*lTau; srcReach > minT {
		minT = srcReach
	}

	n := len(y)
	if n-minT < 2 {
		return teEmbedding{}, fmt.Errorf("%w: %d samples cannot support history %d/%d with delay %d",
			core.ErrInsufficientData, n, kHist, lHist, delay)
	}

	rows := n - minT
	emb := teEmbedding{
		yNext: make([][]float64, rows),
		yHist: make([][]float64, rows),
		xHist: make([][]float64, rows),
	}
	for t := minT; t < n; t++ {
		r := t - minT
		emb.yNext[r] = y[t]

		hist := make([]float64, 0, kHist*len(y[t]))
		for i := 0; i < kHist; i++ {
			hist = append(hist, y[t-1-i*kTau]...)
		}
		emb.yHist[r] = hist

		src := make([]float64, 0, lHist*len(x[t]))
		for i := 0; i < lHist; i++ {
			src = append(src, x[t-delay-i*lTau]...)
		}
		emb.xHist[r] = src
	}
	return emb, nil
}

func atLeast(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}
