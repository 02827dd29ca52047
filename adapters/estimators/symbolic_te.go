package estimators

import (
	"fmt"
	"math"
	"math/rand"

	"hyperit/domain/core"
	"hyperit/ports"
)

// SymbolicTE estimates transfer entropy over ordinal-pattern symbol sequences
// with a discrete plug-in estimator. Univariate only; p-values are not
// available on the symbolic path.
type SymbolicTE struct {
	obs    observations
	params Params
}

// NewSymbolicTE builds a symbolic TE calculator.
func NewSymbolicTE(p Params) *SymbolicTE {
	return &SymbolicTE{params: p}
}

func (e *SymbolicTE) Name() string               { return "Symbolic Estimator" }
func (e *SymbolicTE) SupportsSignificance() bool { return false }

func (e *SymbolicTE) Initialise(dimX, dimY int) error {
	if dimX != 1 || dimY != 1 {
		return core.NewValidationError("dimensions", "symbolic estimator expects univariate sequences")
	}
	return e.obs.initialise(dimX, dimY)
}

func (e *SymbolicTE) SetObservations(x, y [][]float64) error {
	return e.obs.set(x, y)
}

func (e *SymbolicTE) ComputeAverageLocal() (float64, error) {
	if err := e.obs.ready(); err != nil {
		return 0, err
	}

	sx, sy := column(e.obs.x, 0), column(e.obs.y, 0)
	hx, err := symbolise(sx, e.params.SymbolLag, e.params.SymbolDim)
	if err != nil {
		return 0, err
	}
	hy, err := symbolise(sy, e.params.SymbolLag, e.params.SymbolDim)
	if err != nil {
		return 0, err
	}
	return discreteTE(hx, hy, atLeast(e.params.KHistory, 1))
}

func (e *SymbolicTE) ComputeSignificance(int, *rand.Rand) (ports.Significance, error) {
	return ports.Significance{}, core.NewValidationError("significance",
		"symbolic estimator cannot produce permutation p-values")
}

// discreteTE is the plug-in transfer entropy over symbol sequences:
// sum p(y+, y_hist, x) log p(y+|y_hist,x)/p(y+|y_hist), in nats.
func discreteTE(sx, sy []int, history int) (float64, error) {
	n := len(sy) - history
	if n < 2 {
		return 0, fmt.Errorf("%w: %d symbols with history %d", core.ErrInsufficientData, len(sy), history)
	}

	joint := map[string]float64{}   // (y+, y_hist, x)
	condSrc := map[string]float64{} // (y_hist, x)
	target := map[string]float64{}  // (y+, y_hist)
	hist := map[string]float64{}    // (y_hist)

	for t := history; t < len(sy); t++ {
		yh := fmt.Sprint(sy[t-history : t])
		yn := fmt.Sprintf("%d|%s", sy[t], yh)
		xs := fmt.Sprintf("%s|%d", yh, sx[t-1])
		all := fmt.Sprintf("%d|%s|%d", sy[t], yh, sx[t-1])

		joint[all]++
		condSrc[xs]++
		target[yn]++
		hist[yh]++
	}

	te := 0.0
	seen := map[string]bool{}
	for t := history; t < len(sy); t++ {
		yh := fmt.Sprint(sy[t-history : t])
		all := fmt.Sprintf("%d|%s|%d", sy[t], yh, sx[t-1])
		if seen[all] {
			continue
		}
		seen[all] = true

		cJoint := joint[all]
		cCond := condSrc[fmt.Sprintf("%s|%d", yh, sx[t-1])]
		cTarget := target[fmt.Sprintf("%d|%s", sy[t], yh)]
		cHist := hist[yh]

		p := cJoint / float64(n)
		te += p * math.Log(cJoint*cHist/(cCond*cTarget))
	}
	return te, nil
}

func column(block [][]float64, c int) []float64 {
	out := make([]float64, len(block))
	for t := range block {
		out[t] = block[t][c]
	}
	return out
}
