package estimators

import (
	"math"

	"github.com/montanaflynn/stats"

	"hyperit/domain/core"
)

// machineEps floors probabilities inside the logarithm so empty histogram
// cells contribute zero entropy instead of NaN.
var machineEps = math.Nextafter(1, 2) - 1

// HistogramMI computes mutual information between two univariate sequences by
// the 3-entropy decomposition of a joint histogram. The bin count follows the
// Freedman-Diaconis rule averaged across both sequences. Result in bits.
func HistogramMI(x, y []float64) (float64, error) {
	if len(x) != len(y) || len(x) == 0 {
		return 0, core.NewValidationError("observations", "sequences must share a non-zero length")
	}

	bins, err := freedmanDiaconisBins(x, y)
	if err != nil {
		return 0, err
	}

	pxy, err := jointHistogram(x, y, bins)
	if err != nil {
		return 0, err
	}

	px := make([]float64, bins)
	py := make([]float64, bins)
	for i := 0; i < bins; i++ {
		for j := 0; j < bins; j++ {
			px[i] += pxy[i][j]
			py[j] += pxy[i][j]
		}
	}

	hx := marginalEntropy(px)
	hy := marginalEntropy(py)
	hxy := 0.0
	for i := range pxy {
		hxy += marginalEntropy(pxy[i])
	}

	return hx + hy - hxy, nil
}

// freedmanDiaconisBins derives the shared bin count: ceil of range over
// 2*IQR*n^(-1/3) per sequence, averaged and rounded up. A zero-IQR sequence
// falls back to Sturges' rule instead of dividing by zero.
func freedmanDiaconisBins(x, y []float64) (int, error) {
	bx, err := fdBinsOne(x)
	if err != nil {
		return 0, err
	}
	by, err := fdBinsOne(y)
	if err != nil {
		return 0, err
	}
	bins := int(math.Ceil((bx + by) / 2))
	if bins < 1 {
		bins = 1
	}
	return bins, nil
}

func fdBinsOne(seq []float64) (float64, error) {
	data := stats.Float64Data(seq)
	min, err := data.Min()
	if err != nil {
		return 0, core.NewValidationError("histogram", err.Error())
	}
	max, _ := data.Max()
	if max == min {
		return 0, core.NewValidationError("histogram", "sequence is constant")
	}

	iqr, err := data.InterQuartileRange()
	if err != nil || iqr == 0 {
		// Sturges' rule as the zero-IQR fallback.
		return math.Ceil(math.Log2(float64(len(seq)))) + 1, nil
	}

	n := float64(len(seq))
	return math.Ceil((max - min) / (2 * iqr * math.Pow(n, -1.0/3.0))), nil
}

func jointHistogram(x, y []float64, bins int) ([][]float64, error) {
	minX, maxX := minMax(x)
	minY, maxY := minMax(y)
	wx := (maxX - minX) / float64(bins)
	wy := (maxY - minY) / float64(bins)
	if wx == 0 || wy == 0 {
		return nil, core.NewValidationError("histogram", "sequence is constant")
	}

	counts := make([][]float64, bins)
	for i := range counts {
		counts[i] = make([]float64, bins)
	}
	for t := range x {
		i := binIndex(x[t], minX, wx, bins)
		j := binIndex(y[t], minY, wy, bins)
		counts[i][j]++
	}

	total := float64(len(x))
	for i := range counts {
		for j := range counts[i] {
			counts[i][j] /= total
		}
	}
	return counts, nil
}

func binIndex(v, min, width float64, bins int) int {
	i := int((v - min) / width)
	if i >= bins {
		i = bins - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// marginalEntropy is -sum p*log2(p+eps), summed over every cell including
// empty ones, matching the epsilon-floor stability policy.
func marginalEntropy(p []float64) float64 {
	h := 0.0
	for _, v := range p {
		h -= v * math.Log2(v+machineEps)
	}
	return h
}

func minMax(seq []float64) (float64, float64) {
	min, max := seq[0], seq[0]
	for _, v := range seq[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
