package estimators

import (
	"math"
	"math/rand"

	"hyperit/ports"
)

// KernelMI estimates mutual information with a box kernel plug-in density:
// densities are neighbor fractions within the kernel radius (max norm) and
// MI is the average log density ratio.
type KernelMI struct {
	obs    observations
	width  float64
	doNorm bool
}

// NewKernelMI builds a box kernel MI calculator.
func NewKernelMI(p Params) *KernelMI {
	return &KernelMI{width: p.KernelWidth, doNorm: p.Normalise}
}

func (e *KernelMI) Name() string               { return "Box Kernel Estimator" }
func (e *KernelMI) SupportsSignificance() bool { return true }

func (e *KernelMI) Initialise(dimX, dimY int) error {
	return e.obs.initialise(dimX, dimY)
}

func (e *KernelMI) SetObservations(x, y [][]float64) error {
	return e.obs.set(x, y)
}

func (e *KernelMI) ComputeAverageLocal() (float64, error) {
	if err := e.obs.ready(); err != nil {
		return 0, err
	}
	return e.estimate(e.obs.x, e.obs.y)
}

func (e *KernelMI) ComputeSignificance(permutations int, rng *rand.Rand) (ports.Significance, error) {
	if err := e.obs.ready(); err != nil {
		return ports.Significance{}, err
	}
	return permutationTest(e.estimate, e.obs.x, e.obs.y, permutations, rng)
}

func (e *KernelMI) estimate(x, y [][]float64) (float64, error) {
	if e.doNorm {
		x, y = normalise(x), normalise(y)
	}
	n := len(x)
	r := e.width

	sum := 0.0
	for i := 0; i < n; i++ {
		cx, cy, cxy := 0, 0, 0
		for j := 0; j < n; j++ {
			inX := maxNormDist(x[i], x[j]) <= r
			inY := maxNormDist(y[i], y[j]) <= r
			if inX {
				cx++
			}
			if inY {
				cy++
			}
			if inX && inY {
				cxy++
			}
		}
		// Counts include the point itself, so every term is defined.
		sum += math.Log(float64(n) * float64(cxy) / (float64(cx) * float64(cy)))
	}
	return sum / float64(n), nil
}

// KernelTE estimates transfer entropy with the same box kernel densities over
// the embedded target-present, target-history and source-history blocks.
type KernelTE struct {
	obs    observations
	params Params
}

// NewKernelTE builds a box kernel TE calculator.
func NewKernelTE(p Params) *KernelTE {
	return &KernelTE{params: p}
}

func (e *KernelTE) Name() string               { return "Box Kernel Estimator" }
func (e *KernelTE) SupportsSignificance() bool { return true }

func (e *KernelTE) Initialise(dimX, dimY int) error {
	return e.obs.initialise(dimX, dimY)
}

func (e *KernelTE) SetObservations(x, y [][]float64) error {
	return e.obs.set(x, y)
}

func (e *KernelTE) ComputeAverageLocal() (float64, error) {
	if err := e.obs.ready(); err != nil {
		return 0, err
	}
	return e.estimate(e.obs.x, e.obs.y)
}

func (e *KernelTE) ComputeSignificance(permutations int, rng *rand.Rand) (ports.Significance, error) {
	if err := e.obs.ready(); err != nil {
		return ports.Significance{}, err
	}
	return permutationTest(e.estimate, e.obs.x, e.obs.y, permutations, rng)
}

func (e *KernelTE) estimate(x, y [][]float64) (float64, error) {
	if e.params.Normalise {
		x, y = normalise(x), normalise(y)
	}
	emb, err := buildTEEmbedding(x, y, e.params)
	if err != nil {
		return 0, err
	}
	n := emb.len()
	r := e.params.KernelWidth

	sum := 0.0
	for i := 0; i < n; i++ {
		cFull, cHist, cCond, cTarget := 0, 0, 0, 0
		for j := 0; j < n; j++ {
			inNext := maxNormDist(emb.yNext[i], emb.yNext[j]) <= r
			inHist := maxNormDist(emb.yHist[i], emb.yHist[j]) <= r
			inSrc := maxNormDist(emb.xHist[i], emb.xHist[j]) <= r
			if inHist {
				cHist++
				if inNext {
					cTarget++
				}
				if inSrc {
					cCond++
					if inNext {
						cFull++
					}
				}
			}
		}
		sum += math.Log(float64(cFull) * float64(cHist) / (float64(cCond) * float64(cTarget)))
	}
	return sum / float64(n), nil
}
