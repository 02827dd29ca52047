package estimators

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mathext"

	"hyperit/domain/core"
	"hyperit/ports"
)

// KSGMI is the Kraskov-Stögbauer-Grassberger nearest-neighbor mutual
// information estimator, algorithms 1 and 2. Distances use the max norm; the
// neighbor search is exhaustive, which is adequate for per-pair sample counts.
type KSGMI struct {
	obs     observations
	k       int
	doNorm  bool
	variant int
}

// NewKSGMI builds a KSG MI calculator for the given algorithm variant (1 or 2).
func NewKSGMI(p Params, variant int) *KSGMI {
	return &KSGMI{k: atLeast(p.Kraskov, 1), doNorm: p.Normalise, variant: variant}
}

func (e *KSGMI) Name() string {
	return fmt.Sprintf("KSG Estimator (version %d)", e.variant)
}

func (e *KSGMI) SupportsSignificance() bool { return true }

func (e *KSGMI) Initialise(dimX, dimY int) error {
	return e.obs.initialise(dimX, dimY)
}

func (e *KSGMI) SetObservations(x, y [][]float64) error {
	if len(x) <= e.k {
		return fmt.Errorf("%w: %d samples with k=%d neighbors", core.ErrInsufficientData, len(x), e.k)
	}
	return e.obs.set(x, y)
}

func (e *KSGMI) ComputeAverageLocal() (float64, error) {
	if err := e.obs.ready(); err != nil {
		return 0, err
	}
	return e.estimate(e.obs.x, e.obs.y)
}

func (e *KSGMI) ComputeSignificance(permutations int, rng *rand.Rand) (ports.Significance, error) {
	if err := e.obs.ready(); err != nil {
		return ports.Significance{}, err
	}
	return permutationTest(e.estimate, e.obs.x, e.obs.y, permutations, rng)
}

func (e *KSGMI) estimate(x, y [][]float64) (float64, error) {
	if e.doNorm {
		x, y = normalise(x), normalise(y)
	}
	n := len(x)
	k := e.k

	psiSum := 0.0
	dx := make([]float64, n)
	dy := make([]float64, n)
	dj := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dx[j] = maxNormDist(x[i], x[j])
			dy[j] = maxNormDist(y[i], y[j])
			dj[j] = dx[j]
			if dy[j] > dj[j] {
				dj[j] = dy[j]
			}
		}
		dj[i] = 0

		switch e.variant {
		case 2:
			// Algorithm 2: per-marginal radii from the k nearest joint
			// neighbors, counts inclusive of the boundary.
			neighbors := kNearest(dj, i, k)
			epsX, epsY := 0.0, 0.0
			for _, j := range neighbors {
				if dx[j] > epsX {
					epsX = dx[j]
				}
				if dy[j] > epsY {
					epsY = dy[j]
				}
			}
			nx := countWithin(dx, i, epsX, true)
			ny := countWithin(dy, i, epsY, true)
			psiSum += mathext.Digamma(float64(nx)) + mathext.Digamma(float64(ny))
		default:
			// Algorithm 1: joint radius, strictly-inside marginal counts.
			eps := kthDistance(dj, i, k)
			nx := countWithin(dx, i, eps, false)
			ny := countWithin(dy, i, eps, false)
			psiSum += mathext.Digamma(float64(nx+1)) + mathext.Digamma(float64(ny+1))
		}
	}

	kf, nf := float64(k), float64(n)
	if e.variant == 2 {
		return mathext.Digamma(kf) - 1/kf + mathext.Digamma(nf) - psiSum/nf, nil
	}
	return mathext.Digamma(kf) + mathext.Digamma(nf) - psiSum/nf, nil
}

// KSGTE estimates transfer entropy as the Frenzel-Pompe nearest-neighbor
// conditional mutual information I(Y_t ; X_hist | Y_hist).
type KSGTE struct {
	obs    observations
	params Params
}

// NewKSGTE builds a KSG TE calculator.
func NewKSGTE(p Params) *KSGTE {
	return &KSGTE{params: p}
}

func (e *KSGTE) Name() string               { return "KSG Estimator" }
func (e *KSGTE) SupportsSignificance() bool { return true }

func (e *KSGTE) Initialise(dimX, dimY int) error {
	return e.obs.initialise(dimX, dimY)
}

func (e *KSGTE) SetObservations(x, y [][]float64) error {
	if len(x) <= e.params.Kraskov+1 {
		return fmt.Errorf("%w: %d samples with k=%d neighbors",
			core.ErrInsufficientData, len(x), e.params.Kraskov)
	}
	return e.obs.set(x, y)
}

func (e *KSGTE) ComputeAverageLocal() (float64, error) {
	if err := e.obs.ready(); err != nil {
		return 0, err
	}
	return e.estimate(e.obs.x, e.obs.y)
}

func (e *KSGTE) ComputeSignificance(permutations int, rng *rand.Rand) (ports.Significance, error) {
	if err := e.obs.ready(); err != nil {
		return ports.Significance{}, err
	}
	return permutationTest(e.estimate, e.obs.x, e.obs.y, permutations, rng)
}

func (e *KSGTE) estimate(x, y [][]float64) (float64, error) {
	if e.params.Normalise {
		x, y = normalise(x), normalise(y)
	}
	emb, err := buildTEEmbedding(x, y, e.params)
	if err != nil {
		return 0, err
	}
	n := emb.len()
	k := atLeast(e.params.Kraskov, 1)
	if n <= k {
		return 0, fmt.Errorf("%w: %d embedded samples with k=%d neighbors",
			core.ErrInsufficientData, n, k)
	}

	du := make([]float64, n) // target present
	dv := make([]float64, n) // source history
	dw := make([]float64, n) // target history (conditioning)
	dj := make([]float64, n)
	psiSum := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			du[j] = maxNormDist(emb.yNext[i], emb.yNext[j])
			dv[j] = maxNormDist(emb.xHist[i], emb.xHist[j])
			dw[j] = maxNormDist(emb.yHist[i], emb.yHist[j])
			dj[j] = du[j]
			if dv[j] > dj[j] {
				dj[j] = dv[j]
			}
			if dw[j] > dj[j] {
				dj[j] = dw[j]
			}
		}
		dj[i] = 0

		eps := kthDistance(dj, i, k)
		nUW, nVW, nW := 0, 0, 0
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			if dw[j] < eps {
				nW++
				if du[j] < eps {
					nUW++
				}
				if dv[j] < eps {
					nVW++
				}
			}
		}
		psiSum += mathext.Digamma(float64(nUW+1)) +
			mathext.Digamma(float64(nVW+1)) -
			mathext.Digamma(float64(nW+1))
	}

	return mathext.Digamma(float64(k)) - psiSum/float64(n), nil
}

// kthDistance returns the distance to the k-th nearest neighbor of point i,
// excluding i itself.
func kthDistance(dists []float64, i, k int) float64 {
	sorted := make([]float64, 0, len(dists)-1)
	for j, d := range dists {
		if j != i {
			sorted = append(sorted, d)
		}
	}
	sort.Float64s(sorted)
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[k-1]
}

// kNearest returns the indices of the k nearest neighbors of point i.
func kNearest(dists []float64, i, k int) []int {
	idx := make([]int, 0, len(dists)-1)
	for j := range dists {
		if j != i {
			idx = append(idx, j)
		}
	}
	sort.Slice(idx, func(a, b int) bool { return dists[idx[a]] < dists[idx[b]] })
	if k > len(idx) {
		k = len(idx)
	}
	return idx[:k]
}

// countWithin counts points within eps of point i, excluding i. Inclusive
// selects <= (algorithm 2), otherwise strictly < (algorithm 1).
func countWithin(dists []float64, i int, eps float64, inclusive bool) int {
	n := 0
	for j, d := range dists {
		if j == i {
			continue
		}
		if (inclusive && d <= eps) || (!inclusive && d < eps) {
			n++
		}
	}
	return n
}
