// Package ports defines the contracts between the matrix assembly engine and
// its collaborators: per-pair estimator calculators, the ΦID decomposer,
// result persistence, and progress observation.
package ports

import "math/rand"

// Significance summarises a permutation test's surrogate distribution.
type Significance struct {
	NullMean float64 `json:"null_mean"`
	NullStd  float64 `json:"null_std"`
	PValue   float64 `json:"p_value"`
}

// Calculator estimates one information-theoretic quantity for one pair of
// aligned observation blocks. Observations are samples-major: each row is one
// time point, each column one channel of the unit (width 1 for pointwise
// analysis). Estimates are reported in nats.
//
// The pipeline per pair is Initialise, SetObservations, ComputeAverageLocal,
// then optionally ComputeSignificance. Initialise resets all per-pair state,
// so one calculator instance may be reused across pairs sequentially; it is
// not safe for concurrent use.
type Calculator interface {
	// Name is the human-readable estimator name.
	Name() string

	// SupportsSignificance reports whether ComputeSignificance is available.
	SupportsSignificance() bool

	// Initialise declares the per-pair observation dimensionality (source
	// columns, target columns) and clears prior observations.
	Initialise(dimX, dimY int) error

	// SetObservations stores the pair's aligned samples-major blocks.
	SetObservations(x, y [][]float64) error

	// ComputeAverageLocal returns the estimate, in nats, over the stored
	// observations.
	ComputeAverageLocal() (float64, error)

	// ComputeSignificance runs a permutation test with the given surrogate
	// count, shuffling source observations while holding the target fixed.
	ComputeSignificance(permutations int, rng *rand.Rand) (Significance, error)
}

// Progress observes a long-running matrix pass pair by pair.
type Progress func(done, total int)
