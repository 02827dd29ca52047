package estimators

import (
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"hyperit/domain/core"
	"hyperit/ports"
)

// permutationTest builds a surrogate null distribution by shuffling source
// samples in time while holding the target fixed, mirroring the permutation
// scheme of the native calculators. The p-value is the fraction of surrogates
// at or above the observed estimate.
func permutationTest(
	estimate func(x, y [][]float64) (float64, error),
	x, y [][]float64,
	permutations int,
	rng *rand.Rand,
) (ports.Significance, error) {
	if permutations < 1 {
		return ports.Significance{}, core.NewValidationError("permutations", "must be positive")
	}
	if rng == nil {
		return ports.Significance{}, core.NewValidationError("permutations", "nil random source")
	}

	observed, err := estimate(x, y)
	if err != nil {
		return ports.Significance{}, err
	}

	nulls := make([]float64, permutations)
	extreme := 0
	for i := 0; i < permutations; i++ {
		surrogate := shuffleRows(x, rng.Perm(len(x)))
		v, err := estimate(surrogate, y)
		if err != nil {
			return ports.Significance{}, err
		}
		nulls[i] = v
		if v >= observed {
			extreme++
		}
	}

	mean, std := stat.MeanStdDev(nulls, nil)
	return ports.Significance{
		NullMean: mean,
		NullStd:  std,
		PValue:   float64(extreme) / float64(permutations),
	}, nil
}
