package phiid

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"hyperit/domain/core"
	"hyperit/domain/result"
)

func coupledSeries(n int, seed int64) ([][]float64, [][]float64) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([][]float64, n)
	xv, yv := 0.0, 0.0
	for t := 0; t < n; t++ {
		xv = 0.6*xv + rng.NormFloat64()
		yv = 0.4*yv + 0.5*xv + 0.5*rng.NormFloat64()
		x[t] = []float64{xv}
		y[t] = []float64{yv}
	}
	return x, y
}

func TestGaussianMMIDecompose(t *testing.T) {
	x, y := coupledSeries(1000, 1)

	atoms, err := NewGaussianMMI().Decompose(x, y, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(atoms) != 16 {
		t.Fatalf("Expected 16 atoms, got %d", len(atoms))
	}
	for _, name := range result.AtomNames {
		local, ok := atoms[name]
		if !ok {
			t.Fatalf("Missing atom %q", name)
		}
		if len(local) != 999 {
			t.Errorf("Atom %q has %d locals, expected 999", name, len(local))
		}
	}

	// The all-atom row of the system is the full time-lagged MI, so the
	// per-sample atom sum must reproduce it and its average must be positive
	// for coupled autoregressive series.
	total := 0.0
	for _, name := range result.AtomNames {
		mean := 0.0
		for _, v := range atoms[name] {
			mean += v
		}
		total += mean / float64(len(atoms[name]))
	}
	if total <= 0 {
		t.Errorf("Expected positive total lagged MI, got %v", total)
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		t.Errorf("Total should be finite, got %v", total)
	}
}

// laggedGaussianMI computes I((x_t, y_t); (x_{t+lag}, y_{t+lag})) directly
// from covariance log-determinants, independent of the lattice solve.
func laggedGaussianMI(x, y [][]float64, lag int) float64 {
	n := len(x) - lag
	z := mat.NewDense(n, 4, nil)
	for t := 0; t < n; t++ {
		z.SetRow(t, []float64{x[t][0], y[t][0], x[t+lag][0], y[t+lag][0]})
	}
	cov := mat.NewSymDense(4, nil)
	stat.CovarianceMatrix(cov, z, nil)

	logDet := func(s mat.Symmetric) float64 {
		var ch mat.Cholesky
		ch.Factorize(s)
		return ch.LogDet()
	}
	past := cov.SliceSym(0, 2)
	future := cov.SliceSym(2, 4)
	return 0.5 * (logDet(past) + logDet(future) - logDet(cov))
}

func TestGaussianMMIAtomSumMatchesLaggedMI(t *testing.T) {
	x, y := coupledSeries(1500, 5)

	atoms, err := NewGaussianMMI().Decompose(x, y, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	total := 0.0
	for _, name := range result.AtomNames {
		mean := 0.0
		for _, v := range atoms[name] {
			mean += v
		}
		total += mean / float64(len(atoms[name]))
	}

	want := laggedGaussianMI(x, y, 1)
	if math.Abs(total-want) > 1e-6 {
		t.Errorf("Atom sum %v should equal the pair's lagged MI %v", total, want)
	}
}

func TestGaussianMMIAtomSumMatchesRedundancyBound(t *testing.T) {
	x, y := coupledSeries(800, 2)

	atoms, err := NewGaussianMMI().Decompose(x, y, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// rtr is a pointwise minimum of the four single-single informations, so
	// per sample rtr can never exceed I(x;x'), which is rtr+rtx+xtr+xtx.
	for t1 := range atoms["rtr"] {
		ixx := atoms["rtr"][t1] + atoms["rtx"][t1] + atoms["xtr"][t1] + atoms["xtx"][t1]
		if atoms["rtr"][t1] > ixx+1e-9 {
			t.Fatalf("Sample %d: rtr=%v exceeds I(x;x')=%v", t1, atoms["rtr"][t1], ixx)
		}
	}
}

func TestGaussianMMIMultivariateGroups(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 600
	x := make([][]float64, n)
	y := make([][]float64, n)
	for t1 := 0; t1 < n; t1++ {
		a, b := rng.NormFloat64(), rng.NormFloat64()
		x[t1] = []float64{a, b}
		y[t1] = []float64{0.7*a + 0.3*rng.NormFloat64(), rng.NormFloat64()}
	}

	atoms, err := NewGaussianMMI().Decompose(x, y, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(atoms["sts"]) != n-1 {
		t.Errorf("Expected %d locals, got %d", n-1, len(atoms["sts"]))
	}
}

func TestGaussianMMIValidation(t *testing.T) {
	x, y := coupledSeries(100, 4)

	if _, err := NewGaussianMMI().Decompose(x, y, 0); !core.IsValidationError(err) {
		t.Errorf("Expected validation error for zero lag, got %v", err)
	}
	if _, err := NewGaussianMMI().Decompose(x[:50], y, 1); !core.IsValidationError(err) {
		t.Errorf("Expected validation error for length mismatch, got %v", err)
	}
	if _, err := NewGaussianMMI().Decompose(x[:4], y[:4], 1); err == nil {
		t.Error("Expected error for too few samples")
	}
}
