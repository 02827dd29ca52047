package estimators

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"hyperit/domain/core"
)

// correlatedPair draws two unit-variance Gaussian series with correlation rho.
func correlatedPair(n int, rho float64, seed int64) ([]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b := rng.NormFloat64(), rng.NormFloat64()
		x[i] = a
		y[i] = rho*a + math.Sqrt(1-rho*rho)*b
	}
	return x, y
}

func asColumn(seq []float64) [][]float64 {
	out := make([][]float64, len(seq))
	for i, v := range seq {
		out[i] = []float64{v}
	}
	return out
}

func TestHistogramMISymmetry(t *testing.T) {
	x, y := correlatedPair(400, 0.7, 1)
	ab, err := HistogramMI(x, y)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	ba, err := HistogramMI(y, x)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(ab-ba) > 1e-12 {
		t.Errorf("Histogram MI should be symmetric: %v vs %v", ab, ba)
	}
	if ab <= 0 {
		t.Errorf("Correlated series should carry positive MI, got %v", ab)
	}
}

func TestHistogramMIDetectsDependence(t *testing.T) {
	xDep, yDep := correlatedPair(500, 0.9, 2)
	xInd, _ := correlatedPair(500, 0, 3)
	_, yInd := correlatedPair(500, 0, 4)

	dep, err := HistogramMI(xDep, yDep)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	ind, err := HistogramMI(xInd, yInd)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dep <= ind {
		t.Errorf("Expected MI(dep)=%v > MI(indep)=%v", dep, ind)
	}
}

func TestFreedmanDiaconisBins(t *testing.T) {
	t.Run("positive bin count", func(t *testing.T) {
		x, y := correlatedPair(300, 0.5, 5)
		bins, err := freedmanDiaconisBins(x, y)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if bins < 1 {
			t.Errorf("Expected positive bin count, got %d", bins)
		}
	})

	t.Run("zero IQR falls back to Sturges", func(t *testing.T) {
		// Mostly-constant sequence: IQR is zero but the range is not.
		seq := make([]float64, 128)
		seq[0] = 1
		b, err := fdBinsOne(seq)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if want := math.Ceil(math.Log2(128)) + 1; b != want {
			t.Errorf("Expected Sturges fallback %v, got %v", want, b)
		}
	})

	t.Run("constant sequence rejected", func(t *testing.T) {
		seq := make([]float64, 64)
		if _, err := fdBinsOne(seq); !core.IsValidationError(err) {
			t.Errorf("Expected validation error, got %v", err)
		}
	})
}

func TestSymbolicMI(t *testing.T) {
	x, y := correlatedPair(600, 0.95, 6)
	xi, _ := correlatedPair(600, 0, 7)
	_, yi := correlatedPair(600, 0, 8)

	dep, err := SymbolicMI(x, y, 1, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	ind, err := SymbolicMI(xi, yi, 1, 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dep <= ind {
		t.Errorf("Expected symbolic MI(dep)=%v > MI(indep)=%v", dep, ind)
	}

	if _, err := SymbolicMI([]float64{1, 2}, []float64{1, 2}, 1, 3); !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("Expected insufficient-data error for tiny sequence, got %v", err)
	}
}

func TestGaussianMIMatchesClosedForm(t *testing.T) {
	rho := 0.8
	x, y := correlatedPair(4000, rho, 9)

	calc := NewGaussianMI(DefaultMIParams())
	if err := calc.Initialise(1, 1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := calc.SetObservations(asColumn(x), asColumn(y)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	got, err := calc.ComputeAverageLocal()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := -0.5 * math.Log(1-rho*rho) // nats
	if math.Abs(got-want) > 0.05 {
		t.Errorf("Gaussian MI = %v, want about %v", got, want)
	}
}

func TestKSGMIPositiveForDependence(t *testing.T) {
	for _, variant := range []int{1, 2} {
		x, y := correlatedPair(300, 0.8, 10)
		calc := NewKSGMI(DefaultMIParams(), variant)
		if err := calc.Initialise(1, 1); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if err := calc.SetObservations(asColumn(x), asColumn(y)); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		mi, err := calc.ComputeAverageLocal()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if mi < 0.1 {
			t.Errorf("KSG v%d MI = %v, expected clearly positive", variant, mi)
		}
	}
}

func TestKernelMIRuns(t *testing.T) {
	x, y := correlatedPair(200, 0.6, 11)
	calc := NewKernelMI(DefaultMIParams())
	if err := calc.Initialise(1, 1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := calc.SetObservations(asColumn(x), asColumn(y)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	mi, err := calc.ComputeAverageLocal()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.IsNaN(mi) || math.IsInf(mi, 0) {
		t.Errorf("Kernel MI should be finite, got %v", mi)
	}
}

func TestGaussianTEDirectionality(t *testing.T) {
	// y follows x with one step of lag, so TE(x->y) should dominate TE(y->x).
	rng := rand.New(rand.NewSource(12))
	n := 800
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 1; i < n; i++ {
		x[i] = 0.5*x[i-1] + rng.NormFloat64()
		y[i] = 0.8*x[i-1] + 0.2*rng.NormFloat64()
	}

	te := func(a, b []float64) float64 {
		calc := NewGaussianTE(DefaultTEParams())
		if err := calc.Initialise(1, 1); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if err := calc.SetObservations(asColumn(a), asColumn(b)); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		v, err := calc.ComputeAverageLocal()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		return v
	}

	forward, backward := te(x, y), te(y, x)
	if forward <= backward {
		t.Errorf("Expected TE(x->y)=%v > TE(y->x)=%v", forward, backward)
	}
}

func TestSymbolicTE(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	n := 600
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 1; i < n; i++ {
		x[i] = rng.NormFloat64()
		y[i] = x[i-1] + 0.1*rng.NormFloat64()
	}

	calc := NewSymbolicTE(DefaultTEParams())
	if err := calc.Initialise(1, 1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := calc.SetObservations(asColumn(x), asColumn(y)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	te, err := calc.ComputeAverageLocal()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if te < 0 {
		t.Errorf("Plug-in discrete TE should be non-negative, got %v", te)
	}

	if _, err := calc.ComputeSignificance(10, rng); err == nil {
		t.Error("Symbolic TE should refuse significance testing")
	}
	if err := calc.Initialise(2, 2); err == nil {
		t.Error("Symbolic TE should refuse multivariate dimensions")
	}
}

func TestPermutationSignificance(t *testing.T) {
	x, y := correlatedPair(300, 0.8, 14)
	calc := NewGaussianMI(DefaultMIParams())
	if err := calc.Initialise(1, 1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := calc.SetObservations(asColumn(x), asColumn(y)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	sig, err := calc.ComputeSignificance(50, rand.New(rand.NewSource(15)))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sig.PValue < 0 || sig.PValue > 1 {
		t.Errorf("p-value %v outside [0,1]", sig.PValue)
	}
	// Strong dependence should beat every shuffled surrogate.
	if sig.PValue > 0.1 {
		t.Errorf("Expected small p-value for rho=0.8, got %v", sig.PValue)
	}
	if math.IsNaN(sig.NullMean) || math.IsNaN(sig.NullStd) {
		t.Error("Null distribution moments should be finite")
	}
}

func TestRegistry(t *testing.T) {
	t.Run("unknown token", func(t *testing.T) {
		_, err := Lookup(MeasureMI, Type("wavelet"))
		if !core.IsUnsupportedEstimator(err) {
			t.Errorf("Expected unsupported-estimator error, got %v", err)
		}
	})

	t.Run("histogram is MI-only", func(t *testing.T) {
		if _, err := Lookup(MeasureTE, Histogram); !core.IsUnsupportedEstimator(err) {
			t.Errorf("Expected unsupported-estimator error, got %v", err)
		}
	})

	t.Run("strategy vs calculator paths", func(t *testing.T) {
		hist, err := Lookup(MeasureMI, Histogram)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !hist.IsStrategy() || hist.SupportsSignificance {
			t.Error("Histogram should be a strategy without significance support")
		}

		gauss, err := Lookup(MeasureMI, Gaussian)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if gauss.IsStrategy() || !gauss.SupportsSignificance {
			t.Error("Gaussian should be a calculator with significance support")
		}
	})

	t.Run("parse normalises case", func(t *testing.T) {
		typ, err := ParseType(MeasureMI, " KSG1 ")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if typ != KSG1 {
			t.Errorf("Expected ksg1, got %s", typ)
		}
	})
}

func TestCalculatorStateDoesNotLeakAcrossPairs(t *testing.T) {
	x1, y1 := correlatedPair(200, 0.9, 16)
	x2, y2 := correlatedPair(200, 0.0, 17)

	calc := NewGaussianMI(DefaultMIParams())

	run := func(x, y []float64) float64 {
		if err := calc.Initialise(1, 1); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if err := calc.SetObservations(asColumn(x), asColumn(y)); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		v, err := calc.ComputeAverageLocal()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		return v
	}

	first := run(x1, y1)
	second := run(x2, y2)
	if second >= first {
		t.Errorf("Independent pair (%v) should score below dependent pair (%v)", second, first)
	}

	// Initialise clears observations: computing without setting must fail.
	if err := calc.Initialise(1, 1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := calc.ComputeAverageLocal(); err == nil {
		t.Error("Expected error when computing without observations")
	}
}
