package app

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"hyperit/adapters/estimators"
	"hyperit/adapters/phiid"
	"hyperit/domain/signal"
)

func randomMatrix(channels, samples int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	m := make([][]float64, channels)
	for c := range m {
		m[c] = make([]float64, samples)
		for t := range m[c] {
			m[c][t] = rng.NormFloat64()
		}
	}
	return m
}

func randomEpochs(epochs, channels, samples int, seed int64) [][][]float64 {
	rng := rand.New(rand.NewSource(seed))
	e := make([][][]float64, epochs)
	for i := range e {
		e[i] = make([][]float64, channels)
		for c := range e[i] {
			e[i][c] = make([]float64, samples)
			for t := range e[i][c] {
				e[i][c][t] = rng.NormFloat64()
			}
		}
	}
	return e
}

func mustSignal(t *testing.T, m [][]float64) signal.Signal {
	t.Helper()
	s, err := signal.FromMatrix(m)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return s
}

func TestIntraSourceMI(t *testing.T) {
	data := randomMatrix(2, 500, 1)
	s := mustSignal(t, data)

	a, err := New(s, s, [][]string{{"C3", "C4"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !a.Pair().Intra {
		t.Fatal("Identical signals should be detected as intra-source")
	}

	tensor, err := a.ComputeMI(context.Background(), estimators.MIConfig(estimators.Gaussian))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if tensor.Units() != 2 || tensor.Epochs() != 1 || tensor.Stats() != 1 {
		t.Fatalf("Expected 2x2x1x1 tensor, got %dx%dx%dx%d",
			tensor.Units(), tensor.Units(), tensor.Epochs(), tensor.Stats())
	}
	if d := tensor.Estimate(0, 0, 0); d != 0 {
		t.Errorf("Intra diagonal should stay zero, got %v", d)
	}
	if d := tensor.Estimate(1, 1, 0); d != 0 {
		t.Errorf("Intra diagonal should stay zero, got %v", d)
	}
	upper, lower := tensor.Estimate(0, 1, 0), tensor.Estimate(1, 0, 0)
	if upper != lower {
		t.Errorf("Mirrored MI cells differ: %v vs %v", upper, lower)
	}
	if upper == 0 {
		t.Error("Off-diagonal MI should have been computed")
	}
}

func TestInterSourceMIWithSignificance(t *testing.T) {
	x := mustSignal(t, randomMatrix(3, 200, 2))
	y := mustSignal(t, randomMatrix(3, 200, 3))

	a, err := New(x, y, [][]string{{"a1", "a2", "a3"}, {"b1", "b2", "b3"}}, WithSeed(7))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	cfg := estimators.MIConfig(estimators.KSG1)
	cfg.Significance = true
	cfg.Params.Permutations = 20

	tensor, err := a.ComputeMI(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if tensor.Stats() != 4 {
		t.Fatalf("Expected 4 statistics with significance on, got %d", tensor.Stats())
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p := tensor.At(i, j, 0, 3)
			if p < 0 || p > 1 {
				t.Errorf("Pair (%d,%d) p-value %v outside [0,1]", i, j, p)
			}
		}
	}
	// Inter-source analysis computes the diagonal too.
	if tensor.Estimate(0, 0, 0) == 0 && tensor.Estimate(1, 1, 0) == 0 {
		t.Error("Inter-source diagonal cells should carry estimates")
	}
}

func TestEpochedMI(t *testing.T) {
	x, err := signal.FromEpochs(randomEpochs(4, 2, 150, 4))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	y, err := signal.FromEpochs(randomEpochs(4, 2, 150, 5))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	a, err := New(x, y, [][]string{{"x1", "x2"}, {"y1", "y2"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tensor, err := a.ComputeMI(context.Background(), estimators.MIConfig(estimators.Gaussian))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if tensor.Epochs() != 4 {
		t.Fatalf("Expected 4 epochs, got %d", tensor.Epochs())
	}
	for e := 0; e < 4; e++ {
		if v := tensor.Estimate(0, 1, e); math.IsNaN(v) {
			t.Errorf("Epoch %d estimate is NaN", e)
		}
	}
}

func TestHistogramStrategyPath(t *testing.T) {
	x := mustSignal(t, randomMatrix(2, 300, 6))
	y := mustSignal(t, randomMatrix(2, 300, 7))

	a, err := New(x, y, [][]string{{"x1", "x2"}, {"y1", "y2"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// A significance request on the histogram path clamps to estimates only.
	cfg := estimators.MIConfig(estimators.Histogram)
	cfg.Significance = true

	tensor, err := a.ComputeMI(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if tensor.Stats() != 1 {
		t.Errorf("Histogram path should collapse to a single statistic, got %d", tensor.Stats())
	}
	if tensor.Estimate(0, 0, 0) <= 0 {
		t.Error("Histogram MI estimates should be positive")
	}

	// Grouped units are out of reach for univariate strategies.
	if err := a.SetGroupedROI([][]int{{0, 1}}, [][]int{{0, 1}}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := a.ComputeMI(context.Background(), cfg); err == nil {
		t.Error("Expected error for grouped ROI on the histogram path")
	}
}

func TestTransferEntropyDirections(t *testing.T) {
	t.Run("inter-source fills both tensors", func(t *testing.T) {
		x := mustSignal(t, randomMatrix(2, 250, 8))
		y := mustSignal(t, randomMatrix(2, 250, 9))
		a, err := New(x, y, [][]string{{"x1", "x2"}, {"y1", "y2"}})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		xy, yx, err := a.ComputeTE(context.Background(), estimators.TEConfig(estimators.Gaussian))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if xy.IsZeroFilled() {
			t.Error("Forward tensor should carry estimates")
		}
		if yx.IsZeroFilled() {
			t.Error("Reverse tensor should carry estimates for inter-source analysis")
		}
	})

	t.Run("intra-source reverse tensor stays zero", func(t *testing.T) {
		s := mustSignal(t, randomMatrix(2, 250, 10))
		a, err := New(s, s, [][]string{{"c1", "c2"}})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		xy, yx, err := a.ComputeTE(context.Background(), estimators.TEConfig(estimators.Gaussian))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if xy.Estimate(0, 1, 0) == 0 || xy.Estimate(1, 0, 0) == 0 {
			t.Error("Forward tensor should hold both off-diagonal directions")
		}
		if !yx.IsZeroFilled() {
			t.Error("Reverse tensor is redundant for intra-source analysis")
		}
	})
}

func TestROILifecycle(t *testing.T) {
	x := mustSignal(t, randomMatrix(4, 100, 11))
	y := mustSignal(t, randomMatrix(4, 100, 12))

	a, err := New(x, y, [][]string{{"F3", "F4", "C3", "C4"}, {"F3", "F4", "C3", "C4"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if a.ROI().Units() != 4 {
		t.Fatalf("Default ROI should cover all channels, got %d units", a.ROI().Units())
	}

	if err := a.SetPointwiseROINames([]string{"F3", "C3"}, []string{"F4", "C4"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if a.ROI().Units() != 2 {
		t.Errorf("Expected 2 units after restriction, got %d", a.ROI().Units())
	}

	// A failed replacement keeps the previous selection.
	if err := a.SetPointwiseROINames([]string{"F3", "Oz"}, []string{"F4", "C4"}); err == nil {
		t.Fatal("Expected error for unknown channel label")
	}
	if a.ROI().Units() != 2 {
		t.Errorf("Failed replacement should keep prior ROI, got %d units", a.ROI().Units())
	}
	if err := a.SetPointwiseROI([]int{0, 9}, []int{1, 2}); err == nil {
		t.Fatal("Expected error for out-of-range channel index")
	}

	a.ResetROI()
	if a.ROI().Units() != 4 {
		t.Errorf("Reset should restore the full selection, got %d units", a.ROI().Units())
	}
}

func TestGroupedAtoms(t *testing.T) {
	x, err := signal.FromEpochs(randomEpochs(2, 6, 400, 13))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	y, err := signal.FromEpochs(randomEpochs(2, 6, 400, 14))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	names := []string{"c1", "c2", "c3", "c4", "c5", "c6"}
	a, err := New(x, y, [][]string{names, names})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	groups := [][]int{{0, 1, 2}, {3, 4, 5}}
	if err := a.SetGroupedROI(groups, groups); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	xy, yx, err := a.ComputeAtoms(context.Background(), phiid.NewGaussianMMI(), 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			fwd, rev := xy.At(i, j), yx.At(i, j)
			if fwd == nil || rev == nil {
				t.Fatalf("Pair (%d,%d) missing atoms", i, j)
			}
			if len(fwd) != 16 {
				t.Errorf("Pair (%d,%d) has %d atoms, expected 16", i, j, len(fwd))
			}
			if math.IsNaN(fwd.Total()) || math.IsNaN(rev.Total()) {
				t.Errorf("Pair (%d,%d) total is NaN", i, j)
			}
		}
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	x := mustSignal(t, randomMatrix(3, 150, 15))
	y := mustSignal(t, randomMatrix(3, 150, 16))
	names := [][]string{{"x1", "x2", "x3"}, {"y1", "y2", "y3"}}

	seq, err := New(x, y, names, WithSeed(5))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	par, err := New(x, y, names, WithSeed(5), WithWorkers(4))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	cfg := estimators.MIConfig(estimators.Gaussian)
	cfg.Significance = true
	cfg.Params.Permutations = 10

	a, err := seq.ComputeMI(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	b, err := par.ComputeMI(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	ra, rb := a.Raw(), b.Raw()
	for k := range ra {
		if ra[k] != rb[k] {
			t.Fatalf("Parallel result diverges at offset %d: %v vs %v", k, ra[k], rb[k])
		}
	}
}

func TestProgressCallback(t *testing.T) {
	x := mustSignal(t, randomMatrix(2, 120, 17))
	y := mustSignal(t, randomMatrix(2, 120, 18))

	var calls, lastTotal int
	a, err := New(x, y, [][]string{{"x1", "x2"}, {"y1", "y2"}},
		WithProgress(func(done, total int) {
			calls++
			lastTotal = total
		}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := a.ComputeMI(context.Background(), estimators.MIConfig(estimators.Gaussian)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if calls != 4 || lastTotal != 4 {
		t.Errorf("Expected 4 progress ticks over 4 pairs, got %d over %d", calls, lastTotal)
	}
}

func TestUnknownEstimator(t *testing.T) {
	x := mustSignal(t, randomMatrix(2, 100, 19))
	a, err := New(x, x, [][]string{{"c1", "c2"}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := a.ComputeMI(context.Background(), estimators.Config{Type: "wavelet"}); err == nil {
		t.Error("Expected error for unknown estimator token")
	}
}
