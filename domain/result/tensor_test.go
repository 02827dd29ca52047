package result

import "testing"

func TestTensorIndexing(t *testing.T) {
	tn := NewTensor(3, 2, 4)
	tn.Set(1, 2, 1, StatPValue, 0.04)
	if got := tn.At(1, 2, 1, StatPValue); got != 0.04 {
		t.Errorf("Expected 0.04, got %v", got)
	}
	if tn.At(2, 1, 1, StatPValue) != 0 {
		t.Error("Unwritten cell should stay zero-filled")
	}
}

func TestSetEpochAndCopyPair(t *testing.T) {
	tn := NewTensor(2, 1, 4)
	tn.SetEpoch(0, 1, 0, []float64{1.5, 0.2, 0.1, 0.03})
	tn.CopyPair(1, 0, 0, 1)
	for s := 0; s < 4; s++ {
		if tn.At(1, 0, 0, s) != tn.At(0, 1, 0, s) {
			t.Fatalf("Mirrored stat %d differs", s)
		}
	}
	if tn.Estimate(1, 0, 0) != 1.5 {
		t.Errorf("Expected mirrored estimate 1.5, got %v", tn.Estimate(1, 0, 0))
	}
}

func TestEpochMean(t *testing.T) {
	tn := NewTensor(1, 2, 1)
	tn.Set(0, 0, 0, StatEstimate, 1)
	tn.Set(0, 0, 1, StatEstimate, 3)
	if got := tn.EpochMean(0, 0); got != 2 {
		t.Errorf("Expected epoch mean 2, got %v", got)
	}
}

func TestFromRaw(t *testing.T) {
	tn := NewTensor(2, 1, 1)
	tn.Set(0, 1, 0, StatEstimate, 7)
	back, err := FromRaw(2, 1, 1, tn.Raw())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if back.Estimate(0, 1, 0) != 7 {
		t.Error("Raw round trip lost data")
	}
	if _, err := FromRaw(2, 1, 1, []float64{1}); err == nil {
		t.Error("Expected length mismatch error")
	}
}

func TestAtomsTotal(t *testing.T) {
	a := Atoms{}
	for i, name := range AtomNames {
		a[name] = float64(i)
	}
	want := 120.0 // 0+1+...+15
	if got := a.Total(); got != want {
		t.Errorf("Expected total %v, got %v", want, got)
	}
	if len(AtomNames) != 16 {
		t.Fatalf("Expected 16 canonical atoms, got %d", len(AtomNames))
	}
}
