package render

import (
	"strings"
	"testing"

	"hyperit/domain/core"
	"hyperit/domain/result"
)

func sampleTensor() *result.Tensor {
	t := result.NewTensor(2, 2, result.StatsEstimateOnly)
	t.Set(0, 1, 0, result.StatEstimate, 0.5)
	t.Set(0, 1, 1, result.StatEstimate, 0.7)
	t.Set(1, 0, 0, result.StatEstimate, 0.5)
	t.Set(1, 0, 1, result.StatEstimate, 0.7)
	return t
}

func TestHeatmap(t *testing.T) {
	tensor := sampleTensor()
	labels := []string{"C3", "C4"}

	t.Run("epoch mean", func(t *testing.T) {
		var buf strings.Builder
		err := Heatmap(&buf, tensor, HeatmapSpec{
			Title:   "Mutual Information",
			XLabels: labels,
			YLabels: labels,
		})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "Mutual Information") {
			t.Error("Rendered page should carry the title")
		}
		if !strings.Contains(out, "C3") {
			t.Error("Rendered page should carry axis labels")
		}
	})

	t.Run("single epoch out of range", func(t *testing.T) {
		var buf strings.Builder
		err := Heatmap(&buf, tensor, HeatmapSpec{
			Title:   "Mutual Information",
			XLabels: labels,
			YLabels: labels,
			Display: DisplaySingleEpoch,
			Epoch:   5,
		})
		if !core.IsValidationError(err) {
			t.Errorf("Expected validation error, got %v", err)
		}
	})

	t.Run("label count mismatch", func(t *testing.T) {
		var buf strings.Builder
		err := Heatmap(&buf, tensor, HeatmapSpec{XLabels: []string{"C3"}, YLabels: labels})
		if !core.IsValidationError(err) {
			t.Errorf("Expected validation error, got %v", err)
		}
	})
}

func TestReport(t *testing.T) {
	report := Report{
		RunID:     core.NewID(),
		Measure:   "Mutual Information",
		Estimator: "Gaussian Estimator",
		XLabels:   []string{"C3", "C4"},
		YLabels:   []string{"C3", "C4"},
		Tensor:    sampleTensor(),
	}

	t.Run("markdown", func(t *testing.T) {
		var buf strings.Builder
		if err := report.Markdown(&buf); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "Gaussian Estimator") {
			t.Error("Report should name the estimator")
		}
		// 0.5 and 0.7 average to 0.6 over the two epochs.
		if !strings.Contains(out, "0.6000") {
			t.Errorf("Report should carry epoch-mean cells, got:\n%s", out)
		}
	})

	t.Run("html", func(t *testing.T) {
		var buf strings.Builder
		if err := report.HTML(&buf); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "<table>") {
			t.Error("HTML report should contain a rendered table")
		}
		if !strings.Contains(out, "<html>") {
			t.Error("HTML report should be a complete page")
		}
	})
}
