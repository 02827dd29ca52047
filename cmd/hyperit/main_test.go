package main

import (
	"strings"
	"testing"

	"hyperit/adapters/render"
	"hyperit/domain/result"
)

func TestSummarizeRowsAreSourceUnits(t *testing.T) {
	// Asymmetric grid: only src0 -> tgt1 is nonzero, so the value must land
	// in the src0 row at the tgt1 column.
	tensor := result.NewTensor(2, 1, 1)
	tensor.Set(0, 1, 0, 0, 0.8)

	var buf strings.Builder
	err := summarize(&buf, render.Report{
		Measure: "te",
		XLabels: []string{"src0", "src1"},
		YLabels: []string{"tgt0", "tgt1"},
		Tensor:  tensor,
	}, tensor)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header plus two rows, got %q", buf.String())
	}
	if !strings.Contains(lines[1], "src0") || !strings.Contains(lines[1], "0.8000") {
		t.Errorf("src0 row should carry the 0.8 estimate, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "src1") || strings.Contains(lines[2], "0.8000") {
		t.Errorf("src1 row should be zero, got %q", lines[2])
	}
}

func TestParseGroups(t *testing.T) {
	groups, grouped := parseGroups("C3,C4")
	if grouped || len(groups) != 1 || len(groups[0]) != 2 {
		t.Errorf("Expected one two-channel pointwise list, got %v grouped=%v", groups, grouped)
	}

	groups, grouped = parseGroups("C3,C4; F3,F4")
	if !grouped || len(groups) != 2 || groups[1][0] != "F3" {
		t.Errorf("Expected two trimmed groups, got %v grouped=%v", groups, grouped)
	}
}
