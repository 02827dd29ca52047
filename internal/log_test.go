package internal

import (
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"ERROR":   LevelError,
		" warn ":  LevelWarn,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"VERBOSE": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerLevelCutoff(t *testing.T) {
	var buf strings.Builder
	l := NewLogger(&buf, LevelWarn)

	l.Error("broke: %d", 1)
	l.Warn("degraded")
	l.Info("routine")

	out := buf.String()
	if !strings.Contains(out, "[ERROR] broke: 1") {
		t.Errorf("Expected error line, got %q", out)
	}
	if !strings.Contains(out, "[WARN] degraded") {
		t.Errorf("Expected warn line, got %q", out)
	}
	if strings.Contains(out, "routine") {
		t.Errorf("Info should be dropped at warn level, got %q", out)
	}
}
