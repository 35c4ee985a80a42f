package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":  LevelDebug,
		" WARN ": LevelWarn,
		"error":  LevelError,
		"info":   LevelInfo,
		"bogus":  LevelInfo,
		"":       LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	t.Cleanup(func() { SetLevel(LevelInfo) })

	Info("hidden")
	Warn("shown", "zone", "Europe/Paris")
	Error("failed", errors.New("boom"), "name", "team sync")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("INFO line should be filtered at WARN level:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] shown zone=Europe/Paris") {
		t.Fatalf("missing WARN line:\n%s", out)
	}
	if !strings.Contains(out, `[ERROR] failed err=boom name="team sync"`) {
		t.Fatalf("missing ERROR line:\n%s", out)
	}
}
