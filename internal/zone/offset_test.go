package zone

import (
	"testing"
	"time"
)

func TestFormatOffset(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "GMT"},
		{9 * 3600, "GMT+9"},
		{-5 * 3600, "GMT-5"},
		{5*3600 + 30*60, "GMT+5:30"},
		{5*3600 + 45*60, "GMT+5:45"},
		{-(3*3600 + 30*60), "GMT-3:30"},
		{14 * 3600, "GMT+14"},
	}
	for _, tc := range cases {
		if got := FormatOffset(tc.seconds); got != tc.want {
			t.Errorf("FormatOffset(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestLabel(t *testing.T) {
	if got := Label("America/New_York"); got != "America New York" {
		t.Fatalf("Label() = %q", got)
	}
	if got := Label("UTC"); got != "UTC" {
		t.Fatalf("Label() = %q", got)
	}
}

func TestParseFixed(t *testing.T) {
	ref := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	valid := map[string]int{
		"UTC":       0,
		"UTC+2":     2 * 3600,
		"UTC-5":     -5 * 3600,
		"UTC+05:30": 5*3600 + 30*60,
		"UTC-14":    -14 * 3600,
	}
	for id, want := range valid {
		loc, ok := ParseFixed(id)
		if !ok {
			t.Errorf("ParseFixed(%q) not recognized", id)
			continue
		}
		if _, off := ref.In(loc).Zone(); off != want {
			t.Errorf("ParseFixed(%q) offset = %d, want %d", id, off, want)
		}
	}

	for _, id := range []string{"UTC+", "UTC2", "UTC++2", "UTC+-2", "UTC+2:3", "UTC+2:60", "UTC+15", "UTC+123", "GMT+2", "Europe/Paris"} {
		if _, ok := ParseFixed(id); ok {
			t.Errorf("ParseFixed(%q) unexpectedly recognized", id)
		}
	}
}
