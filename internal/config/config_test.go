package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Fatalf("first-run config mismatch (-want +got):\n%s", diff)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 perms, got %o", perm)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if diff := cmp.Diff(cfg, again); diff != "" {
		t.Fatalf("reload mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_PartialFileIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "listen: \":9090\"\nstore:\n  driver: SQLite\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := &Config{
		Listen:   ":9090",
		Timezone: "UTC",
		Refresh:  "@every 1s",
		LogLevel: "info",
		Store:    StoreConfig{Driver: DriverSQLite, Path: "chronos.db"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("normalized config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"driver":  "store:\n  driver: postgres\n",
		"level":   "log_level: loud\n",
		"refresh": "refresh: \"every now and then\"\n",
		"yaml":    "listen: [unterminated\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSave_AtomicAndReadable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := DefaultConfig()
	cfg.Timezone = "Asia/Tokyo"
	cfg.StrictCivilTime = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "timezone: Asia/Tokyo") {
		t.Fatalf("unexpected yaml:\n%s", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestStorePath(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.StorePath("/etc/chronos/config.yaml"); got != "/etc/chronos/chronos-events.json" {
		t.Fatalf("relative StorePath = %q", got)
	}
	cfg.Store.Path = "/var/lib/chronos/events.json"
	if got := cfg.StorePath("/etc/chronos/config.yaml"); got != cfg.Store.Path {
		t.Fatalf("absolute StorePath = %q", got)
	}
	cfg.Store.Path = ":memory:"
	if got := cfg.StorePath("/etc/chronos/config.yaml"); got != ":memory:" {
		t.Fatalf("memory StorePath = %q", got)
	}
}
