package zone

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadZones_DedupesSortsAndIgnoresComments(t *testing.T) {
	input := strings.NewReader(`
# Comment
Europe/Paris
America/New_York
Europe/Paris

UTC
`)

	zones, err := LoadZones(input)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []string{"America/New_York", "Europe/Paris", "UTC"}
	if diff := cmp.Diff(want, zones); diff != "" {
		t.Fatalf("LoadZones() mismatch (-want +got):\n%s", diff)
	}
}

func TestEmbeddedSource_ContainsMajorZones(t *testing.T) {
	zones, err := EmbeddedSource{}.Zones()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, expected := range []string{"UTC", "America/New_York", "Europe/Paris", "Asia/Kolkata", "Pacific/Kiritimati"} {
		if !containsString(zones, expected) {
			t.Fatalf("expected zone %q to be present", expected)
		}
	}
}

func writeZoneFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSystemSource_WalksTZifFiles(t *testing.T) {
	root := t.TempDir()
	writeZoneFile(t, root, "Europe/Paris", "TZif2 payload")
	writeZoneFile(t, root, "America/Argentina/Salta", "TZif2 payload")
	writeZoneFile(t, root, "UTC", "TZif2 payload")
	writeZoneFile(t, root, "zone.tab", "# not a zone file")
	writeZoneFile(t, root, "posix/Europe/Paris", "TZif2 payload")
	writeZoneFile(t, root, "right/UTC", "TZif2 payload")
	writeZoneFile(t, root, "posixrules", "TZif2 payload")

	zones, err := SystemSource{Dir: root}.Zones()
	if err != nil {
		t.Fatalf("Zones() error = %v", err)
	}
	want := []string{"America/Argentina/Salta", "Europe/Paris", "UTC"}
	if diff := cmp.Diff(want, zones); diff != "" {
		t.Fatalf("Zones() mismatch (-want +got):\n%s", diff)
	}
}

func TestSystemSource_MissingDirectoryIsUnsupported(t *testing.T) {
	_, err := SystemSource{Dir: filepath.Join(t.TempDir(), "missing")}.Zones()
	if !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
	}
}

func TestFallbackSource_UsesStaticListWhenPlatformFails(t *testing.T) {
	src := FallbackSource{
		Primary: SourceFunc(func() ([]string, error) {
			return nil, ErrUnsupportedPlatform
		}),
		Fallback: StaticSource{"UTC", "Asia/Tokyo"},
	}
	zones, err := src.Zones()
	if err != nil {
		t.Fatalf("Zones() error = %v", err)
	}
	if diff := cmp.Diff([]string{"UTC", "Asia/Tokyo"}, zones); diff != "" {
		t.Fatalf("Zones() mismatch (-want +got):\n%s", diff)
	}

	primary := FallbackSource{Primary: StaticSource{"Europe/Paris"}, Fallback: StaticSource{"UTC"}}
	zones, err = primary.Zones()
	if err != nil || len(zones) != 1 || zones[0] != "Europe/Paris" {
		t.Fatalf("expected primary list, got %v (err %v)", zones, err)
	}
}

func containsString(haystack []string, needle string) bool {
	for _, item := range haystack {
		if item == needle {
			return true
		}
	}
	return false
}
