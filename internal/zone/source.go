// Package zone is the catalog of recognized timezone identifiers. It
// enumerates IANA zones from the platform (or an embedded fallback list),
// labels them for pickers, and resolves identifiers to *time.Location.
package zone

import (
	"bufio"
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	appLog "chronos/internal/log"
)

var (
	// ErrUnknownZone is returned for identifiers outside the catalog.
	ErrUnknownZone = errors.New("unknown zone")
	// ErrUnsupportedPlatform is returned when the zone database cannot be
	// enumerated on this host.
	ErrUnsupportedPlatform = errors.New("zone database unavailable")
)

//go:embed data/zones.txt
var dataFS embed.FS

const embeddedListPath = "data/zones.txt"

// Source enumerates zone identifiers.
type Source interface {
	Zones() ([]string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() ([]string, error)

func (f SourceFunc) Zones() ([]string, error) { return f() }

// StaticSource is a fixed identifier list.
type StaticSource []string

func (s StaticSource) Zones() ([]string, error) {
	return append([]string{}, s...), nil
}

// EmbeddedSource reads the zone list compiled into the binary.
type EmbeddedSource struct{}

func (EmbeddedSource) Zones() ([]string, error) {
	f, err := dataFS.Open(embeddedListPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return LoadZones(f)
}

// LoadZones reads one identifier per line, skipping blanks and # comments.
// The result is deduplicated and sorted.
func LoadZones(r io.Reader) ([]string, error) {
	if r == nil {
		return nil, errors.New("zone: missing reader")
	}

	scanner := bufio.NewScanner(r)
	zones := make([]string, 0, 512)
	seen := map[string]struct{}{}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		zones = append(zones, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.Strings(zones)
	return zones, nil
}

// platformDirs mirrors where the Go runtime itself looks for zoneinfo.
var platformDirs = []string{
	"/usr/share/zoneinfo",
	"/usr/share/lib/zoneinfo",
	"/usr/lib/zoneinfo",
}

// SystemSource walks a zoneinfo directory tree and reports every TZif file
// as an identifier. Dir overrides the search; otherwise $ZONEINFO and the
// usual platform directories are tried in order.
type SystemSource struct {
	Dir string
}

func (s SystemSource) Zones() ([]string, error) {
	for _, dir := range s.candidates() {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		zones, err := walkZoneinfo(dir)
		if err != nil {
			appLog.Debug("zoneinfo walk failed", "dir", dir, "err", err)
			continue
		}
		if len(zones) > 0 {
			return zones, nil
		}
	}
	return nil, fmt.Errorf("%w: no readable zoneinfo directory", ErrUnsupportedPlatform)
}

func (s SystemSource) candidates() []string {
	if s.Dir != "" {
		return []string{s.Dir}
	}
	out := make([]string, 0, len(platformDirs)+1)
	if env := os.Getenv("ZONEINFO"); env != "" {
		out = append(out, env)
	}
	return append(out, platformDirs...)
}

// skipTrees are alternate copies of the database, not distinct zones.
var skipTrees = map[string]bool{
	"posix": true,
	"right": true,
}

// skipFiles are TZif files that are not selectable zones.
var skipFiles = map[string]bool{
	"localtime":  true,
	"posixrules": true,
	"Factory":    true,
}

var tzifMagic = []byte("TZif")

func walkZoneinfo(root string) ([]string, error) {
	zones := make([]string, 0, 600)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if skipTrees[rel] {
				return fs.SkipDir
			}
			return nil
		}
		if skipFiles[rel] || !d.Type().IsRegular() {
			return nil
		}
		if !isTZif(path) {
			return nil
		}
		zones = append(zones, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(zones)
	return zones, nil
}

func isTZif(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, len(tzifMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return bytes.Equal(head, tzifMagic)
}

// FallbackSource uses Primary and falls back to Fallback when the primary
// cannot enumerate zones, so the picker is never left empty.
type FallbackSource struct {
	Primary  Source
	Fallback Source
}

func (s FallbackSource) Zones() ([]string, error) {
	zones, err := s.Primary.Zones()
	if err == nil && len(zones) > 0 {
		return zones, nil
	}
	if err == nil {
		err = fmt.Errorf("%w: empty zone list", ErrUnsupportedPlatform)
	}
	appLog.Warn("zone enumeration unavailable; using static list", "reason", err.Error())
	return s.Fallback.Zones()
}
