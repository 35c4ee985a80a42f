package zone

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	// Resolution must not depend on the host having a zone database.
	_ "time/tzdata"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"chronos/internal/clock"
	appLog "chronos/internal/log"
	"chronos/internal/model"
)

// Catalog is the single source of truth for recognized zone identifiers.
// It is safe for concurrent use.
type Catalog struct {
	clock clock.Clock

	mu      sync.RWMutex
	locs    map[string]*time.Location
	options []model.ZoneOption
	builtAt time.Time
}

// NewCatalog enumerates src, keeps every identifier the runtime can load,
// and computes picker options against clk.Now().
func NewCatalog(src Source, clk clock.Clock) (*Catalog, error) {
	if src == nil {
		src = FallbackSource{Primary: SystemSource{}, Fallback: EmbeddedSource{}}
	}
	if clk == nil {
		clk = clock.System{}
	}

	ids, err := src.Zones()
	if err != nil {
		return nil, fmt.Errorf("zone: enumerate: %w", err)
	}

	locs := make(map[string]*time.Location, len(ids))
	dropped := 0
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := locs[id]; ok {
			continue
		}
		loc, err := time.LoadLocation(id)
		if err != nil || id == "Local" {
			dropped++
			continue
		}
		locs[id] = loc
	}
	if len(locs) == 0 {
		return nil, fmt.Errorf("zone: %w: no loadable identifiers", ErrUnsupportedPlatform)
	}
	if dropped > 0 {
		appLog.Debug("zone catalog dropped unloadable identifiers", "count", dropped)
	}

	c := &Catalog{clock: clk, locs: locs}
	c.Refresh()
	appLog.Info("zone catalog built", "zones", len(locs))
	return c, nil
}

// Refresh recomputes every option's offset against the current time.
// Offsets change across daylight-saving transitions, so long-lived
// displays call this periodically.
func (c *Catalog) Refresh() {
	now := c.clock.Now()

	c.mu.RLock()
	options := make([]model.ZoneOption, 0, len(c.locs))
	for id, loc := range c.locs {
		options = append(options, model.ZoneOption{
			Value:  id,
			Label:  Label(id),
			Offset: OffsetAt(loc, now),
		})
	}
	c.mu.RUnlock()

	sortOptions(options)

	c.mu.Lock()
	c.options = options
	c.builtAt = now
	c.mu.Unlock()
}

// sortOptions orders options by label using English collation, falling
// back to the raw value so the order is total.
func sortOptions(options []model.ZoneOption) {
	col := collate.New(language.English)
	sort.SliceStable(options, func(i, j int) bool {
		if cmp := col.CompareString(options[i].Label, options[j].Label); cmp != 0 {
			return cmp < 0
		}
		return options[i].Value < options[j].Value
	})
}

// List returns the picker options sorted by label.
func (c *Catalog) List() []model.ZoneOption {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.ZoneOption{}, c.options...)
}

// BuiltAt is the instant the current offsets were computed for.
func (c *Catalog) BuiltAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.builtAt
}

// Len reports the number of enumerated identifiers.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.locs)
}

// Location resolves an identifier. Enumerated IANA names and fixed offsets
// of the form "UTC+2" are recognized; anything else is ErrUnknownZone.
func (c *Catalog) Location(id string) (*time.Location, error) {
	c.mu.RLock()
	loc, ok := c.locs[id]
	c.mu.RUnlock()
	if ok {
		return loc, nil
	}
	if fixed, ok := ParseFixed(id); ok {
		return fixed, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownZone, id)
}

// Contains reports whether id resolves.
func (c *Catalog) Contains(id string) bool {
	_, err := c.Location(id)
	return err == nil
}
