// Package convert turns a civil date and time in one zone into its
// wall-clock equivalent in another, classifying whether the calendar day
// moved.
package convert

import (
	"errors"
	"fmt"
	"time"

	"chronos/internal/model"
	"chronos/internal/zone"
)

// Reporting layouts are fixed so output does not depend on the host locale.
const (
	LongDateLayout  = "Monday, January 2, 2006"
	ShortTimeLayout = "3:04 PM"
)

// Locator resolves zone identifiers. *zone.Catalog implements it.
type Locator interface {
	Location(id string) (*time.Location, error)
}

// Engine performs conversions. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	zones  Locator
	strict bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrictCivilTime makes gap and overlap civil times fail with
// ErrAmbiguousLocalTime instead of being resolved by policy.
func WithStrictCivilTime() Option {
	return func(e *Engine) { e.strict = true }
}

// New returns an engine resolving zones through zones.
func New(zones Locator, opts ...Option) *Engine {
	e := &Engine{zones: zones}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *Engine) location(id string) (*time.Location, error) {
	if e.zones == nil {
		return nil, fmt.Errorf("%w: %q: no zone catalog", zone.ErrUnknownZone, id)
	}
	loc, err := e.zones.Location(id)
	if err != nil {
		if errors.Is(err, zone.ErrUnknownZone) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %q: %v", zone.ErrUnknownZone, id, err)
	}
	return loc, nil
}

// Resolve interprets date and timeOfDay as a civil time in zoneID and
// returns the instant (in that zone) along with how it was resolved.
func (e *Engine) Resolve(date, timeOfDay, zoneID string) (time.Time, model.Resolution, error) {
	civil, err := ParseCivil(date, timeOfDay)
	if err != nil {
		return time.Time{}, "", err
	}
	loc, err := e.location(zoneID)
	if err != nil {
		return time.Time{}, "", err
	}

	instant, res := resolveCivil(civil, loc)
	if e.strict && res != model.ResolutionExact {
		return time.Time{}, res, fmt.Errorf("%w: %s %s in %s (%s)", ErrAmbiguousLocalTime, date, timeOfDay, zoneID, res)
	}
	return instant, res, nil
}

// Convert projects the civil time (date, timeOfDay) in source onto target.
func (e *Engine) Convert(date, timeOfDay, source, target string) (model.ConversionResult, error) {
	instant, res, err := e.Resolve(date, timeOfDay, source)
	if err != nil {
		return model.ConversionResult{}, err
	}
	targetLoc, err := e.location(target)
	if err != nil {
		return model.ConversionResult{}, err
	}

	src := instant
	dst := instant.In(targetLoc)

	days := int(civilDayNumber(dst) - civilDayNumber(src))
	_, srcOff := src.Zone()
	_, dstOff := dst.Zone()

	return model.ConversionResult{
		LocalDate:  dst.Format(LongDateLayout),
		LocalTime:  dst.Format(ShortTimeLayout),
		DayDiff:    classify(days),
		DiffHours:  float64(dstOff-srcOff) / 3600,
		Days:       days,
		Resolution: res,
		At:         dst,
	}, nil
}

// ConvertEvent converts a stored event into target.
func (e *Engine) ConvertEvent(ev model.Event, target string) (model.ConversionResult, error) {
	return e.Convert(ev.SourceDate, ev.SourceTime, ev.SourceZone, target)
}

// EventView pairs an event with its conversion, or the error that blocked
// it.
type EventView struct {
	Event      model.Event
	Conversion model.ConversionResult
	Err        error
}

// ConvertAll converts every event into target. A failing event carries its
// own error and does not affect the others.
func (e *Engine) ConvertAll(events []model.Event, target string) []EventView {
	views := make([]EventView, 0, len(events))
	for _, ev := range events {
		res, err := e.ConvertEvent(ev, target)
		views = append(views, EventView{Event: ev, Conversion: res, Err: err})
	}
	return views
}
