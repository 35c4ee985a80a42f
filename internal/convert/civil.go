package convert

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"chronos/internal/model"
)

var (
	// ErrInvalidCivilTime marks malformed or calendar-invalid input.
	ErrInvalidCivilTime = errors.New("invalid civil time")
	// ErrAmbiguousLocalTime is only returned in strict mode, for civil times
	// that fall into a daylight-saving gap or overlap.
	ErrAmbiguousLocalTime = errors.New("ambiguous local time")
)

const (
	dateLayout    = "2006-01-02"
	clockLayout   = "15:04"
	secondsLayout = "15:04:05"
)

// ParseCivil validates a YYYY-MM-DD date and an HH:MM (or HH:MM:SS) time.
// Seconds are accepted but dropped.
func ParseCivil(date, timeOfDay string) (model.CivilDateTime, error) {
	date = strings.TrimSpace(date)
	timeOfDay = strings.TrimSpace(timeOfDay)

	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return model.CivilDateTime{}, fmt.Errorf("%w: date %q: %v", ErrInvalidCivilTime, date, err)
	}

	layout := clockLayout
	if strings.Count(timeOfDay, ":") == 2 {
		layout = secondsLayout
	}
	tod, err := time.Parse(layout, timeOfDay)
	if err != nil {
		return model.CivilDateTime{}, fmt.Errorf("%w: time %q: %v", ErrInvalidCivilTime, timeOfDay, err)
	}

	return model.CivilDateTime{
		Year:   d.Year(),
		Month:  d.Month(),
		Day:    d.Day(),
		Hour:   tod.Hour(),
		Minute: tod.Minute(),
	}, nil
}

// civilDayNumber counts calendar days since the Unix epoch for t's
// wall-clock date in t's own location.
func civilDayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

// classify maps a calendar-day delta onto the three reported buckets.
// Deltas of two days (possible between UTC-12 and UTC+14) report SameDay.
func classify(days int) model.DayDiff {
	switch days {
	case 1:
		return model.NextDay
	case -1:
		return model.PreviousDay
	default:
		return model.SameDay
	}
}
