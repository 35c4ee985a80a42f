package model

import "time"

// UntitledEvent is shown in place of an empty event name.
const UntitledEvent = "Untitled Event"

// CivilDateTime is a wall-clock reading with no zone attached. It only
// identifies an instant once paired with a zone identifier.
type CivilDateTime struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
}

// Date returns the civil date as YYYY-MM-DD.
func (c CivilDateTime) Date() string {
	return time.Date(c.Year, c.Month, c.Day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

// Clock returns the civil time of day as HH:MM.
func (c CivilDateTime) Clock() string {
	return time.Date(2000, time.January, 1, c.Hour, c.Minute, 0, 0, time.UTC).Format("15:04")
}

// Event is a user-recorded moment defined in its source zone.
// Events are created and deleted, never edited in place.
type Event struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SourceDate string    `json:"sourceDate"` // YYYY-MM-DD
	SourceTime string    `json:"sourceTime"` // HH:MM
	SourceZone string    `json:"sourceTimezone"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DisplayName returns the event name or the untitled fallback.
func (e Event) DisplayName() string {
	if e.Name == "" {
		return UntitledEvent
	}
	return e.Name
}

// Draft is the user input for a new event, before an ID is assigned.
type Draft struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Time string `json:"time"`
	Zone string `json:"timezone"`
}

// DayDiff classifies how the calendar day moved during a conversion.
type DayDiff string

const (
	SameDay     DayDiff = "Same day"
	NextDay     DayDiff = "Next day"
	PreviousDay DayDiff = "Previous day"
)

// Resolution records how a civil time was mapped onto an instant.
type Resolution string

const (
	// ResolutionExact means the civil time exists exactly once in its zone.
	ResolutionExact Resolution = "exact"
	// ResolutionOverlap means the civil time occurred twice (clocks fell
	// back); the earlier instant was used.
	ResolutionOverlap Resolution = "overlap"
	// ResolutionGap means the civil time was skipped (clocks sprang
	// forward); it was shifted forward by the size of the gap.
	ResolutionGap Resolution = "gap"
)

// ConversionResult is the derived view of an event in a target zone.
// It is recomputed on every render and never persisted.
type ConversionResult struct {
	LocalDate  string     `json:"localDate"`
	LocalTime  string     `json:"localTime"`
	DayDiff    DayDiff    `json:"dayDiff"`
	DiffHours  float64    `json:"diffHours"`
	Days       int        `json:"days"`
	Resolution Resolution `json:"resolution"`

	// At is the resolved instant expressed in the target zone.
	At time.Time `json:"at"`
}

// ZoneOption is a single entry of the zone picker.
type ZoneOption struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Offset string `json:"offset"`
}
