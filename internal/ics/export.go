package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"chronos/internal/clock"
	"chronos/internal/model"
)

const (
	// ContentType is the MIME type of exported calendar files.
	ContentType = "text/calendar"

	// DefaultSummary replaces an empty event name in exports.
	DefaultSummary = "Global Event"

	exportDescription = "Converted by Event Time Converter"
	productName       = "chronos"
	eventDuration     = time.Hour
)

// uidNamespace scopes name-based UIDs so the same event always exports
// with the same UID.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("chronos.local"))

// Resolver maps a civil date and time in a zone onto an absolute instant.
// *convert.Engine implements it.
type Resolver interface {
	Resolve(date, timeOfDay, zoneID string) (time.Time, model.Resolution, error)
}

// Exporter renders events as single-event iCalendar documents.
type Exporter struct {
	resolver Resolver
	clock    clock.Clock
}

// NewExporter returns an exporter. clk stamps DTSTAMP; nil uses the wall
// clock.
func NewExporter(r Resolver, clk clock.Clock) *Exporter {
	if clk == nil {
		clk = clock.System{}
	}
	return &Exporter{resolver: r, clock: clk}
}

// CalendarText builds a VCALENDAR holding one VEVENT that starts at the
// civil time (date, timeOfDay) in zoneID and lasts one hour. Timestamps are
// written in UTC, so no target zone is involved.
func (x *Exporter) CalendarText(name, date, timeOfDay, zoneID string) (string, error) {
	uid := uuid.NewSHA1(uidNamespace, []byte(strings.Join([]string{name, date, timeOfDay, zoneID}, "\x00"))).String()
	return x.render(uid, name, date, timeOfDay, zoneID)
}

// EventText exports a stored event, reusing its ID for the UID.
func (x *Exporter) EventText(ev model.Event) (string, error) {
	uid := ev.ID
	if uid == "" {
		uid = uuid.NewSHA1(uidNamespace, []byte(ev.SourceDate+ev.SourceTime+ev.SourceZone)).String()
	}
	return x.render(uid, ev.Name, ev.SourceDate, ev.SourceTime, ev.SourceZone)
}

func (x *Exporter) render(uid, name, date, timeOfDay, zoneID string) (string, error) {
	if x.resolver == nil {
		return "", errors.New("ics: exporter has no resolver")
	}
	start, _, err := x.resolver.Resolve(date, timeOfDay, zoneID)
	if err != nil {
		return "", fmt.Errorf("ics: export %q: %w", name, err)
	}
	start = start.UTC()

	summary := name
	if summary == "" {
		summary = DefaultSummary
	}

	cal := ical.NewCalendarFor(productName)
	cal.SetMethod(ical.MethodPublish)

	ev := cal.AddEvent(uid + "@" + productName)
	ev.SetDtStampTime(x.clock.Now().UTC())
	ev.SetStartAt(start)
	ev.SetEndAt(start.Add(eventDuration))
	ev.SetSummary(summary)
	ev.SetDescription(exportDescription)

	return cal.Serialize(), nil
}

// FileName returns the download name for an event export:
// "<name>.ics", or "event.ics" when the name is empty.
func FileName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		name = "event"
	}
	return name + ".ics"
}
