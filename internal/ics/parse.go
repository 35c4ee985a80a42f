package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "chronos/internal/log"
	"chronos/internal/model"
)

// ParseEvents reads the VEVENTs of an iCalendar payload back into civil
// drafts. DTSTART values in UTC ("...Z") import in "UTC"; values with a
// TZID parameter keep their wall clock in that zone; floating values use
// defaultZone. Events without a usable DTSTART are skipped and logged.
func ParseEvents(body []byte, defaultZone string) ([]model.Draft, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("ics: empty calendar body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics: parse: %w", err)
	}

	drafts := make([]model.Draft, 0)
	for _, ve := range cal.Events() {
		d, perr := parseVEvent(ve, defaultZone)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Warn("ics vevent skipped", "reason", perr.Error())
			continue
		}
		drafts = append(drafts, d)
	}

	appLog.Info("ics parse completed", "event_count", len(drafts))
	return drafts, nil
}

func parseVEvent(ve *ical.VEvent, defaultZone string) (model.Draft, error) {
	var out model.Draft

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		// The parser has already reversed TEXT escaping.
		out.Name = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || strings.TrimSpace(dtStart.Value) == "" {
		return out, errors.New("missing DTSTART")
	}

	zoneID := defaultZone
	if params := dtStart.ICalParameters; params != nil {
		if tzs, ok := params["TZID"]; ok && len(tzs) > 0 && tzs[0] != "" {
			zoneID = tzs[0]
		}
	}

	t, utc, err := parseStamp(dtStart.Value)
	if err != nil {
		return out, fmt.Errorf("DTSTART %q: %w", dtStart.Value, err)
	}
	if utc {
		zoneID = "UTC"
	}
	if zoneID == "" {
		zoneID = "UTC"
	}

	out.Date = t.Format("2006-01-02")
	out.Time = t.Format("15:04")
	out.Zone = zoneID
	return out, nil
}

// parseStamp reads an iCalendar DATE or DATE-TIME literally, without
// attaching a zone. utc reports a trailing "Z". All-day dates start at
// midnight.
func parseStamp(v string) (t time.Time, utc bool, err error) {
	v = strings.TrimSpace(v)

	if strings.HasSuffix(v, "Z") {
		t, err = time.Parse("20060102T150405Z", v)
		return t, true, err
	}
	if strings.Contains(v, "T") {
		t, err = time.Parse("20060102T150405", v)
		return t, false, err
	}
	t, err = time.Parse("20060102", v)
	return t, false, err
}
