package zone

import (
	"strconv"
	"strings"
	"time"
)

// maxFixedOffset bounds fixed-offset identifiers to real-world offsets.
const maxFixedOffset = 14 * 3600

// Label turns an identifier into a picker label:
// "America/New_York" becomes "America New York".
func Label(id string) string {
	return strings.NewReplacer("/", " ", "_", " ").Replace(id)
}

// FormatOffset renders an offset in seconds east of UTC as a short GMT
// offset: "GMT", "GMT+9", "GMT-5", "GMT+5:30".
func FormatOffset(seconds int) string {
	if seconds == 0 {
		return "GMT"
	}
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60

	out := "GMT" + sign + strconv.Itoa(hours)
	if minutes != 0 {
		out += ":" + pad2(minutes)
	}
	return out
}

// OffsetAt returns the short offset string of loc at instant t.
func OffsetAt(loc *time.Location, t time.Time) string {
	_, off := t.In(loc).Zone()
	return FormatOffset(off)
}

// ParseFixed recognizes fixed-offset identifiers of the form "UTC",
// "UTC+2", "UTC-5", "UTC+05:30". It reports false for anything else.
func ParseFixed(id string) (*time.Location, bool) {
	if !strings.HasPrefix(id, "UTC") {
		return nil, false
	}
	rest := id[len("UTC"):]
	if rest == "" {
		return time.UTC, true
	}

	sign := 1
	switch rest[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return nil, false
	}
	rest = rest[1:]

	hourPart, minutePart, hasMinutes := strings.Cut(rest, ":")
	if len(hourPart) > 2 || !digits(hourPart) {
		return nil, false
	}
	hours, err := strconv.Atoi(hourPart)
	if err != nil {
		return nil, false
	}
	minutes := 0
	if hasMinutes {
		if len(minutePart) != 2 || !digits(minutePart) {
			return nil, false
		}
		minutes, err = strconv.Atoi(minutePart)
		if err != nil || minutes > 59 {
			return nil, false
		}
	}

	offset := sign * (hours*3600 + minutes*60)
	if offset > maxFixedOffset || offset < -maxFixedOffset {
		return nil, false
	}
	return time.FixedZone(id, offset), true
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
