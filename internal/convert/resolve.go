package convert

import (
	"sort"
	"time"

	"chronos/internal/model"
)

const secondsPerDay = 24 * 60 * 60

// resolveCivil maps a civil time in loc onto an instant.
//
// Policy:
//   - one matching instant: use it (ResolutionExact);
//   - two matching instants (clocks fell back): use the earlier one
//     (ResolutionOverlap);
//   - no matching instant (clocks sprang forward): read the civil time with
//     the offset in force before the transition, which lands the wall clock
//     forward by exactly the gap (ResolutionGap).
//
// Transitions are assumed to be more than a day apart, which holds for
// every zone in the tz database.
func resolveCivil(c model.CivilDateTime, loc *time.Location) (time.Time, model.Resolution) {
	// Seconds of the civil reading as if it were UTC.
	wall := time.Date(c.Year, c.Month, c.Day, c.Hour, c.Minute, 0, 0, time.UTC).Unix()

	before := offsetAt(loc, wall-secondsPerDay)
	offsets := []int64{before, offsetAt(loc, wall), offsetAt(loc, wall+secondsPerDay)}

	candidates := make([]int64, 0, 2)
	for _, off := range offsets {
		instant := wall - off
		if offsetAt(loc, instant) != off {
			continue
		}
		if !containsInt64(candidates, instant) {
			candidates = append(candidates, instant)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	switch len(candidates) {
	case 0:
		return time.Unix(wall-before, 0).In(loc), model.ResolutionGap
	case 1:
		return time.Unix(candidates[0], 0).In(loc), model.ResolutionExact
	default:
		return time.Unix(candidates[0], 0).In(loc), model.ResolutionOverlap
	}
}

func offsetAt(loc *time.Location, unix int64) int64 {
	_, off := time.Unix(unix, 0).In(loc).Zone()
	return int64(off)
}

func containsInt64(xs []int64, x int64) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
