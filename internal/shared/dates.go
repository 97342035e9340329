package shared

import "time"

// Unix-second values at or above this are assumed to be milliseconds. The
// cutoff corresponds to 2286-11-20, far past any plausible second-resolution
// maintenance timestamp.
const millisCutoff = int64(1e10)

// ResolveEventDate coalesces the two timestamp representations a maintenance
// log may carry into a single calendar date. Precedence: the explicit work
// date wins; otherwise the record timestamp is used, auto-detecting seconds
// versus milliseconds by magnitude. Records with neither are excluded from
// analytics, signalled by ok=false.
//
// Every analytics consumer must go through this function so that frequency,
// efficiency and predictive reports agree on which date an event happened.
func ResolveEventDate(workDate *time.Time, rawTimestamp int64) (time.Time, bool) {
	if workDate != nil && !workDate.IsZero() {
		return truncateToDay(workDate.UTC()), true
	}
	if rawTimestamp <= 0 {
		return time.Time{}, false
	}
	if rawTimestamp >= millisCutoff {
		return truncateToDay(time.UnixMilli(rawTimestamp).UTC()), true
	}
	return truncateToDay(time.Unix(rawTimestamp, 0).UTC()), true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
