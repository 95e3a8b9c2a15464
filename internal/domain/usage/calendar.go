package usage

import (
	"regexp"
	"time"
)

// The platform accounts for usage in a fixed UTC+8 calendar regardless of
// where the server runs. All day and week arithmetic goes through this zone;
// callers pass the current instant explicitly so nothing here reads ambient
// clock or locale state.
var calendarZone = time.FixedZone("UTC+8", 8*60*60)

// DateKeyLayout is the canonical YYYY-MM-DD key format.
const DateKeyLayout = "2006-01-02"

var dateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// CalendarZone returns the fixed offset zone used for day boundaries.
func CalendarZone() *time.Location {
	return calendarZone
}

// DateKeyOf returns the calendar-day key the given instant falls on.
func DateKeyOf(t time.Time) string {
	return t.In(calendarZone).Format(DateKeyLayout)
}

// HourOf returns the wall-clock hour (0-23) of the given instant in the
// fixed-offset calendar.
func HourOf(t time.Time) int {
	return t.In(calendarZone).Hour()
}

// IsValidDateKey reports whether input is a well-formed, parseable
// YYYY-MM-DD key.
func IsValidDateKey(input string) bool {
	if !dateKeyPattern.MatchString(input) {
		return false
	}
	_, err := time.ParseInLocation(DateKeyLayout, input, calendarZone)
	return err == nil
}

// NormalizeDateKey returns input unchanged when it is a valid date key and
// otherwise falls back to the key of "today" derived from now. It never
// fails; malformed input means "use today".
func NormalizeDateKey(input string, now time.Time) string {
	if IsValidDateKey(input) {
		return input
	}
	return DateKeyOf(now)
}

// DayBounds returns the inclusive instant range [00:00:00.000,
// 23:59:59.999] of the calendar day named by dateKey, normalizing the key
// against now first. The span is always exactly 86_399_999 milliseconds.
func DayBounds(dateKey string, now time.Time) (start, end time.Time, key string) {
	key = NormalizeDateKey(dateKey, now)
	start, _ = time.ParseInLocation(DateKeyLayout, key, calendarZone)
	end = start.Add(24*time.Hour - time.Millisecond)
	return start, end, key
}

// WeekBounds returns the instant range of the week window anchored at
// startKey: [startKey 00:00:00.000, startKey+7d 23:59:59.999]. The window is
// anchored at the given key, not aligned to any weekday.
func WeekBounds(startKey string, now time.Time) (start, end time.Time, key string) {
	start, _, key = DayBounds(startKey, now)
	end = start.AddDate(0, 0, 7).Add(24*time.Hour - time.Millisecond)
	return start, end, key
}

// RangeBounds returns the instant range spanning startKey's day start
// through endKey's day end. Keys are normalized independently; if the
// resulting range is inverted the bounds are swapped so start <= end always
// holds.
func RangeBounds(startKey, endKey string, now time.Time) (start, end time.Time, sKey, eKey string) {
	start, _, sKey = DayBounds(startKey, now)
	_, end, eKey = DayBounds(endKey, now)
	if end.Before(start) {
		start, _, _ = DayBounds(eKey, now)
		_, end, _ = DayBounds(sKey, now)
		sKey, eKey = eKey, sKey
	}
	return start, end, sKey, eKey
}

// DateKeysBetween enumerates every calendar-day key from startKey through
// endKey inclusive, in ascending order.
func DateKeysBetween(startKey, endKey string, now time.Time) []string {
	start, _, _ := DayBounds(startKey, now)
	endStart, _, _ := DayBounds(endKey, now)
	if endStart.Before(start) {
		start, endStart = endStart, start
	}
	var keys []string
	for d := start; !d.After(endStart); d = d.AddDate(0, 0, 1) {
		keys = append(keys, d.Format(DateKeyLayout))
	}
	return keys
}

// ClipToRange returns the whole seconds of overlap between an event's
// interval and [rangeStart, rangeEnd]. The event runs from
// endInstant-duration to endInstant. The overlap is rounded to the nearest
// second and floored at zero, so an event straddling midnight contributes to
// each adjacent day exactly the portion that occurred within it.
func ClipToRange(endInstant time.Time, durationSeconds int, rangeStart, rangeEnd time.Time) int {
	if durationSeconds <= 0 {
		return 0
	}
	eventStart := endInstant.Add(-time.Duration(durationSeconds) * time.Second)

	overlapStart := eventStart
	if rangeStart.After(overlapStart) {
		overlapStart = rangeStart
	}
	overlapEnd := endInstant
	if rangeEnd.Before(overlapEnd) {
		overlapEnd = rangeEnd
	}
	if !overlapEnd.After(overlapStart) {
		return 0
	}

	seconds := int(overlapEnd.Sub(overlapStart).Round(time.Second) / time.Second)
	if seconds < 0 {
		return 0
	}
	return seconds
}
