/*
Package calendar provides the pure date arithmetic underneath the absence
engine.

PURPOSE:
  All duration accounting in the engine is expressed in "holiday units", a
  decimal count of matching weekdays between two boundary timestamps, with
  half-day adjustments at the 13:00 boundary. This package owns that math
  and nothing else: no persistence, no policy, no clock.

KEY CONCEPTS:
  - Boundary hours: every occurrence starts at 09:00 or 13:00 and ends at
    13:00 or 17:00 on its day. A 13:00 boundary is a half-day.
  - Weekday filtering: consuming/neutral absence types count Monday-Friday;
    crediting types count Saturday+Sunday (weekend compensation).
  - Counting is done by daily iteration, not by naive duration division,
    so it stays correct across DST shifts and month boundaries.

SEE ALSO:
  - absence/duration.go: uses DayCounter for chargeable-duration checks
  - absence/overlap.go: uses the boundary hours for frontier remainders
*/
package calendar

import (
	"time"

	"github.com/shopspring/decimal"
)

// Boundary hours of a workday. Start boundaries are 09:00 or 13:00,
// end boundaries 13:00 or 17:00.
const (
	HourMorningStart = 9
	HourMidday       = 13
	HourAfternoonEnd = 17
)

// Workdays is the Monday-Friday weekday set.
var Workdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

// Weekend is the Saturday+Sunday weekday set.
var Weekend = []time.Weekday{time.Saturday, time.Sunday}

var half = decimal.NewFromFloat(0.5)

// CountWeekdays counts days in [start, end] (inclusive, date granularity)
// whose weekday is in days. Iterates day by day.
func CountWeekdays(start, end time.Time, days []time.Weekday) int {
	match := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		match[d] = true
	}

	count := 0
	for d := DateOf(start); !d.After(DateOf(end)); d = d.AddDate(0, 0, 1) {
		if match[d.Weekday()] {
			count++
		}
	}
	return count
}

// DayCounter computes the signed holiday-unit duration of the span
// [start, end] for an absence type with the given spendDays sign.
//
// Types with spendDays > 0 credit balance for weekend work, so they count
// Saturday+Sunday; all others count Monday-Friday. A 13:00 start or end
// boundary deducts half a day each. The result carries the sign of
// spendDays: negative for consuming types, so it can be added directly to
// a worker balance.
func DayCounter(start, end time.Time, spendDays int) decimal.Decimal {
	days := Workdays
	if spendDays > 0 {
		days = Weekend
	}

	d := decimal.NewFromInt(int64(CountWeekdays(start, end, days)))
	if start.Hour() == HourMidday {
		d = d.Sub(half)
	}
	if end.Hour() == HourMidday {
		d = d.Sub(half)
	}
	if spendDays < 0 {
		d = d.Neg()
	}
	return d
}

// Normalize maps a raw date plus morning/afternoon flags onto the
// canonical boundary timestamp: 09:00 or 13:00 for a start, 17:00 or
// 13:00 for an end. Minutes and below are zeroed.
func Normalize(t time.Time, morning, afternoon, isStart bool) time.Time {
	hour := HourMidday
	if isStart {
		if morning {
			hour = HourMorningStart
		}
	} else {
		if afternoon {
			hour = HourAfternoonEnd
		}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}

// DateOf truncates a timestamp to midnight of its day.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDate reports whether two timestamps fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}

// DaysRemainingInYear counts the days from t to December 31 of t's year,
// including t's own day. Used for pro-rating initial holiday balances.
// Counts by calendar date, so daylight saving transitions between t and
// year end never shave a day off.
func DaysRemainingInYear(t time.Time) int {
	days := 0
	for d := DateOf(t); d.Year() == t.Year(); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}

// StartOfYear returns January 1 00:00 of the given year.
func StartOfYear(year int, loc *time.Location) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
}

// EndOfYear returns December 31 00:00 of the given year.
func EndOfYear(year int, loc *time.Location) time.Time {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, loc)
}
