/*
duration.go - Admission checks for a candidate occurrence

PURPOSE:
  Decides whether a requested interval may be created at all, before any
  mutation happens: boundary-flag format, duration bounds after global-date
  carve-out, past-date rejection, and per-year balance sufficiency.

YEAR SEMANTICS:
  A candidate entirely in the current year is checked against the worker's
  live balance. A candidate entirely in the next year is checked against a
  projected balance: live balance plus the consumption already booked for
  next year. A candidate crossing the boundary is split at December 31 /
  January 1 and each side checked against its year's balance. Anything
  else is rejected.

All functions take the current instant as a parameter; nothing here reads
a clock.
*/
package absence

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/absence-engine/calendar"
)

// TypedSpan pairs an interval with the SpendDays sign of its absence
// type, so carve-out sums can be computed without further lookups.
type TypedSpan struct {
	Span
	SpendDays int
}

// ValidateBoundaryFlags enforces the request-format rules: each side must
// have at least one flag set, and a multi-day span cannot be requested as
// a single half-day (a morning-only start or an afternoon-only end).
func ValidateBoundaryFlags(start, end time.Time, startMorning, startAfternoon, endMorning, endAfternoon bool) error {
	if (!startMorning && !startAfternoon) || (!endMorning && !endAfternoon) {
		return ErrMalformedBoundaryFlags
	}
	if !calendar.SameDate(start, end) &&
		((startMorning && !startAfternoon) || (!endMorning && endAfternoon)) {
		return ErrMalformedBoundaryFlags
	}
	return nil
}

// ChargeableDuration computes the candidate's day-counter minus the
// summed day-counters of global-date intervals fully contained in it.
// Company holidays inside the request never count against the requester.
func ChargeableDuration(candidate Span, typ AbsenceType, globalDates []TypedSpan) decimal.Decimal {
	duration := calendar.DayCounter(candidate.Start, candidate.End, typ.SpendDays)
	for _, g := range globalDates {
		if candidate.Contains(g.Span) {
			duration = duration.Sub(calendar.DayCounter(g.Start, g.End, g.SpendDays))
		}
	}
	return duration
}

// CheckDuration runs the full admission sequence for a candidate:
//
//  1. chargeable duration within the type's [min, max] bounds
//  2. start date not in the past (date-only, so a request for today at an
//     already-passed hour is still accepted)
//  3. balance sufficiency per affected year; nextYearConsumed is the
//     already-booked consumption for now.year+1 (a non-positive number
//     for consuming types)
//
// Returns nil when the candidate may proceed to overlap resolution.
func CheckDuration(candidate Span, typ AbsenceType, worker Worker,
	globalDates []TypedSpan, nextYearConsumed decimal.Decimal, now time.Time) error {

	duration := ChargeableDuration(candidate, typ, globalDates)

	if (!typ.Unlimited() && duration.Abs().GreaterThan(typ.MaxDuration)) ||
		duration.Abs().LessThan(typ.MinDuration) {
		return &DurationError{Duration: duration, Min: typ.MinDuration, Max: typ.MaxDuration}
	}

	if calendar.DateOf(candidate.Start).Before(calendar.DateOf(now)) {
		return ErrPastOccurrence
	}

	year := now.Year()
	startYear, endYear := candidate.Start.Year(), candidate.End.Year()
	projected := worker.Holidays.Add(nextYearConsumed)

	switch {
	case startYear == year && endYear == year:
		return checkBalance(worker.ID, year, worker.Holidays, duration)

	case startYear == year+1 && endYear == year+1:
		return checkBalance(worker.ID, year+1, projected, duration)

	case startYear == year && endYear == year+1:
		current, next := SplitAtYearBoundary(candidate, year)
		if current != nil {
			d := ChargeableDuration(*current, typ, globalDates)
			if err := checkBalance(worker.ID, year, worker.Holidays, d); err != nil {
				return err
			}
		}
		if next != nil {
			d := ChargeableDuration(*next, typ, globalDates)
			if err := checkBalance(worker.ID, year+1, projected, d); err != nil {
				return err
			}
		}
		return nil

	default:
		return ErrUnsupportedYearSpan
	}
}

// checkBalance rejects consuming durations the available balance cannot
// cover. Crediting and neutral durations always pass.
func checkBalance(worker WorkerID, year int, available, duration decimal.Decimal) error {
	if duration.IsNegative() && available.LessThan(duration.Abs()) {
		return &BalanceError{WorkerID: worker, Year: year, Available: available, Requested: duration.Abs()}
	}
	return nil
}
