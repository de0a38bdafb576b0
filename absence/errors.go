/*
errors.go - Centralized error types for the absence engine

PURPOSE:
  All request-rejection kinds in one place. Every error here is a
  structured validation failure surfaced to the caller; none is
  process-fatal. Overlap geometry itself never fails - an invariant
  violation there is a programming error, not one of these.

ERROR CATEGORIES:
  1. Format errors  - malformed boundary flags or spans
  2. Policy errors  - duration bounds, past dates, balance shortage
  3. Lookup errors  - missing worker/absence/occurrence rows

USAGE:
  Callers classify with errors.Is or the helpers:

    if absence.IsClientError(err) { ... 400 ... }
    if absence.IsNotFound(err)    { ... 404 ... }
*/
package absence

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedBoundaryFlags is returned when neither morning nor
	// afternoon is set on a required side, or a multi-day span is
	// requested with single half-day flags.
	ErrMalformedBoundaryFlags = errors.New("malformed boundary flags")

	// ErrDurationOutOfRange is returned when the chargeable duration
	// falls outside the type's [min, max] bounds after global-date
	// carve-out.
	ErrDurationOutOfRange = errors.New("duration out of range")

	// ErrPastOccurrence is returned when a candidate starts before today
	// (date-only comparison).
	ErrPastOccurrence = errors.New("occurrence starts in the past")

	// ErrInsufficientBalance is returned when the request would drive the
	// worker's holiday balance negative, evaluated per affected year.
	ErrInsufficientBalance = errors.New("insufficient holiday balance")

	// ErrAbsenceNotFound is returned when no Absence row exists for a
	// (worker, absence type) pair. A data-integrity violation upstream,
	// treated as a request error.
	ErrAbsenceNotFound = errors.New("absence not found")

	// ErrCannotDeleteStarted is returned on deleting an occurrence whose
	// start date has already passed.
	ErrCannotDeleteStarted = errors.New("cannot delete a started occurrence")

	// ErrUnsupportedYearSpan is returned when a candidate touches a year
	// other than the current or the next one.
	ErrUnsupportedYearSpan = errors.New("span outside current or next year")

	// ErrInvalidAbsenceType is returned when a type's duration bounds
	// break the min/max invariant.
	ErrInvalidAbsenceType = errors.New("invalid absence type duration bounds")

	// ErrWorkerNotFound is returned when a referenced worker doesn't exist.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrPolicyNotFound is returned when a referenced vacation policy
	// doesn't exist.
	ErrPolicyNotFound = errors.New("vacation policy not found")

	// ErrOccurrenceNotFound is returned when a referenced occurrence
	// doesn't exist.
	ErrOccurrenceNotFound = errors.New("occurrence not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DurationError details a duration-bound rejection.
type DurationError struct {
	Duration decimal.Decimal
	Min      decimal.Decimal
	Max      decimal.Decimal
}

func (e *DurationError) Error() string {
	return fmt.Sprintf("duration %v outside bounds [%v, %v]",
		e.Duration, e.Min, e.Max)
}

func (e *DurationError) Unwrap() error { return ErrDurationOutOfRange }

// BalanceError details a balance-shortage rejection.
type BalanceError struct {
	WorkerID  WorkerID
	Year      int
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("worker %s: %v holidays available in %d, %v requested",
		e.WorkerID, e.Available, e.Year, e.Requested)
}

func (e *BalanceError) Unwrap() error { return ErrInsufficientBalance }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is a request-rejection the
// caller should see as a validation failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedBoundaryFlags) ||
		errors.Is(err, ErrDurationOutOfRange) ||
		errors.Is(err, ErrPastOccurrence) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrAbsenceNotFound) ||
		errors.Is(err, ErrCannotDeleteStarted) ||
		errors.Is(err, ErrUnsupportedYearSpan) ||
		errors.Is(err, ErrInvalidAbsenceType)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkerNotFound) ||
		errors.Is(err, ErrPolicyNotFound) ||
		errors.Is(err, ErrOccurrenceNotFound)
}
