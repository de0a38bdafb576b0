/*
Package absence contains the interval-accounting engine for worker
time-off.

PURPOSE:
  Given a worker's existing set of absence intervals and a newly requested
  interval, the engine computes how many holiday units the request consumes,
  resolves overlaps with existing intervals (trimming, splitting, deleting),
  carves out company-wide holiday sub-intervals that must never be charged
  to personal time off, and maintains a per-worker, year-aware holiday
  balance.

KEY CONCEPTS IN THIS FILE (types.go):
  - Worker: identity plus the decimal holiday balance the ledger maintains
  - VacationPolicy: yearly holiday entitlement and pro-ration
  - AbsenceType: the per-type accounting rules (sign, duration bounds,
    global-date flag)
  - Absence: the per-(worker, type) account occurrences attach to
  - Occurrence: one contiguous time-off interval, soft-deletable

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for balances and durations, never float
  2. Immutability of geometry: the overlap resolver works over Span values,
     not mutated records
  3. Explicit time: validation and ledger code take the current instant as
     a parameter; only Service owns a clock

SEE ALSO:
  - overlap.go: frontier remainders and global-date splitting
  - duration.go: duration and balance admission checks
  - ledger.go: balance application and reversal
  - service.go: the create/delete orchestrations
*/
package absence

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/absence-engine/calendar"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	WorkerID      string
	PolicyID      string
	AbsenceTypeID string
	AbsenceID     string
	OccurrenceID  string
	TeamID        string
	MemberID      string
)

// =============================================================================
// WORKER
// =============================================================================

// Worker is an employee with a holiday balance. Holidays is the
// current-year unit balance; it is mutated only by the balance ledger and
// the year rollover.
type Worker struct {
	ID               WorkerID
	FirstName        string
	LastName         string
	Email            string
	Username         string
	Category         string
	Gender           string
	Holidays         decimal.Decimal
	VacationPolicyID *PolicyID
	ContractDate     time.Time
	WorkingWeek      int
	CreatedAt        time.Time
}

// =============================================================================
// VACATION POLICY
// =============================================================================

// VacationPolicy defines the yearly holiday entitlement for workers it is
// assigned to.
type VacationPolicy struct {
	ID          PolicyID
	Name        string
	Description string
	Holidays    int
}

// ProportionalHolidays pro-rates the yearly entitlement over the days
// remaining in now's year, including today. The result is rounded to
// whole units.
func (p VacationPolicy) ProportionalHolidays(now time.Time) decimal.Decimal {
	remaining := decimal.NewFromInt(int64(calendar.DaysRemainingInYear(now)))
	year := decimal.NewFromInt(365)
	return remaining.Div(year).Mul(decimal.NewFromInt(int64(p.Holidays))).Round(0)
}

// =============================================================================
// ABSENCE TYPE
// =============================================================================

// UnlimitedDuration is the MaxDuration sentinel for types without an upper
// duration bound.
var UnlimitedDuration = decimal.NewFromInt(-1)

// AbsenceType defines the accounting rules for a category of time off.
//
// SpendDays is a sign convention: negative types consume holiday balance,
// positive types credit it (weekend compensation), zero types are tracked
// but balance-neutral. GlobalDate marks company-wide holiday types whose
// occurrences are carved out of every other type's chargeable duration.
type AbsenceType struct {
	ID          AbsenceTypeID
	Name        string
	Description string
	SpendDays   int
	MinDuration decimal.Decimal
	MaxDuration decimal.Decimal
	GlobalDate  bool
	Color       string
}

// Unlimited reports whether the type has no maximum duration.
func (t AbsenceType) Unlimited() bool {
	return t.MaxDuration.Equal(UnlimitedDuration)
}

// Validate enforces the duration-bound invariant:
// MinDuration >= 0 and MaxDuration is -1 or >= MinDuration.
func (t AbsenceType) Validate() error {
	if t.MinDuration.IsNegative() {
		return ErrInvalidAbsenceType
	}
	if !t.Unlimited() && t.MaxDuration.LessThan(t.MinDuration) {
		return ErrInvalidAbsenceType
	}
	return nil
}

// =============================================================================
// ABSENCE - the per-(worker, type) account
// =============================================================================

// Absence links a worker to an absence type. Exactly one exists per
// (worker, type) pair; the fan-out is performed by the create-worker and
// create-absence-type use cases.
type Absence struct {
	ID            AbsenceID
	WorkerID      WorkerID
	AbsenceTypeID AbsenceTypeID
}

// =============================================================================
// OCCURRENCE - one contiguous time-off interval
// =============================================================================

// Occurrence is a single time-off interval attached to an Absence.
// StartTime and EndTime are always normalized to the 09:00/13:00/17:00
// boundaries. DeletedAt is the soft-delete marker; a non-nil value means
// the occurrence is Superseded or Deleted and no longer counts.
type Occurrence struct {
	ID        OccurrenceID
	AbsenceID AbsenceID
	StartTime time.Time
	EndTime   time.Time
	DeletedAt *time.Time
	CreatedAt time.Time
}

// Active reports whether the occurrence has not been soft-deleted.
func (o Occurrence) Active() bool { return o.DeletedAt == nil }

// Span returns the occurrence interval as a value.
func (o Occurrence) Span() Span { return Span{Start: o.StartTime, End: o.EndTime} }

// =============================================================================
// SPAN - immutable interval value for the overlap resolver
// =============================================================================

// Span is a half-open time interval [Start, End). Touching boundaries
// (one span's End equal to another's Start) do not overlap.
type Span struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports strict overlap between two spans.
func (s Span) Overlaps(other Span) bool {
	return s.Start.Before(other.End) && s.End.After(other.Start)
}

// Contains reports whether other lies fully inside s.
func (s Span) Contains(other Span) bool {
	return !other.Start.Before(s.Start) && !other.End.After(s.End)
}

// Valid reports whether the span has positive length.
func (s Span) Valid() bool { return s.Start.Before(s.End) }

// =============================================================================
// TEAMS
// =============================================================================

// Team is an organisational grouping of workers.
type Team struct {
	ID   TeamID
	Name string
}

// Member links a worker to a team.
type Member struct {
	ID             MemberID
	WorkerID       WorkerID
	TeamID         TeamID
	IsReferent     bool
	IsRepresentant bool
}
