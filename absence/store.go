/*
store.go - Persistence interface consumed by the engine

PURPOSE:
  Defines the repository contract between the domain logic and the
  database. The engine never touches SQL; everything it needs is CRUD
  plus the range/year filters on occurrences listed here, and the
  ability to run a group of operations in one transaction.

TRANSACTIONS:
  Every create/delete use case and the year rollover run inside
  WithTx(ctx, fn). If fn returns an error the whole unit of work is
  rolled back; no intermediate state is observable.

NOT-FOUND CONVENTION:
  Get* methods return (nil, nil) for a missing record. Callers translate
  to the domain's *NotFound sentinels.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite via database/sql
  - absence/store: in-memory, for tests and dev
*/
package absence

import (
	"context"
	"time"
)

// Store is the repository surface the engine is written against.
type Store interface {
	// Workers
	SaveWorker(ctx context.Context, w Worker) error
	GetWorker(ctx context.Context, id WorkerID) (*Worker, error)
	ListWorkers(ctx context.Context) ([]Worker, error)
	DeleteWorker(ctx context.Context, id WorkerID) error

	// Vacation policies
	SavePolicy(ctx context.Context, p VacationPolicy) error
	GetPolicy(ctx context.Context, id PolicyID) (*VacationPolicy, error)
	ListPolicies(ctx context.Context) ([]VacationPolicy, error)
	DeletePolicy(ctx context.Context, id PolicyID) error

	// Absence types
	SaveAbsenceType(ctx context.Context, t AbsenceType) error
	GetAbsenceType(ctx context.Context, id AbsenceTypeID) (*AbsenceType, error)
	ListAbsenceTypes(ctx context.Context) ([]AbsenceType, error)
	DeleteAbsenceType(ctx context.Context, id AbsenceTypeID) error

	// Absences (per worker+type accounts)
	SaveAbsence(ctx context.Context, a Absence) error
	GetAbsence(ctx context.Context, worker WorkerID, typ AbsenceTypeID) (*Absence, error)
	GetAbsenceByID(ctx context.Context, id AbsenceID) (*Absence, error)
	ListAbsencesByWorker(ctx context.Context, worker WorkerID) ([]Absence, error)

	// Occurrences
	SaveOccurrence(ctx context.Context, o Occurrence) error
	GetOccurrence(ctx context.Context, id OccurrenceID) (*Occurrence, error)
	// ListActiveOccurrences returns a worker's non-deleted occurrences
	// across every absence type, ordered by start time.
	ListActiveOccurrences(ctx context.Context, worker WorkerID) ([]Occurrence, error)
	// ListGlobalDateOccurrences returns the worker's non-deleted
	// occurrences of global-date types strictly overlapping [start, end).
	ListGlobalDateOccurrences(ctx context.Context, worker WorkerID, start, end time.Time) ([]Occurrence, error)
	// ListOccurrencesInYear returns the worker's non-deleted occurrences
	// starting and ending in the given calendar year.
	ListOccurrencesInYear(ctx context.Context, worker WorkerID, year int) ([]Occurrence, error)
	// MarkOccurrenceDeleted sets the soft-delete marker.
	MarkOccurrenceDeleted(ctx context.Context, id OccurrenceID, at time.Time) error

	// Teams
	SaveTeam(ctx context.Context, t Team) error
	GetTeam(ctx context.Context, id TeamID) (*Team, error)
	ListTeams(ctx context.Context) ([]Team, error)
	DeleteTeam(ctx context.Context, id TeamID) error

	// Members
	SaveMember(ctx context.Context, m Member) error
	GetMember(ctx context.Context, id MemberID) (*Member, error)
	ListMembers(ctx context.Context) ([]Member, error)
	DeleteMember(ctx context.Context, id MemberID) error
}

// TxStore wraps Store with transaction support. Use it for every
// multi-step unit of work: multi-worker creates, deletes with balance
// reversal, fan-outs, and the year rollover.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error
	// the transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
