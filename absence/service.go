/*
service.go - The occurrence service (orchestrator)

PURPOSE:
  Composes calendar math, duration checks, overlap resolution and the
  balance ledger into the create/delete use cases, plus the worker and
  absence-type creation fan-outs. Every use case runs as one atomic unit
  of work: a multi-worker create either lands for all workers or none.

OWNERSHIP:
  Occurrence lifecycles are fully owned by this service. Nothing else
  creates or deletes occurrences; the overlap resolver runs only inside
  the transactions opened here.

AUTHORIZATION:
  Out of scope. Callers are assumed to have already passed the "may this
  principal act for this worker" check; the only trace of it here is the
  allowProtected flag on worker updates.

SEE ALSO:
  - rollover.go: the year-boundary task
  - api/handlers.go: the HTTP surface in front of this service
*/
package absence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/absence-engine/calendar"
)

// DefaultProtectedWorkerFields are the worker fields only privileged
// callers may change. Overridable via configuration.
var DefaultProtectedWorkerFields = []string{"holidays", "category"}

// Service orchestrates the engine's use cases over a transactional store.
type Service struct {
	store           TxStore
	log             zerolog.Logger
	clock           func() time.Time
	protectedFields []string
}

// NewService creates a service with the real clock and default protected
// fields.
func NewService(store TxStore, logger zerolog.Logger) *Service {
	return &Service{
		store:           store,
		log:             logger,
		clock:           time.Now,
		protectedFields: DefaultProtectedWorkerFields,
	}
}

// SetClock replaces the time source. Tests use this to pin "now".
func (s *Service) SetClock(clock func() time.Time) { s.clock = clock }

// SetProtectedFields replaces the protected worker field list, normally
// from configuration.
func (s *Service) SetProtectedFields(fields []string) { s.protectedFields = fields }

// =============================================================================
// OCCURRENCE CREATION
// =============================================================================

// OccurrenceRequest is one create operation: a span, its boundary flags,
// the absence type, and the workers it applies to.
type OccurrenceRequest struct {
	AbsenceTypeID  AbsenceTypeID
	WorkerIDs      []WorkerID
	Start          time.Time
	End            time.Time
	StartMorning   bool
	StartAfternoon bool
	EndMorning     bool
	EndAfternoon   bool
}

// CreateOccurrences validates and creates the requested interval for
// every worker in the request, atomically. The returned occurrences are
// the persisted pieces (a request spanning a company holiday lands as
// more than one row per worker).
func (s *Service) CreateOccurrences(ctx context.Context, req OccurrenceRequest) ([]Occurrence, error) {
	now := s.clock()

	if err := ValidateBoundaryFlags(req.Start, req.End,
		req.StartMorning, req.StartAfternoon, req.EndMorning, req.EndAfternoon); err != nil {
		return nil, err
	}
	candidate := Span{
		Start: calendar.Normalize(req.Start, req.StartMorning, req.StartAfternoon, true),
		End:   calendar.Normalize(req.End, req.EndMorning, req.EndAfternoon, false),
	}
	if !candidate.Valid() {
		return nil, ErrMalformedBoundaryFlags
	}
	if len(req.WorkerIDs) == 0 {
		return nil, ErrWorkerNotFound
	}

	var created []Occurrence
	err := s.store.WithTx(ctx, func(tx Store) error {
		for _, workerID := range req.WorkerIDs {
			pieces, err := s.createForWorker(ctx, tx, workerID, req.AbsenceTypeID, candidate, now)
			if err != nil {
				return err
			}
			created = append(created, pieces...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("workers", len(req.WorkerIDs)).
		Int("occurrences", len(created)).
		Time("start", candidate.Start).
		Time("end", candidate.End).
		Msg("occurrences created")
	return created, nil
}

// createForWorker runs the single-worker sub-flow: admission checks,
// global-date carving, overlap override, persistence and balance effects.
func (s *Service) createForWorker(ctx context.Context, tx Store,
	workerID WorkerID, typeID AbsenceTypeID, candidate Span, now time.Time) ([]Occurrence, error) {

	worker, err := tx.GetWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if worker == nil {
		return nil, ErrWorkerNotFound
	}

	account, err := tx.GetAbsence(ctx, workerID, typeID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAbsenceNotFound
	}
	typ, err := tx.GetAbsenceType(ctx, typeID)
	if err != nil {
		return nil, err
	}
	if typ == nil {
		return nil, ErrAbsenceNotFound
	}

	types, err := typeIndex(ctx, tx, workerID)
	if err != nil {
		return nil, err
	}

	globalOccs, err := tx.ListGlobalDateOccurrences(ctx, workerID, candidate.Start, candidate.End)
	if err != nil {
		return nil, err
	}
	globals := make([]TypedSpan, 0, len(globalOccs))
	for _, g := range globalOccs {
		globals = append(globals, TypedSpan{Span: g.Span(), SpendDays: types[g.AbsenceID].SpendDays})
	}

	nextYearConsumed := decimal.Zero
	if candidate.End.Year() > now.Year() {
		nextYearConsumed, err = nextYearConsumption(ctx, tx, workerID, types, now.Year()+1)
		if err != nil {
			return nil, err
		}
	}

	if err := CheckDuration(candidate, *typ, *worker, globals, nextYearConsumed, now); err != nil {
		return nil, err
	}

	var created []Occurrence
	for _, piece := range CarveSpans(candidate, spansOf(globalOccs)) {
		if err := overrideOverlaps(ctx, tx, worker, types, piece, now); err != nil {
			return nil, err
		}
		occ, err := insertOccurrence(ctx, tx, worker, account.ID, *typ, piece, now)
		if err != nil {
			return nil, err
		}
		created = append(created, occ)
	}

	return created, tx.SaveWorker(ctx, *worker)
}

// =============================================================================
// OCCURRENCE DELETION
// =============================================================================

// DeleteOccurrence reverses the occurrence's balance effect and
// soft-deletes it. An occurrence whose start date has passed can no
// longer be deleted.
func (s *Service) DeleteOccurrence(ctx context.Context, id OccurrenceID) error {
	now := s.clock()

	return s.store.WithTx(ctx, func(tx Store) error {
		occ, err := tx.GetOccurrence(ctx, id)
		if err != nil {
			return err
		}
		if occ == nil || !occ.Active() {
			return ErrOccurrenceNotFound
		}
		if calendar.DateOf(occ.StartTime).Before(calendar.DateOf(now)) {
			return ErrCannotDeleteStarted
		}

		account, err := tx.GetAbsenceByID(ctx, occ.AbsenceID)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrAbsenceNotFound
		}
		worker, err := tx.GetWorker(ctx, account.WorkerID)
		if err != nil {
			return err
		}
		if worker == nil {
			return ErrWorkerNotFound
		}
		typ, err := tx.GetAbsenceType(ctx, account.AbsenceTypeID)
		if err != nil {
			return err
		}
		if typ == nil {
			return ErrAbsenceNotFound
		}

		reverseBalance(worker, occ.Span(), *typ, now)
		if err := tx.SaveWorker(ctx, *worker); err != nil {
			return err
		}
		return tx.MarkOccurrenceDeleted(ctx, id, now)
	})
}

// =============================================================================
// WORKER AND ABSENCE-TYPE CREATION (fan-out)
// =============================================================================

// CreateWorker persists a worker with a pro-rated initial balance and
// creates the Absence account for every existing absence type, in one
// transaction.
func (s *Service) CreateWorker(ctx context.Context, w Worker) (*Worker, error) {
	now := s.clock()
	if w.ID == "" {
		w.ID = WorkerID(uuid.NewString())
	}
	w.CreatedAt = now

	err := s.store.WithTx(ctx, func(tx Store) error {
		if w.VacationPolicyID != nil {
			policy, err := tx.GetPolicy(ctx, *w.VacationPolicyID)
			if err != nil {
				return err
			}
			if policy == nil {
				return ErrPolicyNotFound
			}
			w.Holidays = policy.ProportionalHolidays(now)
		}
		if err := tx.SaveWorker(ctx, w); err != nil {
			return err
		}

		types, err := tx.ListAbsenceTypes(ctx)
		if err != nil {
			return err
		}
		for _, t := range types {
			account := Absence{ID: AbsenceID(uuid.NewString()), WorkerID: w.ID, AbsenceTypeID: t.ID}
			if err := tx.SaveAbsence(ctx, account); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("worker", string(w.ID)).Str("holidays", w.Holidays.String()).Msg("worker created")
	return &w, nil
}

// UpdateWorker applies an update, restoring protected fields from the
// stored record unless the caller is privileged. The protected list is
// configuration, not a process-wide global.
func (s *Service) UpdateWorker(ctx context.Context, updated Worker, allowProtected bool) (*Worker, error) {
	var result Worker
	err := s.store.WithTx(ctx, func(tx Store) error {
		current, err := tx.GetWorker(ctx, updated.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrWorkerNotFound
		}

		updated.CreatedAt = current.CreatedAt
		if !allowProtected {
			for _, field := range s.protectedFields {
				switch field {
				case "holidays":
					updated.Holidays = current.Holidays
				case "category":
					updated.Category = current.Category
				case "vacation_policy":
					updated.VacationPolicyID = current.VacationPolicyID
				}
			}
		}
		result = updated
		return tx.SaveWorker(ctx, updated)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateAbsenceType validates the duration-bound invariant, persists the
// type and creates the Absence account for every existing worker, in one
// transaction.
func (s *Service) CreateAbsenceType(ctx context.Context, t AbsenceType) (*AbsenceType, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.ID == "" {
		t.ID = AbsenceTypeID(uuid.NewString())
	}

	err := s.store.WithTx(ctx, func(tx Store) error {
		if err := tx.SaveAbsenceType(ctx, t); err != nil {
			return err
		}
		workers, err := tx.ListWorkers(ctx)
		if err != nil {
			return err
		}
		for _, w := range workers {
			account := Absence{ID: AbsenceID(uuid.NewString()), WorkerID: w.ID, AbsenceTypeID: t.ID}
			if err := tx.SaveAbsence(ctx, account); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("absence_type", t.Name).Bool("global_date", t.GlobalDate).Msg("absence type created")
	return &t, nil
}
