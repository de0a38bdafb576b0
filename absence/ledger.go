/*
ledger.go - The holiday balance ledger

PURPOSE:
  Applies and reverses the balance effect of occurrences on a worker's
  holiday count. Only balance-affecting types (SpendDays != 0) move the
  balance, and only for occurrences in the current year; next-year
  occurrences are picked up by the year rollover instead.

CONVENTION:
  DayCounter already carries the sign of the type (negative for consuming
  types), so applying is always an Add and reversing always a Sub. The
  create-then-delete round trip restores the exact prior balance.

The functions here mutate the worker value in place; the caller persists
it once per unit of work, inside the surrounding transaction.
*/
package absence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/absence-engine/calendar"
)

// balanceEffect reports whether the span moves the worker balance: the
// type spends (or credits) days and the span lies in now's year.
func balanceEffect(span Span, typ AbsenceType, now time.Time) bool {
	return typ.SpendDays != 0 && span.Start.Year() == now.Year()
}

// applyBalance adds the span's day-counter to the worker balance, if it
// has a balance effect.
func applyBalance(w *Worker, span Span, typ AbsenceType, now time.Time) {
	if balanceEffect(span, typ, now) {
		w.Holidays = w.Holidays.Add(calendar.DayCounter(span.Start, span.End, typ.SpendDays))
	}
}

// reverseBalance undoes applyBalance for the same span and type.
func reverseBalance(w *Worker, span Span, typ AbsenceType, now time.Time) {
	if balanceEffect(span, typ, now) {
		w.Holidays = w.Holidays.Sub(calendar.DayCounter(span.Start, span.End, typ.SpendDays))
	}
}

// insertOccurrence persists a new active occurrence for the given span
// and applies its balance effect to the worker value. Used for both
// requested pieces and frontier remainders; the worker is saved by the
// caller.
func insertOccurrence(ctx context.Context, s Store, w *Worker,
	absenceID AbsenceID, typ AbsenceType, span Span, now time.Time) (Occurrence, error) {

	o := Occurrence{
		ID:        OccurrenceID(uuid.NewString()),
		AbsenceID: absenceID,
		StartTime: span.Start,
		EndTime:   span.End,
		CreatedAt: now,
	}
	if err := s.SaveOccurrence(ctx, o); err != nil {
		return Occurrence{}, err
	}
	applyBalance(w, span, typ, now)
	return o, nil
}

// nextYearConsumption sums the day-counters of the worker's existing
// occurrences that start and end in year and whose type affects the
// balance. Added to the current balance it gives the projected balance
// used to admit next-year requests.
func nextYearConsumption(ctx context.Context, s Store, worker WorkerID,
	types map[AbsenceID]AbsenceType, year int) (decimal.Decimal, error) {

	total := decimal.Zero
	occurrences, err := s.ListOccurrencesInYear(ctx, worker, year)
	if err != nil {
		return total, err
	}
	for _, o := range occurrences {
		typ, ok := types[o.AbsenceID]
		if !ok || typ.SpendDays == 0 {
			continue
		}
		total = total.Add(calendar.DayCounter(o.StartTime, o.EndTime, typ.SpendDays))
	}
	return total, nil
}

// typeIndex resolves the absence type behind each of the worker's absence
// accounts, so per-occurrence type lookups don't hit the store N times.
func typeIndex(ctx context.Context, s Store, worker WorkerID) (map[AbsenceID]AbsenceType, error) {
	absences, err := s.ListAbsencesByWorker(ctx, worker)
	if err != nil {
		return nil, err
	}
	types, err := s.ListAbsenceTypes(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[AbsenceTypeID]AbsenceType, len(types))
	for _, t := range types {
		byID[t.ID] = t
	}
	index := make(map[AbsenceID]AbsenceType, len(absences))
	for _, a := range absences {
		if t, ok := byID[a.AbsenceTypeID]; ok {
			index[a.ID] = t
		}
	}
	return index, nil
}
