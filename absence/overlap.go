/*
overlap.go - The interval-splitting engine

PURPOSE:
  Keeps every worker's set of active occurrences pairwise disjoint. When a
  new interval is inserted, any existing interval it touches is superseded
  and its surviving remainders ("frontier occurrences") are re-inserted.
  The same frontier primitive carves a candidate around global-date
  (company holiday) intervals so those sub-spans are never charged.

BOUNDARY RULE:
  A carved edge that lands exactly on 13:00 stays at 13:00 - a clean
  half-day split. Any other edge backs off to the previous day's 17:00 on
  the leading side, or advances to the next day's 09:00 on the trailing
  side, so remainders always begin and end on valid workday boundaries.

ORDER INDEPENDENCE:
  Remainders are strict sub-intervals of the original that lie outside the
  carve span, so no remainder can overlap the candidate after computation.
  Superseding the whole overlap set before persisting the candidate is
  therefore order-independent.

SEE ALSO:
  - service.go: drives the override+persist loop inside one transaction
  - duration.go: reuses the frontier primitive for the year-boundary split
*/
package absence

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/absence-engine/calendar"
)

// =============================================================================
// FRONTIER PRIMITIVE
// =============================================================================

// FrontierSpans computes the zero, one or two remainders of owner that
// survive outside carve. The leading remainder keeps owner's start; the
// trailing remainder keeps owner's end. Degenerate remainders (no
// positive length) are dropped.
func FrontierSpans(owner, carve Span) (leading, trailing *Span) {
	if owner.Start.Before(carve.Start) {
		end := carve.Start
		if carve.Start.Hour() != calendar.HourMidday {
			prev := carve.Start.AddDate(0, 0, -1)
			end = time.Date(prev.Year(), prev.Month(), prev.Day(),
				calendar.HourAfternoonEnd, 0, 0, 0, prev.Location())
		}
		s := Span{Start: owner.Start, End: end}
		if s.Valid() {
			leading = &s
		}
	}
	if owner.End.After(carve.End) {
		start := carve.End
		if carve.End.Hour() != calendar.HourMidday {
			next := carve.End.AddDate(0, 0, 1)
			start = time.Date(next.Year(), next.Month(), next.Day(),
				calendar.HourMorningStart, 0, 0, 0, next.Location())
		}
		s := Span{Start: start, End: owner.End}
		if s.Valid() {
			trailing = &s
		}
	}
	return leading, trailing
}

// =============================================================================
// GLOBAL-DATE SPLITTING
// =============================================================================

// CarveSpans partitions candidate around every overlapping span in
// carves. The result covers candidate's span minus all carve spans; no
// element overlaps any carve. Applying CarveSpans to an already-carved
// piece returns that piece unchanged.
func CarveSpans(candidate Span, carves []Span) []Span {
	for _, c := range carves {
		if !candidate.Overlaps(c) {
			continue
		}
		var out []Span
		leading, trailing := FrontierSpans(candidate, c)
		if leading != nil {
			out = append(out, CarveSpans(*leading, carves)...)
		}
		if trailing != nil {
			out = append(out, CarveSpans(*trailing, carves)...)
		}
		return out
	}
	return []Span{candidate}
}

// SplitAtYearBoundary cuts a year-crossing span into its current-year and
// next-year sides. The cut is a synthetic carve interval whose edges are
// chosen so the frontier rule lands on December 31 17:00 and January 1
// 09:00.
func SplitAtYearBoundary(candidate Span, year int) (current, next *Span) {
	loc := candidate.Start.Location()
	cut := Span{
		Start: calendar.StartOfYear(year+1, loc),
		End:   calendar.EndOfYear(year, loc),
	}
	return FrontierSpans(candidate, cut)
}

// =============================================================================
// OVERRIDE PASS
// =============================================================================

// overrideOverlaps supersedes every active occurrence of the worker that
// overlaps candidate, re-inserting the frontier remainders under the
// superseded occurrence's absence. Balance effects of the superseded
// interval are reversed and those of the remainders applied, keeping the
// worker's charge equal to the days actually off.
//
// A single strict-overlap predicate covers both full containment and
// partial overlap; exact boundary touches (13:00/13:00) are not overlaps
// and are left alone.
func overrideOverlaps(ctx context.Context, s Store, worker *Worker,
	types map[AbsenceID]AbsenceType, candidate Span, now time.Time) error {

	existing, err := s.ListActiveOccurrences(ctx, worker.ID)
	if err != nil {
		return err
	}

	for _, o := range existing {
		if !o.Span().Overlaps(candidate) {
			continue
		}
		typ, ok := types[o.AbsenceID]
		if !ok {
			return fmt.Errorf("occurrence %s: no absence type for absence %s", o.ID, o.AbsenceID)
		}

		if err := s.MarkOccurrenceDeleted(ctx, o.ID, now); err != nil {
			return err
		}
		reverseBalance(worker, o.Span(), typ, now)

		leading, trailing := FrontierSpans(o.Span(), candidate)
		for _, remainder := range []*Span{leading, trailing} {
			if remainder == nil {
				continue
			}
			if _, err := insertOccurrence(ctx, s, worker, o.AbsenceID, typ, *remainder, now); err != nil {
				return err
			}
		}
	}
	return nil
}

// spansOf converts occurrences to their interval values.
func spansOf(occurrences []Occurrence) []Span {
	spans := make([]Span, len(occurrences))
	for i, o := range occurrences {
		spans[i] = o.Span()
	}
	return spans
}
