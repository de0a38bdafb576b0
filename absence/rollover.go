/*
rollover.go - Year-boundary balance rollover

PURPOSE:
  On January 1st every worker's balance is topped up with a fresh policy
  entitlement, then charged for the next-year vacation days that were
  admitted in advance against the projected balance. Runs as a single
  transaction over all workers.

SCHEDULING:
  Out of scope here; the binary exposes this as an admin endpoint and the
  operator wires it to whatever scheduler the deployment uses.
*/
package absence

import (
	"context"

	"github.com/shopspring/decimal"
)

// RunYearRollover credits every policied worker with their policy's full
// yearly entitlement and applies the already-booked consumption for the
// year after now's. Workers without a vacation policy are skipped.
// Returns the number of workers updated.
func (s *Service) RunYearRollover(ctx context.Context) (int, error) {
	now := s.clock()
	nextYear := now.Year() + 1

	updated := 0
	err := s.store.WithTx(ctx, func(tx Store) error {
		workers, err := tx.ListWorkers(ctx)
		if err != nil {
			return err
		}
		for _, w := range workers {
			if w.VacationPolicyID == nil {
				s.log.Debug().Str("worker", string(w.ID)).Msg("no vacation policy, skipping rollover")
				continue
			}
			policy, err := tx.GetPolicy(ctx, *w.VacationPolicyID)
			if err != nil {
				return err
			}
			if policy == nil {
				return ErrPolicyNotFound
			}

			types, err := typeIndex(ctx, tx, w.ID)
			if err != nil {
				return err
			}
			consumed, err := nextYearConsumption(ctx, tx, w.ID, types, nextYear)
			if err != nil {
				return err
			}

			w.Holidays = w.Holidays.Add(decimal.NewFromInt(int64(policy.Holidays))).Add(consumed)
			if err := tx.SaveWorker(ctx, w); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info().Int("workers", updated).Int("year", nextYear).Msg("year rollover applied")
	return updated, nil
}
