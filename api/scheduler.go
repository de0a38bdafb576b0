/*
scheduler.go - Automated year-rollover scheduler

PURPOSE:
  Runs the year rollover automatically on the first check after a year
  boundary, so the operator is not forced to hit the admin endpoint at
  midnight on January 1st.

DESIGN:
  - Background goroutine with a configurable check interval
  - Tracks the last year it rolled over for; fires once per new year
  - Rollover itself is one transaction in the service, so a crash
    between checks never leaves partial state

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewRolloverScheduler(service, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerRollover endpoint (manual rollover)
  - absence/rollover.go: the rollover itself
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/absence-engine/absence"
)

// RolloverScheduler fires the year rollover once per year boundary.
type RolloverScheduler struct {
	Service       *absence.Service
	CheckInterval time.Duration
	Enabled       bool

	log      zerolog.Logger
	clock    func() time.Time
	lastYear int
	ticker   *time.Ticker
	stop     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// NewRolloverScheduler creates a scheduler that has already "seen" the
// clock's current year, so starting mid-year never triggers a spurious
// rollover.
func NewRolloverScheduler(service *absence.Service, logger zerolog.Logger) *RolloverScheduler {
	rs := &RolloverScheduler{
		Service:       service,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		log:           logger,
		clock:         time.Now,
		stop:          make(chan struct{}),
	}
	rs.lastYear = rs.clock().Year()
	return rs
}

// Start begins the scheduler.
func (rs *RolloverScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.log.Info().Msg("rollover scheduler disabled, not starting")
		return
	}

	// Reseed from the clock: a replaced time source counts from its own
	// current year.
	rs.lastYear = rs.clock().Year()
	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)
	go rs.run()

	rs.log.Info().Dur("interval", rs.CheckInterval).Msg("rollover scheduler started")
}

// Stop halts the scheduler and waits for an in-flight check to finish.
func (rs *RolloverScheduler) Stop() {
	rs.mu.Lock()
	if rs.ticker == nil {
		rs.mu.Unlock()
		return
	}
	rs.ticker.Stop()
	rs.ticker = nil
	close(rs.stop)
	rs.mu.Unlock()

	// Wait with mu released: an in-flight check takes it for lastYear.
	rs.wg.Wait()
	rs.log.Info().Msg("rollover scheduler stopped")
}

func (rs *RolloverScheduler) run() {
	defer rs.wg.Done()

	for {
		select {
		case <-rs.ticker.C:
			rs.checkAndRun()
		case <-rs.stop:
			return
		}
	}
}

func (rs *RolloverScheduler) checkAndRun() {
	year := rs.clock().Year()

	rs.mu.Lock()
	due := year > rs.lastYear
	rs.mu.Unlock()
	if !due {
		return
	}

	updated, err := rs.Service.RunYearRollover(context.Background())
	if err != nil {
		// Leave lastYear untouched so the next tick retries.
		rs.log.Error().Err(err).Int("year", year).Msg("scheduled rollover failed")
		return
	}

	rs.mu.Lock()
	rs.lastYear = year
	rs.mu.Unlock()
	rs.log.Info().Int("year", year).Int("workers", updated).Msg("scheduled rollover complete")
}
