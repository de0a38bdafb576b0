package absence_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/absence-engine/absence"
	"github.com/warp/absence-engine/absence/store"
)

// =============================================================================
// FIXTURE
// =============================================================================

type fixture struct {
	mem *store.Memory
	svc *absence.Service
}

// newFixture builds a service over the in-memory store with the clock
// pinned to Monday 2026-03-02 10:00 UTC.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	svc := absence.NewService(mem, zerolog.Nop())
	svc.SetClock(func() time.Time { return testNow })
	return &fixture{mem: mem, svc: svc}
}

// addType registers an absence type through the service so accounts fan
// out to existing workers.
func (f *fixture) addType(t *testing.T, typ absence.AbsenceType) {
	t.Helper()
	_, err := f.svc.CreateAbsenceType(context.Background(), typ)
	require.NoError(t, err)
}

// addWorker creates a worker with a fixed balance and no policy, so the
// balance is taken as given instead of pro-rated.
func (f *fixture) addWorker(t *testing.T, id absence.WorkerID, days int) {
	t.Helper()
	_, err := f.svc.CreateWorker(context.Background(), absence.Worker{
		ID:       id,
		Holidays: decimal.NewFromInt(int64(days)),
	})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, id absence.WorkerID) decimal.Decimal {
	t.Helper()
	w, err := f.mem.GetWorker(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, w)
	return w.Holidays
}

func (f *fixture) active(t *testing.T, id absence.WorkerID) []absence.Occurrence {
	t.Helper()
	occs, err := f.mem.ListActiveOccurrences(context.Background(), id)
	require.NoError(t, err)
	return occs
}

func fullDays(typ absence.AbsenceTypeID, worker absence.WorkerID, start, end time.Time) absence.OccurrenceRequest {
	return absence.OccurrenceRequest{
		AbsenceTypeID:  typ,
		WorkerIDs:      []absence.WorkerID{worker},
		Start:          start,
		End:            end,
		StartMorning:   true,
		StartAfternoon: true,
		EndMorning:     true,
		EndAfternoon:   true,
	}
}

// =============================================================================
// CREATE
// =============================================================================

func TestCreateOccurrences_ChargesBalance(t *testing.T) {
	// GIVEN: a worker with 25 days
	// WHEN: booking Monday through Wednesday
	// THEN: one occurrence at working-hour edges, balance 22

	f := newFixture(t)
	f.addType(t, vacationType())
	f.addWorker(t, "w1", 25)

	created, err := f.svc.CreateOccurrences(context.Background(),
		fullDays("vacation", "w1", at(2, 0), at(4, 0)))

	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, at(2, 9), created[0].StartTime)
	assert.Equal(t, at(4, 17), created[0].EndTime)
	assert.True(t, decimal.NewFromInt(22).Equal(f.balance(t, "w1")))
}

func TestCreateOccurrences_HalfDayFlags(t *testing.T) {
	// An afternoon-only start normalizes to 13:00 and costs half a day
	// less.

	f := newFixture(t)
	f.addType(t, vacationType())
	f.addWorker(t, "w1", 25)

	req := fullDays("vacation", "w1", at(2, 0), at(3, 0))
	req.StartMorning = false

	created, err := f.svc.CreateOccurrences(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, at(2, 13), created[0].StartTime)
	assert.True(t, decimal.NewFromFloat(23.5).Equal(f.balance(t, "w1")))
}

func TestCreateOccurrences_MalformedFlags(t *testing.T) {
	f := newFixture(t)
	f.addType(t, vacationType())
	f.addWorker(t, "w1", 25)

	req := fullDays("vacation", "w1", at(2, 0), at(4, 0))
	req.StartMorning, req.StartAfternoon = false, false

	_, err := f.svc.CreateOccurrences(context.Background(), req)
	assert.ErrorIs(t, err, absence.ErrMalformedBoundaryFlags)
}

func TestCreateOccurrences_EmptyWorkerList(t *testing.T) {
	f := newFixture(t)
	f.addType(t, vacationType())

	req := fullDays("vacation", "w1", at(2, 0), at(4, 0))
	req.WorkerIDs = nil

	_, err := f.svc.CreateOccurrences(context.Background(), req)
	assert.ErrorIs(t, err, absence.ErrWorkerNotFound)
}

func TestCreateOccurrences_MinDurationRejected(t *testing.T) {
	f := newFixture(t)
	typ := vacationType()
	typ.MinDuration = decimal.NewFromInt(3)
	f.addType(t, typ)
	f.addWorker(t, "w1", 25)

	_, err := f.svc.CreateOccurrences(context.Background(),
		fullDays("vacation", "w1", at(2, 0), at(2, 0)))

	assert.ErrorIs(t, err, absence.ErrDurationOutOfRange)
	assert.True(t, decimal.NewFromInt(25).Equal(f.balance(t, "w1")))
	assert.Empty(t, f.active(t, "w1"))
}

func TestCreateOccurrences_PastRejected(t *testing.T) {
	f := newFixture(t)
	f.addType(t, vacationType())
	f.addWorker(t, "w1", 25)

	friday := time.Date(2026, time.February, 27, 0, 0, 0, 0, time.UTC)
	_, err := f.svc.CreateOccurrences(context.Background(),
		fullDays("vacation", "w1", friday, friday))
	assert.ErrorIs(t, err, absence.ErrPastOccurrence)

	// Today is still bookable even though the morning has started.
	_, err = f.svc.CreateOccurrences(context.Background(),
		fullDays("vacation", "w1", at(2, 0), at(2, 0)))
	assert.NoError(t, err)
}

func TestCreateOccurrences_SupersedesOverlap(t *testing.T) {
	// GIVEN: an existing Mon-Wed booking
	// WHEN: booking Tue-Thu on top of it
	// THEN: the old one is trimmed to a Monday remainder, the new one
	//       stands whole, and the balance charges exactly the union

	f := newFixture(t)
	f.addType(t, vacationType())
	f.addWorker(t, "w1", 25)
	ctx := context.Background()

	_, err := f.svc.CreateOccurrences(ctx, fullDays("vacation", "w1", at(2, 0), at(4, 0)))
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(22).Equal(f.balance(t, "w1")))

	_, err = f.svc.CreateOccurrences(ctx, fullDays("vacation", "w1", at(3, 0), at(5, 0)))
	require.NoError(t, err)

	// Mon-Thu is four workdays.
	assert.True(t, decimal.NewFromInt(21).Equal(f.balance(t, "w1")), "got %v", f.balance(t, "w1"))

	actives := f.active(t, "w1")
	require.Len(t, actives, 2)
	for i, a := range actives {
		for _, b := range actives[i+1:] {
			assert.False(t, a.Span().Overlaps(b.Span()), "actives must be disjoint")
		}
	}

	spans := []absence.Span{actives[0].Span(), actives[1].Span()}
	assert.Contains(t, spans, span(2, 9, 2, 17))
	assert.Contains(t, spans, span(3, 9, 5, 17))
}

func TestCreateOccurrences_GlobalDateCarving(t *testing.T) {
	// GIVEN: a company holiday on Wednesday
	// WHEN: booking Monday through Friday
	// THEN: the week lands as two pieces around the holiday and only
	//       four days are charged for it

	f := newFixture(t)
	f.addType(t, vacationType())
	f.addType(t, absence.AbsenceType{
		ID:          "festivity",
		Name:        "Festivity",
		SpendDays:   -1,
		MaxDuration: absence.UnlimitedDuration,
		GlobalDate:  true,
	})
	f.addWorker(t, "w1", 25)
	ctx := context.Background()

	_, err := f.svc.CreateOccurrences(ctx, fullDays("festivity", "w1", at(4, 0), at(4, 0)))
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(24).Equal(f.balance(t, "w1")))

	created, err := f.svc.CreateOccurrences(ctx, fullDays("vacation", "w1", at(2, 0), at(6, 0)))
	require.NoError(t, err)

	require.Len(t, created, 2)
	assert.Equal(t, span(2, 9, 3, 17), created[0].Span())
	assert.Equal(t, span(5, 9, 6, 17), created[1].Span())
	assert.True(t, decimal.NewFromInt(20).Equal(f.balance(t, "w1")), "got %v", f.balance(t, "w1"))

	// The festivity itself survives the override pass.
	assert.Len(t, f.active(t, "w1"), 3)
}

func TestCreateOccurrences_MultiWorkerAtomic(t *testing.T) {
	// GIVEN: a second worker stored without absence accounts
	// WHEN: booking for both in one request
	// THEN: nothing is persisted for either

	f := newFixture(t)
	f.addType(t, vacationType())
	f.addWorker(t, "w1", 25)
	ctx := context.Background()

	require.NoError(t, f.mem.SaveWorker(ctx, absence.Worker{
		ID:       "w2",
		Holidays: decimal.NewFromInt(25),
	}))

	req := fullDays("vacation", "w1", at(2, 0), at(4, 0))
	req.WorkerIDs = []absence.WorkerID{"w1", "w2"}

	_, err := f.svc.CreateOccurrences(ctx, req)

	assert.ErrorIs(t, err, absence.ErrAbsenceNotFound)
	assert.True(t, decimal.NewFromInt(25).Equal(f.balance(t, "w1")))
	assert.Empty(t, f.active(t, "w1"))
}

func TestCreateOccurrences_NextYearLeavesBalanceUntouched(t *testing.T) {
	// A next-year booking is admitted against the projected balance but
	// only charged at rollover.

	f := newFixture(t)
	f.addType(t, vacationType())
	f.addWorker(t, "w1", 25)

	start := time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2027, time.March, 3, 0, 0, 0, 0, time.UTC)

	created, err := f.svc.CreateOccurrences(context.Background(),
		fullDays("vacation", "w1", start, end))

	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.True(t, decimal.NewFromInt(25).Equal(f.balance(t, "w1")))
}

func TestCreateOccurrences_YearCrossingChargesCurrentBalance(t *testing.T) {
	// GIVEN: a policied worker booking Dec 28 2026 - Jan 5 2027
	// THEN: the full seven workdays are charged at create against the
	//       current balance; rollover does not charge them again, and
	//       deleting before the start refunds the whole span

	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mem.SavePolicy(ctx, absence.VacationPolicy{ID: "standard", Holidays: 25}))
	f.addType(t, vacationType())

	policyID := absence.PolicyID("standard")
	_, err := f.svc.CreateWorker(ctx, absence.Worker{ID: "w1", VacationPolicyID: &policyID})
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(21).Equal(f.balance(t, "w1")))

	start := time.Date(2026, time.December, 28, 0, 0, 0, 0, time.UTC)
	end := time.Date(2027, time.January, 5, 0, 0, 0, 0, time.UTC)

	created, err := f.svc.CreateOccurrences(ctx, fullDays("vacation", "w1", start, end))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.True(t, decimal.NewFromInt(14).Equal(f.balance(t, "w1")), "got %v", f.balance(t, "w1"))

	// The crossing booking starts in the current year, so it is not
	// next-year consumption: rollover adds the entitlement untouched.
	updated, err := f.svc.RunYearRollover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.True(t, decimal.NewFromInt(39).Equal(f.balance(t, "w1")), "got %v", f.balance(t, "w1"))

	// Deleting it refunds the same seven days it charged.
	require.NoError(t, f.svc.DeleteOccurrence(ctx, created[0].ID))
	assert.True(t, decimal.NewFromInt(46).Equal(f.balance(t, "w1")), "got %v", f.balance(t, "w1"))
}

// =============================================================================
// DELETE
// =============================================================================

func TestDeleteOccurrence_RestoresBalance(t *testing.T) {
	f := newFixture(t)
	f.addType(t, vacationType())
	f.addWorker(t, "w1", 25)
	ctx := context.Background()

	created, err := f.svc.CreateOccurrences(ctx, fullDays("vacation", "w1", at(3, 0), at(5, 0)))
	require.NoError(t, err)
	require.Len(t, created, 1)

	require.NoError(t, f.svc.DeleteOccurrence(ctx, created[0].ID))

	assert.True(t, decimal.NewFromInt(25).Equal(f.balance(t, "w1")))
	assert.Empty(t, f.active(t, "w1"))

	// A soft-deleted occurrence cannot be deleted again.
	err = f.svc.DeleteOccurrence(ctx, created[0].ID)
	assert.ErrorIs(t, err, absence.ErrOccurrenceNotFound)
}

func TestDeleteOccurrence_StartedRejected(t *testing.T) {
	// GIVEN: a Wednesday booking
	// WHEN: deleting it on Thursday
	// THEN: rejected, balance intact

	f := newFixture(t)
	f.addType(t, vacationType())
	f.addWorker(t, "w1", 25)
	ctx := context.Background()

	created, err := f.svc.CreateOccurrences(ctx, fullDays("vacation", "w1", at(4, 0), at(4, 0)))
	require.NoError(t, err)

	f.svc.SetClock(func() time.Time { return at(5, 10) })

	err = f.svc.DeleteOccurrence(ctx, created[0].ID)
	assert.ErrorIs(t, err, absence.ErrCannotDeleteStarted)
	assert.True(t, decimal.NewFromInt(24).Equal(f.balance(t, "w1")))
}

func TestDeleteOccurrence_Unknown(t *testing.T) {
	f := newFixture(t)
	err := f.svc.DeleteOccurrence(context.Background(), "nope")
	assert.ErrorIs(t, err, absence.ErrOccurrenceNotFound)
}

// =============================================================================
// WORKER AND TYPE LIFECYCLE
// =============================================================================

func TestCreateWorker_ProRatesFromPolicy(t *testing.T) {
	// 305 days remain in the year on March 2nd: 305/365 * 25 rounds
	// to 21.

	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mem.SavePolicy(ctx, absence.VacationPolicy{ID: "standard", Holidays: 25}))

	policyID := absence.PolicyID("standard")
	w, err := f.svc.CreateWorker(ctx, absence.Worker{ID: "w1", VacationPolicyID: &policyID})

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(21).Equal(w.Holidays), "got %v", w.Holidays)
}

func TestCreateWorker_UnknownPolicy(t *testing.T) {
	f := newFixture(t)
	policyID := absence.PolicyID("ghost")

	_, err := f.svc.CreateWorker(context.Background(),
		absence.Worker{ID: "w1", VacationPolicyID: &policyID})
	assert.ErrorIs(t, err, absence.ErrPolicyNotFound)

	w, err := f.mem.GetWorker(context.Background(), "w1")
	require.NoError(t, err)
	assert.Nil(t, w, "failed creation must not persist the worker")
}

func TestCreateWorker_AccountsFanOut(t *testing.T) {
	f := newFixture(t)
	f.addType(t, vacationType())
	f.addWorker(t, "w1", 25)

	account, err := f.mem.GetAbsence(context.Background(), "w1", "vacation")
	require.NoError(t, err)
	assert.NotNil(t, account)
}

func TestCreateAbsenceType_AccountsFanOut(t *testing.T) {
	f := newFixture(t)
	f.addWorker(t, "w1", 25)
	f.addType(t, vacationType())

	account, err := f.mem.GetAbsence(context.Background(), "w1", "vacation")
	require.NoError(t, err)
	assert.NotNil(t, account)
}

func TestCreateAbsenceType_InvalidBounds(t *testing.T) {
	f := newFixture(t)
	typ := vacationType()
	typ.MinDuration = decimal.NewFromInt(5)
	typ.MaxDuration = decimal.NewFromInt(2)

	_, err := f.svc.CreateAbsenceType(context.Background(), typ)
	assert.ErrorIs(t, err, absence.ErrInvalidAbsenceType)
}

func TestUpdateWorker_ProtectedFields(t *testing.T) {
	f := newFixture(t)
	f.addWorker(t, "w1", 25)
	ctx := context.Background()

	update := absence.Worker{
		ID:       "w1",
		Email:    "new@example.com",
		Category: "senior",
		Holidays: decimal.NewFromInt(99),
	}

	// WHEN: an unprivileged update touches protected fields
	got, err := f.svc.UpdateWorker(ctx, update, false)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)
	assert.Equal(t, "", got.Category)
	assert.True(t, decimal.NewFromInt(25).Equal(got.Holidays))

	// WHEN: a privileged update does the same
	got, err = f.svc.UpdateWorker(ctx, update, true)
	require.NoError(t, err)
	assert.Equal(t, "senior", got.Category)
	assert.True(t, decimal.NewFromInt(99).Equal(got.Holidays))
}

func TestUpdateWorker_Unknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateWorker(context.Background(), absence.Worker{ID: "ghost"}, false)
	assert.ErrorIs(t, err, absence.ErrWorkerNotFound)
}

// =============================================================================
// YEAR ROLLOVER
// =============================================================================

func TestRunYearRollover(t *testing.T) {
	// GIVEN: a policied worker with next-year days already booked and a
	//        worker without a policy
	// THEN: the policied worker gets the fresh entitlement minus the
	//       advance bookings; the other is skipped

	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mem.SavePolicy(ctx, absence.VacationPolicy{ID: "standard", Holidays: 25}))
	f.addType(t, vacationType())

	policyID := absence.PolicyID("standard")
	_, err := f.svc.CreateWorker(ctx, absence.Worker{ID: "w1", VacationPolicyID: &policyID})
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(21).Equal(f.balance(t, "w1")))

	f.addWorker(t, "freelancer", 5)

	// Three workdays booked for March 2027.
	start := time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2027, time.March, 3, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.CreateOccurrences(ctx, fullDays("vacation", "w1", start, end))
	require.NoError(t, err)

	updated, err := f.svc.RunYearRollover(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.True(t, decimal.NewFromInt(43).Equal(f.balance(t, "w1")), "got %v", f.balance(t, "w1"))
	assert.True(t, decimal.NewFromInt(5).Equal(f.balance(t, "freelancer")))
}
