package absence_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/absence-engine/absence"
)

// Monday 2026-03-02, mid-morning.
var testNow = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

func vacationType() absence.AbsenceType {
	return absence.AbsenceType{
		ID:          "vacation",
		Name:        "Vacation",
		SpendDays:   -1,
		MinDuration: decimal.Zero,
		MaxDuration: absence.UnlimitedDuration,
	}
}

func workerWithBalance(days int) absence.Worker {
	return absence.Worker{ID: "w1", Holidays: decimal.NewFromInt(int64(days))}
}

// =============================================================================
// BOUNDARY FLAGS
// =============================================================================

func TestValidateBoundaryFlags(t *testing.T) {
	mon, wed := at(2, 0), at(4, 0)

	cases := []struct {
		name       string
		start, end time.Time
		sm, sa     bool
		em, ea     bool
		wantErr    bool
	}{
		{"full days", mon, wed, true, true, true, true, false},
		{"afternoon start", mon, wed, false, true, true, true, false},
		{"morning end", mon, wed, true, true, true, false, false},
		{"single day morning only", mon, mon, true, false, true, false, false},
		{"single day afternoon only", mon, mon, false, true, false, true, false},
		{"no start flags", mon, wed, false, false, true, true, true},
		{"no end flags", mon, wed, true, true, false, false, true},
		{"multi-day morning-only start", mon, wed, true, false, true, true, true},
		{"multi-day afternoon-only end", mon, wed, true, true, false, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := absence.ValidateBoundaryFlags(tc.start, tc.end, tc.sm, tc.sa, tc.em, tc.ea)
			if tc.wantErr {
				assert.ErrorIs(t, err, absence.ErrMalformedBoundaryFlags)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// =============================================================================
// CHARGEABLE DURATION
// =============================================================================

func TestChargeableDuration_SubtractsContainedGlobals(t *testing.T) {
	// GIVEN: Mon-Fri vacation with a company holiday on Wednesday
	// THEN: only four days are chargeable

	candidate := span(2, 9, 6, 17)
	holiday := absence.TypedSpan{Span: span(4, 9, 4, 17), SpendDays: -1}

	got := absence.ChargeableDuration(candidate, vacationType(), []absence.TypedSpan{holiday})
	assert.True(t, decimal.NewFromInt(-4).Equal(got), "got %v", got)
}

func TestChargeableDuration_IgnoresGlobalsOutsideCandidate(t *testing.T) {
	candidate := span(2, 9, 3, 17)
	holiday := absence.TypedSpan{Span: span(5, 9, 5, 17), SpendDays: -1}

	got := absence.ChargeableDuration(candidate, vacationType(), []absence.TypedSpan{holiday})
	assert.True(t, decimal.NewFromInt(-2).Equal(got), "got %v", got)
}

// =============================================================================
// ADMISSION CHECKS
// =============================================================================

func TestCheckDuration_AcceptsAffordableRequest(t *testing.T) {
	err := absence.CheckDuration(span(2, 9, 4, 17), vacationType(),
		workerWithBalance(25), nil, decimal.Zero, testNow)
	assert.NoError(t, err)
}

func TestCheckDuration_MinimumBound(t *testing.T) {
	// GIVEN: a type requiring at least 3 days
	// WHEN: requesting a single day
	// THEN: rejected with the duration carried in the error

	typ := vacationType()
	typ.MinDuration = decimal.NewFromInt(3)

	err := absence.CheckDuration(span(2, 9, 2, 17), typ,
		workerWithBalance(25), nil, decimal.Zero, testNow)

	require.Error(t, err)
	assert.ErrorIs(t, err, absence.ErrDurationOutOfRange)
	var durErr *absence.DurationError
	require.True(t, errors.As(err, &durErr))
	assert.True(t, decimal.NewFromInt(-1).Equal(durErr.Duration))
}

func TestCheckDuration_MaximumBound(t *testing.T) {
	typ := vacationType()
	typ.MaxDuration = decimal.NewFromInt(2)

	err := absence.CheckDuration(span(2, 9, 6, 17), typ,
		workerWithBalance(25), nil, decimal.Zero, testNow)
	assert.ErrorIs(t, err, absence.ErrDurationOutOfRange)
}

func TestCheckDuration_PastDateRejected(t *testing.T) {
	// GIVEN: a request starting the Friday before "now"
	err := absence.CheckDuration(
		absence.Span{
			Start: time.Date(2026, time.February, 27, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2026, time.February, 27, 17, 0, 0, 0, time.UTC),
		},
		vacationType(), workerWithBalance(25), nil, decimal.Zero, testNow)
	assert.ErrorIs(t, err, absence.ErrPastOccurrence)
}

func TestCheckDuration_TodayWithPassedHourAccepted(t *testing.T) {
	// The past check is date-only: 09:00 today is fine at 10:00.
	err := absence.CheckDuration(span(2, 9, 2, 17), vacationType(),
		workerWithBalance(25), nil, decimal.Zero, testNow)
	assert.NoError(t, err)
}

func TestCheckDuration_InsufficientBalance(t *testing.T) {
	err := absence.CheckDuration(span(2, 9, 6, 17), vacationType(),
		workerWithBalance(3), nil, decimal.Zero, testNow)

	require.Error(t, err)
	assert.ErrorIs(t, err, absence.ErrInsufficientBalance)
	var balErr *absence.BalanceError
	require.True(t, errors.As(err, &balErr))
	assert.Equal(t, 2026, balErr.Year)
	assert.True(t, decimal.NewFromInt(5).Equal(balErr.Requested))
}

func TestCheckDuration_CreditingTypeNeverShortOfBalance(t *testing.T) {
	typ := vacationType()
	typ.SpendDays = 1

	// Weekend work for a worker with zero balance.
	err := absence.CheckDuration(span(7, 9, 8, 17), typ,
		workerWithBalance(0), nil, decimal.Zero, testNow)
	assert.NoError(t, err)
}

func TestCheckDuration_NextYearUsesProjectedBalance(t *testing.T) {
	// GIVEN: balance 10, 8 days already booked for next year
	// WHEN: requesting 3 more next-year days
	// THEN: rejected against the projected balance of 2

	nextYearWeek := absence.Span{
		Start: time.Date(2027, time.March, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2027, time.March, 3, 17, 0, 0, 0, time.UTC),
	}
	booked := decimal.NewFromInt(-8)

	err := absence.CheckDuration(nextYearWeek, vacationType(),
		workerWithBalance(10), nil, booked, testNow)

	require.Error(t, err)
	var balErr *absence.BalanceError
	require.True(t, errors.As(err, &balErr))
	assert.Equal(t, 2027, balErr.Year)
	assert.True(t, decimal.NewFromInt(2).Equal(balErr.Available))
}

func TestCheckDuration_YearCrossingSplit(t *testing.T) {
	// GIVEN: Dec 28 2026 - Jan 5 2027, balance 4
	// The current-year side needs 4 days (Dec 28-31, Thu 31 included),
	// the next-year side is checked against the projected balance.

	crossing := absence.Span{
		Start: time.Date(2026, time.December, 28, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2027, time.January, 5, 17, 0, 0, 0, time.UTC),
	}

	err := absence.CheckDuration(crossing, vacationType(),
		workerWithBalance(10), nil, decimal.Zero, testNow)
	assert.NoError(t, err)

	// With only 2 days left this year the current-year side fails.
	err = absence.CheckDuration(crossing, vacationType(),
		workerWithBalance(2), nil, decimal.Zero, testNow)
	require.Error(t, err)
	var balErr *absence.BalanceError
	require.True(t, errors.As(err, &balErr))
	assert.Equal(t, 2026, balErr.Year)
}

func TestCheckDuration_FarFutureYearRejected(t *testing.T) {
	farFuture := absence.Span{
		Start: time.Date(2028, time.March, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2028, time.March, 3, 17, 0, 0, 0, time.UTC),
	}

	err := absence.CheckDuration(farFuture, vacationType(),
		workerWithBalance(25), nil, decimal.Zero, testNow)
	assert.ErrorIs(t, err, absence.ErrUnsupportedYearSpan)
}
