package calendar_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/absence-engine/calendar"
)

// 2026-03-02 is a Monday.
func day(d int, hour int) time.Time {
	return time.Date(2026, time.March, d, hour, 0, 0, 0, time.UTC)
}

// =============================================================================
// WEEKDAY COUNTING
// =============================================================================

func TestCountWeekdays_FullWeek(t *testing.T) {
	// GIVEN: Monday through Sunday
	// THEN: 5 workdays, 2 weekend days

	start, end := day(2, 9), day(8, 17)

	assert.Equal(t, 5, calendar.CountWeekdays(start, end, calendar.Workdays))
	assert.Equal(t, 2, calendar.CountWeekdays(start, end, calendar.Weekend))
}

func TestCountWeekdays_SingleDay(t *testing.T) {
	start, end := day(2, 9), day(2, 17)

	assert.Equal(t, 1, calendar.CountWeekdays(start, end, calendar.Workdays))
	assert.Equal(t, 0, calendar.CountWeekdays(start, end, calendar.Weekend))
}

func TestCountWeekdays_SpanningWeekend(t *testing.T) {
	// GIVEN: Friday through next Monday
	// THEN: bounding weekdays count, the weekend in between does not

	start, end := day(6, 9), day(9, 17)

	assert.Equal(t, 2, calendar.CountWeekdays(start, end, calendar.Workdays))
	assert.Equal(t, 2, calendar.CountWeekdays(start, end, calendar.Weekend))
}

// =============================================================================
// DAY COUNTER
// =============================================================================

func TestDayCounter_ConsumingType(t *testing.T) {
	// GIVEN: Monday 09:00 through Wednesday 17:00, a consuming type
	// THEN: -3 (sign carried so it adds directly to a balance)

	got := calendar.DayCounter(day(2, 9), day(4, 17), -1)
	assert.True(t, decimal.NewFromInt(-3).Equal(got), "got %v", got)
}

func TestDayCounter_HalfDayBoundaries(t *testing.T) {
	// A 13:00 boundary deducts half a day on each side it appears.

	afternoonStart := calendar.DayCounter(day(2, 13), day(4, 17), -1)
	assert.True(t, decimal.NewFromFloat(-2.5).Equal(afternoonStart), "got %v", afternoonStart)

	morningEnd := calendar.DayCounter(day(2, 9), day(4, 13), -1)
	assert.True(t, decimal.NewFromFloat(-2.5).Equal(morningEnd), "got %v", morningEnd)

	singleMorning := calendar.DayCounter(day(2, 9), day(2, 13), -1)
	assert.True(t, decimal.NewFromFloat(-0.5).Equal(singleMorning), "got %v", singleMorning)

	singleAfternoon := calendar.DayCounter(day(2, 13), day(2, 17), -1)
	assert.True(t, decimal.NewFromFloat(-0.5).Equal(singleAfternoon), "got %v", singleAfternoon)
}

func TestDayCounter_CreditingTypeCountsWeekend(t *testing.T) {
	// GIVEN: Saturday 09:00 through Sunday 17:00, a crediting type
	// THEN: +2

	got := calendar.DayCounter(day(7, 9), day(8, 17), 1)
	assert.True(t, decimal.NewFromInt(2).Equal(got), "got %v", got)
}

func TestDayCounter_NeutralTypeCountsWorkdays(t *testing.T) {
	got := calendar.DayCounter(day(2, 9), day(6, 17), 0)
	assert.True(t, decimal.NewFromInt(5).Equal(got), "got %v", got)
}

func TestDayCounter_WeekendInsideConsumingSpanIsFree(t *testing.T) {
	// GIVEN: Friday through next Monday for a consuming type
	// THEN: only the two workdays count

	got := calendar.DayCounter(day(6, 9), day(9, 17), -1)
	assert.True(t, decimal.NewFromInt(-2).Equal(got), "got %v", got)
}

// =============================================================================
// BOUNDARY NORMALIZATION
// =============================================================================

func TestNormalize(t *testing.T) {
	raw := time.Date(2026, time.March, 2, 23, 45, 12, 99, time.UTC)

	cases := []struct {
		name      string
		morning   bool
		afternoon bool
		isStart   bool
		wantHour  int
	}{
		{"start full day", true, true, true, 9},
		{"start morning only", true, false, true, 9},
		{"start afternoon only", false, true, true, 13},
		{"end full day", true, true, false, 17},
		{"end morning only", true, false, false, 13},
		{"end afternoon only", false, true, false, 17},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := calendar.Normalize(raw, tc.morning, tc.afternoon, tc.isStart)
			assert.Equal(t, tc.wantHour, got.Hour())
			assert.Equal(t, 0, got.Minute())
			assert.Equal(t, 0, got.Second())
			assert.Equal(t, raw.Day(), got.Day())
		})
	}
}

// =============================================================================
// DATE HELPERS
// =============================================================================

func TestDateOfAndSameDate(t *testing.T) {
	a := day(2, 9)
	b := day(2, 17)
	c := day(3, 9)

	assert.Equal(t, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), calendar.DateOf(a))
	assert.True(t, calendar.SameDate(a, b))
	assert.False(t, calendar.SameDate(a, c))
}

func TestDaysRemainingInYear(t *testing.T) {
	jan1 := time.Date(2026, time.January, 1, 10, 0, 0, 0, time.UTC)
	dec31 := time.Date(2026, time.December, 31, 10, 0, 0, 0, time.UTC)
	mar2 := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 365, calendar.DaysRemainingInYear(jan1))
	assert.Equal(t, 1, calendar.DaysRemainingInYear(dec31))
	assert.Equal(t, 305, calendar.DaysRemainingInYear(mar2))
}

func TestDaysRemainingInYearAcrossDSTTransition(t *testing.T) {
	// Southern-hemisphere zone: the only transition left before Dec 31
	// is a spring-forward, which loses an hour of wall time. The count
	// goes by calendar date, so April 15 still has 261 days remaining.
	santiago, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)

	apr15 := time.Date(2026, time.April, 15, 10, 0, 0, 0, santiago)
	assert.Equal(t, 261, calendar.DaysRemainingInYear(apr15))
}

func TestYearBounds(t *testing.T) {
	start := calendar.StartOfYear(2027, time.UTC)
	end := calendar.EndOfYear(2026, time.UTC)

	assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC), end)
}
