package absence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/absence-engine/absence"
)

// 2026-03-02 is a Monday.
func at(d, hour int) time.Time {
	return time.Date(2026, time.March, d, hour, 0, 0, 0, time.UTC)
}

func span(startDay, startHour, endDay, endHour int) absence.Span {
	return absence.Span{Start: at(startDay, startHour), End: at(endDay, endHour)}
}

// =============================================================================
// FRONTIER SPANS
// =============================================================================

func TestFrontierSpans_MiddayCarveKeepsBoundary(t *testing.T) {
	// GIVEN: owner Mon-Fri, carve Wed 13:00 - Thu 17:00
	// THEN: leading remainder ends exactly at the 13:00 edge,
	//       trailing remainder backs off to Friday 09:00

	owner := span(2, 9, 6, 17)
	carve := span(4, 13, 5, 17)

	leading, trailing := absence.FrontierSpans(owner, carve)

	require.NotNil(t, leading)
	assert.Equal(t, at(2, 9), leading.Start)
	assert.Equal(t, at(4, 13), leading.End)

	require.NotNil(t, trailing)
	assert.Equal(t, at(6, 9), trailing.Start)
	assert.Equal(t, at(6, 17), trailing.End)
}

func TestFrontierSpans_NonMiddayEdgesBackOffToAdjacentDays(t *testing.T) {
	// GIVEN: owner Mon-Fri, carve covering Wednesday fully
	// THEN: leading ends Tuesday 17:00, trailing starts Thursday 09:00

	owner := span(2, 9, 6, 17)
	carve := span(4, 9, 4, 17)

	leading, trailing := absence.FrontierSpans(owner, carve)

	require.NotNil(t, leading)
	assert.Equal(t, at(2, 9), leading.Start)
	assert.Equal(t, at(3, 17), leading.End)

	require.NotNil(t, trailing)
	assert.Equal(t, at(5, 9), trailing.Start)
	assert.Equal(t, at(6, 17), trailing.End)
}

func TestFrontierSpans_NoLeadingWhenCarveCoversStart(t *testing.T) {
	// GIVEN: carve starting at the owner's start
	// THEN: only a trailing remainder survives

	owner := span(2, 9, 4, 17)
	carve := span(2, 9, 3, 17)

	leading, trailing := absence.FrontierSpans(owner, carve)

	assert.Nil(t, leading)
	require.NotNil(t, trailing)
	assert.Equal(t, at(4, 9), trailing.Start)
	assert.Equal(t, at(4, 17), trailing.End)
}

func TestFrontierSpans_CarveCoversOwnerEntirely(t *testing.T) {
	owner := span(3, 9, 4, 17)
	carve := span(2, 9, 6, 17)

	leading, trailing := absence.FrontierSpans(owner, carve)

	assert.Nil(t, leading)
	assert.Nil(t, trailing)
}

func TestFrontierSpans_TrailingTrimScenario(t *testing.T) {
	// GIVEN: existing Mon-Wed, new request Tue-Thu
	// THEN: the old interval is trimmed to Monday alone; the overlap end
	//       lies inside the new request so no trailing remainder exists

	owner := span(2, 9, 4, 17)
	carve := span(3, 9, 5, 17)

	leading, trailing := absence.FrontierSpans(owner, carve)

	require.NotNil(t, leading)
	assert.Equal(t, at(2, 9), leading.Start)
	assert.Equal(t, at(2, 17), leading.End)
	assert.Nil(t, trailing)
}

// =============================================================================
// SPAN PREDICATES
// =============================================================================

func TestSpanOverlaps_BoundaryTouchIsNotOverlap(t *testing.T) {
	morning := span(2, 9, 2, 13)
	afternoon := span(2, 13, 2, 17)

	assert.False(t, morning.Overlaps(afternoon))
	assert.False(t, afternoon.Overlaps(morning))

	crossing := span(2, 9, 2, 17)
	assert.True(t, crossing.Overlaps(afternoon))
}

// =============================================================================
// GLOBAL-DATE CARVING
// =============================================================================

func TestCarveSpans_PartitionsAroundCarve(t *testing.T) {
	// GIVEN: candidate Mon-Fri, a company holiday on Wednesday
	// THEN: two pieces, Mon-Tue and Thu-Fri

	candidate := span(2, 9, 6, 17)
	carves := []absence.Span{span(4, 9, 4, 17)}

	pieces := absence.CarveSpans(candidate, carves)

	require.Len(t, pieces, 2)
	assert.Equal(t, span(2, 9, 3, 17), pieces[0])
	assert.Equal(t, span(5, 9, 6, 17), pieces[1])
}

func TestCarveSpans_MultipleCarves(t *testing.T) {
	// GIVEN: candidate Mon-Fri with holidays on Tuesday and Thursday
	// THEN: three single-day pieces remain

	candidate := span(2, 9, 6, 17)
	carves := []absence.Span{span(3, 9, 3, 17), span(5, 9, 5, 17)}

	pieces := absence.CarveSpans(candidate, carves)

	require.Len(t, pieces, 3)
	assert.Equal(t, span(2, 9, 2, 17), pieces[0])
	assert.Equal(t, span(4, 9, 4, 17), pieces[1])
	assert.Equal(t, span(6, 9, 6, 17), pieces[2])
}

func TestCarveSpans_NoOverlapReturnsCandidate(t *testing.T) {
	candidate := span(2, 9, 3, 17)
	carves := []absence.Span{span(5, 9, 5, 17)}

	pieces := absence.CarveSpans(candidate, carves)

	require.Len(t, pieces, 1)
	assert.Equal(t, candidate, pieces[0])
}

func TestCarveSpans_FixedPoint(t *testing.T) {
	// Re-carving an already-carved piece must return it unchanged.

	candidate := span(2, 9, 6, 17)
	carves := []absence.Span{span(4, 9, 4, 17)}

	for _, piece := range absence.CarveSpans(candidate, carves) {
		again := absence.CarveSpans(piece, carves)
		require.Len(t, again, 1)
		assert.Equal(t, piece, again[0])
	}
}

// =============================================================================
// YEAR BOUNDARY SPLIT
// =============================================================================

func TestSplitAtYearBoundary(t *testing.T) {
	// GIVEN: a span crossing from December 2026 into January 2027
	// THEN: current side ends Dec 31 17:00, next side starts Jan 1 09:00

	candidate := absence.Span{
		Start: time.Date(2026, time.December, 28, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2027, time.January, 5, 17, 0, 0, 0, time.UTC),
	}

	current, next := absence.SplitAtYearBoundary(candidate, 2026)

	require.NotNil(t, current)
	assert.Equal(t, candidate.Start, current.Start)
	assert.Equal(t, time.Date(2026, time.December, 31, 17, 0, 0, 0, time.UTC), current.End)

	require.NotNil(t, next)
	assert.Equal(t, time.Date(2027, time.January, 1, 9, 0, 0, 0, time.UTC), next.Start)
	assert.Equal(t, candidate.End, next.End)
}
