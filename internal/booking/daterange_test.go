package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayTruncatesToUTCMidnight(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 23:30 New York on Jan 1 is already Jan 2 in UTC.
	local := time.Date(2026, time.January, 1, 23, 30, 0, 0, loc)
	assert.Equal(t, date(2026, time.January, 2), Day(local))

	noon := time.Date(2026, time.March, 10, 12, 45, 9, 123, time.UTC)
	assert.Equal(t, date(2026, time.March, 10), Day(noon))
}

func TestStayRangeValidate(t *testing.T) {
	valid := NewStayRange(date(2026, time.June, 1), date(2026, time.June, 4))
	assert.NoError(t, valid.Validate())

	zero := NewStayRange(date(2026, time.June, 1), date(2026, time.June, 1))
	var verr *ValidationError
	require.ErrorAs(t, zero.Validate(), &verr)
	assert.Equal(t, "check_out", verr.Field)

	inverted := NewStayRange(date(2026, time.June, 4), date(2026, time.June, 1))
	assert.Error(t, inverted.Validate())
}

func TestStayRangeNightsAndDates(t *testing.T) {
	rng := NewStayRange(date(2026, time.June, 1), date(2026, time.June, 4))
	assert.Equal(t, 3, rng.Nights())
	assert.Equal(t, []time.Time{
		date(2026, time.June, 1),
		date(2026, time.June, 2),
		date(2026, time.June, 3),
	}, rng.Dates())

	// The checkout date is never a consumed night.
	assert.True(t, rng.Contains(date(2026, time.June, 3)))
	assert.False(t, rng.Contains(date(2026, time.June, 4)))
	assert.False(t, rng.Contains(date(2026, time.May, 31)))
}

func TestStayRangeOverlaps(t *testing.T) {
	a := NewStayRange(date(2026, time.June, 1), date(2026, time.June, 4))

	b := NewStayRange(date(2026, time.June, 3), date(2026, time.June, 6))
	assert.True(t, a.Overlaps(b))
	assert.True(t, b.Overlaps(a))

	// Back-to-back: one checks out the day the other checks in.
	c := NewStayRange(date(2026, time.June, 4), date(2026, time.June, 7))
	assert.False(t, a.Overlaps(c))
	assert.False(t, c.Overlaps(a))

	d := NewStayRange(date(2026, time.July, 1), date(2026, time.July, 2))
	assert.False(t, a.Overlaps(d))
}
