package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDayRoundTripsInEveryZone(t *testing.T) {
	t.Parallel()

	zones := []*time.Location{
		time.FixedZone("UTC-8", -8*60*60),
		time.UTC,
		time.FixedZone("UTC+8", 8*60*60),
		time.FixedZone("UTC+14", 14*60*60),
		time.FixedZone("UTC-12", -12*60*60),
	}
	for _, loc := range zones {
		d, err := ParseDay("2025-03-10", loc)
		require.NoError(t, err)
		assert.Equal(t, "2025-03-10", FormatDay(d), loc.String())
		assert.Equal(t, 10, d.Day())
		assert.Equal(t, 0, d.Hour())
	}
}

func TestParseDay(t *testing.T) {
	t.Parallel()

	d, err := ParseDay("2025-03-10T22:15:00Z", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDay("  ", time.UTC)
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDay("2025-13-01", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDay)
	_, err = ParseDay("2025-3-1", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidDay)
}

func TestStartOfDayKeepsLocalCalendarDay(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+8", 8*60*60)
	late := time.Date(2025, time.March, 10, 23, 59, 59, 0, loc)
	assert.Equal(t, "2025-03-10", FormatDay(StartOfDay(late)))
	// The same instant is already March 10 15:59 UTC, and still the 10th.
	assert.Equal(t, "2025-03-10", FormatDay(StartOfDay(late.UTC())))

	early := time.Date(2025, time.March, 10, 0, 30, 0, 0, loc)
	assert.Equal(t, "2025-03-09", FormatDay(early.UTC()))
	assert.Equal(t, "2025-03-10", FormatDay(StartOfDay(early)))
}

func TestDaysInMonth(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 31, DaysInMonth(2025, time.March))
	assert.Equal(t, 30, DaysInMonth(2025, time.April))
	assert.Equal(t, 28, DaysInMonth(2025, time.February))
	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 28, DaysInMonth(1900, time.February))
	assert.Equal(t, 29, DaysInMonth(2000, time.February))
	assert.Equal(t, 31, DaysInMonth(2025, time.December))
}

func TestRangeHelpers(t *testing.T) {
	t.Parallel()

	a, err := New(time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC), time.Date(2025, time.March, 13, 11, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 3, a.Nights())
	assert.Equal(t, []string{"2025-03-10", "2025-03-11", "2025-03-12"}, a.Days())

	b := DateRange{CheckIn: time.Date(2025, time.March, 13, 0, 0, 0, 0, time.UTC), CheckOut: time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)}
	assert.False(t, a.Overlaps(b))
	wide := DateRange{CheckIn: a.CheckIn, CheckOut: b.CheckOut}
	assert.True(t, wide.Overlaps(b))
	assert.Equal(t, 5, wide.Nights())

	part, ok := wide.Intersect(DateRange{CheckIn: time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC), CheckOut: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)})
	require.True(t, ok)
	assert.Equal(t, []string{"2025-03-14"}, part.Days())

	_, ok = wide.Intersect(DateRange{CheckIn: b.CheckOut, CheckOut: b.CheckOut.AddDate(0, 0, 2)})
	assert.False(t, ok)

	_, err = New(b.CheckOut, b.CheckIn)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestNightsAcrossDaylightSaving(t *testing.T) {
	t.Parallel()

	lisbon, err := time.LoadLocation("Europe/Lisbon")
	require.NoError(t, err)
	r, err := New(time.Date(2025, time.March, 29, 0, 0, 0, 0, lisbon), time.Date(2025, time.April, 1, 0, 0, 0, 0, lisbon))
	require.NoError(t, err)
	assert.Equal(t, 3, r.Nights())
	assert.Equal(t, []string{"2025-03-29", "2025-03-30", "2025-03-31"}, r.Days())
}
