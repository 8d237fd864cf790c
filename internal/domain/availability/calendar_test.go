package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/domain/shared/daterange"
)

func utcRange(t *testing.T, from, to string) daterange.DateRange {
	t.Helper()
	in, err := daterange.ParseDay(from, time.UTC)
	require.NoError(t, err)
	out, err := daterange.ParseDay(to, time.UTC)
	require.NoError(t, err)
	r, err := daterange.New(in, out)
	require.NoError(t, err)
	return r
}

func TestReserveAddsCleaningBuffers(t *testing.T) {
	cal := NewCalendar("listing-1", 1)
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, cal.Reserve(utcRange(t, "2025-03-10", "2025-03-13"), "bk-1", now))
	require.Len(t, cal.Blocks, 3)

	days := cal.BlockedDays(utcRange(t, "2025-03-01", "2025-04-01"))
	assert.Equal(t, []string{"2025-03-09", "2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13"}, days)

	pending := cal.PendingEvents()
	require.Len(t, pending, 1)
	blocked, ok := pending[0].(CalendarBlocked)
	require.True(t, ok)
	assert.Equal(t, "2025-03-10", blocked.From)
	assert.Equal(t, "2025-03-13", blocked.To)
	assert.Equal(t, "bk-1", blocked.Reference)
}

func TestReserveRejectsOverlap(t *testing.T) {
	cal := NewCalendar("listing-1", 0)
	now := time.Now()
	require.NoError(t, cal.Reserve(utcRange(t, "2025-03-10", "2025-03-13"), "bk-1", now))
	cal.ClearEvents()

	err := cal.Reserve(utcRange(t, "2025-03-12", "2025-03-15"), "bk-2", now)
	assert.ErrorIs(t, err, ErrOverlappingRange)
	require.Len(t, cal.PendingEvents(), 1)
	assert.Equal(t, "calendar.overbooking_prevented", cal.PendingEvents()[0].EventName())

	// Check-out day of one stay is free for the next check-in.
	assert.NoError(t, cal.Reserve(utcRange(t, "2025-03-13", "2025-03-15"), "bk-3", now))
}

func TestReleaseDropsBuffers(t *testing.T) {
	cal := NewCalendar("listing-1", 2)
	now := time.Now()
	require.NoError(t, cal.Reserve(utcRange(t, "2025-03-10", "2025-03-12"), "bk-1", now))
	require.NoError(t, cal.BlockRange(utcRange(t, "2025-03-20", "2025-03-21"), "", "maintenance", now))

	require.NoError(t, cal.Release("bk-1", now))
	require.Len(t, cal.Blocks, 1)
	assert.Equal(t, ReasonHostBlock, cal.Blocks[0].Reason)

	assert.ErrorIs(t, cal.Release("bk-1", now), ErrRangeNotFound)
}

func TestBlockedDaysClipsToWindowAndNormalisesZone(t *testing.T) {
	cal := NewCalendar("listing-1", 0)
	tokyo := time.FixedZone("UTC+9", 9*60*60)
	r := daterange.DateRange{
		CheckIn:  time.Date(2025, time.March, 30, 0, 0, 0, 0, tokyo),
		CheckOut: time.Date(2025, time.April, 3, 0, 0, 0, 0, tokyo),
	}
	require.NoError(t, cal.BlockRange(r, ReasonHostBlock, "trip", time.Now()))

	days := cal.BlockedDays(utcRange(t, "2025-04-01", "2025-05-01"))
	assert.Equal(t, []string{"2025-04-01", "2025-04-02"}, days)
}

func TestParseReason(t *testing.T) {
	assert.Equal(t, ReasonBooking, ParseReason("BOOKING"))
	assert.Equal(t, ReasonCleaning, ParseReason("CLEANING_BUFFER"))
	assert.Equal(t, ReasonHostBlock, ParseReason("whatever"))
}
