package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pacific = time.FixedZone("UTC-8", -8*60*60)
	beijing = time.FixedZone("UTC+8", 8*60*60)
)

func day(t *testing.T, loc *time.Location, y int, m time.Month, d int) time.Time {
	t.Helper()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func realDays(m Month) []Day {
	out := make([]Day, 0, len(m.Days))
	for _, d := range m.Days {
		if !d.IsEmpty {
			out = append(out, d)
		}
	}
	return out
}

func TestBuildMonthLayout(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		year    int
		month   time.Month
		padding int
		days    int
	}{
		{"march 2025 starts saturday", 2025, time.March, 6, 31},
		{"april has 30 days", 2025, time.April, 2, 30},
		{"february 2025", 2025, time.February, 6, 28},
		{"leap february", 2024, time.February, 4, 29},
		{"first falls on sunday", 2025, time.June, 0, 30},
	}
	today := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := BuildMonth(time.Date(tc.year, tc.month, 17, 13, 0, 0, 0, time.UTC), BlockedSet{}, Selection{}, today)
			require.Len(t, m.Days, tc.padding+tc.days)
			for i := 0; i < tc.padding; i++ {
				assert.True(t, m.Days[i].IsEmpty, "cell %d should be padding", i)
				assert.Zero(t, m.Days[i].DayNumber)
				assert.True(t, m.Days[i].Date.IsZero())
			}
			for i, d := range realDays(m) {
				assert.False(t, d.IsEmpty)
				assert.Equal(t, i+1, d.DayNumber)
				assert.Equal(t, i+1, d.Date.Day())
				assert.Equal(t, tc.month, d.Date.Month())
			}
			assert.Equal(t, tc.year, m.Year)
			assert.Equal(t, tc.month, m.Month)
		})
	}
}

func TestBuildViewFollowsWithNextMonth(t *testing.T) {
	t.Parallel()

	today := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	view := BuildView(time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC), BlockedSet{}, Selection{}, today)
	assert.Equal(t, time.January, view[0].Month)
	assert.Equal(t, time.February, view[1].Month)
	assert.Equal(t, "February 2025", view[1].Label)

	view = BuildView(time.Date(2025, time.December, 5, 0, 0, 0, 0, time.UTC), BlockedSet{}, Selection{}, today)
	assert.Equal(t, 2026, view[1].Year)
	assert.Equal(t, time.January, view[1].Month)
}

func TestBuildMonthIsIdempotent(t *testing.T) {
	t.Parallel()

	blocked := NewBlockedSet([]string{"2025-03-12", "2025-04-02"})
	sel := Selection{CheckIn: day(t, time.UTC, 2025, time.March, 10), CheckOut: day(t, time.UTC, 2025, time.March, 15)}
	today := time.Date(2025, time.March, 5, 9, 30, 0, 0, time.UTC)

	first := BuildView(day(t, time.UTC, 2025, time.March, 1), blocked, sel, today)
	second := BuildView(day(t, time.UTC, 2025, time.March, 1), blocked, sel, today)
	assert.Equal(t, first, second)
}

func TestTodayIsNeverPast(t *testing.T) {
	t.Parallel()

	for _, loc := range []*time.Location{pacific, time.UTC, beijing} {
		now := time.Date(2025, time.March, 10, 23, 59, 0, 0, loc)
		m := BuildMonth(now, BlockedSet{}, Selection{}, now)
		for _, d := range realDays(m) {
			switch {
			case d.DayNumber < 10:
				assert.True(t, d.IsPast, "%s day %d", loc, d.DayNumber)
			default:
				assert.False(t, d.IsPast, "%s day %d", loc, d.DayNumber)
			}
		}
	}
}

func TestBlockedMembershipUsesLocalCalendarDay(t *testing.T) {
	t.Parallel()

	blocked := NewBlockedSet([]string{"2025-03-10"})
	for _, loc := range []*time.Location{pacific, time.UTC, beijing} {
		today := time.Date(2025, time.March, 1, 0, 0, 0, 0, loc)
		m := BuildMonth(today, blocked, Selection{}, today)
		for _, d := range realDays(m) {
			assert.Equal(t, d.DayNumber == 10, d.IsBlocked, "%s day %d", loc, d.DayNumber)
		}
	}
}

func TestNewBlockedSetTruncatesTimeComponent(t *testing.T) {
	t.Parallel()

	set := NewBlockedSet([]string{"2025-03-12T00:00:00.000Z", " 2025-03-13 10:00 ", "", "not-a-date", "2025-03-12"})
	assert.Equal(t, []string{"2025-03-12", "2025-03-13"}, set.Dates())
	assert.True(t, set.Contains(time.Date(2025, time.March, 12, 22, 0, 0, 0, beijing)))
	assert.False(t, set.Contains(time.Time{}))
}

func TestRangeFlags(t *testing.T) {
	t.Parallel()

	sel := Selection{CheckIn: day(t, time.UTC, 2025, time.March, 10), CheckOut: day(t, time.UTC, 2025, time.March, 14)}
	today := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	m := BuildMonth(today, BlockedSet{}, sel, today)

	for _, d := range realDays(m) {
		assert.Equal(t, d.DayNumber == 10, d.IsCheckIn, "check-in flag on %d", d.DayNumber)
		assert.Equal(t, d.DayNumber == 14, d.IsCheckOut, "check-out flag on %d", d.DayNumber)
		assert.Equal(t, d.DayNumber > 10 && d.DayNumber < 14, d.IsInRange, "range flag on %d", d.DayNumber)
	}
}

func TestPartialSelectionHasNoRange(t *testing.T) {
	t.Parallel()

	sel := Selection{CheckIn: day(t, time.UTC, 2025, time.March, 10)}
	today := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	for _, d := range realDays(BuildMonth(today, BlockedSet{}, sel, today)) {
		assert.False(t, d.IsInRange)
		assert.False(t, d.IsCheckOut)
	}
}

func TestDayForMatchesGrid(t *testing.T) {
	t.Parallel()

	blocked := NewBlockedSet([]string{"2025-03-12"})
	sel := Selection{CheckIn: day(t, beijing, 2025, time.March, 10), CheckOut: day(t, beijing, 2025, time.March, 14)}
	today := time.Date(2025, time.March, 11, 8, 0, 0, 0, beijing)
	m := BuildMonth(today, blocked, sel, today)
	for _, d := range realDays(m) {
		got := DayFor(d.Date.Add(15*time.Hour), blocked, sel, today)
		assert.Equal(t, d, got)
	}
}
