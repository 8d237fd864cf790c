package calendar

import (
	"time"

	"rentcal/internal/domain/shared/daterange"
)

// BuildMonth lays out ref's month: one empty cell per weekday before the 1st
// (Sunday first), then days 1..N. There is no trailing padding.
// today is read in ref's location; a day equal to today is not past.
func BuildMonth(ref time.Time, blocked BlockedSet, sel Selection, today time.Time) Month {
	first := daterange.FirstOfMonth(ref)
	loc := first.Location()
	todayStart := daterange.StartOfDay(today.In(loc))

	lead := int(first.Weekday())
	n := daterange.DaysInMonth(first.Year(), first.Month())

	days := make([]Day, 0, lead+n)
	for i := 0; i < lead; i++ {
		days = append(days, Day{IsEmpty: true})
	}
	for d := 1; d <= n; d++ {
		date := time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, loc)
		days = append(days, dayFor(date, d, blocked, sel, todayStart))
	}
	return Month{
		Year:  first.Year(),
		Month: first.Month(),
		Label: monthLabel(first),
		Days:  days,
	}
}

// BuildView returns ref's month followed by the next calendar month.
func BuildView(ref time.Time, blocked BlockedSet, sel Selection, today time.Time) [2]Month {
	first := daterange.FirstOfMonth(ref)
	return [2]Month{
		BuildMonth(first, blocked, sel, today),
		BuildMonth(first.AddDate(0, 1, 0), blocked, sel, today),
	}
}

// DayFor derives the flags of a single real day exactly as BuildMonth does.
func DayFor(date time.Time, blocked BlockedSet, sel Selection, today time.Time) Day {
	date = daterange.StartOfDay(date)
	todayStart := daterange.StartOfDay(today.In(date.Location()))
	return dayFor(date, date.Day(), blocked, sel, todayStart)
}

func dayFor(date time.Time, number int, blocked BlockedSet, sel Selection, todayStart time.Time) Day {
	day := Day{
		Date:      date,
		DayNumber: number,
		IsPast:    date.Before(todayStart),
		IsBlocked: blocked.Contains(date),
	}
	if !sel.CheckIn.IsZero() {
		day.IsCheckIn = daterange.SameDay(date, sel.CheckIn)
	}
	if !sel.CheckOut.IsZero() {
		day.IsCheckOut = daterange.SameDay(date, sel.CheckOut)
		day.IsInRange = date.After(sel.CheckIn) && date.Before(sel.CheckOut)
	}
	return day
}
