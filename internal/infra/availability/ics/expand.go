package ics

import (
	"time"

	"github.com/teambition/rrule-go"

	"rentcal/internal/domain/shared/daterange"
)

const maxOccurrencesPerEvent = 2000

// BlockedDays expands events inside window and returns every day they
// occupy, sorted and de-duplicated. All-day events block [start, end) by
// date; timed events block each day they touch in zone.
func BlockedDays(events []Event, window daterange.DateRange, zone *time.Location) ([]string, error) {
	if zone == nil {
		zone = time.UTC
	}
	from := daterange.FormatDay(window.CheckIn)
	to := daterange.FormatDay(window.CheckOut)
	seen := make(map[string]struct{})
	var out []string
	add := func(day string) {
		if day < from || day >= to {
			return
		}
		if _, ok := seen[day]; ok {
			return
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}

	for _, ev := range events {
		starts, err := occurrences(ev, window)
		if err != nil {
			return nil, err
		}
		length := ev.End.Sub(ev.Start)
		for _, start := range starts {
			for _, day := range daysOf(start, start.Add(length), ev.AllDay, zone) {
				add(day)
			}
		}
	}
	sortDays(out)
	return out, nil
}

func occurrences(ev Event, window daterange.DateRange) ([]time.Time, error) {
	if ev.RRule == "" {
		return []time.Time{ev.Start}, nil
	}
	opt, err := rrule.StrToROption(ev.RRule)
	if err != nil {
		return nil, err
	}
	// Weekday and month-day defaults derive from DTSTART, so it is set
	// before the rule is built.
	opt.Dtstart = ev.Start
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}
	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}
	// Pad by one day and the event length so occurrences that started
	// before the window but run into it are kept.
	length := ev.End.Sub(ev.Start)
	after := window.CheckIn.Add(-length - 24*time.Hour).In(ev.Start.Location())
	before := window.CheckOut.Add(24 * time.Hour).In(ev.Start.Location())
	starts := set.Between(after, before, true)
	if len(starts) > maxOccurrencesPerEvent {
		starts = starts[:maxOccurrencesPerEvent]
	}
	return starts, nil
}

func daysOf(start, end time.Time, allDay bool, zone *time.Location) []string {
	var days []string
	if allDay {
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			days = append(days, daterange.FormatDay(d))
		}
		return days
	}
	start = start.In(zone)
	end = end.In(zone)
	if !end.After(start) {
		return []string{daterange.FormatDay(start)}
	}
	last := end.Add(-time.Nanosecond)
	for d := daterange.StartOfDay(start); !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, daterange.FormatDay(d))
	}
	return days
}
