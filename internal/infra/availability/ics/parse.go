package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

var ErrEmptyFeed = errors.New("ics: empty feed")

// Event is one VEVENT reduced to what blocks nights.
type Event struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
	AllDay  bool
	RRule   string
	ExDates []time.Time
}

// Parse reads every VEVENT of a feed. Cancelled and transparent events do
// not block anything and are skipped, as are events without DTSTART.
// Floating times are read in zone.
func Parse(body []byte, zone *time.Location) ([]Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyFeed
	}
	if zone == nil {
		zone = time.UTC
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	var out []Event
	for _, ve := range cal.Events() {
		if ev, ok := parseEvent(ve, zone); ok {
			out = append(out, ev)
		}
	}
	return out, nil
}

func parseEvent(ve *ical.VEvent, zone *time.Location) (Event, bool) {
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil && strings.EqualFold(p.Value, "CANCELLED") {
		return Event{}, false
	}
	if p := ve.GetProperty(ical.ComponentPropertyTransp); p != nil && strings.EqualFold(p.Value, "TRANSPARENT") {
		return Event{}, false
	}
	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return Event{}, false
	}
	start, allDay, err := parseTime(startProp.Value, startProp.ICalParameters, zone)
	if err != nil {
		return Event{}, false
	}

	ev := Event{Start: start, AllDay: allDay}
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		ev.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
		if end, _, err := parseTime(p.Value, p.ICalParameters, zone); err == nil {
			ev.End = end
		}
	}
	if ev.End.IsZero() || !ev.End.After(ev.Start) {
		// RFC 5545: a DATE start without DTEND lasts one day, a DATE-TIME
		// start without DTEND is instantaneous.
		if allDay {
			ev.End = ev.Start.AddDate(0, 0, 1)
		} else {
			ev.End = ev.Start
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.RRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, _, err := parseTime(part, p.ICalParameters, zone); err == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}
	return ev, true
}

// parseTime handles DATE, UTC DATE-TIME and TZID/floating DATE-TIME values.
// All-day dates are anchored at UTC midnight so that their calendar fields
// never shift.
func parseTime(raw string, params map[string][]string, zone *time.Location) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, errors.New("ics: empty time value")
	}
	if !strings.Contains(raw, "T") || paramIs(params, "VALUE", "DATE") {
		t, err := time.ParseInLocation("20060102", raw[:min(len(raw), 8)], time.UTC)
		return t, true, err
	}
	if strings.HasSuffix(raw, "Z") {
		t, err := time.Parse("20060102T150405Z", raw)
		return t, false, err
	}
	loc := zone
	if tz := param(params, "TZID"); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	t, err := time.ParseInLocation("20060102T150405", raw, loc)
	return t, false, err
}

func param(params map[string][]string, key string) string {
	if vs := params[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func paramIs(params map[string][]string, key, want string) bool {
	return strings.EqualFold(param(params, key), want)
}
