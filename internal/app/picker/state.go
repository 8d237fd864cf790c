package picker

import (
	"time"

	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/shared/daterange"
)

// State is the complete view state of one date picker. It is a value: every
// change goes through Reduce and produces a new State.
type State struct {
	ListingID string
	Location  string
	Zone      *time.Location
	Month     time.Time
	Blocked   calendar.BlockedSet
	Selection calendar.Selection
}

// NewState starts an empty picker on the current month of zone.
func NewState(listingID, location string, zone *time.Location, now time.Time) State {
	if zone == nil {
		zone = time.Local
	}
	return State{
		ListingID: listingID,
		Location:  location,
		Zone:      zone,
		Month:     daterange.FirstOfMonth(now.In(zone)),
	}
}

// Action is one input to Reduce.
type Action interface {
	isAction()
}

// ClickDay is a guest click on a day. Only the calendar fields of Date are used.
type ClickDay struct{ Date time.Time }

// ClearDates drops both dates.
type ClearDates struct{}

// ShiftMonth moves the reference month by Delta months.
type ShiftMonth struct{ Delta int }

// ShowMonth moves the reference month to the month containing Month.
type ShowMonth struct{ Month time.Time }

// ReplaceBlocked swaps the blocked set for a freshly fetched one.
type ReplaceBlocked struct{ Dates []string }

// SeedDates re-seeds the selection from caller-provided day strings.
type SeedDates struct{ CheckIn, CheckOut string }

func (ClickDay) isAction()       {}
func (ClearDates) isAction()     {}
func (ShiftMonth) isAction()     {}
func (ShowMonth) isAction()      {}
func (ReplaceBlocked) isAction() {}
func (SeedDates) isAction()      {}

// Reduce returns the next state and, for accepted clicks and clears, the
// dates to emit. It performs no I/O.
//
// A blocked-set refresh never touches the selection: a date that became
// blocked after it was chosen stays chosen until the next click.
func Reduce(s State, a Action, now time.Time) (State, *calendar.DatesSelected) {
	if s.Zone == nil {
		s.Zone = time.Local
	}
	switch act := a.(type) {
	case ClickDay:
		if act.Date.IsZero() {
			return s, nil
		}
		y, m, d := act.Date.Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, s.Zone)
		if !s.visible(date, now) {
			return s, nil
		}
		next, ok := calendar.Select(s.Selection, calendar.DayFor(date, s.Blocked, s.Selection, now.In(s.Zone)))
		if !ok {
			return s, nil
		}
		s.Selection = next
		dates := next.Dates()
		return s, &dates
	case ClearDates:
		s.Selection = calendar.Clear()
		dates := s.Selection.Dates()
		return s, &dates
	case ShiftMonth:
		s.Month = clampMonth(daterange.FirstOfMonth(s.Month.In(s.Zone)).AddDate(0, act.Delta, 0), now.In(s.Zone))
		return s, nil
	case ShowMonth:
		if act.Month.IsZero() {
			return s, nil
		}
		y, m, _ := act.Month.Date()
		s.Month = clampMonth(time.Date(y, m, 1, 0, 0, 0, 0, s.Zone), now.In(s.Zone))
		return s, nil
	case ReplaceBlocked:
		s.Blocked = calendar.NewBlockedSet(act.Dates)
		return s, nil
	case SeedDates:
		s.Selection = calendar.Seed(act.CheckIn, act.CheckOut, s.Zone)
		return s, nil
	default:
		return s, nil
	}
}

// clampMonth keeps the view from starting before the current month; every
// day there would be past.
func clampMonth(month, now time.Time) time.Time {
	current := daterange.FirstOfMonth(now)
	if month.Before(current) {
		return current
	}
	return month
}

// View is the rendered two-month grid plus the selection it reflects.
type View struct {
	Months    [2]calendar.Month
	Selection calendar.Selection
	Phase     calendar.Phase
	Dates     calendar.DatesSelected
	Nights    int
}

// View rebuilds the grid. Nothing is cached between calls.
func (s State) View(now time.Time) View {
	zone := s.Zone
	if zone == nil {
		zone = time.Local
	}
	month := s.Month
	if month.IsZero() {
		month = daterange.FirstOfMonth(now.In(zone))
	}
	return View{
		Months:    calendar.BuildView(month.In(zone), s.Blocked, s.Selection, now.In(zone)),
		Selection: s.Selection,
		Phase:     s.Selection.Phase(),
		Dates:     s.Selection.Dates(),
		Nights:    s.Selection.Nights(),
	}
}

// visible reports whether date falls inside the two rendered months. Only
// those days carry a fetched blocked state, so clicks elsewhere are ignored
// like padding cells.
func (s State) visible(date, now time.Time) bool {
	first := daterange.FirstOfMonth(now.In(s.Zone))
	if !s.Month.IsZero() {
		first = daterange.FirstOfMonth(s.Month.In(s.Zone))
	}
	return !date.Before(first) && date.Before(first.AddDate(0, 2, 0))
}

// VisibleUntil is the first day after the second rendered month.
func (s State) VisibleUntil() time.Time {
	return daterange.FirstOfMonth(s.Month).AddDate(0, 2, 0)
}
