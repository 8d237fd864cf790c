package calendar

import (
	"time"

	"rentcal/internal/domain/shared/daterange"
)

// Phase is the externally visible state of a selection.
type Phase string

const (
	PhaseEmpty        Phase = "EMPTY"
	PhasePartialStart Phase = "PARTIAL_START"
	PhaseFullRange    Phase = "FULL_RANGE"
)

// Selection is the check-in/check-out pair chosen by the guest. Zero times
// mean unset. When both are set CheckIn is strictly before CheckOut.
type Selection struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// DatesSelected is emitted after every accepted transition, including
// partial selections and clears.
type DatesSelected struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

func (s Selection) Phase() Phase {
	switch {
	case s.CheckIn.IsZero():
		return PhaseEmpty
	case s.CheckOut.IsZero():
		return PhasePartialStart
	default:
		return PhaseFullRange
	}
}

func (s Selection) Dates() DatesSelected {
	return DatesSelected{
		CheckIn:  daterange.FormatDay(s.CheckIn),
		CheckOut: daterange.FormatDay(s.CheckOut),
	}
}

// Range returns the stay as a half-open range when both ends are chosen.
func (s Selection) Range() (daterange.DateRange, bool) {
	if s.Phase() != PhaseFullRange {
		return daterange.DateRange{}, false
	}
	return daterange.DateRange{CheckIn: s.CheckIn, CheckOut: s.CheckOut}, true
}

func (s Selection) Nights() int {
	r, ok := s.Range()
	if !ok {
		return 0
	}
	return r.Nights()
}

// Select applies a click on day. Padding, past and blocked cells are ignored
// and report false. A click with nothing chosen, or with a complete range,
// starts over from the clicked day. With only a check-in chosen, a later day
// completes the range and any other day replaces the check-in.
func Select(s Selection, day Day) (Selection, bool) {
	if !day.Selectable() {
		return s, false
	}
	clicked := daterange.StartOfDay(day.Date)
	switch s.Phase() {
	case PhasePartialStart:
		if clicked.After(s.CheckIn) {
			return Selection{CheckIn: s.CheckIn, CheckOut: clicked}, true
		}
		return Selection{CheckIn: clicked}, true
	default:
		return Selection{CheckIn: clicked}, true
	}
}

// Clear resets to the empty selection.
func Clear() Selection {
	return Selection{}
}

// Seed builds a selection from caller-provided day strings. Unparseable
// strings count as unset and a check-out not after the check-in is dropped.
func Seed(checkIn, checkOut string, loc *time.Location) Selection {
	in, err := daterange.ParseDay(checkIn, loc)
	if err != nil || in.IsZero() {
		return Selection{}
	}
	out, err := daterange.ParseDay(checkOut, loc)
	if err != nil || !out.After(in) {
		return Selection{CheckIn: in}
	}
	return Selection{CheckIn: in, CheckOut: out}
}
