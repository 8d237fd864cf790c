package daterange

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("daterange: checkout must be after checkin")

// DateRange is the half-open stay [CheckIn, CheckOut): CheckOut is the
// departure day and is not a night.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New builds a range of whole days. Both ends are truncated to the start of
// their calendar day in their own location.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: StartOfDay(checkIn), CheckOut: StartOfDay(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckIn.IsZero() || dr.CheckOut.IsZero() || !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Nights counts calendar days, so a DST switch inside the stay does not
// turn 23 or 25 hours into a partial night.
func (dr DateRange) Nights() int {
	if dr.Validate() != nil {
		return 0
	}
	return dayNumber(dr.CheckOut) - dayNumber(dr.CheckIn)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

// Intersect clips dr to other. ok is false when they share no night.
func (dr DateRange) Intersect(other DateRange) (part DateRange, ok bool) {
	if !dr.Overlaps(other) {
		return DateRange{}, false
	}
	part = dr
	if other.CheckIn.After(part.CheckIn) {
		part.CheckIn = other.CheckIn
	}
	if other.CheckOut.Before(part.CheckOut) {
		part.CheckOut = other.CheckOut
	}
	return part, true
}

// Days lists every night of the range as YYYY-MM-DD in the location of
// CheckIn.
func (dr DateRange) Days() []string {
	n := dr.Nights()
	if n == 0 {
		return nil
	}
	start := StartOfDay(dr.CheckIn)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, FormatDay(start.AddDate(0, 0, i)))
	}
	return out
}

// dayNumber maps the calendar fields of t onto a day count, ignoring the
// wall-clock time and the zone offset.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
