package calendar

import (
	"encoding/json"
	"fmt"
	"time"

	"rentcal/internal/domain/shared/daterange"
)

// Day is one cell of the month grid. Padding cells carry IsEmpty and a zero
// Date; every other flag is derived from the date, the blocked set and the
// current selection.
type Day struct {
	Date       time.Time
	DayNumber  int
	IsPast     bool
	IsBlocked  bool
	IsCheckIn  bool
	IsCheckOut bool
	IsInRange  bool
	IsEmpty    bool
}

// Selectable reports whether a click on the cell may change the selection.
func (d Day) Selectable() bool {
	return !d.IsEmpty && !d.IsPast && !d.IsBlocked
}

type dayJSON struct {
	Date       string `json:"date"`
	DayNumber  int    `json:"day_number"`
	IsPast     bool   `json:"is_past"`
	IsBlocked  bool   `json:"is_blocked"`
	IsCheckIn  bool   `json:"is_check_in"`
	IsCheckOut bool   `json:"is_check_out"`
	IsInRange  bool   `json:"is_in_range"`
	IsEmpty    bool   `json:"is_empty"`
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(dayJSON{
		Date:       daterange.FormatDay(d.Date),
		DayNumber:  d.DayNumber,
		IsPast:     d.IsPast,
		IsBlocked:  d.IsBlocked,
		IsCheckIn:  d.IsCheckIn,
		IsCheckOut: d.IsCheckOut,
		IsInRange:  d.IsInRange,
		IsEmpty:    d.IsEmpty,
	})
}

// Month is one rendered month of the two-month view.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Label string     `json:"label"`
	Days  []Day      `json:"days"`
}

func monthLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", t.Month(), t.Year())
}
