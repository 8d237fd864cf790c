package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/shared/daterange"
)

const weekdayHeader = " Su  Mo  Tu  We  Th  Fr  Sa "

// RenderMonths draws both months side by side. cursor may be zero.
//
// Markers: [d check-in, d] check-out, =d= inside the range, d x blocked,
// d . past.
func RenderMonths(months [2]calendar.Month, cursor time.Time, st Styles) string {
	left := renderMonth(months[0], cursor, st)
	right := renderMonth(months[1], cursor, st)
	return lipgloss.JoinHorizontal(lipgloss.Top, st.Month.Render(left), right)
}

func renderMonth(m calendar.Month, cursor time.Time, st Styles) string {
	var b strings.Builder
	title := m.Label
	pad := (len(weekdayHeader) - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	b.WriteString(strings.Repeat(" ", pad) + st.Title.Render(title) + "\n")
	b.WriteString(st.Weekdays.Render(weekdayHeader) + "\n")
	for i, d := range m.Days {
		b.WriteString(renderCell(d, cursor, st))
		if i%7 == 6 && i != len(m.Days)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderCell(d calendar.Day, cursor time.Time, st Styles) string {
	if d.IsEmpty {
		return "    "
	}
	left, right := " ", " "
	style := st.Normal
	switch {
	case d.IsCheckIn && d.IsCheckOut:
		left, right = "[", "]"
		style = st.Endpoint
	case d.IsCheckIn:
		left = "["
		style = st.Endpoint
	case d.IsCheckOut:
		right = "]"
		style = st.Endpoint
	case d.IsInRange:
		left, right = "=", "="
		style = st.InRange
	case d.IsBlocked:
		right = "x"
		style = st.Blocked
	case d.IsPast:
		right = "."
		style = st.Past
	}
	cell := fmt.Sprintf("%s%2d%s", left, d.DayNumber, right)
	if !cursor.IsZero() && daterange.SameDay(d.Date, cursor) {
		return st.Cursor.Render(cell)
	}
	return style.Render(cell)
}

// Summary describes the selection in one line.
func Summary(v calendar.DatesSelected, nights int) string {
	switch {
	case v.CheckIn == "":
		return "Select a check-in date"
	case v.CheckOut == "":
		return fmt.Sprintf("Check-in %s, select a check-out date", v.CheckIn)
	default:
		unit := "nights"
		if nights == 1 {
			unit = "night"
		}
		return fmt.Sprintf("%s → %s (%d %s)", v.CheckIn, v.CheckOut, nights, unit)
	}
}
