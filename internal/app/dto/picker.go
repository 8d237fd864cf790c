package dto

import (
	"time"

	"rentcal/internal/app/picker"
	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/shared/daterange"
)

type PickerMonth struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Label string         `json:"label"`
	Days  []calendar.Day `json:"days"`
}

type PickerView struct {
	SessionID string        `json:"session_id"`
	ListingID string        `json:"listing_id"`
	Location  string        `json:"location,omitempty"`
	Timezone  string        `json:"timezone"`
	Phase     string        `json:"phase"`
	CheckIn   string        `json:"check_in"`
	CheckOut  string        `json:"check_out"`
	Nights    int           `json:"nights"`
	Months    []PickerMonth `json:"months"`
	Blocked   int           `json:"blocked_count"`
	Version   int64         `json:"version"`
}

// ClickResult tells the caller whether the click changed the selection and,
// if so, what was emitted.
type ClickResult struct {
	Accepted bool                    `json:"accepted"`
	Emitted  *calendar.DatesSelected `json:"emitted,omitempty"`
	View     PickerView              `json:"view"`
}

func MapPickerView(session *picker.Session, now time.Time) PickerView {
	if session == nil {
		return PickerView{}
	}
	state := session.State()
	view := state.View(now)
	months := make([]PickerMonth, 0, len(view.Months))
	for _, m := range view.Months {
		months = append(months, PickerMonth{Year: m.Year, Month: int(m.Month), Label: m.Label, Days: m.Days})
	}
	return PickerView{
		SessionID: session.ID,
		ListingID: session.ListingID,
		Location:  session.Location,
		Timezone:  state.Zone.String(),
		Phase:     string(view.Phase),
		CheckIn:   daterange.FormatDay(view.Selection.CheckIn),
		CheckOut:  daterange.FormatDay(view.Selection.CheckOut),
		Nights:    view.Nights,
		Months:    months,
		Blocked:   state.Blocked.Len(),
		Version:   session.Version,
	}
}
