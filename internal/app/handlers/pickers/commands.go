package pickers

import (
	"context"
	"time"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	"rentcal/internal/app/picker"
	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/shared/daterange"
)

const (
	openPickerKey     = "picker.open"
	clickDayKey       = "picker.click_day"
	clearDatesKey     = "picker.clear_dates"
	shiftMonthKey     = "picker.shift_month"
	refreshBlockedKey = "picker.refresh_blocked"
	closePickerKey    = "picker.close"
	refreshListingKey = "picker.refresh_listing"
)

type OpenPickerCommand struct {
	ListingID string `json:"listing_id" validate:"required"`
	Location  string `json:"location"`
	Timezone  string `json:"timezone" validate:"omitempty,timezone"`
	CheckIn   string `json:"check_in" validate:"omitempty,day"`
	CheckOut  string `json:"check_out" validate:"omitempty,day"`
	Month     string `json:"month" validate:"omitempty,month"`
}

func (c OpenPickerCommand) Key() string { return openPickerKey }

type OpenPickerHandler struct {
	Deps *Deps
}

// Handle creates a session. Seeded dates are shown but not emitted. The view
// opens on the requested month, else on the seeded check-in, else today.
func (h *OpenPickerHandler) Handle(ctx context.Context, cmd OpenPickerCommand) (dto.PickerView, error) {
	d := h.Deps
	now := d.now()
	zone := d.zone(cmd.Timezone)

	state := picker.NewState(cmd.ListingID, cmd.Location, zone, now)
	state, _ = picker.Reduce(state, picker.SeedDates{CheckIn: cmd.CheckIn, CheckOut: cmd.CheckOut}, now)
	if month, ok := parseMonth(cmd.Month, zone); ok {
		state, _ = picker.Reduce(state, picker.ShowMonth{Month: month}, now)
	} else if !state.Selection.CheckIn.IsZero() {
		state, _ = picker.Reduce(state, picker.ShowMonth{Month: state.Selection.CheckIn}, now)
	}

	session := &picker.Session{ID: d.newID(), CreatedAt: now.UTC(), UpdatedAt: now.UTC()}
	state = d.fetch(ctx, session, state, now)
	session.Apply(state)
	if err := d.Sessions.Save(ctx, session); err != nil {
		return dto.PickerView{}, err
	}
	if d.Logger != nil {
		d.Logger.InfoContext(ctx, "picker opened", "session_id", session.ID, "listing_id", session.ListingID, "timezone", session.Timezone)
	}
	return dto.MapPickerView(session, now), nil
}

type ClickDayCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	Date      string `json:"date" validate:"required,day"`
}

func (c ClickDayCommand) Key() string { return clickDayKey }

type ClickDayHandler struct {
	Deps *Deps
}

func (h *ClickDayHandler) Handle(ctx context.Context, cmd ClickDayCommand) (dto.ClickResult, error) {
	session, emitted, err := h.Deps.mutate(ctx, cmd.SessionID, func(session *picker.Session, state picker.State, now time.Time) (picker.State, *calendar.DatesSelected, error) {
		date, err := daterange.ParseDay(cmd.Date, state.Zone)
		if err != nil {
			return state, nil, err
		}
		if needsFetch(session, state) {
			state = h.Deps.fetch(ctx, session, state, now)
		}
		next, emitted := picker.Reduce(state, picker.ClickDay{Date: date}, now)
		return next, emitted, nil
	})
	if err != nil {
		return dto.ClickResult{}, err
	}
	return dto.ClickResult{
		Accepted: emitted != nil,
		Emitted:  emitted,
		View:     dto.MapPickerView(session, h.Deps.now()),
	}, nil
}

type ClearDatesCommand struct {
	SessionID string `json:"session_id" validate:"required"`
}

func (c ClearDatesCommand) Key() string { return clearDatesKey }

type ClearDatesHandler struct {
	Deps *Deps
}

func (h *ClearDatesHandler) Handle(ctx context.Context, cmd ClearDatesCommand) (dto.ClickResult, error) {
	session, emitted, err := h.Deps.mutate(ctx, cmd.SessionID, func(_ *picker.Session, state picker.State, now time.Time) (picker.State, *calendar.DatesSelected, error) {
		next, emitted := picker.Reduce(state, picker.ClearDates{}, now)
		return next, emitted, nil
	})
	if err != nil {
		return dto.ClickResult{}, err
	}
	return dto.ClickResult{Accepted: true, Emitted: emitted, View: dto.MapPickerView(session, h.Deps.now())}, nil
}

// ShiftMonthCommand moves by Delta months, or jumps to Month when set.
type ShiftMonthCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	Delta     int    `json:"delta" validate:"min=-24,max=24"`
	Month     string `json:"month" validate:"omitempty,month"`
}

func (c ShiftMonthCommand) Key() string { return shiftMonthKey }

type ShiftMonthHandler struct {
	Deps *Deps
}

func (h *ShiftMonthHandler) Handle(ctx context.Context, cmd ShiftMonthCommand) (dto.PickerView, error) {
	session, _, err := h.Deps.mutate(ctx, cmd.SessionID, func(session *picker.Session, state picker.State, now time.Time) (picker.State, *calendar.DatesSelected, error) {
		var action picker.Action = picker.ShiftMonth{Delta: cmd.Delta}
		if month, ok := parseMonth(cmd.Month, state.Zone); ok {
			action = picker.ShowMonth{Month: month}
		}
		next, _ := picker.Reduce(state, action, now)
		if needsFetch(session, next) {
			next = h.Deps.fetch(ctx, session, next, now)
		}
		return next, nil, nil
	})
	if err != nil {
		return dto.PickerView{}, err
	}
	return dto.MapPickerView(session, h.Deps.now()), nil
}

type RefreshBlockedCommand struct {
	SessionID string `json:"session_id" validate:"required"`
}

func (c RefreshBlockedCommand) Key() string { return refreshBlockedKey }

type RefreshBlockedHandler struct {
	Deps *Deps
}

// Handle re-reads the blocked set. The selection is left untouched even if
// one of its days became blocked.
func (h *RefreshBlockedHandler) Handle(ctx context.Context, cmd RefreshBlockedCommand) (dto.PickerView, error) {
	session, err := h.Deps.refresh(ctx, cmd.SessionID)
	if err != nil {
		return dto.PickerView{}, err
	}
	return dto.MapPickerView(session, h.Deps.now()), nil
}

func (d *Deps) refresh(ctx context.Context, id string) (*picker.Session, error) {
	session, _, err := d.mutate(ctx, id, func(session *picker.Session, state picker.State, now time.Time) (picker.State, *calendar.DatesSelected, error) {
		return d.fetch(ctx, session, state, now), nil, nil
	})
	return session, err
}

type ClosePickerCommand struct {
	SessionID string `json:"session_id" validate:"required"`
}

func (c ClosePickerCommand) Key() string { return closePickerKey }

type ClosePickerHandler struct {
	Deps *Deps
}

func (h *ClosePickerHandler) Handle(ctx context.Context, cmd ClosePickerCommand) (struct{}, error) {
	if err := h.Deps.Sessions.Delete(ctx, cmd.SessionID); err != nil {
		return struct{}{}, err
	}
	if h.Deps.Logger != nil {
		h.Deps.Logger.InfoContext(ctx, "picker closed", "session_id", cmd.SessionID)
	}
	return struct{}{}, nil
}

// RefreshListingCommand refreshes every open picker of a listing, typically
// after its calendar changed.
type RefreshListingCommand struct {
	ListingID string `json:"listing_id" validate:"required"`
}

func (c RefreshListingCommand) Key() string { return refreshListingKey }

type RefreshListingHandler struct {
	Deps *Deps
}

// Handle returns how many sessions were refreshed. Sessions closed meanwhile
// are skipped.
func (h *RefreshListingHandler) Handle(ctx context.Context, cmd RefreshListingCommand) (int, error) {
	sessions, err := h.Deps.Sessions.ByListing(ctx, cmd.ListingID)
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for _, s := range sessions {
		if _, err := h.Deps.refresh(ctx, s.ID); err != nil {
			if errorsIsNotFound(err) {
				continue
			}
			return refreshed, err
		}
		refreshed++
	}
	return refreshed, nil
}

func parseMonth(raw string, zone *time.Location) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01", raw, zone)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

var (
	_ commands.Handler[OpenPickerCommand, dto.PickerView]     = (*OpenPickerHandler)(nil)
	_ commands.Handler[ClickDayCommand, dto.ClickResult]      = (*ClickDayHandler)(nil)
	_ commands.Handler[ClearDatesCommand, dto.ClickResult]    = (*ClearDatesHandler)(nil)
	_ commands.Handler[ShiftMonthCommand, dto.PickerView]     = (*ShiftMonthHandler)(nil)
	_ commands.Handler[RefreshBlockedCommand, dto.PickerView] = (*RefreshBlockedHandler)(nil)
	_ commands.Handler[ClosePickerCommand, struct{}]          = (*ClosePickerHandler)(nil)
	_ commands.Handler[RefreshListingCommand, int]            = (*RefreshListingHandler)(nil)
)
