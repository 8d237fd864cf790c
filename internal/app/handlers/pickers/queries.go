package pickers

import (
	"context"
	"errors"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	"rentcal/internal/app/picker"
	"rentcal/internal/app/queries"
)

const getPickerViewKey = "picker.view"

type GetPickerViewQuery struct {
	SessionID string `json:"session_id" validate:"required"`
}

func (q GetPickerViewQuery) Key() string { return getPickerViewKey }

type GetPickerViewHandler struct {
	Deps *Deps
}

// Handle renders the grid against the current clock, so past flags advance
// without any write.
func (h *GetPickerViewHandler) Handle(ctx context.Context, q GetPickerViewQuery) (dto.PickerView, error) {
	session, err := h.Deps.Sessions.Get(ctx, q.SessionID)
	if err != nil {
		return dto.PickerView{}, err
	}
	return dto.MapPickerView(session, h.Deps.now()), nil
}

var _ queries.Handler[GetPickerViewQuery, dto.PickerView] = (*GetPickerViewHandler)(nil)

// Register wires every picker handler onto the buses.
func Register(cmds *commands.InMemoryBus, qs *queries.InMemoryBus, deps *Deps) {
	commands.Register[OpenPickerCommand, dto.PickerView](cmds, &OpenPickerHandler{Deps: deps})
	commands.Register[ClickDayCommand, dto.ClickResult](cmds, &ClickDayHandler{Deps: deps})
	commands.Register[ClearDatesCommand, dto.ClickResult](cmds, &ClearDatesHandler{Deps: deps})
	commands.Register[ShiftMonthCommand, dto.PickerView](cmds, &ShiftMonthHandler{Deps: deps})
	commands.Register[RefreshBlockedCommand, dto.PickerView](cmds, &RefreshBlockedHandler{Deps: deps})
	commands.Register[ClosePickerCommand, struct{}](cmds, &ClosePickerHandler{Deps: deps})
	commands.Register[RefreshListingCommand, int](cmds, &RefreshListingHandler{Deps: deps})
	queries.Register[GetPickerViewQuery, dto.PickerView](qs, &GetPickerViewHandler{Deps: deps})
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, picker.ErrSessionNotFound)
}
