package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	pickerapp "rentcal/internal/app/handlers/pickers"
	"rentcal/internal/app/queries"
)

// Realtime streams picker emissions to browser clients.
type Realtime interface {
	Serve(w http.ResponseWriter, r *http.Request, sessionID string) error
	Close(sessionID string)
}

type PickerHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Realtime Realtime
}

type openPickerRequest struct {
	ListingID string `json:"listing_id"`
	Location  string `json:"location"`
	Timezone  string `json:"timezone"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Month     string `json:"month"`
}

func (h PickerHandler) Open(c *gin.Context) {
	var req openPickerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := pickerapp.OpenPickerCommand{
		ListingID: req.ListingID,
		Location:  req.Location,
		Timezone:  req.Timezone,
		CheckIn:   req.CheckIn,
		CheckOut:  req.CheckOut,
		Month:     req.Month,
	}
	view, err := commands.Dispatch[pickerapp.OpenPickerCommand, dto.PickerView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", "/api/v1/pickers/"+view.SessionID)
	c.JSON(http.StatusCreated, view)
}

func (h PickerHandler) View(c *gin.Context) {
	view, err := queries.Ask[pickerapp.GetPickerViewQuery, dto.PickerView](c.Request.Context(), h.Queries, pickerapp.GetPickerViewQuery{SessionID: c.Param("id")})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type clickRequest struct {
	Date string `json:"date"`
}

func (h PickerHandler) Click(c *gin.Context) {
	var req clickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := commands.Dispatch[pickerapp.ClickDayCommand, dto.ClickResult](c.Request.Context(), h.Commands, pickerapp.ClickDayCommand{SessionID: c.Param("id"), Date: req.Date})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h PickerHandler) Clear(c *gin.Context) {
	res, err := commands.Dispatch[pickerapp.ClearDatesCommand, dto.ClickResult](c.Request.Context(), h.Commands, pickerapp.ClearDatesCommand{SessionID: c.Param("id")})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type monthRequest struct {
	Delta int    `json:"delta"`
	Month string `json:"month"`
}

func (h PickerHandler) Month(c *gin.Context) {
	var req monthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := pickerapp.ShiftMonthCommand{SessionID: c.Param("id"), Delta: req.Delta, Month: req.Month}
	view, err := commands.Dispatch[pickerapp.ShiftMonthCommand, dto.PickerView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h PickerHandler) Refresh(c *gin.Context) {
	view, err := commands.Dispatch[pickerapp.RefreshBlockedCommand, dto.PickerView](c.Request.Context(), h.Commands, pickerapp.RefreshBlockedCommand{SessionID: c.Param("id")})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h PickerHandler) Close(c *gin.Context) {
	id := c.Param("id")
	if _, err := commands.Dispatch[pickerapp.ClosePickerCommand, struct{}](c.Request.Context(), h.Commands, pickerapp.ClosePickerCommand{SessionID: id}); err != nil {
		writeError(c, err)
		return
	}
	if h.Realtime != nil {
		h.Realtime.Close(id)
	}
	c.Status(http.StatusNoContent)
}

// Stream upgrades to a websocket receiving every emission of the session.
func (h PickerHandler) Stream(c *gin.Context) {
	if h.Realtime == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "realtime disabled"})
		return
	}
	id := c.Param("id")
	if _, err := queries.Ask[pickerapp.GetPickerViewQuery, dto.PickerView](c.Request.Context(), h.Queries, pickerapp.GetPickerViewQuery{SessionID: id}); err != nil {
		writeError(c, err)
		return
	}
	if err := h.Realtime.Serve(c.Writer, c.Request, id); err != nil {
		_ = c.Error(err)
	}
}

var _ PickerHTTP = PickerHandler{}
