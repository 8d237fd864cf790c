package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	availabilityapp "rentcal/internal/app/handlers/availability"
	"rentcal/internal/app/queries"
)

type AvailabilityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	query := availabilityapp.GetCalendarQuery{ListingID: c.Param("id")}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// BlockedDates serves the contract consumed by the REST availability source.
func (h AvailabilityHandler) BlockedDates(c *gin.Context) {
	query := availabilityapp.GetBlockedDatesQuery{ListingID: c.Param("id"), From: c.Query("from"), To: c.Query("to")}
	result, err := queries.Ask[availabilityapp.GetBlockedDatesQuery, dto.BlockedDates](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type blockRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason"`
	Reference string `json:"reference"`
}

func (h AvailabilityHandler) Block(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := availabilityapp.BlockDatesCommand{
		ListingID: c.Param("id"),
		From:      req.From,
		To:        req.To,
		Reason:    req.Reason,
		Reference: req.Reference,
	}
	result, err := commands.Dispatch[availabilityapp.BlockDatesCommand, dto.Calendar](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h AvailabilityHandler) Release(c *gin.Context) {
	cmd := availabilityapp.ReleaseBlockCommand{ListingID: c.Param("id"), Reference: c.Param("reference")}
	result, err := commands.Dispatch[availabilityapp.ReleaseBlockCommand, dto.Calendar](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
