package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentcal/internal/app/picker"
	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/pkg/validator"
)

// writeError maps application errors onto status codes. Unknown errors are
// reported as 500 without their text.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var fields validator.FieldErrors
	switch {
	case errors.As(err, &fields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
	case errors.Is(err, daterange.ErrInvalidDay), errors.Is(err, daterange.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, picker.ErrSessionNotFound), errors.Is(err, availability.ErrRangeNotFound), errors.Is(err, availability.ErrCalendarNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, picker.ErrConcurrentUpdate), errors.Is(err, availability.ErrOverlappingRange), errors.Is(err, availability.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
