package availability

import (
	"context"
	"time"

	"rentcal/internal/app/dto"
	"rentcal/internal/app/queries"
	domainavailability "rentcal/internal/domain/availability"
	"rentcal/internal/domain/shared/daterange"
)

const (
	getCalendarKey     = "availability.calendar"
	getBlockedDatesKey = "availability.blocked_dates"

	defaultBlockedWindowDays = 365
)

type GetCalendarQuery struct {
	ListingID string `json:"listing_id" validate:"required"`
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	Calendars domainavailability.Repository
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	calendar, err := h.Calendars.Calendar(ctx, domainavailability.ListingID(q.ListingID))
	if err != nil {
		return dto.Calendar{}, err
	}
	return dto.MapCalendar(calendar), nil
}

// GetBlockedDatesQuery lists blocked days in [From, To). Empty bounds default
// to today and a year ahead.
type GetBlockedDatesQuery struct {
	ListingID string `json:"listing_id" validate:"required"`
	From      string `json:"from" validate:"omitempty,day"`
	To        string `json:"to" validate:"omitempty,day"`
}

func (q GetBlockedDatesQuery) Key() string { return getBlockedDatesKey }

type GetBlockedDatesHandler struct {
	Calendars domainavailability.Repository
	Clock     func() time.Time
}

func (h *GetBlockedDatesHandler) Handle(ctx context.Context, q GetBlockedDatesQuery) (dto.BlockedDates, error) {
	window, err := blockedWindow(q.From, q.To, h.now())
	if err != nil {
		return dto.BlockedDates{}, err
	}
	calendar, err := h.Calendars.Calendar(ctx, domainavailability.ListingID(q.ListingID))
	if err != nil {
		return dto.BlockedDates{}, err
	}
	return dto.BlockedDates{
		ListingID:    q.ListingID,
		From:         daterange.FormatDay(window.CheckIn),
		To:           daterange.FormatDay(window.CheckOut),
		BlockedDates: calendar.BlockedDays(window),
	}, nil
}

func (h *GetBlockedDatesHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

func blockedWindow(from, to string, now time.Time) (daterange.DateRange, error) {
	start, err := daterange.ParseDay(from, time.UTC)
	if err != nil {
		return daterange.DateRange{}, err
	}
	if start.IsZero() {
		y, m, d := now.UTC().Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	end, err := daterange.ParseDay(to, time.UTC)
	if err != nil {
		return daterange.DateRange{}, err
	}
	if end.IsZero() {
		end = start.AddDate(0, 0, defaultBlockedWindowDays)
	}
	window := daterange.DateRange{CheckIn: start, CheckOut: end}
	if err := window.Validate(); err != nil {
		return daterange.DateRange{}, err
	}
	return window, nil
}

var (
	_ queries.Handler[GetCalendarQuery, dto.Calendar]         = (*GetCalendarHandler)(nil)
	_ queries.Handler[GetBlockedDatesQuery, dto.BlockedDates] = (*GetBlockedDatesHandler)(nil)
)
