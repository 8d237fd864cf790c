package availability

import (
	"time"

	"rentcal/internal/domain/shared/daterange"
)

type CalendarBlocked struct {
	ListingID string    `json:"listing_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Reason    string    `json:"reason"`
	Reference string    `json:"reference"`
	At        time.Time `json:"at"`
}

func (e CalendarBlocked) EventName() string     { return "calendar.blocked" }
func (e CalendarBlocked) AggregateID() string   { return e.ListingID }
func (e CalendarBlocked) OccurredAt() time.Time { return e.At }

type CalendarReleased struct {
	ListingID string    `json:"listing_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Reason    string    `json:"reason"`
	Reference string    `json:"reference"`
	At        time.Time `json:"at"`
}

func (e CalendarReleased) EventName() string     { return "calendar.released" }
func (e CalendarReleased) AggregateID() string   { return e.ListingID }
func (e CalendarReleased) OccurredAt() time.Time { return e.At }

type CalendarOverbookingPrevented struct {
	ListingID string    `json:"listing_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	At        time.Time `json:"at"`
}

func (e CalendarOverbookingPrevented) EventName() string     { return "calendar.overbooking_prevented" }
func (e CalendarOverbookingPrevented) AggregateID() string   { return e.ListingID }
func (e CalendarOverbookingPrevented) OccurredAt() time.Time { return e.At }

func CalendarBlockedEvent(id ListingID, r daterange.DateRange, reason BlockReason, reference string, at time.Time) CalendarBlocked {
	return CalendarBlocked{
		ListingID: string(id),
		From:      daterange.FormatDay(r.CheckIn),
		To:        daterange.FormatDay(r.CheckOut),
		Reason:    string(reason),
		Reference: reference,
		At:        at,
	}
}

func CalendarReleasedEvent(id ListingID, r daterange.DateRange, reason BlockReason, reference string, at time.Time) CalendarReleased {
	return CalendarReleased{
		ListingID: string(id),
		From:      daterange.FormatDay(r.CheckIn),
		To:        daterange.FormatDay(r.CheckOut),
		Reason:    string(reason),
		Reference: reference,
		At:        at,
	}
}

func CalendarOverbookingPreventedEvent(id ListingID, r daterange.DateRange, at time.Time) CalendarOverbookingPrevented {
	return CalendarOverbookingPrevented{
		ListingID: string(id),
		From:      daterange.FormatDay(r.CheckIn),
		To:        daterange.FormatDay(r.CheckOut),
		At:        at,
	}
}
