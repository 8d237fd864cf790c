package dto

import (
	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/shared/daterange"
)

type CalendarBlock struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason"`
	Reference string `json:"reference,omitempty"`
}

type Calendar struct {
	ListingID string          `json:"listing_id"`
	Version   int64           `json:"version"`
	Blocks    []CalendarBlock `json:"blocks"`
}

func MapCalendar(cal *availability.AvailabilityCalendar) Calendar {
	if cal == nil {
		return Calendar{Blocks: []CalendarBlock{}}
	}
	blocks := make([]CalendarBlock, 0, len(cal.Blocks))
	for _, b := range cal.Blocks {
		blocks = append(blocks, CalendarBlock{
			From:      daterange.FormatDay(b.Range.CheckIn),
			To:        daterange.FormatDay(b.Range.CheckOut),
			Reason:    string(b.Reason),
			Reference: b.Reference,
		})
	}
	return Calendar{ListingID: string(cal.ListingID), Version: cal.Version, Blocks: blocks}
}

// BlockedDates is the wire contract of the blocked-dates endpoint and of the
// upstream availability API.
type BlockedDates struct {
	ListingID    string          `json:"listing_id"`
	From         string          `json:"from,omitempty"`
	To           string          `json:"to,omitempty"`
	BlockedDates []string        `json:"blocked_dates"`
	Blocks       []CalendarBlock `json:"blocks,omitempty"`
}
