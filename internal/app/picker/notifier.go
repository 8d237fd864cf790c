package picker

import (
	"context"
	"errors"
	"time"

	"rentcal/internal/domain/calendar"
)

// SessionEvent is one emission of a server-side picker.
type SessionEvent struct {
	SessionID  string                 `json:"session_id"`
	ListingID  string                 `json:"listing_id"`
	Dates      calendar.DatesSelected `json:"dates"`
	Nights     int                    `json:"nights"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Notifier delivers emissions to whoever embeds the picker.
type Notifier interface {
	DatesSelected(ctx context.Context, event SessionEvent) error
}

type NotifierFunc func(ctx context.Context, event SessionEvent) error

func (f NotifierFunc) DatesSelected(ctx context.Context, event SessionEvent) error {
	return f(ctx, event)
}

// Fanout delivers to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) DatesSelected(ctx context.Context, event SessionEvent) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.DatesSelected(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
