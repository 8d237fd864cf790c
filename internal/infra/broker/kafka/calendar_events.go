package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	availabilityapp "rentcal/internal/app/handlers/availability"
	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/pkg/validator"
)

// Inbox de-duplicates redelivered events.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// CalendarEventsHandler applies calendar.blocked and calendar.released events
// from other services to the local calendar. Events this service produced
// itself (same Source) are skipped.
type CalendarEventsHandler struct {
	Commands commands.Bus
	Inbox    Inbox
	Source   string
	Logger   *slog.Logger
}

func (h *CalendarEventsHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	ev, err := decodeCloudEvent(msg.Value)
	if err != nil {
		// Poison messages are acknowledged; retrying cannot fix them.
		h.warn(ctx, "calendar event dropped", "offset", msg.Offset, "error", err)
		return nil
	}
	if h.Source != "" && ev.Source == h.Source {
		return nil
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, ev.ID)
		if err != nil {
			return fmt.Errorf("kafka: inbox: %w", err)
		}
		if seen {
			return nil
		}
	}
	if err := h.apply(ctx, ev); err != nil {
		if rejected(err) {
			h.warn(ctx, "calendar event rejected", "id", ev.ID, "error", err)
			return nil
		}
		if h.Inbox != nil {
			_ = h.Inbox.Forget(ctx, ev.ID)
		}
		return err
	}
	return nil
}

// rejected reports errors caused by the event's content. Redelivery would
// fail the same way, so such events are acknowledged.
func rejected(err error) bool {
	var fields validator.FieldErrors
	return errors.As(err, &fields) ||
		errors.Is(err, daterange.ErrInvalidDay) ||
		errors.Is(err, daterange.ErrInvalidRange)
}

func (h *CalendarEventsHandler) apply(ctx context.Context, ev CloudEvent) error {
	switch ev.Name() {
	case "calendar.blocked":
		var data availability.CalendarBlocked
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			h.warn(ctx, "calendar event dropped", "id", ev.ID, "error", err)
			return nil
		}
		cmd := availabilityapp.BlockDatesCommand{
			ListingID: data.ListingID,
			From:      data.From,
			To:        data.To,
			Reason:    data.Reason,
			Reference: data.Reference,
		}
		_, err := commands.Dispatch[availabilityapp.BlockDatesCommand, dto.Calendar](ctx, h.Commands, cmd)
		if errors.Is(err, availability.ErrOverlappingRange) {
			h.warn(ctx, "upstream block overlaps local calendar", "listing_id", data.ListingID, "reference", data.Reference)
			return nil
		}
		return err
	case "calendar.released":
		var data availability.CalendarReleased
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			h.warn(ctx, "calendar event dropped", "id", ev.ID, "error", err)
			return nil
		}
		cmd := availabilityapp.ReleaseBlockCommand{ListingID: data.ListingID, Reference: data.Reference}
		_, err := commands.Dispatch[availabilityapp.ReleaseBlockCommand, dto.Calendar](ctx, h.Commands, cmd)
		if errors.Is(err, availability.ErrRangeNotFound) {
			return nil
		}
		return err
	default:
		return nil
	}
}

func (h *CalendarEventsHandler) warn(ctx context.Context, msg string, args ...any) {
	if h.Logger != nil {
		h.Logger.WarnContext(ctx, msg, args...)
	}
}

var _ MessageHandler = (*CalendarEventsHandler)(nil)
