package kafka

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"rentcal/internal/app/picker"
	"rentcal/internal/domain/shared/events"
)

// EventPublisher sends domain events to their aggregate topic, keyed by
// aggregate ID so that one listing's events stay ordered.
type EventPublisher struct {
	Producer    MessagePublisher
	TopicPrefix string
	Source      string
}

func (p *EventPublisher) Publish(ctx context.Context, evs []events.DomainEvent) error {
	var errs []error
	for _, ev := range evs {
		payload, headers, err := encodeCloudEvent(uuid.NewString(), ev.EventName(), p.Source, ev.AggregateID(), ev.OccurredAt(), ev)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := p.Producer.Publish(ctx, Message{Topic: TopicFor(p.TopicPrefix, ev.EventName()), Key: ev.AggregateID(), Value: payload, Headers: headers}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const datesSelectedEvent = "picker.dates_selected"

// DatesSelectedPublisher forwards picker emissions to picker.events.v1.
type DatesSelectedPublisher struct {
	Producer    MessagePublisher
	TopicPrefix string
	Source      string
}

func (p *DatesSelectedPublisher) DatesSelected(ctx context.Context, event picker.SessionEvent) error {
	payload, headers, err := encodeCloudEvent(uuid.NewString(), datesSelectedEvent, p.Source, event.SessionID, event.OccurredAt, event)
	if err != nil {
		return err
	}
	return p.Producer.Publish(ctx, Message{Topic: TopicFor(p.TopicPrefix, datesSelectedEvent), Key: event.SessionID, Value: payload, Headers: headers})
}

var (
	_ events.Publisher = (*EventPublisher)(nil)
	_ picker.Notifier  = (*DatesSelectedPublisher)(nil)
)
