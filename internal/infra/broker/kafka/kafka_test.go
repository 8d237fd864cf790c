package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/app/commands"
	"rentcal/internal/app/dto"
	availabilityapp "rentcal/internal/app/handlers/availability"
	"rentcal/internal/app/picker"
	"rentcal/internal/app/queries"
	"rentcal/internal/domain/availability"
	"rentcal/internal/domain/calendar"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/events"
	"rentcal/internal/infra/storage/memory"
)

type sent struct {
	topic, key string
	payload    []byte
}

type recordingProducer struct{ msgs []sent }

func (r *recordingProducer) Publish(_ context.Context, msg Message) error {
	r.msgs = append(r.msgs, sent{topic: msg.Topic, key: msg.Key, payload: msg.Value})
	return nil
}

type memInbox struct{ seen map[string]bool }

func (m *memInbox) Seen(_ context.Context, id string) (bool, error) {
	if m.seen[id] {
		return true, nil
	}
	m.seen[id] = true
	return false, nil
}

func (m *memInbox) Forget(_ context.Context, id string) error {
	delete(m.seen, id)
	return nil
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, "calendar.events.v1", TopicFor("", "calendar.blocked"))
	assert.Equal(t, "stage.picker.events.v1", TopicFor("stage.", "picker.dates_selected"))
	assert.Equal(t, "calendar.blocked", CloudEvent{Type: "calendar.blocked.v1"}.Name())
}

func TestEventPublisherWritesCloudEvents(t *testing.T) {
	rec := &recordingProducer{}
	pub := &EventPublisher{Producer: rec, Source: "rentcal"}
	r, err := daterange.New(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	ev := availability.CalendarBlockedEvent("loft", r, availability.ReasonHostBlock, "ref-1", time.Now())
	require.NoError(t, pub.Publish(context.Background(), []events.DomainEvent{ev}))

	require.Len(t, rec.msgs, 1)
	assert.Equal(t, "calendar.events.v1", rec.msgs[0].topic)
	assert.Equal(t, "loft", rec.msgs[0].key)
	decoded, err := decodeCloudEvent(rec.msgs[0].payload)
	require.NoError(t, err)
	assert.Equal(t, "calendar.blocked.v1", decoded.Type)
	assert.Equal(t, "rentcal", decoded.Source)
	var data availability.CalendarBlocked
	require.NoError(t, json.Unmarshal(decoded.Data, &data))
	assert.Equal(t, "2025-03-10", data.From)
}

func TestDatesSelectedPublisherUsesSaramaProducer(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		ev, err := decodeCloudEvent(val)
		if err != nil {
			return err
		}
		var data picker.SessionEvent
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return err
		}
		assert.Equal(t, "picker.dates_selected.v1", ev.Type)
		assert.Equal(t, "2025-03-10", data.Dates.CheckIn)
		return nil
	})
	producer := NewProducerFrom(mock)
	t.Cleanup(func() { _ = producer.Close() })

	pub := &DatesSelectedPublisher{Producer: producer, Source: "rentcal"}
	err := pub.DatesSelected(context.Background(), picker.SessionEvent{
		SessionID: "s-1",
		Dates:     calendar.DatesSelected{CheckIn: "2025-03-10"},
	})
	require.NoError(t, err)
}

func calendarMessage(t *testing.T, id, source string, ev events.DomainEvent) *sarama.ConsumerMessage {
	t.Helper()
	payload, _, err := encodeCloudEvent(id, ev.EventName(), source, ev.AggregateID(), ev.OccurredAt(), ev)
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: "calendar.events.v1", Value: payload}
}

func TestCalendarEventsHandlerAppliesUpstreamEvents(t *testing.T) {
	repo := memory.NewAvailabilityRepository(0)
	cmds := commands.NewInMemoryBus()
	availabilityapp.Register(cmds, queries.NewInMemoryBus(), repo, nil, nil, nil)
	h := &CalendarEventsHandler{Commands: cmds, Inbox: &memInbox{seen: map[string]bool{}}, Source: "rentcal"}
	ctx := context.Background()

	r, err := daterange.New(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	blocked := availability.CalendarBlockedEvent("loft", r, availability.ReasonHostBlock, "up-1", time.Now())

	require.NoError(t, h.Handle(ctx, calendarMessage(t, "e-1", "bookings", blocked)))
	require.NoError(t, h.Handle(ctx, calendarMessage(t, "e-1", "bookings", blocked)))
	require.NoError(t, h.Handle(ctx, calendarMessage(t, "e-2", "rentcal", availability.CalendarReleasedEvent("loft", r, availability.ReasonHostBlock, "up-1", time.Now()))))

	cal, err := repo.Calendar(ctx, "loft")
	require.NoError(t, err)
	require.Len(t, cal.Blocks, 1)
	assert.Equal(t, "up-1", cal.Blocks[0].Reference)

	require.NoError(t, h.Handle(ctx, calendarMessage(t, "e-3", "bookings", availability.CalendarReleasedEvent("loft", r, availability.ReasonHostBlock, "up-1", time.Now()))))
	cal, err = repo.Calendar(ctx, "loft")
	require.NoError(t, err)
	assert.Empty(t, cal.Blocks)

	require.NoError(t, h.Handle(ctx, &sarama.ConsumerMessage{Value: []byte("not json")}))
}

func TestCalendarEventsHandlerForgetsFailedEvents(t *testing.T) {
	inbox := &memInbox{seen: map[string]bool{}}
	failing := commandsFunc(func(context.Context, commands.Command) (any, error) { return dto.Calendar{}, assert.AnError })
	h := &CalendarEventsHandler{Commands: failing, Inbox: inbox}

	r, err := daterange.New(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	msg := calendarMessage(t, "e-9", "bookings", availability.CalendarBlockedEvent("loft", r, availability.ReasonHostBlock, "x", time.Now()))

	assert.ErrorIs(t, h.Handle(context.Background(), msg), assert.AnError)
	assert.False(t, inbox.seen["e-9"])
}

func TestCalendarEventsHandlerAcksRejectedEvents(t *testing.T) {
	inbox := &memInbox{seen: map[string]bool{}}
	invalid := commandsFunc(func(context.Context, commands.Command) (any, error) {
		return nil, fmt.Errorf("block: %w", daterange.ErrInvalidRange)
	})
	h := &CalendarEventsHandler{Commands: invalid, Inbox: inbox}

	r, err := daterange.New(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	msg := calendarMessage(t, "e-10", "bookings", availability.CalendarBlockedEvent("loft", r, availability.ReasonHostBlock, "x", time.Now()))

	assert.NoError(t, h.Handle(context.Background(), msg))
	assert.True(t, inbox.seen["e-10"])
}

type commandsFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandsFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) { return f(ctx, cmd) }
