package kafka

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const cloudEventsContentType = "application/cloudevents+json"

var ErrMalformedEvent = errors.New("kafka: malformed cloud event")

// CloudEvent is the envelope every message on the event topics carries.
type CloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Subject         string          `json:"subject,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// Name strips the version suffix: "calendar.blocked.v1" -> "calendar.blocked".
func (e CloudEvent) Name() string {
	if idx := strings.LastIndex(e.Type, ".v"); idx > 0 {
		return e.Type[:idx]
	}
	return e.Type
}

// TopicFor maps an event name onto its aggregate topic, e.g.
// "calendar.blocked" -> "<prefix>calendar.events.v1".
func TopicFor(prefix, name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return prefix + base + ".events.v1"
}

func encodeCloudEvent(id, name, source, subject string, at time.Time, data any) ([]byte, map[string]string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, nil, err
	}
	payload, err := json.Marshal(CloudEvent{
		SpecVersion:     "1.0",
		ID:              id,
		Type:            name + ".v1",
		Source:          source,
		Time:            at.UTC(),
		DataContentType: "application/json",
		Subject:         subject,
		Data:            raw,
	})
	if err != nil {
		return nil, nil, err
	}
	return payload, map[string]string{"content-type": cloudEventsContentType}, nil
}

func decodeCloudEvent(payload []byte) (CloudEvent, error) {
	var ev CloudEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return CloudEvent{}, errors.Join(ErrMalformedEvent, err)
	}
	if ev.ID == "" || ev.Type == "" {
		return CloudEvent{}, ErrMalformedEvent
	}
	return ev, nil
}
