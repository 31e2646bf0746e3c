package nats

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"smart-reader-be/pkg/events"
)

const (
	streamName    = "EVENTS"
	subjectPrefix = "events."
)

// envelope is the wire form of an event. The type travels in the subject
// as well, so filters can select on it.
type envelope struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

func Subject(eventType string) string {
	return subjectPrefix + eventType
}

func encode(event events.Event) (string, []byte, error) {
	if event.EventType() == "" {
		return "", nil, fmt.Errorf("event has no type")
	}
	data, err := json.Marshal(envelope{
		Type:       event.EventType(),
		OccurredAt: event.Timestamp(),
		Data:       event.Payload(),
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return Subject(event.EventType()), data, nil
}

func decode(subject string, data []byte) (events.BaseEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return events.BaseEvent{}, err
	}
	if env.Type == "" {
		env.Type = strings.TrimPrefix(subject, subjectPrefix)
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt = time.Now()
	}
	return events.BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}
