// Package events defines the messages published on the external event bus.
package events

import "time"

// Event is one message on the external bus.
type Event interface {
	// EventType returns the event code, e.g. "ANNOTATION_CREATED".
	EventType() string

	Payload() map[string]interface{}

	Timestamp() time.Time
}

// BaseEvent is the plain Event implementation used by publishers and
// reconstructed by subscribers.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
