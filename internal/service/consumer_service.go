package service

import (
	"context"
	"encoding/json"
	"time"

	"smart-reader-be/internal/dto"
	"smart-reader-be/internal/pkg/logger"
	"smart-reader-be/pkg/events"
	"smart-reader-be/pkg/overlay"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Event codes published to the external bus.
const (
	EventAnnotationCreated  = "ANNOTATION_CREATED"
	EventAnnotationUndone   = "ANNOTATION_UNDONE"
	EventAnnotationsErased  = "ANNOTATIONS_ERASED"
	broadcastAnnotationType = "annotations_changed"
)

// AnnotationBroadcaster pushes a serialized message to every live client of
// a reference.
type AnnotationBroadcaster interface {
	BroadcastToReference(referenceID string, data []byte)
}

// EventPublisher is the external event bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber  message.Subscriber
	topicName   string
	broadcaster AnnotationBroadcaster
	events      EventPublisher
	logger      logger.ILogger
}

// NewConsumerService fans annotation changes out to websocket clients and,
// when eventPublisher is non-nil, to the external bus.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	broadcaster AnnotationBroadcaster,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:  subscriber,
		topicName:   topicName,
		broadcaster: broadcaster,
		events:      eventPublisher,
		logger:      log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.AnnotationChangedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal annotation change", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // never retry a malformed message
		return
	}

	// 1. Live clients
	if cs.broadcaster != nil {
		data, err := json.Marshal(map[string]interface{}{
			"type": broadcastAnnotationType,
			"data": payload,
		})
		if err == nil {
			cs.broadcaster.BroadcastToReference(payload.ReferenceId, data)
		}
	}

	// 2. External bus, best effort
	if cs.events != nil {
		evt := events.BaseEvent{
			Type: eventType(payload.Kind),
			Data: map[string]interface{}{
				"reference_id": payload.ReferenceId,
				"session_id":   payload.SessionId,
				"page":         payload.Page,
				"count":        len(payload.Annotations),
				"ids":          annotationIDs(payload.Annotations),
			},
			OccurredAt: payload.OccurredAt,
		}
		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := cs.events.Publish(pubCtx, evt); err != nil {
			cs.logger.Warn("CONSUMER", "Failed to publish event", map[string]interface{}{
				"event": evt.Type,
				"error": err.Error(),
			})
		}
		cancel()
	}

	msg.Ack()
}

func eventType(kind overlay.ChangeKind) string {
	switch kind {
	case overlay.ChangeUndone:
		return EventAnnotationUndone
	case overlay.ChangeErased:
		return EventAnnotationsErased
	default:
		return EventAnnotationCreated
	}
}

func annotationIDs(annotations []overlay.Annotation) []string {
	ids := make([]string, 0, len(annotations))
	for _, a := range annotations {
		ids = append(ids, a.ID)
	}
	return ids
}
