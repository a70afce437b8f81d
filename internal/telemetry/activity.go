package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"animehub-client/internal/models"
	"animehub-client/internal/observability"
)

const (
	EventChatOpened      = "chat_opened"
	EventMessageSent     = "message_sent"
	EventMessageReceived = "message_received"
	EventReviewPosted    = "review_posted"
	EventReviewDeleted   = "review_deleted"
	EventProfileUpdated  = "profile_updated"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// ActivityEmitter publishes client activity events. A nil emitter drops
// everything.
type ActivityEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	logger      *zap.Logger
}

type ActivityEnvelope struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	OccurredAt    string          `json:"occurred_at"`
	Service       string          `json:"service"`
	Environment   string          `json:"environment"`
	RequestID     string          `json:"request_id"`
	UserID        *string         `json:"user_id,omitempty"`
	Payload       ActivityPayload `json:"payload"`
}

type ActivityPayload struct {
	ChatID   string `json:"chat_id,omitempty"`
	ReviewID string `json:"review_id,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

func NewActivityEmitter(publisher Publisher, routingKey, service, environment string, logger *zap.Logger) *ActivityEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		logger:      logger,
	}
}

func (e *ActivityEmitter) Emit(ctx context.Context, eventType string, userID models.ID, payload ActivityPayload) {
	if e == nil || e.publisher == nil {
		return
	}

	var uid *string
	if !userID.IsZero() {
		s := userID.String()
		uid = &s
	}

	envelope := ActivityEnvelope{
		SchemaVersion: 1,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     observability.NewRequestID(),
		UserID:        uid,
		Payload:       payload,
	}
	e.logger.Debug("activity emit", zap.String("event_type", eventType), zap.String("request_id", envelope.RequestID))

	if err := e.publisher.Publish(ctx, e.routingKey+"."+eventType, envelope); err != nil {
		observability.IncAMQPPublishError()
		e.logger.Warn("activity publish failed", zap.String("event_type", eventType), zap.Error(err))
	}
}
