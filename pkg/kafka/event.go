package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope of every chatbot message on Kafka. Data carries the
// event-specific payload.
type Event struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	SessionID     string          `json:"session_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Source        string          `json:"source"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Data          json.RawMessage `json:"data"`
}

// Origin names where an event comes from: the emitting service and, when
// known, the conversation and request that caused it.
type Origin struct {
	Source        string
	SessionID     string
	CorrelationID string
}

// NewEvent builds an event with a fresh id. The payload is encoded here so a
// bad payload fails before any broker I/O.
func NewEvent(eventType, aggregateType, aggregateID string, origin Origin, data any) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	return &Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		SessionID:     origin.SessionID,
		CorrelationID: origin.CorrelationID,
		Source:        origin.Source,
		OccurredAt:    time.Now().UTC(),
		Data:          payload,
	}, nil
}
