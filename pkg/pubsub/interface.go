package pubsub

import (
	"context"
	"encoding/json"
	"time"
)

// Event represents a message published to the event bus.
type Event struct {
	Type      string          `json:"type"`
	UserID    string          `json:"user_id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType, userID string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		UserID:    userID,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// UnmarshalPayload unmarshals the event payload into the given struct.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Publisher publishes events to the event bus.
type Publisher interface {
	Publish(ctx context.Context, channel string, event *Event) error
	Close() error
}

// NopPublisher discards every event. Used when no bus is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, *Event) error { return nil }
func (NopPublisher) Close() error                                  { return nil }
