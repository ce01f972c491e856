// internal/events/events.go
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventReviewCreated     = "review.created"
	EventReviewUpdated     = "review.updated"
	EventReviewDeleted     = "review.deleted"
	EventBookRatingUpdated = "book.rating_updated"

	eventVersion = "1.0.0"
)

// Event represents a domain event
type Event struct {
	EventID       string                 `json:"event_id"`
	EventType     string                 `json:"event_type"`
	EventVersion  string                 `json:"event_version"`
	Timestamp     string                 `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Payload       map[string]interface{} `json:"payload"`
}

type correlationKey struct{}

// WithCorrelationID attaches the request id carried into published events
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func NewEvent(ctx context.Context, eventType string, payload map[string]interface{}) Event {
	event := Event{
		EventID:      uuid.New().String(),
		EventType:    eventType,
		EventVersion: eventVersion,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Payload:      payload,
	}
	if id, ok := ctx.Value(correlationKey{}).(string); ok {
		event.CorrelationID = id
	}
	return event
}

// Publisher delivers domain events after the triggering write has committed
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload map[string]interface{}) error
	Close() error
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, map[string]interface{}) error { return nil }

func (NoopPublisher) Close() error { return nil }

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(ctx context.Context, eventType string, payload map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, NewEvent(ctx, eventType, payload))
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns the recorded events with the given type
func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, event := range r.Events() {
		if event.EventType == eventType {
			out = append(out, event)
		}
	}
	return out
}
