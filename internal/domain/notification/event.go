package notification

import (
	"context"
	"time"
)

// Event is the wire form of a notification published to other services.
type Event struct {
	EventID    string    `json:"event_id"`
	Type       Type      `json:"type"`
	UserID     int64     `json:"user_id"`
	RelatedID  int64     `json:"related_id"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher hands lifecycle events to a message broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
