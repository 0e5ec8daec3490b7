// internal/domain/notification/repository.go
package notification

import (
	"context"
)

// Repository persists notifications. Rows are append-only apart from is_read.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*Notification, error)
	// MarkRead flips is_read for a notification owned by userID.
	MarkRead(ctx context.Context, userID, id int64) error
}

// Sink delivers a notification to a user. Delivery is fire-and-forget:
// implementations log failures instead of returning them.
type Sink interface {
	Send(ctx context.Context, userID int64, t Type, title, message string, relatedID int64)
}
