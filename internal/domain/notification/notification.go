// internal/domain/notification/notification.go
package notification

import (
	"database/sql"
	"time"
)

// Type identifies which lifecycle transition produced a notification.
type Type string

const (
	TypeAlumniRequestSent Type = "alumni_request_sent"
	TypeAlumniApproved    Type = "alumni_approved"
	TypeAlumniDenied      Type = "alumni_denied"
)

// Notification is a message addressed to one user.
// Corresponds to the 'notifications' table.
type Notification struct {
	ID        int64
	UserID    int64
	Type      Type
	Title     string
	Message   string
	RelatedID sql.NullInt64 // Request id for alumni notifications
	IsRead    bool
	CreatedAt time.Time
}
