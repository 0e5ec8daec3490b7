// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"yearbook_alumni/internal/domain/notification"
)

// Custom errors specific to notification repository
var ErrNotificationNotFound = fmt.Errorf("notification not found")

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	query := `INSERT INTO notifications (user_id, type, title, message, related_id, is_read)
               VALUES ($1, $2, $3, $4, $5, FALSE)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, n.UserID, n.Type, n.Title, n.Message, n.RelatedID).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*notification.Notification, error) {
	query := `SELECT id, user_id, type, title, message, related_id, is_read, created_at
               FROM notifications
               WHERE user_id = $1 AND ($2 = FALSE OR is_read = FALSE)
               ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications by user: %w", err)
	}
	defer rows.Close()

	notifications := make([]*notification.Notification, 0)
	for rows.Next() {
		n := &notification.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.RelatedID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning notification row: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return notifications, nil
}

func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error marking notification as read: %w", err)
	}
	return requireAffected(res, ErrNotificationNotFound)
}
