// internal/app/notification_service.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"yearbook_alumni/internal/domain/alumni"
	"yearbook_alumni/internal/domain/notification"
	domainTelegram "yearbook_alumni/internal/domain/telegram"
	idb "yearbook_alumni/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Callback data prefixes for the inline buttons on moderator alerts.
const (
	CallbackApprovePrefix = "req_approve_"
	CallbackDenyPrefix    = "req_deny_"
)

// NotificationService is what the route layer needs from the notification store.
type NotificationService interface {
	ListForUser(ctx context.Context, userID int64, unreadOnly bool) ([]*notification.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
}

// NotificationServiceImpl persists notifications and fans them out to the
// event broker and the moderator chat. It implements notification.Sink.
type NotificationServiceImpl struct {
	notifRepo       notification.Repository
	publisher       notification.Publisher // nil disables event publishing
	telegramClient  domainTelegram.Client  // nil disables moderator alerts
	moderatorChatID int64
	logger          *logrus.Entry
	now             func() time.Time
}

func NewNotificationServiceImpl(
	nr notification.Repository,
	publisher notification.Publisher,
	tc domainTelegram.Client,
	moderatorChatID int64,
	logger *logrus.Entry,
) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		notifRepo:       nr,
		publisher:       publisher,
		telegramClient:  tc,
		moderatorChatID: moderatorChatID,
		logger:          logger.WithField("component", "notification_service"),
		now:             time.Now,
	}
}

// Send stores the notification and relays it. Every failure is logged and
// swallowed so delivery problems never affect the caller's state change.
func (s *NotificationServiceImpl) Send(ctx context.Context, userID int64, t notification.Type, title, message string, relatedID int64) {
	log := s.logger.WithFields(logrus.Fields{"user_id": userID, "type": t, "related_id": relatedID})

	n := &notification.Notification{
		UserID:    userID,
		Type:      t,
		Title:     title,
		Message:   message,
		RelatedID: sql.NullInt64{Int64: relatedID, Valid: relatedID != 0},
	}
	if err := s.notifRepo.Create(ctx, n); err != nil {
		log.WithError(err).Error("Failed to store notification")
	} else {
		log.WithField("notification_id", n.ID).Debug("Notification stored")
	}

	if s.publisher != nil {
		event := notification.Event{
			EventID:    uuid.NewString(),
			Type:       t,
			UserID:     userID,
			RelatedID:  relatedID,
			Title:      title,
			Message:    message,
			OccurredAt: s.now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.WithError(err).Error("Failed to publish notification event")
		}
	}

	if t == notification.TypeAlumniRequestSent && s.telegramClient != nil {
		s.sendModeratorAlert(log, userID, message, relatedID)
	}
}

func (s *NotificationServiceImpl) sendModeratorAlert(log *logrus.Entry, userID int64, message string, requestID int64) {
	text := fmt.Sprintf("New alumni request #%d from user %d.\n%s", requestID, userID, message)

	replyMarkup := &telebot.ReplyMarkup{}
	btnApprove := replyMarkup.Data("Approve", fmt.Sprintf("%s%d", CallbackApprovePrefix, requestID))
	btnDeny := replyMarkup.Data("Deny", fmt.Sprintf("%s%d", CallbackDenyPrefix, requestID))
	replyMarkup.Inline(replyMarkup.Row(btnApprove, btnDeny))

	if err := s.telegramClient.SendMessage(s.moderatorChatID, text, &telebot.SendOptions{ReplyMarkup: replyMarkup}); err != nil {
		log.WithError(err).Error("Failed to send moderator alert")
		return
	}
	log.Debug("Moderator alert sent")
}

func (s *NotificationServiceImpl) ListForUser(ctx context.Context, userID int64, unreadOnly bool) ([]*notification.Notification, error) {
	return s.notifRepo.ListByUser(ctx, userID, unreadOnly)
}

func (s *NotificationServiceImpl) MarkRead(ctx context.Context, userID, notificationID int64) error {
	if err := s.notifRepo.MarkRead(ctx, userID, notificationID); err != nil {
		if errors.Is(err, idb.ErrNotificationNotFound) {
			return alumni.NewNotFoundError("notification", notificationID)
		}
		return fmt.Errorf("failed to mark notification %d as read: %w", notificationID, err)
	}
	return nil
}
