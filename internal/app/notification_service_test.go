package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"yearbook_alumni/internal/domain/alumni"
	"yearbook_alumni/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const moderatorChat int64 = -100123

func newTestNotificationService(repo *memNotificationRepo, pub notification.Publisher, tg *recordingTelegram) *NotificationServiceImpl {
	var svc *NotificationServiceImpl
	if tg != nil {
		svc = NewNotificationServiceImpl(repo, pub, tg, moderatorChat, quietLogger())
	} else {
		svc = NewNotificationServiceImpl(repo, pub, nil, moderatorChat, quietLogger())
	}
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestNotificationService_SendStoresPublishesAndAlerts(t *testing.T) {
	t.Parallel()
	repo := &memNotificationRepo{}
	pub := &recordingPublisher{}
	tg := &recordingTelegram{}
	svc := newTestNotificationService(repo, pub, tg)
	ctx := context.Background()

	svc.Send(ctx, janeID, notification.TypeAlumniRequestSent, "Alumni request sent", "Awaiting review.", 17)

	stored, err := repo.ListByUser(ctx, janeID, false)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, notification.TypeAlumniRequestSent, stored[0].Type)
	assert.Equal(t, int64(17), stored[0].RelatedID.Int64)
	assert.True(t, stored[0].RelatedID.Valid)
	assert.False(t, stored[0].IsRead)

	require.Len(t, pub.events, 1)
	event := pub.events[0]
	_, err = uuid.Parse(event.EventID)
	require.NoError(t, err)
	assert.Equal(t, janeID, event.UserID)
	assert.Equal(t, int64(17), event.RelatedID)
	assert.Equal(t, testNow, event.OccurredAt)

	require.Len(t, tg.messages, 1)
	msg := tg.messages[0]
	assert.Equal(t, moderatorChat, msg.ChatID)
	assert.Contains(t, msg.Text, "#17")
	require.NotNil(t, msg.Options)
	require.NotNil(t, msg.Options.ReplyMarkup)
	require.Len(t, msg.Options.ReplyMarkup.InlineKeyboard, 1)
	buttons := msg.Options.ReplyMarkup.InlineKeyboard[0]
	require.Len(t, buttons, 2)
	assert.Contains(t, buttons[0].Unique+buttons[0].Data, CallbackApprovePrefix+"17")
	assert.Contains(t, buttons[1].Unique+buttons[1].Data, CallbackDenyPrefix+"17")
}

func TestNotificationService_OnlyNewRequestsAlertModerators(t *testing.T) {
	t.Parallel()
	tg := &recordingTelegram{}
	svc := newTestNotificationService(&memNotificationRepo{}, nil, tg)

	svc.Send(context.Background(), janeID, notification.TypeAlumniApproved, "Approved", "ok", 3)
	svc.Send(context.Background(), janeID, notification.TypeAlumniDenied, "Denied", "no", 4)
	assert.Empty(t, tg.messages)
}

func TestNotificationService_FailuresAreSwallowed(t *testing.T) {
	t.Parallel()
	repo := &memNotificationRepo{createErr: errors.New("db down")}
	pub := &recordingPublisher{err: errors.New("broker down")}
	tg := &recordingTelegram{err: errors.New("telegram down")}
	svc := newTestNotificationService(repo, pub, tg)

	assert.NotPanics(t, func() {
		svc.Send(context.Background(), janeID, notification.TypeAlumniRequestSent, "t", "m", 1)
	})
	assert.Len(t, pub.events, 1, "publishing is attempted even when storing fails")
	assert.Len(t, tg.messages, 1)
}

func TestNotificationService_WithoutOptionalSinks(t *testing.T) {
	t.Parallel()
	repo := &memNotificationRepo{}
	svc := newTestNotificationService(repo, nil, nil)

	svc.Send(context.Background(), janeID, notification.TypeAlumniRequestSent, "t", "m", 0)

	stored, err := repo.ListByUser(context.Background(), janeID, false)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].RelatedID.Valid)
}

func TestNotificationService_MarkRead(t *testing.T) {
	t.Parallel()
	repo := &memNotificationRepo{}
	svc := newTestNotificationService(repo, nil, nil)
	ctx := context.Background()

	svc.Send(ctx, janeID, notification.TypeAlumniApproved, "a", "a", 1)
	svc.Send(ctx, janeID, notification.TypeAlumniDenied, "b", "b", 2)

	all, err := svc.ListForUser(ctx, janeID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, svc.MarkRead(ctx, janeID, all[0].ID))

	unread, err := svc.ListForUser(ctx, janeID, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, all[1].ID, unread[0].ID)

	err = svc.MarkRead(ctx, johnID, all[1].ID)
	assert.ErrorIs(t, err, alumni.ErrNotFound, "users cannot mark other users' notifications")
}
