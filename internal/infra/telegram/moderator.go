package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"yearbook_alumni/internal/app"
	"yearbook_alumni/internal/domain/alumni"

	"github.com/sirupsen/logrus"
)

const msgUnauthorized = "Error: you are not allowed to moderate alumni requests."

// Moderator turns moderator commands into engine calls and reply text.
// Only moderatorChatID may act; its actions are recorded as moderatorUserID.
type Moderator struct {
	engine          app.AlumniEngine
	moderatorChatID int64
	moderatorUserID int64
	logger          *logrus.Entry
}

func NewModerator(engine app.AlumniEngine, moderatorChatID, moderatorUserID int64, logger *logrus.Entry) *Moderator {
	return &Moderator{
		engine:          engine,
		moderatorChatID: moderatorChatID,
		moderatorUserID: moderatorUserID,
		logger:          logger.WithField("component", "telegram_moderator"),
	}
}

func (m *Moderator) IsModerator(senderID int64) bool {
	return senderID == m.moderatorChatID
}

// Approve handles `/approve <requestID> [notes]`.
func (m *Moderator) Approve(ctx context.Context, senderID int64, args []string) string {
	log := m.logger.WithFields(logrus.Fields{"handler": "/approve", "sender_id": senderID})
	if !m.IsModerator(senderID) {
		log.Warn("Unauthorized access attempt")
		return msgUnauthorized
	}
	requestID, notes, ok := parseReviewArgs(args)
	if !ok {
		return "Invalid command format. Use: /approve <RequestID> [notes]"
	}
	return m.approve(ctx, log, requestID, notes)
}

// Deny handles `/deny <requestID> [notes]`.
func (m *Moderator) Deny(ctx context.Context, senderID int64, args []string) string {
	log := m.logger.WithFields(logrus.Fields{"handler": "/deny", "sender_id": senderID})
	if !m.IsModerator(senderID) {
		log.Warn("Unauthorized access attempt")
		return msgUnauthorized
	}
	requestID, notes, ok := parseReviewArgs(args)
	if !ok {
		return "Invalid command format. Use: /deny <RequestID> [notes]"
	}
	return m.deny(ctx, log, requestID, notes)
}

// DeleteBadge handles `/delete_badge <badgeID>`.
func (m *Moderator) DeleteBadge(ctx context.Context, senderID int64, args []string) string {
	log := m.logger.WithFields(logrus.Fields{"handler": "/delete_badge", "sender_id": senderID})
	if !m.IsModerator(senderID) {
		log.Warn("Unauthorized access attempt")
		return msgUnauthorized
	}
	if len(args) != 1 {
		return "Invalid command format. Use: /delete_badge <BadgeID>"
	}
	badgeID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || badgeID <= 0 {
		return "Error: BadgeID must be a positive number."
	}
	log = log.WithField("badge_id", badgeID)

	if err := m.engine.DeleteBadge(ctx, badgeID, m.moderatorUserID); err != nil {
		return replyForError(log, err, "Failed to delete badge")
	}
	log.Info("Badge deleted by moderator")
	return fmt.Sprintf("Badge #%d deleted. Its owner cannot re-request verification from that school for 3 months.", badgeID)
}

// Pending handles `/pending <schoolID>`.
func (m *Moderator) Pending(ctx context.Context, senderID int64, args []string) string {
	log := m.logger.WithFields(logrus.Fields{"handler": "/pending", "sender_id": senderID})
	if !m.IsModerator(senderID) {
		log.Warn("Unauthorized access attempt")
		return msgUnauthorized
	}
	if len(args) != 1 {
		return "Invalid command format. Use: /pending <SchoolID>"
	}
	schoolID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || schoolID <= 0 {
		return "Error: SchoolID must be a positive number."
	}

	requests, err := m.engine.ListRequestsForSchool(ctx, schoolID)
	if err != nil {
		return replyForError(log, err, "Failed to list requests")
	}

	var b strings.Builder
	count := 0
	for _, r := range requests {
		if r.Status != alumni.RequestStatusPending {
			continue
		}
		if count == 0 {
			b.WriteString(fmt.Sprintf("--- Pending requests for school %d ---\n", schoolID))
		}
		count++
		b.WriteString(fmt.Sprintf("#%d %s, admitted %s, graduation: %s (user %d, %s)\n",
			r.ID, r.FullName, r.AdmissionYear, r.GraduationYear, r.UserID, r.CreatedAt.Format("2006-01-02")))
	}
	log.WithField("pending_count", count).Info("Listed pending requests")
	if count == 0 {
		return fmt.Sprintf("No pending alumni requests for school %d.", schoolID)
	}
	return b.String()
}

// HandleCallback handles the inline Approve/Deny buttons on moderator alerts.
// It returns the short text shown in the callback response.
func (m *Moderator) HandleCallback(ctx context.Context, senderID int64, data string) string {
	log := m.logger.WithFields(logrus.Fields{"handler": "callback", "sender_id": senderID})
	if !m.IsModerator(senderID) {
		log.Warn("Unauthorized callback")
		return msgUnauthorized
	}

	action, requestID, err := parseCallbackData(data)
	if err != nil {
		log.WithError(err).Warn("Unrecognised callback data")
		return "Unknown action."
	}
	switch action {
	case app.CallbackApprovePrefix:
		return m.approve(ctx, log, requestID, "")
	default:
		return m.deny(ctx, log, requestID, "")
	}
}

func (m *Moderator) approve(ctx context.Context, log *logrus.Entry, requestID int64, notes string) string {
	log = log.WithField("request_id", requestID)
	res, err := m.engine.ApproveRequest(ctx, requestID, m.moderatorUserID, notes)
	if err != nil {
		return replyForError(log, err, "Failed to approve request")
	}
	log.Info("Request approved by moderator")
	if res.Badge == nil {
		return fmt.Sprintf("Request #%d approved and %s added to the alumni directory, but no pending badge was found to verify.",
			requestID, res.Request.FullName)
	}
	return fmt.Sprintf("Request #%d approved. %s's badge for %s is now verified.", requestID, res.Request.FullName, res.Badge.School)
}

func (m *Moderator) deny(ctx context.Context, log *logrus.Entry, requestID int64, notes string) string {
	log = log.WithField("request_id", requestID)
	res, err := m.engine.DenyRequest(ctx, requestID, m.moderatorUserID, notes)
	if err != nil {
		return replyForError(log, err, "Failed to deny request")
	}
	log.Info("Request denied by moderator")
	reply := fmt.Sprintf("Request #%d from %s denied.", requestID, res.Request.FullName)
	if !res.BadgeRemoved {
		reply += " No pending badge was found to remove."
	}
	return reply
}

func replyForError(log *logrus.Entry, err error, msg string) string {
	if errors.Is(err, alumni.ErrInternalInconsistency) || !isEngineError(err) {
		log.WithError(err).Error(msg)
	} else {
		log.WithError(err).Warn(msg)
	}
	return "Error: " + alumni.UserMessage(err)
}

func isEngineError(err error) bool {
	var e *alumni.Error
	return errors.As(err, &e)
}

func parseReviewArgs(args []string) (int64, string, bool) {
	if len(args) < 1 {
		return 0, "", false
	}
	requestID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || requestID <= 0 {
		return 0, "", false
	}
	return requestID, strings.Join(args[1:], " "), true
}

// parseCallbackData splits "req_approve_12" into its prefix and request id.
// Telebot prefixes unique button data with \f when no unique handler exists.
func parseCallbackData(data string) (string, int64, error) {
	data = strings.TrimPrefix(data, "\f")
	for _, prefix := range []string{app.CallbackApprovePrefix, app.CallbackDenyPrefix} {
		if !strings.HasPrefix(data, prefix) {
			continue
		}
		idStr := strings.TrimPrefix(data, prefix)
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			return "", 0, fmt.Errorf("invalid request id %q in callback data", idStr)
		}
		return prefix, id, nil
	}
	return "", 0, fmt.Errorf("unhandled callback data: %s", data)
}
