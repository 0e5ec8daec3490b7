// internal/infra/telegram/moderation_handlers.go
package telegram

import (
	"context"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterModerationHandlers registers the moderator commands and the inline
// button callback used on new-request alerts.
func RegisterModerationHandlers(ctx context.Context, b *telebot.Bot, moderator *Moderator) {
	b.Handle("/approve", func(c telebot.Context) error {
		return c.Send(moderator.Approve(ctx, c.Sender().ID, c.Args()))
	})

	b.Handle("/deny", func(c telebot.Context) error {
		return c.Send(moderator.Deny(ctx, c.Sender().ID, c.Args()))
	})

	b.Handle("/delete_badge", func(c telebot.Context) error {
		return c.Send(moderator.DeleteBadge(ctx, c.Sender().ID, c.Args()))
	})

	b.Handle("/pending", func(c telebot.Context) error {
		return c.Send(moderator.Pending(ctx, c.Sender().ID, c.Args()))
	})

	b.Handle(telebot.OnCallback, func(c telebot.Context) error {
		reply := moderator.HandleCallback(ctx, c.Sender().ID, c.Callback().Data)
		return c.Respond(&telebot.CallbackResponse{Text: reply})
	})
}

// RegisterBotCommands registers /start and /help.
func RegisterBotCommands(b *telebot.Bot, moderator *Moderator, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		startHelpLogger.WithFields(logrus.Fields{"command": "/start", "sender_id": senderID}).Info("Processing /start command")
		return c.Send(startText(moderator.IsModerator(senderID), c.Sender().FirstName))
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		startHelpLogger.WithFields(logrus.Fields{"command": "/help", "sender_id": senderID}).Info("Processing /help command")
		if !moderator.IsModerator(senderID) {
			return c.Send(helpText(false))
		}
		return c.Send(helpText(true), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}
