package telegram

import "gopkg.in/telebot.v3"

// Client sends messages to a Telegram chat. The moderation relay and the
// review digest depend on this rather than on the bot itself.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
