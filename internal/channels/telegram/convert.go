package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/mymmrac/telego"

	"github.com/nextlevelbuilder/pingpal/internal/bus"
)

// convertMessage maps a Telegram message to a bus.InboundMessage.
// Returns false for messages with no sender or no text content (service
// messages, media without caption) — those carry nothing to detect a
// mention in.
func convertMessage(message *telego.Message) (bus.InboundMessage, bool) {
	user := message.From
	if user == nil {
		return bus.InboundMessage{}, false
	}

	text := message.Text
	if text == "" {
		text = message.Caption
	}
	if text == "" {
		return bus.InboundMessage{}, false
	}

	isGroup := message.Chat.Type == telego.ChatTypeGroup || message.Chat.Type == telego.ChatTypeSupergroup

	return bus.InboundMessage{
		Channel:    "telegram",
		MessageID:  fmt.Sprintf("%d:%d", message.Chat.ID, message.MessageID),
		SenderID:   fmt.Sprintf("%d", user.ID),
		SenderName: senderDisplayName(user),
		ChatID:     fmt.Sprintf("%d", message.Chat.ID),
		ChatTitle:  message.Chat.Title,
		IsGroup:    isGroup,
		Content:    text,
		Timestamp:  time.Unix(message.Date, 0).UTC(),
	}, true
}

// senderDisplayName prefers the username, falling back to the full name.
func senderDisplayName(user *telego.User) string {
	if user.Username != "" {
		return user.Username
	}
	name := user.FirstName
	if user.LastName != "" {
		name = strings.TrimSpace(name + " " + user.LastName)
	}
	return name
}
