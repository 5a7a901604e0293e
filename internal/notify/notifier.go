// Package notify composes and delivers the private alert for an important
// mention. Delivery is best-effort: every failure here is logged and
// swallowed, because a failed alert must never fail the pipeline run or
// cause the message to be reprocessed.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/pingpal/internal/bus"
	"github.com/nextlevelbuilder/pingpal/internal/channels"
)

const placeholderName = "Unknown"

// Notifier sends mention alerts through a delivery channel.
type Notifier struct {
	channel       channels.Channel
	recipientChat string
	limiter       *rate.Limiter
}

// New creates a notifier delivering to recipientChat via channel.
// channel may be nil (no delivery channel configured) and recipientChat may
// be empty; both degrade every Notify call to a logged no-op.
// alertsPerMinute bounds alert volume; excess alerts are dropped, not queued.
func New(channel channels.Channel, recipientChat string, alertsPerMinute int) *Notifier {
	if alertsPerMinute <= 0 {
		alertsPerMinute = 10
	}
	return &Notifier{
		channel:       channel,
		recipientChat: recipientChat,
		limiter:       rate.NewLimiter(rate.Limit(float64(alertsPerMinute)/60.0), alertsPerMinute),
	}
}

// Notify sends one alert for an important mention. Never returns an error:
// all failure modes are terminal for this call only.
func (n *Notifier) Notify(ctx context.Context, msg bus.InboundMessage, reason string) {
	if n.channel == nil || !n.channel.IsRunning() {
		slog.Error("notification skipped: delivery channel unavailable",
			"message_id", msg.MessageID,
		)
		return
	}
	if n.recipientChat == "" {
		slog.Error("notification skipped: recipient chat not configured",
			"message_id", msg.MessageID,
		)
		return
	}
	if !n.limiter.Allow() {
		slog.Warn("notification dropped by rate cap",
			"recipient", n.recipientChat,
			"message_id", msg.MessageID,
		)
		return
	}

	text := n.composeAlert(ctx, msg, reason)

	err := n.channel.Send(ctx, bus.OutboundMessage{
		Channel: n.channel.Name(),
		ChatID:  n.recipientChat,
		Content: text,
	})
	if err != nil {
		slog.Error("failed to send mention alert",
			"recipient", n.recipientChat,
			"message_id", msg.MessageID,
			"error", err,
		)
		return
	}

	slog.Info("mention alert sent",
		"recipient", n.recipientChat,
		"message_id", msg.MessageID,
	)
}

// composeAlert builds the fixed alert template. All user-influenced strings
// are escaped; a missing chat title triggers one secondary lookup against
// the channel's own directory, degrading to a placeholder on failure.
func (n *Notifier) composeAlert(ctx context.Context, msg bus.InboundMessage, reason string) string {
	senderName := msg.SenderName
	if senderName == "" {
		senderName = placeholderName
	}

	chatTitle := msg.ChatTitle
	publicHandle := ""
	if chatTitle == "" {
		chatTitle, publicHandle = n.lookupChatContext(ctx, msg.ChatID)
	}

	text := fmt.Sprintf(
		"🔔 PingPal Alert: Important Mention\n\nFrom: %s\nGroup: %s\n\nReason: %s\n\nOriginal Message:\n```\n%s\n```",
		EscapeMarkdownV2(senderName),
		EscapeMarkdownV2(chatTitle),
		EscapeMarkdownV2(reason),
		EscapeMarkdownV2(msg.Content),
	)
	if publicHandle != "" {
		text += fmt.Sprintf("\n\nGroup link: https://t.me/%s", publicHandle)
	}
	return text
}

// lookupChatContext resolves a chat title straight from the platform when
// the inbound event carried none. Failures degrade to a placeholder.
func (n *Notifier) lookupChatContext(ctx context.Context, chatID string) (title, publicHandle string) {
	dir, ok := n.channel.(channels.Directory)
	if !ok {
		return placeholderName, ""
	}

	info, err := dir.LookupChat(ctx, chatID)
	if err != nil || info == nil || info.Title == "" {
		slog.Warn("could not resolve chat title from platform directory",
			"chat_id", chatID,
			"error", err,
		)
		return placeholderName, ""
	}
	return info.Title, info.PublicHandle
}
