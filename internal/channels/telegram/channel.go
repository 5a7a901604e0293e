package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/nextlevelbuilder/pingpal/internal/bus"
	"github.com/nextlevelbuilder/pingpal/internal/channels"
	"github.com/nextlevelbuilder/pingpal/internal/config"
)

// Channel connects to Telegram via the Bot API using long polling.
// Inbound group messages are published to the bus; the same bot account is
// used to deliver private alerts and to look up chat titles when the
// stored context lacks one.
type Channel struct {
	*channels.BaseChannel
	bot        *telego.Bot
	config     config.TelegramConfig
	pollCancel context.CancelFunc // cancels the long polling context
	pollDone   chan struct{}      // closed when polling goroutine exits
}

// New creates a new Telegram channel from config.
func New(cfg config.TelegramConfig, msgBus *bus.MessageBus) (*Channel, error) {
	var opts []telego.BotOption

	if cfg.Proxy != "" {
		proxyURL, parseErr := url.Parse(cfg.Proxy)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, parseErr)
		}
		opts = append(opts, telego.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyURL(proxyURL),
			},
		}))
	}

	bot, err := telego.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Channel{
		BaseChannel: channels.NewBaseChannel("telegram", msgBus),
		bot:         bot,
		config:      cfg,
	}, nil
}

// Start begins long polling for Telegram updates.
func (c *Channel) Start(ctx context.Context) error {
	slog.Info("starting telegram bot (polling mode)")

	// Create a cancellable context for the polling goroutine.
	// Stop() cancels this context to cleanly shut down long polling.
	pollCtx, cancel := context.WithCancel(ctx)
	c.pollCancel = cancel
	c.pollDone = make(chan struct{})

	updates, err := c.bot.UpdatesViaLongPolling(pollCtx, &telego.GetUpdatesParams{
		Timeout:        30,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		cancel()
		return fmt.Errorf("start long polling: %w", err)
	}

	c.SetRunning(true)
	slog.Info("telegram bot connected", "username", c.bot.Username())

	go func() {
		defer close(c.pollDone)
		for {
			select {
			case <-pollCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					slog.Info("telegram updates channel closed")
					return
				}
				if update.Message != nil {
					c.handleMessage(update.Message)
				} else {
					slog.Debug("telegram update skipped (no message)", "update_id", update.UpdateID)
				}
			}
		}
	}()

	return nil
}

// handleMessage converts an incoming Telegram message and publishes it.
func (c *Channel) handleMessage(message *telego.Message) {
	msg, ok := convertMessage(message)
	if !ok {
		slog.Debug("telegram message skipped (no text or sender)",
			"chat_id", message.Chat.ID,
			"message_id", message.MessageID,
		)
		return
	}

	slog.Debug("telegram message received",
		"chat_type", message.Chat.Type,
		"chat_id", msg.ChatID,
		"is_group", msg.IsGroup,
		"sender_id", msg.SenderID,
		"message_id", msg.MessageID,
		"text_preview", channels.Truncate(msg.Content, 60),
	)

	c.Publish(msg)
}

// Stop shuts down the Telegram bot by cancelling the long polling context
// and waiting for the polling goroutine to exit.
func (c *Channel) Stop(_ context.Context) error {
	slog.Info("stopping telegram bot")
	c.SetRunning(false)

	if c.pollCancel != nil {
		c.pollCancel()
	}

	// Wait for the polling goroutine to fully exit so that Telegram
	// releases the getUpdates lock before a new instance starts.
	if c.pollDone != nil {
		select {
		case <-c.pollDone:
			slog.Info("telegram bot stopped")
		case <-time.After(10 * time.Second):
			slog.Warn("telegram polling goroutine did not exit within timeout")
		}
	}

	return nil
}

// Send delivers an outbound message to a Telegram chat.
func (c *Channel) Send(ctx context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("telegram bot not running")
	}

	chatID, err := parseChatID(msg.ChatID)
	if err != nil {
		return fmt.Errorf("invalid telegram chat ID %q: %w", msg.ChatID, err)
	}

	if _, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), msg.Content)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// LookupChat fetches chat metadata directly from the Bot API.
// Used as a secondary lookup when an inbound event carried no chat title.
func (c *Channel) LookupChat(ctx context.Context, chatIDStr string) (*channels.ChatInfo, error) {
	chatID, err := parseChatID(chatIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat ID %q: %w", chatIDStr, err)
	}

	chat, err := c.bot.GetChat(ctx, &telego.GetChatParams{ChatID: tu.ID(chatID)})
	if err != nil {
		return nil, fmt.Errorf("get telegram chat: %w", err)
	}

	return &channels.ChatInfo{
		Title:        chat.Title,
		PublicHandle: chat.Username,
	}, nil
}

// parseChatID converts a string chat ID to int64.
func parseChatID(chatIDStr string) (int64, error) {
	return strconv.ParseInt(chatIDStr, 10, 64)
}
