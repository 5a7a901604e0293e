package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/nextlevelbuilder/pingpal/internal/bus"
	"github.com/nextlevelbuilder/pingpal/internal/channels"
	"github.com/nextlevelbuilder/pingpal/internal/config"
)

// Channel connects to Discord via the Bot API using gateway events.
type Channel struct {
	*channels.BaseChannel
	session   *discordgo.Session
	config    config.DiscordConfig
	botUserID string // populated on start
}

// New creates a new Discord channel from config.
func New(cfg config.DiscordConfig, msgBus *bus.MessageBus) (*Channel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	// Request necessary intents
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &Channel{
		BaseChannel: channels.NewBaseChannel("discord", msgBus),
		session:     session,
		config:      cfg,
	}, nil
}

// Start opens the Discord gateway connection and begins receiving events.
func (c *Channel) Start(_ context.Context) error {
	slog.Info("starting discord bot")

	c.session.AddHandler(c.handleMessage)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	// Fetch bot identity
	user, err := c.session.User("@me")
	if err != nil {
		c.session.Close()
		return fmt.Errorf("fetch discord bot identity: %w", err)
	}
	c.botUserID = user.ID

	c.SetRunning(true)
	slog.Info("discord bot connected", "username", user.Username, "id", user.ID)

	return nil
}

// Stop closes the Discord gateway connection.
func (c *Channel) Stop(_ context.Context) error {
	slog.Info("stopping discord bot")
	c.SetRunning(false)
	return c.session.Close()
}

// handleMessage converts an incoming Discord message and publishes it.
func (c *Channel) handleMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == c.botUserID || m.Author.Bot {
		return
	}
	if m.Content == "" {
		return
	}

	isGuild := m.GuildID != ""

	slog.Debug("discord message received",
		"channel_id", m.ChannelID,
		"guild_id", m.GuildID,
		"sender_id", m.Author.ID,
		"message_id", m.ID,
		"text_preview", channels.Truncate(m.Content, 60),
	)

	c.Publish(bus.InboundMessage{
		Channel:    "discord",
		MessageID:  m.ID,
		SenderID:   m.Author.ID,
		SenderName: m.Author.Username,
		ChatID:     m.ChannelID,
		IsGroup:    isGuild,
		Content:    m.Content,
		Timestamp:  m.Timestamp.UTC(),
	})
}

// Send delivers an outbound message to a Discord channel.
// For alerting a user, ChatID should be the DM channel with that user.
func (c *Channel) Send(_ context.Context, msg bus.OutboundMessage) error {
	if !c.IsRunning() {
		return fmt.Errorf("discord bot not running")
	}
	if msg.ChatID == "" {
		return fmt.Errorf("empty chat ID for discord send")
	}

	if _, err := c.session.ChannelMessageSend(msg.ChatID, msg.Content); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}

// LookupChat fetches channel metadata from the Discord API.
// Discord channels have no public join handle, so PublicHandle stays empty.
func (c *Channel) LookupChat(_ context.Context, chatID string) (*channels.ChatInfo, error) {
	ch, err := c.session.Channel(chatID)
	if err != nil {
		return nil, fmt.Errorf("get discord channel: %w", err)
	}
	return &channels.ChatInfo{Title: ch.Name}, nil
}
