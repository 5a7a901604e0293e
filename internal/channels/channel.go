// Package channels provides the channel abstraction layer connecting chat
// platforms (Telegram, Discord) to the mention pipeline via the message bus.
package channels

import (
	"context"

	"github.com/nextlevelbuilder/pingpal/internal/bus"
)

// Channel defines the interface that all channel implementations must satisfy.
// A channel is both an event source (inbound group messages published to the
// bus) and a delivery channel (outbound private alerts).
type Channel interface {
	// Name returns the channel identifier (e.g., "telegram", "discord").
	Name() string

	// Start begins listening for messages. Should be non-blocking after setup.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the channel.
	Stop(ctx context.Context) error

	// Send delivers an outbound message to the channel.
	Send(ctx context.Context, msg bus.OutboundMessage) error

	// IsRunning returns whether the channel is actively processing messages.
	IsRunning() bool
}

// ChatInfo is directory metadata for a chat, used when the inbound event
// did not carry a usable title.
type ChatInfo struct {
	Title        string
	PublicHandle string // public username of the chat, empty for private groups
}

// Directory is the optional secondary lookup a channel can expose for
// resolving chat display context straight from the platform.
type Directory interface {
	LookupChat(ctx context.Context, chatID string) (*ChatInfo, error)
}

// BaseChannel provides shared functionality for all channel implementations.
// Channel implementations should embed this struct.
type BaseChannel struct {
	name    string
	bus     *bus.MessageBus
	running bool
}

// NewBaseChannel creates a new BaseChannel with the given parameters.
func NewBaseChannel(name string, msgBus *bus.MessageBus) *BaseChannel {
	return &BaseChannel{name: name, bus: msgBus}
}

// Name returns the channel name.
func (c *BaseChannel) Name() string { return c.name }

// IsRunning returns whether the channel is running.
func (c *BaseChannel) IsRunning() bool { return c.running }

// SetRunning updates the running state.
func (c *BaseChannel) SetRunning(running bool) { c.running = running }

// Publish forwards an inbound message to the bus.
func (c *BaseChannel) Publish(msg bus.InboundMessage) {
	c.bus.PublishInbound(msg)
}

// Truncate shortens a string for log previews.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
