package bus

import (
	"context"
	"log/slog"
)

const defaultQueueSize = 256

// MessageBus routes inbound messages from channels to the registered handler.
// Each message is dispatched on its own goroutine: delivery is at-least-once
// from the platform's point of view, so handlers must be restart-safe and
// must not rely on in-process state for deduplication.
type MessageBus struct {
	inbound chan InboundMessage
	handler MessageHandler
}

// NewMessageBus creates a message bus with a bounded inbound queue.
func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound: make(chan InboundMessage, defaultQueueSize),
	}
}

// OnInbound registers the handler invoked for every inbound message.
// Must be called before Run.
func (b *MessageBus) OnInbound(h MessageHandler) {
	b.handler = h
}

// PublishInbound enqueues a message for processing. Drops the message with
// a warning when the queue is full rather than blocking the channel's
// receive loop.
func (b *MessageBus) PublishInbound(msg InboundMessage) {
	select {
	case b.inbound <- msg:
	default:
		slog.Warn("inbound queue full, dropping message",
			"channel", msg.Channel,
			"chat_id", msg.ChatID,
			"message_id", msg.MessageID,
		)
	}
}

// Run consumes the inbound queue until ctx is cancelled. Each message gets
// its own goroutine; pipeline runs for distinct messages share no state.
func (b *MessageBus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.inbound:
			go func(m InboundMessage) {
				if b.handler == nil {
					return
				}
				if err := b.handler(m); err != nil {
					slog.Error("inbound message handler failed",
						"channel", m.Channel,
						"chat_id", m.ChatID,
						"message_id", m.MessageID,
						"error", err,
					)
				}
			}(msg)
		}
	}
}
