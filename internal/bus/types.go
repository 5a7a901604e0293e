package bus

import "time"

// InboundMessage represents a message received from a channel (Telegram, Discord, etc.)
type InboundMessage struct {
	Channel    string            `json:"channel"`
	MessageID  string            `json:"message_id"` // platform-assigned ID, stable across redeliveries
	SenderID   string            `json:"sender_id"`
	SenderName string            `json:"sender_name,omitempty"`
	ChatID     string            `json:"chat_id"`
	ChatTitle  string            `json:"chat_title,omitempty"`
	IsGroup    bool              `json:"is_group"`
	Content    string            `json:"content"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// OutboundMessage represents a message to be sent to a channel.
type OutboundMessage struct {
	Channel  string            `json:"channel"`
	ChatID   string            `json:"chat_id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MessageHandler handles an inbound message from a specific channel.
type MessageHandler func(InboundMessage) error
