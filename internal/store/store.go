// Package store defines the persistent record of processed mentions.
// The store is the sole source of deduplication truth: the pipeline keeps
// no in-memory dedup cache, so correctness survives process restarts as
// long as the store does.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProcessedMention is the persisted outcome of one pipeline run.
// Written once per detected mention, never mutated, never deleted here
// (retention is an operator concern).
type ProcessedMention struct {
	ID                uuid.UUID
	AgentID           string // identifies this watcher instance's record scope
	ChatID            string
	MessageID         string // platform message ID, the deduplication key
	Important         bool
	Reason            string
	SenderID          string
	SenderName        string
	ChatTitle         string
	MessageText       string
	OriginalTimestamp time.Time
	CreatedAt         time.Time
}

// MentionStore persists and queries ProcessedMention records.
//
// RecentMentions returns up to limit records for the agent+chat scope,
// newest first. There is deliberately no query-by-message-ID: the caller
// scans the bounded window for an exact match, accepting a theoretical
// staleness gap when more than limit mentions land in one chat between
// restarts. Any error from either method means the store is unavailable;
// callers must not guess an answer in that case.
type MentionStore interface {
	RecentMentions(ctx context.Context, agentID, chatID string, limit int) ([]ProcessedMention, error)
	RecordMention(ctx context.Context, rec ProcessedMention) (uuid.UUID, error)
	Close() error
}
