// Package sqlite implements the mention store on an embedded SQLite
// database, the default for standalone deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/pingpal/internal/store"
)

// MentionStore implements store.MentionStore backed by SQLite.
type MentionStore struct {
	db *sql.DB
}

// New opens (creating if needed) the SQLite database at path and ensures
// the schema exists.
func New(path string) (*MentionStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS processed_mentions (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			chat_id TEXT NOT NULL,
			message_id TEXT NOT NULL,
			important INTEGER NOT NULL,
			reason TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			sender_name TEXT NOT NULL DEFAULT '',
			chat_title TEXT NOT NULL DEFAULT '',
			message_text TEXT NOT NULL DEFAULT '',
			original_ts INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create processed_mentions table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_processed_mentions_scope
		ON processed_mentions(agent_id, chat_id, created_at DESC)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create scope index: %w", err)
	}

	return &MentionStore{db: db}, nil
}

// Close closes the database connection.
func (s *MentionStore) Close() error {
	return s.db.Close()
}

// RecentMentions returns up to limit records for the agent+chat scope,
// newest first.
func (s *MentionStore) RecentMentions(ctx context.Context, agentID, chatID string, limit int) ([]store.ProcessedMention, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent_id, chat_id, message_id, important, reason,
		       sender_id, sender_name, chat_title, message_text, original_ts, created_at
		FROM processed_mentions
		WHERE agent_id = ? AND chat_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, agentID, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent mentions: %w", err)
	}
	defer rows.Close()

	var records []store.ProcessedMention
	for rows.Next() {
		var rec store.ProcessedMention
		var id string
		var important int64
		var originalTS, createdAt int64
		if err := rows.Scan(&id, &rec.AgentID, &rec.ChatID, &rec.MessageID, &important, &rec.Reason,
			&rec.SenderID, &rec.SenderName, &rec.ChatTitle, &rec.MessageText, &originalTS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan mention row: %w", err)
		}
		rec.ID, _ = uuid.Parse(id)
		rec.Important = important != 0
		rec.OriginalTimestamp = time.Unix(originalTS, 0).UTC()
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mention rows: %w", err)
	}

	return records, nil
}

// RecordMention persists a new processed-mention record and returns its ID.
func (s *MentionStore) RecordMention(ctx context.Context, rec store.ProcessedMention) (uuid.UUID, error) {
	id := rec.ID
	if id == uuid.Nil {
		id = uuid.Must(uuid.NewV7())
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	important := 0
	if rec.Important {
		important = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_mentions
			(id, agent_id, chat_id, message_id, important, reason,
			 sender_id, sender_name, chat_title, message_text, original_ts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id.String(), rec.AgentID, rec.ChatID, rec.MessageID, important, rec.Reason,
		rec.SenderID, rec.SenderName, rec.ChatTitle, rec.MessageText,
		rec.OriginalTimestamp.Unix(), createdAt.Unix())
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert processed mention: %w", err)
	}

	return id, nil
}
