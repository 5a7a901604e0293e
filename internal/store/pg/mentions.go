// Package pg implements the mention store on Postgres for managed
// deployments. Schema is applied via the migrate command, not at open.
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nextlevelbuilder/pingpal/internal/store"
)

// OpenDB opens a Postgres connection pool from a DSN.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// MentionStore implements store.MentionStore backed by Postgres.
type MentionStore struct {
	db *sql.DB
}

// New wraps an open Postgres handle.
func New(db *sql.DB) *MentionStore {
	return &MentionStore{db: db}
}

// Close closes the connection pool.
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
		WHERE agent_id = $1 AND chat_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, agentID, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent mentions: %w", err)
	}
	defer rows.Close()

	var records []store.ProcessedMention
	for rows.Next() {
		var rec store.ProcessedMention
		if err := rows.Scan(&rec.ID, &rec.AgentID, &rec.ChatID, &rec.MessageID, &rec.Important, &rec.Reason,
			&rec.SenderID, &rec.SenderName, &rec.ChatTitle, &rec.MessageText,
			&rec.OriginalTimestamp, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan mention row: %w", err)
		}
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_mentions
			(id, agent_id, chat_id, message_id, important, reason,
			 sender_id, sender_name, chat_title, message_text, original_ts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, id, rec.AgentID, rec.ChatID, rec.MessageID, rec.Important, rec.Reason,
		rec.SenderID, rec.SenderName, rec.ChatTitle, rec.MessageText,
		rec.OriginalTimestamp.UTC(), createdAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert processed mention: %w", err)
	}

	return id, nil
}
