package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nextlevelbuilder/pingpal/internal/store"
)

func newTestStore(t *testing.T) *MentionStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "pingpal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecentMentions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.RecordMention(ctx, store.ProcessedMention{
		AgentID:           "pingpal",
		ChatID:            "-100",
		MessageID:         "-100:1",
		Important:         true,
		Reason:            "deadline question",
		SenderID:          "7",
		SenderName:        "bob",
		ChatTitle:         "infra",
		MessageText:       "hey @alice deadline today?",
		OriginalTimestamp: time.Unix(1700000000, 0),
	})
	if err != nil {
		t.Fatal(err)
	}

	records, err := s.RecentMentions(ctx, "pingpal", "-100", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.ID != id {
		t.Errorf("ID = %v, want %v", rec.ID, id)
	}
	if rec.MessageID != "-100:1" {
		t.Errorf("MessageID = %q, want '-100:1'", rec.MessageID)
	}
	if !rec.Important || rec.Reason != "deadline question" {
		t.Errorf("verdict not round-tripped: important=%v reason=%q", rec.Important, rec.Reason)
	}
	if rec.OriginalTimestamp.Unix() != 1700000000 {
		t.Errorf("OriginalTimestamp = %d, want 1700000000", rec.OriginalTimestamp.Unix())
	}
}

func TestRecentMentionsScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, rec := range []store.ProcessedMention{
		{AgentID: "pingpal", ChatID: "-1", MessageID: "-1:1"},
		{AgentID: "pingpal", ChatID: "-2", MessageID: "-2:1"},
		{AgentID: "other", ChatID: "-1", MessageID: "-1:2"},
	} {
		rec.OriginalTimestamp = time.Now()
		if _, err := s.RecordMention(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	records, err := s.RecentMentions(ctx, "pingpal", "-1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (scope must filter by agent and chat)", len(records))
	}
	if records[0].MessageID != "-1:1" {
		t.Errorf("MessageID = %q, want '-1:1'", records[0].MessageID)
	}
}

func TestRecentMentionsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := s.RecordMention(ctx, store.ProcessedMention{
			AgentID:           "pingpal",
			ChatID:            "-1",
			MessageID:         string(rune('a' + i)),
			OriginalTimestamp: base,
			CreatedAt:         base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	records, err := s.RecentMentions(ctx, "pingpal", "-1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want window of 3", len(records))
	}
	// Newest first.
	if records[0].MessageID != "e" {
		t.Errorf("first record MessageID = %q, want 'e' (newest first)", records[0].MessageID)
	}
}
