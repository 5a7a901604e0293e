package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nextlevelbuilder/pingpal/internal/bus"
	"github.com/nextlevelbuilder/pingpal/internal/classifier"
	"github.com/nextlevelbuilder/pingpal/internal/store"
)

// memStore is an in-memory MentionStore with switchable failures.
type memStore struct {
	records    []store.ProcessedMention
	queryErr   error
	writeErr   error
	queryCalls int
}

func (m *memStore) RecentMentions(_ context.Context, agentID, chatID string, limit int) ([]store.ProcessedMention, error) {
	m.queryCalls++
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	var out []store.ProcessedMention
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		rec := m.records[i]
		if rec.AgentID == agentID && rec.ChatID == chatID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memStore) RecordMention(_ context.Context, rec store.ProcessedMention) (uuid.UUID, error) {
	if m.writeErr != nil {
		return uuid.Nil, m.writeErr
	}
	rec.ID = uuid.Must(uuid.NewV7())
	m.records = append(m.records, rec)
	return rec.ID, nil
}

func (m *memStore) Close() error { return nil }

// stubClassifier returns a fixed verdict and counts calls.
type stubClassifier struct {
	verdict classifier.Verdict
	calls   int
}

func (s *stubClassifier) Classify(context.Context, bus.InboundMessage) classifier.Verdict {
	s.calls++
	return s.verdict
}

// spyAlerter records notifications. Its events slice is also used to check
// ordering against store writes.
type spyAlerter struct {
	st      *memStore
	calls   int
	reasons []string
	// records seen in the store at the moment of each Notify call
	recordsAtNotify []int
}

func (s *spyAlerter) Notify(_ context.Context, _ bus.InboundMessage, reason string) {
	s.calls++
	s.reasons = append(s.reasons, reason)
	if s.st != nil {
		s.recordsAtNotify = append(s.recordsAtNotify, len(s.st.records))
	}
}

func urgentMessage() bus.InboundMessage {
	return bus.InboundMessage{
		Channel:    "telegram",
		MessageID:  "-1:100",
		SenderID:   "7",
		SenderName: "bob",
		ChatID:     "-1",
		ChatTitle:  "infra",
		Content:    "hey @alice can you help, this is urgent",
		Timestamp:  time.Unix(1700000000, 0),
	}
}

func newPipeline(st *memStore, cls *stubClassifier, al *spyAlerter) *Pipeline {
	return New("pingpal", "alice", 50, st, cls, al)
}

func TestHandle_ImportantMention(t *testing.T) {
	st := &memStore{}
	cls := &stubClassifier{verdict: classifier.Verdict{Important: true, Reason: "urgent help request"}}
	al := &spyAlerter{st: st}
	p := newPipeline(st, cls, al)

	if err := p.Handle(context.Background(), urgentMessage()); err != nil {
		t.Fatal(err)
	}

	if cls.calls != 1 {
		t.Errorf("classifier calls = %d, want 1", cls.calls)
	}
	if len(st.records) != 1 {
		t.Fatalf("records = %d, want 1", len(st.records))
	}
	rec := st.records[0]
	if rec.MessageID != "-1:100" || !rec.Important || rec.Reason != "urgent help request" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.OriginalTimestamp.Unix() != 1700000000 {
		t.Errorf("OriginalTimestamp = %d, want original message time", rec.OriginalTimestamp.Unix())
	}
	if al.calls != 1 || al.reasons[0] != "urgent help request" {
		t.Errorf("alerter calls = %d reasons = %v", al.calls, al.reasons)
	}
}

func TestHandle_RecordWrittenBeforeNotify(t *testing.T) {
	st := &memStore{}
	cls := &stubClassifier{verdict: classifier.Verdict{Important: true, Reason: "r"}}
	al := &spyAlerter{st: st}
	p := newPipeline(st, cls, al)

	if err := p.Handle(context.Background(), urgentMessage()); err != nil {
		t.Fatal(err)
	}
	if len(al.recordsAtNotify) != 1 || al.recordsAtNotify[0] != 1 {
		t.Errorf("record must be persisted before Notify; store had %v records at notify time", al.recordsAtNotify)
	}
}

func TestHandle_NoMention(t *testing.T) {
	st := &memStore{}
	cls := &stubClassifier{}
	al := &spyAlerter{}
	p := newPipeline(st, cls, al)

	msg := urgentMessage()
	msg.Content = "see you tomorrow"
	if err := p.Handle(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	if st.queryCalls != 0 || cls.calls != 0 || al.calls != 0 || len(st.records) != 0 {
		t.Error("no pipeline stage should run without a mention")
	}
}

func TestHandle_EmptyTargetHandle(t *testing.T) {
	st := &memStore{}
	cls := &stubClassifier{}
	al := &spyAlerter{}
	p := New("pingpal", "", 50, st, cls, al)

	if err := p.Handle(context.Background(), urgentMessage()); err != nil {
		t.Fatal(err)
	}
	if cls.calls != 0 || al.calls != 0 {
		t.Error("empty target handle must disable detection entirely")
	}
}

func TestHandle_DuplicateShortCircuits(t *testing.T) {
	st := &memStore{}
	cls := &stubClassifier{verdict: classifier.Verdict{Important: true, Reason: "r"}}
	al := &spyAlerter{st: st}
	p := newPipeline(st, cls, al)

	msg := urgentMessage()
	if err := p.Handle(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	// Same identifier redelivered.
	if err := p.Handle(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	if cls.calls != 1 {
		t.Errorf("classifier calls = %d, want 1 (second delivery must short-circuit)", cls.calls)
	}
	if al.calls != 1 {
		t.Errorf("alerter calls = %d, want 1", al.calls)
	}
	if len(st.records) != 1 {
		t.Errorf("records = %d, want 1", len(st.records))
	}
}

func TestHandle_StoreUnavailableAborts(t *testing.T) {
	st := &memStore{queryErr: fmt.Errorf("connection refused")}
	cls := &stubClassifier{verdict: classifier.Verdict{Important: true, Reason: "r"}}
	al := &spyAlerter{}
	p := newPipeline(st, cls, al)

	err := p.Handle(context.Background(), urgentMessage())
	if err == nil {
		t.Fatal("store failure on duplicate check must abort the run")
	}
	if cls.calls != 0 || al.calls != 0 {
		t.Error("no classification or notification may happen when the duplicate check fails")
	}
}

func TestHandle_ClassifierSafeDefaultStillRecorded(t *testing.T) {
	// The classifier itself absorbs failures into the safe default; the
	// pipeline must record that verdict and send nothing.
	st := &memStore{}
	cls := &stubClassifier{verdict: classifier.Verdict{Important: false, Reason: classifier.FailedReason}}
	al := &spyAlerter{}
	p := newPipeline(st, cls, al)

	if err := p.Handle(context.Background(), urgentMessage()); err != nil {
		t.Fatal(err)
	}
	if len(st.records) != 1 {
		t.Fatalf("records = %d, want 1 (outcome recorded despite failed analysis)", len(st.records))
	}
	if st.records[0].Important || st.records[0].Reason != classifier.FailedReason {
		t.Errorf("unexpected record: %+v", st.records[0])
	}
	if al.calls != 0 {
		t.Error("not-important verdict must not notify")
	}
}

func TestHandle_RecordFailureIsNonFatal(t *testing.T) {
	st := &memStore{writeErr: fmt.Errorf("disk full")}
	cls := &stubClassifier{verdict: classifier.Verdict{Important: true, Reason: "r"}}
	al := &spyAlerter{}
	p := newPipeline(st, cls, al)

	if err := p.Handle(context.Background(), urgentMessage()); err != nil {
		t.Fatalf("record failure must not fail the run: %v", err)
	}
	if al.calls != 1 {
		t.Error("notification still fires for this single uncommitted occurrence")
	}
}

func TestHandle_MissingMessageID(t *testing.T) {
	st := &memStore{}
	cls := &stubClassifier{verdict: classifier.Verdict{Important: true, Reason: "r"}}
	al := &spyAlerter{}
	p := newPipeline(st, cls, al)

	msg := urgentMessage()
	msg.MessageID = ""
	if err := p.Handle(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if cls.calls != 0 || al.calls != 0 || len(st.records) != 0 {
		t.Error("message without a durable identifier must be skipped")
	}
}

func TestHandle_DedupWindowBound(t *testing.T) {
	// A record older than the window cap is no longer seen: the bounded
	// scan is a documented trade-off, verified here so a change to it is
	// deliberate.
	st := &memStore{}
	cls := &stubClassifier{verdict: classifier.Verdict{Important: false, Reason: "r"}}
	al := &spyAlerter{}
	p := New("pingpal", "alice", 2, st, cls, al)

	old := urgentMessage()
	if err := p.Handle(context.Background(), old); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		m := urgentMessage()
		m.MessageID = fmt.Sprintf("-1:%d", 200+i)
		if err := p.Handle(context.Background(), m); err != nil {
			t.Fatal(err)
		}
	}

	// The first message is now outside the window of 2 → reprocessed.
	if err := p.Handle(context.Background(), old); err != nil {
		t.Fatal(err)
	}
	if cls.calls != 4 {
		t.Errorf("classifier calls = %d, want 4 (record aged out of dedup window)", cls.calls)
	}
}
