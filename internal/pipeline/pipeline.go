// Package pipeline sequences mention detection, deduplication,
// classification, outcome recording and notification for every inbound
// message.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/pingpal/internal/bus"
	"github.com/nextlevelbuilder/pingpal/internal/classifier"
	"github.com/nextlevelbuilder/pingpal/internal/mention"
	"github.com/nextlevelbuilder/pingpal/internal/store"
)

// Alerter sends the private alert for an important mention. Implementations
// must be best-effort: Notify never reports failure to the pipeline.
type Alerter interface {
	Notify(ctx context.Context, msg bus.InboundMessage, reason string)
}

// Classifier produces an importance verdict for one mention.
type Classifier interface {
	Classify(ctx context.Context, msg bus.InboundMessage) classifier.Verdict
}

// Pipeline processes inbound messages end to end. Distinct messages run
// concurrently with no shared mutable state; deduplication is entirely
// store-backed so it holds across restarts and redeliveries.
type Pipeline struct {
	agentID      string
	targetHandle string
	dedupWindow  int
	store        store.MentionStore
	classifier   Classifier
	alerter      Alerter
}

// New creates a pipeline. agentID scopes this watcher's records in the
// store; targetHandle may be empty, which disables detection entirely.
func New(agentID, targetHandle string, dedupWindow int, st store.MentionStore, cls Classifier, alerter Alerter) *Pipeline {
	if dedupWindow <= 0 {
		dedupWindow = 50
	}
	return &Pipeline{
		agentID:      agentID,
		targetHandle: targetHandle,
		dedupWindow:  dedupWindow,
		store:        st,
		classifier:   cls,
		alerter:      alerter,
	}
}

// Handler returns the bus handler for this pipeline.
func (p *Pipeline) Handler() bus.MessageHandler {
	return func(msg bus.InboundMessage) error {
		return p.Handle(context.Background(), msg)
	}
}

// Handle runs the pipeline for one inbound message.
//
// The only error returned is a failed duplicate check: with the store
// unavailable the pipeline must not guess, since assuming "new" risks a
// duplicate alert and assuming "seen" silently loses a mention. Every
// other failure is absorbed: classification degrades to a safe default,
// a failed record write is logged (accepting a reopened duplicate window
// for this one message), and notification is fire-and-forget.
func (p *Pipeline) Handle(ctx context.Context, msg bus.InboundMessage) error {
	if !mention.Detect(msg.Content, p.targetHandle) {
		return nil
	}

	slog.Info("mention detected",
		"channel", msg.Channel,
		"chat_id", msg.ChatID,
		"message_id", msg.MessageID,
		"sender_id", msg.SenderID,
	)

	if msg.MessageID == "" {
		// Without a durable ID the dedup guarantee cannot hold; skip
		// rather than risk alerting on every redelivery.
		slog.Error("mention skipped: message has no durable identifier",
			"channel", msg.Channel,
			"chat_id", msg.ChatID,
		)
		return nil
	}

	dup, err := p.isDuplicate(ctx, msg)
	if err != nil {
		return fmt.Errorf("duplicate check for message %s: %w", msg.MessageID, err)
	}
	if dup {
		slog.Info("duplicate mention skipped",
			"chat_id", msg.ChatID,
			"message_id", msg.MessageID,
		)
		return nil
	}

	verdict := p.classifier.Classify(ctx, msg)

	// Record before any notification attempt: if the process dies after
	// this write, a redelivery short-circuits at the duplicate check
	// instead of alerting twice.
	p.record(ctx, msg, verdict)

	if verdict.Important {
		p.alerter.Notify(ctx, msg, verdict.Reason)
	}

	return nil
}

// isDuplicate scans a bounded window of recent records for this chat for
// an exact message-ID match. The window cap trades a theoretical staleness
// gap (more than dedupWindow mentions in one chat between deliveries) for
// a bounded store scan.
func (p *Pipeline) isDuplicate(ctx context.Context, msg bus.InboundMessage) (bool, error) {
	records, err := p.store.RecentMentions(ctx, p.agentID, msg.ChatID, p.dedupWindow)
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if rec.MessageID == msg.MessageID {
			return true, nil
		}
	}
	return false, nil
}

// record persists the processing outcome. Write failure is non-fatal for
// this run: the verdict still gates notification, but the duplicate window
// stays open for this message until a later delivery records successfully.
func (p *Pipeline) record(ctx context.Context, msg bus.InboundMessage, verdict classifier.Verdict) {
	rec := store.ProcessedMention{
		AgentID:           p.agentID,
		ChatID:            msg.ChatID,
		MessageID:         msg.MessageID,
		Important:         verdict.Important,
		Reason:            verdict.Reason,
		SenderID:          msg.SenderID,
		SenderName:        msg.SenderName,
		ChatTitle:         msg.ChatTitle,
		MessageText:       msg.Content,
		OriginalTimestamp: msg.Timestamp,
		CreatedAt:         time.Now().UTC(),
	}

	id, err := p.store.RecordMention(ctx, rec)
	if err != nil {
		slog.Error("failed to record processed mention",
			"chat_id", msg.ChatID,
			"message_id", msg.MessageID,
			"error", err,
		)
		return
	}

	slog.Info("processed mention recorded",
		"record_id", id,
		"message_id", msg.MessageID,
		"important", verdict.Important,
	)
}
