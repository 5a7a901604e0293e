// Package classifier decides whether a detected mention deserves an urgent
// private alert, using a single LLM call per mention.
package classifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nextlevelbuilder/pingpal/internal/bus"
	"github.com/nextlevelbuilder/pingpal/internal/providers"
)

// FailedReason is the justification recorded when classification could not
// complete. The verdict defaults to not-important so that failures degrade
// toward silence rather than alert spam.
const FailedReason = "LLM analysis failed."

const placeholderName = "Unknown"

// Classifier wraps an LLM provider for importance classification.
type Classifier struct {
	provider     providers.Provider
	model        string
	targetHandle string
}

// New creates a classifier for the given target handle.
// model may be empty to use the provider's default.
func New(provider providers.Provider, model, targetHandle string) *Classifier {
	return &Classifier{
		provider:     provider,
		model:        model,
		targetHandle: targetHandle,
	}
}

// Classify runs the importance call for one mention. It never fails:
// provider errors and malformed responses resolve to the safe default
// verdict, logged for diagnosis. senderName and chatTitle may be empty;
// placeholders are substituted so context gaps never block classification.
func (c *Classifier) Classify(ctx context.Context, msg bus.InboundMessage) Verdict {
	senderName := msg.SenderName
	if senderName == "" {
		senderName = placeholderName
	}
	chatTitle := msg.ChatTitle
	if chatTitle == "" {
		chatTitle = placeholderName
	}

	resp, err := c.provider.Chat(ctx, providers.ChatRequest{
		Model: c.model,
		Messages: []providers.Message{
			{Role: "system", Content: systemPrompt(c.targetHandle)},
			{Role: "user", Content: userPrompt(senderName, chatTitle, msg.Content)},
		},
		Options: map[string]interface{}{
			providers.OptJSONResponse: true,
			providers.OptMaxTokens:    256,
			providers.OptTemperature:  0.0,
		},
	})
	if err != nil {
		slog.Error("importance classification call failed",
			"provider", c.provider.Name(),
			"message_id", msg.MessageID,
			"error", err,
		)
		return Verdict{Important: false, Reason: FailedReason}
	}

	verdict, err := ParseVerdict(resp.Content)
	if err != nil {
		slog.Error("importance classification response unusable",
			"provider", c.provider.Name(),
			"message_id", msg.MessageID,
			"response_preview", preview(resp.Content),
			"error", err,
		)
		return Verdict{Important: false, Reason: FailedReason}
	}

	slog.Info("importance classification complete",
		"message_id", msg.MessageID,
		"important", verdict.Important,
		"reason", verdict.Reason,
	)
	return verdict
}

func systemPrompt(targetHandle string) string {
	return fmt.Sprintf(`You are an assistant helping '%s' filter group chat messages. `+
		`Determine whether a message requires '%s's urgent attention or action. `+
		`Consider keywords like 'urgent', 'action needed', 'deadline', 'blocker', 'ping', 'help', `+
		`direct questions to '%s', or tasks assigned to them. `+
		`Respond ONLY with a JSON object of the form `+
		`{"important": <boolean, true if the message requires urgent attention or action>, `+
		`"reason": <string, a brief 1-2 sentence justification>}. Both fields are required.`,
		targetHandle, targetHandle, targetHandle)
}

func userPrompt(senderName, chatTitle, text string) string {
	return fmt.Sprintf("Message sent by '%s' in the group '%s':\n\n%q", senderName, chatTitle, text)
}

func preview(s string) string {
	if len(s) <= 200 {
		return s
	}
	return s[:200] + "..."
}
