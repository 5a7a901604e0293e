package classifier

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/nextlevelbuilder/pingpal/internal/bus"
	"github.com/nextlevelbuilder/pingpal/internal/providers"
)

// fakeProvider returns a canned response or error.
type fakeProvider struct {
	resp     string
	err      error
	requests []providers.ChatRequest
}

func (f *fakeProvider) Chat(_ context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &providers.ChatResponse{Content: f.resp, FinishReason: "stop"}, nil
}

func (f *fakeProvider) DefaultModel() string { return "fake-model" }
func (f *fakeProvider) Name() string         { return "fake" }

func testMessage() bus.InboundMessage {
	return bus.InboundMessage{
		Channel:    "telegram",
		MessageID:  "-1:1",
		SenderName: "bob",
		ChatTitle:  "infra",
		Content:    "hey @alice can you help, this is urgent",
	}
}

func TestClassify_Important(t *testing.T) {
	p := &fakeProvider{resp: `{"important": true, "reason": "urgent help request"}`}
	c := New(p, "", "alice")

	v := c.Classify(context.Background(), testMessage())
	if !v.Important {
		t.Error("Important should be true")
	}
	if v.Reason != "urgent help request" {
		t.Errorf("Reason = %q", v.Reason)
	}
}

func TestClassify_PromptContext(t *testing.T) {
	p := &fakeProvider{resp: `{"important": false, "reason": "x"}`}
	c := New(p, "", "alice")

	c.Classify(context.Background(), testMessage())
	if len(p.requests) != 1 {
		t.Fatalf("got %d provider calls, want 1", len(p.requests))
	}
	req := p.requests[0]
	if len(req.Messages) != 2 {
		t.Fatalf("got %d messages, want system+user", len(req.Messages))
	}
	if !strings.Contains(req.Messages[0].Content, "'alice'") {
		t.Error("system prompt should reference the target handle")
	}
	user := req.Messages[1].Content
	for _, want := range []string{"bob", "infra", "urgent"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q: %s", want, user)
		}
	}
	if v, ok := req.Options[providers.OptJSONResponse].(bool); !ok || !v {
		t.Error("request should ask for a JSON response")
	}
}

func TestClassify_ProviderError(t *testing.T) {
	p := &fakeProvider{err: fmt.Errorf("connection refused")}
	c := New(p, "", "alice")

	v := c.Classify(context.Background(), testMessage())
	if v.Important {
		t.Error("failure must default to not-important")
	}
	if v.Reason != FailedReason {
		t.Errorf("Reason = %q, want %q", v.Reason, FailedReason)
	}
}

func TestClassify_MalformedResponse(t *testing.T) {
	p := &fakeProvider{resp: "definitely important, trust me"}
	c := New(p, "", "alice")

	v := c.Classify(context.Background(), testMessage())
	if v.Important || v.Reason != FailedReason {
		t.Errorf("got %+v, want safe default", v)
	}
}

func TestClassify_PlaceholderContext(t *testing.T) {
	p := &fakeProvider{resp: `{"important": false, "reason": "x"}`}
	c := New(p, "", "alice")

	msg := testMessage()
	msg.SenderName = ""
	msg.ChatTitle = ""
	c.Classify(context.Background(), msg)

	user := p.requests[0].Messages[1].Content
	if !strings.Contains(user, "Unknown") {
		t.Errorf("missing sender/room context should fall back to a placeholder: %s", user)
	}
}
