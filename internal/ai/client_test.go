package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *openaiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewOpenAIClient("sk-test", "gpt-5").(*openaiClient)
	c.baseURL = srv.URL
	return c
}

func openaiTextReply(content string) string {
	return `{"choices":[{"finish_reason":"stop","message":{"role":"assistant","content":` +
		string(mustJSON(content)) + `}}]}`
}

func mustJSON(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

func TestOpenAIChat_PlainReply(t *testing.T) {
	var gotReq openaiRequest
	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("authorization: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = io.WriteString(w, openaiTextReply("I work in cybersecurity."))
	})

	result, err := c.Chat(context.Background(), "What do you do?", []Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello!"},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if result.Content != "I work in cybersecurity." {
		t.Errorf("content: %q", result.Content)
	}
	if len(result.ToolCalls) != 0 {
		t.Errorf("unexpected tool calls: %v", result.ToolCalls)
	}

	// system prompt + 2 history turns + the new user message
	if len(gotReq.Messages) != 4 {
		t.Fatalf("expected 4 messages in the request, got %d", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" {
		t.Errorf("first message should be the system prompt, got %s", gotReq.Messages[0].Role)
	}
	if gotReq.Messages[3].Content != "What do you do?" {
		t.Errorf("last message: %q", gotReq.Messages[3].Content)
	}
	if len(gotReq.Tools) != 2 {
		t.Errorf("both tools should be offered, got %d", len(gotReq.Tools))
	}
}

func TestOpenAIChat_ToolCallRoundTrip(t *testing.T) {
	calls := 0
	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// First round: the model wants to record the user's details.
			_, _ = io.WriteString(w, `{"choices":[{"finish_reason":"tool_calls","message":{
				"role":"assistant","content":"",
				"tool_calls":[{"id":"call_1","type":"function","function":{
					"name":"record_user_details",
					"arguments":"{\"email\":\"bob@example.com\",\"name\":\"Bob\"}"}}]}}]}`)
			return
		}
		// Second round: after the tool acknowledgement, a final reply.
		var req openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode second request: %v", err)
		}
		last := req.Messages[len(req.Messages)-1]
		if last.Role != "tool" || last.ToolCallID != "call_1" {
			t.Errorf("tool acknowledgement missing, last message: %+v", last)
		}
		_, _ = io.WriteString(w, openaiTextReply("Great, I've noted your email!"))
	})

	result, err := c.Chat(context.Background(), "my email is bob@example.com", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 API rounds, got %d", calls)
	}
	if result.Content != "Great, I've noted your email!" {
		t.Errorf("content: %q", result.Content)
	}
	if len(result.ToolCalls) != 1 {
		t.Fatalf("expected 1 collected tool call, got %d", len(result.ToolCalls))
	}
	tc := result.ToolCalls[0]
	if tc.Name != ToolRecordUserDetails || tc.ID != "call_1" {
		t.Errorf("tool call: %+v", tc)
	}
	var details UserDetails
	if err := json.Unmarshal(tc.Arguments, &details); err != nil {
		t.Fatalf("tool call arguments: %v", err)
	}
	if details.Email != "bob@example.com" || details.Name != "Bob" {
		t.Errorf("details: %+v", details)
	}
}

func TestOpenAIChat_ToolLoopIsBounded(t *testing.T) {
	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		// The model never stops asking for tools.
		_, _ = io.WriteString(w, `{"choices":[{"finish_reason":"tool_calls","message":{
			"role":"assistant","content":"",
			"tool_calls":[{"id":"call_x","type":"function","function":{
				"name":"record_unknown_question","arguments":"{\"question\":\"loop\"}"}}]}}]}`)
	})

	_, err := c.Chat(context.Background(), "hi", nil)
	if err == nil {
		t.Fatal("expected an error when the tool loop never terminates")
	}
}

func TestOpenAIChat_APIErrorSurfaced(t *testing.T) {
	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"type":"rate_limit_error","message":"slow down"}}`)
	})

	_, err := c.Chat(context.Background(), "hi", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "rate_limit_error") {
		t.Errorf("error should carry the provider error type: %v", err)
	}
}

func TestOpenAIChat_NoChoices(t *testing.T) {
	c := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	})

	if _, err := c.Chat(context.Background(), "hi", nil); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

// ─── FALLBACK ─────────────────────────────────────────────────────────────────

type cannedAssistant struct {
	result ChatResult
	err    error
	calls  int
}

func (a *cannedAssistant) Chat(context.Context, string, []Message) (ChatResult, error) {
	a.calls++
	return a.result, a.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFallback_PrimarySucceeds(t *testing.T) {
	primary := &cannedAssistant{result: ChatResult{Content: "from primary"}}
	secondary := &cannedAssistant{result: ChatResult{Content: "from secondary"}}
	f := NewFallbackAssistant(primary, secondary, discardLogger())

	result, err := f.Chat(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if result.Content != "from primary" {
		t.Errorf("content: %q", result.Content)
	}
	if secondary.calls != 0 {
		t.Errorf("secondary should not be called, got %d calls", secondary.calls)
	}
}

func TestFallback_PrimaryFailsSecondaryAnswers(t *testing.T) {
	primary := &cannedAssistant{err: errors.New("overloaded")}
	secondary := &cannedAssistant{result: ChatResult{Content: "from secondary"}}
	f := NewFallbackAssistant(primary, secondary, discardLogger())

	result, err := f.Chat(context.Background(), "hi", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if result.Content != "from secondary" {
		t.Errorf("content: %q", result.Content)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("calls: primary=%d secondary=%d", primary.calls, secondary.calls)
	}
}

func TestFallback_NoSecondaryReturnsPrimaryError(t *testing.T) {
	primary := &cannedAssistant{err: errors.New("overloaded")}
	f := NewFallbackAssistant(primary, nil, discardLogger())

	_, err := f.Chat(context.Background(), "hi", nil)
	if err == nil {
		t.Fatal("expected the primary error to surface")
	}
	if !strings.Contains(err.Error(), "overloaded") {
		t.Errorf("error should wrap the primary failure: %v", err)
	}
}

// ─── SYSTEM PROMPT ────────────────────────────────────────────────────────────

func TestSystemPrompt_CarriesPersonaAndToolInstructions(t *testing.T) {
	prompt := SystemPrompt()

	for _, want := range []string{
		"Sam Sepassi",
		ToolRecordUserDetails,
		ToolRecordUnknownQuestion,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("system prompt should mention %q", want)
		}
	}
}
