// Package ai defines the interface for the portfolio chat assistant and
// provides OpenAI- and Anthropic-backed implementations.
package ai

import "context"

// Tool names the assistant may invoke. The HTTP layer dispatches on these.
const (
	ToolRecordUserDetails     = "record_user_details"
	ToolRecordUnknownQuestion = "record_unknown_question"
)

// UserDetails is the decoded payload of a record_user_details tool call:
// a visitor agreed to be contacted and gave an email address.
type UserDetails struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Notes string `json:"notes"`
}

// ToolCall is one tool invocation the model made during the exchange.
// Arguments is the raw JSON payload; the api package decodes it based on
// Name and stores it alongside the chat message for audit.
type ToolCall struct {
	ID        string
	Name      string
	Arguments []byte
}

// Message is one prior turn of the conversation, passed back to the model so
// it keeps context. Role is "user" or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResult is the assistant's reply plus any tool calls it made while
// producing it.
type ChatResult struct {
	Content   string
	ToolCalls []ToolCall
}

// Assistant is the interface the HTTP layer uses to chat. The concrete
// implementations live in openai.go and anthropic.go; fallback.go chains two.
// Tests inject a stub that returns canned responses.
type Assistant interface {
	// Chat sends the visitor's message with the conversation history and
	// returns the reply. Implementations must be safe to call concurrently.
	Chat(ctx context.Context, message string, history []Message) (ChatResult, error)
}
