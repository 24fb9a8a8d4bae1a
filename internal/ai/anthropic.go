package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// anthropicClient is an Assistant backed by the Anthropic Messages API. Used
// as the fallback provider when OpenAI is down or rate-limited.
type anthropicClient struct {
	apiKey     string
	model      string
	baseURL    string // overridden in tests
	httpClient *http.Client
}

const anthropicAPIURL = "https://api.anthropic.com/v1/messages"

// NewAnthropicClient returns an Assistant that calls the Anthropic API.
func NewAnthropicClient(apiKey, model string) Assistant {
	return &anthropicClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: anthropicAPIURL,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// ─── ANTHROPIC API SHAPES ─────────────────────────────────────────────────────

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []anthropicContent
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicContent struct {
	Type string `json:"type"`

	// type == "text"
	Text string `json:"text,omitempty"`

	// type == "tool_use"
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// type == "tool_result"
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type anthropicResponse struct {
	StopReason string             `json:"stop_reason"`
	Content    []anthropicContent `json:"content"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// anthropicTools mirrors chatTools in the Messages API schema format.
var anthropicTools = []anthropicTool{
	{
		Name:        ToolRecordUserDetails,
		Description: "Use this tool to record that a user is interested in being in touch and provided an email address",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"email": {"type": "string", "description": "The email address of this user"},
				"name": {"type": "string", "description": "The user's name, if they provided it"},
				"notes": {"type": "string", "description": "Any additional information about the conversation that's worth recording to give context"}
			},
			"required": ["email"]
		}`),
	},
	{
		Name:        ToolRecordUnknownQuestion,
		Description: "Always use this tool to record any question that couldn't be answered as you didn't know the answer",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"question": {"type": "string", "description": "The question that couldn't be answered"}
			},
			"required": ["question"]
		}`),
	},
}

// ─── IMPLEMENTATION ───────────────────────────────────────────────────────────

// Chat runs the conversation through the Messages API, resolving tool_use
// rounds the same way the OpenAI client does.
func (c *anthropicClient) Chat(ctx context.Context, message string, history []Message) (ChatResult, error) {
	var messages []anthropicMessage
	for _, m := range history {
		messages = append(messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, anthropicMessage{Role: "user", Content: message})

	var collected []ToolCall

	for round := 0; round < maxToolRounds; round++ {
		resp, err := c.call(ctx, anthropicRequest{
			Model:     c.model,
			MaxTokens: 2048,
			System:    SystemPrompt(),
			Messages:  messages,
			Tools:     anthropicTools,
		})
		if err != nil {
			return ChatResult{}, err
		}

		if resp.StopReason != "tool_use" {
			return ChatResult{Content: textContent(resp.Content), ToolCalls: collected}, nil
		}

		// Echo the assistant turn back, then answer every tool_use block with
		// a stub tool_result so the model can finish its reply.
		messages = append(messages, anthropicMessage{Role: "assistant", Content: resp.Content})
		var results []anthropicContent
		for _, block := range resp.Content {
			if block.Type != "tool_use" {
				continue
			}
			collected = append(collected, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: block.Input,
			})
			results = append(results, anthropicContent{
				Type:      "tool_result",
				ToolUseID: block.ID,
				Content:   `{"recorded": "ok"}`,
			})
		}
		messages = append(messages, anthropicMessage{Role: "user", Content: results})
	}

	return ChatResult{}, fmt.Errorf("ai: tool-call loop exceeded %d rounds", maxToolRounds)
}

// textContent concatenates the text blocks of a response.
func textContent(blocks []anthropicContent) string {
	var out string
	for _, b := range blocks {
		if b.Type == "text" {
			out += b.Text
		}
	}
	return out
}

func (c *anthropicClient) call(ctx context.Context, reqBody anthropicRequest) (anthropicResponse, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return anthropicResponse{}, fmt.Errorf("ai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL,
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return anthropicResponse{}, fmt.Errorf("ai: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return anthropicResponse{}, fmt.Errorf("ai: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return anthropicResponse{}, fmt.Errorf("ai: read response: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return anthropicResponse{}, fmt.Errorf("ai: unmarshal response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		return anthropicResponse{}, fmt.Errorf("ai: Anthropic error %s: %s", parsed.Error.Type, parsed.Error.Message)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return anthropicResponse{}, fmt.Errorf("ai: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	return parsed, nil
}
