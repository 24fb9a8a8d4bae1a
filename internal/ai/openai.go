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

const openaiAPIURL = "https://api.openai.com/v1/chat/completions"

// openaiClient is the concrete Assistant backed by the OpenAI Chat
// Completions API.
type openaiClient struct {
	apiKey     string
	model      string
	baseURL    string // overridden in tests
	httpClient *http.Client
}

// NewOpenAIClient returns an Assistant that calls the OpenAI API.
//   - apiKey: your OPENAI_API_KEY
//   - model:  e.g. "gpt-5"
func NewOpenAIClient(apiKey, model string) Assistant {
	return &openaiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: openaiAPIURL,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// ─── OPENAI API SHAPES ────────────────────────────────────────────────────────

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
	Tools    []openaiTool    `json:"tools,omitempty"`
}

type openaiMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openaiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openaiTool struct {
	Type     string         `json:"type"`
	Function openaiFunction `json:"function"`
}

type openaiFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type openaiToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openaiResponse struct {
	Choices []struct {
		FinishReason string        `json:"finish_reason"`
		Message      openaiMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ─── TOOL DEFINITIONS ─────────────────────────────────────────────────────────

var chatTools = []openaiTool{
	{
		Type: "function",
		Function: openaiFunction{
			Name:        ToolRecordUserDetails,
			Description: "Use this tool to record that a user is interested in being in touch and provided an email address",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"email": {"type": "string", "description": "The email address of this user"},
					"name": {"type": "string", "description": "The user's name, if they provided it"},
					"notes": {"type": "string", "description": "Any additional information about the conversation that's worth recording to give context"}
				},
				"required": ["email"],
				"additionalProperties": false
			}`),
		},
	},
	{
		Type: "function",
		Function: openaiFunction{
			Name:        ToolRecordUnknownQuestion,
			Description: "Always use this tool to record any question that couldn't be answered as you didn't know the answer",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"question": {"type": "string", "description": "The question that couldn't be answered"}
				},
				"required": ["question"],
				"additionalProperties": false
			}`),
		},
	},
}

// ─── IMPLEMENTATION ───────────────────────────────────────────────────────────

// maxToolRounds bounds the tool-call loop so a misbehaving model cannot spin
// the handler forever.
const maxToolRounds = 4

// Chat runs the conversation with the model, resolving tool-call rounds until
// the model produces a final text reply. Tool calls are not executed here —
// they are acknowledged to the model and returned to the caller, which
// persists contacts / unknown questions and triggers follow-up scheduling.
func (c *openaiClient) Chat(ctx context.Context, message string, history []Message) (ChatResult, error) {
	messages := []openaiMessage{{Role: "system", Content: SystemPrompt()}}
	for _, m := range history {
		messages = append(messages, openaiMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, openaiMessage{Role: "user", Content: message})

	var collected []ToolCall

	for round := 0; round < maxToolRounds; round++ {
		resp, err := c.call(ctx, openaiRequest{
			Model:    c.model,
			Messages: messages,
			Tools:    chatTools,
		})
		if err != nil {
			return ChatResult{}, err
		}

		if len(resp.Choices) == 0 {
			return ChatResult{}, fmt.Errorf("ai: OpenAI returned no choices")
		}
		choice := resp.Choices[0]

		if choice.FinishReason != "tool_calls" {
			return ChatResult{Content: choice.Message.Content, ToolCalls: collected}, nil
		}

		// The model asked to invoke tools. Record them, acknowledge each with
		// a stub result, and loop so the model can finish its reply.
		messages = append(messages, choice.Message)
		for _, tc := range choice.Message.ToolCalls {
			collected = append(collected, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: []byte(tc.Function.Arguments),
			})
			messages = append(messages, openaiMessage{
				Role:       "tool",
				Content:    `{"recorded": "ok"}`,
				ToolCallID: tc.ID,
			})
		}
	}

	return ChatResult{}, fmt.Errorf("ai: tool-call loop exceeded %d rounds", maxToolRounds)
}

func (c *openaiClient) call(ctx context.Context, reqBody openaiRequest) (openaiResponse, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return openaiResponse{}, fmt.Errorf("ai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL,
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return openaiResponse{}, fmt.Errorf("ai: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return openaiResponse{}, fmt.Errorf("ai: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return openaiResponse{}, fmt.Errorf("ai: read response: %w", err)
	}

	var parsed openaiResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return openaiResponse{}, fmt.Errorf("ai: unmarshal response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		return openaiResponse{}, fmt.Errorf("ai: OpenAI error %s: %s", parsed.Error.Type, parsed.Error.Message)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return openaiResponse{}, fmt.Errorf("ai: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	return parsed, nil
}
