package ai

import (
	"context"
	"fmt"
	"log/slog"
)

// fallbackAssistant wraps two Assistant implementations. It calls the primary
// first; if that returns an error it logs the failure and tries the
// secondary. This gives you OpenAI as the default with Anthropic as the
// safety net (or vice versa — the choice is made in main.go).
type fallbackAssistant struct {
	primary   Assistant
	secondary Assistant
	logger    *slog.Logger
}

// NewFallbackAssistant returns an Assistant that calls primary and, on
// failure, falls back to secondary. Either argument may be nil — if primary
// is nil it goes straight to secondary; if secondary is nil and primary
// fails, the primary error is returned directly.
func NewFallbackAssistant(primary, secondary Assistant, logger *slog.Logger) Assistant {
	return &fallbackAssistant{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

// Chat tries the primary Assistant. If it fails and a secondary is
// configured, it logs the primary error and tries the secondary.
func (f *fallbackAssistant) Chat(ctx context.Context, message string, history []Message) (ChatResult, error) {
	if f.primary != nil {
		result, err := f.primary.Chat(ctx, message, history)
		if err == nil {
			return result, nil
		}
		f.logger.Warn("ai: primary assistant failed, trying secondary",
			"error", err,
			"history_len", len(history),
		)
		if f.secondary == nil {
			return ChatResult{}, fmt.Errorf("ai: primary failed and no secondary configured: %w", err)
		}
	}

	return f.secondary.Chat(ctx, message, history)
}
