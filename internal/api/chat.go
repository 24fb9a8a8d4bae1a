package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sqlc-dev/pqtype"

	"github.com/samsepassi/portfolio-backend/internal/ai"
	"github.com/samsepassi/portfolio-backend/internal/db"
	"github.com/samsepassi/portfolio-backend/internal/email"
)

// ─── POST /api/chat ───────────────────────────────────────────────────────────

type chatRequest struct {
	Message        string       `json:"message"`
	SessionID      string       `json:"sessionId"`
	MessageHistory []ai.Message `json:"messageHistory"`
}

type chatResponse struct {
	Response string `json:"response"`
	Success  bool   `json:"success"`
}

// handleChat runs one turn of the assistant conversation. The user and AI
// messages are both persisted; any tool calls the model made are applied as
// side effects (contact capture, unknown-question capture). Side-effect
// failures are logged, never surfaced — the visitor still gets their reply.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Message == "" || req.SessionID == "" {
		respondErr(w, http.StatusBadRequest, "message and sessionId are required")
		return
	}

	if !s.limiter.Allow(r.Context(), "chat:"+clientIP(r)) {
		respondErr(w, http.StatusTooManyRequests, "too many requests, slow down")
		return
	}

	// Store the user message first so the history survives an AI failure.
	if _, err := s.q.CreateChatMessage(r.Context(), db.CreateChatMessageParams{
		SessionID: req.SessionID,
		Content:   req.Message,
		Sender:    "user",
	}); err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("store user message: %w", err))
		return
	}

	result, err := s.assistant.Chat(r.Context(), req.Message, req.MessageHistory)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("assistant chat: %w", err))
		return
	}

	if _, err := s.q.CreateChatMessage(r.Context(), db.CreateChatMessageParams{
		SessionID: req.SessionID,
		Content:   result.Content,
		Sender:    "ai",
		Metadata:  toolCallMetadata(result.ToolCalls),
	}); err != nil {
		// The reply was generated; losing the stored copy is not worth a 500.
		s.logAndIgnore(r, err, "store ai message failed")
	}

	for _, tc := range result.ToolCalls {
		s.applyToolCall(r, tc)
	}

	respond(w, http.StatusOK, chatResponse{Response: result.Content, Success: true})
}

// applyToolCall executes the side effect of one tool call the model made.
func (s *Server) applyToolCall(r *http.Request, tc ai.ToolCall) {
	switch tc.Name {
	case ai.ToolRecordUserDetails:
		var details ai.UserDetails
		if err := json.Unmarshal(tc.Arguments, &details); err != nil {
			s.logAndIgnore(r, fmt.Errorf("decode %s args: %w", tc.Name, err), "tool call decode failed")
			return
		}
		if details.Email == "" {
			s.logAndIgnore(r, fmt.Errorf("%s without email", tc.Name), "tool call missing email")
			return
		}
		if details.Name == "" {
			details.Name = "Name not provided"
		}
		if details.Notes == "" {
			details.Notes = "Provided during chat interaction"
		}
		s.captureContact(r, db.CreateContactParams{
			Name:  sql.NullString{String: details.Name, Valid: true},
			Email: details.Email,
			Notes: sql.NullString{String: details.Notes, Valid: true},
		})

	case ai.ToolRecordUnknownQuestion:
		var args struct {
			Question string `json:"question"`
		}
		if err := json.Unmarshal(tc.Arguments, &args); err != nil {
			s.logAndIgnore(r, fmt.Errorf("decode %s args: %w", tc.Name, err), "tool call decode failed")
			return
		}
		if _, err := s.q.CreateUnknownQuestion(r.Context(), args.Question); err != nil {
			s.logAndIgnore(r, fmt.Errorf("store unknown question: %w", err), "unknown question store failed")
			return
		}
		s.logAndIgnore(r, s.mailer.NotifyUnknownQuestion(r.Context(), args.Question),
			"unknown question notification failed")

	default:
		s.logger.Warn("chat: model invoked unrecognized tool", "tool", tc.Name)
	}
}

// captureContact persists a lead and fires the two follow-on side effects:
// the owner notification and the nurture sequence. Shared by the chat tool
// call and the contact form handler. Only the row insert can fail the
// request; everything downstream is logged and swallowed.
func (s *Server) captureContact(r *http.Request, params db.CreateContactParams) {
	contact, err := s.q.CreateContact(r.Context(), params)
	if err != nil {
		s.logAndIgnore(r, fmt.Errorf("create contact: %w", err), "contact capture failed")
		return
	}

	s.notifyAndSchedule(r, contact)
}

// notifyAndSchedule sends the owner notification and schedules the follow-up
// sequence for a persisted contact.
func (s *Server) notifyAndSchedule(r *http.Request, contact db.Contact) {
	if err := s.mailer.NotifyNewContact(r.Context(), email.ContactNotification{
		Name:    contact.Name.String,
		Email:   contact.Email,
		Message: contact.Message.String,
	}); err != nil {
		s.logAndIgnore(r, err, "contact notification failed")
	} else if err := s.q.MarkContactNotified(r.Context(), contact.ID); err != nil {
		s.logAndIgnore(r, err, "mark contact notified failed")
	}

	// The scheduler's immediate poll cycle sends the welcome email inline,
	// which can take a transport round-trip — detach it from the request
	// context so a client disconnect doesn't abort the sequence.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 30*time.Second)
	defer cancel()
	s.logAndIgnore(r, s.sched.ScheduleFollowUpSequence(ctx, contact), "follow-up scheduling failed")
}

// toolCallMetadata serializes tool calls for the chat_messages.metadata
// column. Returns an invalid (NULL) value when there were none.
func toolCallMetadata(calls []ai.ToolCall) pqtype.NullRawMessage {
	if len(calls) == 0 {
		return pqtype.NullRawMessage{}
	}
	type record struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	records := make([]record, len(calls))
	for i, c := range calls {
		records[i] = record{Name: c.Name, Arguments: json.RawMessage(c.Arguments)}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return pqtype.NullRawMessage{}
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}
}

// clientIP returns the remote IP. chi's RealIP middleware has already folded
// X-Forwarded-For / X-Real-IP into RemoteAddr.
func clientIP(r *http.Request) string {
	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx >= 0 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}

// ─── GET /api/chat/{sessionID} ────────────────────────────────────────────────

type chatMessageView struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// handleChatHistory returns every message of a session, oldest first.
func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		respondErr(w, http.StatusBadRequest, "sessionID is required")
		return
	}

	messages, err := s.q.ListChatMessagesBySession(r.Context(), sessionID)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("list chat messages: %w", err))
		return
	}

	views := make([]chatMessageView, len(messages))
	for i, m := range messages {
		views[i] = chatMessageView{
			ID:        m.ID.String(),
			SessionID: m.SessionID,
			Content:   m.Content,
			Sender:    m.Sender,
			Timestamp: m.CreatedAt,
		}
	}
	respond(w, http.StatusOK, views)
}
