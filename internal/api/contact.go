package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/samsepassi/portfolio-backend/internal/db"
)

// ─── POST /api/contact ────────────────────────────────────────────────────────

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type contactResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// handleContact captures a contact-form lead. The response reports success as
// soon as the contact row is persisted; the owner notification and the
// follow-up sequence are best-effort side effects that are logged on failure
// but never fail the request.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !decode(w, r, &req) {
		return
	}

	addr := strings.TrimSpace(req.Email)
	if addr == "" {
		respondErr(w, http.StatusBadRequest, "email is required")
		return
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid email address")
		return
	}

	contact, err := s.q.CreateContact(r.Context(), db.CreateContactParams{
		Name:    nullString(req.Name),
		Email:   addr,
		Message: nullString(req.Message),
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create contact: %w", err))
		return
	}

	s.notifyAndSchedule(r, contact)

	respond(w, http.StatusOK, contactResponse{Success: true, ID: contact.ID.String()})
}

// nullString converts a Go string to sql.NullString. Empty string → NULL.
func nullString(v string) sql.NullString {
	v = strings.TrimSpace(v)
	return sql.NullString{String: v, Valid: v != ""}
}
