package api

import (
	"fmt"
	"net/http"
	"time"
)

// ─── GET /api/contacts ────────────────────────────────────────────────────────

type followUpView struct {
	Kind         string     `json:"kind"`
	Sent         bool       `json:"sent"`
	SentAt       *time.Time `json:"sentAt,omitempty"`
	Failed       bool       `json:"failed"`
	FailReason   string     `json:"failReason,omitempty"`
	ScheduledFor time.Time  `json:"scheduledFor"`
}

type contactView struct {
	ID        string         `json:"id"`
	Name      string         `json:"name,omitempty"`
	Email     string         `json:"email"`
	Message   string         `json:"message,omitempty"`
	Notes     string         `json:"notes,omitempty"`
	Notified  bool           `json:"notified"`
	CreatedAt time.Time      `json:"createdAt"`
	FollowUps []followUpView `json:"followUps"`
}

// handleListContacts returns every captured lead, newest first, with its
// follow-up sequence status embedded so the dashboard can show where each
// lead sits in the nurture flow.
func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.q.ListContacts(r.Context())
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("list contacts: %w", err))
		return
	}

	views := make([]contactView, len(contacts))
	for i, c := range contacts {
		followUps, err := s.q.ListFollowUpsByContact(r.Context(), c.ID)
		if err != nil {
			s.respondInternalErr(w, r, fmt.Errorf("list follow-ups for %s: %w", c.ID, err))
			return
		}

		fuViews := make([]followUpView, len(followUps))
		for j, f := range followUps {
			fv := followUpView{
				Kind:         string(f.Kind),
				Sent:         f.Sent,
				Failed:       f.Failed,
				FailReason:   f.FailReason.String,
				ScheduledFor: f.ScheduledFor,
			}
			if f.SentAt.Valid {
				t := f.SentAt.Time
				fv.SentAt = &t
			}
			fuViews[j] = fv
		}

		views[i] = contactView{
			ID:        c.ID.String(),
			Name:      c.Name.String,
			Email:     c.Email,
			Message:   c.Message.String,
			Notes:     c.Notes.String,
			Notified:  c.Notified,
			CreatedAt: c.CreatedAt,
			FollowUps: fuViews,
		}
	}
	respond(w, http.StatusOK, views)
}

// ─── GET /api/unknown-questions ───────────────────────────────────────────────

type unknownQuestionView struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Notified  bool      `json:"notified"`
	CreatedAt time.Time `json:"createdAt"`
}

// handleListUnknownQuestions returns every recorded unanswerable question,
// newest first.
func (s *Server) handleListUnknownQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.q.ListUnknownQuestions(r.Context())
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("list unknown questions: %w", err))
		return
	}

	views := make([]unknownQuestionView, len(questions))
	for i, q := range questions {
		views[i] = unknownQuestionView{
			ID:        q.ID.String(),
			Question:  q.Question,
			Notified:  q.Notified,
			CreatedAt: q.CreatedAt,
		}
	}
	respond(w, http.StatusOK, views)
}
