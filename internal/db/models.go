package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// ─── FOLLOW-UP KIND ──────────────────────────────────────────────────────────

// FollowUpKind identifies which email in the nurture sequence a follow-up row
// represents. It is a closed set; dispatch on it exhaustively.
type FollowUpKind string

const (
	KindWelcome      FollowUpKind = "welcome"
	KindFollowUp3Day FollowUpKind = "follow_up_3_days"
	KindFollowUp7Day FollowUpKind = "follow_up_7_days"
)

// Valid reports whether k is one of the known kinds. A false return means the
// stored value is corrupt (e.g. written by hand in psql) — the scheduler
// treats such rows as permanently failed.
func (k FollowUpKind) Valid() bool {
	switch k {
	case KindWelcome, KindFollowUp3Day, KindFollowUp7Day:
		return true
	}
	return false
}

// ─── ROW TYPES ───────────────────────────────────────────────────────────────

// Contact is a captured lead: someone who left an email address via the
// contact form or during an AI chat. Immutable once created.
type Contact struct {
	ID        uuid.UUID
	Name      sql.NullString
	Email     string
	Message   sql.NullString
	Notes     sql.NullString
	Notified  bool
	CreatedAt time.Time
}

// ChatMessage is one turn of an AI chat session. Metadata holds the raw
// tool-call payload for AI turns that invoked a tool, for audit.
type ChatMessage struct {
	ID        uuid.UUID
	SessionID string
	Content   string
	Sender    string // "user" | "ai"
	Metadata  pqtype.NullRawMessage
	CreatedAt time.Time
}

// UnknownQuestion is a visitor question the assistant could not answer,
// recorded so the profile text can be improved.
type UnknownQuestion struct {
	ID        uuid.UUID
	Question  string
	Notified  bool
	CreatedAt time.Time
}

// FollowUp is one scheduled email in a contact's nurture sequence. A row is
// created once, flipped to sent exactly once on confirmed delivery, and never
// deleted — the table doubles as an audit trail.
type FollowUp struct {
	ID           uuid.UUID
	ContactID    uuid.UUID
	Kind         FollowUpKind
	Sent         bool
	SentAt       sql.NullTime
	Failed       bool
	FailReason   sql.NullString
	ScheduledFor time.Time
	CreatedAt    time.Time
}
