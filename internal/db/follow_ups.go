package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const createFollowUp = `
INSERT INTO follow_ups (contact_id, kind, scheduled_for)
VALUES ($1, $2, $3)
RETURNING id, contact_id, kind, sent, sent_at, failed, fail_reason, scheduled_for, created_at
`

// CreateFollowUpParams is a follow-up draft. The row always starts unsent and
// unfailed; sent_at is NULL until delivery is confirmed.
type CreateFollowUpParams struct {
	ContactID    uuid.UUID
	Kind         FollowUpKind
	ScheduledFor time.Time
}

func (q *Queries) CreateFollowUp(ctx context.Context, arg CreateFollowUpParams) (FollowUp, error) {
	row := q.db.QueryRowContext(ctx, createFollowUp, arg.ContactID, arg.Kind, arg.ScheduledFor)
	var f FollowUp
	err := row.Scan(&f.ID, &f.ContactID, &f.Kind, &f.Sent, &f.SentAt,
		&f.Failed, &f.FailReason, &f.ScheduledFor, &f.CreatedAt)
	if err != nil {
		return FollowUp{}, fmt.Errorf("db: create follow-up: %w", err)
	}
	return f, nil
}

const listPendingFollowUps = `
SELECT id, contact_id, kind, sent, sent_at, failed, fail_reason, scheduled_for, created_at
FROM follow_ups
WHERE NOT sent AND NOT failed AND scheduled_for <= $1
ORDER BY scheduled_for ASC
`

// ListPendingFollowUps returns every follow-up that is due at the given
// instant and has not been sent or permanently failed, oldest first. The read
// is a plain snapshot — rows inserted while the poller is mid-scan are picked
// up on the next cycle.
func (q *Queries) ListPendingFollowUps(ctx context.Context, now time.Time) ([]FollowUp, error) {
	rows, err := q.db.QueryContext(ctx, listPendingFollowUps, now)
	if err != nil {
		return nil, fmt.Errorf("db: list pending follow-ups: %w", err)
	}
	defer rows.Close()

	var out []FollowUp
	for rows.Next() {
		var f FollowUp
		if err := rows.Scan(&f.ID, &f.ContactID, &f.Kind, &f.Sent, &f.SentAt,
			&f.Failed, &f.FailReason, &f.ScheduledFor, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("db: scan follow-up: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

const listFollowUpsByContact = `
SELECT id, contact_id, kind, sent, sent_at, failed, fail_reason, scheduled_for, created_at
FROM follow_ups
WHERE contact_id = $1
ORDER BY scheduled_for ASC
`

func (q *Queries) ListFollowUpsByContact(ctx context.Context, contactID uuid.UUID) ([]FollowUp, error) {
	rows, err := q.db.QueryContext(ctx, listFollowUpsByContact, contactID)
	if err != nil {
		return nil, fmt.Errorf("db: list follow-ups by contact: %w", err)
	}
	defer rows.Close()

	var out []FollowUp
	for rows.Next() {
		var f FollowUp
		if err := rows.Scan(&f.ID, &f.ContactID, &f.Kind, &f.Sent, &f.SentAt,
			&f.Failed, &f.FailReason, &f.ScheduledFor, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("db: scan follow-up: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

const markFollowUpSent = `
UPDATE follow_ups SET sent = true, sent_at = $2 WHERE id = $1
`

// MarkFollowUpSentParams records a confirmed delivery.
type MarkFollowUpSentParams struct {
	ID     uuid.UUID
	SentAt time.Time
}

// MarkFollowUpSent is idempotent: applying it twice overwrites sent_at with
// the later timestamp but never reverts the sent flag or errors.
func (q *Queries) MarkFollowUpSent(ctx context.Context, arg MarkFollowUpSentParams) error {
	_, err := q.db.ExecContext(ctx, markFollowUpSent, arg.ID, arg.SentAt)
	if err != nil {
		return fmt.Errorf("db: mark follow-up sent: %w", err)
	}
	return nil
}

const markFollowUpFailed = `
UPDATE follow_ups SET failed = true, fail_reason = $2 WHERE id = $1 AND NOT sent
`

// MarkFollowUpFailedParams records a terminal failure (missing contact, no
// email address, corrupt kind). Failed rows are excluded from the pending
// query forever; transient transport errors must NOT use this.
type MarkFollowUpFailedParams struct {
	ID     uuid.UUID
	Reason string
}

func (q *Queries) MarkFollowUpFailed(ctx context.Context, arg MarkFollowUpFailedParams) error {
	_, err := q.db.ExecContext(ctx, markFollowUpFailed, arg.ID, arg.Reason)
	if err != nil {
		return fmt.Errorf("db: mark follow-up failed: %w", err)
	}
	return nil
}
