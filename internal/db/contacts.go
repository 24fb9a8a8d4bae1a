package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const createContact = `
INSERT INTO contacts (name, email, message, notes)
VALUES ($1, $2, $3, $4)
RETURNING id, name, email, message, notes, notified, created_at
`

// CreateContactParams holds the caller-supplied fields of a new contact.
// Name, Message, and Notes may all be NULL — only the email is required.
type CreateContactParams struct {
	Name    sql.NullString
	Email   string
	Message sql.NullString
	Notes   sql.NullString
}

func (q *Queries) CreateContact(ctx context.Context, arg CreateContactParams) (Contact, error) {
	row := q.db.QueryRowContext(ctx, createContact, arg.Name, arg.Email, arg.Message, arg.Notes)
	var c Contact
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &c.Notes, &c.Notified, &c.CreatedAt)
	if err != nil {
		return Contact{}, fmt.Errorf("db: create contact: %w", err)
	}
	return c, nil
}

const getContactByID = `
SELECT id, name, email, message, notes, notified, created_at
FROM contacts
WHERE id = $1
`

func (q *Queries) GetContactByID(ctx context.Context, id uuid.UUID) (Contact, error) {
	row := q.db.QueryRowContext(ctx, getContactByID, id)
	var c Contact
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &c.Notes, &c.Notified, &c.CreatedAt)
	if err != nil {
		return Contact{}, err
	}
	return c, nil
}

const listContacts = `
SELECT id, name, email, message, notes, notified, created_at
FROM contacts
ORDER BY created_at DESC
`

func (q *Queries) ListContacts(ctx context.Context) ([]Contact, error) {
	rows, err := q.db.QueryContext(ctx, listContacts)
	if err != nil {
		return nil, fmt.Errorf("db: list contacts: %w", err)
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &c.Notes, &c.Notified, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db: scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const markContactNotified = `
UPDATE contacts SET notified = true WHERE id = $1
`

// MarkContactNotified records that the owner notification email for this
// contact went out. Best-effort bookkeeping — callers log and ignore errors.
func (q *Queries) MarkContactNotified(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, markContactNotified, id)
	if err != nil {
		return fmt.Errorf("db: mark contact notified: %w", err)
	}
	return nil
}
