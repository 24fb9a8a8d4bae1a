package db

import (
	"context"
	"fmt"

	"github.com/sqlc-dev/pqtype"
)

const createChatMessage = `
INSERT INTO chat_messages (session_id, content, sender, metadata)
VALUES ($1, $2, $3, $4)
RETURNING id, session_id, content, sender, metadata, created_at
`

type CreateChatMessageParams struct {
	SessionID string
	Content   string
	Sender    string // "user" | "ai"
	Metadata  pqtype.NullRawMessage
}

func (q *Queries) CreateChatMessage(ctx context.Context, arg CreateChatMessageParams) (ChatMessage, error) {
	row := q.db.QueryRowContext(ctx, createChatMessage, arg.SessionID, arg.Content, arg.Sender, arg.Metadata)
	var m ChatMessage
	err := row.Scan(&m.ID, &m.SessionID, &m.Content, &m.Sender, &m.Metadata, &m.CreatedAt)
	if err != nil {
		return ChatMessage{}, fmt.Errorf("db: create chat message: %w", err)
	}
	return m, nil
}

const listChatMessagesBySession = `
SELECT id, session_id, content, sender, metadata, created_at
FROM chat_messages
WHERE session_id = $1
ORDER BY created_at ASC
`

func (q *Queries) ListChatMessagesBySession(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	rows, err := q.db.QueryContext(ctx, listChatMessagesBySession, sessionID)
	if err != nil {
		return nil, fmt.Errorf("db: list chat messages: %w", err)
	}
	defer rows.Close()

	var out []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Content, &m.Sender, &m.Metadata, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db: scan chat message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
