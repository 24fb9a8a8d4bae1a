package db

import (
	"context"
	"fmt"
)

const createUnknownQuestion = `
INSERT INTO unknown_questions (question)
VALUES ($1)
RETURNING id, question, notified, created_at
`

func (q *Queries) CreateUnknownQuestion(ctx context.Context, question string) (UnknownQuestion, error) {
	row := q.db.QueryRowContext(ctx, createUnknownQuestion, question)
	var u UnknownQuestion
	err := row.Scan(&u.ID, &u.Question, &u.Notified, &u.CreatedAt)
	if err != nil {
		return UnknownQuestion{}, fmt.Errorf("db: create unknown question: %w", err)
	}
	return u, nil
}

const listUnknownQuestions = `
SELECT id, question, notified, created_at
FROM unknown_questions
ORDER BY created_at DESC
`

func (q *Queries) ListUnknownQuestions(ctx context.Context) ([]UnknownQuestion, error) {
	rows, err := q.db.QueryContext(ctx, listUnknownQuestions)
	if err != nil {
		return nil, fmt.Errorf("db: list unknown questions: %w", err)
	}
	defer rows.Close()

	var out []UnknownQuestion
	for rows.Next() {
		var u UnknownQuestion
		if err := rows.Scan(&u.ID, &u.Question, &u.Notified, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("db: scan unknown question: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
