package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Querier is the interface every consumer of this package depends on.
// *Queries is the real implementation; tests use in-memory stubs.
type Querier interface {
	CreateContact(ctx context.Context, arg CreateContactParams) (Contact, error)
	GetContactByID(ctx context.Context, id uuid.UUID) (Contact, error)
	ListContacts(ctx context.Context) ([]Contact, error)
	MarkContactNotified(ctx context.Context, id uuid.UUID) error

	CreateChatMessage(ctx context.Context, arg CreateChatMessageParams) (ChatMessage, error)
	ListChatMessagesBySession(ctx context.Context, sessionID string) ([]ChatMessage, error)

	CreateUnknownQuestion(ctx context.Context, question string) (UnknownQuestion, error)
	ListUnknownQuestions(ctx context.Context) ([]UnknownQuestion, error)

	CreateFollowUp(ctx context.Context, arg CreateFollowUpParams) (FollowUp, error)
	ListPendingFollowUps(ctx context.Context, now time.Time) ([]FollowUp, error)
	ListFollowUpsByContact(ctx context.Context, contactID uuid.UUID) ([]FollowUp, error)
	MarkFollowUpSent(ctx context.Context, arg MarkFollowUpSentParams) error
	MarkFollowUpFailed(ctx context.Context, arg MarkFollowUpFailedParams) error
}

var _ Querier = (*Queries)(nil)
