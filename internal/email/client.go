// Package email defines the interface for transactional email delivery and
// provides a Resend-backed implementation.
package email

import "context"

// ContactNotification holds the data for the owner-facing "new contact"
// email sent immediately after a lead is captured.
type ContactNotification struct {
	Name    string // may be empty
	Email   string
	Message string // may be empty
}

// Sender is the interface the scheduler and HTTP handlers use to send email.
// Tests inject a stub that records calls without hitting the network.
//
// Every method treats a non-2xx provider response as a non-nil error; there
// is no boolean result channel. The scheduler leaves a follow-up pending on
// any error, so delivery is retried on the next poll cycle.
type Sender interface {
	// SendWelcome sends the immediate welcome email to a new contact.
	SendWelcome(ctx context.Context, to, name string) error

	// SendFollowUp sends the N-day check-in email. days is 3 or 7.
	SendFollowUp(ctx context.Context, to, name string, days int) error

	// NotifyNewContact tells the site owner a lead was captured.
	NotifyNewContact(ctx context.Context, n ContactNotification) error

	// NotifyUnknownQuestion tells the site owner the assistant hit a question
	// it could not answer.
	NotifyUnknownQuestion(ctx context.Context, question string) error
}
