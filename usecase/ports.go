package usecase

import "context"

// Email is an outbound notification produced by a use case.
type Email struct {
	To      string
	Subject string
	Body    string
}

// MailQueue hands emails to the delivery pipeline. Implementations persist the
// message before returning; delivery happens later and may fail silently.
type MailQueue interface {
	QueueEmail(ctx context.Context, email Email) error
}
