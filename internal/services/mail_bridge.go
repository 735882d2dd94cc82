package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fastygo/taskboard/internal/infrastructure/mailer"
	"github.com/fastygo/taskboard/internal/infrastructure/outbox"
	"github.com/fastygo/taskboard/usecase"
)

// MailBridge adapts the outbox processor to the use-case MailQueue port.
type MailBridge struct {
	processor *OutboxProcessor
}

func NewMailBridge(processor *OutboxProcessor) *MailBridge {
	return &MailBridge{processor: processor}
}

func (b *MailBridge) QueueEmail(ctx context.Context, email usecase.Email) error {
	if b.processor == nil {
		return errors.New("mail bridge: no outbox processor")
	}
	payload, err := json.Marshal(mailer.Message{
		To:      email.To,
		Subject: email.Subject,
		Body:    email.Body,
	})
	if err != nil {
		return err
	}
	return b.processor.Submit(ctx, outbox.Item{
		Kind:     outbox.KindEmail,
		Payload:  payload,
		Priority: 2,
	})
}

var _ usecase.MailQueue = (*MailBridge)(nil)
