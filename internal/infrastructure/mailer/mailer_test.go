package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/taskboard/internal/config"
)

func TestNewPicksSenderByHost(t *testing.T) {
	fallback := NewLogSender("noreply@example.com", nil)

	assert.Same(t, fallback, New(config.MailConfig{}, fallback))

	sender := New(config.MailConfig{Host: "smtp.example.com", Port: 587}, fallback)
	_, ok := sender.(*SMTPSender)
	assert.True(t, ok)
}

func TestLogSenderWritesMessage(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sender := NewLogSender("noreply@example.com", zap.New(core))

	err := sender.Send(context.Background(), Message{To: "alice@example.com", Subject: "Reset", Body: "link"})
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "alice@example.com", fields["to"])
	assert.Equal(t, "noreply@example.com", fields["from"])
	assert.Equal(t, "Reset", fields["subject"])
}

func TestSMTPSenderRejectsBadAddress(t *testing.T) {
	sender := NewSMTPSender(config.MailConfig{Host: "smtp.example.com", Port: 587, From: "not an address"})
	err := sender.Send(context.Background(), Message{To: "alice@example.com"})
	assert.Error(t, err)
}
