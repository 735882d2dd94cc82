package services

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/internal/infrastructure/mailer"
	"github.com/fastygo/taskboard/internal/infrastructure/outbox"
	"github.com/fastygo/taskboard/usecase"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) messages() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.sent...)
}

func newTestProcessor(t *testing.T, sender mailer.Sender, maxRetries int) (*OutboxProcessor, *outbox.Store) {
	t.Helper()
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	op := NewOutboxProcessor(store, sender, nil, ProcessorConfig{
		Interval:   time.Hour,
		BatchSize:  10,
		MaxRetries: maxRetries,
	})
	return op, store
}

func emailItem(t *testing.T, to string, enqueuedAt time.Time) outbox.Item {
	t.Helper()
	payload, err := json.Marshal(mailer.Message{To: to, Subject: "hi", Body: "body"})
	require.NoError(t, err)
	return outbox.Item{Kind: outbox.KindEmail, Payload: payload, EnqueuedAt: enqueuedAt}
}

func TestDrainDeliversAndAcks(t *testing.T) {
	sender := &fakeSender{}
	op, store := newTestProcessor(t, sender, 3)

	base := time.Now().Add(-time.Minute)
	require.NoError(t, store.Enqueue(emailItem(t, "a@example.com", base)))
	require.NoError(t, store.Enqueue(emailItem(t, "b@example.com", base.Add(time.Second))))
	assert.Equal(t, 2, op.Pending())

	require.NoError(t, op.Drain(context.Background()))

	sent := sender.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "a@example.com", sent[0].To)
	assert.Equal(t, "b@example.com", sent[1].To)
	assert.Zero(t, op.Pending())
}

func TestDrainRetriesThenDrops(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp unavailable")}
	op, store := newTestProcessor(t, sender, 2)

	require.NoError(t, store.Enqueue(emailItem(t, "a@example.com", time.Now())))

	require.NoError(t, op.Drain(context.Background()))
	items, err := store.Peek(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Attempts)
	assert.Equal(t, "smtp unavailable", items[0].LastError)

	require.NoError(t, op.Drain(context.Background()))
	assert.Zero(t, op.Pending(), "item is dropped once retries are exhausted")
}

func TestDrainDropsUnknownKind(t *testing.T) {
	op, store := newTestProcessor(t, &fakeSender{}, 1)

	require.NoError(t, store.Enqueue(outbox.Item{Kind: "sms", Payload: json.RawMessage(`{}`)}))
	require.NoError(t, op.Drain(context.Background()))
	assert.Zero(t, op.Pending())
}

func TestMailBridgeSubmitsAndDeliversInBackground(t *testing.T) {
	sender := &fakeSender{}
	op, _ := newTestProcessor(t, sender, 3)
	bridge := NewMailBridge(op)

	err := bridge.QueueEmail(context.Background(), usecase.Email{To: "alice@example.com", Subject: "Reset", Body: "link"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	op.Stop(ctx)

	sent := sender.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, mailer.Message{To: "alice@example.com", Subject: "Reset", Body: "link"}, sent[0])
	assert.Zero(t, op.Pending())
}

func TestMailBridgeWithoutProcessor(t *testing.T) {
	bridge := NewMailBridge(nil)
	assert.Error(t, bridge.QueueEmail(context.Background(), usecase.Email{To: "a@example.com"}))
}
