package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/internal/infrastructure/mailer"
	"github.com/fastygo/taskboard/internal/infrastructure/outbox"
)

// ProcessorConfig controls how frequently the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// OutboxProcessor delivers queued side effects (today: email) in the
// background. Items stay in BoltDB until delivered or out of retries.
type OutboxProcessor struct {
	store  *outbox.Store
	sender mailer.Sender
	logger *zap.Logger
	cron   *cron.Cron
	cfg    ProcessorConfig

	drainMu  sync.Mutex
	inflight sync.WaitGroup
}

func NewOutboxProcessor(
	store *outbox.Store,
	sender mailer.Sender,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *OutboxProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	op := &OutboxProcessor{
		store:  store,
		sender: sender,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	drainSchedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = op.cron.AddFunc(drainSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := op.Drain(ctx); err != nil {
			op.logger.Error("outbox drain failed", zap.Error(err))
		}
	})
	_, _ = op.cron.AddFunc("@every 1h", func() {
		removed, err := op.store.Purge(time.Now().Add(-op.cfg.Retention))
		if err != nil {
			op.logger.Error("outbox purge failed", zap.Error(err))
			return
		}
		if removed > 0 {
			op.logger.Warn("purged stale outbox items", zap.Int("count", removed))
		}
	})

	return op
}

// Start launches the cron scheduler.
func (op *OutboxProcessor) Start() {
	if op == nil || op.cron == nil {
		return
	}
	op.cron.Start()
	op.logger.Info("outbox processor started", zap.Duration("interval", op.cfg.Interval))
}

// Stop stops the scheduler and waits for in-flight drains or ctx expiry.
func (op *OutboxProcessor) Stop(ctx context.Context) {
	if op == nil || op.cron == nil {
		return
	}
	stopCtx := op.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-stopCtx.Done()
		op.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	op.logger.Info("outbox processor stopped")
}

// Submit persists item and triggers a background drain. It never waits for
// delivery.
func (op *OutboxProcessor) Submit(ctx context.Context, item outbox.Item) error {
	if op == nil || op.store == nil {
		return fmt.Errorf("outbox processor not configured")
	}
	if err := op.store.Enqueue(item); err != nil {
		return err
	}

	op.inflight.Add(1)
	go func() {
		defer op.inflight.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), op.cfg.Interval)
		defer cancel()
		if err := op.Drain(drainCtx); err != nil {
			op.logger.Warn("immediate outbox drain failed", zap.Error(err))
		}
	}()
	return nil
}

// Drain delivers up to one batch synchronously. Concurrent calls are skipped
// rather than queued so an item is never sent twice in parallel.
func (op *OutboxProcessor) Drain(ctx context.Context) error {
	if op == nil || op.store == nil {
		return nil
	}
	if !op.drainMu.TryLock() {
		op.logger.Debug("outbox drain already running")
		return nil
	}
	defer op.drainMu.Unlock()

	items, err := op.store.Peek(op.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := op.deliver(ctx, item); err != nil {
			op.logger.Error("failed to deliver outbox item",
				zap.String("item_id", item.ID),
				zap.String("kind", item.Kind),
				zap.Int("attempts", item.Attempts+1),
				zap.Error(err))

			if item.Attempts+1 >= op.cfg.MaxRetries {
				op.logger.Warn("dropping outbox item (max retries reached)", zap.String("item_id", item.ID))
				_ = op.store.Ack(item)
				continue
			}
			if err := op.store.Retry(item, err); err != nil {
				op.logger.Error("failed to requeue outbox item", zap.Error(err))
			}
			continue
		}

		if err := op.store.Ack(item); err != nil {
			op.logger.Warn("failed to ack delivered outbox item", zap.Error(err))
		}
	}
	return nil
}

// Pending returns the number of undelivered items.
func (op *OutboxProcessor) Pending() int {
	if op == nil || op.store == nil {
		return 0
	}
	size, err := op.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (op *OutboxProcessor) deliver(ctx context.Context, item outbox.Item) error {
	switch item.Kind {
	case outbox.KindEmail:
		if op.sender == nil {
			return fmt.Errorf("no mail sender configured")
		}
		var msg mailer.Message
		if err := json.Unmarshal(item.Payload, &msg); err != nil {
			return err
		}
		return op.sender.Send(ctx, msg)
	default:
		return fmt.Errorf("unsupported outbox kind %s", item.Kind)
	}
}
