package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/internal/infrastructure/outbox"
)

const probeTimeout = 3 * time.Second

// Checks are the probes run on every tick. A nil probe reports the
// dependency as down.
type Checks struct {
	Postgres func(ctx context.Context) error
	Redis    func(ctx context.Context) error
	Outbox   func() (int, error)
}

// PostgresCheck pings the pool.
func PostgresCheck(pool *pgxpool.Pool) func(ctx context.Context) error {
	if pool == nil {
		return nil
	}
	return pool.Ping
}

// RedisCheck pings the session store.
func RedisCheck(client *redislib.Client) func(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return func(ctx context.Context) error { return client.Ping(ctx).Err() }
}

// OutboxCheck reports the number of undelivered emails.
func OutboxCheck(store *outbox.Store) func() (int, error) {
	if store == nil {
		return nil
	}
	return store.Size
}

// Monitor caches dependency health for the health endpoint so probes never
// run on the request path.
type Monitor struct {
	checks   Checks
	interval time.Duration
	logger   *zap.Logger

	mu     sync.RWMutex
	status Status

	stopCh   chan struct{}
	stopOnce sync.Once
}

func New(checks Checks, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		checks:   checks,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start probes once synchronously, then keeps probing in the background.
func (m *Monitor) Start() {
	m.Refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every probe and stores the result.
func (m *Monitor) Refresh() {
	next := Status{
		PostgreSQL: m.ping("postgresql", m.checks.Postgres),
		Redis:      m.ping("redis", m.checks.Redis),
		LastCheck:  time.Now(),
	}
	if m.checks.Outbox != nil {
		pending, err := m.checks.Outbox()
		next.Outbox = err == nil
		next.OutboxPending = pending
		if err != nil {
			m.logger.Warn("outbox probe failed", zap.Error(err))
		}
	}

	m.mu.Lock()
	previous := m.status
	m.status = next
	m.mu.Unlock()

	if previous.LastCheck.IsZero() || previous.Healthy() != next.Healthy() {
		m.logger.Info("dependency status",
			zap.Bool("postgresql", next.PostgreSQL),
			zap.Bool("redis", next.Redis),
			zap.Int("outbox_pending", next.OutboxPending))
	}
}

func (m *Monitor) ping(name string, probe func(ctx context.Context) error) bool {
	if probe == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if err := probe(ctx); err != nil {
		m.logger.Debug("probe failed", zap.String("dependency", name), zap.Error(err))
		return false
	}
	return true
}
