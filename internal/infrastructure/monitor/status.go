package monitor

import "time"

// Status is the last probe result served by /health.
type Status struct {
	PostgreSQL    bool      `json:"postgresql"`
	Redis         bool      `json:"redis"`
	Outbox        bool      `json:"outbox"`
	OutboxPending int       `json:"outbox_pending"`
	LastCheck     time.Time `json:"last_check"`
}

// Healthy reports whether the request path can be served. The outbox only
// carries reset emails, so its state is informational.
func (s Status) Healthy() bool {
	return s.PostgreSQL && s.Redis
}
