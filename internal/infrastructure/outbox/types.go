package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	KindEmail = "email"

	defaultPriority = 3
)

// Item is an outbound side effect waiting to be delivered.
type Item struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	Priority   int             `json:"priority"`
	Attempts   int             `json:"attempts"`
	LastError  string          `json:"last_error,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`

	key []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > 5 {
		i.Priority = defaultPriority
	}
	if i.EnqueuedAt.IsZero() {
		i.EnqueuedAt = time.Now()
	}
}
