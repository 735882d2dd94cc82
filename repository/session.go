package repository

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

// SessionRepository stores refresh sessions. Get reports a missing or
// expired session as domain.ErrSessionNotFound; Delete is idempotent.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
}
