package repository

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

// TaskFilter scopes a listing to one owner and, optionally, one status.
type TaskFilter struct {
	UserID int64
	Status domain.TaskStatus
}

// TaskMutation is applied to a locked, owner-scoped task inside UpdateScoped.
type TaskMutation func(task *domain.Task) error

type TaskRepository interface {
	GetByID(ctx context.Context, userID, id int64) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	UpdateScoped(ctx context.Context, userID, id int64, mutate TaskMutation) (*domain.Task, error)
	Delete(ctx context.Context, userID, id int64) error
}
