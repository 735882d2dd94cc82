package task

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

// UseCase is the task service. Every method is scoped to ownerID; rows owned
// by someone else behave exactly like missing rows.
type UseCase struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
	now    func() time.Time
}

// Option customises a UseCase.
type Option func(*UseCase)

// WithClock overrides the clock used for completion dates.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

func New(tasks repository.TaskRepository, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		tasks:  tasks,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// CreateInput is the payload of CreateTask.
type CreateInput struct {
	Title    string
	Deadline domain.Date
}

// ListTasks returns the owner's tasks, oldest first, optionally narrowed to
// one status. An empty status means no filter.
func (uc *UseCase) ListTasks(ctx context.Context, ownerID int64, status string) ([]domain.Task, error) {
	filter := repository.TaskFilter{UserID: ownerID}
	if status != "" {
		parsed, err := domain.ParseTaskStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = parsed
	}
	return uc.tasks.List(ctx, filter)
}

func (uc *UseCase) CreateTask(ctx context.Context, ownerID int64, in CreateInput) (*domain.Task, error) {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if in.Deadline.IsZero() {
		return nil, domain.ValidationError("deadline is required")
	}

	created, err := uc.tasks.Create(ctx, &domain.Task{
		UserID:   ownerID,
		Title:    title,
		Deadline: in.Deadline,
		Status:   domain.TaskStatusInProgress,
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Debug("task created", zap.Int64("task_id", created.ID), zap.Int64("user_id", ownerID))
	return created, nil
}

// UpdateTask applies a partial update. A status in the patch always
// re-derives the completion date, even when the status does not change.
func (uc *UseCase) UpdateTask(ctx context.Context, ownerID, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Title != nil {
		title, err := normalizeTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	if patch.Deadline != nil && patch.Deadline.IsZero() {
		return nil, domain.ValidationError("deadline cannot be null")
	}

	today := domain.NewDate(uc.now())
	return uc.tasks.UpdateScoped(ctx, ownerID, id, func(task *domain.Task) error {
		task.Apply(patch, today)
		return nil
	})
}

func (uc *UseCase) DeleteTask(ctx context.Context, ownerID, id int64) error {
	return uc.tasks.Delete(ctx, ownerID, id)
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", domain.ValidationError("title is required")
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return "", domain.ValidationError("title must be at most 200 characters")
	}
	return title, nil
}
