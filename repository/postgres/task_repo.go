package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

const taskColumns = `id, user_id, title, deadline, status, completion_date, created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, userID, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	return scanTask(r.pool.QueryRow(ctx, query, id, userID))
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1
	  AND ($2::text = '' OR status = $2::text)
	ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, filter.UserID, string(filter.Status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO tasks (user_id, title, deadline, status, completion_date)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.UserID,
		task.Title,
		task.Deadline.Time,
		string(task.Status),
		nullDate(task.CompletionDate),
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

// UpdateScoped locks the owner's row, lets mutate edit it and writes every
// column back in one statement, all inside a single transaction.
func (r *taskRepository) UpdateScoped(ctx context.Context, userID, id int64, mutate repository.TaskMutation) (*domain.Task, error) {
	var updated *domain.Task

	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2 FOR UPDATE`
		task, err := scanTask(tx.QueryRow(ctx, query, id, userID))
		if err != nil {
			return err
		}

		if err := mutate(task); err != nil {
			return err
		}

		const update = `
		UPDATE tasks
		SET title = $3,
			deadline = $4,
			status = $5,
			completion_date = $6,
			updated_at = GREATEST(NOW(), updated_at)
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
		`
		if err := tx.QueryRow(ctx, update,
			task.ID,
			userID,
			task.Title,
			task.Deadline.Time,
			string(task.Status),
			nullDate(task.CompletionDate),
		).Scan(&task.UpdatedAt); err != nil {
			return err
		}

		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *taskRepository) Delete(ctx context.Context, userID, id int64) error {
	const query = `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		task       domain.Task
		deadline   time.Time
		status     string
		completion *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&deadline,
		&status,
		&completion,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Deadline = domain.NewDate(deadline)
	task.Status = domain.TaskStatus(status)
	task.CompletionDate = dateFromNullable(completion)
	return &task, nil
}
