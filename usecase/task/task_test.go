package task

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository/memory"
)

const (
	alice int64 = 1
	bob   int64 = 2
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newUseCase(t *testing.T, day string) (*UseCase, *clock) {
	t.Helper()
	start, err := time.Parse(time.RFC3339, day+"T09:00:00Z")
	require.NoError(t, err)
	c := &clock{now: start}
	return New(memory.NewTaskRepository(), nil, WithClock(c.Now)), c
}

func date(t *testing.T, value string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(value)
	require.NoError(t, err)
	return d
}

func statusPtr(s domain.TaskStatus) *domain.TaskStatus { return &s }

func TestCreateTask(t *testing.T) {
	uc, _ := newUseCase(t, "2025-01-01")
	ctx := context.Background()

	created, err := uc.CreateTask(ctx, alice, CreateInput{Title: "  Buy milk ", Deadline: date(t, "2025-01-10")})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, domain.TaskStatusInProgress, created.Status)
	assert.Nil(t, created.CompletionDate)
	assert.Equal(t, alice, created.UserID)
}

func TestCreateTaskValidation(t *testing.T) {
	uc, _ := newUseCase(t, "2025-01-01")
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateInput
	}{
		{name: "blank title", in: CreateInput{Title: "   ", Deadline: date(t, "2025-01-10")}},
		{name: "long title", in: CreateInput{Title: strings.Repeat("a", 201), Deadline: date(t, "2025-01-10")}},
		{name: "missing deadline", in: CreateInput{Title: "Buy milk"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.CreateTask(ctx, alice, tt.in)
			require.Error(t, err)
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation))
		})
	}
}

func TestListTasksScopedAndFiltered(t *testing.T) {
	uc, _ := newUseCase(t, "2025-01-01")
	ctx := context.Background()

	first, err := uc.CreateTask(ctx, alice, CreateInput{Title: "first", Deadline: date(t, "2025-01-10")})
	require.NoError(t, err)
	second, err := uc.CreateTask(ctx, alice, CreateInput{Title: "second", Deadline: date(t, "2025-01-11")})
	require.NoError(t, err)
	_, err = uc.CreateTask(ctx, bob, CreateInput{Title: "bob's", Deadline: date(t, "2025-01-12")})
	require.NoError(t, err)

	_, err = uc.UpdateTask(ctx, alice, second.ID, domain.TaskPatch{Status: statusPtr(domain.TaskStatusCompleted)})
	require.NoError(t, err)

	all, err := uc.ListTasks(ctx, alice, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)

	completed, err := uc.ListTasks(ctx, alice, "COMPLETED")
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, second.ID, completed[0].ID)

	inProgress, err := uc.ListTasks(ctx, alice, "IN_PROGRESS")
	require.NoError(t, err)
	require.Len(t, inProgress, 1)
	assert.Equal(t, first.ID, inProgress[0].ID)

	empty, err := uc.ListTasks(ctx, 99, "")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = uc.ListTasks(ctx, alice, "DONE")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestUpdateTaskCompletionLifecycle(t *testing.T) {
	uc, c := newUseCase(t, "2025-01-05")
	ctx := context.Background()

	task, err := uc.CreateTask(ctx, alice, CreateInput{Title: "Buy milk", Deadline: date(t, "2025-01-10")})
	require.NoError(t, err)

	done, err := uc.UpdateTask(ctx, alice, task.ID, domain.TaskPatch{Status: statusPtr(domain.TaskStatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, done.Status)
	require.NotNil(t, done.CompletionDate)
	assert.Equal(t, "2025-01-05", done.CompletionDate.String())
	assert.Equal(t, "Buy milk", done.Title)
	assert.Equal(t, "2025-01-10", done.Deadline.String())

	c.now = c.now.Add(48 * time.Hour)
	again, err := uc.UpdateTask(ctx, alice, task.ID, domain.TaskPatch{Status: statusPtr(domain.TaskStatusCompleted)})
	require.NoError(t, err)
	require.NotNil(t, again.CompletionDate)
	assert.Equal(t, "2025-01-07", again.CompletionDate.String(), "re-completing refreshes the date")

	title := "Buy oat milk"
	renamed, err := uc.UpdateTask(ctx, alice, task.ID, domain.TaskPatch{Title: &title})
	require.NoError(t, err)
	require.NotNil(t, renamed.CompletionDate, "patches without status keep the completion date")
	assert.Equal(t, "2025-01-07", renamed.CompletionDate.String())

	reopened, err := uc.UpdateTask(ctx, alice, task.ID, domain.TaskPatch{Status: statusPtr(domain.TaskStatusInProgress)})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusInProgress, reopened.Status)
	assert.Nil(t, reopened.CompletionDate)
}

func TestUpdateTaskValidation(t *testing.T) {
	uc, _ := newUseCase(t, "2025-01-05")
	ctx := context.Background()

	task, err := uc.CreateTask(ctx, alice, CreateInput{Title: "Buy milk", Deadline: date(t, "2025-01-10")})
	require.NoError(t, err)

	blank := "  "
	_, err = uc.UpdateTask(ctx, alice, task.ID, domain.TaskPatch{Title: &blank})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation))

	var zero domain.Date
	_, err = uc.UpdateTask(ctx, alice, task.ID, domain.TaskPatch{Deadline: &zero})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation))
}

func TestForeignTasksLookMissing(t *testing.T) {
	uc, _ := newUseCase(t, "2025-01-05")
	ctx := context.Background()

	task, err := uc.CreateTask(ctx, alice, CreateInput{Title: "private", Deadline: date(t, "2025-01-10")})
	require.NoError(t, err)

	title := "hijacked"
	_, err = uc.UpdateTask(ctx, bob, task.ID, domain.TaskPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	err = uc.DeleteTask(ctx, bob, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = uc.UpdateTask(ctx, alice, 9999, domain.TaskPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	list, err := uc.ListTasks(ctx, alice, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "private", list[0].Title)
}

func TestDeleteTask(t *testing.T) {
	uc, _ := newUseCase(t, "2025-01-05")
	ctx := context.Background()

	task, err := uc.CreateTask(ctx, alice, CreateInput{Title: "Buy milk", Deadline: date(t, "2025-01-10")})
	require.NoError(t, err)

	require.NoError(t, uc.DeleteTask(ctx, alice, task.ID))
	assert.ErrorIs(t, uc.DeleteTask(ctx, alice, task.ID), domain.ErrTaskNotFound)

	list, err := uc.ListTasks(ctx, alice, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}
