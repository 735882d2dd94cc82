package domain

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

// MaxTitleLength bounds Task.Title.
const MaxTitleLength = 200

// ParseTaskStatus accepts only the two known statuses.
func ParseTaskStatus(value string) (TaskStatus, error) {
	switch TaskStatus(value) {
	case TaskStatusInProgress, TaskStatusCompleted:
		return TaskStatus(value), nil
	default:
		return "", ErrInvalidStatus
	}
}

// Task represents a user-owned activity item.
type Task struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"-"`
	Title          string     `json:"title"`
	Deadline       Date       `json:"deadline"`
	Status         TaskStatus `json:"status"`
	CompletionDate *Date      `json:"completion_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TaskPatch carries the fields of a partial update; nil means "leave as is".
type TaskPatch struct {
	Title    *string
	Deadline *Date
	Status   *TaskStatus
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == TaskStatusCompleted
}

// SetStatus moves the task to status and keeps CompletionDate in step:
// COMPLETED stamps today, IN_PROGRESS clears it. Re-completing a completed
// task refreshes the date.
func (t *Task) SetStatus(status TaskStatus, today Date) {
	t.Status = status
	if status == TaskStatusCompleted {
		d := today
		t.CompletionDate = &d
		return
	}
	t.CompletionDate = nil
}

// Apply copies the supplied patch fields onto the task.
func (t *Task) Apply(patch TaskPatch, today Date) {
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Deadline != nil {
		t.Deadline = *patch.Deadline
	}
	if patch.Status != nil {
		t.SetStatus(*patch.Status, today)
	}
}
