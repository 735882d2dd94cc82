// Package memory provides in-process implementations of the repository
// interfaces. They follow the Postgres semantics (owner scoping, unique
// emails, creation ordering) and back the use-case and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

// UserRepository is a map-backed repository.UserRepository.
type UserRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byID: make(map[int64]domain.User)}
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.byID {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	r.nextID++
	now := time.Now()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.byID[user.ID] = *user
	return nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	r.byID[id] = user
	return nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.UpdatedAt = time.Now()
	r.byID[user.ID] = stored
	*user = stored
	return nil
}

// Count reports how many users are stored.
func (r *UserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// TaskRepository is a map-backed repository.TaskRepository.
type TaskRepository struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]domain.Task
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{byID: make(map[int64]domain.Task)}
}

func (r *TaskRepository) GetByID(_ context.Context, userID, id int64) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.byID[id]
	if !ok || task.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

func (r *TaskRepository) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := make([]domain.Task, 0)
	for _, task := range r.byID {
		if task.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		tasks = append(tasks, *cloneTask(task))
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (r *TaskRepository) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := time.Now()
	task.ID = r.nextID
	task.CreatedAt = now
	task.UpdatedAt = now
	r.byID[task.ID] = *cloneTask(*task)
	return task, nil
}

func (r *TaskRepository) UpdateScoped(_ context.Context, userID, id int64, mutate repository.TaskMutation) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok || stored.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	task := cloneTask(stored)
	if err := mutate(task); err != nil {
		return nil, err
	}
	if now := time.Now(); now.After(task.UpdatedAt) {
		task.UpdatedAt = now
	}
	r.byID[id] = *cloneTask(*task)
	return task, nil
}

func (r *TaskRepository) Delete(_ context.Context, userID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.byID[id]
	if !ok || task.UserID != userID {
		return domain.ErrTaskNotFound
	}
	delete(r.byID, id)
	return nil
}

// SessionRepository is a map-backed repository.SessionRepository.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]domain.Session)}
}

func (r *SessionRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || session.IsExpired(time.Now()) {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (r *SessionRepository) Save(_ context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func cloneTask(task domain.Task) *domain.Task {
	if task.CompletionDate != nil {
		d := *task.CompletionDate
		task.CompletionDate = &d
	}
	return &task
}

var (
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.TaskRepository    = (*TaskRepository)(nil)
	_ repository.SessionRepository = (*SessionRepository)(nil)
)
