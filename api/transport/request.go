package transport

import "github.com/fastygo/taskboard/domain"

type RegisterRequest struct {
	// Clients send the email address as "username".
	Username  string `json:"username" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmRequest struct {
	NewPassword1 string `json:"new_password1" validate:"required"`
	NewPassword2 string `json:"new_password2" validate:"required"`
}

type ProfileUpdateRequest struct {
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

type TaskCreateRequest struct {
	Title    string       `json:"title" validate:"required,max=200"`
	Deadline *domain.Date `json:"deadline" validate:"required"`
}

// TaskUpdateRequest has pointer fields so absent keys leave the task alone.
type TaskUpdateRequest struct {
	Title    *string      `json:"title" validate:"omitempty,max=200"`
	Deadline *domain.Date `json:"deadline"`
	Status   *string      `json:"status" validate:"omitempty,oneof=IN_PROGRESS COMPLETED"`
}

// Patch converts the request into a domain patch.
func (r TaskUpdateRequest) Patch() domain.TaskPatch {
	patch := domain.TaskPatch{
		Title:    r.Title,
		Deadline: r.Deadline,
	}
	if r.Status != nil {
		status := domain.TaskStatus(*r.Status)
		patch.Status = &status
	}
	return patch
}
