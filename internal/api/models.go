package api

import (
	"time"

	"github.com/tasktrackhq/tasktrack-api/internal/domain"
)

// Request/response structures shared by the handlers.

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UserResponse is the public view of a user. The hashed password never
// appears here.
type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RegisterResponse defines the successful response for registration.
type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// TokenResponse defines the successful response for the login endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// DetailResponse carries a single human-readable message, used for
// deletion confirmations.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// ProjectCreateRequest defines the payload for creating a project.
type ProjectCreateRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// ProjectUpdateRequest defines the payload for a partial project
// update. Nil fields are left untouched.
type ProjectUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// ProjectResponse is the public view of a project.
type ProjectResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskCreateRequest defines the payload for creating a task. DueDate is
// kept as a string so both date-only and timestamp forms are accepted.
type TaskCreateRequest struct {
	ProjectID      int64   `json:"project_id" validate:"required"`
	Title          string  `json:"title"      validate:"required"`
	Description    string  `json:"description"`
	Status         string  `json:"status"`
	Priority       string  `json:"priority"`
	DueDate        *string `json:"due_date"`
	AssignedUserID *int64  `json:"assigned_user_id"`
}

// TaskUpdateRequest defines the payload for a partial task update. For
// due_date and assigned_user_id the handler distinguishes an absent
// field from an explicit null, so the decoded pointers alone are not
// enough; see decodeTaskUpdate.
type TaskUpdateRequest struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Status         *string `json:"status"`
	Priority       *string `json:"priority"`
	DueDate        *string `json:"due_date"`
	AssignedUserID *int64  `json:"assigned_user_id"`
}

// TaskResponse is the public view of a task.
type TaskResponse struct {
	ID             int64      `json:"id"`
	ProjectID      int64      `json:"project_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	DueDate        *time.Time `json:"due_date"`
	AssignedUserID *int64     `json:"assigned_user_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func newUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

func newProjectResponse(project *domain.Project) ProjectResponse {
	return ProjectResponse{
		ID:          project.ID,
		Title:       project.Title,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

func newProjectResponses(projects []*domain.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, newProjectResponse(p))
	}
	return out
}

func newTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:             task.ID,
		ProjectID:      task.ProjectID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         string(task.Status),
		Priority:       string(task.Priority),
		DueDate:        task.DueDate,
		AssignedUserID: task.AssignedUserID,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}
}

func newTaskResponses(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskResponse(t))
	}
	return out
}
