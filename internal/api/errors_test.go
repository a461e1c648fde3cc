package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/tasktrackhq/tasktrack-api/internal/domain"
	"github.com/tasktrackhq/tasktrack-api/internal/service"
	"github.com/tasktrackhq/tasktrack-api/internal/service/auth"
	"github.com/tasktrackhq/tasktrack-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"token not yet valid", auth.ErrTokenNotYetValid, http.StatusUnauthorized},
		{"missing token", auth.ErrMissingToken, http.StatusUnauthorized},
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{
			"wrapped invalid credentials",
			service.NewServiceError("login", "Incorrect email or password", service.ErrInvalidCredentials),
			http.StatusUnauthorized,
		},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{
			"wrapped forbidden",
			service.NewServiceError("get_task", "Not authorized to view this task", service.ErrForbidden),
			http.StatusForbidden,
		},
		{"task not found", store.ErrTaskNotFound, http.StatusNotFound},
		{"project not found", store.ErrProjectNotFound, http.StatusNotFound},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"email exists", store.ErrEmailExists, http.StatusBadRequest},
		{"empty task title", domain.ErrEmptyTaskTitle, http.StatusBadRequest},
		{
			"wrapped invalid status",
			fmt.Errorf("%w: %q", domain.ErrInvalidTaskStatus, "archived"),
			http.StatusBadRequest,
		},
		{"password too short", domain.ErrPasswordTooShort, http.StatusBadRequest},
		{"invalid sort field", service.ErrInvalidSortField, http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"unknown error", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	t.Run("service error message wins", func(t *testing.T) {
		t.Parallel()
		err := service.NewServiceError("get_task", "Task not found", store.ErrTaskNotFound)
		assert.Equal(t, "Task not found", GetSafeErrorMessage(err))
	})

	t.Run("service error without message falls back to sentinel", func(t *testing.T) {
		t.Parallel()
		err := service.NewServiceError("get_task", "", store.ErrTaskNotFound)
		assert.Equal(t, "Task not found", GetSafeErrorMessage(err))
	})

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, "An unexpected error occurred"},
		{"expired token", auth.ErrExpiredToken, "Could not validate credentials"},
		{"invalid credentials", service.ErrInvalidCredentials, "Incorrect email or password"},
		{"forbidden", service.ErrForbidden, "Operation not permitted"},
		{"project not found", store.ErrProjectNotFound, "Project not found"},
		{"email exists", store.ErrEmailExists, "Email already registered"},
		{"validation sentinel passes through", domain.ErrEmptyTaskTitle, "task title cannot be empty"},
		{"invalid sort field", service.ErrInvalidSortField, "Invalid sort_by field."},
		{"unknown error is masked", errors.New("pq: ssl handshake failure"), "An unexpected error occurred"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	validate := validator.New()

	t.Run("missing required field", func(t *testing.T) {
		t.Parallel()
		err := validate.Struct(RegisterRequest{Email: "a@example.com", Password: "password123"})
		assert.Equal(t, "Invalid Name: required field", SanitizeValidationError(err))
	})

	t.Run("bad email format", func(t *testing.T) {
		t.Parallel()
		err := validate.Struct(RegisterRequest{Name: "Ada", Email: "nope", Password: "password123"})
		assert.Equal(t, "Invalid Email: invalid email format", SanitizeValidationError(err))
	})

	t.Run("password too short", func(t *testing.T) {
		t.Parallel()
		err := validate.Struct(RegisterRequest{Name: "Ada", Email: "a@example.com", Password: "short"})
		assert.Equal(t, "Invalid Password: too short", SanitizeValidationError(err))
	})

	t.Run("non validator error", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("boom")))
	})
}
