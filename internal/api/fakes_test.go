package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/tasktrackhq/tasktrack-api/internal/api/shared"
	"github.com/tasktrackhq/tasktrack-api/internal/domain"
	"github.com/tasktrackhq/tasktrack-api/internal/service"
	"github.com/tasktrackhq/tasktrack-api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// fakeAuthService implements service.AuthService with injectable
// functions.
type fakeAuthService struct {
	registerFn func(ctx context.Context, name, email, password string) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, error)
}

func (f *fakeAuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if f.registerFn == nil {
		return nil, errors.New("unexpected Register call")
	}
	return f.registerFn(ctx, name, email, password)
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, error) {
	if f.loginFn == nil {
		return "", errors.New("unexpected Login call")
	}
	return f.loginFn(ctx, email, password)
}

// fakeProjectService implements service.ProjectService with injectable
// functions.
type fakeProjectService struct {
	createFn func(ctx context.Context, ownerID int64, title, description string) (*domain.Project, error)
	getFn    func(ctx context.Context, userID, projectID int64) (*domain.Project, error)
	listFn   func(ctx context.Context, userID int64) ([]*domain.Project, error)
	updateFn func(ctx context.Context, userID, projectID int64, update service.ProjectUpdate) (*domain.Project, error)
	deleteFn func(ctx context.Context, userID, projectID int64) error
}

func (f *fakeProjectService) Create(ctx context.Context, ownerID int64, title, description string) (*domain.Project, error) {
	if f.createFn == nil {
		return nil, errors.New("unexpected Create call")
	}
	return f.createFn(ctx, ownerID, title, description)
}

func (f *fakeProjectService) Get(ctx context.Context, userID, projectID int64) (*domain.Project, error) {
	if f.getFn == nil {
		return nil, errors.New("unexpected Get call")
	}
	return f.getFn(ctx, userID, projectID)
}

func (f *fakeProjectService) List(ctx context.Context, userID int64) ([]*domain.Project, error) {
	if f.listFn == nil {
		return nil, errors.New("unexpected List call")
	}
	return f.listFn(ctx, userID)
}

func (f *fakeProjectService) Update(ctx context.Context, userID, projectID int64, update service.ProjectUpdate) (*domain.Project, error) {
	if f.updateFn == nil {
		return nil, errors.New("unexpected Update call")
	}
	return f.updateFn(ctx, userID, projectID, update)
}

func (f *fakeProjectService) Delete(ctx context.Context, userID, projectID int64) error {
	if f.deleteFn == nil {
		return errors.New("unexpected Delete call")
	}
	return f.deleteFn(ctx, userID, projectID)
}

// fakeTaskService implements service.TaskService with injectable
// functions.
type fakeTaskService struct {
	createFn func(ctx context.Context, actorID int64, in service.TaskCreate) (*domain.Task, error)
	getFn    func(ctx context.Context, userID, taskID int64) (*domain.Task, error)
	listFn   func(ctx context.Context, userID int64, opts store.TaskListOptions) ([]*domain.Task, error)
	updateFn func(ctx context.Context, actorID, taskID int64, update service.TaskUpdate) (*domain.Task, error)
	deleteFn func(ctx context.Context, userID, taskID int64) error
}

func (f *fakeTaskService) Create(ctx context.Context, actorID int64, in service.TaskCreate) (*domain.Task, error) {
	if f.createFn == nil {
		return nil, errors.New("unexpected Create call")
	}
	return f.createFn(ctx, actorID, in)
}

func (f *fakeTaskService) Get(ctx context.Context, userID, taskID int64) (*domain.Task, error) {
	if f.getFn == nil {
		return nil, errors.New("unexpected Get call")
	}
	return f.getFn(ctx, userID, taskID)
}

func (f *fakeTaskService) List(ctx context.Context, userID int64, opts store.TaskListOptions) ([]*domain.Task, error) {
	if f.listFn == nil {
		return nil, errors.New("unexpected List call")
	}
	return f.listFn(ctx, userID, opts)
}

func (f *fakeTaskService) Update(ctx context.Context, actorID, taskID int64, update service.TaskUpdate) (*domain.Task, error) {
	if f.updateFn == nil {
		return nil, errors.New("unexpected Update call")
	}
	return f.updateFn(ctx, actorID, taskID, update)
}

func (f *fakeTaskService) Delete(ctx context.Context, userID, taskID int64) error {
	if f.deleteFn == nil {
		return errors.New("unexpected Delete call")
	}
	return f.deleteFn(ctx, userID, taskID)
}

// authed attaches a user ID to the request context the way the
// authentication middleware would.
func authed(req *http.Request, userID int64) *http.Request {
	return req.WithContext(shared.WithUserID(req.Context(), userID))
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func postJSON(target, body string) *http.Request {
	return jsonRequest(http.MethodPost, target, body)
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var body shared.ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

// serve routes the request through a real chi mux so URL parameters are
// resolved exactly as in production.
func serve(t *testing.T, register func(r chi.Router), req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	register(r)
	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, req)
	return recorder
}

func fixtureProject(id, ownerID int64) *domain.Project {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return &domain.Project{
		ID:          id,
		Title:       "Apollo",
		Description: "launch prep",
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func fixtureTask(id, projectID int64) *domain.Task {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return &domain.Task{
		ID:        id,
		Title:     "write report",
		Status:    domain.TaskStatusTodo,
		Priority:  domain.TaskPriorityMedium,
		ProjectID: projectID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
