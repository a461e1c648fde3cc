package service_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/tasktrackhq/tasktrack-api/internal/domain"
	"github.com/tasktrackhq/tasktrack-api/internal/events"
	"github.com/tasktrackhq/tasktrack-api/internal/service/auth"
	"github.com/tasktrackhq/tasktrack-api/internal/store"
)

// testLogger returns a logger that discards all output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestDB returns a sqlmock-backed database handle. Service tests
// pair it with fake stores that ignore the transaction, so only the
// begin/commit/rollback sequence is asserted against the mock.
func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// ptr returns a pointer to the given value.
func ptr[T any](v T) *T {
	return &v
}

// fakeUserStore implements store.UserStore with overridable functions.
// Calls without an override fail the operation so tests notice
// unexpected store access.
type fakeUserStore struct {
	createFn     func(ctx context.Context, user *domain.User) error
	getByIDFn    func(ctx context.Context, id int64) (*domain.User, error)
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	listFn       func(ctx context.Context) ([]*domain.User, error)
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	if f.createFn == nil {
		return errors.New("unexpected Create call")
	}
	return f.createFn(ctx, user)
}

func (f *fakeUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if f.getByIDFn == nil {
		return nil, errors.New("unexpected GetByID call")
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.getByEmailFn == nil {
		return nil, errors.New("unexpected GetByEmail call")
	}
	return f.getByEmailFn(ctx, email)
}

func (f *fakeUserStore) List(ctx context.Context) ([]*domain.User, error) {
	if f.listFn == nil {
		return nil, errors.New("unexpected List call")
	}
	return f.listFn(ctx)
}

func (f *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return f }

// fakeProjectStore implements store.ProjectStore with overridable
// functions.
type fakeProjectStore struct {
	createFn      func(ctx context.Context, project *domain.Project) error
	getByIDFn     func(ctx context.Context, id int64) (*domain.Project, error)
	listByOwnerFn func(ctx context.Context, ownerID int64) ([]*domain.Project, error)
	updateFn      func(ctx context.Context, project *domain.Project) error
	deleteFn      func(ctx context.Context, id int64) error
}

func (f *fakeProjectStore) Create(ctx context.Context, project *domain.Project) error {
	if f.createFn == nil {
		return errors.New("unexpected Create call")
	}
	return f.createFn(ctx, project)
}

func (f *fakeProjectStore) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	if f.getByIDFn == nil {
		return nil, errors.New("unexpected GetByID call")
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeProjectStore) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Project, error) {
	if f.listByOwnerFn == nil {
		return nil, errors.New("unexpected ListByOwner call")
	}
	return f.listByOwnerFn(ctx, ownerID)
}

func (f *fakeProjectStore) Update(ctx context.Context, project *domain.Project) error {
	if f.updateFn == nil {
		return errors.New("unexpected Update call")
	}
	return f.updateFn(ctx, project)
}

func (f *fakeProjectStore) Delete(ctx context.Context, id int64) error {
	if f.deleteFn == nil {
		return errors.New("unexpected Delete call")
	}
	return f.deleteFn(ctx, id)
}

func (f *fakeProjectStore) WithTx(tx *sql.Tx) store.ProjectStore { return f }

// fakeTaskStore implements store.TaskStore with overridable functions.
type fakeTaskStore struct {
	createFn          func(ctx context.Context, task *domain.Task) error
	getByIDFn         func(ctx context.Context, id int64) (*domain.Task, error)
	listFn            func(ctx context.Context, userID int64, opts store.TaskListOptions) ([]*domain.Task, error)
	listOverdueFn     func(ctx context.Context, userID int64, before time.Time) ([]*domain.Task, error)
	updateFn          func(ctx context.Context, task *domain.Task) error
	deleteFn          func(ctx context.Context, id int64) error
	deleteByProjectFn func(ctx context.Context, projectID int64) (int64, error)
}

func (f *fakeTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if f.createFn == nil {
		return errors.New("unexpected Create call")
	}
	return f.createFn(ctx, task)
}

func (f *fakeTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	if f.getByIDFn == nil {
		return nil, errors.New("unexpected GetByID call")
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeTaskStore) List(
	ctx context.Context,
	userID int64,
	opts store.TaskListOptions,
) ([]*domain.Task, error) {
	if f.listFn == nil {
		return nil, errors.New("unexpected List call")
	}
	return f.listFn(ctx, userID, opts)
}

func (f *fakeTaskStore) ListOverdue(
	ctx context.Context,
	userID int64,
	before time.Time,
) ([]*domain.Task, error) {
	if f.listOverdueFn == nil {
		return nil, errors.New("unexpected ListOverdue call")
	}
	return f.listOverdueFn(ctx, userID, before)
}

func (f *fakeTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if f.updateFn == nil {
		return errors.New("unexpected Update call")
	}
	return f.updateFn(ctx, task)
}

func (f *fakeTaskStore) Delete(ctx context.Context, id int64) error {
	if f.deleteFn == nil {
		return errors.New("unexpected Delete call")
	}
	return f.deleteFn(ctx, id)
}

func (f *fakeTaskStore) DeleteByProject(ctx context.Context, projectID int64) (int64, error) {
	if f.deleteByProjectFn == nil {
		return 0, errors.New("unexpected DeleteByProject call")
	}
	return f.deleteByProjectFn(ctx, projectID)
}

func (f *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return f }

// fakeEmitter records emitted events. An optional emitFn overrides the
// default accept-everything behavior.
type fakeEmitter struct {
	mu     sync.Mutex
	emitFn func(ctx context.Context, event *events.Event) error
	events []*events.Event
}

func (f *fakeEmitter) EmitEvent(ctx context.Context, event *events.Event) error {
	if f.emitFn != nil {
		if err := f.emitFn(ctx, event); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeEmitter) emitted() []*events.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*events.Event, len(f.events))
	copy(out, f.events)
	return out
}

// fakeHasher hashes passwords with a recognizable prefix.
type fakeHasher struct {
	hashFn func(password string) (string, error)
}

func (f *fakeHasher) Hash(password string) (string, error) {
	if f.hashFn != nil {
		return f.hashFn(password)
	}
	return "hashed:" + password, nil
}

// fakeVerifier accepts passwords hashed by fakeHasher.
type fakeVerifier struct {
	compareFn func(hashedPassword, password string) error
}

func (f *fakeVerifier) Compare(hashedPassword, password string) error {
	if f.compareFn != nil {
		return f.compareFn(hashedPassword, password)
	}
	if hashedPassword != "hashed:"+password {
		return auth.ErrPasswordMismatch
	}
	return nil
}

// fakeJWTService mints predictable tokens.
type fakeJWTService struct {
	generateFn func(ctx context.Context, userID int64) (string, error)
	validateFn func(ctx context.Context, tokenString string) (*auth.Claims, error)
}

func (f *fakeJWTService) GenerateToken(ctx context.Context, userID int64) (string, error) {
	if f.generateFn != nil {
		return f.generateFn(ctx, userID)
	}
	return fmt.Sprintf("token-%d", userID), nil
}

func (f *fakeJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if f.validateFn != nil {
		return f.validateFn(ctx, tokenString)
	}
	return nil, errors.New("unexpected ValidateToken call")
}

// newStoredUser returns a user as the store would load it.
func newStoredUser(id int64, name, email string) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:             id,
		Name:           name,
		Email:          email,
		HashedPassword: "hashed:password123",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// newStoredProject returns a project as the store would load it.
func newStoredProject(id, ownerID int64, title string) *domain.Project {
	now := time.Now().UTC()
	return &domain.Project{
		ID:          id,
		Title:       title,
		Description: "a project",
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// newStoredTask returns a task as the store would load it.
func newStoredTask(id, projectID int64, assignedUserID *int64) *domain.Task {
	now := time.Now().UTC()
	return &domain.Task{
		ID:             id,
		Title:          "a task",
		Description:    "something to do",
		Status:         domain.TaskStatusTodo,
		Priority:       domain.TaskPriorityMedium,
		ProjectID:      projectID,
		AssignedUserID: assignedUserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
