package notification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tasktrackhq/tasktrack-api/internal/domain"
	"github.com/tasktrackhq/tasktrack-api/internal/platform/mailer"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testRetry keeps backoff waits negligible so failure-path tests stay
// fast.
func testRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Base: time.Millisecond}
}

type fakeTaskReader struct {
	getByIDFn     func(ctx context.Context, id int64) (*domain.Task, error)
	listOverdueFn func(ctx context.Context, userID int64, before time.Time) ([]*domain.Task, error)
}

func (f *fakeTaskReader) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, errors.New("unexpected GetByID call")
}

func (f *fakeTaskReader) ListOverdue(ctx context.Context, userID int64, before time.Time) ([]*domain.Task, error) {
	if f.listOverdueFn != nil {
		return f.listOverdueFn(ctx, userID, before)
	}
	return nil, errors.New("unexpected ListOverdue call")
}

type fakeUserReader struct {
	getByIDFn func(ctx context.Context, id int64) (*domain.User, error)
	listFn    func(ctx context.Context) ([]*domain.User, error)
}

func (f *fakeUserReader) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, errors.New("unexpected GetByID call")
}

func (f *fakeUserReader) List(ctx context.Context) ([]*domain.User, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, errors.New("unexpected List call")
}

type fakeProjectReader struct {
	getByIDFn func(ctx context.Context, id int64) (*domain.Project, error)
}

func (f *fakeProjectReader) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, errors.New("unexpected GetByID call")
}

// fakeMailer records delivered messages and counts every attempt,
// including failed ones.
type fakeMailer struct {
	mu     sync.Mutex
	sendFn func(ctx context.Context, msg mailer.Message) error
	sent   []mailer.Message
	calls  int
}

func (m *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.sendFn != nil {
		if err := m.sendFn(ctx, msg); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

func (m *fakeMailer) delivered() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mailer.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *fakeMailer) attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// usersByID builds a reader that resolves the given users and reports
// everything else missing.
func usersByID(users ...*domain.User) *fakeUserReader {
	byID := make(map[int64]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return &fakeUserReader{
		getByIDFn: func(_ context.Context, id int64) (*domain.User, error) {
			if u, ok := byID[id]; ok {
				return u, nil
			}
			return nil, errors.New("user not found")
		},
		listFn: func(_ context.Context) ([]*domain.User, error) {
			return users, nil
		},
	}
}

func tasksByID(tasks ...*domain.Task) *fakeTaskReader {
	byID := make(map[int64]*domain.Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}
	return &fakeTaskReader{
		getByIDFn: func(_ context.Context, id int64) (*domain.Task, error) {
			if task, ok := byID[id]; ok {
				return task, nil
			}
			return nil, errors.New("task not found")
		},
	}
}

func projectsByID(projects ...*domain.Project) *fakeProjectReader {
	byID := make(map[int64]*domain.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}
	return &fakeProjectReader{
		getByIDFn: func(_ context.Context, id int64) (*domain.Project, error) {
			if p, ok := byID[id]; ok {
				return p, nil
			}
			return nil, errors.New("project not found")
		},
	}
}

func newTestUser(id int64, name, email string) *domain.User {
	return &domain.User{ID: id, Name: name, Email: email}
}

func newTestProject(id, ownerID int64, title string) *domain.Project {
	return &domain.Project{ID: id, OwnerID: ownerID, Title: title}
}

func newTestTask(id, projectID int64, title string) *domain.Task {
	return &domain.Task{
		ID:        id,
		ProjectID: projectID,
		Title:     title,
		Status:    domain.TaskStatusTodo,
		Priority:  domain.TaskPriorityMedium,
	}
}
