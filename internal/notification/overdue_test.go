package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktrackhq/tasktrack-api/internal/domain"
	"github.com/tasktrackhq/tasktrack-api/internal/platform/mailer"
)

func newTestSummarizer(t *testing.T, tasks TaskReader, users UserReader, projects ProjectReader, m *fakeMailer) *OverdueSummarizer {
	t.Helper()
	s, err := NewOverdueSummarizer(tasks, users, projects, m, testRetry(), testLogger())
	require.NoError(t, err)
	return s
}

func TestNewOverdueSummarizer(t *testing.T) {
	t.Parallel()

	t.Run("fails with nil mailer", func(t *testing.T) {
		s, err := NewOverdueSummarizer(tasksByID(), usersByID(), projectsByID(), nil, testRetry(), testLogger())
		assert.ErrorIs(t, err, ErrNilMailer)
		assert.Nil(t, s)
	})

	t.Run("fails with nil logger", func(t *testing.T) {
		s, err := NewOverdueSummarizer(tasksByID(), usersByID(), projectsByID(), &fakeMailer{}, testRetry(), nil)
		assert.ErrorIs(t, err, ErrNilLogger)
		assert.Nil(t, s)
	})
}

func TestOverdueSummarizer_Run(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 24, 17, 30, 0, 0, time.UTC)
	due := time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC)

	t.Run("sends one digest per user with overdue tasks", func(t *testing.T) {
		alice := newTestUser(1, "Alice", "alice@example.com")
		bob := newTestUser(2, "Bob", "bob@example.com")

		apollo := newTestProject(5, 1, "Apollo")
		gemini := newTestProject(6, 1, "Gemini")

		first := newTestTask(10, 5, "Write launch checklist")
		first.DueDate = &due
		second := newTestTask(11, 5, "Review abort procedures")
		second.DueDate = &due
		third := newTestTask(12, 6, "Order heat shields")
		third.DueDate = &due

		overdueByUser := map[int64][]*domain.Task{
			1: {first, second, third},
		}

		tasks := &fakeTaskReader{
			listOverdueFn: func(_ context.Context, userID int64, before time.Time) ([]*domain.Task, error) {
				return overdueByUser[userID], nil
			},
		}
		m := &fakeMailer{}
		s := newTestSummarizer(t, tasks, usersByID(alice, bob), projectsByID(apollo, gemini), m)

		report, err := s.Run(context.Background(), now)
		require.NoError(t, err)

		assert.Equal(t, 1, report.EmailsSent)
		assert.Equal(t, 3, report.TotalOverdueTasks)
		assert.Equal(t, "2026-08-24", report.Date)

		delivered := m.delivered()
		require.Len(t, delivered, 1)
		assert.Equal(t, "alice@example.com", delivered[0].To)
		assert.Equal(t, "Daily Summary: 3 Overdue Tasks", delivered[0].Subject)
		assert.Contains(t, delivered[0].HTMLBody, "Project: Apollo")
		assert.Contains(t, delivered[0].HTMLBody, "Project: Gemini")
	})

	t.Run("cutoff is the start of the sweep day", func(t *testing.T) {
		alice := newTestUser(1, "Alice", "alice@example.com")

		var gotBefore time.Time
		tasks := &fakeTaskReader{
			listOverdueFn: func(_ context.Context, _ int64, before time.Time) ([]*domain.Task, error) {
				gotBefore = before
				return nil, nil
			},
		}
		s := newTestSummarizer(t, tasks, usersByID(alice), projectsByID(), &fakeMailer{})

		_, err := s.Run(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC), gotBefore)
	})

	t.Run("user listing failure stops the sweep", func(t *testing.T) {
		users := &fakeUserReader{
			listFn: func(_ context.Context) ([]*domain.User, error) {
				return nil, errors.New("connection refused")
			},
		}
		s := newTestSummarizer(t, tasksByID(), users, projectsByID(), &fakeMailer{})

		report, err := s.Run(context.Background(), now)
		require.Error(t, err)
		assert.Nil(t, report)
	})

	t.Run("one user's listing failure does not stop the sweep", func(t *testing.T) {
		alice := newTestUser(1, "Alice", "alice@example.com")
		bob := newTestUser(2, "Bob", "bob@example.com")
		apollo := newTestProject(5, 2, "Apollo")
		task := newTestTask(10, 5, "Write launch checklist")
		task.DueDate = &due

		tasks := &fakeTaskReader{
			listOverdueFn: func(_ context.Context, userID int64, _ time.Time) ([]*domain.Task, error) {
				if userID == 1 {
					return nil, errors.New("query timeout")
				}
				return []*domain.Task{task}, nil
			},
		}
		m := &fakeMailer{}
		s := newTestSummarizer(t, tasks, usersByID(alice, bob), projectsByID(apollo), m)

		report, err := s.Run(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, 1, report.EmailsSent)
		assert.Equal(t, 1, report.TotalOverdueTasks)

		delivered := m.delivered()
		require.Len(t, delivered, 1)
		assert.Equal(t, "bob@example.com", delivered[0].To)
	})

	t.Run("delivery failures are not counted", func(t *testing.T) {
		alice := newTestUser(1, "Alice", "alice@example.com")
		apollo := newTestProject(5, 1, "Apollo")
		task := newTestTask(10, 5, "Write launch checklist")
		task.DueDate = &due

		tasks := &fakeTaskReader{
			listOverdueFn: func(_ context.Context, _ int64, _ time.Time) ([]*domain.Task, error) {
				return []*domain.Task{task}, nil
			},
		}
		m := &fakeMailer{}
		m.sendFn = func(context.Context, mailer.Message) error { return errors.New("smtp unreachable") }

		s := newTestSummarizer(t, tasks, usersByID(alice), projectsByID(apollo), m)

		report, err := s.Run(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, 0, report.EmailsSent)
		assert.Equal(t, 0, report.TotalOverdueTasks)
		assert.Equal(t, 3, m.attempts())
	})

	t.Run("tasks with vanished projects are left out", func(t *testing.T) {
		alice := newTestUser(1, "Alice", "alice@example.com")
		apollo := newTestProject(5, 1, "Apollo")

		kept := newTestTask(10, 5, "Write launch checklist")
		kept.DueDate = &due
		orphaned := newTestTask(11, 99, "Belongs to a deleted project")
		orphaned.DueDate = &due

		tasks := &fakeTaskReader{
			listOverdueFn: func(_ context.Context, _ int64, _ time.Time) ([]*domain.Task, error) {
				return []*domain.Task{kept, orphaned}, nil
			},
		}
		m := &fakeMailer{}
		s := newTestSummarizer(t, tasks, usersByID(alice), projectsByID(apollo), m)

		report, err := s.Run(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, 1, report.EmailsSent)
		assert.Equal(t, 1, report.TotalOverdueTasks)

		delivered := m.delivered()
		require.Len(t, delivered, 1)
		assert.Equal(t, "Daily Summary: 1 Overdue Tasks", delivered[0].Subject)
		assert.NotContains(t, delivered[0].HTMLBody, "Belongs to a deleted project")
	})

	t.Run("skips digest when every project vanished", func(t *testing.T) {
		alice := newTestUser(1, "Alice", "alice@example.com")
		orphaned := newTestTask(11, 99, "Belongs to a deleted project")
		orphaned.DueDate = &due

		tasks := &fakeTaskReader{
			listOverdueFn: func(_ context.Context, _ int64, _ time.Time) ([]*domain.Task, error) {
				return []*domain.Task{orphaned}, nil
			},
		}
		m := &fakeMailer{}
		s := newTestSummarizer(t, tasks, usersByID(alice), projectsByID(), m)

		report, err := s.Run(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, 0, report.EmailsSent)
		assert.Equal(t, 0, m.attempts())
	})

	t.Run("cancelled context stops between users", func(t *testing.T) {
		alice := newTestUser(1, "Alice", "alice@example.com")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s := newTestSummarizer(t, tasksByID(), usersByID(alice), projectsByID(), &fakeMailer{})

		_, err := s.Run(ctx, now)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
