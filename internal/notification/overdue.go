package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasktrackhq/tasktrack-api/internal/domain"
	"github.com/tasktrackhq/tasktrack-api/internal/platform/mailer"
)

// SummaryReport is the result of one daily overdue sweep. Date is the
// sweep day in ISO form (2006-01-02). Counters only reflect digests
// that were actually delivered.
type SummaryReport struct {
	EmailsSent        int    `json:"emails_sent"`
	TotalOverdueTasks int    `json:"total_overdue_tasks"`
	Date              string `json:"date"`
}

// OverdueSummarizer runs the daily sweep that emails each user a digest
// of their overdue tasks, grouped by project.
type OverdueSummarizer struct {
	tasks    TaskReader
	users    UserReader
	projects ProjectReader
	mailer   mailer.Mailer
	retry    RetryPolicy
	logger   *slog.Logger
}

// NewOverdueSummarizer validates dependencies and creates the
// summarizer.
func NewOverdueSummarizer(
	tasks TaskReader,
	users UserReader,
	projects ProjectReader,
	m mailer.Mailer,
	retry RetryPolicy,
	logger *slog.Logger,
) (*OverdueSummarizer, error) {
	if tasks == nil {
		return nil, ErrNilTaskReader
	}
	if users == nil {
		return nil, ErrNilUserReader
	}
	if projects == nil {
		return nil, ErrNilProjectReader
	}
	if m == nil {
		return nil, ErrNilMailer
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &OverdueSummarizer{
		tasks:    tasks,
		users:    users,
		projects: projects,
		mailer:   m,
		retry:    retry,
		logger:   logger.With("component", "overdue_summarizer"),
	}, nil
}

// Run sweeps all users once. A task is overdue when its due date lies
// before the start of now's UTC day and its status is not done. One
// user's failure is logged and does not stop the sweep; the listing of
// all users failing does, because then there is nothing to iterate.
func (s *OverdueSummarizer) Run(ctx context.Context, now time.Time) (*SummaryReport, error) {
	today := now.UTC().Truncate(24 * time.Hour)

	users, err := s.users.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users for overdue sweep", "error", err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	report := &SummaryReport{Date: today.Format("2006-01-02")}

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("overdue sweep cancelled: %w", err)
		}

		overdue, err := s.tasks.ListOverdue(ctx, user.ID, today)
		if err != nil {
			s.logger.Error("failed to list overdue tasks for user",
				"error", err, "user_id", user.ID)
			continue
		}
		if len(overdue) == 0 {
			continue
		}

		count, err := s.sendSummaryToUser(ctx, user, overdue)
		if err != nil {
			s.logger.Error("failed to send overdue summary",
				"error", err, "user_id", user.ID, "overdue_count", len(overdue))
			continue
		}
		if count == 0 {
			continue
		}

		report.EmailsSent++
		report.TotalOverdueTasks += count
	}

	s.logger.Info("daily overdue summary complete",
		"emails_sent", report.EmailsSent,
		"total_overdue_tasks", report.TotalOverdueTasks,
		"date", report.Date)
	return report, nil
}

// sendSummaryToUser groups the user's overdue tasks by project, renders
// the digest, and delivers it. Tasks whose project has vanished since
// the listing are left out of the digest; if that leaves nothing, no
// email is sent. Returns the number of tasks included.
func (s *OverdueSummarizer) sendSummaryToUser(
	ctx context.Context,
	user *domain.User,
	overdue []*domain.Task,
) (int, error) {
	projectCache := make(map[int64]*domain.Project)
	groupIndex := make(map[int64]int)
	var groups []ProjectTaskGroup
	included := 0

	for _, task := range overdue {
		project, ok := projectCache[task.ProjectID]
		if !ok {
			var err error
			project, err = s.projects.GetByID(ctx, task.ProjectID)
			if err != nil {
				s.logger.Warn("skipping overdue task, project lookup failed",
					"error", err, "task_id", task.ID, "project_id", task.ProjectID)
				continue
			}
			projectCache[task.ProjectID] = project
		}

		idx, ok := groupIndex[project.ID]
		if !ok {
			idx = len(groups)
			groupIndex[project.ID] = idx
			groups = append(groups, ProjectTaskGroup{Project: project})
		}
		groups[idx].Tasks = append(groups[idx].Tasks, task)
		included++
	}

	if included == 0 {
		s.logger.Warn("no overdue tasks left after project lookups, skipping digest",
			"user_id", user.ID)
		return 0, nil
	}

	msg, err := ComposeOverdueSummary(user, groups)
	if err != nil {
		return 0, fmt.Errorf("failed to compose overdue summary: %w", err)
	}

	err = s.retry.Run(ctx, func(ctx context.Context) error {
		return s.mailer.Send(ctx, msg)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	s.logger.Info("overdue summary email sent",
		"user_id", user.ID, "recipient", user.Email, "task_count", included)
	return included, nil
}
