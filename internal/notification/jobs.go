package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tasktrackhq/tasktrack-api/internal/domain"
	"github.com/tasktrackhq/tasktrack-api/internal/jobs"
	"github.com/tasktrackhq/tasktrack-api/internal/platform/mailer"
)

// Job type identifiers registered with the job registry.
const (
	JobTypeAssignmentEmail   = "task_assignment_email"
	JobTypeStatusChangeEmail = "task_status_change_email"
)

// TaskReader is the slice of the task store the notification pipeline
// needs.
type TaskReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	ListOverdue(ctx context.Context, userID int64, before time.Time) ([]*domain.Task, error)
}

// UserReader is the slice of the user store the notification pipeline
// needs.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}

// ProjectReader is the slice of the project store the notification
// pipeline needs.
type ProjectReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
}

// EmailJobFactory creates email jobs bound to the stores and mailer
// they need at execution time. It also rebuilds jobs from persisted
// payloads when the runner recovers rows after a restart.
type EmailJobFactory struct {
	tasks    TaskReader
	users    UserReader
	projects ProjectReader
	mailer   mailer.Mailer
	retry    RetryPolicy
	logger   *slog.Logger
}

// NewEmailJobFactory validates dependencies and creates the factory.
func NewEmailJobFactory(
	tasks TaskReader,
	users UserReader,
	projects ProjectReader,
	m mailer.Mailer,
	retry RetryPolicy,
	logger *slog.Logger,
) (*EmailJobFactory, error) {
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

	return &EmailJobFactory{
		tasks:    tasks,
		users:    users,
		projects: projects,
		mailer:   m,
		retry:    retry,
		logger:   logger.With("component", "email_job_factory"),
	}, nil
}

// CreateAssignmentEmailJob creates a job that emails the assignee about
// a task they were just assigned.
func (f *EmailJobFactory) CreateAssignmentEmailJob(taskID, assigneeID, actorID int64) (jobs.Job, error) {
	payload := assignmentEmailPayload{
		TaskID:     taskID,
		AssigneeID: assigneeID,
		ActorID:    actorID,
	}
	if err := payload.validate(); err != nil {
		return nil, err
	}
	return newAssignmentEmailJob(uuid.New(), payload, f), nil
}

// CreateStatusChangeEmailJob creates a job that emails the target user
// about a status transition on a task they are assigned to.
func (f *EmailJobFactory) CreateStatusChangeEmailJob(
	taskID, targetUserID, actorID int64,
	oldStatus, newStatus domain.TaskStatus,
) (jobs.Job, error) {
	payload := statusChangeEmailPayload{
		TaskID:       taskID,
		TargetUserID: targetUserID,
		ActorID:      actorID,
		OldStatus:    oldStatus,
		NewStatus:    newStatus,
	}
	if err := payload.validate(); err != nil {
		return nil, err
	}
	return newStatusChangeEmailJob(uuid.New(), payload, f), nil
}

// RegisterJobTypes wires this factory's job types into the registry so
// the job store can rebuild executable jobs from recovered rows.
func (f *EmailJobFactory) RegisterJobTypes(registry *jobs.Registry) {
	registry.Register(JobTypeAssignmentEmail, func(id uuid.UUID, data []byte) (jobs.Job, error) {
		var payload assignmentEmailPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal assignment email payload: %w", err)
		}
		if err := payload.validate(); err != nil {
			return nil, err
		}
		return newAssignmentEmailJob(id, payload, f), nil
	})

	registry.Register(JobTypeStatusChangeEmail, func(id uuid.UUID, data []byte) (jobs.Job, error) {
		var payload statusChangeEmailPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal status change email payload: %w", err)
		}
		if err := payload.validate(); err != nil {
			return nil, err
		}
		return newStatusChangeEmailJob(id, payload, f), nil
	})
}

// assignmentEmailPayload is the serialized form stored in the jobs
// table. Field names mirror the task_assigned event payload.
type assignmentEmailPayload struct {
	TaskID     int64 `json:"task_id"`
	AssigneeID int64 `json:"assigned_user_id"`
	ActorID    int64 `json:"assigned_by_id"`
}

func (p assignmentEmailPayload) validate() error {
	if p.TaskID <= 0 || p.AssigneeID <= 0 || p.ActorID <= 0 {
		return ErrInvalidReference
	}
	return nil
}

// statusChangeEmailPayload is the serialized form stored in the jobs
// table. Field names mirror the task_status_changed event payload.
type statusChangeEmailPayload struct {
	TaskID       int64             `json:"task_id"`
	TargetUserID int64             `json:"target_user_id"`
	ActorID      int64             `json:"changed_by_id"`
	OldStatus    domain.TaskStatus `json:"old_status"`
	NewStatus    domain.TaskStatus `json:"new_status"`
}

func (p statusChangeEmailPayload) validate() error {
	if p.TaskID <= 0 || p.TargetUserID <= 0 || p.ActorID <= 0 {
		return ErrInvalidReference
	}
	return nil
}

// AssignmentEmailJob implements the jobs.Job interface for delivering
// task assignment notifications.
type AssignmentEmailJob struct {
	id      uuid.UUID
	payload assignmentEmailPayload
	f       *EmailJobFactory
	status  jobs.Status
}

func newAssignmentEmailJob(id uuid.UUID, payload assignmentEmailPayload, f *EmailJobFactory) *AssignmentEmailJob {
	return &AssignmentEmailJob{
		id:      id,
		payload: payload,
		f:       f,
		status:  jobs.StatusPending,
	}
}

// ID returns the job's unique identifier
func (j *AssignmentEmailJob) ID() uuid.UUID {
	return j.id
}

// Type returns the job type identifier
func (j *AssignmentEmailJob) Type() string {
	return JobTypeAssignmentEmail
}

// Payload returns the job data as a byte slice
func (j *AssignmentEmailJob) Payload() []byte {
	data, err := json.Marshal(j.payload)
	if err != nil {
		j.f.logger.Error("failed to marshal job payload", "error", err, "job_id", j.id)
		return []byte{}
	}
	return data
}

// Status returns the current job status
func (j *AssignmentEmailJob) Status() jobs.Status {
	return j.status
}

// Execute loads the task, both users, and the project, composes the
// assignment email, and delivers it through the mailer. A missing
// entity fails the job permanently: the referenced row was deleted
// between the triggering mutation and now, and retrying cannot bring
// it back. Only delivery failures exhaust the retry policy.
func (j *AssignmentEmailJob) Execute(ctx context.Context) error {
	j.status = jobs.StatusProcessing
	logger := j.f.logger.With("job_type", JobTypeAssignmentEmail, "job_id", j.id, "task_id", j.payload.TaskID)
	logger.Info("starting assignment email job")

	if err := ctx.Err(); err != nil {
		j.status = jobs.StatusFailed
		return fmt.Errorf("job cancelled by context: %w", err)
	}

	task, err := j.f.tasks.GetByID(ctx, j.payload.TaskID)
	if err != nil {
		j.status = jobs.StatusFailed
		logger.Error("failed to retrieve task", "error", err)
		return fmt.Errorf("%w: task %d: %v", ErrEntityMissing, j.payload.TaskID, err)
	}

	assignee, err := j.f.users.GetByID(ctx, j.payload.AssigneeID)
	if err != nil {
		j.status = jobs.StatusFailed
		logger.Error("failed to retrieve assignee", "error", err, "user_id", j.payload.AssigneeID)
		return fmt.Errorf("%w: user %d: %v", ErrEntityMissing, j.payload.AssigneeID, err)
	}

	actor, err := j.f.users.GetByID(ctx, j.payload.ActorID)
	if err != nil {
		j.status = jobs.StatusFailed
		logger.Error("failed to retrieve assigning user", "error", err, "user_id", j.payload.ActorID)
		return fmt.Errorf("%w: user %d: %v", ErrEntityMissing, j.payload.ActorID, err)
	}

	project, err := j.f.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		j.status = jobs.StatusFailed
		logger.Error("failed to retrieve project", "error", err, "project_id", task.ProjectID)
		return fmt.Errorf("%w: project %d: %v", ErrEntityMissing, task.ProjectID, err)
	}

	msg, err := ComposeAssignment(time.Now(), task, project, assignee, actor)
	if err != nil {
		j.status = jobs.StatusFailed
		logger.Error("failed to compose assignment email", "error", err)
		return fmt.Errorf("failed to compose assignment email: %w", err)
	}

	err = j.f.retry.Run(ctx, func(ctx context.Context) error {
		return j.f.mailer.Send(ctx, msg)
	})
	if err != nil {
		j.status = jobs.StatusFailed
		logger.Error("failed to deliver assignment email", "error", err, "recipient", assignee.Email)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	j.status = jobs.StatusCompleted
	logger.Info("assignment email job completed", "recipient", assignee.Email)
	return nil
}

// StatusChangeEmailJob implements the jobs.Job interface for delivering
// task status change notifications.
type StatusChangeEmailJob struct {
	id      uuid.UUID
	payload statusChangeEmailPayload
	f       *EmailJobFactory
	status  jobs.Status
}

func newStatusChangeEmailJob(id uuid.UUID, payload statusChangeEmailPayload, f *EmailJobFactory) *StatusChangeEmailJob {
	return &StatusChangeEmailJob{
		id:      id,
		payload: payload,
		f:       f,
		status:  jobs.StatusPending,
	}
}

// ID returns the job's unique identifier
func (j *StatusChangeEmailJob) ID() uuid.UUID {
	return j.id
}

// Type returns the job type identifier
func (j *StatusChangeEmailJob) Type() string {
	return JobTypeStatusChangeEmail
}

// Payload returns the job data as a byte slice
func (j *StatusChangeEmailJob) Payload() []byte {
	data, err := json.Marshal(j.payload)
	if err != nil {
		j.f.logger.Error("failed to marshal job payload", "error", err, "job_id", j.id)
		return []byte{}
	}
	return data
}

// Status returns the current job status
func (j *StatusChangeEmailJob) Status() jobs.Status {
	return j.status
}

// Execute loads the task, both users, and the project, composes the
// status change email, and delivers it through the mailer. Entity
// lookups and delivery follow the same failure rules as the assignment
// job.
func (j *StatusChangeEmailJob) Execute(ctx context.Context) error {
	j.status = jobs.StatusProcessing
	logger := j.f.logger.With("job_type", JobTypeStatusChangeEmail, "job_id", j.id, "task_id", j.payload.TaskID)
	logger.Info("starting status change email job",
		"old_status", j.payload.OldStatus,
		"new_status", j.payload.NewStatus)

	if err := ctx.Err(); err != nil {
		j.status = jobs.StatusFailed
		return fmt.Errorf("job cancelled by context: %w", err)
	}

	task, err := j.f.tasks.GetByID(ctx, j.payload.TaskID)
	if err != nil {
		j.status = jobs.StatusFailed
		logger.Error("failed to retrieve task", "error", err)
		return fmt.Errorf("%w: task %d: %v", ErrEntityMissing, j.payload.TaskID, err)
	}

	target, err := j.f.users.GetByID(ctx, j.payload.TargetUserID)
	if err != nil {
		j.status = jobs.StatusFailed
		logger.Error("failed to retrieve target user", "error", err, "user_id", j.payload.TargetUserID)
		return fmt.Errorf("%w: user %d: %v", ErrEntityMissing, j.payload.TargetUserID, err)
	}

	actor, err := j.f.users.GetByID(ctx, j.payload.ActorID)
	if err != nil {
		j.status = jobs.StatusFailed
		logger.Error("failed to retrieve changing user", "error", err, "user_id", j.payload.ActorID)
		return fmt.Errorf("%w: user %d: %v", ErrEntityMissing, j.payload.ActorID, err)
	}

	project, err := j.f.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		j.status = jobs.StatusFailed
		logger.Error("failed to retrieve project", "error", err, "project_id", task.ProjectID)
		return fmt.Errorf("%w: project %d: %v", ErrEntityMissing, task.ProjectID, err)
	}

	msg, err := ComposeStatusChange(time.Now(), task, project, target, actor, j.payload.OldStatus, j.payload.NewStatus)
	if err != nil {
		j.status = jobs.StatusFailed
		logger.Error("failed to compose status change email", "error", err)
		return fmt.Errorf("failed to compose status change email: %w", err)
	}

	err = j.f.retry.Run(ctx, func(ctx context.Context) error {
		return j.f.mailer.Send(ctx, msg)
	})
	if err != nil {
		j.status = jobs.StatusFailed
		logger.Error("failed to deliver status change email", "error", err, "recipient", target.Email)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	j.status = jobs.StatusCompleted
	logger.Info("status change email job completed", "recipient", target.Email)
	return nil
}
