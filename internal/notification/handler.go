package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tasktrackhq/tasktrack-api/internal/events"
	"github.com/tasktrackhq/tasktrack-api/internal/jobs"
)

// JobSubmitter accepts jobs for background execution. The job runner
// implements this.
type JobSubmitter interface {
	Submit(ctx context.Context, job jobs.Job) error
}

// EmailEventHandler implements the events.EventHandler interface,
// turning task mutation events into email jobs and submitting them to
// the runner. Event types it does not recognize are logged and dropped
// so new event types never break existing handlers.
type EmailEventHandler struct {
	factory   *EmailJobFactory
	submitter JobSubmitter
	logger    *slog.Logger
}

// NewEmailEventHandler validates dependencies and creates the handler.
func NewEmailEventHandler(
	factory *EmailJobFactory,
	submitter JobSubmitter,
	logger *slog.Logger,
) (*EmailEventHandler, error) {
	if factory == nil {
		return nil, ErrNilJobFactory
	}
	if submitter == nil {
		return nil, ErrNilSubmitter
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &EmailEventHandler{
		factory:   factory,
		submitter: submitter,
		logger:    logger.With("component", "email_event_handler"),
	}, nil
}

// HandleEvent creates the email job matching the event type and submits
// it for background execution.
func (h *EmailEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	switch event.Type {
	case events.EventTaskAssigned:
		var payload events.TaskAssignedPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}

		job, err := h.factory.CreateAssignmentEmailJob(payload.TaskID, payload.AssigneeID, payload.ActorID)
		if err != nil {
			h.logger.Error("failed to create assignment email job",
				"error", err, "task_id", payload.TaskID, "event_id", event.ID)
			return fmt.Errorf("failed to create assignment email job: %w", err)
		}
		return h.submit(ctx, job, event)

	case events.EventTaskStatusChanged:
		var payload events.TaskStatusChangedPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}

		job, err := h.factory.CreateStatusChangeEmailJob(
			payload.TaskID, payload.TargetUserID, payload.ActorID,
			payload.OldStatus, payload.NewStatus)
		if err != nil {
			h.logger.Error("failed to create status change email job",
				"error", err, "task_id", payload.TaskID, "event_id", event.ID)
			return fmt.Errorf("failed to create status change email job: %w", err)
		}
		return h.submit(ctx, job, event)

	default:
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type, "event_id", event.ID)
		return nil
	}
}

func (h *EmailEventHandler) submit(ctx context.Context, job jobs.Job, event *events.Event) error {
	if err := h.submitter.Submit(ctx, job); err != nil {
		h.logger.Error("failed to submit job",
			"error", err, "job_id", job.ID(), "job_type", job.Type(), "event_id", event.ID)
		return fmt.Errorf("failed to submit job: %w", err)
	}

	h.logger.Info("job created and submitted",
		"job_id", job.ID(), "job_type", job.Type(), "event_id", event.ID)
	return nil
}

// Ensure EmailEventHandler implements events.EventHandler
var _ events.EventHandler = (*EmailEventHandler)(nil)
