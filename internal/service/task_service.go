package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasktrackhq/tasktrack-api/internal/authz"
	"github.com/tasktrackhq/tasktrack-api/internal/domain"
	"github.com/tasktrackhq/tasktrack-api/internal/events"
	"github.com/tasktrackhq/tasktrack-api/internal/platform/logger"
	"github.com/tasktrackhq/tasktrack-api/internal/store"
)

// TaskCreate carries the fields for creating a task. Status and
// Priority may be empty, in which case the domain defaults apply.
type TaskCreate struct {
	ProjectID      int64
	Title          string
	Description    string
	Status         domain.TaskStatus
	Priority       domain.TaskPriority
	DueDate        *time.Time
	AssignedUserID *int64
}

// TaskUpdate carries the fields of a partial task update. Nil pointer
// fields are left unchanged. DueDate and AssignedUserID are nullable
// columns, so presence and nullness are tracked separately: the Set
// flag records that the field appeared in the request, and a nil value
// with the flag set clears the column.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority

	DueDate    *time.Time
	DueDateSet bool

	AssignedUserID    *int64
	AssignedUserIDSet bool
}

// TaskService provides operations on tasks. Visibility and mutation
// rights follow the authz predicates: project owners see and change
// everything in their projects, assignees see and update their own
// tasks but cannot delete them.
type TaskService interface {
	// Create creates a new task in an existing project. Any
	// authenticated user may create a task in any project. When the
	// task is assigned to someone other than the actor, a task_assigned
	// event is emitted after the transaction commits.
	Create(ctx context.Context, actorID int64, in TaskCreate) (*domain.Task, error)

	// Get retrieves a task by ID if the user may view it.
	Get(ctx context.Context, userID, taskID int64) (*domain.Task, error)

	// List returns the tasks visible to the user, filtered, sorted, and
	// paginated per opts. SortBy is limited to "priority" and
	// "due_date"; limit and offset are clamped to sane bounds.
	List(ctx context.Context, userID int64, opts store.TaskListOptions) ([]*domain.Task, error)

	// Update applies a partial update to a task the user may modify.
	// Status changes and new assignments emit notification events after
	// the transaction commits.
	Update(ctx context.Context, actorID, taskID int64, update TaskUpdate) (*domain.Task, error)

	// Delete removes a task. Only the project owner may delete; an
	// assignee may work a task but not remove it.
	Delete(ctx context.Context, userID, taskID int64) error
}

// TaskServiceImpl implements the TaskService interface.
type TaskServiceImpl struct {
	taskStore    store.TaskStore
	projectStore store.ProjectStore
	emitter      events.EventEmitter
	db           *sql.DB
	logger       *slog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	taskStore store.TaskStore,
	projectStore store.ProjectStore,
	emitter events.EventEmitter,
	db *sql.DB,
	logger *slog.Logger,
) TaskService {
	return &TaskServiceImpl{
		taskStore:    taskStore,
		projectStore: projectStore,
		emitter:      emitter,
		db:           db,
		logger:       logger.With("component", "task_service"),
	}
}

// Create creates a new task in an existing project. There is no
// ownership check: any authenticated user may create a task in any
// project that exists. Dangling references surface as foreign key
// violations from the store and map to not-found responses.
func (s *TaskServiceImpl) Create(
	ctx context.Context,
	actorID int64,
	in TaskCreate,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(
		in.ProjectID,
		in.Title,
		in.Description,
		in.Status,
		in.Priority,
		in.DueDate,
		in.AssignedUserID,
	)
	if err != nil {
		log.Debug("task validation failed during create",
			"error", err,
			"project_id", in.ProjectID)
		return nil, NewServiceError("create_task", err.Error(), err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.taskStore.WithTx(tx).Create(ctx, task)
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrProjectNotFound):
			log.Debug("task create referenced missing project",
				"project_id", in.ProjectID)
			return nil, NewServiceError("create_task", "Project not found", err)
		case errors.Is(err, store.ErrUserNotFound):
			log.Debug("task create referenced missing assignee",
				"project_id", in.ProjectID)
			return nil, NewServiceError("create_task", "Assigned user not found", err)
		default:
			log.Error("failed to save task",
				"error", err,
				"project_id", in.ProjectID)
			return nil, fmt.Errorf("failed to create task: %w", err)
		}
	}

	log.Info("task created",
		"task_id", task.ID,
		"project_id", task.ProjectID,
		"actor_id", actorID)

	if task.AssignedUserID != nil && *task.AssignedUserID != actorID {
		s.emitTaskAssigned(ctx, task.ID, *task.AssignedUserID, actorID)
	}

	return task, nil
}

// Get retrieves a task by ID if the user may view it.
func (s *TaskServiceImpl) Get(ctx context.Context, userID, taskID int64) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, project, err := s.loadTaskWithProject(ctx, s.taskStore, s.projectStore, taskID, "get_task")
	if err != nil {
		return nil, err
	}

	if !authz.CanViewTask(userID, task, project) {
		log.Debug("task view denied",
			"task_id", taskID,
			"user_id", userID)
		return nil, NewServiceError("get_task", "Not authorized to view this task", ErrForbidden)
	}

	return task, nil
}

// List returns the tasks visible to the user. The sort field whitelist
// and pagination clamps are applied here so the store only ever sees
// well-formed options.
func (s *TaskServiceImpl) List(
	ctx context.Context,
	userID int64,
	opts store.TaskListOptions,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	switch opts.SortBy {
	case "", store.TaskSortPriority, store.TaskSortDueDate:
	default:
		log.Debug("task list requested unsupported sort field",
			"sort_by", opts.SortBy,
			"user_id", userID)
		return nil, NewServiceError("list_tasks", "Invalid sort_by field.", ErrInvalidSortField)
	}

	if opts.Limit <= 0 {
		opts.Limit = store.DefaultListLimit
	}
	if opts.Limit > store.MaxListLimit {
		opts.Limit = store.MaxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	tasks, err := s.taskStore.List(ctx, userID, opts)
	if err != nil {
		log.Error("failed to list tasks",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// Update applies a partial update to a task. Only fields present in the
// update change; setting a nullable field to null clears it. An update
// that changes nothing skips the write and emits no events.
func (s *TaskServiceImpl) Update(
	ctx context.Context,
	actorID, taskID int64,
	update TaskUpdate,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		task    *domain.Task
		pending []*events.Event
	)
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.taskStore.WithTx(tx)

		var err error
		task, _, err = s.loadTaskWithProjectAuth(
			ctx, txTasks, s.projectStore.WithTx(tx), actorID, taskID,
			"update_task", "Not authorized to update this task", authz.CanUpdateTask)
		if err != nil {
			return err
		}

		oldStatus := task.Status
		oldAssignee := task.AssignedUserID

		changed := applyTaskUpdate(task, update)
		if !changed {
			return nil
		}

		if err := task.Validate(); err != nil {
			return NewServiceError("update_task", err.Error(), err)
		}

		if err := txTasks.Update(ctx, task); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return NewServiceError("update_task", "Assigned user not found", err)
			}
			return err
		}

		pending = s.collectUpdateEvents(ctx, task, update, oldStatus, oldAssignee, actorID)
		return nil
	})
	if err != nil {
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			log.Debug("task update rejected",
				"error", err,
				"task_id", taskID,
				"user_id", actorID)
		} else {
			log.Error("failed to update task",
				"error", err,
				"task_id", taskID)
		}
		return nil, err
	}

	log.Info("task updated",
		"task_id", taskID,
		"user_id", actorID)

	s.emitEvents(ctx, pending)
	return task, nil
}

// Delete removes a task. Only the project owner may delete it.
func (s *TaskServiceImpl) Delete(ctx context.Context, userID, taskID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.taskStore.WithTx(tx)

		_, _, err := s.loadTaskWithProjectAuth(
			ctx, txTasks, s.projectStore.WithTx(tx), userID, taskID,
			"delete_task", "Not authorized to delete this task", authz.CanDeleteTask)
		if err != nil {
			return err
		}

		return txTasks.Delete(ctx, taskID)
	})
	if err != nil {
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			log.Debug("task delete rejected",
				"error", err,
				"task_id", taskID,
				"user_id", userID)
		} else {
			log.Error("failed to delete task",
				"error", err,
				"task_id", taskID)
		}
		return err
	}

	log.Info("task deleted",
		"task_id", taskID,
		"user_id", userID)
	return nil
}

// loadTaskWithProject fetches a task and its project, mapping a missing
// task to the not-found service error for the given operation.
func (s *TaskServiceImpl) loadTaskWithProject(
	ctx context.Context,
	tasks store.TaskStore,
	projects store.ProjectStore,
	taskID int64,
	operation string,
) (*domain.Task, *domain.Project, error) {
	task, err := tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, nil, NewServiceError(operation, "Task not found", err)
		}
		return nil, nil, fmt.Errorf("failed to retrieve task: %w", err)
	}

	// The project row always exists while the task does; the FK has no
	// cascade and project deletion removes tasks first.
	project, err := projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve task project: %w", err)
	}

	return task, project, nil
}

// loadTaskWithProjectAuth fetches a task and its project and applies the
// given authz predicate, mapping a denial to a forbidden service error
// with the given message.
func (s *TaskServiceImpl) loadTaskWithProjectAuth(
	ctx context.Context,
	tasks store.TaskStore,
	projects store.ProjectStore,
	userID, taskID int64,
	operation, deniedMessage string,
	allowed func(int64, *domain.Task, *domain.Project) bool,
) (*domain.Task, *domain.Project, error) {
	task, project, err := s.loadTaskWithProject(ctx, tasks, projects, taskID, operation)
	if err != nil {
		return nil, nil, err
	}

	if !allowed(userID, task, project) {
		return nil, nil, NewServiceError(operation, deniedMessage, ErrForbidden)
	}

	return task, project, nil
}

// applyTaskUpdate copies the present fields of the update onto the task
// and reports whether anything actually changed.
func applyTaskUpdate(task *domain.Task, update TaskUpdate) bool {
	changed := false

	if update.Title != nil && *update.Title != task.Title {
		task.Title = *update.Title
		changed = true
	}
	if update.Description != nil && *update.Description != task.Description {
		task.Description = *update.Description
		changed = true
	}
	if update.Status != nil && *update.Status != task.Status {
		task.Status = *update.Status
		changed = true
	}
	if update.Priority != nil && *update.Priority != task.Priority {
		task.Priority = *update.Priority
		changed = true
	}
	if update.DueDateSet && !timePtrEqual(update.DueDate, task.DueDate) {
		task.DueDate = update.DueDate
		changed = true
	}
	if update.AssignedUserIDSet && !int64PtrEqual(update.AssignedUserID, task.AssignedUserID) {
		task.AssignedUserID = update.AssignedUserID
		changed = true
	}

	return changed
}

// collectUpdateEvents builds the events an update should emit once the
// transaction commits. A status change notifies the assignee unless the
// assignee made the change themselves; a new assignment notifies the
// new assignee even when they assigned themselves.
func (s *TaskServiceImpl) collectUpdateEvents(
	ctx context.Context,
	task *domain.Task,
	update TaskUpdate,
	oldStatus domain.TaskStatus,
	oldAssignee *int64,
	actorID int64,
) []*events.Event {
	log := logger.FromContextOrDefault(ctx, s.logger)
	var pending []*events.Event

	statusChanged := update.Status != nil && task.Status != oldStatus
	if statusChanged && task.AssignedUserID != nil && *task.AssignedUserID != actorID {
		evt, err := events.NewEvent(events.EventTaskStatusChanged, events.TaskStatusChangedPayload{
			TaskID:       task.ID,
			TargetUserID: *task.AssignedUserID,
			ActorID:      actorID,
			OldStatus:    oldStatus,
			NewStatus:    task.Status,
		})
		if err != nil {
			log.Error("failed to build status change event",
				"error", err,
				"task_id", task.ID)
		} else {
			pending = append(pending, evt)
		}
	}

	assigneeChanged := update.AssignedUserIDSet && !int64PtrEqual(oldAssignee, task.AssignedUserID)
	if assigneeChanged && task.AssignedUserID != nil {
		evt, err := events.NewEvent(events.EventTaskAssigned, events.TaskAssignedPayload{
			TaskID:     task.ID,
			AssigneeID: *task.AssignedUserID,
			ActorID:    actorID,
		})
		if err != nil {
			log.Error("failed to build assignment event",
				"error", err,
				"task_id", task.ID)
		} else {
			pending = append(pending, evt)
		}
	}

	return pending
}

// emitTaskAssigned emits a task_assigned event outside any transaction.
func (s *TaskServiceImpl) emitTaskAssigned(ctx context.Context, taskID, assigneeID, actorID int64) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	evt, err := events.NewEvent(events.EventTaskAssigned, events.TaskAssignedPayload{
		TaskID:     taskID,
		AssigneeID: assigneeID,
		ActorID:    actorID,
	})
	if err != nil {
		log.Error("failed to build assignment event",
			"error", err,
			"task_id", taskID)
		return
	}

	s.emitEvents(ctx, []*events.Event{evt})
}

// emitEvents delivers the given events to the emitter. Emission is
// fire-and-forget: a handler failure is logged and never fails the
// request that produced the event.
func (s *TaskServiceImpl) emitEvents(ctx context.Context, pending []*events.Event) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, evt := range pending {
		if err := s.emitter.EmitEvent(ctx, evt); err != nil {
			log.Error("failed to emit event",
				"error", err,
				"event_id", evt.ID,
				"event_type", evt.Type)
		}
	}
}

// timePtrEqual reports whether two optional timestamps are the same
// instant, treating nil as equal only to nil.
func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// int64PtrEqual reports whether two optional IDs hold the same value,
// treating nil as equal only to nil.
func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
