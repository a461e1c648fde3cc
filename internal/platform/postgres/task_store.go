package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tasktrackhq/tasktrack-api/internal/domain"
	"github.com/tasktrackhq/tasktrack-api/internal/platform/logger"
	"github.com/tasktrackhq/tasktrack-api/internal/store"
)

// Foreign key constraint names from the tasks table schema. Creation and
// update errors are told apart by which constraint tripped.
const (
	taskProjectFKConstraint  = "tasks_project_id_fkey"
	taskAssigneeFKConstraint = "tasks_assigned_user_id_fkey"
)

// taskColumns is the scan order shared by every task query.
const taskColumns = "t.id, t.title, t.description, t.status, t.priority, t.due_date, t.project_id, t.assigned_user_id, t.created_at, t.updated_at"

// taskVisibilityFrom joins tasks to their projects and keeps rows the
// given user may see: tasks in projects they own, union tasks assigned
// to them. $1 is always the user ID.
const taskVisibilityFrom = `
	FROM tasks t
	JOIN projects p ON p.id = t.project_id
	WHERE (p.owner_id = $1 OR t.assigned_user_id = $1)`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create implements store.TaskStore.Create
// It saves a new task and fills in the database-assigned ID.
// Returns store.ErrProjectNotFound if the project reference is invalid
// and store.ErrUserNotFound if the assignee reference is invalid.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.Int64("project_id", task.ProjectID))
		return err
	}

	query := `
		INSERT INTO tasks (title, description, status, priority, due_date, project_id, assigned_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := s.db.QueryRowContext(
		ctx,
		query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.ProjectID,
		task.AssignedUserID,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return s.mapTaskFKViolation(ctx, err, task)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.Int64("project_id", task.ProjectID))
		return MapError(err)
	}

	log.Info("task created successfully",
		slog.Int64("task_id", task.ID),
		slog.Int64("project_id", task.ProjectID))
	return nil
}

// mapTaskFKViolation turns a foreign key violation from a task write
// into the sentinel for the entity whose reference was dangling.
func (s *PostgresTaskStore) mapTaskFKViolation(ctx context.Context, err error, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	constraint := ViolatedConstraint(err)
	log.Warn("foreign key violation during task write",
		slog.String("constraint", constraint),
		slog.Int64("project_id", task.ProjectID))

	switch constraint {
	case taskProjectFKConstraint:
		return fmt.Errorf("%w: project %d does not exist", store.ErrProjectNotFound, task.ProjectID)
	case taskAssigneeFKConstraint:
		assignee := int64(0)
		if task.AssignedUserID != nil {
			assignee = *task.AssignedUserID
		}
		return fmt.Errorf("%w: assigned user %d does not exist", store.ErrUserNotFound, assignee)
	default:
		return MapError(err)
	}
}

// GetByID implements store.TaskStore.GetByID
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + taskColumns + `
		FROM tasks t
		WHERE t.id = $1
	`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.Int64("task_id", id))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.Int64("task_id", id))
		return nil, MapError(err)
	}

	return task, nil
}

// List implements store.TaskStore.List
// It composes the visibility condition with the optional filters, sort,
// and pagination from opts. Filters combine with AND; sorting is
// ascending with a stable ID tiebreak.
func (s *PostgresTaskStore) List(ctx context.Context, userID int64, opts store.TaskListOptions) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var sb strings.Builder
	sb.WriteString("SELECT " + taskColumns + taskVisibilityFrom)

	args := []interface{}{userID}

	appendCondition := func(condition string, value interface{}) {
		args = append(args, value)
		sb.WriteString(fmt.Sprintf(" AND %s $%d", condition, len(args)))
	}

	if opts.Status != nil {
		appendCondition("t.status =", *opts.Status)
	}
	if opts.Priority != nil {
		appendCondition("t.priority =", *opts.Priority)
	}
	if opts.ProjectID != nil {
		appendCondition("t.project_id =", *opts.ProjectID)
	}
	if opts.AssignedUserID != nil {
		appendCondition("t.assigned_user_id =", *opts.AssignedUserID)
	}
	if opts.DueDate != nil {
		// Calendar-day match: anything due on that day regardless of time
		dayStart := time.Date(
			opts.DueDate.Year(), opts.DueDate.Month(), opts.DueDate.Day(),
			0, 0, 0, 0, time.UTC,
		)
		appendCondition("t.due_date >=", dayStart)
		appendCondition("t.due_date <", dayStart.Add(24*time.Hour))
	}

	switch opts.SortBy {
	case store.TaskSortPriority:
		// Enum definition order low < medium < high
		sb.WriteString(" ORDER BY t.priority ASC, t.id ASC")
	case store.TaskSortDueDate:
		sb.WriteString(" ORDER BY t.due_date ASC, t.id ASC")
	case "":
		sb.WriteString(" ORDER BY t.id ASC")
	default:
		return nil, fmt.Errorf("unsupported sort field %q", opts.SortBy)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = store.DefaultListLimit
	}
	if limit > store.MaxListLimit {
		limit = store.MaxListLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	args = append(args, limit)
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	args = append(args, offset)
	sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID))
		return nil, MapError(err)
	}

	return collectTasks(rows, log)
}

// ListOverdue implements store.TaskStore.ListOverdue
// It returns tasks visible to the user that are due strictly before the
// given instant and not done, ordered by due date.
func (s *PostgresTaskStore) ListOverdue(ctx context.Context, userID int64, before time.Time) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := "SELECT " + taskColumns + taskVisibilityFrom + `
		AND t.due_date IS NOT NULL
		AND t.due_date < $2
		AND t.status <> $3
		ORDER BY t.due_date ASC, t.id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, before, domain.TaskStatusDone)
	if err != nil {
		log.Error("failed to list overdue tasks",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID))
		return nil, MapError(err)
	}

	return collectTasks(rows, log)
}

// Update implements store.TaskStore.Update
// It persists the full state of an existing task and refreshes its
// updated_at timestamp.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.Int64("task_id", task.ID))
		return err
	}

	task.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4,
		    due_date = $5, assigned_user_id = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.AssignedUserID,
		task.UpdatedAt,
		task.ID,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			return s.mapTaskFKViolation(ctx, err, task)
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.Int64("task_id", task.ID))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.Int64("task_id", task.ID))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("task not found for update", slog.Int64("task_id", task.ID))
		return store.ErrTaskNotFound
	}

	log.Info("task updated successfully", slog.Int64("task_id", task.ID))
	return nil
}

// Delete implements store.TaskStore.Delete
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.Int64("task_id", id))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.Int64("task_id", id))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("task not found for delete", slog.Int64("task_id", id))
		return store.ErrTaskNotFound
	}

	log.Info("task deleted successfully", slog.Int64("task_id", id))
	return nil
}

// DeleteByProject implements store.TaskStore.DeleteByProject
// It removes every task in the given project and reports how many rows
// went away. Zero is not an error; a project may simply have no tasks.
func (s *PostgresTaskStore) DeleteByProject(ctx context.Context, projectID int64) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = $1`, projectID)
	if err != nil {
		log.Error("failed to delete tasks by project",
			slog.String("error", err.Error()),
			slog.Int64("project_id", projectID))
		return 0, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.Int64("project_id", projectID))
		return 0, err
	}

	log.Info("tasks deleted by project",
		slog.Int64("project_id", projectID),
		slog.Int64("count", rowsAffected))
	return rowsAffected, nil
}

// WithTx implements store.TaskStore.WithTx
// It returns a new TaskStore that runs its operations on the given transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanTask reads one task row in taskColumns order.
func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var status, priority string
	var dueDate sql.NullTime
	var assignedUserID sql.NullInt64

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&dueDate,
		&task.ProjectID,
		&assignedUserID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	if dueDate.Valid {
		due := dueDate.Time
		task.DueDate = &due
	}
	if assignedUserID.Valid {
		assignee := assignedUserID.Int64
		task.AssignedUserID = &assignee
	}

	return &task, nil
}

// collectTasks drains a task query result set, always returning a
// non-nil slice on success.
func collectTasks(rows *sql.Rows, log *slog.Logger) ([]*domain.Task, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}

	return tasks, nil
}
