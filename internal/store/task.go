package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/tasktrackhq/tasktrack-api/internal/domain"
)

// Sort fields accepted by TaskStore.List. Anything else is rejected by
// the service layer before a query is composed.
const (
	TaskSortPriority = "priority"
	TaskSortDueDate  = "due_date"
)

// DefaultListLimit is the page size applied when the caller does not
// provide one.
const DefaultListLimit = 10

// MaxListLimit caps the page size; larger requests are clamped.
const MaxListLimit = 100

// TaskListOptions carries the optional filters, sorting, and pagination
// for task listing. Nil filter fields are left out of the query; all
// present filters combine with AND on top of the visibility condition.
type TaskListOptions struct {
	Status         *domain.TaskStatus
	Priority       *domain.TaskPriority
	ProjectID      *int64
	AssignedUserID *int64

	// DueDate filters tasks due on this calendar day, regardless of the
	// time component stored on the task.
	DueDate *time.Time

	// SortBy is TaskSortPriority or TaskSortDueDate; empty means no
	// explicit ordering beyond a stable ID tiebreak. Sorting is always
	// ascending.
	SortBy string

	Limit  int
	Offset int
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store and fills in the
	// database-assigned ID.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)

	// List returns the tasks visible to the given user: tasks in projects
	// the user owns plus tasks assigned to the user, filtered, sorted, and
	// paginated per opts.
	List(ctx context.Context, userID int64, opts TaskListOptions) ([]*domain.Task, error)

	// ListOverdue returns the tasks visible to the given user whose due
	// date lies strictly before the given instant and whose status is not
	// done, ordered by due date.
	ListOverdue(ctx context.Context, userID int64, before time.Time) ([]*domain.Task, error)

	// Update persists the full state of an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	// Returns validation errors from the domain Task if data is invalid.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id int64) error

	// DeleteByProject removes every task belonging to the given project
	// and returns the number of rows deleted. Deleting a project runs
	// this first, inside the same transaction.
	DeleteByProject(ctx context.Context, projectID int64) (int64, error)

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) TaskStore
}
