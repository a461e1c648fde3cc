package domain

import (
	"errors"
	"fmt"
	"time"
)

// TaskStatus represents the workflow state of a task.
// Any status may transition to any other; there are no ordering rules.
type TaskStatus string

// Possible task status values
const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// TaskPriority represents the urgency of a task. Severity order is
// low < medium < high, which the database enum preserves for sorting.
type TaskPriority string

// Possible task priority values
const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Common validation errors for Task
var (
	ErrEmptyTaskTitle      = errors.New("task title cannot be empty")
	ErrTaskProjectRequired = errors.New("task project is required")
	ErrInvalidTaskStatus   = errors.New("invalid task status")
	ErrInvalidTaskPriority = errors.New("invalid task priority")
)

// Task represents a unit of work inside a project. It may carry a due
// date and may be assigned to any registered user, not only the project
// owner.
type Task struct {
	ID             int64        `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	DueDate        *time.Time   `json:"due_date"`
	ProjectID      int64        `json:"project_id"`
	AssignedUserID *int64       `json:"assigned_user_id"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NewTask creates a new Task in the given project. Empty status and
// priority fall back to their defaults (todo, medium). The ID is
// assigned by the database on insert. Returns an error if validation
// fails.
func NewTask(
	projectID int64,
	title, description string,
	status TaskStatus,
	priority TaskPriority,
	dueDate *time.Time,
	assignedUserID *int64,
) (*Task, error) {
	if status == "" {
		status = TaskStatusTodo
	}
	if priority == "" {
		priority = TaskPriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		Title:          title,
		Description:    description,
		Status:         status,
		Priority:       priority,
		DueDate:        dueDate,
		ProjectID:      projectID,
		AssignedUserID: assignedUserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.Title == "" {
		return ErrEmptyTaskTitle
	}

	if t.ProjectID <= 0 {
		return ErrTaskProjectRequired
	}

	if !isValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}

	if !isValidTaskPriority(t.Priority) {
		return ErrInvalidTaskPriority
	}

	return nil
}

// IsOverdue reports whether the task's due date has passed relative to
// now and the task is not done. Tasks without a due date are never
// overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == TaskStatusDone {
		return false
	}
	return t.DueDate.Before(now)
}

// ParseTaskStatus converts a string into a TaskStatus, returning
// ErrInvalidTaskStatus for unknown values.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !isValidTaskStatus(status) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTaskStatus, s)
	}
	return status, nil
}

// ParseTaskPriority converts a string into a TaskPriority, returning
// ErrInvalidTaskPriority for unknown values.
func ParseTaskPriority(s string) (TaskPriority, error) {
	priority := TaskPriority(s)
	if !isValidTaskPriority(priority) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTaskPriority, s)
	}
	return priority, nil
}

// isValidTaskStatus checks if the given status is a valid TaskStatus.
func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// isValidTaskPriority checks if the given priority is a valid TaskPriority.
func isValidTaskPriority(priority TaskPriority) bool {
	switch priority {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	default:
		return false
	}
}
