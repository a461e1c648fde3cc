package store

import (
	"context"
	"database/sql"

	"github.com/tasktrackhq/tasktrack-api/internal/domain"
)

// ProjectStore defines the interface for project data persistence.
type ProjectStore interface {
	// Create saves a new project to the store and fills in the
	// database-assigned ID.
	// Returns validation errors from the domain Project if data is invalid.
	Create(ctx context.Context, project *domain.Project) error

	// GetByID retrieves a project by its unique ID.
	// Returns ErrProjectNotFound if the project does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Project, error)

	// ListByOwner returns all projects owned by the given user,
	// ordered by ID.
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Project, error)

	// Update persists the full state of an existing project.
	// Returns ErrProjectNotFound if the project does not exist.
	// Returns validation errors from the domain Project if data is invalid.
	Update(ctx context.Context, project *domain.Project) error

	// Delete removes a project by its ID. Tasks referencing the project
	// must be removed first; the schema has no delete cascade.
	// Returns ErrProjectNotFound if the project does not exist.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a new ProjectStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) ProjectStore
}
