package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tasktrackhq/tasktrack-api/internal/authz"
	"github.com/tasktrackhq/tasktrack-api/internal/domain"
	"github.com/tasktrackhq/tasktrack-api/internal/platform/logger"
	"github.com/tasktrackhq/tasktrack-api/internal/store"
)

// ProjectUpdate carries the fields of a partial project update. Nil
// fields are left unchanged.
type ProjectUpdate struct {
	Title       *string
	Description *string
}

// ProjectService provides operations on projects. All reads and writes
// are scoped to the authenticated user; only the owner may see or change
// a project.
type ProjectService interface {
	// Create creates a new project owned by the given user.
	Create(ctx context.Context, ownerID int64, title, description string) (*domain.Project, error)

	// Get retrieves a project by ID if the user owns it.
	Get(ctx context.Context, userID, projectID int64) (*domain.Project, error)

	// List returns all projects owned by the user.
	List(ctx context.Context, userID int64) ([]*domain.Project, error)

	// Update applies a partial update to a project the user owns.
	Update(ctx context.Context, userID, projectID int64, update ProjectUpdate) (*domain.Project, error)

	// Delete removes a project the user owns along with all of its
	// tasks, in a single transaction.
	Delete(ctx context.Context, userID, projectID int64) error
}

// ProjectServiceImpl implements the ProjectService interface.
type ProjectServiceImpl struct {
	projectStore store.ProjectStore
	taskStore    store.TaskStore
	db           *sql.DB
	logger       *slog.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(
	projectStore store.ProjectStore,
	taskStore store.TaskStore,
	db *sql.DB,
	logger *slog.Logger,
) ProjectService {
	return &ProjectServiceImpl{
		projectStore: projectStore,
		taskStore:    taskStore,
		db:           db,
		logger:       logger.With("component", "project_service"),
	}
}

// Create creates a new project owned by the given user.
func (s *ProjectServiceImpl) Create(
	ctx context.Context,
	ownerID int64,
	title, description string,
) (*domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	project, err := domain.NewProject(ownerID, title, description)
	if err != nil {
		log.Debug("project validation failed during create",
			"error", err,
			"owner_id", ownerID)
		return nil, NewServiceError("create_project", err.Error(), err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.projectStore.WithTx(tx).Create(ctx, project)
	})
	if err != nil {
		log.Error("failed to save project",
			"error", err,
			"owner_id", ownerID)
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	log.Info("project created",
		"project_id", project.ID,
		"owner_id", ownerID)
	return project, nil
}

// Get retrieves a project by ID if the user owns it.
func (s *ProjectServiceImpl) Get(
	ctx context.Context,
	userID, projectID int64,
) (*domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	project, err := s.projectStore.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			log.Debug("project not found", "project_id", projectID)
			return nil, NewServiceError("get_project", "Project not found", err)
		}
		log.Error("failed to retrieve project",
			"error", err,
			"project_id", projectID)
		return nil, fmt.Errorf("failed to retrieve project: %w", err)
	}

	if !authz.CanViewProject(userID, project) {
		log.Debug("project view denied",
			"project_id", projectID,
			"user_id", userID)
		return nil, NewServiceError(
			"get_project", "Not authorized to view this project", ErrForbidden)
	}

	return project, nil
}

// List returns all projects owned by the user.
func (s *ProjectServiceImpl) List(ctx context.Context, userID int64) ([]*domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	projects, err := s.projectStore.ListByOwner(ctx, userID)
	if err != nil {
		log.Error("failed to list projects",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

// Update applies a partial update to a project the user owns. Fields
// not present in the update are left unchanged; an update that changes
// nothing skips the write entirely.
func (s *ProjectServiceImpl) Update(
	ctx context.Context,
	userID, projectID int64,
	update ProjectUpdate,
) (*domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var project *domain.Project
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txProjects := s.projectStore.WithTx(tx)

		var err error
		project, err = txProjects.GetByID(ctx, projectID)
		if err != nil {
			if errors.Is(err, store.ErrProjectNotFound) {
				return NewServiceError("update_project", "Project not found", err)
			}
			return fmt.Errorf("failed to retrieve project: %w", err)
		}

		if !authz.CanMutateProject(userID, project) {
			return NewServiceError(
				"update_project", "Not authorized to update this project", ErrForbidden)
		}

		changed := false
		if update.Title != nil && *update.Title != project.Title {
			project.Title = *update.Title
			changed = true
		}
		if update.Description != nil && *update.Description != project.Description {
			project.Description = *update.Description
			changed = true
		}
		if !changed {
			return nil
		}

		if err := project.Validate(); err != nil {
			return NewServiceError("update_project", err.Error(), err)
		}

		return txProjects.Update(ctx, project)
	})
	if err != nil {
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			log.Debug("project update rejected",
				"error", err,
				"project_id", projectID,
				"user_id", userID)
		} else {
			log.Error("failed to update project",
				"error", err,
				"project_id", projectID)
		}
		return nil, err
	}

	log.Info("project updated",
		"project_id", projectID,
		"user_id", userID)
	return project, nil
}

// Delete removes a project the user owns. The project's tasks are
// deleted first, inside the same transaction; the task FK has no
// delete cascade.
func (s *ProjectServiceImpl) Delete(ctx context.Context, userID, projectID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var tasksDeleted int64
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txProjects := s.projectStore.WithTx(tx)

		project, err := txProjects.GetByID(ctx, projectID)
		if err != nil {
			if errors.Is(err, store.ErrProjectNotFound) {
				return NewServiceError("delete_project", "Project not found", err)
			}
			return fmt.Errorf("failed to retrieve project: %w", err)
		}

		if !authz.CanMutateProject(userID, project) {
			return NewServiceError(
				"delete_project", "Not authorized to delete this project", ErrForbidden)
		}

		tasksDeleted, err = s.taskStore.WithTx(tx).DeleteByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to delete project tasks: %w", err)
		}

		return txProjects.Delete(ctx, projectID)
	})
	if err != nil {
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			log.Debug("project delete rejected",
				"error", err,
				"project_id", projectID,
				"user_id", userID)
		} else {
			log.Error("failed to delete project",
				"error", err,
				"project_id", projectID)
		}
		return err
	}

	log.Info("project deleted",
		"project_id", projectID,
		"user_id", userID,
		"tasks_deleted", tasksDeleted)
	return nil
}
