package domain

import (
	"errors"
	"time"
)

// Project-specific validation errors
var (
	// ErrEmptyProjectTitle is returned when a project's title is empty.
	ErrEmptyProjectTitle = errors.New("project title cannot be empty")

	// ErrProjectOwnerRequired is returned when a project has no owner.
	ErrProjectOwnerRequired = errors.New("project owner is required")
)

// Project represents a collection of tasks owned by a single user.
// Ownership drives authorization: only the owner may view, update, or
// delete the project itself.
type Project struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProject creates a new Project owned by the given user.
// The ID is assigned by the database on insert.
// Returns an error if validation fails.
func NewProject(ownerID int64, title, description string) (*Project, error) {
	now := time.Now().UTC()
	project := &Project{
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := project.Validate(); err != nil {
		return nil, err
	}

	return project, nil
}

// Validate checks if the Project has valid data.
// Returns an error if any field fails validation.
func (p *Project) Validate() error {
	if p.Title == "" {
		return ErrEmptyProjectTitle
	}

	if p.OwnerID <= 0 {
		return ErrProjectOwnerRequired
	}

	return nil
}
