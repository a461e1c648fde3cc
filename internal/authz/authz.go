// Package authz contains the pure authorization predicates for projects
// and tasks. Predicates take already-loaded entities and perform no I/O,
// so services call them inside the request transaction after fetching
// the rows they guard.
package authz

import "github.com/tasktrackhq/tasktrack-api/internal/domain"

// CanViewProject reports whether the user may read the project.
// Only the owner may.
func CanViewProject(userID int64, project *domain.Project) bool {
	return project != nil && project.OwnerID == userID
}

// CanMutateProject reports whether the user may update or delete the
// project. Only the owner may.
func CanMutateProject(userID int64, project *domain.Project) bool {
	return project != nil && project.OwnerID == userID
}

// CanViewTask reports whether the user may read the task: the project
// owner or the task's assignee.
func CanViewTask(userID int64, task *domain.Task, project *domain.Project) bool {
	if task == nil || project == nil {
		return false
	}
	if project.OwnerID == userID {
		return true
	}
	return task.AssignedUserID != nil && *task.AssignedUserID == userID
}

// CanUpdateTask reports whether the user may modify the task: the
// project owner or the task's assignee.
func CanUpdateTask(userID int64, task *domain.Task, project *domain.Project) bool {
	return CanViewTask(userID, task, project)
}

// CanDeleteTask reports whether the user may delete the task. Unlike
// update, this is restricted to the project owner; an assignee may work
// a task but not remove it.
func CanDeleteTask(userID int64, task *domain.Task, project *domain.Project) bool {
	if task == nil || project == nil {
		return false
	}
	return project.OwnerID == userID
}
