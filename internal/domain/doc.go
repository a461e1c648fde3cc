// Package domain contains the core business entities of the task
// tracker: users, projects, and tasks, with their validation rules and
// status/priority enums. It is independent of any specific
// infrastructure or delivery mechanism.
package domain
