// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package, plus the job
// queue persistence used by the notification runner. It handles query
// execution, error code mapping, and data mapping between domain entities
// and database records. Schema migrations ship embedded in Migrations.
package postgres
