package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tasktrackhq/tasktrack-api/internal/jobs"
	"github.com/tasktrackhq/tasktrack-api/internal/platform/logger"
	"github.com/tasktrackhq/tasktrack-api/internal/store"
)

// PostgresJobStore implements the jobs.JobStore interface using PostgreSQL.
// A jobs.Registry rebuilds executable jobs from persisted rows during
// recovery; rows whose type has no registered factory come back as jobs
// that fail on execution, which marks the row failed instead of losing it.
type PostgresJobStore struct {
	db       store.DBTX
	registry *jobs.Registry
}

// NewPostgresJobStore creates a new PostgresJobStore. The registry may
// be shared with other stores; it is read-only here.
func NewPostgresJobStore(db store.DBTX, registry *jobs.Registry) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if registry == nil {
		panic("registry cannot be nil")
	}

	return &PostgresJobStore{
		db:       db,
		registry: registry,
	}
}

// Ensure PostgresJobStore implements jobs.JobStore interface
var _ jobs.JobStore = (*PostgresJobStore)(nil)

// SaveJob persists a job to the database
func (s *PostgresJobStore) SaveJob(ctx context.Context, job jobs.Job) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO jobs (id, type, payload, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6)
	`

	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, query,
		job.ID(),
		job.Type(),
		job.Payload(),
		job.Status(),
		now,
		now,
	)

	if err != nil {
		log.Error("failed to save job",
			"job_id", job.ID(),
			"job_type", job.Type(),
			"error", err)
		return fmt.Errorf("failed to save job to database: %w", err)
	}

	return nil
}

// UpdateJobStatus updates the status of a job in the database. Moving a
// job into processing also counts an attempt.
func (s *PostgresJobStore) UpdateJobStatus(
	ctx context.Context,
	jobID uuid.UUID,
	status jobs.Status,
	errorMsg string,
) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE jobs
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	if status == jobs.StatusProcessing {
		query = `
			UPDATE jobs
			SET status = $1, error_message = $2, updated_at = $3, attempts = attempts + 1
			WHERE id = $4
		`
	}

	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx, query,
		status,
		errorMsg,
		now,
		jobID,
	)

	if err != nil {
		log.Error("failed to update job status",
			"job_id", jobID,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update job status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			"job_id", jobID,
			"error", err)
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		log.Warn("no job found with ID to update status",
			"job_id", jobID)
		return nil // Job not found, treat as no-op
	}

	return nil
}

// GetPendingJobs retrieves all jobs with "pending" status
func (s *PostgresJobStore) GetPendingJobs(ctx context.Context) ([]jobs.Job, error) {
	return s.getJobsByStatus(ctx, jobs.StatusPending, 0)
}

// GetProcessingJobs retrieves jobs with "processing" status
func (s *PostgresJobStore) GetProcessingJobs(ctx context.Context, olderThan time.Duration) ([]jobs.Job, error) {
	return s.getJobsByStatus(ctx, jobs.StatusProcessing, olderThan)
}

// getJobsByStatus is a helper method to get jobs by status with optional age filter
func (s *PostgresJobStore) getJobsByStatus(ctx context.Context, status jobs.Status, olderThan time.Duration) ([]jobs.Job, error) {
	log := logger.FromContext(ctx)

	var query string
	var args []interface{}

	if olderThan > 0 {
		query = `
			SELECT id, type, payload, status
			FROM jobs
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = []interface{}{status, time.Now().UTC().Add(-olderThan)}
	} else {
		query = `
			SELECT id, type, payload, status
			FROM jobs
			WHERE status = $1
			ORDER BY created_at ASC
		`
		args = []interface{}{status}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query jobs by status",
			"status", status,
			"error", err)
		return nil, fmt.Errorf("failed to query jobs by status: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", "error", err)
		}
	}()

	var result []jobs.Job

	for rows.Next() {
		var id uuid.UUID
		var jobType string
		var payload []byte
		var jobStatus jobs.Status

		if err := rows.Scan(&id, &jobType, &payload, &jobStatus); err != nil {
			log.Error("failed to scan job row",
				"status", status,
				"error", err)
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}

		job, err := s.registry.Resolve(jobType, id, payload)
		if err != nil {
			// Keep the row flowing through the runner so it lands in
			// failed state rather than being reloaded forever.
			log.Error("failed to resolve recovered job",
				"job_id", id,
				"job_type", jobType,
				"error", err)
			job = &unresolvedJob{
				id:      id,
				jobType: jobType,
				payload: payload,
				status:  jobStatus,
				resolve: err,
			}
		}

		result = append(result, job)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating job rows",
			"status", status,
			"error", err)
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return result, nil
}

// WithTx returns a new JobStore that runs its operations on the given transaction.
func (s *PostgresJobStore) WithTx(tx *sql.Tx) jobs.JobStore {
	return &PostgresJobStore{
		db:       tx,
		registry: s.registry,
	}
}

// unresolvedJob carries a recovered row whose type could not be resolved
// to an executable job. Execution reports the resolution error.
type unresolvedJob struct {
	id      uuid.UUID
	jobType string
	payload []byte
	status  jobs.Status
	resolve error
}

func (j *unresolvedJob) ID() uuid.UUID       { return j.id }
func (j *unresolvedJob) Type() string        { return j.jobType }
func (j *unresolvedJob) Payload() []byte     { return j.payload }
func (j *unresolvedJob) Status() jobs.Status { return j.status }

func (j *unresolvedJob) Execute(ctx context.Context) error {
	return fmt.Errorf("cannot execute recovered job: %w", j.resolve)
}
