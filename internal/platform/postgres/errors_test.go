package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasktrackhq/tasktrack-api/internal/store"
)

// mockResult implements sql.Result for testing
type mockResult struct {
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) {
	return 0, nil
}

func (m mockResult) RowsAffected() (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.rowsAffected, nil
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		expectedError error
		expectedMsg   string
	}{
		{
			name:          "nil_error",
			err:           nil,
			expectedError: nil,
		},
		{
			name:          "sql_no_rows",
			err:           sql.ErrNoRows,
			expectedError: store.ErrNotFound,
		},
		{
			name: "unique_violation",
			err: &pgconn.PgError{
				Code:           uniqueViolationCode,
				ConstraintName: "users_email_key",
			},
			expectedError: store.ErrDuplicate,
		},
		{
			name: "foreign_key_violation",
			err: &pgconn.PgError{
				Code:           foreignKeyViolationCode,
				ConstraintName: "tasks_project_id_fkey",
			},
			expectedError: store.ErrInvalidEntity,
			expectedMsg:   "foreign key violation",
		},
		{
			name: "check_constraint_violation",
			err: &pgconn.PgError{
				Code: checkViolationCode,
			},
			expectedError: store.ErrInvalidEntity,
			expectedMsg:   "check constraint violation",
		},
		{
			name: "not_null_violation",
			err: &pgconn.PgError{
				Code:       notNullViolationCode,
				ColumnName: "title",
			},
			expectedError: store.ErrInvalidEntity,
			expectedMsg:   "not null violation",
		},
		{
			name:          "generic_error_passes_through",
			err:           errors.New("some other error"),
			expectedError: nil,
			expectedMsg:   "some other error",
		},
		{
			name: "unknown_pg_code_passes_through",
			err: &pgconn.PgError{
				Code:    "99999",
				Message: "unknown error",
			},
			expectedError: nil,
			expectedMsg:   "unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MapError(tt.err)

			if tt.err == nil {
				assert.Nil(t, result)
				return
			}

			require.Error(t, result)
			if tt.expectedError != nil {
				assert.ErrorIs(t, result, tt.expectedError)
			}
			if tt.expectedMsg != "" {
				assert.Contains(t, result.Error(), tt.expectedMsg)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil_error",
			err:      nil,
			expected: false,
		},
		{
			name: "unique_violation",
			err: &pgconn.PgError{
				Code: uniqueViolationCode,
			},
			expected: true,
		},
		{
			name: "other_violation",
			err: &pgconn.PgError{
				Code: foreignKeyViolationCode,
			},
			expected: false,
		},
		{
			name:     "non_pg_error",
			err:      errors.New("some error"),
			expected: false,
		},
		{
			name: "wrapped_unique_violation",
			err: fmt.Errorf("context: %w", &pgconn.PgError{
				Code: uniqueViolationCode,
			}),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsUniqueViolation(tt.err))
		})
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil_error",
			err:      nil,
			expected: false,
		},
		{
			name: "foreign_key_violation",
			err: &pgconn.PgError{
				Code: foreignKeyViolationCode,
			},
			expected: true,
		},
		{
			name: "other_violation",
			err: &pgconn.PgError{
				Code: uniqueViolationCode,
			},
			expected: false,
		},
		{
			name:     "non_pg_error",
			err:      errors.New("some error"),
			expected: false,
		},
		{
			name: "wrapped_foreign_key_violation",
			err: fmt.Errorf("context: %w", &pgconn.PgError{
				Code: foreignKeyViolationCode,
			}),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsForeignKeyViolation(tt.err))
		})
	}
}

func TestViolatedConstraint(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil_error",
			err:      nil,
			expected: "",
		},
		{
			name: "pg_error_with_constraint",
			err: &pgconn.PgError{
				Code:           foreignKeyViolationCode,
				ConstraintName: "tasks_assigned_user_id_fkey",
			},
			expected: "tasks_assigned_user_id_fkey",
		},
		{
			name: "wrapped_pg_error",
			err: fmt.Errorf("insert failed: %w", &pgconn.PgError{
				Code:           foreignKeyViolationCode,
				ConstraintName: "tasks_project_id_fkey",
			}),
			expected: "tasks_project_id_fkey",
		},
		{
			name:     "non_pg_error",
			err:      errors.New("some error"),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ViolatedConstraint(tt.err))
		})
	}
}

func TestCheckRowsAffected(t *testing.T) {
	tests := []struct {
		name        string
		result      sql.Result
		entityName  string
		expectError bool
		errorMsg    string
	}{
		{
			name:        "nil_result",
			result:      nil,
			entityName:  "user",
			expectError: true,
			errorMsg:    "nil result",
		},
		{
			name: "zero_rows_affected_with_entity",
			result: mockResult{
				rowsAffected: 0,
			},
			entityName:  "user",
			expectError: true,
			errorMsg:    "user not found",
		},
		{
			name: "zero_rows_affected_no_entity",
			result: mockResult{
				rowsAffected: 0,
			},
			entityName:  "",
			expectError: true,
		},
		{
			name: "one_row_affected",
			result: mockResult{
				rowsAffected: 1,
			},
			entityName:  "user",
			expectError: false,
		},
		{
			name: "multiple_rows_affected",
			result: mockResult{
				rowsAffected: 5,
			},
			entityName:  "user",
			expectError: false,
		},
		{
			name: "error_getting_rows_affected",
			result: mockResult{
				err: errors.New("db error"),
			},
			entityName:  "user",
			expectError: true,
			errorMsg:    "rows affected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRowsAffected(tt.result, tt.entityName)

			if !tt.expectError {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			if tt.errorMsg != "" {
				assert.Contains(t, err.Error(), tt.errorMsg)
			}
			if tt.result != nil && tt.errorMsg == "" {
				assert.ErrorIs(t, err, store.ErrNotFound)
			}
		})
	}
}

func TestMapUniqueViolation(t *testing.T) {
	uniqueErr := &pgconn.PgError{
		Code:           uniqueViolationCode,
		ConstraintName: "users_email_key",
	}

	tests := []struct {
		name          string
		err           error
		entityName    string
		specificError error
		expectedError error
		checkMsg      string
	}{
		{
			name:          "nil_error",
			err:           nil,
			entityName:    "user",
			specificError: store.ErrEmailExists,
			expectedError: nil,
		},
		{
			name:          "unique_violation_with_specific_error",
			err:           uniqueErr,
			entityName:    "user",
			specificError: store.ErrEmailExists,
			expectedError: store.ErrEmailExists,
		},
		{
			name:          "unique_violation_with_entity_name",
			err:           uniqueErr,
			entityName:    "user",
			specificError: nil,
			expectedError: store.ErrDuplicate,
			checkMsg:      "user already exists",
		},
		{
			name:          "unique_violation_no_details",
			err:           uniqueErr,
			entityName:    "",
			specificError: nil,
			expectedError: store.ErrDuplicate,
		},
		{
			name:          "non_unique_violation_passes_through",
			err:           errors.New("some other error"),
			entityName:    "user",
			specificError: store.ErrEmailExists,
			checkMsg:      "some other error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MapUniqueViolation(tt.err, tt.entityName, tt.specificError)

			if tt.err == nil {
				assert.Nil(t, result)
				return
			}

			require.Error(t, result)
			if tt.expectedError != nil {
				assert.ErrorIs(t, result, tt.expectedError)
			}
			if tt.checkMsg != "" {
				assert.Contains(t, result.Error(), tt.checkMsg)
			}
		})
	}
}
