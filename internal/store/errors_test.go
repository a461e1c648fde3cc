package store_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tasktrackhq/tasktrack-api/internal/store"
)

// TestErrorDefinitions ensures the sentinel errors wrap their generic
// counterparts so errors.Is works across the store boundary.
func TestErrorDefinitions(t *testing.T) {
	t.Parallel()

	t.Run("entity not found errors wrap ErrNotFound", func(t *testing.T) {
		t.Parallel()

		for _, err := range []error{
			store.ErrUserNotFound,
			store.ErrProjectNotFound,
			store.ErrTaskNotFound,
			store.ErrJobNotFound,
		} {
			assert.True(t, errors.Is(err, store.ErrNotFound), "%v should wrap ErrNotFound", err)
			assert.True(t, store.IsNotFoundError(err))
			assert.False(t, store.IsDuplicateError(err))
		}
	})

	t.Run("duplicate errors wrap ErrDuplicate", func(t *testing.T) {
		t.Parallel()

		assert.True(t, errors.Is(store.ErrEmailExists, store.ErrDuplicate))
		assert.True(t, store.IsDuplicateError(store.ErrEmailExists))
		assert.False(t, store.IsNotFoundError(store.ErrEmailExists))
	})

	t.Run("entity errors are distinguishable", func(t *testing.T) {
		t.Parallel()

		assert.False(t, errors.Is(store.ErrUserNotFound, store.ErrTaskNotFound))
		assert.False(t, errors.Is(store.ErrTaskNotFound, store.ErrProjectNotFound))
	})
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	t.Run("wraps the underlying error", func(t *testing.T) {
		t.Parallel()

		storeErr := store.NewStoreError("task", "update", "failed to save task", store.ErrTaskNotFound)

		assert.True(t, errors.Is(storeErr, store.ErrTaskNotFound))
		assert.True(t, errors.Is(storeErr, store.ErrNotFound))
		assert.Contains(t, storeErr.Error(), "update operation on task failed")
		assert.Contains(t, storeErr.Error(), "failed to save task")
	})

	t.Run("formats without a wrapped error", func(t *testing.T) {
		t.Parallel()

		storeErr := store.NewStoreError("project", "delete", "nothing deleted", nil)

		assert.Equal(t, "delete operation on project failed: nothing deleted", storeErr.Error())
		assert.Nil(t, errors.Unwrap(storeErr))
	})
}
