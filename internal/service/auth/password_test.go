package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasktrackhq/tasktrack-api/internal/service/auth"
)

func TestBcryptHashAndCompare(t *testing.T) {
	// Use the minimum cost to keep the test fast.
	hasher := auth.NewBcryptHasher(4)
	verifier := auth.NewBcryptVerifier()

	const password = "correct horse battery staple"

	hash, err := hasher.Hash(password)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	t.Run("matching password verifies", func(t *testing.T) {
		assert.NoError(t, verifier.Compare(hash, password))
	})

	t.Run("wrong password fails with sentinel", func(t *testing.T) {
		err := verifier.Compare(hash, "wrong password")
		assert.ErrorIs(t, err, auth.ErrPasswordMismatch)
	})

	t.Run("hashes are salted", func(t *testing.T) {
		second, err := hasher.Hash(password)
		require.NoError(t, err)
		assert.NotEqual(t, hash, second)
		assert.NoError(t, verifier.Compare(second, password))
	})

	t.Run("garbage hash fails", func(t *testing.T) {
		err := verifier.Compare("not-a-bcrypt-hash", password)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrPasswordMismatch)
	})
}

func TestNewBcryptHasherClampsCost(t *testing.T) {
	// Out-of-range costs fall back to the default rather than failing
	// at first use.
	for _, cost := range []int{-1, 0, 3, 99} {
		hasher := auth.NewBcryptHasher(cost)
		hash, err := hasher.Hash("some password")
		require.NoError(t, err, "cost %d", cost)
		assert.NotEmpty(t, hash)
	}
}
