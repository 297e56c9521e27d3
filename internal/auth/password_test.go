package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "secret123", hash)

	// Each hash carries its own salt, so the same password never
	// produces the same hash twice.
	other, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("secret123")
	require.NoError(t, err)

	t.Run("MatchingPassword", func(t *testing.T) {
		t.Parallel()
		ok, err := VerifyPassword("secret123", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		t.Parallel()
		ok, err := VerifyPassword("secret124", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("EmptyPassword", func(t *testing.T) {
		t.Parallel()
		ok, err := VerifyPassword("", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("MalformedHashIsAnError", func(t *testing.T) {
		t.Parallel()
		ok, err := VerifyPassword("secret123", "not-a-bcrypt-hash")
		require.Error(t, err)
		assert.False(t, ok)
	})
}
