package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/goliatone/go-fitauth"
)

func TestHashPassword(t *testing.T) {
	hash, err := auth.HashPassword("leg day every day")
	require.NoError(t, err)
	assert.NotEqual(t, "leg day every day", hash)
	assert.NoError(t, auth.ComparePasswordAndHash("leg day every day", hash))

	_, err = auth.HashPassword("")
	assert.ErrorIs(t, err, auth.ErrNoEmptyString)

	_, err = auth.HashPassword(strings.Repeat("é", 40))
	assert.ErrorIs(t, err, auth.ErrPasswordTooLong)

	_, err = auth.HashPassword(strings.Repeat("a", auth.MaxPasswordBytes))
	assert.NoError(t, err)
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := auth.HashPassword("leg day every day")
	require.NoError(t, err)

	assert.ErrorIs(t, auth.ComparePasswordAndHash("arm day", hash), auth.ErrMismatchedHashAndPassword)

	err = auth.ComparePasswordAndHash("leg day every day", "not-a-hash")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
}

func TestPasswordNeedsRehash(t *testing.T) {
	hash, err := auth.HashPassword("leg day every day")
	require.NoError(t, err)
	assert.False(t, auth.PasswordNeedsRehash(hash))

	restore := auth.SetPasswordCost(bcrypt.MinCost + 1)
	defer restore()

	assert.True(t, auth.PasswordNeedsRehash(hash))
	assert.True(t, auth.PasswordNeedsRehash("garbage"))
}
