package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pranay8282/Expense-Management/internal/models"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.True(t, CheckPassword(hash, "password123"))
	assert.False(t, CheckPassword(hash, "password124"))
	assert.False(t, CheckPassword("not-a-hash", "password123"))
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)

	token, err := manager.Issue(42, models.RoleManager)
	require.NoError(t, err)

	claims, err := manager.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, models.RoleManager, claims.Role)
}

func TestTokenManager_VerifyFailures(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)

	t.Run("garbage token", func(t *testing.T) {
		_, err := manager.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager("other-secret", time.Hour)
		token, err := other.Issue(1, models.RoleEmployee)
		require.NoError(t, err)

		_, err = manager.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewTokenManager("test-secret", -time.Minute)
		token, err := expired.Issue(1, models.RoleEmployee)
		require.NoError(t, err)

		_, err = manager.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
