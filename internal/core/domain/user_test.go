package domain_test

import (
	"testing"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("Success: Normalizes email and defaults timezone", func(t *testing.T) {
		u, err := domain.NewUser("u1", "  Alice@Example.COM ", "")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", u.Email)
		assert.Equal(t, "UTC", u.Timezone)
	})

	t.Run("Success: Keeps a valid timezone", func(t *testing.T) {
		u, err := domain.NewUser("u1", "alice@example.com", "Asia/Tokyo")
		require.NoError(t, err)
		assert.Equal(t, "Asia/Tokyo", u.Timezone)
	})

	t.Run("Error: Invalid email", func(t *testing.T) {
		_, err := domain.NewUser("u1", "not-an-email", "")
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	})

	t.Run("Error: Invalid timezone", func(t *testing.T) {
		_, err := domain.NewUser("u1", "alice@example.com", "Pluto/Chasm")
		assert.ErrorIs(t, err, domain.ErrInvalidTimezone)
	})
}

func TestUser_PasswordLifecycle(t *testing.T) {
	u, err := domain.NewUser("u1", "alice@example.com", "")
	require.NoError(t, err)

	t.Run("Error: Too short", func(t *testing.T) {
		assert.ErrorIs(t, u.SetPassword("short"), domain.ErrPasswordTooShort)
	})

	t.Run("Success: Set then verify", func(t *testing.T) {
		require.NoError(t, u.SetPassword("correct horse battery"))
		assert.NotEqual(t, "correct horse battery", u.PasswordHash, "Hash must never be the plaintext")
		assert.NoError(t, u.CheckPassword("correct horse battery"))
		assert.Error(t, u.CheckPassword("wrong password"))
	})
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"invalid credentials", domain.ErrInvalidCredentials, domain.CodeAuth},
		{"unauthorized reads as absence", domain.ErrUnauthorized, domain.CodeNotFound},
		{"habit not found", domain.ErrHabitNotFound, domain.CodeNotFound},
		{"already completed", domain.ErrAlreadyCompleted, domain.CodeConflict},
		{"session conflict", domain.ErrSessionConflict, domain.CodeConflict},
		{"not completed today", domain.ErrNotCompletedToday, domain.CodeNotCompleted},
		{"not paused", domain.ErrNotPaused, domain.CodeNotPaused},
		{"transient store", domain.ErrTransientStore, domain.CodeTransient},
		{"invalid timezone", domain.ErrInvalidTimezone, domain.CodeValidation},
		{"unknown", assert.AnError, domain.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.CodeOf(tt.err))
		})
	}
}
