package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/adapters/repository"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repo *repository.InMemoryUserRepository, id string) {
	t.Helper()
	user, err := domain.NewUser(id, id+"@example.com", "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), user))
}

func TestTokenService_RoundTrip(t *testing.T) {
	repo := repository.NewInMemoryUserRepository()
	seedUser(t, repo, "user-123")
	svc := services.NewTokenService("test-secret", "test-issuer", time.Hour, repo)

	token, err := svc.GenerateToken("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestTokenService_ValidateToken(t *testing.T) {
	repo := repository.NewInMemoryUserRepository()
	seedUser(t, repo, "user-123")

	t.Run("Error: Expired token", func(t *testing.T) {
		svc := services.NewTokenService("test-secret", "test-issuer", -time.Minute, repo)
		token, err := svc.GenerateToken("user-123")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("Error: Wrong signing secret", func(t *testing.T) {
		attacker := services.NewTokenService("other-secret", "test-issuer", time.Hour, repo)
		token, err := attacker.GenerateToken("user-123")
		require.NoError(t, err)

		svc := services.NewTokenService("test-secret", "test-issuer", time.Hour, repo)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("Error: Wrong issuer", func(t *testing.T) {
		other := services.NewTokenService("test-secret", "someone-else", time.Hour, repo)
		token, err := other.GenerateToken("user-123")
		require.NoError(t, err)

		svc := services.NewTokenService("test-secret", "test-issuer", time.Hour, repo)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("Error: Deleted user", func(t *testing.T) {
		svc := services.NewTokenService("test-secret", "test-issuer", time.Hour, repo)
		token, err := svc.GenerateToken("ghost-user")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("Error: Garbage input", func(t *testing.T) {
		svc := services.NewTokenService("test-secret", "test-issuer", time.Hour, repo)
		_, err := svc.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}
