package services_test

import (
	"context"
	"testing"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/adapters/repository"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Creates user with hashed password", func(t *testing.T) {
		svc := services.NewAuthService(repository.NewInMemoryUserRepository())

		user, err := svc.Register(ctx, services.RegisterInput{
			Email:    "Alice@Example.com",
			Password: "supersecret",
			Timezone: "Europe/Rome",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "Europe/Rome", user.Timezone)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEqual(t, "supersecret", user.PasswordHash)
	})

	t.Run("Error: Duplicate email", func(t *testing.T) {
		svc := services.NewAuthService(repository.NewInMemoryUserRepository())

		input := services.RegisterInput{Email: "alice@example.com", Password: "supersecret"}
		_, err := svc.Register(ctx, input)
		require.NoError(t, err)

		_, err = svc.Register(ctx, input)
		assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	})

	t.Run("Error: Invalid email", func(t *testing.T) {
		svc := services.NewAuthService(repository.NewInMemoryUserRepository())
		_, err := svc.Register(ctx, services.RegisterInput{Email: "nope", Password: "supersecret"})
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	})

	t.Run("Error: Short password", func(t *testing.T) {
		svc := services.NewAuthService(repository.NewInMemoryUserRepository())
		_, err := svc.Register(ctx, services.RegisterInput{Email: "alice@example.com", Password: "short"})
		assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
	})

	t.Run("Error: Invalid timezone", func(t *testing.T) {
		svc := services.NewAuthService(repository.NewInMemoryUserRepository())
		_, err := svc.Register(ctx, services.RegisterInput{
			Email: "alice@example.com", Password: "supersecret", Timezone: "Narnia/Lamppost",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidTimezone)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	svc := services.NewAuthService(repository.NewInMemoryUserRepository())

	registered, err := svc.Register(ctx, services.RegisterInput{
		Email:    "alice@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	t.Run("Success: Correct credentials", func(t *testing.T) {
		user, err := svc.Login(ctx, services.LoginInput{Email: "alice@example.com", Password: "supersecret"})
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})

	t.Run("Error: Wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, services.LoginInput{Email: "alice@example.com", Password: "wrongwrong"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Error: Unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, services.LoginInput{Email: "bob@example.com", Password: "supersecret"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}
