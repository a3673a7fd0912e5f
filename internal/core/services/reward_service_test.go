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

func TestRewardService_AwardAndRemove(t *testing.T) {
	ctx := context.Background()
	svc := services.NewRewardService(repository.NewInMemoryRewardRepository())

	t.Run("Success: Award accumulates and reports rank ups", func(t *testing.T) {
		result, err := svc.AwardXP(ctx, "u1", 90, domain.SourceHabitCompletion, "Completed \"Read\"")
		require.NoError(t, err)
		assert.False(t, result.RankedUp)
		assert.Equal(t, 90, result.State.XPTotal)

		result, err = svc.AwardXP(ctx, "u1", 20, domain.SourceHabitCompletion, "Completed \"Run\"")
		require.NoError(t, err)
		assert.True(t, result.RankedUp)
		assert.Equal(t, "Beginner", result.State.RankTitle)
	})

	t.Run("Success: Removal floors at zero", func(t *testing.T) {
		result, err := svc.RemoveXP(ctx, "u2", 500, domain.SourceHabitCompletion, "Reversed")
		require.NoError(t, err)
		assert.Equal(t, 0, result.State.XPTotal)
	})
}

func TestRewardService_CheckStreakMilestone(t *testing.T) {
	ctx := context.Background()
	svc := services.NewRewardService(repository.NewInMemoryRewardRepository())

	t.Run("Noop: Non-milestone streak", func(t *testing.T) {
		result, err := svc.CheckStreakMilestone(ctx, "u1", 8)
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("Success: Exact milestone pays the fixed bonus", func(t *testing.T) {
		result, err := svc.CheckStreakMilestone(ctx, "u1", 7)
		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, 50, result.Amount)
	})
}

func TestRewardService_CheckDailyBonus(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: Awarded once per day key", func(t *testing.T) {
		svc := services.NewRewardService(repository.NewInMemoryRewardRepository())

		first, err := svc.CheckDailyBonus(ctx, "u1", 3, 3, 10, "2026-03-20")
		require.NoError(t, err)
		assert.True(t, first.Awarded)
		assert.Equal(t, 40, first.Amount)

		second, err := svc.CheckDailyBonus(ctx, "u1", 3, 3, 10, "2026-03-20")
		require.NoError(t, err)
		assert.False(t, second.Awarded)
		assert.True(t, second.AlreadyAwarded)
	})

	t.Run("Noop: Incomplete day", func(t *testing.T) {
		svc := services.NewRewardService(repository.NewInMemoryRewardRepository())

		result, err := svc.CheckDailyBonus(ctx, "u1", 2, 3, 10, "2026-03-20")
		require.NoError(t, err)
		assert.False(t, result.Awarded)
		assert.False(t, result.AlreadyAwarded)
	})

	t.Run("Noop: Nothing scheduled", func(t *testing.T) {
		svc := services.NewRewardService(repository.NewInMemoryRewardRepository())

		result, err := svc.CheckDailyBonus(ctx, "u1", 0, 0, 10, "2026-03-20")
		require.NoError(t, err)
		assert.False(t, result.Awarded)
	})
}

func TestRewardService_GetState(t *testing.T) {
	ctx := context.Background()
	svc := services.NewRewardService(repository.NewInMemoryRewardRepository())

	t.Run("Success: Fresh user starts at zero", func(t *testing.T) {
		state, history, err := svc.GetState(ctx, "brand-new")
		require.NoError(t, err)
		assert.Equal(t, 0, state.XPTotal)
		assert.Equal(t, "Novice", state.RankTitle)
		assert.Empty(t, history)
	})

	t.Run("Success: History reflects applied entries", func(t *testing.T) {
		_, err := svc.AwardXP(ctx, "u1", 30, domain.SourceChainCompletion, "Finished chain \"Morning\"")
		require.NoError(t, err)

		state, history, err := svc.GetState(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 30, state.XPTotal)
		require.Len(t, history, 1)
		assert.Equal(t, domain.SourceChainCompletion, history[0].Source)
	})
}
