package workers_test

import (
	"context"
	"testing"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/adapters/repository"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/services"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/workers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewardWorker_Award(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInMemoryRewardRepository()
	worker := workers.NewRewardWorker(services.NewRewardService(repo))

	worker.Enqueue(workers.Job{
		UserID:      "u1",
		Kind:        workers.JobAward,
		Amount:      30,
		Source:      domain.SourceHabitCompletion,
		Description: "Completed \"Read\"",
	})
	worker.Drain(ctx)

	profile, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 30, profile.XPTotal)
	require.Len(t, profile.History, 1)
	assert.Equal(t, domain.SourceHabitCompletion, profile.History[0].Source)
}

func TestRewardWorker_DrainFlushesAfterStop(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInMemoryRewardRepository()
	worker := workers.NewRewardWorker(services.NewRewardService(repo))

	loopCtx, stop := context.WithCancel(ctx)
	worker.Start(loopCtx)
	stop()

	worker.Enqueue(workers.Job{UserID: "u1", Kind: workers.JobAward, Amount: 30, Source: domain.SourceHabitCompletion})
	worker.Enqueue(workers.Job{UserID: "u1", Kind: workers.JobAward, Amount: 20, Source: domain.SourceHabitCompletion})
	worker.Drain(ctx)

	profile, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 50, profile.XPTotal, "Jobs queued around shutdown must still be posted")
}

func TestRewardWorker_ReverseFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInMemoryRewardRepository()
	worker := workers.NewRewardWorker(services.NewRewardService(repo))

	worker.Enqueue(workers.Job{UserID: "u1", Kind: workers.JobAward, Amount: 10, Source: domain.SourceHabitCompletion})
	worker.Enqueue(workers.Job{UserID: "u1", Kind: workers.JobReverse, Amount: 30, Source: domain.SourceHabitCompletion})
	worker.Drain(ctx)

	profile, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, profile.XPTotal, "Reversal must never push the total negative")
}

func TestRewardWorker_DailyBonus(t *testing.T) {
	ctx := context.Background()

	bonusJob := workers.Job{
		UserID:         "u1",
		Kind:           workers.JobDailyBonus,
		DayKey:         "2026-03-20",
		CompletedToday: 3,
		ScheduledToday: 3,
		BestStreak:     5,
	}

	t.Run("Success: All scheduled done pays once", func(t *testing.T) {
		repo := repository.NewInMemoryRewardRepository()
		worker := workers.NewRewardWorker(services.NewRewardService(repo))

		worker.Enqueue(bonusJob)
		worker.Enqueue(bonusJob)
		worker.Drain(ctx)

		profile, err := repo.GetProfile(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 30, profile.XPTotal, "20 base + 2 per streak day, paid exactly once")
		assert.Len(t, profile.History, 1)
		assert.True(t, profile.HasDailyBonusFor("2026-03-20"))
	})

	t.Run("Noop: Not all scheduled habits done", func(t *testing.T) {
		repo := repository.NewInMemoryRewardRepository()
		worker := workers.NewRewardWorker(services.NewRewardService(repo))

		partial := bonusJob
		partial.CompletedToday = 2
		worker.Enqueue(partial)
		worker.Drain(ctx)

		profile, err := repo.GetProfile(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 0, profile.XPTotal)
	})

	t.Run("Noop: Nothing scheduled today", func(t *testing.T) {
		repo := repository.NewInMemoryRewardRepository()
		worker := workers.NewRewardWorker(services.NewRewardService(repo))

		empty := bonusJob
		empty.ScheduledToday = 0
		empty.CompletedToday = 0
		worker.Enqueue(empty)
		worker.Drain(ctx)

		profile, err := repo.GetProfile(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 0, profile.XPTotal)
	})

	t.Run("Success: Separate days pay separately", func(t *testing.T) {
		repo := repository.NewInMemoryRewardRepository()
		worker := workers.NewRewardWorker(services.NewRewardService(repo))

		worker.Enqueue(bonusJob)
		nextDay := bonusJob
		nextDay.DayKey = "2026-03-21"
		worker.Enqueue(nextDay)
		worker.Drain(ctx)

		profile, err := repo.GetProfile(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 60, profile.XPTotal)
		assert.Len(t, profile.History, 2)
	})
}
