package domain_test

import (
	"testing"
	"time"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func days(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func TestComputeStreak(t *testing.T) {
	// Friday, well away from any DST transition in UTC.
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

	t.Run("Zero: No completions", func(t *testing.T) {
		streak, err := domain.ComputeStreak(days(), domain.ScheduleDaily, nil, "UTC", now)
		require.NoError(t, err)
		assert.Equal(t, 0, streak)
	})

	t.Run("Success: Consecutive run ending today", func(t *testing.T) {
		streak, err := domain.ComputeStreak(
			days("2026-03-20", "2026-03-19", "2026-03-18"),
			domain.ScheduleDaily, nil, "UTC", now)
		require.NoError(t, err)
		assert.Equal(t, 3, streak)
	})

	t.Run("Success: Today not yet done, run ends yesterday", func(t *testing.T) {
		streak, err := domain.ComputeStreak(
			days("2026-03-19", "2026-03-18"),
			domain.ScheduleDaily, nil, "UTC", now)
		require.NoError(t, err)
		assert.Equal(t, 2, streak)
	})

	t.Run("Zero: Neither today nor yesterday done", func(t *testing.T) {
		streak, err := domain.ComputeStreak(
			days("2026-03-18", "2026-03-17", "2026-03-16"),
			domain.ScheduleDaily, nil, "UTC", now)
		require.NoError(t, err)
		assert.Equal(t, 0, streak)
	})

	t.Run("Success: Gap stops the walk", func(t *testing.T) {
		streak, err := domain.ComputeStreak(
			days("2026-03-20", "2026-03-19", "2026-03-17", "2026-03-16"),
			domain.ScheduleDaily, nil, "UTC", now)
		require.NoError(t, err)
		assert.Equal(t, 2, streak)
	})

	t.Run("Success: Weekday schedule skips the weekend", func(t *testing.T) {
		// Monday the 16th; the 14th/15th are an unscheduled weekend.
		monday := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)
		streak, err := domain.ComputeStreak(
			days("2026-03-16", "2026-03-13", "2026-03-12"),
			domain.ScheduleWeekdays, nil, "UTC", monday)
		require.NoError(t, err)
		assert.Equal(t, 3, streak)
	})

	t.Run("Success: Off-schedule completion neither counts nor breaks", func(t *testing.T) {
		// Sunday the 15th is logged but a weekdays habit only counts
		// Monday and Friday here.
		monday := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)
		streak, err := domain.ComputeStreak(
			days("2026-03-16", "2026-03-15", "2026-03-13"),
			domain.ScheduleWeekdays, nil, "UTC", monday)
		require.NoError(t, err)
		assert.Equal(t, 2, streak)
	})

	t.Run("Success: Missing scheduled weekday breaks the chain", func(t *testing.T) {
		monday := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)
		streak, err := domain.ComputeStreak(
			days("2026-03-16", "2026-03-12"),
			domain.ScheduleWeekdays, nil, "UTC", monday)
		require.NoError(t, err)
		assert.Equal(t, 1, streak)
	})

	t.Run("Success: Specific-days schedule", func(t *testing.T) {
		// Scheduled Monday and Wednesday only.
		monday := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)
		streak, err := domain.ComputeStreak(
			days("2026-03-16", "2026-03-11", "2026-03-09"),
			domain.ScheduleSpecificDays, []int{1, 3}, "UTC", monday)
		require.NoError(t, err)
		assert.Equal(t, 3, streak)
	})

	t.Run("Success: Zone shifts the day buckets", func(t *testing.T) {
		// 01:30 UTC on the 20th is still the evening of the 19th in New York.
		late := time.Date(2026, 3, 20, 1, 30, 0, 0, time.UTC)
		streak, err := domain.ComputeStreak(
			days("2026-03-19", "2026-03-18"),
			domain.ScheduleDaily, nil, "America/New_York", late)
		require.NoError(t, err)
		assert.Equal(t, 2, streak)
	})

	t.Run("Error: Invalid timezone", func(t *testing.T) {
		_, err := domain.ComputeStreak(days(), domain.ScheduleDaily, nil, "Not/AZone", now)
		assert.ErrorIs(t, err, domain.ErrInvalidTimezone)
	})
}
