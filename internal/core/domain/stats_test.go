package domain_test

import (
	"testing"
	"time"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsContentHash(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

	newHabit := func(title string) *domain.Habit {
		h, err := domain.NewHabit("u1", title, "", "", "UTC", nil)
		require.NoError(t, err)
		return h
	}

	t.Run("Deterministic for the same ledger", func(t *testing.T) {
		a := newHabit("Read")
		b := newHabit("Run")
		assert.Equal(t,
			domain.StatsContentHash([]*domain.Habit{a, b}),
			domain.StatsContentHash([]*domain.Habit{a, b}))
	})

	t.Run("Order independent", func(t *testing.T) {
		a := newHabit("Read")
		b := newHabit("Run")
		assert.Equal(t,
			domain.StatsContentHash([]*domain.Habit{a, b}),
			domain.StatsContentHash([]*domain.Habit{b, a}))
	})

	t.Run("A new completion changes the hash", func(t *testing.T) {
		h := newHabit("Read")
		before := domain.StatsContentHash([]*domain.Habit{h})

		_, err := h.Complete(now, "")
		require.NoError(t, err)
		after := domain.StatsContentHash([]*domain.Habit{h})

		assert.NotEqual(t, before, after)
	})

	t.Run("Removing a completion changes the hash back from the completed state", func(t *testing.T) {
		h := newHabit("Read")
		_, err := h.Complete(now, "")
		require.NoError(t, err)
		completed := domain.StatsContentHash([]*domain.Habit{h})

		_, err = h.Skip(now)
		require.NoError(t, err)
		skipped := domain.StatsContentHash([]*domain.Habit{h})

		assert.NotEqual(t, completed, skipped)
	})

	t.Run("Empty ledger still hashes", func(t *testing.T) {
		assert.NotEmpty(t, domain.StatsContentHash(nil))
	})
}
