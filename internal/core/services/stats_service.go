package services

import (
	"context"
	"log"
	"time"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
)

const statsWindowDays = 30

// StatsCache is the ephemeral snapshot store consulted as a hint. A cached
// rollup is served only while its content hash still matches the ledger.
type StatsCache interface {
	GetSnapshot(ctx context.Context, userID string) (*domain.UserStats, error)
	SetSnapshot(ctx context.Context, userID string, stats *domain.UserStats) error

	// TryMarkGenerating sets a short-TTL advisory marker. False means
	// another process is already recomputing; a missed race only causes
	// redundant work, never a wrong result.
	TryMarkGenerating(ctx context.Context, userID string) (bool, error)
}

type StatsService struct {
	habits domain.HabitRepository
	cache  StatsCache
}

func NewStatsService(habits domain.HabitRepository, cache StatsCache) *StatsService {
	return &StatsService{
		habits: habits,
		cache:  cache,
	}
}

// GetStats serves the derived rollup. The ledger is hashed on every call;
// the cached snapshot is returned only on a hash match, otherwise the
// rollup is recomputed from the ledger. The cache is never authoritative.
func (s *StatsService) GetStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	habits, err := s.habits.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	hash := domain.StatsContentHash(habits)

	if s.cache != nil {
		cached, err := s.cache.GetSnapshot(ctx, userID)
		if err != nil {
			log.Printf("[CACHE] stats snapshot read failed for user %s: %v", userID, err)
		} else if cached != nil && cached.ContentHash == hash {
			return cached, nil
		}
	}

	stats := s.compute(habits, hash, time.Now().UTC())

	if s.cache != nil {
		acquired, err := s.cache.TryMarkGenerating(ctx, userID)
		if err != nil {
			log.Printf("[CACHE] generating marker failed for user %s: %v", userID, err)
		} else if acquired {
			if err := s.cache.SetSnapshot(ctx, userID, stats); err != nil {
				log.Printf("[CACHE] stats snapshot write failed for user %s: %v", userID, err)
			}
		}
	}

	return stats, nil
}

func (s *StatsService) compute(habits []*domain.Habit, hash string, now time.Time) *domain.UserStats {
	stats := &domain.UserStats{
		TotalHabits: len(habits),
		WindowDays:  statsWindowDays,
		ByPriority:  make(map[domain.Priority]int),
		HabitStats:  make([]domain.HabitStat, 0, len(habits)),
		ContentHash: hash,
		GeneratedAt: now,
	}

	windowScheduled := 0
	windowCompleted := 0

	for _, h := range habits {
		if h.Status == domain.HabitStatusActive {
			stats.ActiveHabits++
		}
		stats.TotalCompletions += len(h.Completions)
		stats.ByPriority[h.Priority] += len(h.Completions)
		if h.Streak > stats.LongestStreak {
			stats.LongestStreak = h.Streak
		}

		today, err := domain.DayKey(now, h.Timezone)
		if err != nil {
			continue
		}
		weekday, err := domain.WeekdayOf(now, h.Timezone)
		if err != nil {
			continue
		}
		if h.Status == domain.HabitStatusActive && h.Schedule.IsScheduledOn(weekday, h.Weekdays) {
			stats.ScheduledToday++
			if _, ok := h.CompletionFor(today); ok {
				stats.CompletedToday++
			}
		}

		scheduled, completed := windowCounts(h, today, now)
		windowScheduled += scheduled
		windowCompleted += completed

		rate := 0.0
		if scheduled > 0 {
			rate = float64(completed) / float64(scheduled)
		}
		stats.HabitStats = append(stats.HabitStats, domain.HabitStat{
			HabitID:        h.ID,
			Title:          h.Title,
			Priority:       string(h.Priority),
			Streak:         h.Streak,
			DaysCompleted:  len(h.Completions),
			CompletionRate: rate,
		})
	}

	if windowScheduled > 0 {
		stats.WindowRate = float64(windowCompleted) / float64(windowScheduled)
	}

	return stats
}

// windowCounts walks the trailing window and tallies scheduled vs completed
// days for one habit.
func windowCounts(h *domain.Habit, today string, now time.Time) (scheduled, completed int) {
	completedDays := h.CompletedDays()

	day := today
	weekday, err := domain.WeekdayOf(now, h.Timezone)
	if err != nil {
		return 0, 0
	}

	for i := 0; i < statsWindowDays; i++ {
		if h.Schedule.IsScheduledOn(weekday, h.Weekdays) {
			scheduled++
			if _, ok := completedDays[day]; ok {
				completed++
			}
		}
		day, weekday, err = domain.PreviousDay(day, h.Timezone)
		if err != nil {
			return scheduled, completed
		}
	}
	return scheduled, completed
}
