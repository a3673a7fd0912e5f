package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// UserStats is the derived rollup served to clients. It is always
// recomputable from the habit ledger and never a source of truth.
type UserStats struct {
	TotalHabits      int              `json:"total_habits"`
	ActiveHabits     int              `json:"active_habits"`
	TotalCompletions int              `json:"total_completions"`
	CompletedToday   int              `json:"completed_today"`
	ScheduledToday   int              `json:"scheduled_today"`
	LongestStreak    int              `json:"longest_streak"`
	WindowDays       int              `json:"window_days"`
	WindowRate       float64          `json:"window_completion_rate"`
	ByPriority       map[Priority]int `json:"completions_by_priority"`
	HabitStats       []HabitStat      `json:"habits"`

	ContentHash string    `json:"content_hash"`
	GeneratedAt time.Time `json:"generated_at"`
}

type HabitStat struct {
	HabitID        string  `json:"habit_id"`
	Title          string  `json:"title"`
	Priority       string  `json:"priority"`
	Streak         int     `json:"streak"`
	DaysCompleted  int     `json:"days_completed"`
	CompletionRate float64 `json:"completion_rate"`
}

// StatsContentHash fingerprints the ledger inputs the rollup depends on:
// habit ids, completion day keys, streaks and update times. Any ledger
// mutation changes the hash and invalidates a cached rollup.
func StatsContentHash(habits []*Habit) string {
	h := sha256.New()

	sorted := make([]*Habit, len(habits))
	copy(sorted, habits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, habit := range sorted {
		fmt.Fprintf(h, "%s|%d|%d|", habit.ID, habit.Streak, habit.UpdatedAt.UnixNano())
		keys := make([]string, 0, len(habit.Completions))
		for _, c := range habit.Completions {
			keys = append(keys, c.DayKey)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(h, "%s,", k)
		}
		fmt.Fprint(h, ";")
	}

	return hex.EncodeToString(h.Sum(nil))
}
