package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
)

const insightTimeout = 5 * time.Second

// TextGenerator produces a short human-readable blurb for a prompt. The
// generative backend is best-effort; a failure or timeout falls back to a
// deterministic message and never touches ledger state.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type InsightService struct {
	stats     *StatsService
	generator TextGenerator
}

func NewInsightService(stats *StatsService, generator TextGenerator) *InsightService {
	return &InsightService{
		stats:     stats,
		generator: generator,
	}
}

type Insight struct {
	Message   string    `json:"message"`
	Generated bool      `json:"generated"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *InsightService) GetInsight(ctx context.Context, userID string) (*Insight, error) {
	stats, err := s.stats.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	fallback := fallbackInsight(stats)

	if s.generator == nil {
		return &Insight{Message: fallback, CreatedAt: time.Now().UTC()}, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, insightTimeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"In one encouraging sentence, summarize this habit progress: %d active habits, %d/%d scheduled habits done today, longest streak %d days, 30-day completion rate %.0f%%.",
		stats.ActiveHabits, stats.CompletedToday, stats.ScheduledToday, stats.LongestStreak, stats.WindowRate*100,
	)

	message, err := s.generator.Generate(genCtx, prompt)
	if err != nil || message == "" {
		if err != nil {
			log.Printf("Insight generation failed for user %s, using fallback: %v", userID, err)
		}
		return &Insight{Message: fallback, CreatedAt: time.Now().UTC()}, nil
	}

	return &Insight{Message: message, Generated: true, CreatedAt: time.Now().UTC()}, nil
}

func fallbackInsight(stats *domain.UserStats) string {
	switch {
	case stats.ScheduledToday > 0 && stats.CompletedToday == stats.ScheduledToday:
		return fmt.Sprintf("All %d scheduled habits done today. Longest streak: %d days.", stats.ScheduledToday, stats.LongestStreak)
	case stats.ScheduledToday > 0:
		return fmt.Sprintf("%d of %d scheduled habits done today. Keep going.", stats.CompletedToday, stats.ScheduledToday)
	case stats.ActiveHabits > 0:
		return "Nothing scheduled today. Rest up for tomorrow."
	default:
		return "No habits yet. Create one to get started."
	}
}
