package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/workers"
)

type HabitService struct {
	repo   domain.HabitRepository
	worker *workers.RewardWorker
}

func NewHabitService(repo domain.HabitRepository, worker *workers.RewardWorker) *HabitService {
	return &HabitService{
		repo:   repo,
		worker: worker,
	}
}

type CreateHabitInput struct {
	UserID   string
	Title    string
	Schedule string
	Priority string
	Timezone string
	Weekdays []int
}

func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	habit, err := domain.NewHabit(input.UserID, input.Title, input.Schedule, input.Priority, input.Timezone, input.Weekdays)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, err
	}

	return habit, nil
}

func (s *HabitService) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *HabitService) GetByID(ctx context.Context, id, userID string) (*domain.Habit, error) {
	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return habit, nil
}

type CompletionResult struct {
	NewStreak      int  `json:"new_streak"`
	XPAwarded      int  `json:"xp_awarded"`
	MilestoneBonus int  `json:"milestone_bonus,omitempty"`
	AlreadyDone    bool `json:"-"`
}

// Complete records today's completion for the habit. The repository insert
// is conditional on no completion existing for the day, so concurrent calls
// yield one success and ErrAlreadyCompleted for the rest. Reward writes are
// posted through the worker after the ledger commit.
func (s *HabitService) Complete(ctx context.Context, habitID, userID, notes string) (*CompletionResult, error) {
	habit, err := s.GetByID(ctx, habitID, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	event, err := habit.Complete(now, notes)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AppendCompletion(ctx, habit.ID, event, habit.Streak); err != nil {
		return nil, err
	}

	result := &CompletionResult{
		NewStreak: habit.Streak,
		XPAwarded: habit.XPValue(),
	}

	s.worker.Enqueue(workers.Job{
		UserID:      userID,
		Kind:        workers.JobAward,
		Amount:      habit.XPValue(),
		Source:      domain.SourceHabitCompletion,
		Description: fmt.Sprintf("Completed %q", habit.Title),
	})

	if bonus := domain.MilestoneBonus(habit.Streak); bonus > 0 {
		result.MilestoneBonus = bonus
		s.worker.Enqueue(workers.Job{
			UserID:      userID,
			Kind:        workers.JobAward,
			Amount:      bonus,
			Source:      domain.SourceStreakMilestone,
			Description: fmt.Sprintf("Reached a %d-day streak", habit.Streak),
		})
	}

	s.enqueueDailyBonus(ctx, userID, event.DayKey, now)

	return result, nil
}

// SkipToday removes today's completion and reverses its per-habit XP. Any
// milestone or daily-bonus XP the completion previously unlocked stays on
// the ledger; the reversal entry records only the per-habit amount.
func (s *HabitService) SkipToday(ctx context.Context, habitID, userID string) (*CompletionResult, error) {
	habit, err := s.GetByID(ctx, habitID, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	removed, err := habit.Skip(now)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RemoveCompletion(ctx, habit.ID, removed.DayKey, habit.Streak); err != nil {
		return nil, err
	}

	s.worker.Enqueue(workers.Job{
		UserID:      userID,
		Kind:        workers.JobReverse,
		Amount:      habit.XPValue(),
		Source:      domain.SourceHabitCompletion,
		Description: fmt.Sprintf("Reversed completion of %q (earlier bonuses kept)", habit.Title),
	})

	return &CompletionResult{NewStreak: habit.Streak, XPAwarded: -habit.XPValue()}, nil
}

func (s *HabitService) Archive(ctx context.Context, id, userID string) error {
	habit, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return err
	}
	habit.Archive()
	return s.repo.Update(ctx, habit)
}

func (s *HabitService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.GetByID(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// enqueueDailyBonus snapshots today's scheduled/completed counts and defers
// the all-done bonus decision to the worker, which re-checks idempotency
// against the ledger at apply time.
func (s *HabitService) enqueueDailyBonus(ctx context.Context, userID, dayKey string, now time.Time) {
	habits, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		// Counting failed; skip the bonus rather than fail the completion.
		return
	}

	scheduled, completed, bestStreak := 0, 0, 0
	for _, h := range habits {
		if h.Status != domain.HabitStatusActive {
			continue
		}
		weekday, err := domain.WeekdayOf(now, h.Timezone)
		if err != nil {
			continue
		}
		if !h.Schedule.IsScheduledOn(weekday, h.Weekdays) {
			continue
		}
		scheduled++
		key, err := domain.DayKey(now, h.Timezone)
		if err != nil {
			continue
		}
		if _, ok := h.CompletionFor(key); ok {
			completed++
		}
		if h.Streak > bestStreak {
			bestStreak = h.Streak
		}
	}

	s.worker.Enqueue(workers.Job{
		UserID:         userID,
		Kind:           workers.JobDailyBonus,
		DayKey:         dayKey,
		CompletedToday: completed,
		ScheduledToday: scheduled,
		BestStreak:     bestStreak,
	})
}
