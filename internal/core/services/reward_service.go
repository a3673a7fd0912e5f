package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
)

// rewardSaveAttempts bounds the optimistic-lock retry loop on the profile.
const rewardSaveAttempts = 3

type RewardService struct {
	repo domain.RewardRepository
}

func NewRewardService(repo domain.RewardRepository) *RewardService {
	return &RewardService{repo: repo}
}

type AwardResult struct {
	Amount   int                    `json:"amount"`
	RankedUp bool                   `json:"ranked_up"`
	State    domain.UserRewardState `json:"state"`
}

// AwardXP applies a positive ledger entry and reports whether the rank level
// rose. The read-apply-save cycle retries on version conflicts.
func (s *RewardService) AwardXP(ctx context.Context, userID string, amount int, source domain.RewardSource, description string) (*AwardResult, error) {
	if amount < 0 {
		amount = 0
	}
	return s.apply(ctx, userID, domain.RewardLedgerEntry{
		Timestamp:   time.Now().UTC(),
		Amount:      amount,
		Source:      source,
		Description: description,
	})
}

// RemoveXP applies a negative entry, flooring the total at zero. It does not
// revoke milestone or daily-bonus XP that depended on the reversed
// completion; that approximation is deliberate and the entry says so.
func (s *RewardService) RemoveXP(ctx context.Context, userID string, amount int, source domain.RewardSource, description string) (*AwardResult, error) {
	if amount < 0 {
		amount = 0
	}
	return s.apply(ctx, userID, domain.RewardLedgerEntry{
		Timestamp:   time.Now().UTC(),
		Amount:      -amount,
		Source:      source,
		Description: description,
	})
}

func (s *RewardService) apply(ctx context.Context, userID string, entry domain.RewardLedgerEntry) (*AwardResult, error) {
	var lastErr error
	for attempt := 0; attempt < rewardSaveAttempts; attempt++ {
		profile, err := s.repo.GetProfile(ctx, userID)
		if err != nil {
			return nil, err
		}

		rankedUp := profile.Apply(entry)

		if err := s.repo.SaveProfile(ctx, profile); err != nil {
			if errors.Is(err, domain.ErrRewardConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}

		return &AwardResult{
			Amount:   entry.Amount,
			RankedUp: rankedUp,
			State:    profile.State(),
		}, nil
	}
	return nil, fmt.Errorf("reward apply exhausted retries: %w", lastErr)
}

// CheckStreakMilestone awards the fixed bonus only on an exact milestone
// match; non-matching streak values award nothing.
func (s *RewardService) CheckStreakMilestone(ctx context.Context, userID string, newStreak int) (*AwardResult, error) {
	bonus := domain.MilestoneBonus(newStreak)
	if bonus == 0 {
		return nil, nil
	}
	desc := fmt.Sprintf("Reached a %d-day streak", newStreak)
	return s.AwardXP(ctx, userID, bonus, domain.SourceStreakMilestone, desc)
}

// CheckDailyBonus awards the all-scheduled-habits-done bonus at most once
// per day key. Idempotency comes from scanning the bounded history for an
// entry stamped with the same day; a duplicate attempt reports
// AlreadyAwarded instead of failing.
func (s *RewardService) CheckDailyBonus(ctx context.Context, userID string, completedToday, totalScheduledToday, bestStreak int, dayKey string) (*DailyBonusResult, error) {
	if totalScheduledToday == 0 || completedToday < totalScheduledToday {
		return &DailyBonusResult{}, nil
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.HasDailyBonusFor(dayKey) {
		return &DailyBonusResult{AlreadyAwarded: true}, nil
	}

	amount := domain.DailyBonusAmount(bestStreak)
	award, err := s.AwardXP(ctx, userID, amount, domain.SourceDailyBonus, domain.DailyBonusDescription(dayKey))
	if err != nil {
		return nil, err
	}
	return &DailyBonusResult{Awarded: true, Amount: award.Amount, RankedUp: award.RankedUp}, nil
}

type DailyBonusResult struct {
	Awarded        bool `json:"awarded"`
	AlreadyAwarded bool `json:"already_awarded"`
	Amount         int  `json:"amount,omitempty"`
	RankedUp       bool `json:"ranked_up,omitempty"`
}

// Award, Reverse and ApplyDailyBonus are the narrow posting surface the
// reward worker drives, so the asynchronous path reuses the same
// apply/idempotency cycle as the synchronous one.

func (s *RewardService) Award(ctx context.Context, userID string, amount int, source domain.RewardSource, description string) (bool, error) {
	result, err := s.AwardXP(ctx, userID, amount, source, description)
	if err != nil {
		return false, err
	}
	return result.RankedUp, nil
}

func (s *RewardService) Reverse(ctx context.Context, userID string, amount int, source domain.RewardSource, description string) error {
	_, err := s.RemoveXP(ctx, userID, amount, source, description)
	return err
}

func (s *RewardService) ApplyDailyBonus(ctx context.Context, userID, dayKey string, completedToday, scheduledToday, bestStreak int) (bool, error) {
	result, err := s.CheckDailyBonus(ctx, userID, completedToday, scheduledToday, bestStreak, dayKey)
	if err != nil {
		return false, err
	}
	return result.Awarded, nil
}

// GetState returns the derived reward state plus recent history.
func (s *RewardService) GetState(ctx context.Context, userID string) (domain.UserRewardState, []domain.RewardLedgerEntry, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return domain.UserRewardState{}, nil, err
	}
	return profile.State(), profile.History, nil
}
