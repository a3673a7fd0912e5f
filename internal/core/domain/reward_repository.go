package domain

import (
	"context"
	"errors"
)

var ErrRewardConflict = errors.New("reward profile version conflict")

type RewardRepository interface {
	// GetProfile retrieves the user's reward profile, creating an empty one
	// on first access so defaults are populated at creation time, not on
	// every read.
	GetProfile(ctx context.Context, userID string) (*RewardProfile, error)

	// SaveProfile persists the profile (XP total + bounded history) under
	// optimistic locking; ErrRewardConflict on a stale version. Callers
	// retry the full read-apply-save cycle.
	SaveProfile(ctx context.Context, profile *RewardProfile) error
}
