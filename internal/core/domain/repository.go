package domain

import (
	"context"
	"errors"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrHabitConflict = errors.New("habit version conflict")
)

type HabitRepository interface {
	// Create persists a new habit definition.
	Create(ctx context.Context, habit *Habit) error

	// GetByID retrieves a habit with its full completion set.
	GetByID(ctx context.Context, id string) (*Habit, error)

	// ListByUserID retrieves all habits for a user, completions included.
	ListByUserID(ctx context.Context, userID string) ([]*Habit, error)

	// Update modifies habit metadata under optimistic locking (version
	// check); returns ErrHabitConflict on a stale version.
	Update(ctx context.Context, habit *Habit) error

	// AppendCompletion atomically records a completion for one day and the
	// recomputed streak. The write is conditional on no completion existing
	// for that day key; concurrent attempts for the same day must yield
	// exactly one success and ErrAlreadyCompleted for the rest.
	AppendCompletion(ctx context.Context, habitID string, event CompletionEvent, newStreak int) error

	// RemoveCompletion atomically deletes the completion for a day key and
	// stores the recomputed streak; ErrNotCompletedToday if absent.
	RemoveCompletion(ctx context.Context, habitID string, dayKey string, newStreak int) error

	// Delete permanently removes a habit and its completions.
	Delete(ctx context.Context, id string) error
}
