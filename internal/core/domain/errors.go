package domain

import "errors"

var (
	ErrUnauthorized      = errors.New("caller does not own this resource")
	ErrTransientStore    = errors.New("transient store failure")
	ErrAlreadyCompleted  = errors.New("habit already completed for this day")
	ErrNotCompletedToday = errors.New("no completion recorded for this day")
	ErrSessionConflict   = errors.New("an active chain session already exists")
	ErrSessionNotActive  = errors.New("chain session is not active")
	ErrNotPaused         = errors.New("chain session is not paused")
	ErrNotOnBreak        = errors.New("chain session is not on break")
	ErrAlreadyPaused     = errors.New("chain session is already paused")
	ErrAlreadyOnBreak    = errors.New("chain session is already on break")
)

// Stable machine-readable codes for the response envelope. Handlers branch on
// sentinels via errors.Is and callers branch on these strings.
const (
	CodeValidation    = "validation"
	CodeAuth          = "auth"
	CodeNotFound      = "not_found"
	CodeConflict      = "conflict"
	CodeNotCompleted  = "not_completed"
	CodeNotPaused     = "not_paused"
	CodeTransient     = "transient_store"
	CodeRewardFailure = "reward_award_failure"
	CodeInternal      = "internal"
)

// CodeOf classifies any domain error into its envelope code.
func CodeOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return CodeAuth
	// Ownership failures read as absence: a caller can't distinguish
	// "not yours" from "not there".
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrHabitNotFound),
		errors.Is(err, ErrChainNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrUserNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAlreadyCompleted),
		errors.Is(err, ErrSessionConflict),
		errors.Is(err, ErrHabitConflict),
		errors.Is(err, ErrRewardConflict),
		errors.Is(err, ErrSessionNotActive),
		errors.Is(err, ErrHabitArchived),
		errors.Is(err, ErrAlreadyPaused),
		errors.Is(err, ErrAlreadyOnBreak):
		return CodeConflict
	case errors.Is(err, ErrNotCompletedToday):
		return CodeNotCompleted
	case errors.Is(err, ErrNotPaused), errors.Is(err, ErrNotOnBreak):
		return CodeNotPaused
	case errors.Is(err, ErrTransientStore):
		return CodeTransient
	case errors.Is(err, ErrInvalidTimezone),
		errors.Is(err, ErrInvalidSchedule),
		errors.Is(err, ErrInvalidPriority),
		errors.Is(err, ErrHabitTitleEmpty),
		errors.Is(err, ErrHabitTitleTooLong),
		errors.Is(err, ErrHabitInvalidUserID),
		errors.Is(err, ErrInvalidWeekdays),
		errors.Is(err, ErrChainNoSteps),
		errors.Is(err, ErrChainNameEmpty),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrPasswordTooShort):
		return CodeValidation
	default:
		return CodeInternal
	}
}
