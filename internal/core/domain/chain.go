package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrChainNameEmpty  = errors.New("chain name cannot be empty")
	ErrChainNoSteps    = errors.New("chain must contain at least one step")
	ErrNoPendingSteps  = errors.New("no step is currently active")
	ErrChainNotFound   = errors.New("chain definition not found")
	ErrSessionNotFound = errors.New("chain session not found")
)

// ChainStep is one slot in a chain definition: which habit, and how long it
// is expected to take.
type ChainStep struct {
	HabitID                 string `json:"habit_id"`
	ExpectedDurationMinutes int    `json:"expected_duration_minutes"`
}

// ChainDefinition is the ordered habit list a session runs through. It is
// immutable once a session has started from it.
type ChainDefinition struct {
	ID        string      `json:"id" db:"id"`
	UserID    string      `json:"user_id" db:"user_id"`
	Name      string      `json:"name" db:"name"`
	Steps     []ChainStep `json:"steps"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

func NewChainDefinition(userID, name string, steps []ChainStep) (*ChainDefinition, error) {
	if userID == "" {
		return nil, ErrHabitInvalidUserID
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrChainNameEmpty
	}
	if len(steps) == 0 {
		return nil, ErrChainNoSteps
	}
	for i := range steps {
		if steps[i].ExpectedDurationMinutes < 0 {
			steps[i].ExpectedDurationMinutes = 0
		}
	}
	return &ChainDefinition{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      trimmed,
		Steps:     steps,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepActive    StepStatus = "active"
	StepCompleted StepStatus = "completed"
	StepSkipped   StepStatus = "skipped"
)

type HabitStepState struct {
	HabitID     string     `json:"habit_id"`
	Status      StepStatus `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// Chain-completion bonus tiers, applied at finalization on the fraction of
// steps that ended completed.
const (
	fullCompletionBase    = 100
	fullCompletionPerStep = 15
	highCompletionBase    = 60
	highCompletionPerStep = 10
	halfCompletionBase    = 30
	halfCompletionPerStep = 5
)

// ChainSession is a run through a chain definition. While the session is
// active exactly one step is active, everything before the index is
// completed or skipped, and everything after is pending.
type ChainSession struct {
	ID           string           `json:"id" db:"id"`
	UserID       string           `json:"user_id" db:"user_id"`
	ChainID      string           `json:"chain_id" db:"chain_id"`
	ChainName    string           `json:"chain_name" db:"chain_name"`
	Status       SessionStatus    `json:"status" db:"status"`
	CurrentIndex int              `json:"current_index" db:"current_index"`
	Habits       []HabitStepState `json:"habits"`

	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	PauseAccumulatedMinutes int        `json:"pause_accumulated_minutes" db:"pause_accumulated_minutes"`
	PausedAt                *time.Time `json:"paused_at,omitempty" db:"paused_at"`
	OnBreak                 bool       `json:"on_break" db:"on_break"`
	BreakStartedAt          *time.Time `json:"break_started_at,omitempty" db:"break_started_at"`
	BreakDurationHint       int        `json:"break_duration_hint_minutes,omitempty" db:"break_duration_hint"`

	// Set by finalize. ActualDurationMinutes excludes paused/break time.
	ActualDurationMinutes int     `json:"actual_duration_minutes" db:"actual_duration_minutes"`
	CompletionRate        float64 `json:"completion_rate" db:"completion_rate"`
	BonusXP               int     `json:"bonus_xp" db:"bonus_xp"`

	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewChainSession starts a session from a definition: step 0 active, the
// rest pending. The single-active-session invariant is enforced by the
// repository on insert.
func NewChainSession(def *ChainDefinition, now time.Time) *ChainSession {
	steps := make([]HabitStepState, len(def.Steps))
	for i, s := range def.Steps {
		steps[i] = HabitStepState{HabitID: s.HabitID, Status: StepPending}
	}
	utc := now.UTC()
	if len(steps) > 0 {
		steps[0].Status = StepActive
		steps[0].StartedAt = &utc
	}
	return &ChainSession{
		ID:           uuid.NewString(),
		UserID:       def.UserID,
		ChainID:      def.ID,
		ChainName:    def.Name,
		Status:       SessionActive,
		CurrentIndex: 0,
		Habits:       steps,
		StartedAt:    utc,
		Version:      1,
		CreatedAt:    utc,
		UpdatedAt:    utc,
	}
}

func (s *ChainSession) CurrentStep() (*HabitStepState, error) {
	if s.Status != SessionActive {
		return nil, ErrSessionNotActive
	}
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Habits) {
		return nil, ErrNoPendingSteps
	}
	return &s.Habits[s.CurrentIndex], nil
}

// CompleteCurrent marks the active step completed and advances, finalizing
// the session if this was the last step. Returns whether the session
// finished.
func (s *ChainSession) CompleteCurrent(now time.Time, notes string) (finished bool, err error) {
	return s.closeCurrent(now, StepCompleted, notes)
}

// SkipCurrent marks the active step skipped and advances with the same
// finalize logic as CompleteCurrent.
func (s *ChainSession) SkipCurrent(now time.Time, reason string) (finished bool, err error) {
	return s.closeCurrent(now, StepSkipped, reason)
}

func (s *ChainSession) closeCurrent(now time.Time, outcome StepStatus, notes string) (bool, error) {
	step, err := s.CurrentStep()
	if err != nil {
		return false, err
	}

	utc := now.UTC()
	step.Status = outcome
	step.CompletedAt = &utc
	step.Notes = notes
	s.UpdatedAt = utc

	if s.CurrentIndex == len(s.Habits)-1 {
		s.finalize(utc)
		return true, nil
	}

	s.CurrentIndex++
	next := &s.Habits[s.CurrentIndex]
	next.Status = StepActive
	next.StartedAt = &utc
	return false, nil
}

func (s *ChainSession) finalize(now time.Time) {
	s.Status = SessionCompleted
	s.CompletedAt = &now

	elapsed := int(now.Sub(s.StartedAt).Minutes())
	s.ActualDurationMinutes = elapsed - s.PauseAccumulatedMinutes
	if s.ActualDurationMinutes < 0 {
		s.ActualDurationMinutes = 0
	}

	completed := s.CompletedSteps()
	s.CompletionRate = float64(completed) / float64(len(s.Habits))
	s.BonusXP = completionBonus(completed, len(s.Habits))
}

func (s *ChainSession) CompletedSteps() int {
	n := 0
	for _, st := range s.Habits {
		if st.Status == StepCompleted {
			n++
		}
	}
	return n
}

func completionBonus(completed, total int) int {
	if total == 0 {
		return 0
	}
	rate := float64(completed) / float64(total)
	switch {
	case rate >= 1.0:
		return fullCompletionBase + fullCompletionPerStep*completed
	case rate >= 0.8:
		return highCompletionBase + highCompletionPerStep*completed
	case rate >= 0.5:
		return halfCompletionBase + halfCompletionPerStep*completed
	default:
		return 0
	}
}

func (s *ChainSession) Pause(now time.Time) error {
	if s.Status != SessionActive {
		return ErrSessionNotActive
	}
	if s.PausedAt != nil {
		return ErrAlreadyPaused
	}
	utc := now.UTC()
	s.PausedAt = &utc
	s.UpdatedAt = utc
	return nil
}

func (s *ChainSession) Resume(now time.Time) error {
	if s.Status != SessionActive {
		return ErrSessionNotActive
	}
	if s.PausedAt == nil {
		return ErrNotPaused
	}
	utc := now.UTC()
	s.PauseAccumulatedMinutes += int(utc.Sub(*s.PausedAt).Minutes())
	s.PausedAt = nil
	s.UpdatedAt = utc
	return nil
}

// StartBreak is pause with an expected-duration hint; break time feeds the
// same accumulated pool.
func (s *ChainSession) StartBreak(now time.Time, durationHintMinutes int) error {
	if s.Status != SessionActive {
		return ErrSessionNotActive
	}
	if s.OnBreak {
		return ErrAlreadyOnBreak
	}
	utc := now.UTC()
	s.OnBreak = true
	s.BreakStartedAt = &utc
	s.BreakDurationHint = durationHintMinutes
	s.UpdatedAt = utc
	return nil
}

func (s *ChainSession) EndBreak(now time.Time) error {
	if s.Status != SessionActive {
		return ErrSessionNotActive
	}
	if !s.OnBreak || s.BreakStartedAt == nil {
		return ErrNotOnBreak
	}
	utc := now.UTC()
	s.PauseAccumulatedMinutes += int(utc.Sub(*s.BreakStartedAt).Minutes())
	s.OnBreak = false
	s.BreakStartedAt = nil
	s.BreakDurationHint = 0
	s.UpdatedAt = utc
	return nil
}

// Abandon is the terminal user-cancellable transition. No reward is issued.
func (s *ChainSession) Abandon(now time.Time) error {
	if s.Status != SessionActive {
		return ErrSessionNotActive
	}
	utc := now.UTC()
	s.Status = SessionAbandoned
	s.CompletedAt = &utc
	s.UpdatedAt = utc
	return nil
}
