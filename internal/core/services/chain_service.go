package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/workers"
)

const defaultPastSessionLimit = 20

type ChainService struct {
	chains   domain.ChainRepository
	habits   domain.HabitRepository
	habitSvc *HabitService
	worker   *workers.RewardWorker
}

func NewChainService(chains domain.ChainRepository, habits domain.HabitRepository, habitSvc *HabitService, worker *workers.RewardWorker) *ChainService {
	return &ChainService{
		chains:   chains,
		habits:   habits,
		habitSvc: habitSvc,
		worker:   worker,
	}
}

type CreateChainInput struct {
	UserID string
	Name   string
	Steps  []domain.ChainStep
}

// CreateDefinition validates that every step references a habit the user
// owns before persisting the definition.
func (s *ChainService) CreateDefinition(ctx context.Context, input CreateChainInput) (*domain.ChainDefinition, error) {
	def, err := domain.NewChainDefinition(input.UserID, input.Name, input.Steps)
	if err != nil {
		return nil, err
	}

	for _, step := range def.Steps {
		habit, err := s.habits.GetByID(ctx, step.HabitID)
		if err != nil {
			return nil, err
		}
		if habit.UserID != input.UserID {
			return nil, domain.ErrUnauthorized
		}
	}

	if err := s.chains.CreateDefinition(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

func (s *ChainService) ListDefinitions(ctx context.Context, userID string) ([]*domain.ChainDefinition, error) {
	return s.chains.ListDefinitions(ctx, userID)
}

// StartChain creates a session from a definition. The repository insert is
// conditional on no active session existing for the user; a second start
// while one is running fails with ErrSessionConflict.
func (s *ChainService) StartChain(ctx context.Context, chainID, userID string) (*domain.ChainSession, error) {
	def, err := s.chains.GetDefinition(ctx, chainID)
	if err != nil {
		return nil, err
	}
	if def.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	session := domain.NewChainSession(def, time.Now().UTC())
	if err := s.chains.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChainService) GetActiveSession(ctx context.Context, userID string) (*domain.ChainSession, error) {
	return s.chains.GetActiveSession(ctx, userID)
}

func (s *ChainService) GetPastSessions(ctx context.Context, userID string, limit int) ([]*domain.ChainSession, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultPastSessionLimit
	}
	return s.chains.ListPastSessions(ctx, userID, limit)
}

type StepResult struct {
	Session          *domain.ChainSession `json:"session"`
	Finished         bool                 `json:"finished"`
	HabitStreak      int                  `json:"habit_streak,omitempty"`
	HabitXP          int                  `json:"habit_xp,omitempty"`
	ChainBonusXP     int                  `json:"chain_bonus_xp,omitempty"`
	AlreadyDoneToday bool                 `json:"already_done_today,omitempty"`
}

// CompleteCurrentStep records the underlying habit completion first, then
// persists the step transition as one conditional write. The ordering makes a
// failed attempt retryable: until the session write lands the step has not
// advanced, and a habit completion left behind by a half-finished attempt
// surfaces as AlreadyDoneToday on the retry instead of closing the next step.
func (s *ChainService) CompleteCurrentStep(ctx context.Context, sessionID, userID, notes string) (*StepResult, error) {
	session, err := s.ownedActiveSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	step, err := session.CurrentStep()
	if err != nil {
		return nil, err
	}

	result := &StepResult{}

	completion, err := s.habitSvc.Complete(ctx, step.HabitID, userID, notes)
	switch {
	case err == nil:
		result.HabitStreak = completion.NewStreak
		result.HabitXP = completion.XPAwarded
	case errors.Is(err, domain.ErrAlreadyCompleted):
		result.AlreadyDoneToday = true
	default:
		return nil, err
	}

	finished, err := session.CompleteCurrent(time.Now().UTC(), notes)
	if err != nil {
		return nil, err
	}

	if err := s.chains.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	result.Session = session
	result.Finished = finished

	s.maybeAwardChainBonus(session, result)
	return result, nil
}

// SkipCurrentStep mirrors CompleteCurrentStep without touching the habit
// ledger or awarding per-habit XP.
func (s *ChainService) SkipCurrentStep(ctx context.Context, sessionID, userID, reason string) (*StepResult, error) {
	session, err := s.ownedActiveSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	finished, err := session.SkipCurrent(time.Now().UTC(), reason)
	if err != nil {
		return nil, err
	}

	if err := s.chains.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	result := &StepResult{Session: session, Finished: finished}
	s.maybeAwardChainBonus(session, result)
	return result, nil
}

func (s *ChainService) maybeAwardChainBonus(session *domain.ChainSession, result *StepResult) {
	if !result.Finished || session.BonusXP <= 0 {
		return
	}
	result.ChainBonusXP = session.BonusXP
	s.worker.Enqueue(workers.Job{
		UserID: session.UserID,
		Kind:   workers.JobAward,
		Amount: session.BonusXP,
		Source: domain.SourceChainCompletion,
		Description: fmt.Sprintf("Finished chain %q (%d/%d steps)",
			session.ChainName, session.CompletedSteps(), len(session.Habits)),
	})
}

func (s *ChainService) Pause(ctx context.Context, sessionID, userID string) (*domain.ChainSession, error) {
	return s.transition(ctx, sessionID, userID, func(session *domain.ChainSession) error {
		return session.Pause(time.Now().UTC())
	})
}

func (s *ChainService) Resume(ctx context.Context, sessionID, userID string) (*domain.ChainSession, error) {
	return s.transition(ctx, sessionID, userID, func(session *domain.ChainSession) error {
		return session.Resume(time.Now().UTC())
	})
}

func (s *ChainService) StartBreak(ctx context.Context, sessionID, userID string, minutes int) (*domain.ChainSession, error) {
	return s.transition(ctx, sessionID, userID, func(session *domain.ChainSession) error {
		return session.StartBreak(time.Now().UTC(), minutes)
	})
}

func (s *ChainService) EndBreak(ctx context.Context, sessionID, userID string) (*domain.ChainSession, error) {
	return s.transition(ctx, sessionID, userID, func(session *domain.ChainSession) error {
		return session.EndBreak(time.Now().UTC())
	})
}

// Abandon is immediate and terminal; no compensating reward is issued for
// steps already completed in the session.
func (s *ChainService) Abandon(ctx context.Context, sessionID, userID string) (*domain.ChainSession, error) {
	return s.transition(ctx, sessionID, userID, func(session *domain.ChainSession) error {
		return session.Abandon(time.Now().UTC())
	})
}

func (s *ChainService) transition(ctx context.Context, sessionID, userID string, apply func(*domain.ChainSession) error) (*domain.ChainSession, error) {
	session, err := s.ownedActiveSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := apply(session); err != nil {
		return nil, err
	}
	if err := s.chains.UpdateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ChainService) ownedActiveSession(ctx context.Context, sessionID, userID string) (*domain.ChainSession, error) {
	session, err := s.chains.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return session, nil
}
