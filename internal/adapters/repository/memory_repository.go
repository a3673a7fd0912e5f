package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/aydinnasibli/habittrackerkindof-sub000/internal/core/domain"
)

// In-memory repositories backing tests and local development. The mutex
// plus the same conditional-write checks as the Postgres adapters keep the
// CAS semantics observable without a database.

type InMemoryHabitRepository struct {
	store map[string]*domain.Habit

	mu sync.RWMutex
}

func NewInMemoryHabitRepository() *InMemoryHabitRepository {
	return &InMemoryHabitRepository{
		store: make(map[string]*domain.Habit),
	}
}

func cloneHabit(h *domain.Habit) *domain.Habit {
	clone := *h
	clone.Weekdays = append([]int(nil), h.Weekdays...)
	clone.Completions = append([]domain.CompletionEvent(nil), h.Completions...)
	return &clone
}

func (r *InMemoryHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[habit.ID] = cloneHabit(habit)
	return nil
}

func (r *InMemoryHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.store[id]
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	return cloneHabit(habit), nil
}

func (r *InMemoryHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var habits []*domain.Habit
	for _, h := range r.store {
		if h.UserID == userID {
			habits = append(habits, cloneHabit(h))
		}
	}

	sort.Slice(habits, func(i, j int) bool {
		return habits[i].CreatedAt.Before(habits[j].CreatedAt)
	})

	return habits, nil
}

func (r *InMemoryHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.store[habit.ID]
	if !ok {
		return domain.ErrHabitNotFound
	}
	if existing.Version != habit.Version {
		return domain.ErrHabitConflict
	}

	habit.Version++
	r.store[habit.ID] = cloneHabit(habit)
	return nil
}

func (r *InMemoryHabitRepository) AppendCompletion(ctx context.Context, habitID string, event domain.CompletionEvent, newStreak int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	habit, ok := r.store[habitID]
	if !ok {
		return domain.ErrHabitNotFound
	}
	for _, c := range habit.Completions {
		if c.DayKey == event.DayKey {
			return domain.ErrAlreadyCompleted
		}
	}

	habit.Completions = append(habit.Completions, event)
	habit.Streak = newStreak
	habit.UpdatedAt = event.CompletedAt
	habit.Version++
	return nil
}

func (r *InMemoryHabitRepository) RemoveCompletion(ctx context.Context, habitID string, dayKey string, newStreak int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	habit, ok := r.store[habitID]
	if !ok {
		return domain.ErrHabitNotFound
	}

	found := false
	kept := habit.Completions[:0]
	for _, c := range habit.Completions {
		if c.DayKey == dayKey && !found {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return domain.ErrNotCompletedToday
	}

	habit.Completions = kept
	habit.Streak = newStreak
	habit.Version++
	return nil
}

func (r *InMemoryHabitRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[id]; !ok {
		return domain.ErrHabitNotFound
	}

	delete(r.store, id)
	return nil
}

type InMemoryChainRepository struct {
	defs     map[string]*domain.ChainDefinition
	sessions map[string]*domain.ChainSession

	mu sync.RWMutex
}

func NewInMemoryChainRepository() *InMemoryChainRepository {
	return &InMemoryChainRepository{
		defs:     make(map[string]*domain.ChainDefinition),
		sessions: make(map[string]*domain.ChainSession),
	}
}

func cloneSession(s *domain.ChainSession) *domain.ChainSession {
	clone := *s
	clone.Habits = append([]domain.HabitStepState(nil), s.Habits...)
	return &clone
}

func (r *InMemoryChainRepository) CreateDefinition(ctx context.Context, def *domain.ChainDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *def
	clone.Steps = append([]domain.ChainStep(nil), def.Steps...)
	r.defs[def.ID] = &clone
	return nil
}

func (r *InMemoryChainRepository) GetDefinition(ctx context.Context, id string) (*domain.ChainDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[id]
	if !ok {
		return nil, domain.ErrChainNotFound
	}
	clone := *def
	clone.Steps = append([]domain.ChainStep(nil), def.Steps...)
	return &clone, nil
}

func (r *InMemoryChainRepository) ListDefinitions(ctx context.Context, userID string) ([]*domain.ChainDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var defs []*domain.ChainDefinition
	for _, def := range r.defs {
		if def.UserID == userID {
			clone := *def
			clone.Steps = append([]domain.ChainStep(nil), def.Steps...)
			defs = append(defs, &clone)
		}
	}

	sort.Slice(defs, func(i, j int) bool {
		return defs[i].CreatedAt.Before(defs[j].CreatedAt)
	})

	return defs, nil
}

func (r *InMemoryChainRepository) CreateSession(ctx context.Context, session *domain.ChainSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.UserID == session.UserID && s.Status == domain.SessionActive {
			return domain.ErrSessionConflict
		}
	}

	r.sessions[session.ID] = cloneSession(session)
	return nil
}

func (r *InMemoryChainRepository) GetSession(ctx context.Context, id string) (*domain.ChainSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (r *InMemoryChainRepository) GetActiveSession(ctx context.Context, userID string) (*domain.ChainSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.UserID == userID && s.Status == domain.SessionActive {
			return cloneSession(s), nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (r *InMemoryChainRepository) UpdateSession(ctx context.Context, session *domain.ChainSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.sessions[session.ID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if existing.Version != session.Version {
		return domain.ErrSessionConflict
	}

	session.Version++
	r.sessions[session.ID] = cloneSession(session)
	return nil
}

func (r *InMemoryChainRepository) ListPastSessions(ctx context.Context, userID string, limit int) ([]*domain.ChainSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sessions []*domain.ChainSession
	for _, s := range r.sessions {
		if s.UserID == userID && s.Status != domain.SessionActive {
			sessions = append(sessions, cloneSession(s))
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})

	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

type InMemoryRewardRepository struct {
	store map[string]*domain.RewardProfile

	mu sync.RWMutex
}

func NewInMemoryRewardRepository() *InMemoryRewardRepository {
	return &InMemoryRewardRepository{
		store: make(map[string]*domain.RewardProfile),
	}
}

func cloneProfile(p *domain.RewardProfile) *domain.RewardProfile {
	clone := *p
	clone.History = append([]domain.RewardLedgerEntry(nil), p.History...)
	return &clone
}

func (r *InMemoryRewardRepository) GetProfile(ctx context.Context, userID string) (*domain.RewardProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.store[userID]
	if !ok {
		profile = domain.NewRewardProfile(userID)
		r.store[userID] = profile
	}
	return cloneProfile(profile), nil
}

func (r *InMemoryRewardRepository) SaveProfile(ctx context.Context, profile *domain.RewardProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.store[profile.UserID]
	if !ok {
		return domain.ErrRewardConflict
	}
	if existing.Version != profile.Version {
		return domain.ErrRewardConflict
	}

	profile.Version++
	r.store[profile.UserID] = cloneProfile(profile)
	return nil
}

type InMemoryUserRepository struct {
	store map[string]*domain.User

	mu sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		store: make(map[string]*domain.User),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.store {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
	}

	clone := *user
	r.store[user.ID] = &clone
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.store {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.store[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}
