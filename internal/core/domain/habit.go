package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrHabitTitleEmpty    = errors.New("habit title cannot be empty")
	ErrHabitTitleTooLong  = errors.New("habit title is too long (max 100 chars)")
	ErrHabitInvalidUserID = errors.New("invalid user id")
	ErrInvalidPriority    = errors.New("invalid priority (must be high, medium, or low)")
	ErrHabitArchived      = errors.New("cannot modify an archived habit")
)

const MaxTitleLen = 100

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

func ParsePriority(input string) (Priority, error) {
	p := Priority(strings.TrimSpace(strings.ToLower(input)))
	if p == "" {
		return PriorityMedium, nil
	}
	if !p.IsValid() {
		return "", ErrInvalidPriority
	}
	return p, nil
}

type HabitStatus string

const (
	HabitStatusActive   HabitStatus = "active"
	HabitStatusPaused   HabitStatus = "paused"
	HabitStatusArchived HabitStatus = "archived"
)

// CompletionEvent is one day-bucketed completion. A habit holds at most one
// event per day key.
type CompletionEvent struct {
	DayKey      string    `json:"day_key" db:"day_key"`
	CompletedAt time.Time `json:"completed_at" db:"completed_at"`
	Notes       string    `json:"notes,omitempty" db:"notes"`
}

// Habit is the completion-ledger aggregate. Streak is a derived cache of
// ComputeStreak over Completions and is refreshed on every mutation.
type Habit struct {
	ID          string            `json:"id" db:"id"`
	UserID      string            `json:"user_id" db:"user_id"`
	Title       string            `json:"title" db:"title"`
	Schedule    ScheduleRule      `json:"schedule" db:"schedule"`
	Weekdays    []int             `json:"weekdays,omitempty"`
	Priority    Priority          `json:"priority" db:"priority"`
	Timezone    string            `json:"timezone" db:"timezone"`
	Status      HabitStatus       `json:"status" db:"status"`
	Streak      int               `json:"streak" db:"streak"`
	Completions []CompletionEvent `json:"completions"`

	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func NewHabit(userID, title, schedule, priority, timezone string, weekdays []int) (*Habit, error) {
	if userID == "" {
		return nil, ErrHabitInvalidUserID
	}

	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return nil, ErrHabitTitleEmpty
	}
	if len(trimmed) > MaxTitleLen {
		return nil, ErrHabitTitleTooLong
	}

	rule, err := ParseScheduleRule(schedule)
	if err != nil {
		return nil, err
	}
	if err := validateWeekdays(weekdays); err != nil {
		return nil, err
	}
	if rule == ScheduleSpecificDays && len(weekdays) == 0 {
		return nil, ErrInvalidWeekdays
	}

	prio, err := ParsePriority(priority)
	if err != nil {
		return nil, err
	}

	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := loadLocation(timezone); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Habit{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       trimmed,
		Schedule:    rule,
		Weekdays:    weekdays,
		Priority:    prio,
		Timezone:    timezone,
		Status:      HabitStatusActive,
		Streak:      0,
		Completions: []CompletionEvent{},
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CompletedDays returns the day-key set of all completions.
func (h *Habit) CompletedDays() map[string]struct{} {
	days := make(map[string]struct{}, len(h.Completions))
	for _, c := range h.Completions {
		days[c.DayKey] = struct{}{}
	}
	return days
}

// CompletionFor returns the event for a day key, if any.
func (h *Habit) CompletionFor(dayKey string) (CompletionEvent, bool) {
	for _, c := range h.Completions {
		if c.DayKey == dayKey {
			return c, true
		}
	}
	return CompletionEvent{}, false
}

// Complete records a completion for the instant's calendar day and refreshes
// the streak cache. The in-memory duplicate check is the fast path; the
// repository's conditional insert is the authoritative one.
func (h *Habit) Complete(now time.Time, notes string) (CompletionEvent, error) {
	if h.Status == HabitStatusArchived {
		return CompletionEvent{}, ErrHabitArchived
	}

	today, err := DayKey(now, h.Timezone)
	if err != nil {
		return CompletionEvent{}, err
	}
	if _, exists := h.CompletionFor(today); exists {
		return CompletionEvent{}, ErrAlreadyCompleted
	}

	event := CompletionEvent{
		DayKey:      today,
		CompletedAt: now.UTC(),
		Notes:       notes,
	}
	h.Completions = append(h.Completions, event)

	streak, err := ComputeStreak(h.CompletedDays(), h.Schedule, h.Weekdays, h.Timezone, now)
	if err != nil {
		return CompletionEvent{}, err
	}
	h.Streak = streak
	h.UpdatedAt = now.UTC()

	return event, nil
}

// Skip removes today's completion and refreshes the streak cache.
func (h *Habit) Skip(now time.Time) (CompletionEvent, error) {
	if h.Status == HabitStatusArchived {
		return CompletionEvent{}, ErrHabitArchived
	}

	today, err := DayKey(now, h.Timezone)
	if err != nil {
		return CompletionEvent{}, err
	}

	removed, found := CompletionEvent{}, false
	kept := make([]CompletionEvent, 0, len(h.Completions))
	for _, c := range h.Completions {
		if c.DayKey == today && !found {
			removed, found = c, true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return CompletionEvent{}, ErrNotCompletedToday
	}
	h.Completions = kept

	streak, err := ComputeStreak(h.CompletedDays(), h.Schedule, h.Weekdays, h.Timezone, now)
	if err != nil {
		return CompletionEvent{}, err
	}
	h.Streak = streak
	h.UpdatedAt = now.UTC()

	return removed, nil
}

func (h *Habit) Archive() {
	if h.Status == HabitStatusArchived {
		return
	}
	h.Status = HabitStatusArchived
	h.UpdatedAt = time.Now().UTC()
}

// XPValue is the per-completion award for this habit's priority tier.
func (h *Habit) XPValue() int {
	switch h.Priority {
	case PriorityHigh:
		return 30
	case PriorityLow:
		return 10
	default:
		return 20
	}
}
