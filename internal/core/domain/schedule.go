package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTimezone = errors.New("invalid timezone identifier")
	ErrInvalidSchedule = errors.New("invalid schedule rule")
	ErrInvalidWeekdays = errors.New("invalid weekdays (must be 0-6)")
)

// ScheduleRule is the recurrence rule of a habit. The weekday set only
// matters for ScheduleSpecificDays.
type ScheduleRule string

const (
	ScheduleDaily        ScheduleRule = "daily"
	ScheduleWeekdays     ScheduleRule = "weekdays"
	ScheduleWeekends     ScheduleRule = "weekends"
	ScheduleSpecificDays ScheduleRule = "specific_days"

	dayKeyLayout = "2006-01-02"
)

func (r ScheduleRule) IsValid() bool {
	switch r {
	case ScheduleDaily, ScheduleWeekdays, ScheduleWeekends, ScheduleSpecificDays:
		return true
	default:
		return false
	}
}

func ParseScheduleRule(input string) (ScheduleRule, error) {
	r := ScheduleRule(strings.TrimSpace(strings.ToLower(input)))
	if r == "" {
		return ScheduleDaily, nil
	}
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSchedule, input)
	}
	return r, nil
}

// IsScheduledOn reports whether a habit with this rule is due on the given
// weekday. Unrecognized rules fall back to a weekday-name match against the
// specific-day set, so a stored custom rule degrades instead of panicking.
func (r ScheduleRule) IsScheduledOn(day time.Weekday, weekdays []int) bool {
	switch r {
	case ScheduleDaily:
		return true
	case ScheduleWeekdays:
		return day != time.Saturday && day != time.Sunday
	case ScheduleWeekends:
		return day == time.Saturday || day == time.Sunday
	default:
		for _, d := range weekdays {
			if time.Weekday(d) == day {
				return true
			}
		}
		return false
	}
}

// DayKey converts an instant to the calendar-date bucket in the user's zone.
// Civil-date conversion via the zone database keeps DST transitions from
// shifting the key by a day.
func DayKey(t time.Time, timezone string) (string, error) {
	loc, err := loadLocation(timezone)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format(dayKeyLayout), nil
}

// WeekdayOf returns the weekday of an instant in the user's zone.
func WeekdayOf(t time.Time, timezone string) (time.Weekday, error) {
	loc, err := loadLocation(timezone)
	if err != nil {
		return 0, err
	}
	return t.In(loc).Weekday(), nil
}

// PreviousDay walks one civil day back from a day key. AddDate on a
// zone-anchored midnight handles 23h/25h DST days correctly.
func PreviousDay(key string, timezone string) (string, time.Weekday, error) {
	loc, err := loadLocation(timezone)
	if err != nil {
		return "", 0, err
	}
	t, err := time.ParseInLocation(dayKeyLayout, key, loc)
	if err != nil {
		return "", 0, fmt.Errorf("malformed day key %q: %w", key, err)
	}
	prev := t.AddDate(0, 0, -1)
	return prev.Format(dayKeyLayout), prev.Weekday(), nil
}

func loadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, timezone)
	}
	return loc, nil
}

func validateWeekdays(days []int) error {
	for _, d := range days {
		if d < 0 || d > 6 {
			return ErrInvalidWeekdays
		}
	}
	return nil
}
