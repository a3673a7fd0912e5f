package domain

import "time"

// maxStreakLookback bounds the backward walk so a corrupted completion set
// can never turn a streak recompute into an unbounded scan.
const maxStreakLookback = 365

// ComputeStreak counts consecutive schedule-eligible days with a completion,
// ending at today or yesterday (today preferred). Days the habit is not
// scheduled for are skipped without breaking the chain; a missing scheduled
// day stops the walk.
func ComputeStreak(completed map[string]struct{}, rule ScheduleRule, weekdays []int, timezone string, now time.Time) (int, error) {
	today, err := DayKey(now, timezone)
	if err != nil {
		return 0, err
	}
	todayWeekday, err := WeekdayOf(now, timezone)
	if err != nil {
		return 0, err
	}

	day := today
	weekday := todayWeekday
	if _, ok := completed[today]; !ok {
		yesterday, wd, err := PreviousDay(today, timezone)
		if err != nil {
			return 0, err
		}
		if _, ok := completed[yesterday]; !ok {
			return 0, nil
		}
		day, weekday = yesterday, wd
	}

	streak := 0
	for i := 0; i < maxStreakLookback; i++ {
		// Unscheduled days are pure skips: a completion logged on one
		// neither extends nor breaks the chain.
		if rule.IsScheduledOn(weekday, weekdays) {
			if _, ok := completed[day]; !ok {
				break
			}
			streak++
		}

		day, weekday, err = PreviousDay(day, timezone)
		if err != nil {
			return 0, err
		}
	}

	return streak, nil
}
