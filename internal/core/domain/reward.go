package domain

import (
	"time"
)

// RewardSource tags where a ledger entry came from.
type RewardSource string

const (
	SourceHabitCompletion RewardSource = "habit_completion"
	SourceChainCompletion RewardSource = "chain_completion"
	SourceStreakMilestone RewardSource = "streak_milestone"
	SourceDailyBonus      RewardSource = "daily_bonus"
)

// MaxRewardHistory bounds the ledger ring buffer; the oldest entry is
// evicted when full.
const MaxRewardHistory = 50

const (
	dailyBonusBase      = 20
	dailyBonusPerStreak = 2
	dailyBonusCap       = 100
)

// RewardLedgerEntry is one signed XP movement. Entries are append-only apart
// from ring eviction.
type RewardLedgerEntry struct {
	Timestamp   time.Time    `json:"timestamp"`
	Amount      int          `json:"amount"`
	Source      RewardSource `json:"source"`
	Description string       `json:"description"`
}

// Rank is a pure function of the XP total; it is never stored independently.
type Rank struct {
	Title           string  `json:"title"`
	Level           int     `json:"level"`
	ProgressPercent float64 `json:"progress_percent"`
}

type rankTier struct {
	title string
	minXP int
	maxXP int // -1 means unbounded
}

// Static ordered tier table. Each tier covers [minXP, maxXP).
var rankTiers = []rankTier{
	{"Novice", 0, 100},
	{"Beginner", 100, 250},
	{"Apprentice", 250, 500},
	{"Adept", 500, 1000},
	{"Expert", 1000, 2000},
	{"Master", 2000, 3500},
	{"Grandmaster", 3500, 5000},
	{"Legend", 5000, -1},
}

// CalculateRank maps an XP total onto the tier table. Progress is the
// percentage through the current tier's range, 100 for the unbounded top
// tier.
func CalculateRank(xpTotal int) Rank {
	if xpTotal < 0 {
		xpTotal = 0
	}
	for i, t := range rankTiers {
		if t.maxXP < 0 || xpTotal < t.maxXP {
			progress := 100.0
			if t.maxXP > 0 {
				progress = float64(xpTotal-t.minXP) / float64(t.maxXP-t.minXP) * 100
			}
			return Rank{Title: t.title, Level: i + 1, ProgressPercent: progress}
		}
	}
	last := rankTiers[len(rankTiers)-1]
	return Rank{Title: last.title, Level: len(rankTiers), ProgressPercent: 100}
}

// streakMilestones maps exact streak lengths to their one-off bonus.
var streakMilestones = map[int]int{
	7:   50,
	14:  100,
	30:  250,
	60:  500,
	100: 1000,
	365: 5000,
}

// MilestoneBonus returns the bonus for an exact milestone streak, or 0.
func MilestoneBonus(streak int) int {
	return streakMilestones[streak]
}

// DailyBonusAmount scales the all-habits-done bonus with the longest current
// streak, capped so old streaks do not dominate the economy.
func DailyBonusAmount(streak int) int {
	amount := dailyBonusBase + dailyBonusPerStreak*streak
	if amount > dailyBonusCap {
		return dailyBonusCap
	}
	return amount
}

// RewardProfile is the per-user reward aggregate: the XP total plus the
// bounded entry history. Rank fields are always derived via CalculateRank.
type RewardProfile struct {
	UserID  string              `json:"user_id" db:"user_id"`
	XPTotal int                 `json:"xp_total" db:"xp_total"`
	History []RewardLedgerEntry `json:"history"`

	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func NewRewardProfile(userID string) *RewardProfile {
	now := time.Now().UTC()
	return &RewardProfile{
		UserID:    userID,
		XPTotal:   0,
		History:   []RewardLedgerEntry{},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply adds a signed entry, floors the total at zero, and evicts the oldest
// history entry when the ring is full. Returns true if the rank level rose.
func (p *RewardProfile) Apply(entry RewardLedgerEntry) (rankedUp bool) {
	oldRank := CalculateRank(p.XPTotal)

	p.XPTotal += entry.Amount
	if p.XPTotal < 0 {
		p.XPTotal = 0
	}

	p.History = append(p.History, entry)
	if len(p.History) > MaxRewardHistory {
		p.History = p.History[len(p.History)-MaxRewardHistory:]
	}
	p.UpdatedAt = entry.Timestamp.UTC()

	return CalculateRank(p.XPTotal).Level > oldRank.Level
}

// HasDailyBonusFor scans the bounded history for a daily_bonus entry stamped
// with the given day key. Idempotency relies on this scan, not a flag.
func (p *RewardProfile) HasDailyBonusFor(dayKey string) bool {
	for _, e := range p.History {
		if e.Source == SourceDailyBonus && e.Description == DailyBonusDescription(dayKey) {
			return true
		}
	}
	return false
}

// DailyBonusDescription builds the exact ledger description the history scan
// matches on; every daily-bonus write must go through it.
func DailyBonusDescription(dayKey string) string {
	return "All scheduled habits completed on " + dayKey
}

// UserRewardState is the read model exposed to callers.
type UserRewardState struct {
	XPTotal             int     `json:"xp_total"`
	RankTitle           string  `json:"rank_title"`
	RankLevel           int     `json:"rank_level"`
	RankProgressPercent float64 `json:"rank_progress_percent"`
}

func (p *RewardProfile) State() UserRewardState {
	rank := CalculateRank(p.XPTotal)
	return UserRewardState{
		XPTotal:             p.XPTotal,
		RankTitle:           rank.Title,
		RankLevel:           rank.Level,
		RankProgressPercent: rank.ProgressPercent,
	}
}
