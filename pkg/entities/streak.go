package entities

import (
	"time"
)

// Streak tracks a user's consecutive reading days and progression
type Streak struct {
	UserID           string
	CurrentStreak    int       // Consecutive calendar days with a reading session
	LongestStreak    int       // Highest streak ever reached, never below CurrentStreak
	LastReadDate     time.Time // Timestamp of the last qualifying session
	TotalReadMinutes int64     // Lifetime minutes read
	XP               int64     // Experience points, monotonically non-decreasing
	Level            int       // floor(XP/100) + 1
}

// Reward represents a granted streak milestone. Absence of a record
// is the "not yet claimed" state; once inserted it is immutable.
type Reward struct {
	ID           string
	UserID       string
	Type         string // e.g. "streak_7"
	XPReward     int64
	WalletReward int64
	EarnedAt     time.Time
	Claimed      bool // Always true once inserted
}

// Badge represents a one-time achievement, unique per (user, badge type)
type Badge struct {
	UserID    string
	BadgeType string
	EarnedAt  time.Time
}
