package domain

import "time"

// Badge is a catalog achievement unlocked by a predicate over learner state
type Badge struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Category    string
	Predicate   string
}

// UserBadge records that a learner earned a badge
type UserBadge struct {
	UserID   int64
	BadgeID  string
	EarnedAt time.Time
}

// EarnedBadge is a granted badge joined with its catalog entry
type EarnedBadge struct {
	Badge    Badge
	EarnedAt time.Time
}
