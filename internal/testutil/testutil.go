package testutil

import (
	"time"

	"go.uber.org/zap"

	"lexis/internal/domain"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestUser creates a test user
func NewTestUser(userID int64, authorized bool) *domain.User {
	return &domain.User{
		UserID:     userID,
		Authorized: authorized,
		CreatedAt:  time.Now(),
	}
}

// NewTestWord creates a test catalog word
func NewTestWord(id int64, term, translation string, difficulty int) *domain.Word {
	return &domain.Word{
		ID:          id,
		Term:        term,
		Translation: translation,
		Difficulty:  difficulty,
		CreatedAt:   time.Now(),
	}
}

// NewTestStats creates stats of a learner with the given XP and level
func NewTestStats(userID int64, totalXP, level int) *domain.LearnerStats {
	stats := domain.NewLearnerStats(userID)
	stats.TotalXP = totalXP
	stats.Level = level
	return stats
}

// NewTestDay creates a test day
func NewTestDay(date time.Time, reviewCount int) domain.Day {
	return domain.Day{
		Date:        date,
		ReviewCount: reviewCount,
	}
}
