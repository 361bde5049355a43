package domain

import "time"

// LearnerStats holds aggregate progression of a learner
type LearnerStats struct {
	UserID         int64
	TotalXP        int
	Level          int
	CurrentStreak  int
	LongestStreak  int
	LastActivityAt *time.Time
	UpdatedAt      time.Time
}

// NewLearnerStats returns stats of a learner who has not reviewed anything yet
func NewLearnerStats(userID int64) *LearnerStats {
	return &LearnerStats{
		UserID: userID,
		Level:  1,
	}
}

// ProgressSummary aggregates a learner's word progress and review history
type ProgressSummary struct {
	WordsStarted   int
	WordsRecalled  int
	WordsMastered  int
	TotalReviews   int
	PerfectReviews int
	ModesUsed      int
}

// MasteredInterval is the interval in days from which a word counts as mastered
const MasteredInterval = 21

// Summarize builds a ProgressSummary from an in-memory progress set
func Summarize(progress []WordProgress) ProgressSummary {
	var s ProgressSummary
	modes := make(map[LearningMode]struct{})

	for _, p := range progress {
		s.WordsStarted++
		if p.Interval >= MasteredInterval {
			s.WordsMastered++
		}

		recalled := false
		for _, r := range p.History {
			s.TotalReviews++
			if r.Score == 5 {
				s.PerfectReviews++
			}
			if r.Score >= 3 {
				recalled = true
			}
			if r.Mode != "" {
				modes[r.Mode] = struct{}{}
			}
		}
		if recalled {
			s.WordsRecalled++
		}
	}

	s.ModesUsed = len(modes)
	return s
}
