package badge

import (
	"time"

	"lexis/internal/domain"
)

// Snapshot is the learner state badge predicates are evaluated against.
// It must be built from state already updated by the current review.
type Snapshot struct {
	TotalXP        int
	Level          int
	CurrentStreak  int
	LongestStreak  int
	Summary        domain.ProgressSummary
	TotalModes     int
	Hour           int
	Weekday        int
	LastScore      int
	LastResponseMs int64
	LastMode       domain.LearningMode
}

// NewSnapshot builds a snapshot from updated stats, the progress summary and
// the review that triggered the evaluation. Hour and weekday are taken from the
// review time in loc.
func NewSnapshot(stats domain.LearnerStats, summary domain.ProgressSummary, review domain.Review, loc *time.Location) Snapshot {
	if loc == nil {
		loc = time.UTC
	}
	local := review.ReviewedAt.In(loc)

	return Snapshot{
		TotalXP:        stats.TotalXP,
		Level:          stats.Level,
		CurrentStreak:  stats.CurrentStreak,
		LongestStreak:  stats.LongestStreak,
		Summary:        summary,
		TotalModes:     len(domain.AllLearningModes()),
		Hour:           local.Hour(),
		Weekday:        int(local.Weekday()),
		LastScore:      review.Score,
		LastResponseMs: review.ResponseTimeMs,
		LastMode:       review.Mode,
	}
}

// vars exposes the snapshot as CEL activation variables
func (s Snapshot) vars() map[string]any {
	return map[string]any{
		"total_xp":         int64(s.TotalXP),
		"level":            int64(s.Level),
		"current_streak":   int64(s.CurrentStreak),
		"longest_streak":   int64(s.LongestStreak),
		"words_started":    int64(s.Summary.WordsStarted),
		"words_recalled":   int64(s.Summary.WordsRecalled),
		"words_mastered":   int64(s.Summary.WordsMastered),
		"total_reviews":    int64(s.Summary.TotalReviews),
		"perfect_reviews":  int64(s.Summary.PerfectReviews),
		"modes_used":       int64(s.Summary.ModesUsed),
		"total_modes":      int64(s.TotalModes),
		"hour":             int64(s.Hour),
		"weekday":          int64(s.Weekday),
		"last_score":       int64(s.LastScore),
		"last_response_ms": s.LastResponseMs,
		"last_mode":        string(s.LastMode),
	}
}
