// Package srs implements the spaced-repetition schedule used for word reviews.
//
// The schedule is a simplified SM-2: the first two successful reviews use fixed
// intervals of 1 and 6 days, later ones grow the previous interval by a fixed
// GrowthFactor. The ease factor is still tracked with the SM-2 formula.
package srs

import (
	"math"
	"sort"
	"time"

	"lexis/internal/domain"
)

const (
	// PassingScore is the lowest rating that counts as successful recall
	PassingScore = 3
	// MaxScore is the rating of an instant perfect recall
	MaxScore = 5
	// GrowthFactor multiplies the interval from the third successful review on
	GrowthFactor = 1.5

	firstInterval  = 1
	secondInterval = 6
	lapseInterval  = 1
)

// ValidRating reports whether rating is within 0..5
func ValidRating(rating int) bool {
	return rating >= 0 && rating <= MaxScore
}

// NewProgress returns the state of a word the learner has just met. It is due immediately.
func NewProgress(userID, wordID int64, now time.Time) domain.WordProgress {
	return domain.WordProgress{
		UserID:       userID,
		WordID:       wordID,
		EaseFactor:   domain.DefaultEaseFactor,
		NextReviewAt: now,
		CreatedAt:    now,
	}
}

// Schedule applies one review to the progress and returns the new state.
// review.ReviewedAt is the moment of the review and review.Score the rating;
// the rating must already be validated with ValidRating.
func Schedule(p domain.WordProgress, review domain.Review) domain.WordProgress {
	now := review.ReviewedAt
	rating := review.Score

	history := make([]domain.Review, len(p.History), len(p.History)+1)
	copy(history, p.History)
	p.History = append(history, review)

	if rating < PassingScore {
		p.Repetitions = 0
		p.Interval = lapseInterval
	} else {
		p.Interval = nextInterval(p.Repetitions, p.Interval)
		p.Repetitions++
	}

	p.EaseFactor = NextEaseFactor(p.EaseFactor, rating)

	reviewedAt := now
	p.LastReviewedAt = &reviewedAt
	p.NextReviewAt = now.AddDate(0, 0, p.Interval)

	return p
}

// nextInterval picks the interval after a successful review from the
// repetition count before that review.
func nextInterval(prevRepetitions, prevInterval int) int {
	switch prevRepetitions {
	case 0:
		return firstInterval
	case 1:
		return secondInterval
	default:
		return int(math.Round(float64(prevInterval) * GrowthFactor))
	}
}

// NextEaseFactor applies the SM-2 ease update, never going below MinEaseFactor
func NextEaseFactor(ef float64, rating int) float64 {
	q := float64(MaxScore - rating)
	ef += 0.1 - q*(0.08+q*0.02)
	return math.Max(domain.MinEaseFactor, ef)
}

// IsDue reports whether the word should be reviewed at now
func IsDue(p domain.WordProgress, now time.Time) bool {
	return !p.NextReviewAt.After(now)
}

// DueWords returns the due entries of progress, most overdue first.
// A limit of zero or less returns all of them.
func DueWords(progress []domain.WordProgress, now time.Time, limit int) []domain.WordProgress {
	var due []domain.WordProgress
	for _, p := range progress {
		if IsDue(p, now) {
			due = append(due, p)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].NextReviewAt.Before(due[j].NextReviewAt)
	})

	if limit > 0 && len(due) > limit {
		return due[:limit]
	}
	return due
}
