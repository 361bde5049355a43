package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultEaseFactor is the ease factor of a word that was never reviewed
const DefaultEaseFactor = 2.5

// MinEaseFactor is the lowest ease factor a word can reach
const MinEaseFactor = 1.3

// Word represents a catalog word with its translation
type Word struct {
	ID          int64
	Term        string
	Translation string
	Difficulty  int
	CreatedAt   time.Time
}

// WordProgress is the scheduling state of one word for one learner
type WordProgress struct {
	UserID         int64
	WordID         int64
	EaseFactor     float64
	Interval       int
	Repetitions    int
	NextReviewAt   time.Time
	LastReviewedAt *time.Time
	History        []Review
	CreatedAt      time.Time
}

// Review is a single rating of a word
type Review struct {
	ID             uuid.UUID
	UserID         int64
	WordID         int64
	Score          int
	ResponseTimeMs int64
	Mode           LearningMode
	ReviewedAt     time.Time
}

// DueWord is a word waiting for review together with its progress
type DueWord struct {
	Word     Word
	Progress WordProgress
}
