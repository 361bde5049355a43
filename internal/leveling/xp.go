package leveling

import (
	"errors"
	"fmt"
	"math"

	"lexis/internal/domain"
)

var (
	// ErrInvalidRating is returned for a rating outside 0..5
	ErrInvalidRating = errors.New("rating must be between 0 and 5")
	// ErrInvalidMode is returned for an unknown learning mode
	ErrInvalidMode = errors.New("invalid learning mode")
)

const (
	// BaseXP is granted for every review regardless of rating
	BaseXP = 10
	// RatingBonus is granted per rating point
	RatingBonus = 2

	maxRating = 5
)

// modeMultipliers rewards modes that require active recall
var modeMultipliers = map[domain.LearningMode]float64{
	domain.ModeFlashcard:      1.0,
	domain.ModeMultipleChoice: 1.2,
	domain.ModeListening:      1.3,
	domain.ModeTyping:         1.5,
	domain.ModeConstruction:   2.0,
}

// Grant is the outcome of awarding XP for one review
type Grant struct {
	Delta         int
	Total         int
	Level         int
	PreviousLevel int
}

// LeveledUp reports whether the grant moved the learner to a higher level
func (g Grant) LeveledUp() bool {
	return g.Level > g.PreviousLevel
}

// Multiplier returns the XP multiplier of a learning mode
func Multiplier(mode domain.LearningMode) (float64, bool) {
	m, ok := modeMultipliers[mode]
	return m, ok
}

// ReviewXP returns the XP earned for a single review
func ReviewXP(rating int, mode domain.LearningMode) (int, error) {
	if rating < 0 || rating > maxRating {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRating, rating)
	}
	multiplier, ok := Multiplier(mode)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	raw := float64(BaseXP+rating*RatingBonus) * multiplier
	return int(math.Round(raw)), nil
}

// GrantXP adds the XP of one review to currentXP and derives the new level
func GrantXP(currentXP, rating int, mode domain.LearningMode) (Grant, error) {
	delta, err := ReviewXP(rating, mode)
	if err != nil {
		return Grant{}, err
	}

	total := currentXP + delta
	return Grant{
		Delta:         delta,
		Total:         total,
		Level:         LevelFor(total),
		PreviousLevel: LevelFor(currentXP),
	}, nil
}
