package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned for a learning mode outside the known set
var ErrUnknownMode = errors.New("unknown learning mode")

// LearningMode is the kind of exercise a review was made in
type LearningMode string

const (
	ModeFlashcard      LearningMode = "flashcard"
	ModeMultipleChoice LearningMode = "multiple_choice"
	ModeListening      LearningMode = "listening"
	ModeTyping         LearningMode = "typing"
	ModeConstruction   LearningMode = "construction"
)

// AllLearningModes returns every supported mode
func AllLearningModes() []LearningMode {
	return []LearningMode{
		ModeFlashcard,
		ModeMultipleChoice,
		ModeListening,
		ModeTyping,
		ModeConstruction,
	}
}

// Valid reports whether the mode is one of the supported modes
func (m LearningMode) Valid() bool {
	for _, known := range AllLearningModes() {
		if m == known {
			return true
		}
	}
	return false
}

// ParseLearningMode converts user input into a LearningMode
func ParseLearningMode(s string) (LearningMode, error) {
	m := LearningMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}
