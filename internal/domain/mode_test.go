package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLearningMode(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expected      LearningMode
		expectedError bool
	}{
		{name: "flashcard", input: "flashcard", expected: ModeFlashcard},
		{name: "upper case with spaces", input: "  TYPING ", expected: ModeTyping},
		{name: "construction", input: "construction", expected: ModeConstruction},
		{name: "unknown", input: "dictation", expectedError: true},
		{name: "empty", input: "", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := ParseLearningMode(tt.input)

			if tt.expectedError {
				assert.ErrorIs(t, err, ErrUnknownMode)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, mode)
			}
		})
	}
}

func TestAllLearningModes_AreValid(t *testing.T) {
	for _, m := range AllLearningModes() {
		assert.True(t, m.Valid(), string(m))
	}
	assert.False(t, LearningMode("").Valid())
}
