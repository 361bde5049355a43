package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for a rating, mode or paging value the engine does not accept
	ErrInvalidInput = errors.New("invalid input")
	// ErrLearnerNotFound is returned when the learner has no account
	ErrLearnerNotFound = errors.New("learner not found")
	// ErrWordNotFound is returned when the word is not in the catalog
	ErrWordNotFound = errors.New("word not found")
	// ErrRetryable marks storage failures. Nothing was persisted and the call may be repeated.
	ErrRetryable = errors.New("temporary failure")
)

func retryable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrRetryable, err)
}

// isDomainError reports whether err is a caller error rather than a storage failure
func isDomainError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrLearnerNotFound) ||
		errors.Is(err, ErrWordNotFound)
}
