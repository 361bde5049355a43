package service

import (
	"context"

	"lexis/internal/repository"
)

// AuthService handles the bot's password gate
type AuthService struct {
	learnerRepo repository.LearnerRepository
	botPassword string
}

// NewAuthService creates a new auth service
func NewAuthService(learnerRepo repository.LearnerRepository, botPassword string) *AuthService {
	return &AuthService{
		learnerRepo: learnerRepo,
		botPassword: botPassword,
	}
}

// CheckPassword verifies if provided password matches
func (s *AuthService) CheckPassword(password string) bool {
	return password == s.botPassword
}

// IsAuthorized checks if user is authorized
func (s *AuthService) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	return s.learnerRepo.IsAuthorized(ctx, userID)
}

// AuthorizeUser authorizes a user
func (s *AuthService) AuthorizeUser(ctx context.Context, userID int64) error {
	return s.learnerRepo.AuthorizeUser(ctx, userID)
}

// EnsureUserExists creates the learner with default stats if it doesn't exist
func (s *AuthService) EnsureUserExists(ctx context.Context, userID int64) error {
	return s.learnerRepo.EnsureUserExists(ctx, userID)
}
