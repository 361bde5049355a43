package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lexis/internal/domain"
	"lexis/internal/leveling"
	"lexis/internal/repository"
)

// ActivityPageSize is the number of days on one activity page
const ActivityPageSize = 7

// Overview is the learner's stats together with progress figures for display
type Overview struct {
	Stats         domain.LearnerStats
	Summary       domain.ProgressSummary
	DueCount      int
	XPToNextLevel int
}

// StatsService handles learner statistics, badges and progress reset
type StatsService struct {
	store  repository.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(store repository.Store, logger *zap.Logger) *StatsService {
	return &StatsService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// GetStats returns the learner's aggregate stats
func (s *StatsService) GetStats(ctx context.Context, userID int64) (*domain.LearnerStats, error) {
	return loadStats(ctx, s.store.Repos(), userID)
}

// GetOverview returns stats with the progress summary, due count and XP left to the next level
func (s *StatsService) GetOverview(ctx context.Context, userID int64) (*Overview, error) {
	stats, err := s.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	summary, err := repos.Progress.Summary(ctx, userID)
	if err != nil {
		return nil, retryable("summarize progress", err)
	}
	due, err := repos.Progress.CountDue(ctx, userID, s.now())
	if err != nil {
		return nil, retryable("count due words", err)
	}

	return &Overview{
		Stats:         *stats,
		Summary:       summary,
		DueCount:      due,
		XPToNextLevel: leveling.XPForNextLevel(stats.TotalXP),
	}, nil
}

// GetBadges returns badges the learner has earned, oldest first
func (s *StatsService) GetBadges(ctx context.Context, userID int64) ([]domain.EarnedBadge, error) {
	repos := s.store.Repos()
	if _, err := loadStats(ctx, repos, userID); err != nil {
		return nil, err
	}

	badges, err := repos.Badges.ListEarned(ctx, userID)
	if err != nil {
		return nil, retryable("list badges", err)
	}
	return badges, nil
}

// GetActivityDays returns paginated list of days with review counts and the total number of pages
func (s *StatsService) GetActivityDays(ctx context.Context, userID int64, page int) ([]domain.Day, int, error) {
	if page < 1 {
		page = 1
	}

	repos := s.store.Repos()
	if _, err := loadStats(ctx, repos, userID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * ActivityPageSize
	days, err := repos.Progress.GetReviewDays(ctx, userID, ActivityPageSize, offset)
	if err != nil {
		return nil, 0, retryable("list activity days", err)
	}

	// Calculate total pages
	totalDays, err := repos.Progress.GetTotalReviewDays(ctx, userID)
	if err != nil {
		return nil, 0, retryable("count activity days", err)
	}

	totalPages := (totalDays + ActivityPageSize - 1) / ActivityPageSize
	if totalPages == 0 {
		totalPages = 1
	}

	return days, totalPages, nil
}

// ResetProgress deletes the learner's progress, history and badges and restores default stats
func (s *StatsService) ResetProgress(ctx context.Context, userID int64) error {
	s.logger.Info("Resetting learner progress", zap.Int64("user_id", userID))

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		stats, err := repos.Stats.GetForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock learner stats: %w", err)
		}
		if stats == nil {
			return fmt.Errorf("%w: %d", ErrLearnerNotFound, userID)
		}

		if err := repos.Progress.DeleteAll(ctx, userID); err != nil {
			return err
		}
		if err := repos.Badges.DeleteAll(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete badges: %w", err)
		}
		if err := repos.Stats.Reset(ctx, userID); err != nil {
			return fmt.Errorf("failed to reset stats: %w", err)
		}
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		s.logger.Error("Failed to reset progress", zap.Int64("user_id", userID), zap.Error(err))
		return retryable("reset progress", err)
	}

	s.logger.Info("Learner progress reset", zap.Int64("user_id", userID))
	return nil
}
