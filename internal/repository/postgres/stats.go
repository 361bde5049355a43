package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lexis/internal/domain"
)

// StatsRepo implements repository.StatsRepository
type StatsRepo struct {
	db DBTX
}

// NewStatsRepo creates a new stats repository
func NewStatsRepo(db DBTX) *StatsRepo {
	return &StatsRepo{db: db}
}

const statsColumns = `user_id, total_xp, level, current_streak, longest_streak, last_activity_at, updated_at`

// Get returns learner stats or nil if the learner doesn't exist
func (r *StatsRepo) Get(ctx context.Context, userID int64) (*domain.LearnerStats, error) {
	query := `SELECT ` + statsColumns + ` FROM learner_stats WHERE user_id = $1`
	return r.get(ctx, query, userID)
}

// GetForUpdate returns learner stats and locks the row until the transaction ends
func (r *StatsRepo) GetForUpdate(ctx context.Context, userID int64) (*domain.LearnerStats, error) {
	query := `SELECT ` + statsColumns + ` FROM learner_stats WHERE user_id = $1 FOR UPDATE`
	return r.get(ctx, query, userID)
}

func (r *StatsRepo) get(ctx context.Context, query string, userID int64) (*domain.LearnerStats, error) {
	var s domain.LearnerStats
	var lastActivity sql.NullTime

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&s.UserID, &s.TotalXP, &s.Level, &s.CurrentStreak, &s.LongestStreak, &lastActivity, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if lastActivity.Valid {
		t := lastActivity.Time
		s.LastActivityAt = &t
	}
	return &s, nil
}

// Update writes every stats field of the learner
func (r *StatsRepo) Update(ctx context.Context, s *domain.LearnerStats) error {
	query := `
		UPDATE learner_stats
		SET total_xp = $2, level = $3, current_streak = $4, longest_streak = $5,
			last_activity_at = $6, updated_at = NOW()
		WHERE user_id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		s.UserID, s.TotalXP, s.Level, s.CurrentStreak, s.LongestStreak, s.LastActivityAt,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("stats of user %d not found", s.UserID)
	}
	return nil
}

// Reset restores the learner's stats to their defaults
func (r *StatsRepo) Reset(ctx context.Context, userID int64) error {
	query := `
		UPDATE learner_stats
		SET total_xp = 0, level = 1, current_streak = 0, longest_streak = 0,
			last_activity_at = NULL, updated_at = NOW()
		WHERE user_id = $1
	`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
