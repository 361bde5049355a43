package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LearnerRepo implements repository.LearnerRepository
type LearnerRepo struct {
	db DBTX
}

// NewLearnerRepo creates a new learner repository
func NewLearnerRepo(db DBTX) *LearnerRepo {
	return &LearnerRepo{db: db}
}

// IsAuthorized checks if learner passed the bot password gate
func (r *LearnerRepo) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	var authorized bool
	query := `SELECT authorized FROM users WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&authorized)

	if errors.Is(err, sql.ErrNoRows) {
		// User doesn't exist yet
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return authorized, nil
}

// AuthorizeUser marks learner as authorized
func (r *LearnerRepo) AuthorizeUser(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO users (user_id, authorized)
		VALUES ($1, TRUE)
		ON CONFLICT (user_id)
		DO UPDATE SET authorized = TRUE
	`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// EnsureUserExists creates the learner and default stats if they don't exist
func (r *LearnerRepo) EnsureUserExists(ctx context.Context, userID int64) error {
	userQuery := `
		INSERT INTO users (user_id, authorized)
		VALUES ($1, FALSE)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, userQuery, userID); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	statsQuery := `
		INSERT INTO learner_stats (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, statsQuery, userID); err != nil {
		return fmt.Errorf("failed to create learner stats: %w", err)
	}
	return nil
}
