package postgres

import (
	"context"
	"time"

	"lexis/internal/domain"
)

// BadgeRepo implements repository.BadgeRepository
type BadgeRepo struct {
	db DBTX
}

// NewBadgeRepo creates a new badge repository
func NewBadgeRepo(db DBTX) *BadgeRepo {
	return &BadgeRepo{db: db}
}

// Catalog returns every badge definition
func (r *BadgeRepo) Catalog(ctx context.Context) ([]domain.Badge, error) {
	query := `
		SELECT id, name, description, icon, category, predicate
		FROM badges
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var badges []domain.Badge
	for rows.Next() {
		var b domain.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Icon, &b.Category, &b.Predicate); err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return badges, nil
}

// EarnedIDs returns the set of badge ids the learner already holds
func (r *BadgeRepo) EarnedIDs(ctx context.Context, userID int64) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT badge_id FROM user_badges WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	earned := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		earned[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return earned, nil
}

// ListEarned returns the learner's badges with catalog details, oldest first
func (r *BadgeRepo) ListEarned(ctx context.Context, userID int64) ([]domain.EarnedBadge, error) {
	query := `
		SELECT b.id, b.name, b.description, b.icon, b.category, b.predicate, ub.earned_at
		FROM user_badges ub
		JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = $1
		ORDER BY ub.earned_at, b.id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var earned []domain.EarnedBadge
	for rows.Next() {
		var e domain.EarnedBadge
		b := &e.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Icon, &b.Category, &b.Predicate, &e.EarnedAt); err != nil {
			return nil, err
		}
		earned = append(earned, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return earned, nil
}

// Grant awards a badge unless the learner already has it.
// It reports whether a new grant was stored.
func (r *BadgeRepo) Grant(ctx context.Context, userID int64, badgeID string, earnedAt time.Time) (bool, error) {
	query := `
		INSERT INTO user_badges (user_id, badge_id, earned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, userID, badgeID, earnedAt)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// DeleteAll removes every badge the learner earned
func (r *BadgeRepo) DeleteAll(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_badges WHERE user_id = $1`, userID)
	return err
}
