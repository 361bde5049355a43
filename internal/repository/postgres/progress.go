package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lexis/internal/domain"
)

// ProgressRepo implements repository.ProgressRepository
type ProgressRepo struct {
	db  DBTX
	loc *time.Location
}

// NewProgressRepo creates a new progress repository
func NewProgressRepo(db DBTX, loc *time.Location) *ProgressRepo {
	if loc == nil {
		loc = time.UTC
	}
	return &ProgressRepo{db: db, loc: loc}
}

// Get returns progress of a word with its review history, or nil if the word was never reviewed
func (r *ProgressRepo) Get(ctx context.Context, userID, wordID int64) (*domain.WordProgress, error) {
	query := `
		SELECT user_id, word_id, ease_factor, interval_days, repetitions,
			next_review_at, last_reviewed_at, created_at
		FROM word_progress
		WHERE user_id = $1 AND word_id = $2
	`
	p, err := scanProgress(r.db.QueryRowContext(ctx, query, userID, wordID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	history, err := r.history(ctx, userID, wordID)
	if err != nil {
		return nil, err
	}
	p.History = history

	return p, nil
}

func (r *ProgressRepo) history(ctx context.Context, userID, wordID int64) ([]domain.Review, error) {
	query := `
		SELECT id, user_id, word_id, score, response_time_ms, mode, reviewed_at
		FROM reviews
		WHERE user_id = $1 AND word_id = $2
		ORDER BY reviewed_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID, wordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.Review
	for rows.Next() {
		var rv domain.Review
		var mode string
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.WordID, &rv.Score, &rv.ResponseTimeMs, &mode, &rv.ReviewedAt); err != nil {
			return nil, err
		}
		rv.Mode = domain.LearningMode(mode)
		history = append(history, rv)
	}

	return history, rows.Err()
}

// Upsert creates or overwrites the scheduling state of a word
func (r *ProgressRepo) Upsert(ctx context.Context, p *domain.WordProgress) error {
	query := `
		INSERT INTO word_progress (user_id, word_id, ease_factor, interval_days, repetitions,
			next_review_at, last_reviewed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (user_id, word_id) DO UPDATE SET
			ease_factor = EXCLUDED.ease_factor,
			interval_days = EXCLUDED.interval_days,
			repetitions = EXCLUDED.repetitions,
			next_review_at = EXCLUDED.next_review_at,
			last_reviewed_at = EXCLUDED.last_reviewed_at,
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query,
		p.UserID, p.WordID, p.EaseFactor, p.Interval, p.Repetitions,
		p.NextReviewAt, p.LastReviewedAt, p.CreatedAt,
	)
	return err
}

// AppendReview stores a review in the learner's history
func (r *ProgressRepo) AppendReview(ctx context.Context, rv domain.Review) error {
	query := `
		INSERT INTO reviews (id, user_id, word_id, score, response_time_ms, mode, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		rv.ID, rv.UserID, rv.WordID, rv.Score, rv.ResponseTimeMs, string(rv.Mode), rv.ReviewedAt,
	)
	return err
}

// ListDue returns progress records due at now, oldest due first.
// History is not loaded. A non-positive limit returns every due record.
func (r *ProgressRepo) ListDue(ctx context.Context, userID int64, now time.Time, limit int) ([]domain.WordProgress, error) {
	query := `
		SELECT user_id, word_id, ease_factor, interval_days, repetitions,
			next_review_at, last_reviewed_at, created_at
		FROM word_progress
		WHERE user_id = $1 AND next_review_at <= $2
		ORDER BY next_review_at, word_id
	`
	args := []any{userID, now}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []domain.WordProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return due, nil
}

// CountDue returns how many words are due at now
func (r *ProgressRepo) CountDue(ctx context.Context, userID int64, now time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM word_progress WHERE user_id = $1 AND next_review_at <= $2`
	err := r.db.QueryRowContext(ctx, query, userID, now).Scan(&count)
	return count, err
}

// Summary aggregates the learner's progress and review history
func (r *ProgressRepo) Summary(ctx context.Context, userID int64) (domain.ProgressSummary, error) {
	var s domain.ProgressSummary
	query := `
		SELECT
			(SELECT COUNT(*) FROM word_progress WHERE user_id = $1),
			(SELECT COUNT(*) FROM word_progress WHERE user_id = $1 AND interval_days >= $2),
			COUNT(*),
			COUNT(DISTINCT word_id) FILTER (WHERE score >= 3),
			COUNT(*) FILTER (WHERE score = 5),
			COUNT(DISTINCT mode)
		FROM reviews
		WHERE user_id = $1
	`
	err := r.db.QueryRowContext(ctx, query, userID, domain.MasteredInterval).Scan(
		&s.WordsStarted, &s.WordsMastered, &s.TotalReviews,
		&s.WordsRecalled, &s.PerfectReviews, &s.ModesUsed,
	)
	if err != nil {
		return domain.ProgressSummary{}, err
	}
	return s, nil
}

// GetReviewDays returns calendar days with reviews, newest first
func (r *ProgressRepo) GetReviewDays(ctx context.Context, userID int64, limit, offset int) ([]domain.Day, error) {
	query := `
		SELECT DATE(reviewed_at AT TIME ZONE $2) AS day, COUNT(*) AS count
		FROM reviews
		WHERE user_id = $1
		GROUP BY day
		ORDER BY day DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, query, userID, r.loc.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []domain.Day
	for rows.Next() {
		var date time.Time
		var count int
		if err := rows.Scan(&date, &count); err != nil {
			return nil, err
		}
		days = append(days, domain.Day{
			Date:        time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, r.loc),
			ReviewCount: count,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return days, nil
}

// GetTotalReviewDays returns the number of calendar days with reviews
func (r *ProgressRepo) GetTotalReviewDays(ctx context.Context, userID int64) (int, error) {
	var count int
	query := `
		SELECT COUNT(DISTINCT DATE(reviewed_at AT TIME ZONE $2))
		FROM reviews
		WHERE user_id = $1
	`
	err := r.db.QueryRowContext(ctx, query, userID, r.loc.String()).Scan(&count)
	return count, err
}

// DeleteAll removes the learner's review history and word progress
func (r *ProgressRepo) DeleteAll(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete reviews: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM word_progress WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete word progress: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProgress(row scanner) (*domain.WordProgress, error) {
	var p domain.WordProgress
	var lastReviewed sql.NullTime
	err := row.Scan(
		&p.UserID, &p.WordID, &p.EaseFactor, &p.Interval, &p.Repetitions,
		&p.NextReviewAt, &lastReviewed, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastReviewed.Valid {
		t := lastReviewed.Time
		p.LastReviewedAt = &t
	}
	return &p, nil
}
