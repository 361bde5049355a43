package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"lexis/internal/domain"
)

// WordRepo implements repository.WordRepository
type WordRepo struct {
	db DBTX
}

// NewWordRepo creates a new word repository
func NewWordRepo(db DBTX) *WordRepo {
	return &WordRepo{db: db}
}

// GetByID returns a catalog word or nil if it doesn't exist
func (r *WordRepo) GetByID(ctx context.Context, id int64) (*domain.Word, error) {
	var w domain.Word
	query := `
		SELECT id, term, translation, difficulty, created_at
		FROM words
		WHERE id = $1
	`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&w.ID, &w.Term, &w.Translation, &w.Difficulty, &w.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &w, nil
}

// GetByIDs returns the catalog words with the given ids keyed by id
func (r *WordRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.Word, error) {
	words := make(map[int64]domain.Word, len(ids))
	if len(ids) == 0 {
		return words, nil
	}

	query := `
		SELECT id, term, translation, difficulty, created_at
		FROM words
		WHERE id = ANY($1)
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var w domain.Word
		if err := rows.Scan(&w.ID, &w.Term, &w.Translation, &w.Difficulty, &w.CreatedAt); err != nil {
			return nil, err
		}
		words[w.ID] = w
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// ListNew returns words the learner has not started, easiest first
func (r *WordRepo) ListNew(ctx context.Context, userID int64, maxDifficulty, limit int) ([]domain.Word, error) {
	query := `
		SELECT w.id, w.term, w.translation, w.difficulty, w.created_at
		FROM words w
		WHERE w.difficulty <= $2
			AND NOT EXISTS (
				SELECT 1 FROM word_progress p
				WHERE p.user_id = $1 AND p.word_id = w.id
			)
		ORDER BY w.difficulty, w.id
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, maxDifficulty, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var words []domain.Word
	for rows.Next() {
		var w domain.Word
		if err := rows.Scan(&w.ID, &w.Term, &w.Translation, &w.Difficulty, &w.CreatedAt); err != nil {
			return nil, err
		}
		words = append(words, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return words, nil
}
