package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lexis/internal/repository"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store hands out repositories and runs transactions
type Store struct {
	db  *sql.DB
	loc *time.Location
}

// NewStore creates a new store. loc defines calendar days for activity queries.
func NewStore(db *sql.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{db: db, loc: loc}
}

// Repos returns repositories running outside of a transaction
func (s *Store) Repos() repository.Repos {
	return s.repos(s.db)
}

func (s *Store) repos(db DBTX) repository.Repos {
	return repository.Repos{
		Words:    NewWordRepo(db),
		Progress: NewProgressRepo(db, s.loc),
		Stats:    NewStatsRepo(db),
		Badges:   NewBadgeRepo(db),
	}
}

// WithinTx runs fn inside a transaction
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, s.repos(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
