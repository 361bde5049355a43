package repository

import (
	"context"
	"time"

	"lexis/internal/domain"
)

// LearnerRepository defines learner account operations
type LearnerRepository interface {
	IsAuthorized(ctx context.Context, userID int64) (bool, error)
	AuthorizeUser(ctx context.Context, userID int64) error
	EnsureUserExists(ctx context.Context, userID int64) error
}

// WordRepository is the read-only word catalog
type WordRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Word, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.Word, error)
	ListNew(ctx context.Context, userID int64, maxDifficulty, limit int) ([]domain.Word, error)
}

// ProgressRepository defines word progress and review history operations
type ProgressRepository interface {
	Get(ctx context.Context, userID, wordID int64) (*domain.WordProgress, error)
	Upsert(ctx context.Context, p *domain.WordProgress) error
	AppendReview(ctx context.Context, r domain.Review) error
	ListDue(ctx context.Context, userID int64, now time.Time, limit int) ([]domain.WordProgress, error)
	CountDue(ctx context.Context, userID int64, now time.Time) (int, error)
	Summary(ctx context.Context, userID int64) (domain.ProgressSummary, error)
	GetReviewDays(ctx context.Context, userID int64, limit, offset int) ([]domain.Day, error)
	GetTotalReviewDays(ctx context.Context, userID int64) (int, error)
	DeleteAll(ctx context.Context, userID int64) error
}

// StatsRepository defines learner stats operations
type StatsRepository interface {
	Get(ctx context.Context, userID int64) (*domain.LearnerStats, error)
	GetForUpdate(ctx context.Context, userID int64) (*domain.LearnerStats, error)
	Update(ctx context.Context, stats *domain.LearnerStats) error
	Reset(ctx context.Context, userID int64) error
}

// BadgeRepository defines badge catalog and grant operations
type BadgeRepository interface {
	Catalog(ctx context.Context) ([]domain.Badge, error)
	EarnedIDs(ctx context.Context, userID int64) (map[string]bool, error)
	ListEarned(ctx context.Context, userID int64) ([]domain.EarnedBadge, error)
	Grant(ctx context.Context, userID int64, badgeID string, earnedAt time.Time) (bool, error)
	DeleteAll(ctx context.Context, userID int64) error
}

// Repos bundles the repositories that share one connection or transaction
type Repos struct {
	Words    WordRepository
	Progress ProgressRepository
	Stats    StatsRepository
	Badges   BadgeRepository
}

// Transactor runs fn with repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}

// Store gives access to repositories outside of a transaction and runs transactions
type Store interface {
	Transactor
	Repos() Repos
}
