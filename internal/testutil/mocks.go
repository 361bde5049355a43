package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"lexis/internal/domain"
	"lexis/internal/repository"
)

// MockLearnerRepository is a mock for LearnerRepository
type MockLearnerRepository struct {
	mock.Mock
}

func (m *MockLearnerRepository) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLearnerRepository) AuthorizeUser(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockLearnerRepository) EnsureUserExists(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockWordRepository is a mock for WordRepository
type MockWordRepository struct {
	mock.Mock
}

func (m *MockWordRepository) GetByID(ctx context.Context, id int64) (*domain.Word, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Word), args.Error(1)
}

func (m *MockWordRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]domain.Word, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]domain.Word), args.Error(1)
}

func (m *MockWordRepository) ListNew(ctx context.Context, userID int64, maxDifficulty, limit int) ([]domain.Word, error) {
	args := m.Called(ctx, userID, maxDifficulty, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Word), args.Error(1)
}

// MockProgressRepository is a mock for ProgressRepository
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) Get(ctx context.Context, userID, wordID int64) (*domain.WordProgress, error) {
	args := m.Called(ctx, userID, wordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WordProgress), args.Error(1)
}

func (m *MockProgressRepository) Upsert(ctx context.Context, p *domain.WordProgress) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProgressRepository) AppendReview(ctx context.Context, r domain.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockProgressRepository) ListDue(ctx context.Context, userID int64, now time.Time, limit int) ([]domain.WordProgress, error) {
	args := m.Called(ctx, userID, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WordProgress), args.Error(1)
}

func (m *MockProgressRepository) CountDue(ctx context.Context, userID int64, now time.Time) (int, error) {
	args := m.Called(ctx, userID, now)
	return args.Int(0), args.Error(1)
}

func (m *MockProgressRepository) Summary(ctx context.Context, userID int64) (domain.ProgressSummary, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.ProgressSummary), args.Error(1)
}

func (m *MockProgressRepository) GetReviewDays(ctx context.Context, userID int64, limit, offset int) ([]domain.Day, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Day), args.Error(1)
}

func (m *MockProgressRepository) GetTotalReviewDays(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockProgressRepository) DeleteAll(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockStatsRepository is a mock for StatsRepository
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) Get(ctx context.Context, userID int64) (*domain.LearnerStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LearnerStats), args.Error(1)
}

func (m *MockStatsRepository) GetForUpdate(ctx context.Context, userID int64) (*domain.LearnerStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LearnerStats), args.Error(1)
}

func (m *MockStatsRepository) Update(ctx context.Context, stats *domain.LearnerStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockStatsRepository) Reset(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockBadgeRepository is a mock for BadgeRepository
type MockBadgeRepository struct {
	mock.Mock
}

func (m *MockBadgeRepository) Catalog(ctx context.Context) ([]domain.Badge, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Badge), args.Error(1)
}

func (m *MockBadgeRepository) EarnedIDs(ctx context.Context, userID int64) (map[string]bool, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockBadgeRepository) ListEarned(ctx context.Context, userID int64) ([]domain.EarnedBadge, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EarnedBadge), args.Error(1)
}

func (m *MockBadgeRepository) Grant(ctx context.Context, userID int64, badgeID string, earnedAt time.Time) (bool, error) {
	args := m.Called(ctx, userID, badgeID, earnedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockBadgeRepository) DeleteAll(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockStore hands out mock repositories and runs WithinTx callbacks against them.
// It records whether the last transaction committed or rolled back.
type MockStore struct {
	Words    *MockWordRepository
	Progress *MockProgressRepository
	Stats    *MockStatsRepository
	Badges   *MockBadgeRepository

	BeginErr  error
	Commits   int
	Rollbacks int
}

// NewMockStore creates a store backed by fresh mocks
func NewMockStore() *MockStore {
	return &MockStore{
		Words:    new(MockWordRepository),
		Progress: new(MockProgressRepository),
		Stats:    new(MockStatsRepository),
		Badges:   new(MockBadgeRepository),
	}
}

func (s *MockStore) Repos() repository.Repos {
	return repository.Repos{
		Words:    s.Words,
		Progress: s.Progress,
		Stats:    s.Stats,
		Badges:   s.Badges,
	}
}

func (s *MockStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	if s.BeginErr != nil {
		return s.BeginErr
	}
	if err := fn(ctx, s.Repos()); err != nil {
		s.Rollbacks++
		return err
	}
	s.Commits++
	return nil
}

// AssertExpectations asserts expectations of every repository mock
func (s *MockStore) AssertExpectations(t mock.TestingT) {
	s.Words.AssertExpectations(t)
	s.Progress.AssertExpectations(t)
	s.Stats.AssertExpectations(t)
	s.Badges.AssertExpectations(t)
}
