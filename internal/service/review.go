package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lexis/internal/badge"
	"lexis/internal/domain"
	"lexis/internal/leveling"
	"lexis/internal/repository"
	"lexis/internal/srs"
	"lexis/internal/streak"
)

// ReviewInput is one "learner rated a word" event
type ReviewInput struct {
	UserID         int64
	WordID         int64
	Rating         int
	ResponseTimeMs int64
	Mode           domain.LearningMode
}

// ReviewResult is the outcome of a processed review
type ReviewResult struct {
	Progress      domain.WordProgress
	XPEarned      int
	TotalXP       int
	NewLevel      *int // set only when the review crossed a level threshold
	Streak        int
	LongestStreak int
	NewBadges     []domain.Badge
}

// DueWords is a batch of words waiting for review
type DueWords struct {
	Words    []domain.DueWord
	TotalDue int
}

// Option configures a ReviewService
type Option func(*ReviewService)

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(s *ReviewService) { s.now = now }
}

// WithLocation sets the time zone that defines calendar days for streaks and badges
func WithLocation(loc *time.Location) Option {
	return func(s *ReviewService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithIDGenerator sets the review id generator
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *ReviewService) { s.newID = newID }
}

// ReviewService applies reviews to learner progress and serves review batches
type ReviewService struct {
	store     repository.Store
	evaluator *badge.Evaluator
	logger    *zap.Logger
	locks     *learnerLocks
	now       func() time.Time
	loc       *time.Location
	newID     func() uuid.UUID
}

// NewReviewService creates a new review service
func NewReviewService(store repository.Store, evaluator *badge.Evaluator, logger *zap.Logger, opts ...Option) *ReviewService {
	s := &ReviewService{
		store:     store,
		evaluator: evaluator,
		logger:    logger,
		locks:     newLearnerLocks(),
		now:       time.Now,
		loc:       time.UTC,
		newID:     uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitReview records a rating and updates scheduling, XP, level, streak and badges
// in a single transaction. Reviews of the same learner are applied one at a time.
func (s *ReviewService) SubmitReview(ctx context.Context, in ReviewInput) (*ReviewResult, error) {
	if err := validateReview(in); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(in.UserID)
	defer unlock()

	now := s.now()

	var result *ReviewResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repos) error {
		r, err := s.apply(ctx, repos, in, now)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.logger.Error("Failed to submit review",
			zap.Int64("user_id", in.UserID),
			zap.Int64("word_id", in.WordID),
			zap.Error(err))
		return nil, retryable("submit review", err)
	}

	if result.NewLevel != nil {
		s.logger.Info("Learner leveled up",
			zap.Int64("user_id", in.UserID),
			zap.Int("level", *result.NewLevel),
			zap.Int("total_xp", result.TotalXP))
	}
	for _, b := range result.NewBadges {
		s.logger.Info("Badge granted", zap.Int64("user_id", in.UserID), zap.String("badge_id", b.ID))
	}

	return result, nil
}

func validateReview(in ReviewInput) error {
	if !srs.ValidRating(in.Rating) {
		return fmt.Errorf("%w: rating %d is outside 0..%d", ErrInvalidInput, in.Rating, srs.MaxScore)
	}
	if !in.Mode.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidInput, domain.ErrUnknownMode, in.Mode)
	}
	if in.ResponseTimeMs < 0 {
		return fmt.Errorf("%w: negative response time", ErrInvalidInput)
	}
	return nil
}

func (s *ReviewService) apply(ctx context.Context, repos repository.Repos, in ReviewInput, now time.Time) (*ReviewResult, error) {
	// Lock stats first so concurrent events of one learner queue on the same row
	stats, err := repos.Stats.GetForUpdate(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load learner stats: %w", err)
	}
	if stats == nil {
		return nil, fmt.Errorf("%w: %d", ErrLearnerNotFound, in.UserID)
	}

	word, err := repos.Words.GetByID(ctx, in.WordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load word: %w", err)
	}
	if word == nil {
		return nil, fmt.Errorf("%w: %d", ErrWordNotFound, in.WordID)
	}

	current, err := repos.Progress.Get(ctx, in.UserID, in.WordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load word progress: %w", err)
	}
	if current == nil {
		fresh := srs.NewProgress(in.UserID, in.WordID, now)
		current = &fresh
	}

	review := domain.Review{
		ID:             s.newID(),
		UserID:         in.UserID,
		WordID:         in.WordID,
		Score:          in.Rating,
		ResponseTimeMs: in.ResponseTimeMs,
		Mode:           in.Mode,
		ReviewedAt:     now,
	}

	progress := srs.Schedule(*current, review)

	grant, err := leveling.GrantXP(stats.TotalXP, in.Rating, in.Mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	st := streak.Update(streak.State{
		Current:      stats.CurrentStreak,
		Longest:      stats.LongestStreak,
		LastActivity: stats.LastActivityAt,
	}, now, s.loc)

	updated := *stats
	updated.TotalXP = grant.Total
	updated.Level = grant.Level
	updated.CurrentStreak = st.Current
	updated.LongestStreak = st.Longest
	updated.LastActivityAt = st.LastActivity

	if err := repos.Progress.Upsert(ctx, &progress); err != nil {
		return nil, fmt.Errorf("failed to save word progress: %w", err)
	}
	if err := repos.Progress.AppendReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	if err := repos.Stats.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to save learner stats: %w", err)
	}

	newBadges, err := s.grantBadges(ctx, repos, updated, review, now)
	if err != nil {
		return nil, err
	}

	result := &ReviewResult{
		Progress:      progress,
		XPEarned:      grant.Delta,
		TotalXP:       grant.Total,
		Streak:        st.Current,
		LongestStreak: st.Longest,
		NewBadges:     newBadges,
	}
	if grant.LeveledUp() {
		level := grant.Level
		result.NewLevel = &level
	}
	return result, nil
}

// grantBadges evaluates the catalog against already updated state and stores new grants
func (s *ReviewService) grantBadges(ctx context.Context, repos repository.Repos, stats domain.LearnerStats, review domain.Review, now time.Time) ([]domain.Badge, error) {
	summary, err := repos.Progress.Summary(ctx, stats.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize progress: %w", err)
	}
	catalog, err := repos.Badges.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load badge catalog: %w", err)
	}
	earned, err := repos.Badges.EarnedIDs(ctx, stats.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load earned badges: %w", err)
	}

	snap := badge.NewSnapshot(stats, summary, review, s.loc)

	var granted []domain.Badge
	for _, b := range s.evaluator.Evaluate(catalog, snap, earned) {
		inserted, err := repos.Badges.Grant(ctx, stats.UserID, b.ID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to grant badge %s: %w", b.ID, err)
		}
		// Another writer got there first
		if !inserted {
			continue
		}
		granted = append(granted, b)
	}
	return granted, nil
}

// GetDueWords returns words due for review, oldest due first, with the total due count.
// A non-positive limit returns every due word.
func (s *ReviewService) GetDueWords(ctx context.Context, userID int64, limit int) (*DueWords, error) {
	repos := s.store.Repos()
	if _, err := loadStats(ctx, repos, userID); err != nil {
		return nil, err
	}

	now := s.now()

	progress, err := repos.Progress.ListDue(ctx, userID, now, limit)
	if err != nil {
		return nil, retryable("list due words", err)
	}
	total, err := repos.Progress.CountDue(ctx, userID, now)
	if err != nil {
		return nil, retryable("count due words", err)
	}

	ids := make([]int64, 0, len(progress))
	for _, p := range progress {
		ids = append(ids, p.WordID)
	}
	words, err := repos.Words.GetByIDs(ctx, ids)
	if err != nil {
		return nil, retryable("load due words", err)
	}

	due := make([]domain.DueWord, 0, len(progress))
	for _, p := range progress {
		w, ok := words[p.WordID]
		if !ok {
			s.logger.Warn("Progress references a missing word",
				zap.Int64("user_id", userID),
				zap.Int64("word_id", p.WordID))
			continue
		}
		due = append(due, domain.DueWord{Word: w, Progress: p})
	}

	return &DueWords{Words: due, TotalDue: total}, nil
}

// GetNewWords returns up to count words the learner has not started,
// limited to the difficulty tier unlocked by the learner's level
func (s *ReviewService) GetNewWords(ctx context.Context, userID int64, count int) ([]domain.Word, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", ErrInvalidInput)
	}

	repos := s.store.Repos()
	stats, err := loadStats(ctx, repos, userID)
	if err != nil {
		return nil, err
	}

	words, err := repos.Words.ListNew(ctx, userID, leveling.DifficultyCeiling(stats.Level), count)
	if err != nil {
		return nil, retryable("list new words", err)
	}
	return words, nil
}

func loadStats(ctx context.Context, repos repository.Repos, userID int64) (*domain.LearnerStats, error) {
	stats, err := repos.Stats.Get(ctx, userID)
	if err != nil {
		return nil, retryable("load learner stats", err)
	}
	if stats == nil {
		return nil, fmt.Errorf("%w: %d", ErrLearnerNotFound, userID)
	}
	return stats, nil
}
