package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"lexis/internal/domain"
	"lexis/internal/repository"
	"lexis/internal/srs"
)

// ErrInjected is returned by MemStore for the operation named in FailOn
var ErrInjected = errors.New("injected failure")

// MemStore is an in-memory repository.Store. Transactions work on a copy of the
// data that replaces the original only on commit.
type MemStore struct {
	mu   sync.Mutex
	data *memData
	loc  *time.Location

	// FailOn names an operation such as "Badges.Grant" that returns ErrInjected
	FailOn string
}

type progressKey struct {
	userID int64
	wordID int64
}

type memData struct {
	words    map[int64]domain.Word
	stats    map[int64]domain.LearnerStats
	progress map[progressKey]domain.WordProgress
	reviews  []domain.Review
	catalog  []domain.Badge
	earned   map[int64]map[string]time.Time
}

// NewMemStore creates an empty in-memory store with calendar days in loc
func NewMemStore(loc *time.Location) *MemStore {
	if loc == nil {
		loc = time.UTC
	}
	return &MemStore{
		loc: loc,
		data: &memData{
			words:    make(map[int64]domain.Word),
			stats:    make(map[int64]domain.LearnerStats),
			progress: make(map[progressKey]domain.WordProgress),
			earned:   make(map[int64]map[string]time.Time),
		},
	}
}

// AddWord puts a word into the catalog
func (s *MemStore) AddWord(w domain.Word) {
	s.data.words[w.ID] = w
}

// AddLearner creates a learner with the given stats
func (s *MemStore) AddLearner(stats domain.LearnerStats) {
	s.data.stats[stats.UserID] = stats
}

// SetCatalog replaces the badge catalog
func (s *MemStore) SetCatalog(catalog []domain.Badge) {
	s.data.catalog = append([]domain.Badge(nil), catalog...)
}

// Reviews returns every stored review
func (s *MemStore) Reviews() []domain.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Review(nil), s.data.reviews...)
}

// EarnedBadges returns badge ids the learner holds
func (s *MemStore) EarnedBadges(userID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id := range s.data.earned[userID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *MemStore) Repos() repository.Repos {
	return s.repos(s.data)
}

func (s *MemStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.data.clone()
	if err := fn(ctx, s.repos(tx)); err != nil {
		return err
	}
	s.data = tx
	return nil
}

func (s *MemStore) repos(d *memData) repository.Repos {
	return repository.Repos{
		Words:    &memWords{s: s, d: d},
		Progress: &memProgress{s: s, d: d},
		Stats:    &memStats{s: s, d: d},
		Badges:   &memBadges{s: s, d: d},
	}
}

func (s *MemStore) fail(op string) error {
	if s.FailOn == op {
		return ErrInjected
	}
	return nil
}

func (d *memData) clone() *memData {
	c := &memData{
		words:    make(map[int64]domain.Word, len(d.words)),
		stats:    make(map[int64]domain.LearnerStats, len(d.stats)),
		progress: make(map[progressKey]domain.WordProgress, len(d.progress)),
		reviews:  append([]domain.Review(nil), d.reviews...),
		catalog:  append([]domain.Badge(nil), d.catalog...),
		earned:   make(map[int64]map[string]time.Time, len(d.earned)),
	}
	for k, v := range d.words {
		c.words[k] = v
	}
	for k, v := range d.stats {
		c.stats[k] = v
	}
	for k, v := range d.progress {
		c.progress[k] = v
	}
	for k, v := range d.earned {
		m := make(map[string]time.Time, len(v))
		for id, at := range v {
			m[id] = at
		}
		c.earned[k] = m
	}
	return c
}

type memWords struct {
	s *MemStore
	d *memData
}

func (r *memWords) GetByID(_ context.Context, id int64) (*domain.Word, error) {
	if err := r.s.fail("Words.GetByID"); err != nil {
		return nil, err
	}
	w, ok := r.d.words[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *memWords) GetByIDs(_ context.Context, ids []int64) (map[int64]domain.Word, error) {
	words := make(map[int64]domain.Word, len(ids))
	for _, id := range ids {
		if w, ok := r.d.words[id]; ok {
			words[id] = w
		}
	}
	return words, nil
}

func (r *memWords) ListNew(_ context.Context, userID int64, maxDifficulty, limit int) ([]domain.Word, error) {
	var words []domain.Word
	for _, w := range r.d.words {
		if w.Difficulty > maxDifficulty {
			continue
		}
		if _, started := r.d.progress[progressKey{userID, w.ID}]; started {
			continue
		}
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Difficulty != words[j].Difficulty {
			return words[i].Difficulty < words[j].Difficulty
		}
		return words[i].ID < words[j].ID
	})
	if limit > 0 && len(words) > limit {
		words = words[:limit]
	}
	return words, nil
}

type memProgress struct {
	s *MemStore
	d *memData
}

func (r *memProgress) history(userID, wordID int64) []domain.Review {
	var h []domain.Review
	for _, rv := range r.d.reviews {
		if rv.UserID == userID && rv.WordID == wordID {
			h = append(h, rv)
		}
	}
	return h
}

func (r *memProgress) Get(_ context.Context, userID, wordID int64) (*domain.WordProgress, error) {
	if err := r.s.fail("Progress.Get"); err != nil {
		return nil, err
	}
	p, ok := r.d.progress[progressKey{userID, wordID}]
	if !ok {
		return nil, nil
	}
	p.History = r.history(userID, wordID)
	return &p, nil
}

func (r *memProgress) Upsert(_ context.Context, p *domain.WordProgress) error {
	if err := r.s.fail("Progress.Upsert"); err != nil {
		return err
	}
	stored := *p
	stored.History = nil
	r.d.progress[progressKey{p.UserID, p.WordID}] = stored
	return nil
}

func (r *memProgress) AppendReview(_ context.Context, rv domain.Review) error {
	if err := r.s.fail("Progress.AppendReview"); err != nil {
		return err
	}
	r.d.reviews = append(r.d.reviews, rv)
	return nil
}

func (r *memProgress) userProgress(userID int64) []domain.WordProgress {
	var list []domain.WordProgress
	for k, p := range r.d.progress {
		if k.userID == userID {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].WordID < list[j].WordID })
	return list
}

func (r *memProgress) ListDue(_ context.Context, userID int64, now time.Time, limit int) ([]domain.WordProgress, error) {
	return srs.DueWords(r.userProgress(userID), now, limit), nil
}

func (r *memProgress) CountDue(_ context.Context, userID int64, now time.Time) (int, error) {
	return len(srs.DueWords(r.userProgress(userID), now, 0)), nil
}

func (r *memProgress) Summary(_ context.Context, userID int64) (domain.ProgressSummary, error) {
	if err := r.s.fail("Progress.Summary"); err != nil {
		return domain.ProgressSummary{}, err
	}
	list := r.userProgress(userID)
	for i := range list {
		list[i].History = r.history(userID, list[i].WordID)
	}
	return domain.Summarize(list), nil
}

func (r *memProgress) days(userID int64) []domain.Day {
	counts := make(map[string]*domain.Day)
	for _, rv := range r.d.reviews {
		if rv.UserID != userID {
			continue
		}
		local := rv.ReviewedAt.In(r.s.loc)
		date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.s.loc)
		key := date.Format("20060102")
		if counts[key] == nil {
			counts[key] = &domain.Day{Date: date}
		}
		counts[key].ReviewCount++
	}

	days := make([]domain.Day, 0, len(counts))
	for _, d := range counts {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.After(days[j].Date) })
	return days
}

func (r *memProgress) GetReviewDays(_ context.Context, userID int64, limit, offset int) ([]domain.Day, error) {
	days := r.days(userID)
	if offset >= len(days) {
		return nil, nil
	}
	days = days[offset:]
	if len(days) > limit {
		days = days[:limit]
	}
	return days, nil
}

func (r *memProgress) GetTotalReviewDays(_ context.Context, userID int64) (int, error) {
	return len(r.days(userID)), nil
}

func (r *memProgress) DeleteAll(_ context.Context, userID int64) error {
	if err := r.s.fail("Progress.DeleteAll"); err != nil {
		return err
	}
	kept := r.d.reviews[:0]
	for _, rv := range r.d.reviews {
		if rv.UserID != userID {
			kept = append(kept, rv)
		}
	}
	r.d.reviews = kept
	for k := range r.d.progress {
		if k.userID == userID {
			delete(r.d.progress, k)
		}
	}
	return nil
}

type memStats struct {
	s *MemStore
	d *memData
}

func (r *memStats) Get(_ context.Context, userID int64) (*domain.LearnerStats, error) {
	stats, ok := r.d.stats[userID]
	if !ok {
		return nil, nil
	}
	return &stats, nil
}

func (r *memStats) GetForUpdate(ctx context.Context, userID int64) (*domain.LearnerStats, error) {
	if err := r.s.fail("Stats.GetForUpdate"); err != nil {
		return nil, err
	}
	return r.Get(ctx, userID)
}

func (r *memStats) Update(_ context.Context, stats *domain.LearnerStats) error {
	if err := r.s.fail("Stats.Update"); err != nil {
		return err
	}
	if _, ok := r.d.stats[stats.UserID]; !ok {
		return errors.New("stats not found")
	}
	r.d.stats[stats.UserID] = *stats
	return nil
}

func (r *memStats) Reset(_ context.Context, userID int64) error {
	if err := r.s.fail("Stats.Reset"); err != nil {
		return err
	}
	r.d.stats[userID] = *domain.NewLearnerStats(userID)
	return nil
}

type memBadges struct {
	s *MemStore
	d *memData
}

func (r *memBadges) Catalog(context.Context) ([]domain.Badge, error) {
	return append([]domain.Badge(nil), r.d.catalog...), nil
}

func (r *memBadges) EarnedIDs(_ context.Context, userID int64) (map[string]bool, error) {
	earned := make(map[string]bool)
	for id := range r.d.earned[userID] {
		earned[id] = true
	}
	return earned, nil
}

func (r *memBadges) ListEarned(_ context.Context, userID int64) ([]domain.EarnedBadge, error) {
	var list []domain.EarnedBadge
	for _, b := range r.d.catalog {
		if at, ok := r.d.earned[userID][b.ID]; ok {
			list = append(list, domain.EarnedBadge{Badge: b, EarnedAt: at})
		}
	}
	return list, nil
}

func (r *memBadges) Grant(_ context.Context, userID int64, badgeID string, earnedAt time.Time) (bool, error) {
	if err := r.s.fail("Badges.Grant"); err != nil {
		return false, err
	}
	if r.d.earned[userID] == nil {
		r.d.earned[userID] = make(map[string]time.Time)
	}
	if _, ok := r.d.earned[userID][badgeID]; ok {
		return false, nil
	}
	r.d.earned[userID][badgeID] = earnedAt
	return true, nil
}

func (r *memBadges) DeleteAll(_ context.Context, userID int64) error {
	if err := r.s.fail("Badges.DeleteAll"); err != nil {
		return err
	}
	delete(r.d.earned, userID)
	return nil
}
