package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"lexis/internal/badge"
	"lexis/internal/domain"
	"lexis/internal/service"
	"lexis/internal/testutil"
)

type mockReviewEngine struct {
	mock.Mock
}

func (m *mockReviewEngine) SubmitReview(ctx context.Context, in service.ReviewInput) (*service.ReviewResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReviewResult), args.Error(1)
}

func (m *mockReviewEngine) GetDueWords(ctx context.Context, userID int64, limit int) (*service.DueWords, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DueWords), args.Error(1)
}

func (m *mockReviewEngine) GetNewWords(ctx context.Context, userID int64, count int) ([]domain.Word, error) {
	args := m.Called(ctx, userID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Word), args.Error(1)
}

type mockStatsProvider struct {
	mock.Mock
}

func (m *mockStatsProvider) GetOverview(ctx context.Context, userID int64) (*service.Overview, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Overview), args.Error(1)
}

func (m *mockStatsProvider) GetBadges(ctx context.Context, userID int64) ([]domain.EarnedBadge, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EarnedBadge), args.Error(1)
}

func (m *mockStatsProvider) GetActivityDays(ctx context.Context, userID int64, page int) ([]domain.Day, int, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Day), args.Int(1), args.Error(2)
}

func (m *mockStatsProvider) ResetProgress(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func newTestServer() (*Server, *mockReviewEngine, *mockStatsProvider) {
	reviews := new(mockReviewEngine)
	stats := new(mockStatsProvider)
	return NewServer(reviews, stats, testutil.NewTestLogger()), reviews, stats
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer()

	rec := do(s, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStartAndShutdown(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewServer(new(mockReviewEngine), new(mockStatsProvider), zap.New(core))

	done := make(chan error, 1)
	go func() { done <- s.Start("127.0.0.1:0") }()

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("HTTP server listening").Len() > 0
	}, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, 1, logs.FilterMessage("HTTP server listening").Len())
}

func TestSubmitReview(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	level := 2
	result := &service.ReviewResult{
		Progress:      domain.WordProgress{UserID: 123, WordID: 7, EaseFactor: 2.5, Interval: 1, Repetitions: 1, NextReviewAt: now.AddDate(0, 0, 1), LastReviewedAt: &now},
		XPEarned:      18,
		TotalXP:       113,
		NewLevel:      &level,
		Streak:        1,
		LongestStreak: 1,
		NewBadges:     []domain.Badge{badge.DefaultCatalog()[0]},
	}

	tests := []struct {
		name           string
		body           string
		mockInput      *service.ReviewInput
		mockResult     *service.ReviewResult
		mockError      error
		expectedStatus int
	}{
		{
			name:           "accepted review",
			body:           `{"word_id":7,"rating":4,"response_time_ms":1800,"mode":"Flashcard"}`,
			mockInput:      &service.ReviewInput{UserID: 123, WordID: 7, Rating: 4, ResponseTimeMs: 1800, Mode: domain.ModeFlashcard},
			mockResult:     result,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown mode",
			body:           `{"word_id":7,"rating":4,"mode":"dictation"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing rating",
			body:           `{"word_id":7,"mode":"typing"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			body:           `{"word_id":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "rating out of range",
			body:           `{"word_id":7,"rating":9,"mode":"typing"}`,
			mockInput:      &service.ReviewInput{UserID: 123, WordID: 7, Rating: 9, Mode: domain.ModeTyping},
			mockError:      fmt.Errorf("%w: rating 9 is outside 0..5", service.ErrInvalidInput),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown word",
			body:           `{"word_id":42,"rating":4,"mode":"typing"}`,
			mockInput:      &service.ReviewInput{UserID: 123, WordID: 42, Rating: 4, Mode: domain.ModeTyping},
			mockError:      fmt.Errorf("%w: 42", service.ErrWordNotFound),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "storage failure",
			body:           `{"word_id":7,"rating":4,"mode":"typing"}`,
			mockInput:      &service.ReviewInput{UserID: 123, WordID: 7, Rating: 4, Mode: domain.ModeTyping},
			mockError:      fmt.Errorf("submit review: %w: connection reset", service.ErrRetryable),
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, reviews, _ := newTestServer()
			if tt.mockInput != nil {
				reviews.On("SubmitReview", mock.Anything, *tt.mockInput).Return(tt.mockResult, tt.mockError)
			}

			rec := do(s, http.MethodPost, "/api/v1/learners/123/reviews", tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp reviewResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, 18, resp.XPEarned)
				require.NotNil(t, resp.NewLevel)
				assert.Equal(t, 2, *resp.NewLevel)
				assert.Equal(t, 1, resp.Progress.Interval)
				require.Len(t, resp.NewBadges, 1)
				assert.Equal(t, "first_word", resp.NewBadges[0].ID)
			}
			reviews.AssertExpectations(t)
		})
	}
}

func TestSubmitReview_InvalidLearnerID(t *testing.T) {
	s, reviews, _ := newTestServer()

	rec := do(s, http.MethodPost, "/api/v1/learners/abc/reviews", `{"word_id":7,"rating":4,"mode":"typing"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	reviews.AssertExpectations(t)
}

func TestLearnerRoutes_RateLimited(t *testing.T) {
	s, reviews, _ := newTestServer()

	// The limiter runs before the handler, so an invalid id never reaches the engine
	var last int
	for i := 0; i < requestsPerSecond*2; i++ {
		last = do(s, http.MethodGet, "/api/v1/learners/abc/due", "").Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/healthz", "").Code)
	reviews.AssertExpectations(t)
}

func TestGetDueWords(t *testing.T) {
	s, reviews, _ := newTestServer()

	due := &service.DueWords{
		Words: []domain.DueWord{{
			Word:     *testutil.NewTestWord(1, "cat", "кот", 1),
			Progress: domain.WordProgress{UserID: 123, WordID: 1, EaseFactor: 2.5},
		}},
		TotalDue: 12,
	}
	reviews.On("GetDueWords", mock.Anything, int64(123), 5).Return(due, nil)

	rec := do(s, http.MethodGet, "/api/v1/learners/123/due?limit=5", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dueWordsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 12, resp.TotalDue)
	require.Len(t, resp.Words, 1)
	assert.Equal(t, "cat", resp.Words[0].Word.Term)
	reviews.AssertExpectations(t)
}

func TestGetDueWords_Errors(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		mockError      error
		expectedStatus int
	}{
		{name: "bad limit", target: "/api/v1/learners/123/due?limit=ten", expectedStatus: http.StatusBadRequest},
		{name: "unknown learner", target: "/api/v1/learners/123/due", mockError: service.ErrLearnerNotFound, expectedStatus: http.StatusNotFound},
		{name: "unexpected failure", target: "/api/v1/learners/123/due", mockError: fmt.Errorf("boom"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, reviews, _ := newTestServer()
			if tt.mockError != nil {
				reviews.On("GetDueWords", mock.Anything, int64(123), 0).Return(nil, tt.mockError)
			}

			rec := do(s, http.MethodGet, tt.target, "")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			reviews.AssertExpectations(t)
		})
	}
}

func TestGetNewWords(t *testing.T) {
	tests := []struct {
		name          string
		target        string
		expectedCount int
	}{
		{name: "default count", target: "/api/v1/learners/123/new", expectedCount: 10},
		{name: "explicit count", target: "/api/v1/learners/123/new?count=3", expectedCount: 3},
		{name: "count capped", target: "/api/v1/learners/123/new?count=500", expectedCount: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, reviews, _ := newTestServer()
			words := []domain.Word{*testutil.NewTestWord(1, "cat", "кот", 1)}
			reviews.On("GetNewWords", mock.Anything, int64(123), tt.expectedCount).Return(words, nil)

			rec := do(s, http.MethodGet, tt.target, "")

			require.Equal(t, http.StatusOK, rec.Code)
			var resp newWordsResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Len(t, resp.Words, 1)
			reviews.AssertExpectations(t)
		})
	}
}

func TestGetStats(t *testing.T) {
	s, _, stats := newTestServer()

	overview := &service.Overview{
		Stats:         *testutil.NewTestStats(123, 260, 3),
		Summary:       domain.ProgressSummary{WordsStarted: 12, WordsRecalled: 9},
		DueCount:      4,
		XPToNextLevel: 240,
	}
	stats.On("GetOverview", mock.Anything, int64(123)).Return(overview, nil)

	rec := do(s, http.MethodGet, "/api/v1/learners/123/stats", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 260, resp.TotalXP)
	assert.Equal(t, 3, resp.Level)
	assert.Equal(t, 240, resp.XPToNextLevel)
	assert.Equal(t, 4, resp.DueCount)
	assert.Equal(t, 9, resp.WordsRecalled)
	stats.AssertExpectations(t)
}

func TestGetBadges(t *testing.T) {
	s, _, stats := newTestServer()

	earnedAt := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	stats.On("GetBadges", mock.Anything, int64(123)).Return([]domain.EarnedBadge{
		{Badge: badge.DefaultCatalog()[0], EarnedAt: earnedAt},
	}, nil)

	rec := do(s, http.MethodGet, "/api/v1/learners/123/badges", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Badges []badgeResponse `json:"badges"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Badges, 1)
	assert.Equal(t, "first_word", resp.Badges[0].ID)
	require.NotNil(t, resp.Badges[0].EarnedAt)
	assert.True(t, earnedAt.Equal(*resp.Badges[0].EarnedAt))
	stats.AssertExpectations(t)
}

func TestGetActivity(t *testing.T) {
	s, _, stats := newTestServer()

	days := []domain.Day{
		testutil.NewTestDay(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), 5),
		testutil.NewTestDay(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), 2),
	}
	stats.On("GetActivityDays", mock.Anything, int64(123), 2).Return(days, 3, nil)

	rec := do(s, http.MethodGet, "/api/v1/learners/123/activity?page=2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp activityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 3, resp.TotalPages)
	require.Len(t, resp.Days, 2)
	assert.Equal(t, "2024-03-04", resp.Days[0].Date)
	stats.AssertExpectations(t)
}

func TestResetProgress(t *testing.T) {
	tests := []struct {
		name           string
		mockError      error
		expectedStatus int
	}{
		{name: "reset", expectedStatus: http.StatusNoContent},
		{name: "unknown learner", mockError: service.ErrLearnerNotFound, expectedStatus: http.StatusNotFound},
		{name: "storage failure", mockError: fmt.Errorf("reset progress: %w: timeout", service.ErrRetryable), expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, stats := newTestServer()
			stats.On("ResetProgress", mock.Anything, int64(123)).Return(tt.mockError)

			rec := do(s, http.MethodDelete, "/api/v1/learners/123/progress", "")

			assert.Equal(t, tt.expectedStatus, rec.Code)
			stats.AssertExpectations(t)
		})
	}
}
