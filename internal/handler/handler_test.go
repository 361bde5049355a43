package handler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

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

const testUserID int64 = 42

func newTestHandler(t *testing.T) (*Handler, *mockReviewEngine, *mockStatsProvider, *testutil.MockLearnerRepository) {
	t.Helper()
	reviews := &mockReviewEngine{}
	stats := &mockStatsProvider{}
	learners := &testutil.MockLearnerRepository{}
	auth := service.NewAuthService(learners, "secret")

	h := NewHandler(nil, auth, reviews, stats, testutil.NewTestLogger())

	clock := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	h.now = func() time.Time {
		clock = clock.Add(1500 * time.Millisecond)
		return clock
	}
	return h, reviews, stats, learners
}

func TestHandleReview_ShowsMostOverdueWord(t *testing.T) {
	h, reviews, _, _ := newTestHandler(t)
	word := *testutil.NewTestWord(7, "apple", "яблоко", 1)

	reviews.On("GetDueWords", mock.Anything, testUserID, 1).Return(&service.DueWords{
		Words:    []domain.DueWord{{Word: word}},
		TotalDue: 3,
	}, nil)

	c := testutil.NewFakeContext(testUserID, "")
	require.NoError(t, h.handleReview(c))

	assert.Contains(t, c.LastText(), "apple")
	assert.NotContains(t, c.LastText(), "яблоко")

	state := h.GetState(testUserID)
	assert.Equal(t, domain.StateReviewing, state.State)
	assert.Equal(t, int64(7), state.Word.ID)
	assert.False(t, state.ShownAt.IsZero())
	reviews.AssertNotCalled(t, "GetNewWords", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleReview_FallsBackToNewWord(t *testing.T) {
	h, reviews, _, _ := newTestHandler(t)
	word := *testutil.NewTestWord(9, "house", "дом", 1)

	reviews.On("GetDueWords", mock.Anything, testUserID, 1).Return(&service.DueWords{}, nil)
	reviews.On("GetNewWords", mock.Anything, testUserID, 1).Return([]domain.Word{word}, nil)

	c := testutil.NewFakeContext(testUserID, "")
	require.NoError(t, h.handleReview(c))

	assert.Contains(t, c.LastText(), "Новое слово")
	assert.Equal(t, int64(9), h.GetState(testUserID).Word.ID)
}

func TestHandleReview_NothingToLearn(t *testing.T) {
	h, reviews, _, _ := newTestHandler(t)

	reviews.On("GetDueWords", mock.Anything, testUserID, 1).Return(&service.DueWords{}, nil)
	reviews.On("GetNewWords", mock.Anything, testUserID, 1).Return([]domain.Word{}, nil)

	c := testutil.NewFakeCallback(testUserID, "review", "")
	require.NoError(t, h.handleReview(c))

	assert.Contains(t, c.LastResponse(), "На сегодня всё")
	assert.Equal(t, domain.StateIdle, h.GetState(testUserID).State)
}

func TestReviewFlow_RevealThenRate(t *testing.T) {
	h, reviews, _, _ := newTestHandler(t)
	word := *testutil.NewTestWord(7, "apple", "яблоко", 1)

	reviews.On("GetDueWords", mock.Anything, testUserID, 1).Return(&service.DueWords{
		Words:    []domain.DueWord{{Word: word}},
		TotalDue: 1,
	}, nil)
	reviews.On("SubmitReview", mock.Anything, service.ReviewInput{
		UserID:         testUserID,
		WordID:         7,
		Rating:         4,
		ResponseTimeMs: 1500,
		Mode:           domain.ModeFlashcard,
	}).Return(&service.ReviewResult{
		Progress: domain.WordProgress{Interval: 1},
		XPEarned: 18,
		TotalXP:  18,
		Streak:   1,
	}, nil).Once()

	require.NoError(t, h.handleReview(testutil.NewFakeContext(testUserID, "")))

	reveal := testutil.NewFakeContext(testUserID, "")
	require.NoError(t, h.handleReveal(reveal, "reveal_7"))
	assert.Contains(t, reveal.LastText(), "яблоко")

	rate := testutil.NewFakeContext(testUserID, "")
	require.NoError(t, h.handleRate(rate, "rate_7_4"))
	assert.Contains(t, rate.LastText(), "+18 XP")
	assert.Equal(t, domain.StateIdle, h.GetState(testUserID).State)

	// A second tap on the same rating keyboard is ignored
	again := testutil.NewFakeContext(testUserID, "")
	require.NoError(t, h.handleRate(again, "rate_7_4"))
	assert.Equal(t, "Карточка уже оценена", again.LastResponse())

	reviews.AssertExpectations(t)
}

func TestHandleRate_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		state    *domain.StateData
		data     string
		expected string
	}{
		{
			name:     "malformed data",
			state:    &domain.StateData{State: domain.StateReviewing, Word: domain.Word{ID: 7}},
			data:     "rate_7",
			expected: "Неверная оценка",
		},
		{
			name:     "not revealed",
			state:    &domain.StateData{State: domain.StateReviewing, Word: domain.Word{ID: 7}, ShownAt: time.Now()},
			data:     "rate_7_4",
			expected: "Карточка уже оценена",
		},
		{
			name:     "another card",
			state:    &domain.StateData{State: domain.StateReviewing, Word: domain.Word{ID: 8}, ShownAt: time.Now(), RevealedAt: time.Now()},
			data:     "rate_7_4",
			expected: "Карточка уже оценена",
		},
		{
			name:     "idle",
			state:    &domain.StateData{State: domain.StateIdle},
			data:     "rate_7_4",
			expected: "Карточка уже оценена",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, reviews, _, _ := newTestHandler(t)
			h.SetState(testUserID, tt.state)

			c := testutil.NewFakeContext(testUserID, "")
			require.NoError(t, h.handleRate(c, tt.data))

			assert.Equal(t, tt.expected, c.LastResponse())
			reviews.AssertNotCalled(t, "SubmitReview", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleRate_RetryableFailureKeepsCard(t *testing.T) {
	h, reviews, _, _ := newTestHandler(t)
	now := time.Now()
	h.SetState(testUserID, &domain.StateData{
		State:      domain.StateReviewing,
		Word:       domain.Word{ID: 7},
		ShownAt:    now,
		RevealedAt: now.Add(time.Second),
	})

	reviews.On("SubmitReview", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("commit: %w", service.ErrRetryable))

	c := testutil.NewFakeContext(testUserID, "")
	require.NoError(t, h.handleRate(c, "rate_7_5"))

	assert.Equal(t, "Не получилось сохранить, попробуй ещё раз", c.LastResponse())
	assert.Equal(t, domain.StateReviewing, h.GetState(testUserID).State)
}

func TestHandleReveal_StaleCard(t *testing.T) {
	h, _, _, _ := newTestHandler(t)
	h.SetState(testUserID, &domain.StateData{State: domain.StateReviewing, Word: domain.Word{ID: 8}})

	c := testutil.NewFakeContext(testUserID, "")
	require.NoError(t, h.handleReveal(c, "reveal_7"))

	assert.Equal(t, "Карточка устарела", c.LastResponse())
	assert.True(t, h.GetState(testUserID).RevealedAt.IsZero())
}

func TestHandleResetConfirm(t *testing.T) {
	t.Run("requires confirmation state", func(t *testing.T) {
		h, _, stats, _ := newTestHandler(t)

		c := testutil.NewFakeCallback(testUserID, "confirm_reset", "")
		require.NoError(t, h.handleResetConfirm(c))

		assert.Equal(t, "Сброс не запрошен", c.LastResponse())
		stats.AssertNotCalled(t, "ResetProgress", mock.Anything, mock.Anything)
	})

	t.Run("resets after request", func(t *testing.T) {
		h, _, stats, _ := newTestHandler(t)
		stats.On("ResetProgress", mock.Anything, testUserID).Return(nil)

		require.NoError(t, h.handleResetRequest(testutil.NewFakeCallback(testUserID, "reset", "")))
		assert.Equal(t, domain.StateConfirmReset, h.GetState(testUserID).State)

		c := testutil.NewFakeCallback(testUserID, "confirm_reset", "")
		require.NoError(t, h.handleResetConfirm(c))

		assert.Contains(t, c.LastText(), "Прогресс сброшен")
		assert.Equal(t, domain.StateIdle, h.GetState(testUserID).State)
		stats.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		h, _, stats, _ := newTestHandler(t)
		stats.On("ResetProgress", mock.Anything, testUserID).Return(errors.New("db down"))
		h.SetState(testUserID, &domain.StateData{State: domain.StateConfirmReset})

		c := testutil.NewFakeCallback(testUserID, "confirm_reset", "")
		require.NoError(t, h.handleResetConfirm(c))

		assert.Equal(t, "Ошибка при сбросе", c.LastResponse())
	})
}

func TestHandleActivity_Pagination(t *testing.T) {
	h, _, stats, _ := newTestHandler(t)
	days := []domain.Day{{Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), ReviewCount: 4}}
	stats.On("GetActivityDays", mock.Anything, testUserID, 2).Return(days, 3, nil)

	c := testutil.NewFakeCallback(testUserID, "", "page_2")
	require.NoError(t, h.handleCallback(c))

	assert.Contains(t, c.LastText(), "10 янв 2024: 4")
	stats.AssertExpectations(t)
}

func TestHandleCallback_DispatchesDynamicData(t *testing.T) {
	h, _, _, _ := newTestHandler(t)
	h.SetState(testUserID, &domain.StateData{
		State:   domain.StateReviewing,
		Word:    domain.Word{ID: 3, Term: "cat", Translation: "кошка"},
		ShownAt: time.Now(),
	})

	// Dynamic buttons arrive with a leading form feed
	c := testutil.NewFakeCallback(testUserID, "", "\freveal_3")
	require.NoError(t, h.handleCallback(c))

	assert.Contains(t, c.LastText(), "кошка")
	assert.False(t, h.GetState(testUserID).RevealedAt.IsZero())
}

func TestHandleText_PasswordGate(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		authorized bool
		expectAuth bool
		expected   string
	}{
		{name: "wrong password", text: "nope", expected: "Неверный пароль"},
		{name: "right password", text: "secret", expectAuth: true, expected: "Доступ разрешён"},
		{name: "already authorized", text: "hello", authorized: true, expected: mainMenuText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _, learners := newTestHandler(t)
			learners.On("EnsureUserExists", mock.Anything, testUserID).Return(nil)
			learners.On("IsAuthorized", mock.Anything, testUserID).Return(tt.authorized, nil)
			if tt.expectAuth {
				learners.On("AuthorizeUser", mock.Anything, testUserID).Return(nil)
			}

			c := testutil.NewFakeContext(testUserID, tt.text)
			require.NoError(t, h.handleText(c))

			assert.Contains(t, c.LastText(), tt.expected)
			learners.AssertExpectations(t)
		})
	}
}

func TestLockUser_SerializesSameUser(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	unlock := h.lockUser(testUserID)
	acquired := make(chan struct{})
	go func() {
		release := h.lockUser(testUserID)
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first is held")
	case <-time.After(50 * time.Millisecond):
	}

	// Other users are not blocked
	h.lockUser(testUserID + 1)()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}

func TestRespond_FallsBackToSendWhenEditFails(t *testing.T) {
	tests := []struct {
		name     string
		editErr  error
		wantSent int
	}{
		{name: "edit failed", editErr: errors.New("message to edit not found"), wantSent: 1},
		{name: "message not modified", editErr: errors.New("telegram: message is not modified (400)"), wantSent: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _, _ := newTestHandler(t)
			c := testutil.NewFakeCallback(testUserID, "cancel", "")
			c.EditErr = tt.editErr

			require.NoError(t, h.handleCancel(c))

			assert.Len(t, c.Sent, tt.wantSent)
			assert.NotEmpty(t, c.Responses)
		})
	}
}
