package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"lexis/internal/domain"
	"lexis/internal/service"
)

const (
	defaultNewWords = 10
	maxNewWords     = 50
)

type wordResponse struct {
	ID          int64  `json:"id"`
	Term        string `json:"term"`
	Translation string `json:"translation"`
	Difficulty  int    `json:"difficulty"`
}

type progressResponse struct {
	WordID         int64      `json:"word_id"`
	EaseFactor     float64    `json:"ease_factor"`
	Interval       int        `json:"interval"`
	Repetitions    int        `json:"repetitions"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"`
}

type dueWordResponse struct {
	Word     wordResponse     `json:"word"`
	Progress progressResponse `json:"progress"`
}

type dueWordsResponse struct {
	Words    []dueWordResponse `json:"words"`
	TotalDue int               `json:"total_due"`
}

type newWordsResponse struct {
	Words []wordResponse `json:"words"`
}

type reviewRequest struct {
	WordID         int64  `json:"word_id"`
	Rating         *int   `json:"rating"`
	ResponseTimeMs int64  `json:"response_time_ms"`
	Mode           string `json:"mode"`
}

type badgeResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Category    string     `json:"category"`
	EarnedAt    *time.Time `json:"earned_at,omitempty"`
}

type reviewResponse struct {
	Progress      progressResponse `json:"progress"`
	XPEarned      int              `json:"xp_earned"`
	TotalXP       int              `json:"total_xp"`
	NewLevel      *int             `json:"new_level"`
	Streak        int              `json:"streak"`
	LongestStreak int              `json:"longest_streak"`
	NewBadges     []badgeResponse  `json:"new_badges"`
}

type statsResponse struct {
	TotalXP        int        `json:"total_xp"`
	Level          int        `json:"level"`
	XPToNextLevel  int        `json:"xp_to_next_level"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	LastActivityAt *time.Time `json:"last_activity_at"`
	DueCount       int        `json:"due_count"`
	WordsStarted   int        `json:"words_started"`
	WordsRecalled  int        `json:"words_recalled"`
	WordsMastered  int        `json:"words_mastered"`
	TotalReviews   int        `json:"total_reviews"`
	PerfectReviews int        `json:"perfect_reviews"`
	ModesUsed      int        `json:"modes_used"`
}

type dayResponse struct {
	Date        string `json:"date"`
	ReviewCount int    `json:"review_count"`
}

type activityResponse struct {
	Days       []dayResponse `json:"days"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}

func toWord(w domain.Word) wordResponse {
	return wordResponse{ID: w.ID, Term: w.Term, Translation: w.Translation, Difficulty: w.Difficulty}
}

func toProgress(p domain.WordProgress) progressResponse {
	return progressResponse{
		WordID:         p.WordID,
		EaseFactor:     p.EaseFactor,
		Interval:       p.Interval,
		Repetitions:    p.Repetitions,
		NextReviewAt:   p.NextReviewAt,
		LastReviewedAt: p.LastReviewedAt,
	}
}

func toBadge(b domain.Badge) badgeResponse {
	return badgeResponse{ID: b.ID, Name: b.Name, Description: b.Description, Icon: b.Icon, Category: b.Category}
}

func learnerID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: learner id %q", service.ErrInvalidInput, c.Param("id"))
	}
	return id, nil
}

// intQuery parses an optional integer query parameter
func intQuery(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", service.ErrInvalidInput, name)
	}
	return v, nil
}

// GetDueWords returns words due for review
// GET /api/v1/learners/:id/due?limit=
func (s *Server) GetDueWords(c echo.Context) error {
	id, err := learnerID(c)
	if err != nil {
		return s.errorResponse(c, err)
	}
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		return s.errorResponse(c, err)
	}

	due, err := s.reviews.GetDueWords(c.Request().Context(), id, limit)
	if err != nil {
		return s.errorResponse(c, err)
	}

	resp := dueWordsResponse{Words: make([]dueWordResponse, 0, len(due.Words)), TotalDue: due.TotalDue}
	for _, dw := range due.Words {
		resp.Words = append(resp.Words, dueWordResponse{Word: toWord(dw.Word), Progress: toProgress(dw.Progress)})
	}
	return c.JSON(http.StatusOK, resp)
}

// GetNewWords returns words the learner has not started
// GET /api/v1/learners/:id/new?count=
func (s *Server) GetNewWords(c echo.Context) error {
	id, err := learnerID(c)
	if err != nil {
		return s.errorResponse(c, err)
	}
	count, err := intQuery(c, "count", defaultNewWords)
	if err != nil {
		return s.errorResponse(c, err)
	}
	if count > maxNewWords {
		count = maxNewWords
	}

	words, err := s.reviews.GetNewWords(c.Request().Context(), id, count)
	if err != nil {
		return s.errorResponse(c, err)
	}

	resp := newWordsResponse{Words: make([]wordResponse, 0, len(words))}
	for _, w := range words {
		resp.Words = append(resp.Words, toWord(w))
	}
	return c.JSON(http.StatusOK, resp)
}

// SubmitReview records a rating of a word
// POST /api/v1/learners/:id/reviews
func (s *Server) SubmitReview(c echo.Context) error {
	id, err := learnerID(c)
	if err != nil {
		return s.errorResponse(c, err)
	}

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return s.errorResponse(c, fmt.Errorf("%w: malformed body", service.ErrInvalidInput))
	}
	if req.Rating == nil {
		return s.errorResponse(c, fmt.Errorf("%w: rating is required", service.ErrInvalidInput))
	}
	mode, err := domain.ParseLearningMode(req.Mode)
	if err != nil {
		return s.errorResponse(c, fmt.Errorf("%w: %w", service.ErrInvalidInput, err))
	}

	result, err := s.reviews.SubmitReview(c.Request().Context(), service.ReviewInput{
		UserID:         id,
		WordID:         req.WordID,
		Rating:         *req.Rating,
		ResponseTimeMs: req.ResponseTimeMs,
		Mode:           mode,
	})
	if err != nil {
		return s.errorResponse(c, err)
	}

	resp := reviewResponse{
		Progress:      toProgress(result.Progress),
		XPEarned:      result.XPEarned,
		TotalXP:       result.TotalXP,
		NewLevel:      result.NewLevel,
		Streak:        result.Streak,
		LongestStreak: result.LongestStreak,
		NewBadges:     make([]badgeResponse, 0, len(result.NewBadges)),
	}
	for _, b := range result.NewBadges {
		resp.NewBadges = append(resp.NewBadges, toBadge(b))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetStats returns the learner's stats
// GET /api/v1/learners/:id/stats
func (s *Server) GetStats(c echo.Context) error {
	id, err := learnerID(c)
	if err != nil {
		return s.errorResponse(c, err)
	}

	o, err := s.stats.GetOverview(c.Request().Context(), id)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, statsResponse{
		TotalXP:        o.Stats.TotalXP,
		Level:          o.Stats.Level,
		XPToNextLevel:  o.XPToNextLevel,
		CurrentStreak:  o.Stats.CurrentStreak,
		LongestStreak:  o.Stats.LongestStreak,
		LastActivityAt: o.Stats.LastActivityAt,
		DueCount:       o.DueCount,
		WordsStarted:   o.Summary.WordsStarted,
		WordsRecalled:  o.Summary.WordsRecalled,
		WordsMastered:  o.Summary.WordsMastered,
		TotalReviews:   o.Summary.TotalReviews,
		PerfectReviews: o.Summary.PerfectReviews,
		ModesUsed:      o.Summary.ModesUsed,
	})
}

// GetBadges returns earned badges
// GET /api/v1/learners/:id/badges
func (s *Server) GetBadges(c echo.Context) error {
	id, err := learnerID(c)
	if err != nil {
		return s.errorResponse(c, err)
	}

	earned, err := s.stats.GetBadges(c.Request().Context(), id)
	if err != nil {
		return s.errorResponse(c, err)
	}

	resp := make([]badgeResponse, 0, len(earned))
	for _, e := range earned {
		b := toBadge(e.Badge)
		earnedAt := e.EarnedAt
		b.EarnedAt = &earnedAt
		resp = append(resp, b)
	}
	return c.JSON(http.StatusOK, map[string]any{"badges": resp})
}

// GetActivity returns review counts per day
// GET /api/v1/learners/:id/activity?page=
func (s *Server) GetActivity(c echo.Context) error {
	id, err := learnerID(c)
	if err != nil {
		return s.errorResponse(c, err)
	}
	page, err := intQuery(c, "page", 1)
	if err != nil {
		return s.errorResponse(c, err)
	}
	if page < 1 {
		page = 1
	}

	days, totalPages, err := s.stats.GetActivityDays(c.Request().Context(), id, page)
	if err != nil {
		return s.errorResponse(c, err)
	}

	resp := activityResponse{Days: make([]dayResponse, 0, len(days)), Page: page, TotalPages: totalPages}
	for _, d := range days {
		resp.Days = append(resp.Days, dayResponse{Date: d.Date.Format(time.DateOnly), ReviewCount: d.ReviewCount})
	}
	return c.JSON(http.StatusOK, resp)
}

// ResetProgress wipes the learner's progress
// DELETE /api/v1/learners/:id/progress
func (s *Server) ResetProgress(c echo.Context) error {
	id, err := learnerID(c)
	if err != nil {
		return s.errorResponse(c, err)
	}

	if err := s.stats.ResetProgress(c.Request().Context(), id); err != nil {
		return s.errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
