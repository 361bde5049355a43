// Package httpapi exposes the learning engine over a JSON REST API.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"lexis/internal/domain"
	"lexis/internal/service"
)

// ReviewEngine is the review side of the engine
type ReviewEngine interface {
	SubmitReview(ctx context.Context, in service.ReviewInput) (*service.ReviewResult, error)
	GetDueWords(ctx context.Context, userID int64, limit int) (*service.DueWords, error)
	GetNewWords(ctx context.Context, userID int64, count int) ([]domain.Word, error)
}

// StatsProvider serves learner stats, badges and progress reset
type StatsProvider interface {
	GetOverview(ctx context.Context, userID int64) (*service.Overview, error)
	GetBadges(ctx context.Context, userID int64) ([]domain.EarnedBadge, error)
	GetActivityDays(ctx context.Context, userID int64, page int) ([]domain.Day, int, error)
	ResetProgress(ctx context.Context, userID int64) error
}

// requestsPerSecond is the per-client request rate on learner routes
const requestsPerSecond = 20

// Server is the HTTP API server
type Server struct {
	echo    *echo.Echo
	reviews ReviewEngine
	stats   StatsProvider
	logger  *zap.Logger
}

// NewServer creates a new server and registers its routes
func NewServer(reviews ReviewEngine, stats StatsProvider, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		reviews: reviews,
		stats:   stats,
		logger:  logger,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogMethod:  true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("HTTP request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.Health)

	limiter := middleware.NewRateLimiterMemoryStore(rate.Limit(requestsPerSecond))
	learners := s.echo.Group("/api/v1/learners/:id", middleware.RateLimiter(limiter))
	learners.GET("/due", s.GetDueWords)
	learners.GET("/new", s.GetNewWords)
	learners.POST("/reviews", s.SubmitReview)
	learners.GET("/stats", s.GetStats)
	learners.GET("/badges", s.GetBadges)
	learners.GET("/activity", s.GetActivity)
	learners.DELETE("/progress", s.ResetProgress)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.logger.Info("HTTP server listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Health reports that the process is up
// GET /healthz
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse maps engine errors to HTTP status codes
func (s *Server) errorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrLearnerNotFound), errors.Is(err, service.ErrWordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrRetryable):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err))
		// Storage details stay in the log
		return c.JSON(status, map[string]string{"error": http.StatusText(status)})
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
