package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"lexis/internal/service"
)

const authTimeout = 5 * time.Second

// AuthMiddleware creates authentication middleware
func AuthMiddleware(authService *service.AuthService, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			userID := c.Sender().ID

			ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
			defer cancel()

			// Ensure user exists
			if err := authService.EnsureUserExists(ctx, userID); err != nil {
				logger.Error("Failed to ensure user exists in middleware", zap.Int64("user_id", userID), zap.Error(err))
				return c.Send("Произошла ошибка. Попробуйте позже.")
			}

			// Check authorization
			authorized, err := authService.IsAuthorized(ctx, userID)
			if err != nil {
				logger.Error("Failed to check authorization in middleware", zap.Int64("user_id", userID), zap.Error(err))
				return c.Send("Произошла ошибка. Попробуйте позже.")
			}

			// If not authorized and not /start command, prompt for password
			if !authorized && c.Text() != "/start" {
				if c.Callback() != nil {
					_ = c.Respond(&tele.CallbackResponse{Text: "Сначала введи пароль"})
				}
				return c.Send("Привет! Чтобы учить слова, введи пароль:")
			}

			// User is authorized or using /start, continue
			return next(c)
		}
	}
}
