package handler

import (
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const passwordPrompt = "Привет! Это тренажёр слов. Чтобы начать, введи пароль:"

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID
	ctx, cancel := h.requestContext()
	defer cancel()

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	// Ensure user exists in database
	if err := h.authService.EnsureUserExists(ctx, userID); err != nil {
		h.logger.Error("Failed to ensure user exists", zap.Error(err))
		return c.Send("Произошла ошибка. Попробуйте позже.")
	}

	// Check if authorized
	authorized, err := h.authService.IsAuthorized(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to check authorization", zap.Error(err))
		return c.Send("Произошла ошибка. Попробуйте позже.")
	}

	h.ResetState(userID)

	if !authorized {
		// Request password
		return c.Send(passwordPrompt)
	}

	// Show main menu
	return h.respond(c, mainMenuText, mainMenuMarkup())
}

// handleText handles text messages: the password before authorization, the menu after
func (h *Handler) handleText(c tele.Context) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	// Ignore commands (starting with /)
	if strings.HasPrefix(text, "/") {
		return nil
	}

	ctx, cancel := h.requestContext()
	defer cancel()

	// Ensure user exists
	if err := h.authService.EnsureUserExists(ctx, userID); err != nil {
		h.logger.Error("Failed to ensure user exists", zap.Error(err))
		return nil
	}

	// Check authorization first
	authorized, err := h.authService.IsAuthorized(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to check authorization", zap.Error(err))
		return c.Send("Произошла ошибка. Попробуйте позже.")
	}

	if authorized {
		h.ResetState(userID)
		return c.Send(mainMenuText, mainMenuMarkup())
	}

	if !h.authService.CheckPassword(text) {
		return c.Send("Неверный пароль")
	}

	if err := h.authService.AuthorizeUser(ctx, userID); err != nil {
		h.logger.Error("Failed to authorize user", zap.Error(err))
		return c.Send("Произошла ошибка. Попробуйте позже.")
	}

	h.logger.Info("User authorized", zap.Int64("user_id", userID))
	h.ResetState(userID)
	return c.Send("✅ Доступ разрешён!\n\n"+mainMenuText, mainMenuMarkup())
}
