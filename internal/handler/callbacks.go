package handler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"lexis/internal/domain"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// handleEditError handles errors from c.Edit() - if message is not modified, just acknowledge callback
// Otherwise, acknowledge callback and return error so caller can send new message
func (h *Handler) handleEditError(err error, c tele.Context, userID int64) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	// If message is not modified, it means it was already edited by another callback
	// Just acknowledge and return nil - don't send new message
	if strings.Contains(errStr, "message is not modified") {
		h.logger.Debug("Message already modified by another callback, acknowledging",
			zap.Int64("user_id", userID),
			zap.String("callback_id", c.Callback().ID),
		)
		c.Respond()
		return nil
	}

	// Log the error to understand why Edit failed
	h.logger.Warn("Failed to edit message, sending new",
		zap.Error(err),
		zap.Int64("user_id", userID),
		zap.String("callback_id", c.Callback().ID),
	)
	// Always acknowledge callback before sending new message
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// handleCallback handles ALL callback queries
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	// Clean data from all non-printable characters
	data := cleanCallbackData(callback.Data)
	h.logger.Debug("handleCallback: Processing callback",
		zap.String("data", data),
		zap.String("id", callback.ID),
		zap.String("unique", callback.Unique),
		zap.Int64("user_id", c.Sender().ID),
	)

	// If Unique is empty, try to handle by Data (for buttons with Unique that didn't come through)
	if callback.Unique == "" {
		switch data {
		case "review", "next":
			return h.handleReview(c)
		case "activity":
			return h.handleActivity(c)
		case "cancel":
			return h.handleCancel(c)
		case "back", "main_menu":
			return h.handleStart(c)
		}
	}

	// Handle by Data prefix (dynamic buttons)
	switch {
	case strings.HasPrefix(data, "reveal_"):
		return h.handleReveal(c, data)
	case strings.HasPrefix(data, "rate_"):
		return h.handleRate(c, data)
	case strings.HasPrefix(data, "page_"):
		return h.handlePagination(c, data)
	}

	// If it's not handled, acknowledge it anyway
	h.logger.Warn("Unhandled callback in handleCallback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
	)
	return c.Respond()
}

// handleStats shows level, XP, streak and progress counters
func (h *Handler) handleStats(c tele.Context) error {
	userID := c.Sender().ID
	ctx, cancel := h.requestContext()
	defer cancel()

	overview, err := h.stats.GetOverview(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to get overview", zap.Int64("user_id", userID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка при загрузке данных"})
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnBack))
	return h.respond(c, formatOverview(overview), markup)
}

// handleBadges lists the badges the learner has earned
func (h *Handler) handleBadges(c tele.Context) error {
	userID := c.Sender().ID
	ctx, cancel := h.requestContext()
	defer cancel()

	earned, err := h.stats.GetBadges(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to get badges", zap.Int64("user_id", userID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка при загрузке данных"})
	}

	if len(earned) == 0 {
		return c.Respond(&tele.CallbackResponse{
			Text:      "Значков пока нет. Повторяй слова, и они появятся!",
			ShowAlert: true,
		})
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnBack))
	return h.respond(c, formatEarnedBadges(earned), markup)
}

// handleActivity shows the first page of days with reviews
func (h *Handler) handleActivity(c tele.Context) error {
	return h.showActivityPage(c, 1)
}

// handlePagination handles page navigation
func (h *Handler) handlePagination(c tele.Context, data string) error {
	pageStr := strings.TrimPrefix(data, "page_")
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Неверная страница"})
	}
	return h.showActivityPage(c, page)
}

// showActivityPage renders one page of activity days
func (h *Handler) showActivityPage(c tele.Context, page int) error {
	userID := c.Sender().ID
	ctx, cancel := h.requestContext()
	defer cancel()

	days, totalPages, err := h.stats.GetActivityDays(ctx, userID, page)
	if err != nil {
		h.logger.Error("Failed to get activity days", zap.Int64("user_id", userID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка при загрузке данных"})
	}

	if len(days) == 0 {
		return c.Respond(&tele.CallbackResponse{
			Text:      "У тебя пока нет повторений",
			ShowAlert: true,
		})
	}

	markup := &tele.ReplyMarkup{}
	rows := []tele.Row{}

	// Add pagination buttons
	if totalPages > 1 {
		navRow := tele.Row{}
		if page > 1 {
			navRow = append(navRow, markup.Data("⬅️", fmt.Sprintf("page_%d", page-1)))
		}
		if page < totalPages {
			navRow = append(navRow, markup.Data("➡️", fmt.Sprintf("page_%d", page+1)))
		}
		if len(navRow) > 0 {
			rows = append(rows, navRow)
		}
	}

	// Add back button
	rows = append(rows, markup.Row(btnBack))
	markup.Inline(rows...)

	return h.respond(c, formatActivity(days), markup)
}

// handleResetRequest asks the learner to confirm a progress reset
func (h *Handler) handleResetRequest(c tele.Context) error {
	userID := c.Sender().ID
	h.SetState(userID, &domain.StateData{State: domain.StateConfirmReset})

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnConfirmReset),
		markup.Row(btnCancel),
	)
	return h.respond(c, "♻️ Сбросить весь прогресс?\n\nОпыт, уровень, серия, значки и история повторений будут удалены.", markup)
}

// handleResetConfirm wipes the learner's progress after confirmation
func (h *Handler) handleResetConfirm(c tele.Context) error {
	userID := c.Sender().ID

	unlock := h.lockUser(userID)
	defer unlock()

	if h.GetState(userID).State != domain.StateConfirmReset {
		return c.Respond(&tele.CallbackResponse{Text: "Сброс не запрошен"})
	}

	ctx, cancel := h.requestContext()
	defer cancel()

	if err := h.stats.ResetProgress(ctx, userID); err != nil {
		h.logger.Error("Failed to reset progress", zap.Int64("user_id", userID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка при сбросе"})
	}

	h.ResetState(userID)
	h.logger.Info("Learner progress reset", zap.Int64("user_id", userID))

	return h.respond(c, "✅ Прогресс сброшен\n\n"+mainMenuText, mainMenuMarkup())
}

// handleCancel cancels current operation and resets state
func (h *Handler) handleCancel(c tele.Context) error {
	h.ResetState(c.Sender().ID)
	return h.respond(c, mainMenuText, mainMenuMarkup())
}
