package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"lexis/internal/domain"
	"lexis/internal/service"
	"lexis/internal/srs"
)

// handleReview shows the next card: the most overdue word, or a new one when nothing is due
func (h *Handler) handleReview(c tele.Context) error {
	userID := c.Sender().ID
	ctx, cancel := h.requestContext()
	defer cancel()

	due, err := h.reviews.GetDueWords(ctx, userID, 1)
	if err != nil {
		h.logger.Error("Failed to get due words", zap.Int64("user_id", userID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка при загрузке"})
	}

	var word domain.Word
	remaining := due.TotalDue
	if len(due.Words) > 0 {
		word = due.Words[0].Word
	} else {
		fresh, err := h.reviews.GetNewWords(ctx, userID, 1)
		if err != nil {
			h.logger.Error("Failed to get new words", zap.Int64("user_id", userID), zap.Error(err))
			return c.Respond(&tele.CallbackResponse{Text: "Ошибка при загрузке"})
		}
		if len(fresh) == 0 {
			return c.Respond(&tele.CallbackResponse{
				Text:      "На сегодня всё! Новых слов для твоего уровня пока нет",
				ShowAlert: true,
			})
		}
		word = fresh[0]
	}

	h.SetState(userID, &domain.StateData{
		State:   domain.StateReviewing,
		Word:    word,
		ShownAt: h.now(),
	})

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("👀 Показать перевод", fmt.Sprintf("reveal_%d", word.ID))),
		markup.Row(btnMainMenu),
	)

	return h.respond(c, formatCard(word, remaining), markup)
}

// handleReveal shows the translation and the rating keyboard
func (h *Handler) handleReveal(c tele.Context, data string) error {
	userID := c.Sender().ID

	wordID, err := strconv.ParseInt(strings.TrimPrefix(data, "reveal_"), 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Неверная карточка"})
	}

	state := h.GetState(userID)
	if state.State != domain.StateReviewing || state.Word.ID != wordID {
		return c.Respond(&tele.CallbackResponse{Text: "Карточка устарела"})
	}

	revealed := *state
	revealed.RevealedAt = h.now()
	h.SetState(userID, &revealed)

	return h.respond(c, formatRevealed(state.Word), ratingMarkup(wordID))
}

// ratingMarkup returns the 0..5 rating keyboard for a word
func ratingMarkup(wordID int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var low, high tele.Row
	for score := 0; score <= srs.MaxScore; score++ {
		btn := markup.Data(strconv.Itoa(score), fmt.Sprintf("rate_%d_%d", wordID, score))
		if score < srs.PassingScore {
			low = append(low, btn)
		} else {
			high = append(high, btn)
		}
	}
	markup.Inline(low, high, markup.Row(btnMainMenu))
	return markup
}

// parseRateData parses "rate_<wordID>_<score>" callback data
func parseRateData(data string) (wordID int64, score int, err error) {
	parts := strings.Split(strings.TrimPrefix(data, "rate_"), "_")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed rate data %q", data)
	}
	wordID, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed word id: %w", err)
	}
	score, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed score: %w", err)
	}
	return wordID, score, nil
}

// handleRate submits the rating of the revealed card
func (h *Handler) handleRate(c tele.Context, data string) error {
	userID := c.Sender().ID

	// Get or create lock for this user to prevent concurrent processing
	unlock := h.lockUser(userID)
	defer unlock()

	wordID, score, err := parseRateData(data)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Неверная оценка"})
	}

	state := h.GetState(userID)
	if state.State != domain.StateReviewing || state.Word.ID != wordID || state.RevealedAt.IsZero() {
		// Already rated or another card is open
		return c.Respond(&tele.CallbackResponse{Text: "Карточка уже оценена"})
	}

	ctx, cancel := h.requestContext()
	defer cancel()

	result, err := h.reviews.SubmitReview(ctx, service.ReviewInput{
		UserID:         userID,
		WordID:         wordID,
		Rating:         score,
		ResponseTimeMs: state.ResponseTime().Milliseconds(),
		Mode:           domain.ModeFlashcard,
	})
	if err != nil {
		h.logger.Error("Failed to submit review",
			zap.Int64("user_id", userID),
			zap.Int64("word_id", wordID),
			zap.Error(err),
		)
		text := "Ошибка при сохранении"
		if errors.Is(err, service.ErrRetryable) {
			text = "Не получилось сохранить, попробуй ещё раз"
		}
		return c.Respond(&tele.CallbackResponse{Text: text})
	}

	h.ResetState(userID)

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnNext),
		markup.Row(btnMainMenu),
	)
	return h.respond(c, formatReviewResult(result), markup)
}

// handleNewWords lists the next words the learner will meet
func (h *Handler) handleNewWords(c tele.Context) error {
	userID := c.Sender().ID
	ctx, cancel := h.requestContext()
	defer cancel()

	words, err := h.reviews.GetNewWords(ctx, userID, 5)
	if err != nil {
		h.logger.Error("Failed to get new words", zap.Int64("user_id", userID), zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка при загрузке"})
	}

	if len(words) == 0 {
		return c.Respond(&tele.CallbackResponse{
			Text:      "Новых слов для твоего уровня пока нет",
			ShowAlert: true,
		})
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnReview),
		markup.Row(btnBack),
	)
	return h.respond(c, formatNewWords(words), markup)
}
