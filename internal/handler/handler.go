package handler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"lexis/internal/domain"
	"lexis/internal/middleware"
	"lexis/internal/service"
)

// requestTimeout bounds the engine calls made for one update
const requestTimeout = 10 * time.Second

// ReviewEngine is the review side of the engine used by the bot
type ReviewEngine interface {
	SubmitReview(ctx context.Context, in service.ReviewInput) (*service.ReviewResult, error)
	GetDueWords(ctx context.Context, userID int64, limit int) (*service.DueWords, error)
	GetNewWords(ctx context.Context, userID int64, count int) ([]domain.Word, error)
}

// StatsProvider serves stats, badges, activity and reset to the bot
type StatsProvider interface {
	GetOverview(ctx context.Context, userID int64) (*service.Overview, error)
	GetBadges(ctx context.Context, userID int64) ([]domain.EarnedBadge, error)
	GetActivityDays(ctx context.Context, userID int64, page int) ([]domain.Day, int, error)
	ResetProgress(ctx context.Context, userID int64) error
}

// Handler manages all bot interactions
type Handler struct {
	bot         *tele.Bot
	authService *service.AuthService
	reviews     ReviewEngine
	stats       StatsProvider
	logger      *zap.Logger
	now         func() time.Time

	// User states (in-memory state machine)
	states   map[int64]*domain.StateData
	stateMux sync.RWMutex

	// Per-user locks so double taps on a rating are processed one by one
	callbackLocks map[int64]*sync.Mutex
	callbackMux   sync.Mutex
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	authService *service.AuthService,
	reviews ReviewEngine,
	stats StatsProvider,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:           bot,
		authService:   authService,
		reviews:       reviews,
		stats:         stats,
		logger:        logger,
		now:           time.Now,
		states:        make(map[int64]*domain.StateData),
		callbackLocks: make(map[int64]*sync.Mutex),
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)

	// Text messages (password gate lives here)
	h.bot.Handle(tele.OnText, h.handleText)

	// Callback queries (inline buttons) require an authorized user
	authed := h.bot.Group()
	authed.Use(middleware.AuthMiddleware(h.authService, h.logger))

	authed.Handle(&btnReview, h.handleReview)
	authed.Handle(&btnNext, h.handleReview)
	authed.Handle(&btnNewWords, h.handleNewWords)
	authed.Handle(&btnStats, h.handleStats)
	authed.Handle(&btnBadges, h.handleBadges)
	authed.Handle(&btnActivity, h.handleActivity)
	authed.Handle(&btnReset, h.handleResetRequest)
	authed.Handle(&btnConfirmReset, h.handleResetConfirm)
	authed.Handle(&btnCancel, h.handleCancel)
	authed.Handle(&btnBack, h.handleStart)
	authed.Handle(&btnMainMenu, h.handleStart)

	// Generic callback handler for dynamic data
	authed.Handle(tele.OnCallback, h.handleCallback)
}

// GetState returns user's current state
func (h *Handler) GetState(userID int64) *domain.StateData {
	h.stateMux.RLock()
	defer h.stateMux.RUnlock()

	state, exists := h.states[userID]
	if !exists {
		return &domain.StateData{State: domain.StateIdle}
	}
	return state
}

// SetState sets user's state
func (h *Handler) SetState(userID int64, state *domain.StateData) {
	h.stateMux.Lock()
	defer h.stateMux.Unlock()
	h.states[userID] = state
}

// ResetState resets user to idle state
func (h *Handler) ResetState(userID int64) {
	h.SetState(userID, &domain.StateData{State: domain.StateIdle})
}

// lockUser serializes callbacks of one user and returns the unlock func
func (h *Handler) lockUser(userID int64) func() {
	h.callbackMux.Lock()
	lock, exists := h.callbackLocks[userID]
	if !exists {
		lock = &sync.Mutex{}
		h.callbackLocks[userID] = lock
	}
	h.callbackMux.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (h *Handler) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// Inline keyboard buttons
var (
	btnReview = tele.Btn{
		Unique: "review",
		Text:   "📚 Повторение",
	}
	btnNext = tele.Btn{
		Unique: "next",
		Text:   "➡️ Дальше",
	}
	btnNewWords = tele.Btn{
		Unique: "new_words",
		Text:   "🆕 Новые слова",
	}
	btnStats = tele.Btn{
		Unique: "stats",
		Text:   "📊 Статистика",
	}
	btnBadges = tele.Btn{
		Unique: "badges",
		Text:   "🏅 Значки",
	}
	btnActivity = tele.Btn{
		Unique: "activity",
		Text:   "📅 Активность",
	}
	btnReset = tele.Btn{
		Unique: "reset",
		Text:   "♻️ Сбросить прогресс",
	}
	btnConfirmReset = tele.Btn{
		Unique: "confirm_reset",
		Text:   "⚠️ Да, сбросить всё",
	}
	btnCancel = tele.Btn{
		Unique: "cancel",
		Text:   "❌ Отменить",
	}
	btnBack = tele.Btn{
		Unique: "back",
		Text:   "🏠 Назад",
	}
	btnMainMenu = tele.Btn{
		Unique: "main_menu",
		Text:   "🏠 Главное меню",
	}
)

const mainMenuText = "🏠 Главное меню\n\nВыберите действие:"

// mainMenuMarkup returns the main menu keyboard
func mainMenuMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnReview),
		menu.Row(btnNewWords),
		menu.Row(btnStats, btnBadges),
		menu.Row(btnActivity),
		menu.Row(btnReset),
	)
	return menu
}

// respond edits the callback message or sends a new one for commands
func (h *Handler) respond(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if c.Callback() != nil {
		if err := c.Edit(text, markup); err != nil {
			if handleErr := h.handleEditError(err, c, c.Sender().ID); handleErr == nil {
				return nil // Message was already modified, just acknowledged
			}
			return c.Send(text, markup)
		}
		return c.Respond()
	}
	return c.Send(text, markup)
}
