package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v3"

	"lexis/internal/badge"
	"lexis/internal/config"
	"lexis/internal/handler"
	"lexis/internal/httpapi"
	"lexis/internal/repository/postgres"
	"lexis/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations, the HTTP API and the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting lexis", zap.String("env", cfg.Env), zap.String("timezone", cfg.Timezone))

	// Connect to database with retries
	db, err := connectDatabase(ctx, cfg.DSN(), logger)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("Database connection established")

	if err := runMigrations(db, cfg.MigrationsPath, logger); err != nil {
		return err
	}

	loc := cfg.Location()
	store := postgres.NewStore(db, loc)

	evaluator, err := badge.NewEvaluator(logger)
	if err != nil {
		return fmt.Errorf("failed to create badge evaluator: %w", err)
	}

	// Initialize services
	reviewService := service.NewReviewService(store, evaluator, logger, service.WithLocation(loc))
	statsService := service.NewStatsService(store, logger)

	server := httpapi.NewServer(reviewService, statsService, logger)

	var bot *tele.Bot
	if cfg.BotEnabled() {
		bot, err = tele.NewBot(tele.Settings{
			Token:  cfg.BotToken,
			Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		})
		if err != nil {
			return fmt.Errorf("failed to create bot: %w", err)
		}

		authService := service.NewAuthService(postgres.NewLearnerRepo(db), cfg.BotPassword)
		h := handler.NewHandler(bot, authService, reviewService, statsService, logger)
		h.RegisterHandlers()

		logger.Info("Telegram bot initialized")
	} else {
		logger.Info("BOT_TOKEN is empty, Telegram bot disabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	if bot != nil {
		started := make(chan struct{})
		g.Go(func() error {
			close(started)
			bot.Start()
			return nil
		})
		g.Go(func() error {
			<-started
			<-gctx.Done()
			bot.Stop()
			logger.Info("Bot stopped")
			return nil
		})
	}

	g.Go(func() error {
		if err := server.Start(cfg.HTTPAddr); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, stopping...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Stopped gracefully")
	return nil
}
