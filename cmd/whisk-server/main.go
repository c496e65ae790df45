package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/bradenpan/whisk-ai-prototype/internal/api"
	"github.com/bradenpan/whisk-ai-prototype/internal/app"
	"github.com/bradenpan/whisk-ai-prototype/internal/config"
	"github.com/bradenpan/whisk-ai-prototype/internal/logging"
	"github.com/bradenpan/whisk-ai-prototype/internal/telegram"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.App.LogLevel, cfg.App.LogFormat)
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("failed to close runtime", zap.Error(err))
		}
	}()

	opts := api.Options{
		Service:    rt.Service,
		Prometheus: rt.Prometheus,
		Logger:     logger,
		RateLimit:  cfg.RateLimit,
		DataDir:    rt.DataDir(),
		Debug:      cfg.App.Env == "development",
	}

	var bot *telegram.Bot
	if cfg.Telegram.BotToken != "" {
		botAPI, err := telegram.NewBotAPI(cfg.Telegram, logger)
		if err != nil {
			return err
		}
		bot = telegram.NewBot(botAPI, rt.Service, cfg.Telegram,
			telegram.WithLogger(logger),
			telegram.WithMetricsStore(rt.MetricsStore),
			telegram.WithDataDir(rt.DataDir()),
		)
		opts.Webhook = bot.Webhook
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port), zap.Bool("telegram", bot != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if bot != nil {
		bot.Wait()
	}
	logger.Info("server exited")
	return nil
}
