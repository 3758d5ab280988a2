// ledger serves the personal finance ledger over HTTP and, when a bot token
// is configured, over Telegram.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/cli"
	apphttp "ledger/internal/http"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/telegram"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(cli.SetupLogger(slog.LevelInfo, os.Stderr), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg.SlogLevel(), os.Stdout)
	logger.Info("Starting ledger", log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", cfg.Timezone)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	res, err := cli.InitBackend(ctx, logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Cleanup failed", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, res.Service, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Checks:             res.Checks,
		Logger:             logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if cfg.TelegramBotToken != "" {
		limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})
		defer limiter.Stop()

		router := telegram.NewRouter(res.Service,
			telegram.WithRateLimiter(limiter),
			telegram.WithLogger(logger))
		bot, err := telegram.NewBot(cfg.TelegramBotToken, router, int(cfg.TelegramPollTimeout.Seconds()), logger)
		if err != nil {
			// Without the bot the HTTP API is still useful
			logger.Error("Telegram disabled", log.FieldError, err)
		} else {
			g.Go(func() error { return bot.Run(gctx) })
		}
	} else {
		logger.Info("Telegram disabled, no TELEGRAM_BOT_TOKEN provided")
	}

	if err := g.Wait(); err != nil {
		logger.Error("Ledger stopped with error", log.FieldError, err)
		stop()
		_ = res.Cleanup()
		os.Exit(1)
	}
	logger.Info("Ledger stopped gracefully", log.FieldOperation, log.OpShutdown)
}
