package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/redis/go-redis/v9"

	"github.com/samsepassi/portfolio-backend/internal/ai"
	"github.com/samsepassi/portfolio-backend/internal/api"
	"github.com/samsepassi/portfolio-backend/internal/config"
	"github.com/samsepassi/portfolio-backend/internal/db"
	"github.com/samsepassi/portfolio-backend/internal/email"
	"github.com/samsepassi/portfolio-backend/internal/ratelimit"
	"github.com/samsepassi/portfolio-backend/internal/scheduler"
	"github.com/samsepassi/portfolio-backend/internal/store"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port)

	// ── Database ──────────────────────────────────────────────────────────────
	pool, err := openDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	queries := db.New(pool)
	st := store.New(pool, queries)

	// ── Redis (optional, chat rate limiting only) ─────────────────────────────
	var limiter *ratelimit.Limiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: parse url: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		limiter = ratelimit.New(rdb, cfg.ChatRateLimit, cfg.ChatRateWindow, logger)
		logger.Info("chat rate limiting enabled",
			"limit", cfg.ChatRateLimit,
			"window", cfg.ChatRateWindow,
		)
	} else {
		logger.Info("REDIS_URL not set, chat rate limiting disabled")
	}

	// ── AI ────────────────────────────────────────────────────────────────────
	// OpenAI is primary. Anthropic is the fallback when ANTHROPIC_API_KEY is
	// also set. In production, set both keys for maximum resilience.
	var assistant ai.Assistant
	switch {
	case cfg.OpenAIAPIKey != "" && cfg.AnthropicAPIKey != "":
		primary := ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		secondary := ai.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		assistant = ai.NewFallbackAssistant(primary, secondary, logger)
		logger.Info("ai: using OpenAI with Anthropic fallback")
	case cfg.OpenAIAPIKey != "":
		assistant = ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		logger.Info("ai: using OpenAI only")
	default:
		assistant = ai.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		logger.Info("ai: using Anthropic only")
	}

	// ── Email (Resend) ────────────────────────────────────────────────────────
	mailer := email.NewResendClient(
		cfg.ResendAPIKey,
		cfg.EmailFromAddr,
		cfg.EmailFromName,
		cfg.OwnerEmail,
	)

	// ── Follow-up scheduler ───────────────────────────────────────────────────
	sched := scheduler.New(queries, st, mailer, scheduler.Config{
		PollInterval: cfg.PollInterval,
		InitialDelay: cfg.InitialDelay,
		BatchTimeout: cfg.BatchTimeout,
	}, logger)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(
		queries,
		assistant,
		sched,
		mailer,
		limiter,
		api.Config{Env: cfg.Env},
		logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // chat turns wait on the AI provider
		IdleTimeout:  120 * time.Second,
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the HTTP server in a background goroutine.
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Start the follow-up poll loop once the server is up. Initialize returns
	// immediately; the first poll happens after the configured initial delay.
	sched.Initialize()

	// Block until either a signal arrives or the server dies unexpectedly.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		sched.Stop()
		return fmt.Errorf("server error: %w", err)
	}

	// Give in-flight HTTP requests up to 20 seconds to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sched.Stop()
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Stop the poll loop last so a welcome email triggered by a final request
	// still gets its immediate cycle.
	sched.Stop()

	logger.Info("shutdown complete")
	return nil
}

// openDB opens and verifies the connection pool.
func openDB(dsn string) (*sql.DB, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	// Tune the connection pool.
	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(10)
	pool.SetConnMaxLifetime(5 * time.Minute)
	pool.SetConnMaxIdleTime(2 * time.Minute)

	// Verify the connection is reachable before proceeding.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}
