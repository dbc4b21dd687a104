package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tripmesh/inventory/internal/booking"
	"github.com/tripmesh/inventory/internal/codes"
	"github.com/tripmesh/inventory/internal/config"
	"github.com/tripmesh/inventory/internal/handler"
	"github.com/tripmesh/inventory/internal/middleware"
	"github.com/tripmesh/inventory/internal/obs"
	"github.com/tripmesh/inventory/internal/providers"
	"github.com/tripmesh/inventory/internal/ratelimit"
	"github.com/tripmesh/inventory/internal/search"
)

// Run initializes and runs the application.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Env)
	slog.SetDefault(logger)

	metrics := obs.NewMetrics(logger)

	// Build adapters and the registry from configuration; the registry is
	// immutable after this point.
	var (
		adapters []providers.Adapter
		fallback providers.Adapter
	)
	for _, ac := range cfg.Adapters {
		a := providers.NewHTTPAdapter(ac.Name, ac.BaseURL, ac.Types, cfg.TaskTimeout)
		adapters = append(adapters, a)
		if ac.Name == cfg.FallbackAdapter {
			fallback = a
		}
	}
	registry, err := providers.NewRegistry(adapters, fallback)
	if err != nil {
		return err
	}

	// Code-indirection cache: Redis when configured, in-memory otherwise.
	var store codes.Store
	if cfg.RedisAddr != "" {
		store = codes.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		logger.Info("using redis code store", "addr", cfg.RedisAddr)
	} else {
		store = codes.NewMemoryStore()
	}
	cache := codes.NewCache(store, cfg.CodeTTL)
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Error("failed to close code store", "error", err)
		}
	}()

	normalizer := search.NewNormalizer(cache, logger)
	orchestrator := search.NewOrchestrator(registry, normalizer, cfg.Workers, cfg.TaskTimeout, metrics, logger)
	bookings := booking.NewService(registry, cache, normalizer, &booking.LogRecorder{Logger: logger}, metrics, logger)

	limiter := ratelimit.New(cfg.RateRPS, cfg.RateBurst)
	defer limiter.Close()

	h := handler.New(orchestrator, bookings, limiter, metrics, logger)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /healthz", obs.HealthHandler(logger))
	mux.HandleFunc("GET /metrics", metrics.MetricsHandler())

	// Middleware: request logging outermost, then the per-request org snapshot.
	wrapped := middleware.Logging(logger)(
		middleware.OrgContext(cfg.EnabledProviders, cfg.TestMode)(mux),
	)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      wrapped,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 45 * time.Second, // must outlive the slowest adapter task
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "addr", srv.Addr, "adapters", len(adapters))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

// newLogger builds the process logger: human-readable in development, JSON
// elsewhere.
func newLogger(env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
