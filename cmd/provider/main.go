// Mock provider binaries for local runs. Each speaks the uniform provider
// REST contract the service's HTTP adapter expects.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	port := getEnv("PORT", "9101")
	providerType := getEnv("PROVIDER_TYPE", "viaroute")

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	var mock *mockProvider
	switch providerType {
	case "viaroute":
		mock = newViaroute(logger)
	case "stayhub":
		mock = newStayhub(logger)
	case "forketta":
		mock = newForketta(logger)
	default:
		logger.Error("unknown provider type", "type", providerType)
		os.Exit(1)
	}
	logger.Info("starting provider", "type", providerType, "port", port)

	mux := http.NewServeMux()
	mock.register(mux)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write healthz response", "error", err)
		}
	})

	addr := ":" + port
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
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
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
