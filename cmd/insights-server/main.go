package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/support-insights/internal/config"
	"github.com/tjfontaine/support-insights/internal/fetch"
	"github.com/tjfontaine/support-insights/internal/report"
	"github.com/tjfontaine/support-insights/internal/server"
	"github.com/tjfontaine/support-insights/internal/store"
	"github.com/tjfontaine/support-insights/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("support-insights", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	client := store.New(cfg.Store.BaseURL, cfg.Store.APIKey, store.WithLogger(logger))

	engine := report.NewService(client,
		report.WithLogger(logger),
		report.WithFetchOptions(fetch.Options{
			PageSize:    cfg.Report.PageSize,
			Concurrency: cfg.Report.Concurrency,
			Pause:       cfg.Report.BatchPauseDuration(),
		}),
		report.WithTimeout(cfg.Report.TimeoutDuration()),
		report.WithExcludedAgents(cfg.Report.ExcludedAgents),
	)

	srv := server.New(server.Config{
		Port:           cfg.Server.Port,
		RequestTimeout: cfg.Server.RequestTimeoutDuration(),
	}, engine, logger)

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	logger.Info("insights server started",
		slog.Int("port", cfg.Server.Port),
		slog.String("store", cfg.Store.BaseURL),
	)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received, stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}
