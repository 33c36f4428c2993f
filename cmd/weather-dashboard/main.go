package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/app"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Service: "weather-dashboard",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("failed to build application")
	}
	defer func() {
		if err := a.Close(); err != nil {
			lg.Error().Err(err).Msg("error closing application")
		}
	}()

	// Scheduler that keeps tracked locations warm in the snapshot cache.
	sched := scheduler.New(cfg.Locations, cfg.RefreshInterval, a.Service, lg,
		scheduler.WithPruner(a.Snapshots),
		scheduler.WithRunTimeout(2*cfg.HTTPTimeout),
	)
	if err := sched.Start(); err != nil {
		lg.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	server := httpapi.NewServer(httpapi.Deps{
		Service:        a.Service,
		Search:         a.Search,
		Locations:      a.Locations,
		Advice:         a.Advice,
		SnapshotMaxAge: cfg.SnapshotMaxAge,
		Logger:         lg,
	}, a.Metrics)

	go func() {
		lg.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := server.Listen(":" + cfg.Port); err != nil {
			lg.Error().Err(err).Msg("fiber server stopped")
			stop()
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("error during shutdown")
	}
}
