package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/i474232898/weather-dashboard/internal/app"
	"github.com/i474232898/weather-dashboard/internal/cli"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Logs go to stderr so command output stays clean.
	lg := logger.New(logger.Options{
		Level:   "warn",
		File:    cfg.LogFile,
		Service: "weather-cli",
		Out:     os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer a.Close()

	return cli.New(a.Aggregator, a.Search).ExecuteContext(ctx)
}
