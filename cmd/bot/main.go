package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ivanoskov/mani_bot/internal/app"
	"github.com/ivanoskov/mani_bot/internal/config"
	"github.com/ivanoskov/mani_bot/internal/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fatal(log.New(log.Config{Component: "main"}), "failed to load config", err)
	}

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: "main",
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		fatal(logger, "invalid configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "failed to start", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Bot.Start(gctx)
	})
	if cfg.HealthAddr != "" {
		g.Go(func() error {
			return a.Health.Run(gctx, cfg.HealthAddr)
		})
	}

	logger.Info("bot started", "store", cfg.StoreBackend, "window_days", cfg.ReportWindowDays)
	if err := g.Wait(); err != nil {
		logger.Error("bot stopped with error", "error", err)
		return
	}
	logger.Info("bot stopped")
}

func fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
