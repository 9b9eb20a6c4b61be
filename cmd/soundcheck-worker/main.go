package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"soundcheck/internal/config"
	"soundcheck/internal/db"
	"soundcheck/internal/game"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	svc := game.NewService(pool, logger)
	if cfg.StartupSeedWorld {
		if err := svc.SeedDefaults(ctx); err != nil {
			logger.Error("seed world failed", "err", err)
			os.Exit(1)
		}
	}

	runOnce := strings.EqualFold(strings.TrimSpace(os.Getenv("SOUNDCHECK_WORKER_RUN_ONCE")), "true")
	if runOnce {
		if err := svc.RunSalesTick(ctx); err != nil {
			logger.Error("sales tick failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	ticker := time.NewTicker(cfg.SalesTickEvery)
	defer ticker.Stop()

	logger.Info("worker started", "tick_every", cfg.SalesTickEvery.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			if err := svc.RunSalesTick(ctx); err != nil {
				logger.Error("sales tick failed", "err", err)
				continue
			}
			logger.Info("sales tick complete")
		}
	}
}
