// cmd/pricer/main.go
// Runs the daily cyclist price update once and exits.
//
// Usage:
//
//	go run ./cmd/pricer
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/cache"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/config"
	bundb "github.com/brunomigmarques/CiclismoPortugal-sub006/db"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/jobs"
	applog "github.com/brunomigmarques/CiclismoPortugal-sub006/logger"
)

func main() {
	cfg := config.Load()
	logger, err := applog.New("pricer", cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := bundb.Setup(cfg)
	defer db.Close()

	var lock jobs.Locker
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis unavailable", zap.Error(err))
		}
		defer rc.Close()
		lock = rc
	}

	report, err := jobs.NewPriceUpdater(bundb.NewStore(db), lock, logger).Run(ctx)
	if errors.Is(err, jobs.ErrAlreadyRunning) {
		logger.Warn("another price update is running")
		return
	}
	if err != nil {
		logger.Fatal("price update failed", zap.Error(err))
	}
	logger.Info("done",
		zap.Int("updated", report.Updated),
		zap.Int("risen", report.Risen),
		zap.Int("fallen", report.Fallen),
		zap.Int("boosted", report.Boosted),
		zap.Int("reset", report.Reset),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
}
