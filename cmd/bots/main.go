// cmd/bots/main.go
// Generates bot fantasy teams, optionally enrolling them in a league.
//
// Usage:
//
//	go run ./cmd/bots -count 50 [-seed 42] [-league 3]
package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/config"
	bundb "github.com/brunomigmarques/CiclismoPortugal-sub006/db"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/jobs"
	applog "github.com/brunomigmarques/CiclismoPortugal-sub006/logger"
)

func main() {
	count := flag.Int("count", 20, "number of bot teams to create")
	seed := flag.Int64("seed", 0, "random seed (0 uses BOT_SEED, then the clock)")
	league := flag.Int64("league", 0, "league id to enrol every bot in")
	flag.Parse()

	cfg := config.Load()
	logger, err := applog.New("bots", cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if *count <= 0 {
		logger.Fatal("count must be positive", zap.Int("count", *count))
	}
	if *seed == 0 {
		*seed = cfg.BotSeed
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	ctx := context.Background()
	db := bundb.Setup(cfg)
	defer db.Close()
	if err := bundb.CreateTables(ctx, db); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}
	store := bundb.NewStore(db)

	report, err := jobs.CreateBots(ctx, store, *count, *seed, logger)
	if err != nil {
		logger.Fatal("bot generation failed", zap.Error(err))
	}

	if *league != 0 {
		n, err := store.AddBotsToLeague(ctx, *league)
		if err != nil {
			logger.Fatal("enrol bots failed", zap.Error(err))
		}
		logger.Info("bots enrolled", zap.Int64("league_id", *league), zap.Int("added", n))
	}
	logger.Info("done", zap.Int("created", report.Created), zap.Int("skipped", report.Skipped), zap.Int64("seed", report.Seed))
}
