package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/config"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

// Setup opens a PostgreSQL connection using the provided config.
func Setup(cfg *config.Config) *bun.DB {
	db := Open(cfg.PostgresDSN(), cfg.Debug)

	if err := db.PingContext(context.Background()); err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	return db
}

// Open wraps a pgdriver connector in bun without checking connectivity.
func Open(dsn string, debug bool) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// CreateTables creates all tables in dependency order.
func CreateTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.User)(nil),
		(*models.ProTeam)(nil),
		(*models.Cyclist)(nil),
		(*models.Race)(nil),
		(*models.RaceEntry)(nil),
		(*models.RaceResult)(nil),
		(*models.FantasyTeam)(nil),
		(*models.TeamCyclist)(nil),
		(*models.TeamRaceScore)(nil),
		(*models.Transfer)(nil),
		(*models.CyclistDemand)(nil),
		(*models.League)(nil),
		(*models.LeagueMember)(nil),
	}

	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("creating table for %T: %w", model, err)
		}
	}

	constraints := []string{
		`DO $$ BEGIN IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'race_results_no_dupes') THEN ALTER TABLE race_results ADD CONSTRAINT race_results_no_dupes UNIQUE (race_id, cyclist_id, stage_number); END IF; END $$`,
		`CREATE INDEX IF NOT EXISTS team_cyclists_cyclist_idx ON team_cyclists (cyclist_id)`,
		`CREATE INDEX IF NOT EXISTS cyclist_demand_date_idx ON cyclist_demand (date)`,
	}
	for _, stmt := range constraints {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			log.Printf("constraint: %v", err)
		}
	}

	return nil
}
