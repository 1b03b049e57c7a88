// cmd/migrate/main.go
// Imports the cyclist catalogue and race calendar from the legacy MySQL
// database into the local PostgreSQL database.
//
// Usage:
//
//	MYSQL_DSN="user:pass@tcp(host:3306)/ciclismo?parseTime=true" \
//	DB_PASS="pgpass" \
//	go run ./cmd/migrate
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/config"
	bundb "github.com/brunomigmarques/CiclismoPortugal-sub006/db"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/fantasy"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

const batchSize = 500

func main() {
	ctx := context.Background()

	cfg := config.Load()

	// --- MySQL ---
	if cfg.MySQLDSN == "" {
		log.Fatal("MYSQL_DSN required, e.g.: user:pass@tcp(host:3306)/ciclismo?parseTime=true")
	}
	myDB, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("open mysql: %v", err)
	}
	defer myDB.Close()
	myDB.SetMaxOpenConns(4)
	if err := myDB.PingContext(ctx); err != nil {
		log.Fatalf("ping mysql: %v", err)
	}
	log.Println("connected to MySQL")

	// --- PostgreSQL ---
	pgDB := bundb.Setup(cfg)
	defer pgDB.Close()
	log.Println("connected to PostgreSQL")

	if err := bundb.CreateTables(ctx, pgDB); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"users", func() (int, error) { return migrateUsers(ctx, myDB, pgDB) }},
		{"pro_teams", func() (int, error) { return migrateProTeams(ctx, myDB, pgDB) }},
		{"cyclists", func() (int, error) { return migrateCyclists(ctx, myDB, pgDB) }},
		{"races", func() (int, error) { return migrateRaces(ctx, myDB, pgDB) }},
		{"race_entries", func() (int, error) { return migrateEntries(ctx, myDB, pgDB) }},
	}

	for _, s := range steps {
		n, err := s.fn()
		if err != nil {
			log.Fatalf("migrate %s: %v", s.name, err)
		}
		log.Printf("%-15s  %d rows migrated", s.name, n)
	}

	resetSequences(ctx, pgDB)
	log.Println("migration complete")
}

// --- helpers ---

func fmtDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// bulkInsert inserts a batch, skipping rows that already exist (idempotent re-runs).
func bulkInsert[T any](ctx context.Context, pgDB *bun.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := pgDB.NewInsert().Model(&rows).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

// copyRows scans every row of query with scan and inserts the results in
// batches.
func copyRows[T any](ctx context.Context, myDB *sql.DB, pgDB *bun.DB, query string, scan func(*sql.Rows) (T, bool, error)) (int, error) {
	rows, err := myDB.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []T
	total := 0
	for rows.Next() {
		r, keep, err := scan(rows)
		if err != nil {
			return total, err
		}
		if !keep {
			continue
		}
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, pgDB, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := bulkInsert(ctx, pgDB, batch); err != nil {
		return total, err
	}
	return total + len(batch), rows.Err()
}

// legacyCategory maps the old free-text specialty onto a game category.
func legacyCategory(s string) (fantasy.Category, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GC", "GENERAL", "ALL-ROUNDER", "ALLROUNDER":
		return fantasy.CategoryGC, true
	case "CLIMBER", "MOUNTAIN", "TREPADOR":
		return fantasy.CategoryClimber, true
	case "SPRINT", "SPRINTER":
		return fantasy.CategorySprint, true
	case "TT", "TIME TRIAL", "ROULEUR":
		return fantasy.CategoryTT, true
	case "HILLS", "PUNCHEUR", "PUNCHER":
		return fantasy.CategoryHills, true
	case "ONEDAY", "ONE_DAY", "CLASSICS", "CLASSICOS":
		return fantasy.CategoryOneDay, true
	}
	return "", false
}

// --- per-table migrations ---

func migrateUsers(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	return copyRows(ctx, myDB, pgDB,
		"SELECT id, username, password, is_admin FROM users",
		func(rows *sql.Rows) (models.User, bool, error) {
			var r models.User
			err := rows.Scan(&r.ID, &r.Username, &r.Password, &r.IsAdmin)
			return r, err == nil, err
		})
}

func migrateProTeams(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	return copyRows(ctx, myDB, pgDB,
		"SELECT id, name, code, country FROM pro_teams",
		func(rows *sql.Rows) (models.ProTeam, bool, error) {
			var (
				r       models.ProTeam
				country sql.NullString
			)
			err := rows.Scan(&r.ID, &r.Name, &r.Code, &country)
			r.Country = country.String
			return r, err == nil, err
		})
}

func migrateCyclists(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	return copyRows(ctx, myDB, pgDB,
		`SELECT id, name, nationality, category, pro_team_id, price, total_points
		 FROM cyclists`,
		func(rows *sql.Rows) (models.Cyclist, bool, error) {
			var (
				r           models.Cyclist
				nationality sql.NullString
				category    string
			)
			if err := rows.Scan(&r.ID, &r.Name, &nationality, &category, &r.ProTeamID, &r.Price, &r.TotalPoints); err != nil {
				return r, false, err
			}
			cat, ok := legacyCategory(category)
			if !ok {
				log.Printf("cyclist %d %q: unknown category %q, skipped", r.ID, r.Name, category)
				return r, false, nil
			}
			r.Category = string(cat)
			r.Nationality = nationality.String
			r.Price = fantasy.RoundPrice(fantasy.ClampPrice(r.Price))
			r.BasePrice = r.Price
			return r, true, nil
		})
}

func migrateRaces(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	return copyRows(ctx, myDB, pgDB,
		`SELECT id, name, race_type, start_date, end_date, stages, country, url, finished
		 FROM races`,
		func(rows *sql.Rows) (models.Race, bool, error) {
			var (
				r            models.Race
				raceType     string
				start, end   time.Time
				country, url sql.NullString
			)
			if err := rows.Scan(&r.ID, &r.Name, &raceType, &start, &end, &r.Stages, &country, &url, &r.Finished); err != nil {
				return r, false, err
			}
			rt, ok := fantasy.ParseRaceType(strings.ToUpper(raceType))
			if !ok {
				log.Printf("race %d %q: unknown type %q, skipped", r.ID, r.Name, raceType)
				return r, false, nil
			}
			r.RaceType = string(rt)
			r.StartDate = fmtDate(start)
			r.EndDate = fmtDate(end)
			r.Country = country.String
			r.URL = url.String
			if r.Stages < 1 {
				r.Stages = 1
			}
			return r, true, nil
		})
}

func migrateEntries(ctx context.Context, myDB *sql.DB, pgDB *bun.DB) (int, error) {
	return copyRows(ctx, myDB, pgDB,
		"SELECT race_id, cyclist_id FROM race_entries",
		func(rows *sql.Rows) (models.RaceEntry, bool, error) {
			var r models.RaceEntry
			err := rows.Scan(&r.RaceID, &r.CyclistID)
			return r, err == nil, err
		})
}

// resetSequences advances each PG sequence to MAX(id) so new inserts don't conflict.
func resetSequences(ctx context.Context, pgDB *bun.DB) {
	for _, table := range []string{"users", "pro_teams", "cyclists", "races", "race_entries"} {
		q := fmt.Sprintf(
			"SELECT setval('%s_id_seq', COALESCE((SELECT MAX(id) FROM %s), 1))",
			table, table,
		)
		if _, err := pgDB.ExecContext(ctx, q); err != nil {
			log.Printf("reset seq %s: %v", table, err)
		}
	}
	log.Println("sequences reset")
}
