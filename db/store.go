package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

var (
	// ErrNotFound is returned when a looked up row does not exist.
	ErrNotFound = sql.ErrNoRows
	// ErrConflict is returned for unique constraint violations.
	ErrConflict = errors.New("already exists")
)

// Store is the query layer shared by the HTTP handlers and the jobs.
type Store struct {
	db bun.IDB
}

// NewStore wraps a bun database or transaction.
func NewStore(db bun.IDB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection.
func (s *Store) DB() bun.IDB {
	return s.db
}

// inTx runs fn with a Store bound to a transaction.
func (s *Store) inTx(ctx context.Context, fn func(ctx context.Context, tx *Store) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Store{db: tx})
	})
}

func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "duplicate key value")
}

// CyclistFilter narrows ListCyclists.
type CyclistFilter struct {
	Category  string
	ProTeamID int64
	MaxPrice  float64
}

// ListCyclists returns cyclists ordered by price, most expensive first.
func (s *Store) ListCyclists(ctx context.Context, f CyclistFilter) ([]models.Cyclist, error) {
	var cyclists []models.Cyclist
	q := s.db.NewSelect().
		Model(&cyclists).
		Relation("ProTeam").
		OrderExpr("cy.price DESC, cy.name ASC")

	if f.Category != "" {
		q = q.Where("cy.category = ?", f.Category)
	}
	if f.ProTeamID != 0 {
		q = q.Where("cy.pro_team_id = ?", f.ProTeamID)
	}
	if f.MaxPrice > 0 {
		q = q.Where("cy.price <= ?", f.MaxPrice)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list cyclists: %w", err)
	}
	return cyclists, nil
}

// Cyclist loads one cyclist with its pro team.
func (s *Store) Cyclist(ctx context.Context, id int64) (*models.Cyclist, error) {
	c := &models.Cyclist{}
	err := s.db.NewSelect().Model(c).Relation("ProTeam").Where("cy.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CyclistIDsByName maps lower-cased rider names to ids.
func (s *Store) CyclistIDsByName(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		ID   int64  `bun:"id"`
		Name string `bun:"name"`
	}
	err := s.db.NewSelect().
		TableExpr("cyclists").
		ColumnExpr("id, name").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("cyclist names: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[strings.ToLower(strings.TrimSpace(r.Name))] = r.ID
	}
	return out, nil
}

// DemandHistory returns the most recent demand snapshots for a cyclist.
func (s *Store) DemandHistory(ctx context.Context, cyclistID int64, limit int) ([]models.CyclistDemand, error) {
	var rows []models.CyclistDemand
	err := s.db.NewSelect().
		Model(&rows).
		Where("cyclist_id = ?", cyclistID).
		OrderExpr("date DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("demand history: %w", err)
	}
	return rows, nil
}

// ListRaces returns the calendar, optionally only races from a date on.
func (s *Store) ListRaces(ctx context.Context, from string) ([]models.Race, error) {
	var races []models.Race
	q := s.db.NewSelect().Model(&races).OrderExpr("start_date ASC, id ASC")
	if from != "" {
		q = q.Where("end_date >= ?", from)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list races: %w", err)
	}
	return races, nil
}

// Race loads one race.
func (s *Store) Race(ctx context.Context, id int64) (*models.Race, error) {
	r := &models.Race{}
	if err := s.db.NewSelect().Model(r).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// CreateRace inserts a calendar entry.
func (s *Store) CreateRace(ctx context.Context, r *models.Race) error {
	if _, err := s.db.NewInsert().Model(r).Exec(ctx); err != nil {
		return fmt.Errorf("create race: %w", err)
	}
	return nil
}

// AddEntries puts cyclists on a race startlist, ignoring ones already there.
func (s *Store) AddEntries(ctx context.Context, raceID int64, cyclistIDs []int64) (int, error) {
	if len(cyclistIDs) == 0 {
		return 0, nil
	}
	entries := make([]models.RaceEntry, len(cyclistIDs))
	for i, id := range cyclistIDs {
		entries[i] = models.RaceEntry{RaceID: raceID, CyclistID: id}
	}
	res, err := s.db.NewInsert().
		Model(&entries).
		On("CONFLICT (race_id, cyclist_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("add entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// RaceResults returns the stored results for a race, stage by stage.
func (s *Store) RaceResults(ctx context.Context, raceID int64) ([]models.RaceResult, error) {
	var rows []models.RaceResult
	err := s.db.NewSelect().
		Model(&rows).
		Where("race_id = ?", raceID).
		OrderExpr("stage_number ASC, position ASC NULLS LAST, cyclist_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("race results: %w", err)
	}
	return rows, nil
}

// UserByName loads a user for sign-in.
func (s *Store) UserByName(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	if err := s.db.NewSelect().Model(u).Where("username = ?", username).Scan(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

// UpsertUser creates a user or replaces its password and admin flag.
func (s *Store) UpsertUser(ctx context.Context, u *models.User) error {
	_, err := s.db.NewInsert().Model(u).
		On("CONFLICT (username) DO UPDATE").
		Set("password = EXCLUDED.password").
		Set("is_admin = EXCLUDED.is_admin").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
