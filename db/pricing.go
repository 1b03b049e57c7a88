package db

import (
	"context"
	"fmt"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

// UpcomingRace is the next startlisted race for a cyclist.
type UpcomingRace struct {
	CyclistID int64 `bun:"cyclist_id"`
	RaceID    int64 `bun:"race_id"`
	DaysUntil int   `bun:"days_until"`
}

// PriceUpdate is the result of one cyclist's daily price run.
type PriceUpdate struct {
	CyclistID   int64
	Price       float64
	Popularity  float64
	BoostActive bool
	BoostRaceID *int64
	Demand      models.CyclistDemand
}

// AllCyclists returns every cyclist in id order.
func (s *Store) AllCyclists(ctx context.Context) ([]models.Cyclist, error) {
	var cyclists []models.Cyclist
	if err := s.db.NewSelect().Model(&cyclists).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("all cyclists: %w", err)
	}
	return cyclists, nil
}

// Ownership counts the teams rostering each cyclist and the total number
// of teams.
func (s *Store) Ownership(ctx context.Context) (map[int64]int, int, error) {
	total, err := s.db.NewSelect().Model((*models.FantasyTeam)(nil)).Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count teams: %w", err)
	}

	var rows []struct {
		CyclistID int64 `bun:"cyclist_id"`
		Owners    int   `bun:"owners"`
	}
	err = s.db.NewSelect().
		TableExpr("team_cyclists").
		ColumnExpr("cyclist_id, COUNT(DISTINCT team_id) AS owners").
		GroupExpr("cyclist_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, 0, fmt.Errorf("ownership: %w", err)
	}

	out := make(map[int64]int, len(rows))
	for _, r := range rows {
		out[r.CyclistID] = r.Owners
	}
	return out, total, nil
}

// PreviousOwnership returns each cyclist's latest ownership percentage
// recorded before date.
func (s *Store) PreviousOwnership(ctx context.Context, before string) (map[int64]float64, error) {
	var rows []struct {
		CyclistID    int64   `bun:"cyclist_id"`
		OwnershipPct float64 `bun:"ownership_pct"`
	}
	err := s.db.NewRaw(`
		SELECT DISTINCT ON (cyclist_id) cyclist_id, ownership_pct
		FROM cyclist_demand
		WHERE date < ?::date
		ORDER BY cyclist_id, date DESC`, before).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("previous ownership: %w", err)
	}

	out := make(map[int64]float64, len(rows))
	for _, r := range rows {
		out[r.CyclistID] = r.OwnershipPct
	}
	return out, nil
}

// PricedOn returns the cyclists that already have a demand snapshot for
// date, i.e. whose price was moved that day.
func (s *Store) PricedOn(ctx context.Context, date string) (map[int64]bool, error) {
	var ids []int64
	err := s.db.NewSelect().
		TableExpr("cyclist_demand").
		ColumnExpr("cyclist_id").
		Where("date = ?::date", date).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("priced on %s: %w", date, err)
	}

	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// UpcomingRaces finds, per cyclist, the nearest unfinished startlisted race
// starting within the next `within` days after today.
func (s *Store) UpcomingRaces(ctx context.Context, today string, within int) (map[int64]UpcomingRace, error) {
	var rows []UpcomingRace
	err := s.db.NewRaw(`
		SELECT DISTINCT ON (re.cyclist_id)
			re.cyclist_id, rc.id AS race_id, (rc.start_date - ?::date) AS days_until
		FROM race_entries re
		INNER JOIN races rc ON rc.id = re.race_id
		WHERE NOT rc.finished
			AND rc.start_date > ?::date
			AND rc.start_date <= ?::date + ?::integer
		ORDER BY re.cyclist_id, rc.start_date ASC`, today, today, today, within).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("upcoming races: %w", err)
	}

	out := make(map[int64]UpcomingRace, len(rows))
	for _, r := range rows {
		out[r.CyclistID] = r
	}
	return out, nil
}

// ConcludedRaces returns the ids of races that are marked finished or have
// ended before today.
func (s *Store) ConcludedRaces(ctx context.Context, today string) (map[int64]bool, error) {
	var ids []int64
	err := s.db.NewSelect().
		TableExpr("races").
		ColumnExpr("id").
		Where("finished OR end_date < ?::date", today).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("concluded races: %w", err)
	}

	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// SavePrice persists a cyclist's new price and today's demand snapshot.
func (s *Store) SavePrice(ctx context.Context, u PriceUpdate) error {
	return s.inTx(ctx, func(ctx context.Context, tx *Store) error {
		_, err := tx.db.NewUpdate().Model((*models.Cyclist)(nil)).
			Set("price = ?", u.Price).
			Set("popularity = ?", u.Popularity).
			Set("price_boost_active = ?", u.BoostActive).
			Set("price_boost_race_id = ?", u.BoostRaceID).
			Where("id = ?", u.CyclistID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update price: %w", err)
		}

		demand := u.Demand
		demand.CyclistID = u.CyclistID
		_, err = tx.db.NewInsert().Model(&demand).
			On("CONFLICT (cyclist_id, date) DO UPDATE").
			Set("ownership_count = EXCLUDED.ownership_count").
			Set("total_teams = EXCLUDED.total_teams").
			Set("ownership_pct = EXCLUDED.ownership_pct").
			Set("price = EXCLUDED.price").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("save demand: %w", err)
		}
		return nil
	})
}
