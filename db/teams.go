package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/fantasy"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

var (
	ErrNotInTeam      = errors.New("cyclist is not in the team")
	ErrChipUsed       = errors.New("chip already used this season")
	ErrChipPending    = errors.New("another chip is already active")
	ErrInvalidLineup  = errors.New("invalid lineup")
	ErrTeamIncomplete = errors.New("squad is not complete")
)

// CreateTeam inserts a fresh squad for a user with the starting budget.
func (s *Store) CreateTeam(ctx context.Context, userID int64, name string) (*models.FantasyTeam, error) {
	team := &models.FantasyTeam{
		UserID:        &userID,
		TeamName:      name,
		Budget:        fantasy.InitialBudget,
		FreeTransfers: fantasy.FreeTransfersPerRace,
	}
	if _, err := s.db.NewInsert().Model(team).Exec(ctx); err != nil {
		if isDuplicate(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create team: %w", err)
	}
	return team, nil
}

// TeamByUser loads a user's squad with its riders.
func (s *Store) TeamByUser(ctx context.Context, userID int64) (*models.FantasyTeam, error) {
	return s.loadTeam(ctx, "ft.user_id = ?", userID, false)
}

// Team loads a squad by id with its riders.
func (s *Store) Team(ctx context.Context, teamID int64) (*models.FantasyTeam, error) {
	return s.loadTeam(ctx, "ft.id = ?", teamID, false)
}

func (s *Store) loadTeam(ctx context.Context, where string, arg interface{}, lock bool) (*models.FantasyTeam, error) {
	team := &models.FantasyTeam{}
	q := s.db.NewSelect().Model(team).Where(where, arg)
	if lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	err := s.db.NewSelect().
		Model(&team.Cyclists).
		Relation("Cyclist").
		Where("tc.team_id = ?", team.ID).
		OrderExpr("tc.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load team cyclists: %w", err)
	}
	return team, nil
}

// BuyOutcome reports what happened on a purchase attempt.
type BuyOutcome struct {
	Eligibility fantasy.Eligibility
	Penalty     int
	Team        *models.FantasyTeam
}

// BuyCyclist adds a cyclist to a user's squad at today's price when the
// engine allows it. An ineligible purchase is not an error: the outcome
// carries the tag for the caller to report.
func (s *Store) BuyCyclist(ctx context.Context, userID, cyclistID int64) (BuyOutcome, error) {
	var out BuyOutcome
	err := s.inTx(ctx, func(ctx context.Context, tx *Store) error {
		team, err := tx.loadTeam(ctx, "ft.user_id = ?", userID, true)
		if err != nil {
			return err
		}
		cyclist, err := tx.Cyclist(ctx, cyclistID)
		if err != nil {
			return err
		}

		out.Eligibility = fantasy.CheckEligibility(team.Snapshot(), cyclist.Candidate())
		if !out.Eligibility.Eligible() {
			out.Team = team
			return nil
		}

		tc := &models.TeamCyclist{
			TeamID:        team.ID,
			CyclistID:     cyclist.ID,
			PurchasePrice: cyclist.Price,
		}
		if _, err := tx.db.NewInsert().Model(tc).Exec(ctx); err != nil {
			return fmt.Errorf("insert team cyclist: %w", err)
		}

		team.Budget = fantasy.RoundPrice(team.Budget - cyclist.Price)
		if team.SquadCompleted {
			penalty, left := fantasy.TransferCost(team.FreeTransfers, fantasy.Chip(team.ActiveChip))
			out.Penalty = penalty
			team.FreeTransfers = left
			team.TotalPoints -= penalty
			transfer := &models.Transfer{
				TeamID:        team.ID,
				CyclistInID:   &cyclist.ID,
				Price:         cyclist.Price,
				PenaltyPoints: penalty,
			}
			if _, err := tx.db.NewInsert().Model(transfer).Exec(ctx); err != nil {
				return fmt.Errorf("insert transfer: %w", err)
			}
		}
		if len(team.Cyclists)+1 >= fantasy.SquadSize {
			team.SquadCompleted = true
		}

		_, err = tx.db.NewUpdate().Model(team).
			Column("budget", "free_transfers", "total_points", "squad_completed").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update team: %w", err)
		}

		tc.Cyclist = cyclist
		team.Cyclists = append(team.Cyclists, tc)
		out.Team = team
		return nil
	})
	return out, err
}

// SellCyclist removes a rider and refunds today's price.
func (s *Store) SellCyclist(ctx context.Context, userID, cyclistID int64) (*models.FantasyTeam, error) {
	var team *models.FantasyTeam
	err := s.inTx(ctx, func(ctx context.Context, tx *Store) error {
		var err error
		team, err = tx.loadTeam(ctx, "ft.user_id = ?", userID, true)
		if err != nil {
			return err
		}

		idx := -1
		for i, tc := range team.Cyclists {
			if tc.CyclistID == cyclistID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrNotInTeam
		}
		sold := team.Cyclists[idx]

		_, err = tx.db.NewDelete().Model((*models.TeamCyclist)(nil)).
			Where("id = ?", sold.ID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete team cyclist: %w", err)
		}

		refund := sold.PurchasePrice
		if sold.Cyclist != nil {
			refund = sold.Cyclist.Price
		}
		team.Budget = fantasy.RoundPrice(team.Budget + refund)
		if _, err := tx.db.NewUpdate().Model(team).Column("budget").WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("update team: %w", err)
		}

		if team.SquadCompleted {
			transfer := &models.Transfer{TeamID: team.ID, CyclistOutID: &cyclistID, Price: refund}
			if _, err := tx.db.NewInsert().Model(transfer).Exec(ctx); err != nil {
				return fmt.Errorf("insert transfer: %w", err)
			}
		}

		team.Cyclists = append(team.Cyclists[:idx], team.Cyclists[idx+1:]...)
		return nil
	})
	return team, err
}

// SetCaptain makes one rostered, active rider the captain.
func (s *Store) SetCaptain(ctx context.Context, userID, cyclistID int64) (*models.FantasyTeam, error) {
	var team *models.FantasyTeam
	err := s.inTx(ctx, func(ctx context.Context, tx *Store) error {
		var err error
		team, err = tx.loadTeam(ctx, "ft.user_id = ?", userID, true)
		if err != nil {
			return err
		}

		found := false
		for _, tc := range team.Cyclists {
			if tc.CyclistID == cyclistID {
				if !tc.IsActive {
					return fmt.Errorf("%w: captain must be in the active lineup", ErrInvalidLineup)
				}
				found = true
			}
		}
		if !found {
			return ErrNotInTeam
		}

		_, err = tx.db.NewUpdate().Model((*models.TeamCyclist)(nil)).
			Set("is_captain = (cyclist_id = ?)", cyclistID).
			Where("team_id = ?", team.ID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("set captain: %w", err)
		}
		for _, tc := range team.Cyclists {
			tc.IsCaptain = tc.CyclistID == cyclistID
		}
		return nil
	})
	return team, err
}

// SetLineup marks exactly ActiveSize rostered riders active. A captain left
// out of the lineup loses the armband.
func (s *Store) SetLineup(ctx context.Context, userID int64, active []int64) (*models.FantasyTeam, error) {
	if len(active) != fantasy.ActiveSize {
		return nil, fmt.Errorf("%w: %d active cyclists, needs %d", ErrInvalidLineup, len(active), fantasy.ActiveSize)
	}
	want := make(map[int64]bool, len(active))
	for _, id := range active {
		want[id] = true
	}
	if len(want) != fantasy.ActiveSize {
		return nil, fmt.Errorf("%w: duplicate cyclists", ErrInvalidLineup)
	}

	var team *models.FantasyTeam
	err := s.inTx(ctx, func(ctx context.Context, tx *Store) error {
		var err error
		team, err = tx.loadTeam(ctx, "ft.user_id = ?", userID, true)
		if err != nil {
			return err
		}

		owned := 0
		for _, tc := range team.Cyclists {
			if want[tc.CyclistID] {
				owned++
			}
		}
		if owned != fantasy.ActiveSize {
			return ErrNotInTeam
		}

		for _, tc := range team.Cyclists {
			tc.IsActive = want[tc.CyclistID]
			if !tc.IsActive {
				tc.IsCaptain = false
			}
			_, err := tx.db.NewUpdate().Model(tc).
				Column("is_active", "is_captain").
				WherePK().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("update lineup: %w", err)
			}
		}
		return nil
	})
	return team, err
}

// PlayChip binds a once-per-season chip to a race.
func (s *Store) PlayChip(ctx context.Context, userID int64, chip fantasy.Chip, raceID int64) (*models.FantasyTeam, error) {
	var team *models.FantasyTeam
	err := s.inTx(ctx, func(ctx context.Context, tx *Store) error {
		var err error
		team, err = tx.loadTeam(ctx, "ft.user_id = ?", userID, true)
		if err != nil {
			return err
		}
		if !team.SquadCompleted {
			return ErrTeamIncomplete
		}
		race, err := tx.Race(ctx, raceID)
		if err != nil {
			return err
		}
		if race.Finished {
			return fmt.Errorf("%w: race %d already finished", ErrInvalidLineup, raceID)
		}
		if team.ActiveChip != "" {
			return ErrChipPending
		}

		switch chip {
		case fantasy.ChipTripleCaptain:
			if team.TripleCaptainUsed {
				return ErrChipUsed
			}
			team.TripleCaptainUsed = true
		case fantasy.ChipBenchBoost:
			if team.BenchBoostUsed {
				return ErrChipUsed
			}
			team.BenchBoostUsed = true
		case fantasy.ChipWildcard:
			if team.WildcardUsed {
				return ErrChipUsed
			}
			team.WildcardUsed = true
		}
		team.ActiveChip = string(chip)
		team.ActiveChipRaceID = &raceID

		_, err = tx.db.NewUpdate().Model(team).
			Column("triple_captain_used", "bench_boost_used", "wildcard_used", "active_chip", "active_chip_race_id").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("play chip: %w", err)
		}
		return nil
	})
	return team, err
}
