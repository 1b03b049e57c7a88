package db

import (
	"context"
	"fmt"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/fantasy"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

// TeamNames returns every fantasy team name in use.
func (s *Store) TeamNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.NewSelect().
		TableExpr("fantasy_teams").
		ColumnExpr("team_name").
		Scan(ctx, &names)
	if err != nil {
		return nil, fmt.Errorf("team names: %w", err)
	}
	return names, nil
}

// SaveBotTeam persists one generated bot squad.
func (s *Store) SaveBotTeam(ctx context.Context, bot fantasy.BotTeam) (*models.FantasyTeam, error) {
	team := &models.FantasyTeam{
		TeamName:       bot.Name,
		Budget:         bot.Budget,
		FreeTransfers:  fantasy.FreeTransfersPerRace,
		IsBot:          true,
		Strategy:       string(bot.Strategy),
		SquadCompleted: len(bot.Picks) == fantasy.SquadSize,
	}

	err := s.inTx(ctx, func(ctx context.Context, tx *Store) error {
		if _, err := tx.db.NewInsert().Model(team).Exec(ctx); err != nil {
			if isDuplicate(err) {
				return ErrConflict
			}
			return fmt.Errorf("insert bot team: %w", err)
		}
		if len(bot.Picks) == 0 {
			return nil
		}

		rows := make([]*models.TeamCyclist, len(bot.Picks))
		for i, p := range bot.Picks {
			rows[i] = &models.TeamCyclist{
				TeamID:        team.ID,
				CyclistID:     p.CyclistID,
				IsActive:      p.IsActive,
				IsCaptain:     p.IsCaptain,
				PurchasePrice: p.PurchasePrice,
			}
		}
		if _, err := tx.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert bot cyclists: %w", err)
		}
		team.Cyclists = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}
