package db

import (
	"context"
	"fmt"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

// Standing is one row of a league table.
type Standing struct {
	Rank        int    `bun:"-" json:"rank"`
	TeamID      int64  `bun:"team_id" json:"teamID"`
	TeamName    string `bun:"team_name" json:"teamName"`
	TotalPoints int    `bun:"total_points" json:"totalPoints"`
	IsBot       bool   `bun:"is_bot" json:"isBot"`
}

// CreateLeague inserts a league and enrols the owner's team.
func (s *Store) CreateLeague(ctx context.Context, l *models.League, ownerTeamID int64) error {
	return s.inTx(ctx, func(ctx context.Context, tx *Store) error {
		if _, err := tx.db.NewInsert().Model(l).Exec(ctx); err != nil {
			if isDuplicate(err) {
				return ErrConflict
			}
			return fmt.Errorf("create league: %w", err)
		}
		return tx.addMember(ctx, l.ID, ownerTeamID)
	})
}

// JoinLeague enrols a team in the league with the given code.
func (s *Store) JoinLeague(ctx context.Context, code string, teamID int64) (*models.League, error) {
	l := &models.League{}
	if err := s.db.NewSelect().Model(l).Where("code = ?", code).Scan(ctx); err != nil {
		return nil, err
	}
	if err := s.addMember(ctx, l.ID, teamID); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Store) addMember(ctx context.Context, leagueID, teamID int64) error {
	_, err := s.db.NewInsert().
		Model(&models.LeagueMember{LeagueID: leagueID, TeamID: teamID}).
		On("CONFLICT (league_id, team_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("add league member: %w", err)
	}
	return nil
}

// AddBotsToLeague enrols every bot team in a league.
func (s *Store) AddBotsToLeague(ctx context.Context, leagueID int64) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO league_members (league_id, team_id)
		SELECT ?, id FROM fantasy_teams WHERE is_bot
		ON CONFLICT (league_id, team_id) DO NOTHING`, leagueID)
	if err != nil {
		return 0, fmt.Errorf("add bots to league: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Standings returns the league table, highest points first. Ties share a rank.
func (s *Store) Standings(ctx context.Context, leagueID int64) ([]Standing, error) {
	var rows []Standing
	err := s.db.NewSelect().
		TableExpr("league_members lm").
		ColumnExpr("ft.id AS team_id, ft.team_name, ft.total_points, ft.is_bot").
		Join("INNER JOIN fantasy_teams ft ON ft.id = lm.team_id").
		Where("lm.league_id = ?", leagueID).
		OrderExpr("ft.total_points DESC, ft.team_name ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("standings: %w", err)
	}
	Rank(rows)
	return rows, nil
}

// Rank assigns competition ranks (1, 2, 2, 4) to rows already sorted by
// points descending.
func Rank(rows []Standing) {
	for i := range rows {
		if i > 0 && rows[i].TotalPoints == rows[i-1].TotalPoints {
			rows[i].Rank = rows[i-1].Rank
			continue
		}
		rows[i].Rank = i + 1
	}
}
