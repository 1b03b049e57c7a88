package db

import (
	"context"
	"fmt"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/fantasy"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

// ScoreSummary describes one results upload.
type ScoreSummary struct {
	RaceID      int64 `json:"raceID"`
	StageNumber int   `json:"stageNumber"`
	Results     int   `json:"results"`
	Teams       int   `json:"teams"`
	Corrected   bool  `json:"corrected"`
}

// resultPoints scores a stored row. Stage 0 of a grand tour is the final
// general classification and pays the one-time bonus table.
func resultPoints(raceType fantasy.RaceType, stage int, r fantasy.Result) int {
	if raceType == fantasy.RaceGrandTour && stage == 0 {
		return fantasy.FinalClassificationPoints(r)
	}
	return fantasy.ResultPoints(r, raceType)
}

// ApplyResults stores the results of one race or stage and scores them.
// Uploading the same race and stage again replaces the earlier rows and
// moves cyclist and team totals by the difference.
func (s *Store) ApplyResults(ctx context.Context, raceID int64, stage int, results []models.RaceResult) (ScoreSummary, error) {
	summary := ScoreSummary{RaceID: raceID, StageNumber: stage, Results: len(results)}

	err := s.inTx(ctx, func(ctx context.Context, tx *Store) error {
		race, err := tx.Race(ctx, raceID)
		if err != nil {
			return err
		}
		raceType := fantasy.RaceType(race.RaceType)

		var previous []models.RaceResult
		err = tx.db.NewSelect().Model(&previous).
			Where("race_id = ? AND stage_number = ?", raceID, stage).
			Scan(ctx)
		if err != nil {
			return fmt.Errorf("previous results: %w", err)
		}
		summary.Corrected = len(previous) > 0

		delta := map[int64]int{}
		for _, r := range previous {
			delta[r.CyclistID] -= r.Points
		}

		if _, err := tx.db.NewDelete().Model((*models.RaceResult)(nil)).
			Where("race_id = ? AND stage_number = ?", raceID, stage).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete previous results: %w", err)
		}

		byCyclist := make(map[int64]int, len(results))
		for i := range results {
			r := &results[i]
			r.ID = 0
			r.RaceID = raceID
			r.StageNumber = stage
			if r.Status == "" {
				r.Status = string(fantasy.StatusFinished)
			}
			r.Points = resultPoints(raceType, stage, r.Result())
			byCyclist[r.CyclistID] += r.Points
			delta[r.CyclistID] += r.Points
		}
		if len(results) > 0 {
			if _, err := tx.db.NewInsert().Model(&results).Exec(ctx); err != nil {
				return fmt.Errorf("insert results: %w", err)
			}
		}

		for cyclistID, d := range delta {
			if d == 0 {
				continue
			}
			_, err := tx.db.NewUpdate().Model((*models.Cyclist)(nil)).
				Set("total_points = total_points + ?", d).
				Where("id = ?", cyclistID).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("update cyclist points: %w", err)
			}
		}

		n, err := tx.scoreTeams(ctx, raceID, stage, byCyclist)
		if err != nil {
			return err
		}
		summary.Teams = n
		return nil
	})
	return summary, err
}

func (s *Store) scoreTeams(ctx context.Context, raceID int64, stage int, byCyclist map[int64]int) (int, error) {
	var teams []models.FantasyTeam
	if err := s.db.NewSelect().Model(&teams).Relation("Cyclists").Scan(ctx); err != nil {
		return 0, fmt.Errorf("load teams: %w", err)
	}

	var previous []models.TeamRaceScore
	err := s.db.NewSelect().Model(&previous).
		Where("race_id = ? AND stage_number = ?", raceID, stage).
		Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("previous team scores: %w", err)
	}
	before := make(map[int64]int, len(previous))
	for _, p := range previous {
		before[p.TeamID] = p.Points
	}

	for i := range teams {
		team := &teams[i]
		picks := make([]fantasy.Pick, 0, len(team.Cyclists))
		for _, tc := range team.Cyclists {
			picks = append(picks, tc.Pick())
		}
		chip := team.ChipFor(raceID)
		score := fantasy.ScoreTeam(picks, byCyclist, chip)

		row := &models.TeamRaceScore{
			TeamID:      team.ID,
			RaceID:      raceID,
			StageNumber: stage,
			Points:      score.Total,
			Chip:        string(chip),
		}
		_, err := s.db.NewInsert().Model(row).
			On("CONFLICT (team_id, race_id, stage_number) DO UPDATE").
			Set("points = EXCLUDED.points").
			Set("chip = EXCLUDED.chip").
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("save team score: %w", err)
		}

		if d := score.Total - before[team.ID]; d != 0 {
			_, err := s.db.NewUpdate().Model((*models.FantasyTeam)(nil)).
				Set("total_points = total_points + ?", d).
				Where("id = ?", team.ID).
				Exec(ctx)
			if err != nil {
				return 0, fmt.Errorf("update team points: %w", err)
			}
		}
	}
	return len(teams), nil
}

// FinishRace closes a race: chips bound to it expire and every complete
// squad banks its transfer allowance.
func (s *Store) FinishRace(ctx context.Context, raceID int64) error {
	return s.inTx(ctx, func(ctx context.Context, tx *Store) error {
		res, err := tx.db.NewUpdate().Model((*models.Race)(nil)).
			Set("finished = true").
			Where("id = ? AND NOT finished", raceID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("finish race: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			if _, err := tx.Race(ctx, raceID); err != nil {
				return err
			}
			return nil
		}

		_, err = tx.db.NewUpdate().Model((*models.FantasyTeam)(nil)).
			Set("active_chip = ''").
			Set("active_chip_race_id = NULL").
			Where("active_chip_race_id = ?", raceID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("expire chips: %w", err)
		}

		_, err = tx.db.NewUpdate().Model((*models.FantasyTeam)(nil)).
			Set("free_transfers = LEAST(free_transfers + ?, ?)", fantasy.FreeTransfersPerRace, fantasy.MaxBankedTransfers).
			Where("squad_completed").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("bank transfers: %w", err)
		}
		return nil
	})
}
