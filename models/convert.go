package models

import "github.com/brunomigmarques/CiclismoPortugal-sub006/fantasy"

// Candidate converts the cyclist into the engine's purchase view.
func (c *Cyclist) Candidate() fantasy.Candidate {
	return fantasy.Candidate{
		CyclistID: c.ID,
		Name:      c.Name,
		ProTeamID: c.ProTeamID,
		Category:  fantasy.Category(c.Category),
		Price:     c.Price,
		Points:    c.TotalPoints,
	}
}

// Pick converts a rostered rider. The Cyclist relation must be loaded.
func (tc *TeamCyclist) Pick() fantasy.Pick {
	p := fantasy.Pick{
		CyclistID:     tc.CyclistID,
		PurchasePrice: tc.PurchasePrice,
		IsActive:      tc.IsActive,
		IsCaptain:     tc.IsCaptain,
	}
	if tc.Cyclist != nil {
		p.ProTeamID = tc.Cyclist.ProTeamID
		p.Category = fantasy.Category(tc.Cyclist.Category)
	}
	return p
}

// Snapshot builds the validator view of the team. Cyclists must be loaded
// with their Cyclist relation.
func (t *FantasyTeam) Snapshot() fantasy.Snapshot {
	picks := make([]fantasy.Pick, 0, len(t.Cyclists))
	for _, tc := range t.Cyclists {
		picks = append(picks, tc.Pick())
	}
	return fantasy.Snapshot{Budget: t.Budget, Picks: picks}
}

// ChipFor returns the chip the team has bound to raceID, if any.
func (t *FantasyTeam) ChipFor(raceID int64) fantasy.Chip {
	if t.ActiveChipRaceID == nil || *t.ActiveChipRaceID != raceID {
		return fantasy.ChipNone
	}
	return fantasy.Chip(t.ActiveChip)
}

// Result converts the stored row for scoring.
func (r *RaceResult) Result() fantasy.Result {
	stage := r.StageNumber
	return fantasy.Result{
		CyclistID:         r.CyclistID,
		StageNumber:       &stage,
		Position:          r.Position,
		BonusPoints:       r.BonusPoints,
		IsGcLeader:        r.IsGcLeader,
		IsMountainsLeader: r.IsMountainsLeader,
		IsPointsLeader:    r.IsPointsLeader,
		IsYoungLeader:     r.IsYoungLeader,
		Status:            fantasy.ResultStatus(r.Status),
	}
}
