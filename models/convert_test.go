package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/fantasy"
)

func TestFantasyTeamSnapshot(t *testing.T) {
	team := &FantasyTeam{
		Budget: 42.5,
		Cyclists: []*TeamCyclist{
			{CyclistID: 1, PurchasePrice: 10, IsActive: true, IsCaptain: true,
				Cyclist: &Cyclist{ID: 1, ProTeamID: 9, Category: "GC"}},
			{CyclistID: 2, PurchasePrice: 5.5,
				Cyclist: &Cyclist{ID: 2, ProTeamID: 4, Category: "TT"}},
		},
	}

	snap := team.Snapshot()
	assert.Equal(t, 42.5, snap.Budget)
	assert.Equal(t, []fantasy.Pick{
		{CyclistID: 1, ProTeamID: 9, Category: fantasy.CategoryGC, PurchasePrice: 10, IsActive: true, IsCaptain: true},
		{CyclistID: 2, ProTeamID: 4, Category: fantasy.CategoryTT, PurchasePrice: 5.5},
	}, snap.Picks)
}

func TestChipFor(t *testing.T) {
	race := int64(7)
	team := &FantasyTeam{ActiveChip: string(fantasy.ChipTripleCaptain), ActiveChipRaceID: &race}
	assert.Equal(t, fantasy.ChipTripleCaptain, team.ChipFor(7))
	assert.Equal(t, fantasy.ChipNone, team.ChipFor(8))
	assert.Equal(t, fantasy.ChipNone, (&FantasyTeam{}).ChipFor(7))
}

func TestRaceResultConversion(t *testing.T) {
	p := 3
	r := &RaceResult{CyclistID: 5, StageNumber: 2, Position: &p, IsYoungLeader: true, Status: "FINISHED"}
	got := r.Result()
	assert.Equal(t, int64(5), got.CyclistID)
	assert.Equal(t, 2, *got.StageNumber)
	assert.Equal(t, 35+fantasy.YoungLeaderBonus, fantasy.ResultPoints(got, fantasy.RaceStage))
}
