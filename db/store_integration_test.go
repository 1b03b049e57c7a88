package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/fantasy"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

// setupStore starts a PostgreSQL container, creates the schema and returns
// a Store on it.
func setupStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("fantasy"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	bdb := Open(dsn, false)
	t.Cleanup(func() { _ = bdb.Close() })
	require.NoError(t, CreateTables(ctx, bdb))

	return NewStore(bdb)
}

// seedSquadPool inserts one rider per squad slot, each on its own pro team.
func seedSquadPool(t *testing.T, ctx context.Context, s *Store) []models.Cyclist {
	t.Helper()
	var cyclists []models.Cyclist
	n := 0
	for _, cat := range fantasy.Categories {
		for i := 0; i < fantasy.CategoryRequirements[cat]; i++ {
			n++
			team := &models.ProTeam{Name: fmt.Sprintf("Team %d", n), Code: fmt.Sprintf("T%02d", n)}
			_, err := s.DB().NewInsert().Model(team).Exec(ctx)
			require.NoError(t, err)

			c := models.Cyclist{
				Name:      fmt.Sprintf("Rider %d", n),
				Category:  string(cat),
				ProTeamID: team.ID,
				Price:     6,
				BasePrice: 6,
			}
			_, err = s.DB().NewInsert().Model(&c).Exec(ctx)
			require.NoError(t, err)
			cyclists = append(cyclists, c)
		}
	}
	return cyclists
}

func TestStore_SquadLifecycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	cyclists := seedSquadPool(t, ctx, s)

	user := &models.User{Username: "ana", Password: "x"}
	require.NoError(t, s.UpsertUser(ctx, user))
	user, err := s.UserByName(ctx, "ana")
	require.NoError(t, err)

	_, err = s.CreateTeam(ctx, user.ID, "Volta Fans")
	require.NoError(t, err)
	_, err = s.CreateTeam(ctx, user.ID, "Volta Fans")
	assert.ErrorIs(t, err, ErrConflict)

	for _, c := range cyclists {
		out, err := s.BuyCyclist(ctx, user.ID, c.ID)
		require.NoError(t, err)
		require.True(t, out.Eligibility.Eligible(), out.Eligibility.Reason())
	}

	team, err := s.TeamByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, team.SquadCompleted)
	assert.InDelta(t, 10.0, team.Budget, 1e-9)
	assert.Len(t, team.Cyclists, fantasy.SquadSize)

	again, err := s.BuyCyclist(ctx, user.ID, cyclists[0].ID)
	require.NoError(t, err)
	assert.Equal(t, fantasy.AlreadyOwned{CyclistID: cyclists[0].ID}, again.Eligibility)

	var lineup []int64
	for _, c := range cyclists[:fantasy.ActiveSize] {
		lineup = append(lineup, c.ID)
	}
	_, err = s.SetLineup(ctx, user.ID, lineup)
	require.NoError(t, err)
	_, err = s.SetCaptain(ctx, user.ID, cyclists[0].ID)
	require.NoError(t, err)
	_, err = s.SetCaptain(ctx, user.ID, cyclists[14].ID)
	assert.ErrorIs(t, err, ErrInvalidLineup)

	team, err = s.TeamByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, fantasy.Valid{}, fantasy.ValidateTeam(team.Snapshot()))

	race := &models.Race{Name: "Volta a Portugal", RaceType: string(fantasy.RaceStage),
		StartDate: "2026-08-01", EndDate: "2026-08-10", Stages: 10}
	require.NoError(t, s.CreateRace(ctx, race))

	first, second := 1, 2
	summary, err := s.ApplyResults(ctx, race.ID, 1, []models.RaceResult{
		{CyclistID: cyclists[0].ID, Position: &first, IsGcLeader: true},
		{CyclistID: cyclists[1].ID, Position: &second},
		{CyclistID: cyclists[14].ID, Status: string(fantasy.StatusDNF)},
	})
	require.NoError(t, err)
	assert.False(t, summary.Corrected)
	assert.Equal(t, 1, summary.Teams)

	team, err = s.TeamByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 120+40, team.TotalPoints)

	// correction: the riders swap places
	summary, err = s.ApplyResults(ctx, race.ID, 1, []models.RaceResult{
		{CyclistID: cyclists[0].ID, Position: &second, IsGcLeader: true},
		{CyclistID: cyclists[1].ID, Position: &first},
	})
	require.NoError(t, err)
	assert.True(t, summary.Corrected)

	team, err = s.TeamByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 100+50, team.TotalPoints)

	rider, err := s.Cyclist(ctx, cyclists[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 50, rider.TotalPoints)

	// a transfer after completion consumes a free transfer
	_, err = s.SellCyclist(ctx, user.ID, cyclists[14].ID)
	require.NoError(t, err)
	out, err := s.BuyCyclist(ctx, user.ID, cyclists[14].ID)
	require.NoError(t, err)
	assert.True(t, out.Eligibility.Eligible())
	assert.Zero(t, out.Penalty)
	assert.Equal(t, fantasy.FreeTransfersPerRace-1, out.Team.FreeTransfers)

	require.NoError(t, s.FinishRace(ctx, race.ID))
	team, err = s.TeamByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, fantasy.BankTransfers(fantasy.FreeTransfersPerRace-1), team.FreeTransfers)
}

func TestStore_LeagueStandings(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	var teamIDs []int64
	for i, pts := range []int{50, 80, 80} {
		team := &models.FantasyTeam{TeamName: fmt.Sprintf("Bot %d", i), Budget: 100, TotalPoints: pts, IsBot: true}
		_, err := s.DB().NewInsert().Model(team).Exec(ctx)
		require.NoError(t, err)
		teamIDs = append(teamIDs, team.ID)
	}

	league := &models.League{Name: "Amigos", Code: "ABC123", OwnerID: 1}
	require.NoError(t, s.CreateLeague(ctx, league, teamIDs[0]))
	n, err := s.AddBotsToLeague(ctx, league.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := s.Standings(ctx, league.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 1, rows[1].Rank)
	assert.Equal(t, 3, rows[2].Rank)
	assert.Equal(t, 50, rows[2].TotalPoints)
}

func TestStore_PriceSnapshots(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	rider := seedSquadPool(t, ctx, s)[0]

	save := func(date string, price, pct float64) {
		require.NoError(t, s.SavePrice(ctx, PriceUpdate{
			CyclistID:  rider.ID,
			Price:      price,
			Popularity: pct,
			Demand:     models.CyclistDemand{Date: date, OwnershipPct: pct, Price: price},
		}))
	}
	save("2026-03-01", 6.1, 12)
	save("2026-03-02", 6.2, 18)

	priced, err := s.PricedOn(ctx, "2026-03-02")
	require.NoError(t, err)
	assert.True(t, priced[rider.ID])

	priced, err = s.PricedOn(ctx, "2026-03-03")
	require.NoError(t, err)
	assert.Empty(t, priced)

	prev, err := s.PreviousOwnership(ctx, "2026-03-02")
	require.NoError(t, err)
	assert.InDelta(t, 12.0, prev[rider.ID], 1e-9)

	got, err := s.Cyclist(ctx, rider.ID)
	require.NoError(t, err)
	assert.InDelta(t, 6.2, got.Price, 1e-9)
}
