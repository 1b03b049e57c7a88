package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/db"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/fantasy"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

type fakeBotStore struct {
	cyclists []models.Cyclist
	names    []string
	conflict string
	saved    []fantasy.BotTeam
	saveErr  error
}

func (f *fakeBotStore) AllCyclists(context.Context) ([]models.Cyclist, error) {
	return f.cyclists, nil
}

func (f *fakeBotStore) TeamNames(context.Context) ([]string, error) {
	return f.names, nil
}

func (f *fakeBotStore) SaveBotTeam(_ context.Context, bot fantasy.BotTeam) (*models.FantasyTeam, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	if bot.Name == f.conflict {
		return nil, db.ErrConflict
	}
	f.saved = append(f.saved, bot)
	return &models.FantasyTeam{TeamName: bot.Name, IsBot: true}, nil
}

func market() []models.Cyclist {
	var out []models.Cyclist
	for i := 0; i < 60; i++ {
		out = append(out, models.Cyclist{
			ID:          int64(i + 1),
			ProTeamID:   int64(i%20 + 1),
			Category:    string(fantasy.Categories[i%len(fantasy.Categories)]),
			Price:       1.0 + float64(i%10)*1.5,
			TotalPoints: (i * 37) % 250,
		})
	}
	return out
}

func TestCreateBots(t *testing.T) {
	store := &fakeBotStore{cyclists: market(), names: []string{"Os Trepadores"}}
	report, err := CreateBots(context.Background(), store, 10, 7, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, int64(7), report.Seed)
	assert.Equal(t, 10, report.Created+report.Skipped)
	assert.Len(t, store.saved, report.Created)
	assert.Len(t, report.Names, report.Created)
	for _, team := range store.saved {
		assert.NotEqual(t, "Os Trepadores", team.Name)
		assert.LessOrEqual(t, team.Spent(), fantasy.InitialBudget+1e-9)
	}
}

func TestCreateBotsDeterministic(t *testing.T) {
	a := &fakeBotStore{cyclists: market()}
	b := &fakeBotStore{cyclists: market()}

	ra, err := CreateBots(context.Background(), a, 5, 99, nil)
	require.NoError(t, err)
	rb, err := CreateBots(context.Background(), b, 5, 99, nil)
	require.NoError(t, err)

	assert.Equal(t, ra.Names, rb.Names)
}

func TestCreateBotsConflictIsSkipped(t *testing.T) {
	probe := &fakeBotStore{cyclists: market()}
	first, err := CreateBots(context.Background(), probe, 3, 11, nil)
	require.NoError(t, err)
	require.NotEmpty(t, first.Names)

	store := &fakeBotStore{cyclists: market(), conflict: first.Names[0]}
	report, err := CreateBots(context.Background(), store, 3, 11, nil)
	require.NoError(t, err)
	assert.Equal(t, first.Created-1, report.Created)
	assert.Equal(t, first.Skipped+1, report.Skipped)
	assert.NotContains(t, report.Names, first.Names[0])
}

func TestCreateBotsSaveError(t *testing.T) {
	store := &fakeBotStore{cyclists: market(), saveErr: errors.New("disk full")}
	_, err := CreateBots(context.Background(), store, 3, 1, nil)
	assert.Error(t, err)
}
