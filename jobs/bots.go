package jobs

import (
	"context"
	"errors"
	"math/rand"

	"go.uber.org/zap"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/db"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/fantasy"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

// BotStore is the persistence bot generation needs.
type BotStore interface {
	AllCyclists(ctx context.Context) ([]models.Cyclist, error)
	TeamNames(ctx context.Context) ([]string, error)
	SaveBotTeam(ctx context.Context, bot fantasy.BotTeam) (*models.FantasyTeam, error)
}

// BotReport summarises one generation run.
type BotReport struct {
	Seed    int64    `json:"seed"`
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Names   []string `json:"names"`
}

// CreateBots generates count bot teams from the current market and saves
// them. The same seed over the same market yields the same teams.
func CreateBots(ctx context.Context, store BotStore, count int, seed int64, log *zap.Logger) (BotReport, error) {
	if log == nil {
		log = zap.NewNop()
	}
	report := BotReport{Seed: seed, Names: []string{}}

	cyclists, err := store.AllCyclists(ctx)
	if err != nil {
		return report, err
	}
	pool := make([]fantasy.Candidate, len(cyclists))
	for i := range cyclists {
		pool[i] = cyclists[i].Candidate()
	}
	taken, err := store.TeamNames(ctx)
	if err != nil {
		return report, err
	}

	run := fantasy.NewGenerator(rand.New(rand.NewSource(seed)), log).Generate(count, pool, taken)
	report.Skipped = run.Skipped

	for _, team := range run.Teams {
		if _, err := store.SaveBotTeam(ctx, team); err != nil {
			if errors.Is(err, db.ErrConflict) {
				log.Warn("bot name taken, skipped", zap.String("name", team.Name))
				report.Skipped++
				continue
			}
			return report, err
		}
		report.Created++
		report.Names = append(report.Names, team.Name)
	}

	log.Info("bot teams generated",
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int64("seed", seed),
	)
	return report, nil
}
