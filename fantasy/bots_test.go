package fantasy

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testPool() []Candidate {
	var pool []Candidate
	for i := 0; i < 60; i++ {
		pool = append(pool, Candidate{
			CyclistID: int64(i + 1),
			ProTeamID: int64(i%20 + 1),
			Category:  Categories[i%len(Categories)],
			Price:     1.0 + float64(i%10)*1.5,
			Points:    (i * 37) % 250,
		})
	}
	return pool
}

func TestStrategyFor_Split(t *testing.T) {
	counts := map[Strategy]int{}
	for i := 0; i < 100; i++ {
		counts[StrategyFor(i, 100)]++
	}
	assert.Equal(t, map[Strategy]int{
		StrategyBalanced:      40,
		StrategyClimberHeavy:  20,
		StrategySprinterHeavy: 15,
		StrategyGCFocused:     15,
		StrategyValuePicks:    10,
	}, counts)
	assert.Equal(t, StrategyBalanced, StrategyFor(0, 0))
}

func TestStrategyWeight(t *testing.T) {
	climber := Candidate{Category: CategoryClimber, Price: 10, Points: 50}
	sprinter := Candidate{Category: CategorySprint, Price: 10, Points: 50}
	assert.Greater(t, StrategyClimberHeavy.Weight(climber), StrategyClimberHeavy.Weight(sprinter))
	assert.Greater(t, StrategySprinterHeavy.Weight(sprinter), StrategySprinterHeavy.Weight(climber))

	cheap := Candidate{Category: CategoryHills, Price: 2, Points: 40}
	pricey := Candidate{Category: CategoryHills, Price: 20, Points: 40}
	assert.Greater(t, StrategyValuePicks.Weight(cheap), StrategyValuePicks.Weight(pricey))
}

func TestGenerate_Constraints(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(42)), zap.NewNop())
	run := g.Generate(25, testPool(), nil)

	assert.Equal(t, 25, len(run.Teams)+run.Skipped)
	require.NotEmpty(t, run.Teams)

	names := map[string]bool{}
	for _, team := range run.Teams {
		assert.False(t, names[team.Name], "duplicate name %q", team.Name)
		names[team.Name] = true

		assert.LessOrEqual(t, len(team.Picks), SquadSize)
		assert.LessOrEqual(t, team.Spent(), InitialBudget+1e-9)

		perTeam := map[int64]int{}
		captains := 0
		for _, p := range team.Picks {
			perTeam[p.ProTeamID]++
			if p.IsCaptain {
				captains++
				assert.True(t, p.IsActive)
			}
		}
		for proTeam, n := range perTeam {
			assert.LessOrEqual(t, n, MaxPerProTeam, "pro team %d", proTeam)
		}
		for c, n := range (Snapshot{Picks: team.Picks}).CategoryCounts() {
			assert.LessOrEqual(t, n, CategoryRequirements[c])
		}
		assert.Equal(t, 1, captains)
	}
}

func TestGenerate_NamesFallBackToSuffix(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(7)), nil)
	run := g.Generate(len(botNamePhrases)+10, testPool(), []string{"Pedal Power"})

	seen := map[string]bool{}
	suffixed := 0
	for _, team := range run.Teams {
		key := strings.ToLower(team.Name)
		assert.False(t, seen[key])
		seen[key] = true
		assert.NotEqual(t, "pedal power", key)
		if strings.ContainsAny(team.Name, "0123456789") {
			suffixed++
		}
	}
	assert.GreaterOrEqual(t, suffixed, 11)
}

func TestGenerate_Deterministic(t *testing.T) {
	a := NewGenerator(rand.New(rand.NewSource(3)), nil).Generate(5, testPool(), nil)
	b := NewGenerator(rand.New(rand.NewSource(3)), nil).Generate(5, testPool(), nil)
	assert.Equal(t, a, b)
}

func TestGenerate_EmptyPoolSkipsEveryTeam(t *testing.T) {
	run := NewGenerator(rand.New(rand.NewSource(1)), nil).Generate(4, nil, nil)
	assert.Empty(t, run.Teams)
	assert.Equal(t, 4, run.Skipped)
}

func TestGenerate_BackFillsWhenPoolIsSmall(t *testing.T) {
	pool := testPool()[:9]
	run := NewGenerator(rand.New(rand.NewSource(5)), nil).Generate(1, pool, nil)
	require.Len(t, run.Teams, 1)
	// 9 riders cover every category at least once; the generator takes all
	// of them that fit the category limits.
	assert.Len(t, run.Teams[0].Picks, 9)
}
