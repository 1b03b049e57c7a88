package fantasy

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Strategy drives how a bot weighs cyclists when drafting.
type Strategy string

const (
	StrategyBalanced      Strategy = "BALANCED"
	StrategyClimberHeavy  Strategy = "CLIMBER_HEAVY"
	StrategySprinterHeavy Strategy = "SPRINTER_HEAVY"
	StrategyGCFocused     Strategy = "GC_FOCUSED"
	StrategyValuePicks    Strategy = "VALUE_PICKS"
)

// strategyBuckets holds cumulative percentage upper bounds.
var strategyBuckets = []struct {
	upTo     int
	strategy Strategy
}{
	{40, StrategyBalanced},
	{60, StrategyClimberHeavy},
	{75, StrategySprinterHeavy},
	{90, StrategyGCFocused},
	{100, StrategyValuePicks},
}

// StrategyFor maps team index i of n to a strategy by percentage bucket, so a
// run of n teams follows the 40/20/15/15/10 split.
func StrategyFor(i, n int) Strategy {
	if n <= 0 {
		return StrategyBalanced
	}
	pct := (i % n) * 100 / n
	for _, b := range strategyBuckets {
		if pct < b.upTo {
			return b.strategy
		}
	}
	return StrategyValuePicks
}

var categoryWeights = map[Strategy]map[Category]float64{
	StrategyBalanced: {
		CategoryGC: 1, CategoryClimber: 1, CategorySprint: 1,
		CategoryTT: 1, CategoryHills: 1, CategoryOneDay: 1,
	},
	StrategyClimberHeavy: {
		CategoryGC: 1.3, CategoryClimber: 2.5, CategorySprint: 0.6,
		CategoryTT: 0.8, CategoryHills: 1.5, CategoryOneDay: 0.8,
	},
	StrategySprinterHeavy: {
		CategoryGC: 0.8, CategoryClimber: 0.6, CategorySprint: 2.5,
		CategoryTT: 1, CategoryHills: 0.9, CategoryOneDay: 1.5,
	},
	StrategyGCFocused: {
		CategoryGC: 2.5, CategoryClimber: 1.5, CategorySprint: 0.7,
		CategoryTT: 1.5, CategoryHills: 1, CategoryOneDay: 0.7,
	},
	StrategyValuePicks: {
		CategoryGC: 1, CategoryClimber: 1, CategorySprint: 1,
		CategoryTT: 1, CategoryHills: 1, CategoryOneDay: 1,
	},
}

// Weight is the draw weight of c under strategy s. Value picks favour points
// per unit of price; the rest scale price (a proxy for quality) by category.
func (s Strategy) Weight(c Candidate) float64 {
	cw, ok := categoryWeights[s][c.Category]
	if !ok {
		cw = 1
	}
	price := math.Max(c.Price, MinPrice)
	if s == StrategyValuePicks {
		return cw * (1 + float64(c.Points)) / price
	}
	return cw * price * (1 + float64(c.Points)/100)
}

var botNamePhrases = []string{
	"Pedal Power", "Serra da Estrela Climbers", "Volta Dreamers", "Lisbon Leadouts",
	"Douro Descenders", "Algarve Breakaway", "Minho Rouleurs", "Torre Attackers",
	"Peloton Pirates", "Camisola Amarela", "Rota do Vento", "Cadence Kings",
	"Echelon Express", "Gruppetto Gang", "Alentejo Sprinters", "Porto Puncheurs",
	"Madeira Mountain Goats", "Senhora da Graça", "Contra-Relógio Crew", "Domestiques United",
}

// BotTeam is one generated synthetic league participant.
type BotTeam struct {
	Name     string
	Strategy Strategy
	Picks    []Pick
	Budget   float64
}

// Spent is the sum of purchase prices of the bot's picks.
func (b BotTeam) Spent() float64 {
	return Snapshot{Picks: b.Picks}.Spent()
}

// GenerationRun is the output of one Generate call.
type GenerationRun struct {
	Teams   []BotTeam
	Skipped int
}

// Generator builds bot teams. It is not safe for concurrent use because it
// owns its random source.
type Generator struct {
	rng *rand.Rand
	log *zap.Logger
}

// NewGenerator returns a generator drawing from rng.
func NewGenerator(rng *rand.Rand, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{rng: rng, log: log}
}

// Generate builds n bot teams from pool. Names already taken outside the run
// can be passed in takenNames; the set of names used is scoped to this call.
func (g *Generator) Generate(n int, pool []Candidate, takenNames []string) GenerationRun {
	used := make(map[string]struct{}, n+len(takenNames))
	for _, name := range takenNames {
		used[strings.ToLower(name)] = struct{}{}
	}

	run := GenerationRun{Teams: make([]BotTeam, 0, n)}
	for i := 0; i < n; i++ {
		strategy := StrategyFor(i, n)
		name := g.uniqueName(used)
		team, err := g.build(name, strategy, pool)
		if err != nil {
			g.log.Warn("bot team skipped",
				zap.Int("index", i),
				zap.String("strategy", string(strategy)),
				zap.Error(err),
			)
			run.Skipped++
			continue
		}
		run.Teams = append(run.Teams, team)
	}
	return run
}

func (g *Generator) uniqueName(used map[string]struct{}) string {
	order := g.rng.Perm(len(botNamePhrases))
	for _, idx := range order {
		name := botNamePhrases[idx]
		if _, taken := used[strings.ToLower(name)]; !taken {
			used[strings.ToLower(name)] = struct{}{}
			return name
		}
	}
	for {
		name := fmt.Sprintf("%s %d", botNamePhrases[g.rng.Intn(len(botNamePhrases))], 100+g.rng.Intn(9900))
		if _, taken := used[strings.ToLower(name)]; !taken {
			used[strings.ToLower(name)] = struct{}{}
			return name
		}
	}
}

func (g *Generator) build(name string, strategy Strategy, pool []Candidate) (BotTeam, error) {
	snap := Snapshot{Budget: InitialBudget}
	cheapest := cheapestPrice(pool)

	remaining := make([]Candidate, len(pool))
	copy(remaining, pool)

	// Weighted draw while keeping enough money to fill the remaining slots at
	// the cheapest price on offer.
	for len(snap.Picks) < SquadSize && len(remaining) > 0 {
		slotsAfter := SquadSize - len(snap.Picks) - 1
		reserve := cheapest * float64(slotsAfter)

		var eligible []Candidate
		var weights []float64
		total := 0.0
		for _, c := range remaining {
			if !CheckEligibility(snap, c).Eligible() || c.Price > snap.Budget-reserve+priceEpsilon {
				continue
			}
			w := strategy.Weight(c)
			eligible = append(eligible, c)
			weights = append(weights, w)
			total += w
		}
		if len(eligible) == 0 {
			break
		}
		chosen := eligible[len(eligible)-1]
		r := g.rng.Float64() * total
		for j, w := range weights {
			if r < w {
				chosen = eligible[j]
				break
			}
			r -= w
		}
		snap = add(snap, chosen)
		remaining = without(remaining, chosen.CyclistID)
	}

	// Back-fill with the cheapest eligible riders.
	sort.SliceStable(remaining, func(a, b int) bool { return remaining[a].Price < remaining[b].Price })
	for _, c := range remaining {
		if len(snap.Picks) >= SquadSize {
			break
		}
		if CheckEligibility(snap, c).Eligible() {
			snap = add(snap, c)
		}
	}

	if len(snap.Picks) == 0 {
		return BotTeam{}, fmt.Errorf("no affordable cyclists for %q", name)
	}

	picks := chooseLineup(snap.Picks, strategy, pool)
	return BotTeam{
		Name:     name,
		Strategy: strategy,
		Picks:    picks,
		Budget:   RoundPrice(snap.Budget),
	}, nil
}

func add(s Snapshot, c Candidate) Snapshot {
	picks := make([]Pick, len(s.Picks), len(s.Picks)+1)
	copy(picks, s.Picks)
	picks = append(picks, Pick{
		CyclistID:     c.CyclistID,
		ProTeamID:     c.ProTeamID,
		Category:      c.Category,
		PurchasePrice: c.Price,
	})
	return Snapshot{Budget: s.Budget - c.Price, Picks: picks}
}

func without(cs []Candidate, id int64) []Candidate {
	out := cs[:0:0]
	for _, c := range cs {
		if c.CyclistID != id {
			out = append(out, c)
		}
	}
	return out
}

func cheapestPrice(pool []Candidate) float64 {
	if len(pool) == 0 {
		return 0
	}
	lowest := pool[0].Price
	for _, c := range pool[1:] {
		if c.Price < lowest {
			lowest = c.Price
		}
	}
	return lowest
}

// chooseLineup marks the ActiveSize best riders for the strategy as active
// and the most expensive active rider as captain.
func chooseLineup(picks []Pick, strategy Strategy, pool []Candidate) []Pick {
	byID := make(map[int64]Candidate, len(pool))
	for _, c := range pool {
		byID[c.CyclistID] = c
	}

	idx := make([]int, len(picks))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return strategy.Weight(byID[picks[idx[a]].CyclistID]) > strategy.Weight(byID[picks[idx[b]].CyclistID])
	})

	out := make([]Pick, len(picks))
	copy(out, picks)
	captain := -1
	for rank, i := range idx {
		if rank >= ActiveSize {
			break
		}
		out[i].IsActive = true
		if captain < 0 || out[i].PurchasePrice > out[captain].PurchasePrice {
			captain = i
		}
	}
	if captain >= 0 {
		out[captain].IsCaptain = true
	}
	return out
}
