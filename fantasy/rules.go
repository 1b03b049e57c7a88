// Package fantasy holds the fantasy game engine: squad rules and validators,
// race scoring, daily cyclist pricing and bot team generation.
// Everything here is pure computation; callers own persistence.
package fantasy

import "fmt"

// Category is the rider specialty a cyclist is drafted under.
type Category string

const (
	CategoryGC      Category = "GC"
	CategoryClimber Category = "CLIMBER"
	CategorySprint  Category = "SPRINT"
	CategoryTT      Category = "TT"
	CategoryHills   Category = "HILLS"
	CategoryOneDay  Category = "ONEDAY"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryGC,
	CategoryClimber,
	CategorySprint,
	CategoryTT,
	CategoryHills,
	CategoryOneDay,
}

// ParseCategory accepts the canonical upper-case names.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// RaceType selects the scoring table for a race.
type RaceType string

const (
	RaceOneDay    RaceType = "ONE_DAY"
	RaceStage     RaceType = "STAGE_RACE"
	RaceGrandTour RaceType = "GRAND_TOUR"
)

// ParseRaceType accepts the canonical upper-case names.
func ParseRaceType(s string) (RaceType, bool) {
	switch RaceType(s) {
	case RaceOneDay, RaceStage, RaceGrandTour:
		return RaceType(s), true
	}
	return "", false
}

// Chip is a once-per-season power-up bound to a single race.
type Chip string

const (
	ChipNone          Chip = ""
	ChipTripleCaptain Chip = "TRIPLE_CAPTAIN"
	ChipBenchBoost    Chip = "BENCH_BOOST"
	ChipWildcard      Chip = "WILDCARD"
)

// ParseChip accepts the canonical upper-case names. The empty chip is rejected.
func ParseChip(s string) (Chip, bool) {
	switch Chip(s) {
	case ChipTripleCaptain, ChipBenchBoost, ChipWildcard:
		return Chip(s), true
	}
	return ChipNone, false
}

const (
	InitialBudget           = 100.0
	SquadSize               = 15
	ActiveSize              = 8
	MaxPerProTeam           = 3
	FreeTransfersPerRace    = 2
	MaxBankedTransfers      = 5
	TransferPenalty         = 4
	CaptainMultiplier       = 2
	TripleCaptainMultiplier = 3
)

// CategoryRequirements is the exact composition of a complete squad.
// The counts sum to SquadSize.
var CategoryRequirements = map[Category]int{
	CategoryGC:      2,
	CategoryClimber: 3,
	CategorySprint:  3,
	CategoryTT:      2,
	CategoryHills:   2,
	CategoryOneDay:  3,
}

// Pick is one rostered cyclist as seen by the validators.
type Pick struct {
	CyclistID     int64
	ProTeamID     int64
	Category      Category
	PurchasePrice float64
	IsActive      bool
	IsCaptain     bool
}

// Candidate is a cyclist offered for purchase.
type Candidate struct {
	CyclistID int64
	Name      string
	ProTeamID int64
	Category  Category
	Price     float64
	Points    int
}

// Snapshot is a proposed team composition: the current picks plus the
// money left to spend.
type Snapshot struct {
	Budget float64
	Picks  []Pick
}

func (s Snapshot) owns(cyclistID int64) bool {
	for _, p := range s.Picks {
		if p.CyclistID == cyclistID {
			return true
		}
	}
	return false
}

func (s Snapshot) proTeamCount(proTeamID int64) int {
	n := 0
	for _, p := range s.Picks {
		if p.ProTeamID == proTeamID {
			n++
		}
	}
	return n
}

// CategoryCounts returns how many picks fall in each category.
func (s Snapshot) CategoryCounts() map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, p := range s.Picks {
		counts[p.Category]++
	}
	return counts
}

// Spent is the sum of purchase prices of the current picks.
func (s Snapshot) Spent() float64 {
	total := 0.0
	for _, p := range s.Picks {
		total += p.PurchasePrice
	}
	return total
}

// Eligibility is the outcome of CheckEligibility. The concrete types are
// EligibleResult, AlreadyOwned, TeamFull, InsufficientBudget,
// TooManyFromSameTeam and CategoryFull.
type Eligibility interface {
	Eligible() bool
	Reason() string
	isEligibility()
}

type EligibleResult struct{}

type AlreadyOwned struct{ CyclistID int64 }

type TeamFull struct{ Size int }

type InsufficientBudget struct {
	Needed    float64
	Available float64
}

type TooManyFromSameTeam struct {
	ProTeamID int64
	Count     int
}

type CategoryFull struct {
	Category Category
	Max      int
}

func (EligibleResult) Eligible() bool      { return true }
func (AlreadyOwned) Eligible() bool        { return false }
func (TeamFull) Eligible() bool            { return false }
func (InsufficientBudget) Eligible() bool  { return false }
func (TooManyFromSameTeam) Eligible() bool { return false }
func (CategoryFull) Eligible() bool        { return false }

func (EligibleResult) Reason() string { return "eligible" }
func (e AlreadyOwned) Reason() string { return "cyclist already in team" }
func (e TeamFull) Reason() string     { return fmt.Sprintf("team already has %d cyclists", e.Size) }
func (e InsufficientBudget) Reason() string {
	return fmt.Sprintf("insufficient budget: need %.1f, have %.1f", e.Needed, e.Available)
}
func (e TooManyFromSameTeam) Reason() string {
	return fmt.Sprintf("already %d cyclists from the same pro team (max %d)", e.Count, MaxPerProTeam)
}
func (e CategoryFull) Reason() string {
	return fmt.Sprintf("category %s is full (max %d)", e.Category, e.Max)
}

func (EligibleResult) isEligibility()      {}
func (AlreadyOwned) isEligibility()        {}
func (TeamFull) isEligibility()            {}
func (InsufficientBudget) isEligibility()  {}
func (TooManyFromSameTeam) isEligibility() {}
func (CategoryFull) isEligibility()        {}

// CheckEligibility reports whether c can be added to the team described by s.
// Checks run in a fixed order and the first failing one is returned.
func CheckEligibility(s Snapshot, c Candidate) Eligibility {
	if s.owns(c.CyclistID) {
		return AlreadyOwned{CyclistID: c.CyclistID}
	}
	if len(s.Picks) >= SquadSize {
		return TeamFull{Size: len(s.Picks)}
	}
	if c.Price > s.Budget+priceEpsilon {
		return InsufficientBudget{Needed: c.Price, Available: s.Budget}
	}
	if n := s.proTeamCount(c.ProTeamID); n >= MaxPerProTeam {
		return TooManyFromSameTeam{ProTeamID: c.ProTeamID, Count: n}
	}
	limit := CategoryRequirements[c.Category]
	if s.CategoryCounts()[c.Category] >= limit {
		return CategoryFull{Category: c.Category, Max: limit}
	}
	return EligibleResult{}
}

// TeamValidation is the outcome of ValidateTeam: either Valid or Invalid.
type TeamValidation interface {
	IsValid() bool
	isTeamValidation()
}

type Valid struct{}

// Invalid carries every problem found, not just the first.
type Invalid struct {
	Problems []Problem
}

func (Valid) IsValid() bool   { return true }
func (Invalid) IsValid() bool { return false }

func (Valid) isTeamValidation()   {}
func (Invalid) isTeamValidation() {}

// Problem is one reason a squad cannot compete.
type Problem interface {
	Message() string
}

type WrongSquadSize struct {
	Have int
	Want int
}

type CategoryDeficit struct {
	Category Category
	Have     int
	Want     int
}

type CategoryExcess struct {
	Category Category
	Have     int
	Max      int
}

type ProTeamExcess struct {
	ProTeamID int64
	Have      int
}

type CaptainProblem struct{ Captains int }

type WrongActiveCount struct {
	Have int
	Want int
}

func (p WrongSquadSize) Message() string {
	return fmt.Sprintf("squad has %d cyclists, needs %d", p.Have, p.Want)
}

func (p CategoryDeficit) Message() string {
	return fmt.Sprintf("category %s has %d, needs %d", p.Category, p.Have, p.Want)
}

func (p CategoryExcess) Message() string {
	return fmt.Sprintf("category %s has %d, max %d", p.Category, p.Have, p.Max)
}

func (p ProTeamExcess) Message() string {
	return fmt.Sprintf("pro team %d has %d cyclists, max %d", p.ProTeamID, p.Have, MaxPerProTeam)
}

func (p CaptainProblem) Message() string {
	if p.Captains == 0 {
		return "no captain selected"
	}
	return fmt.Sprintf("%d captains selected, only one allowed", p.Captains)
}

func (p WrongActiveCount) Message() string {
	return fmt.Sprintf("%d active cyclists, needs %d", p.Have, p.Want)
}

// ValidateTeam checks that a squad is complete and may compete.
func ValidateTeam(s Snapshot) TeamValidation {
	var problems []Problem

	if len(s.Picks) != SquadSize {
		problems = append(problems, WrongSquadSize{Have: len(s.Picks), Want: SquadSize})
	}

	counts := s.CategoryCounts()
	for _, c := range Categories {
		want := CategoryRequirements[c]
		switch have := counts[c]; {
		case have < want:
			problems = append(problems, CategoryDeficit{Category: c, Have: have, Want: want})
		case have > want:
			problems = append(problems, CategoryExcess{Category: c, Have: have, Max: want})
		}
	}

	perTeam := map[int64]int{}
	var teamOrder []int64
	captains, active := 0, 0
	for _, p := range s.Picks {
		if perTeam[p.ProTeamID] == 0 {
			teamOrder = append(teamOrder, p.ProTeamID)
		}
		perTeam[p.ProTeamID]++
		if p.IsCaptain {
			captains++
		}
		if p.IsActive {
			active++
		}
	}
	for _, id := range teamOrder {
		if perTeam[id] > MaxPerProTeam {
			problems = append(problems, ProTeamExcess{ProTeamID: id, Have: perTeam[id]})
		}
	}
	if captains != 1 {
		problems = append(problems, CaptainProblem{Captains: captains})
	}
	if active != ActiveSize {
		problems = append(problems, WrongActiveCount{Have: active, Want: ActiveSize})
	}

	if len(problems) == 0 {
		return Valid{}
	}
	return Invalid{Problems: problems}
}

// TransferCost returns the points deducted for one transfer and the free
// transfers left afterwards. A wildcard makes every transfer free without
// consuming the bank.
func TransferCost(freeTransfers int, chip Chip) (penalty int, remaining int) {
	if chip == ChipWildcard {
		return 0, freeTransfers
	}
	if freeTransfers > 0 {
		return 0, freeTransfers - 1
	}
	return TransferPenalty, 0
}

// BankTransfers adds the per-race allowance, capped at MaxBankedTransfers.
func BankTransfers(freeTransfers int) int {
	n := freeTransfers + FreeTransfersPerRace
	if n > MaxBankedTransfers {
		return MaxBankedTransfers
	}
	return n
}
