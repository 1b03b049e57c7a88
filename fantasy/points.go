package fantasy

// ResultStatus is how a cyclist's race or stage ended.
type ResultStatus string

const (
	StatusFinished ResultStatus = "FINISHED"
	StatusDNF      ResultStatus = "DNF"
	StatusDNS      ResultStatus = "DNS"
	StatusDSQ      ResultStatus = "DSQ"
)

// ParseResultStatus accepts the canonical names; an empty string means FINISHED.
func ParseResultStatus(s string) (ResultStatus, bool) {
	switch ResultStatus(s) {
	case "":
		return StatusFinished, true
	case StatusFinished, StatusDNF, StatusDNS, StatusDSQ:
		return ResultStatus(s), true
	}
	return "", false
}

// Result is one cyclist's outcome in one race or stage. Position is nil for
// riders that did not finish or did not start.
type Result struct {
	CyclistID         int64
	StageNumber       *int
	Position          *int
	BonusPoints       int
	IsGcLeader        bool
	IsMountainsLeader bool
	IsPointsLeader    bool
	IsYoungLeader     bool
	Status            ResultStatus
}

const (
	GcLeaderBonus        = 10
	MountainsLeaderBonus = 5
	PointsLeaderBonus    = 5
	YoungLeaderBonus     = 3
)

var oneDayPoints = []int{
	100, 80, 65, 55, 45, 40, 35, 30, 25, 20,
	18, 16, 14, 12, 10, 8, 6, 4, 2, 1,
}

// Stage table as used by the production game rules. Position 4 is worth 30.
var stagePoints = []int{
	50, 40, 35, 30, 25, 20, 15, 10, 8, 6,
	5, 4, 3, 2, 1,
}

var gcFinalBonus = []int{
	200, 150, 120, 100, 90, 80, 70, 60, 50, 40,
	35, 30, 28, 26, 24, 22, 20, 15, 12, 10,
}

func lookup(table []int, position *int) int {
	if position == nil || *position < 1 || *position > len(table) {
		return 0
	}
	return table[*position-1]
}

// OneDayPoints is the finishing-position score for a one-day race.
func OneDayPoints(position *int) int { return lookup(oneDayPoints, position) }

// StagePoints is the finishing-position score for a stage of a stage race
// or grand tour.
func StagePoints(position *int) int { return lookup(stagePoints, position) }

// GcFinalBonus is awarded once, on the final general classification of a
// grand tour.
func GcFinalBonus(position *int) int { return lookup(gcFinalBonus, position) }

// PositionPoints picks the table for raceType.
func PositionPoints(position *int, raceType RaceType) int {
	if raceType == RaceOneDay {
		return OneDayPoints(position)
	}
	return StagePoints(position)
}

// JerseyBonus sums the leader jersey bonuses. They do not depend on the
// finishing position, so a rider who abandons in a jersey still earns them.
func JerseyBonus(r Result) int {
	bonus := 0
	if r.IsGcLeader {
		bonus += GcLeaderBonus
	}
	if r.IsMountainsLeader {
		bonus += MountainsLeaderBonus
	}
	if r.IsPointsLeader {
		bonus += PointsLeaderBonus
	}
	if r.IsYoungLeader {
		bonus += YoungLeaderBonus
	}
	return bonus
}

// ResultPoints is the uncaptained score of a single result.
func ResultPoints(r Result, raceType RaceType) int {
	return PositionPoints(r.Position, raceType) + r.BonusPoints + JerseyBonus(r)
}

func ApplyCaptain(points int) int       { return points * CaptainMultiplier }
func ApplyTripleCaptain(points int) int { return points * TripleCaptainMultiplier }

// RaceScore is a team's score for one race or stage.
type RaceScore struct {
	Total     int
	PerRider  map[int64]int
	CaptainID int64
}

// FinalClassificationPoints scores a rider's place on the final general
// classification of a grand tour.
func FinalClassificationPoints(r Result) int {
	return GcFinalBonus(r.Position)
}

// TeamRacePoints scores a squad against a set of results. Only active riders
// count unless the bench boost chip is played. The captain's whole score is
// multiplied, tripled under the triple captain chip.
func TeamRacePoints(picks []Pick, results []Result, raceType RaceType, chip Chip) RaceScore {
	byCyclist := make(map[int64]int, len(results))
	for _, r := range results {
		byCyclist[r.CyclistID] += ResultPoints(r, raceType)
	}
	return ScoreTeam(picks, byCyclist, chip)
}

// ScoreTeam applies lineup, captain and chip rules to per-rider points.
func ScoreTeam(picks []Pick, byCyclist map[int64]int, chip Chip) RaceScore {
	score := RaceScore{PerRider: make(map[int64]int, len(picks))}
	for _, p := range picks {
		if !p.IsActive && chip != ChipBenchBoost {
			continue
		}
		pts := byCyclist[p.CyclistID]
		if p.IsCaptain {
			score.CaptainID = p.CyclistID
			if chip == ChipTripleCaptain {
				pts = ApplyTripleCaptain(pts)
			} else {
				pts = ApplyCaptain(pts)
			}
		}
		score.PerRider[p.CyclistID] = pts
		score.Total += pts
	}
	return score
}
