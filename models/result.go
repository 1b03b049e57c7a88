package models

import (
	"time"

	"github.com/uptrace/bun"
)

// RaceResult is one cyclist's outcome in one race or stage. StageNumber is 0
// for one-day races and for the final classification of a stage race.
type RaceResult struct {
	bun.BaseModel `bun:"table:race_results,alias:rr"`

	ID                int64     `bun:"id,pk,autoincrement" json:"id"`
	RaceID            int64     `bun:"race_id,notnull" json:"raceID"`
	CyclistID         int64     `bun:"cyclist_id,notnull" json:"cyclistID"`
	StageNumber       int       `bun:"stage_number,notnull,default:0" json:"stageNumber"`
	Position          *int      `bun:"position" json:"position,omitempty"`
	BonusPoints       int       `bun:"bonus_points,notnull,default:0" json:"bonusPoints"`
	IsGcLeader        bool      `bun:"is_gc_leader,notnull,default:false" json:"isGcLeader"`
	IsMountainsLeader bool      `bun:"is_mountains_leader,notnull,default:false" json:"isMountainsLeader"`
	IsPointsLeader    bool      `bun:"is_points_leader,notnull,default:false" json:"isPointsLeader"`
	IsYoungLeader     bool      `bun:"is_young_leader,notnull,default:false" json:"isYoungLeader"`
	Status            string    `bun:"status,notnull,default:'FINISHED'" json:"status"`
	Points            int       `bun:"points,notnull,default:0" json:"points"`
	UploadedAt        time.Time `bun:"uploaded_at,notnull,default:current_timestamp" json:"uploadedAt"`
}

// TeamRaceScore records the points a fantasy team earned from one race or
// stage so that corrected results can be re-scored by difference.
type TeamRaceScore struct {
	bun.BaseModel `bun:"table:team_race_scores,alias:trs"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	TeamID      int64  `bun:"team_id,notnull,unique:team_race_scores_no_dupes" json:"teamID"`
	RaceID      int64  `bun:"race_id,notnull,unique:team_race_scores_no_dupes" json:"raceID"`
	StageNumber int    `bun:"stage_number,notnull,unique:team_race_scores_no_dupes" json:"stageNumber"`
	Points      int    `bun:"points,notnull" json:"points"`
	Chip        string `bun:"chip,notnull,default:''" json:"chip,omitempty"`
}
