package models

import (
	"time"

	"github.com/uptrace/bun"
)

// FantasyTeam is a user's (or bot's) season squad.
type FantasyTeam struct {
	bun.BaseModel `bun:"table:fantasy_teams,alias:ft"`

	ID                int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID            *int64    `bun:"user_id,unique" json:"userID,omitempty"`
	TeamName          string    `bun:"team_name,notnull,unique" json:"teamName"`
	Budget            float64   `bun:"budget,notnull" json:"budget"`
	TotalPoints       int       `bun:"total_points,notnull,default:0" json:"totalPoints"`
	FreeTransfers     int       `bun:"free_transfers,notnull" json:"freeTransfers"`
	IsBot             bool      `bun:"is_bot,notnull,default:false" json:"isBot"`
	Strategy          string    `bun:"strategy,notnull,default:''" json:"strategy,omitempty"`
	SquadCompleted    bool      `bun:"squad_completed,notnull,default:false" json:"squadCompleted"`
	TripleCaptainUsed bool      `bun:"triple_captain_used,notnull,default:false" json:"tripleCaptainUsed"`
	BenchBoostUsed    bool      `bun:"bench_boost_used,notnull,default:false" json:"benchBoostUsed"`
	WildcardUsed      bool      `bun:"wildcard_used,notnull,default:false" json:"wildcardUsed"`
	ActiveChip        string    `bun:"active_chip,notnull,default:''" json:"activeChip,omitempty"`
	ActiveChipRaceID  *int64    `bun:"active_chip_race_id" json:"activeChipRaceID,omitempty"`
	CreatedAt         time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`

	Cyclists []*TeamCyclist `bun:"rel:has-many,join:id=team_id" json:"cyclists,omitempty"`
}

// TeamCyclist is one rostered rider.
type TeamCyclist struct {
	bun.BaseModel `bun:"table:team_cyclists,alias:tc"`

	ID            int64   `bun:"id,pk,autoincrement" json:"id"`
	TeamID        int64   `bun:"team_id,notnull,unique:team_cyclists_no_dupes" json:"teamID"`
	CyclistID     int64   `bun:"cyclist_id,notnull,unique:team_cyclists_no_dupes" json:"cyclistID"`
	IsActive      bool    `bun:"is_active,notnull,default:false" json:"isActive"`
	IsCaptain     bool    `bun:"is_captain,notnull,default:false" json:"isCaptain"`
	PurchasePrice float64 `bun:"purchase_price,notnull" json:"purchasePrice"`

	Cyclist *Cyclist `bun:"rel:belongs-to,join:cyclist_id=id" json:"cyclist,omitempty"`
}

// Transfer is an audit row for a buy or sell after the squad was completed.
type Transfer struct {
	bun.BaseModel `bun:"table:transfers,alias:tr"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	TeamID        int64     `bun:"team_id,notnull" json:"teamID"`
	CyclistOutID  *int64    `bun:"cyclist_out_id" json:"cyclistOutID,omitempty"`
	CyclistInID   *int64    `bun:"cyclist_in_id" json:"cyclistInID,omitempty"`
	Price         float64   `bun:"price,notnull" json:"price"`
	PenaltyPoints int       `bun:"penalty_points,notnull,default:0" json:"penaltyPoints"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}
