package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ProTeam is a professional cycling team.
type ProTeam struct {
	bun.BaseModel `bun:"table:pro_teams,alias:pt"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	Name    string `bun:"name,notnull,unique" json:"name"`
	Code    string `bun:"code,notnull" json:"code"`
	Country string `bun:"country" json:"country,omitempty"`
}

// Cyclist is a rider available in the fantasy game. Category and identity are
// fixed at creation; price moves daily.
type Cyclist struct {
	bun.BaseModel `bun:"table:cyclists,alias:cy"`

	ID               int64   `bun:"id,pk,autoincrement" json:"id"`
	Name             string  `bun:"name,notnull,unique" json:"name"`
	Nationality      string  `bun:"nationality" json:"nationality,omitempty"`
	Category         string  `bun:"category,notnull" json:"category"`
	ProTeamID        int64   `bun:"pro_team_id,notnull" json:"proTeamID"`
	Price            float64 `bun:"price,notnull" json:"price"`
	BasePrice        float64 `bun:"base_price,notnull" json:"basePrice"`
	Popularity       float64 `bun:"popularity,notnull,default:0" json:"popularity"`
	PriceBoostActive bool    `bun:"price_boost_active,notnull,default:false" json:"priceBoostActive"`
	PriceBoostRaceID *int64  `bun:"price_boost_race_id" json:"priceBoostRaceID,omitempty"`
	TotalPoints      int     `bun:"total_points,notnull,default:0" json:"totalPoints"`

	ProTeam *ProTeam `bun:"rel:belongs-to,join:pro_team_id=id" json:"proTeam,omitempty"`
}

// CyclistDemand is a daily ownership snapshot feeding the price update.
type CyclistDemand struct {
	bun.BaseModel `bun:"table:cyclist_demand,alias:cd"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	CyclistID      int64     `bun:"cyclist_id,notnull,unique:cyclist_demand_day" json:"cyclistID"`
	Date           string    `bun:"date,notnull,type:date,unique:cyclist_demand_day" json:"date"`
	OwnershipCount int       `bun:"ownership_count,notnull" json:"ownershipCount"`
	TotalTeams     int       `bun:"total_teams,notnull" json:"totalTeams"`
	OwnershipPct   float64   `bun:"ownership_pct,notnull" json:"ownershipPct"`
	Price          float64   `bun:"price,notnull" json:"price"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}
