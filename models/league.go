package models

import (
	"time"

	"github.com/uptrace/bun"
)

// League is a private competition between fantasy teams, joined by code.
type League struct {
	bun.BaseModel `bun:"table:leagues,alias:lg"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Code      string    `bun:"code,notnull,unique" json:"code"`
	OwnerID   int64     `bun:"owner_id,notnull" json:"ownerID"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// LeagueMember links a fantasy team to a league.
type LeagueMember struct {
	bun.BaseModel `bun:"table:league_members,alias:lm"`

	ID       int64 `bun:"id,pk,autoincrement" json:"id"`
	LeagueID int64 `bun:"league_id,notnull,unique:league_members_no_dupes" json:"leagueID"`
	TeamID   int64 `bun:"team_id,notnull,unique:league_members_no_dupes" json:"teamID"`
}
