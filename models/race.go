package models

import "github.com/uptrace/bun"

// Race is a calendar entry: a one-day race, stage race or grand tour.
type Race struct {
	bun.BaseModel `bun:"table:races,alias:rc"`

	ID        int64  `bun:"id,pk,autoincrement" json:"id"`
	Name      string `bun:"name,notnull" json:"name"`
	RaceType  string `bun:"race_type,notnull" json:"raceType"`
	StartDate string `bun:"start_date,notnull,type:date" json:"startDate"`
	EndDate   string `bun:"end_date,notnull,type:date" json:"endDate"`
	Stages    int    `bun:"stages,notnull,default:1" json:"stages"`
	Country   string `bun:"country" json:"country,omitempty"`
	URL       string `bun:"url" json:"url,omitempty"`
	Finished  bool   `bun:"finished,notnull,default:false" json:"finished"`
}

// RaceEntry puts a cyclist on a race startlist.
type RaceEntry struct {
	bun.BaseModel `bun:"table:race_entries,alias:re"`

	ID        int64 `bun:"id,pk,autoincrement" json:"id"`
	RaceID    int64 `bun:"race_id,notnull,unique:race_entries_no_dupes" json:"raceID"`
	CyclistID int64 `bun:"cyclist_id,notnull,unique:race_entries_no_dupes" json:"cyclistID"`
}
