// Package ingest turns a published race classification page into result rows.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/fantasy"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

// ErrNoTable is returned when the page holds no recognisable results table.
var ErrNoTable = errors.New("no results table found")

// Row is one parsed line of a classification.
type Row struct {
	Position    *int
	Rider       string
	Team        string
	BonusPoints int
	Status      fantasy.ResultStatus
	GcLeader    bool
	Mountains   bool
	PointsJSY   bool
	Young       bool
}

type columns struct {
	rank, rider, team, bonus, jersey int
}

// ParseResults reads the first table whose header names both a rank and a
// rider column. Rank cells holding DNF, DNS, DSQ or OTL mark the status; OTL
// counts as DNF.
func ParseResults(r io.Reader) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var (
		rows  []Row
		found bool
	)
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		cols, ok := headerColumns(table)
		if !ok {
			return true
		}
		found = true
		table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
			if row, ok := parseRow(tr, cols); ok {
				rows = append(rows, row)
			}
		})
		return false
	})
	if !found {
		return nil, ErrNoTable
	}
	return rows, nil
}

func headerColumns(table *goquery.Selection) (columns, bool) {
	cols := columns{rank: -1, rider: -1, team: -1, bonus: -1, jersey: -1}
	table.Find("thead th, thead td").Each(func(i int, th *goquery.Selection) {
		switch strings.ToLower(strings.TrimSpace(th.Text())) {
		case "rnk", "rank", "pos", "pos.", "#":
			cols.rank = i
		case "rider", "name", "cyclist":
			cols.rider = i
		case "team":
			cols.team = i
		case "bonus", "bon", "bonif", "pnt":
			cols.bonus = i
		case "jersey", "jerseys", "leader":
			cols.jersey = i
		}
	})
	return cols, cols.rank >= 0 && cols.rider >= 0
}

func parseRow(tr *goquery.Selection, cols columns) (Row, bool) {
	cells := tr.Find("td")
	cell := func(i int) *goquery.Selection {
		if i < 0 || i >= cells.Length() {
			return nil
		}
		return cells.Eq(i)
	}
	text := func(i int) string {
		if c := cell(i); c != nil {
			return strings.Join(strings.Fields(c.Text()), " ")
		}
		return ""
	}

	row := Row{Rider: text(cols.rider), Team: text(cols.team), Status: fantasy.StatusFinished}
	if row.Rider == "" {
		return Row{}, false
	}

	rank := strings.TrimSuffix(strings.ToUpper(text(cols.rank)), ".")
	switch rank {
	case "DNF", "OTL":
		row.Status = fantasy.StatusDNF
	case "DNS":
		row.Status = fantasy.StatusDNS
	case "DSQ", "DQ":
		row.Status = fantasy.StatusDSQ
	default:
		n, err := strconv.Atoi(rank)
		if err != nil || n < 1 {
			return Row{}, false
		}
		row.Position = &n
	}

	if b := strings.Trim(text(cols.bonus), "+\" s"); b != "" {
		if n, err := strconv.Atoi(b); err == nil {
			row.BonusPoints = n
		}
	}

	markJerseys(&row, text(cols.jersey))
	tr.Find("[data-jersey]").Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr("data-jersey")
		markJerseys(&row, v)
	})
	return row, true
}

// markJerseys sets leader flags from free text such as "yellow, kom".
func markJerseys(row *Row, s string) {
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	}) {
		switch tok {
		case "gc", "yellow", "pink", "red", "leader":
			row.GcLeader = true
		case "kom", "mountains", "polka":
			row.Mountains = true
		case "points", "green", "sprint":
			row.PointsJSY = true
		case "youth", "young", "white":
			row.Young = true
		}
	}
}

// Resolve matches rider names against known cyclists. Names are compared
// case-insensitively; unmatched names are returned for the caller to report.
func Resolve(rows []Row, ids map[string]int64) ([]models.RaceResult, []string) {
	var (
		out       []models.RaceResult
		unmatched []string
	)
	seen := make(map[int64]bool, len(rows))
	for _, r := range rows {
		id, ok := ids[strings.ToLower(strings.TrimSpace(r.Rider))]
		if !ok {
			unmatched = append(unmatched, r.Rider)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, models.RaceResult{
			CyclistID:         id,
			Position:          r.Position,
			BonusPoints:       r.BonusPoints,
			IsGcLeader:        r.GcLeader,
			IsMountainsLeader: r.Mountains,
			IsPointsLeader:    r.PointsJSY,
			IsYoungLeader:     r.Young,
			Status:            string(r.Status),
		})
	}
	return out, unmatched
}
