package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/fantasy"
)

const stagePage = `<html><body>
<table class="nav"><tr><td>Menu</td></tr></table>
<table class="results">
  <thead><tr><th>Rnk</th><th>Rider</th><th>Team</th><th>Bonus</th><th>Jersey</th></tr></thead>
  <tbody>
    <tr><td>1</td><td><a href="/rider/a">João  Almeida</a></td><td>UAE</td><td>10</td><td>yellow</td></tr>
    <tr><td>2</td><td>Tadej Pogačar</td><td>UAE</td><td>+6</td><td></td></tr>
    <tr><td>3.</td><td>Remco Evenepoel <span data-jersey="youth"></span></td><td>Soudal</td><td></td><td>kom</td></tr>
    <tr><td>DNF</td><td>Rui Costa</td><td>EF</td><td></td><td></td></tr>
    <tr><td>dns</td><td>Unknown Rider</td><td>X</td><td></td><td></td></tr>
    <tr><td>-</td><td>Broken Line</td><td>X</td><td></td><td></td></tr>
  </tbody>
</table>
</body></html>`

func TestParseResults(t *testing.T) {
	rows, err := ParseResults(strings.NewReader(stagePage))
	require.NoError(t, err)
	require.Len(t, rows, 5)

	first := rows[0]
	require.NotNil(t, first.Position)
	assert.Equal(t, 1, *first.Position)
	assert.Equal(t, "João Almeida", first.Rider)
	assert.Equal(t, "UAE", first.Team)
	assert.Equal(t, 10, first.BonusPoints)
	assert.True(t, first.GcLeader)
	assert.Equal(t, fantasy.StatusFinished, first.Status)

	assert.Equal(t, 6, rows[1].BonusPoints)

	third := rows[2]
	require.NotNil(t, third.Position)
	assert.Equal(t, 3, *third.Position)
	assert.True(t, third.Mountains)
	assert.True(t, third.Young)
	assert.False(t, third.GcLeader)

	assert.Nil(t, rows[3].Position)
	assert.Equal(t, fantasy.StatusDNF, rows[3].Status)
	assert.Equal(t, fantasy.StatusDNS, rows[4].Status)
}

func TestParseResultsNoTable(t *testing.T) {
	_, err := ParseResults(strings.NewReader(`<table><thead><tr><th>Date</th></tr></thead></table>`))
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestResolve(t *testing.T) {
	rows, err := ParseResults(strings.NewReader(stagePage))
	require.NoError(t, err)

	ids := map[string]int64{
		"joão almeida":    1,
		"tadej pogačar":   2,
		"remco evenepoel": 3,
		"rui costa":       4,
	}
	results, unmatched := Resolve(rows, ids)
	require.Len(t, results, 4)
	assert.Equal(t, []string{"Unknown Rider"}, unmatched)

	assert.Equal(t, int64(1), results[0].CyclistID)
	assert.True(t, results[0].IsGcLeader)
	assert.Equal(t, "DNF", results[3].Status)

	pts := fantasy.ResultPoints(results[0].Result(), fantasy.RaceStage)
	assert.Equal(t, 50+10+10, pts)
}
