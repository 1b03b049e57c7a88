package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/fantasy"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/ingest"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

const dateLayout = "2006-01-02"

type createRaceRequest struct {
	Name      string `json:"name"`
	RaceType  string `json:"raceType"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Stages    int    `json:"stages"`
	Country   string `json:"country"`
	URL       string `json:"url"`
}

type startlistRequest struct {
	CyclistIDs []int64 `json:"cyclistIDs"`
}

type resultRow struct {
	CyclistID         int64  `json:"cyclistID"`
	Position          *int   `json:"position"`
	BonusPoints       int    `json:"bonusPoints"`
	IsGcLeader        bool   `json:"isGcLeader"`
	IsMountainsLeader bool   `json:"isMountainsLeader"`
	IsPointsLeader    bool   `json:"isPointsLeader"`
	IsYoungLeader     bool   `json:"isYoungLeader"`
	Status            string `json:"status"`
}

type resultsRequest struct {
	StageNumber int         `json:"stageNumber"`
	Results     []resultRow `json:"results"`
}

type finishRequest struct {
	// FinalClassification is the closing general classification of a grand
	// tour. It is stored as stage 0 and pays the final bonus table.
	FinalClassification []resultRow `json:"finalClassification"`
}

// ListRaces returns the calendar. ?from=YYYY-MM-DD hides races that ended
// earlier.
func (h *Handler) ListRaces(c echo.Context) error {
	from := c.QueryParam("from")
	if from != "" {
		if _, err := time.Parse(dateLayout, from); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "from must be YYYY-MM-DD")
		}
	}
	races, err := h.store.ListRaces(c.Request().Context(), from)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, races)
}

// RaceResults returns the stored results for a race.
func (h *Handler) RaceResults(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := h.store.Race(ctx, id); err != nil {
		return storeError(err)
	}
	rows, err := h.store.RaceResults(ctx, id)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (r *createRaceRequest) race() (*models.Race, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	raceType, ok := fantasy.ParseRaceType(strings.ToUpper(strings.TrimSpace(r.RaceType)))
	if !ok {
		return nil, fmt.Errorf("raceType must be ONE_DAY, STAGE_RACE or GRAND_TOUR")
	}
	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return nil, fmt.Errorf("startDate must be YYYY-MM-DD")
	}
	if r.EndDate == "" {
		r.EndDate = r.StartDate
	}
	end, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		return nil, fmt.Errorf("endDate must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, fmt.Errorf("endDate is before startDate")
	}
	if r.Stages <= 0 {
		r.Stages = 1
	}
	if raceType == fantasy.RaceOneDay && r.Stages != 1 {
		return nil, fmt.Errorf("a one-day race has a single stage")
	}

	return &models.Race{
		Name:      r.Name,
		RaceType:  string(raceType),
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Stages:    r.Stages,
		Country:   strings.TrimSpace(r.Country),
		URL:       strings.TrimSpace(r.URL),
	}, nil
}

// CreateRace adds a race to the calendar.
func (h *Handler) CreateRace(c echo.Context) error {
	var req createRaceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	race, err := req.race()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.store.CreateRace(c.Request().Context(), race); err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, race)
}

// AddStartlist enters cyclists in a race. The startlist drives the pre-race
// price boost.
func (h *Handler) AddStartlist(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req startlistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.CyclistIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "cyclistIDs is required")
	}

	ctx := c.Request().Context()
	if _, err := h.store.Race(ctx, id); err != nil {
		return storeError(err)
	}
	added, err := h.store.AddEntries(ctx, id, req.CyclistIDs)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"added": added})
}

// toResults validates uploaded rows. A rider may appear once per upload and
// a finisher needs a position.
func toResults(rows []resultRow) ([]models.RaceResult, error) {
	seen := make(map[int64]bool, len(rows))
	out := make([]models.RaceResult, 0, len(rows))
	for i, r := range rows {
		if r.CyclistID <= 0 {
			return nil, fmt.Errorf("row %d: cyclistID is required", i)
		}
		if seen[r.CyclistID] {
			return nil, fmt.Errorf("row %d: cyclist %d listed twice", i, r.CyclistID)
		}
		seen[r.CyclistID] = true

		status, ok := fantasy.ParseResultStatus(strings.ToUpper(strings.TrimSpace(r.Status)))
		if !ok {
			return nil, fmt.Errorf("row %d: unknown status %q", i, r.Status)
		}
		if r.Position != nil && *r.Position < 1 {
			return nil, fmt.Errorf("row %d: position must be positive", i)
		}
		if status == fantasy.StatusFinished && r.Position == nil {
			return nil, fmt.Errorf("row %d: finisher without position", i)
		}
		if status != fantasy.StatusFinished {
			r.Position = nil
		}
		if r.BonusPoints < 0 {
			return nil, fmt.Errorf("row %d: bonusPoints must not be negative", i)
		}

		out = append(out, models.RaceResult{
			CyclistID:         r.CyclistID,
			Position:          r.Position,
			BonusPoints:       r.BonusPoints,
			IsGcLeader:        r.IsGcLeader,
			IsMountainsLeader: r.IsMountainsLeader,
			IsPointsLeader:    r.IsPointsLeader,
			IsYoungLeader:     r.IsYoungLeader,
			Status:            string(status),
		})
	}
	return out, nil
}

// checkStage rejects stage numbers outside the race.
func checkStage(race *models.Race, stage int) error {
	if stage < 0 || stage > race.Stages {
		return fmt.Errorf("stageNumber must be between 0 and %d", race.Stages)
	}
	switch fantasy.RaceType(race.RaceType) {
	case fantasy.RaceOneDay:
		if stage != 0 {
			return fmt.Errorf("a one-day race is uploaded as stage 0")
		}
	case fantasy.RaceStage:
		// Stage 0 is the grand tour final classification.
		if stage == 0 {
			return fmt.Errorf("stageNumber must be between 1 and %d", race.Stages)
		}
	}
	return nil
}

// UploadResults stores and scores results posted as JSON.
func (h *Handler) UploadResults(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req resultsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	results, err := toResults(req.Results)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.applyResults(c, id, req.StageNumber, results, nil)
}

// UploadResultsHTML parses a classification page posted as the request body.
// The stage comes from ?stage=; riders that cannot be matched by name are
// reported and skipped.
func (h *Handler) UploadResultsHTML(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	stage := 0
	if s := c.QueryParam("stage"); s != "" {
		if stage, err = strconv.Atoi(s); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid stage")
		}
	}

	rows, err := ingest.ParseResults(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	names, err := h.store.CyclistIDsByName(c.Request().Context())
	if err != nil {
		return storeError(err)
	}
	results, unmatched := ingest.Resolve(rows, names)
	if len(unmatched) > 0 {
		h.log.Warn("unmatched riders in results page", zap.Int64("race_id", id), zap.Strings("riders", unmatched))
	}
	return h.applyResults(c, id, stage, results, unmatched)
}

func (h *Handler) applyResults(c echo.Context, raceID int64, stage int, results []models.RaceResult, unmatched []string) error {
	ctx := c.Request().Context()
	race, err := h.store.Race(ctx, raceID)
	if err != nil {
		return storeError(err)
	}
	if err := checkStage(race, stage); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	summary, err := h.store.ApplyResults(ctx, raceID, stage, results)
	if err != nil {
		return storeError(err)
	}
	h.invalidateStandings(ctx)
	h.log.Info("results applied",
		zap.Int64("race_id", raceID),
		zap.Int("stage", stage),
		zap.Int("results", summary.Results),
		zap.Int("teams", summary.Teams),
		zap.Bool("corrected", summary.Corrected),
	)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"summary":   summary,
		"unmatched": unmatched,
	})
}

// FinishRace closes a race. For a grand tour the final general
// classification may be supplied and is scored before closing.
func (h *Handler) FinishRace(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req finishRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	ctx := c.Request().Context()
	race, err := h.store.Race(ctx, id)
	if err != nil {
		return storeError(err)
	}

	if len(req.FinalClassification) > 0 {
		if fantasy.RaceType(race.RaceType) != fantasy.RaceGrandTour {
			return echo.NewHTTPError(http.StatusBadRequest, "final classification only applies to grand tours")
		}
		results, err := toResults(req.FinalClassification)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if _, err := h.store.ApplyResults(ctx, id, 0, results); err != nil {
			return storeError(err)
		}
	}

	if err := h.store.FinishRace(ctx, id); err != nil {
		return storeError(err)
	}
	h.invalidateStandings(ctx)
	return c.JSON(http.StatusOK, map[string]interface{}{"raceID": id, "finished": true})
}
