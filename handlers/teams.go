package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/db"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/fantasy"
	mw "github.com/brunomigmarques/CiclismoPortugal-sub006/middleware"
)

const maxTeamName = 40

type createTeamRequest struct {
	TeamName string `json:"teamName"`
}

type cyclistRequest struct {
	CyclistID int64 `json:"cyclistID"`
}

type lineupRequest struct {
	Active []int64 `json:"active"`
}

type chipRequest struct {
	Chip   string `json:"chip"`
	RaceID int64  `json:"raceID"`
}

type eligibilityBody struct {
	Eligible bool   `json:"eligible"`
	Code     string `json:"code"`
	Reason   string `json:"reason"`
}

type validationBody struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems"`
}

func eligibilityCode(e fantasy.Eligibility) string {
	switch e.(type) {
	case fantasy.EligibleResult:
		return "ELIGIBLE"
	case fantasy.AlreadyOwned:
		return "ALREADY_OWNED"
	case fantasy.TeamFull:
		return "TEAM_FULL"
	case fantasy.InsufficientBudget:
		return "INSUFFICIENT_BUDGET"
	case fantasy.TooManyFromSameTeam:
		return "TOO_MANY_FROM_SAME_TEAM"
	case fantasy.CategoryFull:
		return "CATEGORY_FULL"
	}
	return "UNKNOWN"
}

func newEligibilityBody(e fantasy.Eligibility) eligibilityBody {
	return eligibilityBody{Eligible: e.Eligible(), Code: eligibilityCode(e), Reason: e.Reason()}
}

func newValidationBody(v fantasy.TeamValidation) validationBody {
	body := validationBody{Valid: v.IsValid(), Problems: []string{}}
	if inv, ok := v.(fantasy.Invalid); ok {
		for _, p := range inv.Problems {
			body.Problems = append(body.Problems, p.Message())
		}
	}
	return body
}

func currentUser(c echo.Context) (int64, error) {
	id := mw.UserID(c)
	if id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

// CreateTeam registers the caller's squad with the starting budget.
func (h *Handler) CreateTeam(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createTeamRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	name := strings.TrimSpace(req.TeamName)
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "teamName is required")
	}
	if len([]rune(name)) > maxTeamName {
		return echo.NewHTTPError(http.StatusBadRequest, "teamName is too long")
	}

	team, err := h.store.CreateTeam(c.Request().Context(), userID, name)
	if err != nil {
		if errors.Is(err, db.ErrConflict) {
			return echo.NewHTTPError(http.StatusConflict, "team already exists or name is taken")
		}
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, team)
}

// MyTeam returns the caller's squad with riders.
func (h *Handler) MyTeam(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	team, err := h.store.TeamByUser(c.Request().Context(), userID)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, team)
}

// ValidateMyTeam lists everything that keeps the squad from competing.
func (h *Handler) ValidateMyTeam(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	team, err := h.store.TeamByUser(c.Request().Context(), userID)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, newValidationBody(fantasy.ValidateTeam(team.Snapshot())))
}

// BuyCyclist adds a rider at today's price. A purchase the rules forbid
// answers 409 with the reason.
func (h *Handler) BuyCyclist(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req cyclistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.CyclistID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "cyclistID is required")
	}

	ctx := c.Request().Context()
	out, err := h.store.BuyCyclist(ctx, userID, req.CyclistID)
	if err != nil {
		return storeError(err)
	}
	if !out.Eligibility.Eligible() {
		return c.JSON(http.StatusConflict, newEligibilityBody(out.Eligibility))
	}
	if out.Penalty > 0 {
		h.log.Info("transfer penalty", zap.Int64("team_id", out.Team.ID), zap.Int("points", out.Penalty))
		h.invalidateStandings(ctx)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"team":    out.Team,
		"penalty": out.Penalty,
	})
}

// SellCyclist removes a rider and refunds today's price.
func (h *Handler) SellCyclist(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	cyclistID, err := idParam(c, "cyclistId")
	if err != nil {
		return err
	}
	team, err := h.store.SellCyclist(c.Request().Context(), userID, cyclistID)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, team)
}

// SetCaptain hands the armband to an active rider.
func (h *Handler) SetCaptain(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req cyclistRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.CyclistID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "cyclistID is required")
	}
	team, err := h.store.SetCaptain(c.Request().Context(), userID, req.CyclistID)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, team)
}

// SetLineup picks the riders who score.
func (h *Handler) SetLineup(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req lineupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	team, err := h.store.SetLineup(c.Request().Context(), userID, req.Active)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, team)
}

// PlayChip binds a season chip to a race.
func (h *Handler) PlayChip(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req chipRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	chip, ok := fantasy.ParseChip(strings.ToUpper(strings.TrimSpace(req.Chip)))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "chip must be TRIPLE_CAPTAIN, BENCH_BOOST or WILDCARD")
	}
	if req.RaceID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "raceID is required")
	}
	team, err := h.store.PlayChip(c.Request().Context(), userID, chip, req.RaceID)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, team)
}
