package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/cache"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/db"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

const leagueCodeLen = 8

type createLeagueRequest struct {
	Name        string `json:"name"`
	IncludeBots bool   `json:"includeBots"`
}

type joinLeagueRequest struct {
	Code string `json:"code"`
}

// newLeagueCode returns a short upper-case join code.
func newLeagueCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:leagueCodeLen])
}

// CreateLeague opens a private league and enrols the caller's team. Bot
// teams are added when asked so small leagues have opposition.
func (h *Handler) CreateLeague(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createLeagueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	ctx := c.Request().Context()
	team, err := h.store.TeamByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "create a team first")
		}
		return storeError(err)
	}

	league := &models.League{Name: req.Name, Code: newLeagueCode(), OwnerID: userID}
	if err := h.store.CreateLeague(ctx, league, team.ID); err != nil {
		return storeError(err)
	}
	if req.IncludeBots {
		n, err := h.store.AddBotsToLeague(ctx, league.ID)
		if err != nil {
			return storeError(err)
		}
		h.log.Info("bots added to league", zap.Int64("league_id", league.ID), zap.Int("bots", n))
	}
	return c.JSON(http.StatusCreated, league)
}

// JoinLeague enrols the caller's team in the league with the given code.
func (h *Handler) JoinLeague(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req joinLeagueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}

	ctx := c.Request().Context()
	team, err := h.store.TeamByUser(ctx, userID)
	if err != nil {
		return storeError(err)
	}
	league, err := h.store.JoinLeague(ctx, code, team.ID)
	if err != nil {
		return storeError(err)
	}
	if h.cache != nil {
		if err := h.cache.DeletePattern(ctx, cache.StandingsKey(league.ID)); err != nil {
			h.log.Warn("invalidate standings", zap.Int64("league_id", league.ID), zap.Error(err))
		}
	}
	return c.JSON(http.StatusOK, league)
}

// Standings returns the league table, served from the cache when one is
// configured.
func (h *Handler) Standings(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	key := cache.StandingsKey(id)

	if h.cache != nil {
		var rows []db.Standing
		err := h.cache.GetJSON(ctx, key, &rows)
		if err == nil {
			return c.JSON(http.StatusOK, rows)
		}
		if !errors.Is(err, cache.ErrMiss) {
			h.log.Warn("standings cache read", zap.Error(err))
		}
	}

	rows, err := h.store.Standings(ctx, id)
	if err != nil {
		return storeError(err)
	}
	if rows == nil {
		rows = []db.Standing{}
	}
	if h.cache != nil {
		if err := h.cache.SetJSON(ctx, key, rows, h.cacheTTL); err != nil {
			h.log.Warn("standings cache write", zap.Error(err))
		}
	}
	return c.JSON(http.StatusOK, rows)
}
