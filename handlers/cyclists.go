package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/db"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/fantasy"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/models"
)

const demandHistoryDays = 30

type cyclistDetail struct {
	*models.Cyclist
	Demand []models.CyclistDemand `json:"demand"`
}

// ListCyclists returns the market, optionally filtered by category, pro team
// and maximum price.
func (h *Handler) ListCyclists(c echo.Context) error {
	var f db.CyclistFilter

	if cat := strings.TrimSpace(c.QueryParam("category")); cat != "" {
		parsed, ok := fantasy.ParseCategory(strings.ToUpper(cat))
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown category "+cat)
		}
		f.Category = string(parsed)
	}
	if team := c.QueryParam("proTeam"); team != "" {
		id, err := strconv.ParseInt(team, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid proTeam")
		}
		f.ProTeamID = id
	}
	if price := c.QueryParam("maxPrice"); price != "" {
		p, err := strconv.ParseFloat(price, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid maxPrice")
		}
		f.MaxPrice = p
	}

	cyclists, err := h.store.ListCyclists(c.Request().Context(), f)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, cyclists)
}

// GetCyclist returns one cyclist with the last month of demand snapshots.
func (h *Handler) GetCyclist(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	cyclist, err := h.store.Cyclist(ctx, id)
	if err != nil {
		return storeError(err)
	}
	demand, err := h.store.DemandHistory(ctx, id, demandHistoryDays)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, cyclistDetail{Cyclist: cyclist, Demand: demand})
}
