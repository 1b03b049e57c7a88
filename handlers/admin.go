package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/jobs"
)

const maxBotsPerRequest = 500

type botsRequest struct {
	Count int   `json:"count"`
	Seed  int64 `json:"seed"`
}

// GenerateBots creates synthetic teams that fill leagues.
func (h *Handler) GenerateBots(c echo.Context) error {
	var req botsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Count <= 0 || req.Count > maxBotsPerRequest {
		return echo.NewHTTPError(http.StatusBadRequest, "count must be between 1 and 500")
	}

	report, err := jobs.CreateBots(c.Request().Context(), h.store, req.Count, h.seed(req.Seed), h.log)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, report)
}

func (h *Handler) seed(requested int64) int64 {
	switch {
	case requested != 0:
		return requested
	case h.botSeed != 0:
		return h.botSeed
	}
	return time.Now().UnixNano()
}

// RunPricing triggers the daily price update immediately.
func (h *Handler) RunPricing(c echo.Context) error {
	if h.prices == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "price job not configured")
	}
	report, err := h.prices.Run(c.Request().Context())
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, report)
}
