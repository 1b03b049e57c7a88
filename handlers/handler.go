package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/brunomigmarques/CiclismoPortugal-sub006/db"
	"github.com/brunomigmarques/CiclismoPortugal-sub006/jobs"
)

// StandingsCache caches league tables. The redis cache satisfies it.
type StandingsCache interface {
	GetJSON(ctx context.Context, key string, v interface{}) error
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	store  *db.Store
	JWTKey []byte
	log    *zap.Logger

	cache    StandingsCache
	cacheTTL time.Duration
	prices   jobs.Runner
	botSeed  int64
	checks   []namedCheck
}

// New creates a Handler with the given store and JWT signing key.
func New(store *db.Store, jwtKey []byte, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, JWTKey: jwtKey, log: log, cacheTTL: 5 * time.Minute}
}

// WithCache enables cached league standings.
func (h *Handler) WithCache(c StandingsCache, ttl time.Duration) *Handler {
	h.cache = c
	if ttl > 0 {
		h.cacheTTL = ttl
	}
	return h
}

// WithPriceJob lets admins trigger the daily price update on demand.
func (h *Handler) WithPriceJob(j jobs.Runner) *Handler {
	h.prices = j
	return h
}

// WithBotSeed fixes the bot generator seed; 0 seeds from the clock.
func (h *Handler) WithBotSeed(seed int64) *Handler {
	h.botSeed = seed
	return h
}

// storeError maps query layer errors onto HTTP errors.
func storeError(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, db.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, db.ErrNotInTeam),
		errors.Is(err, db.ErrInvalidLineup),
		errors.Is(err, db.ErrTeamIncomplete):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, db.ErrChipUsed), errors.Is(err, db.ErrChipPending):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, jobs.ErrAlreadyRunning):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func idParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// invalidateStandings drops cached league tables after points moved.
func (h *Handler) invalidateStandings(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.DeletePattern(ctx, "standings:*"); err != nil {
		h.log.Warn("invalidate standings cache", zap.Error(err))
	}
}
