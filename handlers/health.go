package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HealthChecker is a dependency /healthz reports on. The redis cache
// satisfies it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type namedCheck struct {
	name  string
	check HealthChecker
}

// WithHealthCheck adds a dependency to /healthz.
func (h *Handler) WithHealthCheck(name string, c HealthChecker) *Handler {
	h.checks = append(h.checks, namedCheck{name: name, check: c})
	return h
}

// Healthz answers 200 when every registered dependency responds and 503
// naming the ones that did not.
func (h *Handler) Healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	body := map[string]string{"status": "ok"}
	code := http.StatusOK
	for _, nc := range h.checks {
		if err := nc.check.HealthCheck(ctx); err != nil {
			h.log.Warn("health check failed", zap.String("dependency", nc.name), zap.Error(err))
			body[nc.name] = err.Error()
			body["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	return c.JSON(code, body)
}
