package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness and database reachability.
type HealthHandler struct {
	DB pinger
}

func NewHealthHandler(db pinger) *HealthHandler { return &HealthHandler{DB: db} }

// Health is used by load balancers and monitoring.  It answers 503 when
// the database cannot be reached.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "db": "down"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "db": "up"})
}
