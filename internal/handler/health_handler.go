package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func (h *Handler) Root(c echo.Context) error {
	return c.String(http.StatusOK, "Doctors portal server is running")
}

func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("health check failed")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
