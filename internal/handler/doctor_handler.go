package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"doctors-portal-api/internal/model"
	"doctors-portal-api/internal/store"
)

func (h *Handler) ListDoctors(c echo.Context) error {
	list, err := h.store.ListDoctors(c.Request().Context())
	if err != nil {
		return h.internal(c, "list doctors", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var d model.Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.Email) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and email required")
	}
	d.ID = uuid.New().String()
	d.CreatedAt = time.Now().UTC()

	if err := h.store.CreateDoctor(c.Request().Context(), &d); err != nil {
		return h.internal(c, "create doctor", err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	err := h.store.DeleteDoctor(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	if err != nil {
		return h.internal(c, "delete doctor", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"acknowledged": true, "deletedCount": 1})
}
