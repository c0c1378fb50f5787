package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"doctors-portal-api/internal/store"
)

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.store.ListUsers(c.Request().Context())
	if err != nil {
		return h.internal(c, "list users", err)
	}
	return c.JSON(http.StatusOK, users)
}

// IsAdmin is public; unknown emails are simply not admins.
func (h *Handler) IsAdmin(c echo.Context) error {
	u, err := h.store.UserByEmail(c.Request().Context(), c.Param("email"))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusOK, map[string]bool{"isAdmin": false})
	}
	if err != nil {
		return h.internal(c, "user by email", err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"isAdmin": u.IsAdmin()})
}

func (h *Handler) MakeAdmin(c echo.Context) error {
	err := h.store.PromoteToAdmin(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return h.internal(c, "promote user", err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"acknowledged": true})
}
