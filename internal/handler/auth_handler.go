package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"doctors-portal-api/internal/auth"
	"doctors-portal-api/internal/model"
	"doctors-portal-api/internal/store"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "all fields required")
	}
	if !strings.Contains(req.Email, "@") {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "password too short")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return h.internal(c, "hash password", err)
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RolePatient,
		CreatedAt:    time.Now().UTC(),
	}
	err = h.store.CreateUser(c.Request().Context(), u)
	if errors.Is(err, store.ErrEmailTaken) {
		// don't say which part failed
		return echo.NewHTTPError(http.StatusConflict, "registration failed")
	}
	if err != nil {
		return h.internal(c, "create user", err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"acknowledged": true, "insertedId": u.ID})
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// IssueToken exchanges verified credentials for a 2-day access token.
func (h *Handler) IssueToken(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	tok, err := h.issuer.Issue(c.Request().Context(), strings.TrimSpace(req.Email), req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return c.JSON(http.StatusForbidden, tokenResponse{})
	}
	if err != nil {
		return h.internal(c, "issue token", err)
	}
	return c.JSON(http.StatusOK, tokenResponse{AccessToken: tok})
}
