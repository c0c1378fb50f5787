package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"doctors-portal-api/internal/auth"
	"doctors-portal-api/internal/model"
	"doctors-portal-api/internal/store"
)

// IdentityKey holds the verified email for the rest of the request.
const IdentityKey = "identity_email"

// Authenticate checks the bearer token. It trusts the token's claim and does
// not consult the store; a missing credential is 401, a bad one is 403.
func Authenticate(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// token from Authorization: Bearer <jwt>
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, raw, ok := strings.Cut(h, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized access")
			}

			claims, err := auth.ParseToken(strings.TrimSpace(raw), secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden access")
			}

			c.Set(IdentityKey, claims.Email)
			return next(c)
		}
	}
}

// Identity returns the email set by Authenticate.
func Identity(c echo.Context) (string, bool) {
	email, ok := c.Get(IdentityKey).(string)
	return email, ok && email != ""
}

type RoleLookup interface {
	UserByEmail(ctx context.Context, email string) (*model.User, error)
}

// RequireAdmin must run after Authenticate. The role is read from the store
// on every request, so a change of role applies immediately.
func RequireAdmin(users RoleLookup, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email, ok := Identity(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized access")
			}

			u, err := users.UserByEmail(c.Request().Context(), email)
			if errors.Is(err, store.ErrNotFound) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden access")
			}
			if err != nil {
				log.Error().Err(err).Str("email", email).Msg("role lookup failed")
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			}
			if !u.IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden access")
			}
			return next(c)
		}
	}
}
