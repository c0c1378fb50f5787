package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"doctors-portal-api/internal/booking"
	"doctors-portal-api/internal/middleware"
	"doctors-portal-api/internal/store"
)

type bookingResponse struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Message      string `json:"message,omitempty"`
}

// CreateBooking answers 200 for both outcomes; a rejection is a business
// result with acknowledged=false, not an HTTP error.
func (h *Handler) CreateBooking(c echo.Context) error {
	var req booking.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.guard.Submit(c.Request().Context(), req)
	if errors.Is(err, booking.ErrInvalidRequest) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return h.internal(c, "submit booking", err)
	}

	if !res.Accepted {
		return c.JSON(http.StatusOK, bookingResponse{Reason: res.Reason, Message: res.Message})
	}
	return c.JSON(http.StatusOK, bookingResponse{Acknowledged: true, InsertedID: res.Booking.ID})
}

// ListBookings only shows a patient their own bookings.
func (h *Handler) ListBookings(c echo.Context) error {
	email := c.QueryParam("email")
	if me, _ := middleware.Identity(c); email == "" || email != me {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden access")
	}

	list, err := h.store.BookingsByEmail(c.Request().Context(), email)
	if err != nil {
		return h.internal(c, "bookings by email", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) GetBooking(c echo.Context) error {
	b, err := h.store.GetBooking(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return h.internal(c, "get booking", err)
	}
	return c.JSON(http.StatusOK, b)
}
