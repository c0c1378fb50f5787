package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"doctors-portal-api/internal/availability"
	"doctors-portal-api/internal/model"
	"doctors-portal-api/internal/store"
)

// AppointmentOptions lists every treatment with the slots still open on ?date=.
func (h *Handler) AppointmentOptions(c echo.Context) error {
	date, err := availability.ParseDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()

	catalog, err := h.store.ListTreatments(ctx)
	if err != nil {
		return h.internal(c, "list treatments", err)
	}
	booked, err := h.store.BookingsOnDate(ctx, date)
	if err != nil {
		return h.internal(c, "bookings on date", err)
	}
	return c.JSON(http.StatusOK, availability.Resolve(catalog, booked))
}

func (h *Handler) AppointmentSpecialty(c echo.Context) error {
	catalog, err := h.store.ListTreatments(c.Request().Context())
	if err != nil {
		return h.internal(c, "list treatments", err)
	}
	return c.JSON(http.StatusOK, availability.Specialties(catalog))
}

type treatmentRequest struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Slots []string `json:"slots"`
}

func (h *Handler) CreateTreatment(c echo.Context) error {
	var req treatmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Slots) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "name and slots required")
	}
	if req.Price < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price must not be negative")
	}
	// stored trimmed, the same way booking requests are
	slots := make([]string, 0, len(req.Slots))
	seen := make(map[string]bool, len(req.Slots))
	for _, s := range req.Slots {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return echo.NewHTTPError(http.StatusBadRequest, "slot labels must be unique and non-empty")
		}
		seen[s] = true
		slots = append(slots, s)
	}

	t := &model.TreatmentOption{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Price:     req.Price,
		Slots:     slots,
		CreatedAt: time.Now().UTC(),
	}
	err := h.store.CreateTreatment(c.Request().Context(), t)
	if errors.Is(err, store.ErrTreatmentExists) {
		return echo.NewHTTPError(http.StatusConflict, "treatment already exists")
	}
	if err != nil {
		return h.internal(c, "create treatment", err)
	}
	return c.JSON(http.StatusCreated, t)
}
