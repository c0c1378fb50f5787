package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"doctors-portal-api/internal/auth"
	"doctors-portal-api/internal/booking"
	"doctors-portal-api/internal/middleware"
	"doctors-portal-api/internal/model"
)

// Store is everything the HTTP layer reads or writes directly. Booking
// inserts go through booking.Guard instead.
type Store interface {
	Ping(ctx context.Context) error

	ListTreatments(ctx context.Context) ([]model.TreatmentOption, error)
	CreateTreatment(ctx context.Context, t *model.TreatmentOption) error

	BookingsOnDate(ctx context.Context, date string) ([]model.Booking, error)
	BookingsByEmail(ctx context.Context, email string) ([]model.Booking, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)

	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	PromoteToAdmin(ctx context.Context, id string) error

	ListDoctors(ctx context.Context) ([]model.Doctor, error)
	CreateDoctor(ctx context.Context, d *model.Doctor) error
	DeleteDoctor(ctx context.Context, id string) error
}

type Handler struct {
	store  Store
	guard  *booking.Guard
	issuer *auth.Issuer
	log    zerolog.Logger
}

func New(st Store, guard *booking.Guard, issuer *auth.Issuer, log zerolog.Logger) *Handler {
	return &Handler{store: st, guard: guard, issuer: issuer, log: log}
}

// Routes wires the public surface. Gates run before any handler body.
func (h *Handler) Routes(e *echo.Echo, secret string, rl *middleware.RateLimiter) {
	authn := middleware.Authenticate(secret)
	admin := middleware.RequireAdmin(h.store, h.log)
	limit := middleware.RateLimit(rl)

	e.GET("/", h.Root)
	e.GET("/healthz", h.Health)

	e.GET("/appointmentOptions", h.AppointmentOptions)
	e.POST("/appointmentOptions", h.CreateTreatment, authn, admin)
	e.GET("/appointmentSpecialty", h.AppointmentSpecialty)

	e.POST("/bookings", h.CreateBooking, limit)
	e.GET("/bookings", h.ListBookings, authn)
	e.GET("/bookings/:id", h.GetBooking)

	e.POST("/jwt", h.IssueToken, limit)
	e.POST("/users", h.Register, limit)
	e.GET("/users", h.ListUsers, authn, admin)
	e.GET("/users/admin/:email", h.IsAdmin)
	e.PUT("/users/admin/:id", h.MakeAdmin, authn, admin)

	doctors := e.Group("/doctors", authn, admin)
	doctors.GET("", h.ListDoctors)
	doctors.POST("", h.CreateDoctor)
	doctors.DELETE("/:id", h.DeleteDoctor)
}

// internal logs a store failure and hides the detail from the caller.
func (h *Handler) internal(c echo.Context, op string, err error) error {
	h.log.Error().Err(err).
		Str("op", op).
		Str("request_id", requestID(c)).
		Msg("store failure")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func requestID(c echo.Context) string {
	rid, _ := c.Get("request_id").(string)
	return rid
}

type errorBody struct {
	Message string `json:"message"`
}

// ErrorHandler renders every error as {"message": ...}.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(code)
			}
		} else {
			log.Error().Err(err).Str("request_id", requestID(c)).Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, errorBody{Message: msg})
		}
		if err != nil {
			log.Error().Err(err).Msg("write error response")
		}
	}
}
