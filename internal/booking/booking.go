// Package booking accepts or rejects appointment requests.
//
// The decision is made by the store in one conditional insert: a booking is
// rejected when the patient already holds the same treatment on that day, or
// when someone else already holds the slot. The guard never reads before it
// writes, so concurrent requests for the same slot resolve to one winner.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"doctors-portal-api/internal/availability"
	"doctors-portal-api/internal/model"
	"doctors-portal-api/internal/notify"
	"doctors-portal-api/internal/store"
)

const (
	ReasonDuplicate = "duplicate_booking"
	ReasonSlotTaken = "slot_taken"

	notifyTimeout = 10 * time.Second
)

var ErrInvalidRequest = errors.New("invalid booking request")

type Reserver interface {
	InsertBooking(ctx context.Context, b *model.Booking) error
}

type Request struct {
	Email           string  `json:"email"`
	Patient         string  `json:"patient"`
	Phone           string  `json:"phone"`
	Treatment       string  `json:"treatment"`
	AppointmentDate string  `json:"appointmentDate"`
	Slot            string  `json:"slot"`
	Price           float64 `json:"price"`
}

type Result struct {
	Accepted bool
	Booking  *model.Booking
	Reason   string
	Message  string
}

type Guard struct {
	store    Reserver
	notifier notify.Notifier
	log      zerolog.Logger
	now      func() time.Time
	inflight sync.WaitGroup
}

func NewGuard(st Reserver, n notify.Notifier, log zerolog.Logger) *Guard {
	return &Guard{store: st, notifier: n, log: log, now: time.Now}
}

func (r *Request) validate() error {
	r.Email = strings.TrimSpace(r.Email)
	r.Treatment = strings.TrimSpace(r.Treatment)
	r.Slot = strings.TrimSpace(r.Slot)
	if r.Email == "" || r.Treatment == "" || r.Slot == "" {
		return fmt.Errorf("%w: email, treatment and slot required", ErrInvalidRequest)
	}
	d, err := availability.ParseDate(r.AppointmentDate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	r.AppointmentDate = d
	return nil
}

// Submit reserves the requested slot. Business rejections come back as a
// Result with Accepted=false; only store failures are returned as errors.
func (g *Guard) Submit(ctx context.Context, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}

	b := &model.Booking{
		ID:              uuid.New().String(),
		Email:           req.Email,
		Patient:         req.Patient,
		Phone:           req.Phone,
		Treatment:       req.Treatment,
		AppointmentDate: req.AppointmentDate,
		Slot:            req.Slot,
		Price:           req.Price,
		CreatedAt:       g.now().UTC(),
	}

	err := g.store.InsertBooking(ctx, b)
	switch {
	case errors.Is(err, store.ErrDuplicateBooking):
		return Result{
			Reason:  ReasonDuplicate,
			Message: fmt.Sprintf("You already have a booking on %s", req.AppointmentDate),
		}, nil
	case errors.Is(err, store.ErrSlotTaken):
		return Result{
			Reason:  ReasonSlotTaken,
			Message: fmt.Sprintf("%s at %s on %s is already booked", req.Treatment, req.Slot, req.AppointmentDate),
		}, nil
	case err != nil:
		return Result{}, fmt.Errorf("insert booking: %w", err)
	}

	g.notify(*b)
	return Result{Accepted: true, Booking: b}, nil
}

// notify is fire-and-forget: the reservation stands whatever happens here.
func (g *Guard) notify(b model.Booking) {
	if g.notifier == nil {
		return
	}
	g.inflight.Add(1)
	go func() {
		defer g.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := g.notifier.BookingConfirmed(ctx, b); err != nil {
			g.log.Warn().Err(err).Str("booking_id", b.ID).Msg("booking notification failed")
		}
	}()
}

// Drain waits for notifications still in flight. It returns ctx.Err() if
// they outlast ctx; those events are lost.
func (g *Guard) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
