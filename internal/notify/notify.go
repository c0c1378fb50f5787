// Package notify tells the outside world about confirmed bookings.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"doctors-portal-api/internal/model"
)

const Channel = "booking-events"

type Notifier interface {
	BookingConfirmed(ctx context.Context, b model.Booking) error
}

type Event struct {
	Type    string        `json:"type"`
	Booking model.Booking `json:"booking"`
}

// Redis publishes booking events for downstream workers (mail, reminders).
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) BookingConfirmed(ctx context.Context, b model.Booking) error {
	data, err := json.Marshal(Event{Type: "booking.confirmed", Booking: b})
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, Channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", Channel, err)
	}
	return nil
}

// Log is used when no broker is configured.
type Log struct {
	log zerolog.Logger
}

func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) BookingConfirmed(_ context.Context, b model.Booking) error {
	l.log.Info().
		Str("booking_id", b.ID).
		Str("email", b.Email).
		Str("treatment", b.Treatment).
		Str("date", b.AppointmentDate).
		Str("slot", b.Slot).
		Msg("booking confirmed")
	return nil
}
