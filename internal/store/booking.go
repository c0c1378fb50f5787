package store

import (
	"context"

	"doctors-portal-api/internal/model"
)

const bookingCols = `id, email, patient, phone, treatment, appointment_date, slot, price, created_at`

// InsertBooking reserves the slot. Both uniqueness rules are checked by the
// table constraints in the same statement, so concurrent callers cannot both win.
func (s *Store) InsertBooking(ctx context.Context, b *model.Booking) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bookings (`+bookingCols+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		b.ID, b.Email, b.Patient, b.Phone, b.Treatment, b.AppointmentDate, b.Slot, b.Price, b.CreatedAt,
	)
	return mapErr(err)
}

func (s *Store) BookingsOnDate(ctx context.Context, date string) ([]model.Booking, error) {
	return s.queryBookings(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE appointment_date = $1 ORDER BY created_at`, date)
}

func (s *Store) BookingsByEmail(ctx context.Context, email string) ([]model.Booking, error) {
	return s.queryBookings(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE email = $1 ORDER BY appointment_date, created_at`, email)
}

func (s *Store) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	b := &model.Booking{}
	err := s.pool.QueryRow(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id = $1`, id,
	).Scan(&b.ID, &b.Email, &b.Patient, &b.Phone, &b.Treatment, &b.AppointmentDate,
		&b.Slot, &b.Price, &b.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

func (s *Store) queryBookings(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(
			&b.ID, &b.Email, &b.Patient, &b.Phone, &b.Treatment, &b.AppointmentDate,
			&b.Slot, &b.Price, &b.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
