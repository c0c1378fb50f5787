// Package memstore is an in-memory Credential Store with the same conflict
// semantics as the database backends.
package memstore

import (
	"context"
	"sort"
	"sync"

	"doctors-portal-api/internal/model"
	"doctors-portal-api/internal/store"
)

type patientDay struct{ email, treatment, date string }
type slotKey struct{ treatment, date, slot string }

type Store struct {
	mu         sync.RWMutex
	users      map[string]*model.User // by email
	treatments []model.TreatmentOption
	bookings   []model.Booking
	patientDay map[patientDay]struct{}
	slots      map[slotKey]struct{}
	doctors    []model.Doctor
}

func New() *Store {
	return &Store{
		users:      make(map[string]*model.User),
		patientDay: make(map[patientDay]struct{}),
		slots:      make(map[slotKey]struct{}),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) InsertBooking(_ context.Context, b *model.Booking) error {
	pk := patientDay{b.Email, b.Treatment, b.AppointmentDate}
	sk := slotKey{b.Treatment, b.AppointmentDate, b.Slot}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patientDay[pk]; ok {
		return store.ErrDuplicateBooking
	}
	if _, ok := s.slots[sk]; ok {
		return store.ErrSlotTaken
	}
	s.patientDay[pk] = struct{}{}
	s.slots[sk] = struct{}{}
	s.bookings = append(s.bookings, *b)
	return nil
}

func (s *Store) BookingsOnDate(_ context.Context, date string) ([]model.Booking, error) {
	return s.filterBookings(func(b *model.Booking) bool { return b.AppointmentDate == date }), nil
}

func (s *Store) BookingsByEmail(_ context.Context, email string) ([]model.Booking, error) {
	out := s.filterBookings(func(b *model.Booking) bool { return b.Email == email })
	sort.SliceStable(out, func(i, j int) bool { return out[i].AppointmentDate < out[j].AppointmentDate })
	return out, nil
}

func (s *Store) GetBooking(_ context.Context, id string) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.bookings {
		if s.bookings[i].ID == id {
			b := s.bookings[i]
			return &b, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) filterBookings(keep func(*model.Booking) bool) []model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Booking{}
	for i := range s.bookings {
		if keep(&s.bookings[i]) {
			out = append(out, s.bookings[i])
		}
	}
	return out
}

func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Email]; ok {
		return store.ErrEmailTaken
	}
	cp := *u
	s.users[u.Email] = &cp
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) ListUsers(context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) PromoteToAdmin(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			u.Role = model.RoleAdmin
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListTreatments(context.Context) ([]model.TreatmentOption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.TreatmentOption, len(s.treatments))
	for i, t := range s.treatments {
		t.Slots = append([]string(nil), t.Slots...)
		out[i] = t
	}
	return out, nil
}

func (s *Store) CreateTreatment(_ context.Context, t *model.TreatmentOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.treatments {
		if existing.Name == t.Name {
			return store.ErrTreatmentExists
		}
	}
	cp := *t
	cp.Slots = append([]string(nil), t.Slots...)
	s.treatments = append(s.treatments, cp)
	return nil
}

func (s *Store) ListDoctors(context.Context) ([]model.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Doctor{}, s.doctors...), nil
}

func (s *Store) CreateDoctor(_ context.Context, d *model.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors = append(s.doctors, *d)
	return nil
}

func (s *Store) DeleteDoctor(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doctors {
		if s.doctors[i].ID == id {
			s.doctors = append(s.doctors[:i], s.doctors[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}
