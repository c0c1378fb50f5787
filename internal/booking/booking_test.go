package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"doctors-portal-api/internal/availability"
	"doctors-portal-api/internal/model"
	"doctors-portal-api/internal/store/memstore"
)

type recordingNotifier struct {
	err  error
	sent chan model.Booking
}

func newRecorder(err error) *recordingNotifier {
	return &recordingNotifier{err: err, sent: make(chan model.Booking, 16)}
}

func (r *recordingNotifier) BookingConfirmed(_ context.Context, b model.Booking) error {
	r.sent <- b
	return r.err
}

func (r *recordingNotifier) wait(t *testing.T) model.Booking {
	t.Helper()
	select {
	case b := <-r.sent:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("notifier not called")
		return model.Booking{}
	}
}

type brokenStore struct{}

func (brokenStore) InsertBooking(context.Context, *model.Booking) error {
	return errors.New("connection reset")
}

func req(email, slot string) Request {
	return Request{Email: email, Treatment: "Cleaning", AppointmentDate: "2024-01-05", Slot: slot}
}

func TestSubmitAccepted(t *testing.T) {
	st := memstore.New()
	n := newRecorder(nil)
	g := NewGuard(st, n, zerolog.Nop())

	res, err := g.Submit(context.Background(), req("a@test.com", "9:00"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Accepted || res.Booking == nil || res.Booking.ID == "" {
		t.Fatalf("expected accepted booking, got %+v", res)
	}
	if got := n.wait(t); got.ID != res.Booking.ID {
		t.Errorf("notified %s, booked %s", got.ID, res.Booking.ID)
	}
}

func TestSubmitDuplicate(t *testing.T) {
	st := memstore.New()
	g := NewGuard(st, nil, zerolog.Nop())
	ctx := context.Background()

	if res, _ := g.Submit(ctx, req("a@test.com", "9:00")); !res.Accepted {
		t.Fatal("first booking rejected")
	}
	// different slot, same patient/treatment/day
	res, err := g.Submit(ctx, req("a@test.com", "10:00"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Accepted || res.Reason != ReasonDuplicate {
		t.Errorf("expected duplicate rejection, got %+v", res)
	}
	if res.Message != "You already have a booking on 2024-01-05" {
		t.Errorf("message: %q", res.Message)
	}

	all, _ := st.BookingsByEmail(ctx, "a@test.com")
	if len(all) != 1 {
		t.Errorf("expected exactly 1 stored booking, got %d", len(all))
	}
}

func TestSubmitSlotTaken(t *testing.T) {
	st := memstore.New()
	g := NewGuard(st, nil, zerolog.Nop())
	ctx := context.Background()

	g.Submit(ctx, req("a@test.com", "9:00"))
	res, err := g.Submit(ctx, req("b@test.com", "9:00"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Accepted || res.Reason != ReasonSlotTaken {
		t.Errorf("expected slot conflict, got %+v", res)
	}
}

func TestSubmitConcurrentSameSlot(t *testing.T) {
	st := memstore.New()
	g := NewGuard(st, nil, zerolog.Nop())

	const n = 25
	var wg sync.WaitGroup
	results := make(chan Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := g.Submit(context.Background(), req(fmt.Sprintf("p%d@test.com", i), "9:00"))
			if err != nil {
				t.Errorf("submit %d: %v", i, err)
			}
			results <- res
		}(i)
	}
	wg.Wait()
	close(results)

	accepted, conflicts := 0, 0
	for r := range results {
		if r.Accepted {
			accepted++
		} else if r.Reason == ReasonSlotTaken {
			conflicts++
		}
	}
	if accepted != 1 || conflicts != n-1 {
		t.Errorf("expected 1 accepted and %d conflicts, got %d and %d", n-1, accepted, conflicts)
	}
}

func TestSubmitConcurrentSamePatient(t *testing.T) {
	st := memstore.New()
	g := NewGuard(st, nil, zerolog.Nop())

	slots := []string{"9:00", "10:00", "11:00", "12:00"}
	var wg sync.WaitGroup
	results := make(chan Result, len(slots))
	for _, s := range slots {
		wg.Add(1)
		go func(s string) {
			defer wg.Done()
			res, _ := g.Submit(context.Background(), req("a@test.com", s))
			results <- res
		}(s)
	}
	wg.Wait()
	close(results)

	accepted := 0
	for r := range results {
		if r.Accepted {
			accepted++
		} else if r.Reason != ReasonDuplicate {
			t.Errorf("unexpected rejection: %+v", r)
		}
	}
	if accepted != 1 {
		t.Errorf("expected 1 accepted, got %d", accepted)
	}
}

func TestSubmitValidation(t *testing.T) {
	g := NewGuard(memstore.New(), nil, zerolog.Nop())

	tests := []struct {
		name string
		req  Request
	}{
		{"missing email", Request{Treatment: "Cleaning", AppointmentDate: "2024-01-05", Slot: "9:00"}},
		{"missing treatment", Request{Email: "a@test.com", AppointmentDate: "2024-01-05", Slot: "9:00"}},
		{"missing slot", Request{Email: "a@test.com", Treatment: "Cleaning", AppointmentDate: "2024-01-05"}},
		{"bad date", Request{Email: "a@test.com", Treatment: "Cleaning", AppointmentDate: "Jan 5", Slot: "9:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Submit(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestSubmitStoreFailureSurfaces(t *testing.T) {
	g := NewGuard(brokenStore{}, nil, zerolog.Nop())
	_, err := g.Submit(context.Background(), req("a@test.com", "9:00"))
	if err == nil || errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestNotificationFailureKeepsBooking(t *testing.T) {
	st := memstore.New()
	n := newRecorder(errors.New("smtp down"))
	g := NewGuard(st, n, zerolog.Nop())

	res, err := g.Submit(context.Background(), req("a@test.com", "9:00"))
	if err != nil || !res.Accepted {
		t.Fatalf("expected acceptance, got %+v %v", res, err)
	}
	n.wait(t)

	if _, err := st.GetBooking(context.Background(), res.Booking.ID); err != nil {
		t.Errorf("booking rolled back: %v", err)
	}
}

// booking then reading availability for the same day
func TestEndToEndAvailability(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()
	st.CreateTreatment(ctx, &model.TreatmentOption{ID: "t1", Name: "Cleaning", Slots: []string{"9:00", "10:00"}})
	g := NewGuard(st, nil, zerolog.Nop())

	a, _ := g.Submit(ctx, req("a@test.com", "9:00"))
	if !a.Accepted {
		t.Fatal("patient A rejected")
	}
	b, _ := g.Submit(ctx, req("b@test.com", "9:00"))
	if b.Accepted || b.Reason != ReasonSlotTaken {
		t.Fatalf("patient B: expected slot conflict, got %+v", b)
	}

	catalog, _ := st.ListTreatments(ctx)
	onDate, _ := st.BookingsOnDate(ctx, "2024-01-05")
	got := availability.Resolve(catalog, onDate)
	if len(got) != 1 || len(got[0].Slots) != 1 || got[0].Slots[0] != "10:00" {
		t.Errorf("expected Cleaning: [10:00], got %+v", got)
	}
}

type blockingNotifier struct {
	release chan struct{}
}

func (b *blockingNotifier) BookingConfirmed(ctx context.Context, _ model.Booking) error {
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestDrainWaitsForNotifications(t *testing.T) {
	n := &blockingNotifier{release: make(chan struct{})}
	g := NewGuard(memstore.New(), n, zerolog.Nop())

	if res, _ := g.Submit(context.Background(), req("a@test.com", "9:00")); !res.Accepted {
		t.Fatal("booking rejected")
	}

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := g.Drain(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline while notification is pending, got %v", err)
	}

	close(n.release)
	ctx, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	if err := g.Drain(ctx); err != nil {
		t.Errorf("drain after release: %v", err)
	}
}

func TestDrainWithoutNotifier(t *testing.T) {
	g := NewGuard(memstore.New(), nil, zerolog.Nop())
	g.Submit(context.Background(), req("a@test.com", "9:00"))
	if err := g.Drain(context.Background()); err != nil {
		t.Errorf("nothing in flight, got %v", err)
	}
}
