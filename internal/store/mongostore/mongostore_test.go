package mongostore

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"doctors-portal-api/internal/model"
	"doctors-portal-api/internal/store"
)

func setup(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Connect(ctx, uri, "doctorsPortal_test_"+uuid.New().String()[:8])
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		_ = s.bookings.Database().Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func newBooking(email, slot string) *model.Booking {
	return &model.Booking{
		ID: uuid.New().String(), Email: email, Treatment: "Cleaning",
		AppointmentDate: "2024-01-05", Slot: slot, CreatedAt: time.Now(),
	}
}

func TestBookingIndexes(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	if err := s.InsertBooking(ctx, newBooking("a@x.com", "9:00")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertBooking(ctx, newBooking("a@x.com", "10:00")); err != store.ErrDuplicateBooking {
		t.Errorf("expected ErrDuplicateBooking, got %v", err)
	}
	if err := s.InsertBooking(ctx, newBooking("b@x.com", "9:00")); err != store.ErrSlotTaken {
		t.Errorf("expected ErrSlotTaken, got %v", err)
	}
}

func TestConcurrentSlotBooking(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- s.InsertBooking(ctx, newBooking(fmt.Sprintf("p%d@x.com", i), "9:00"))
		}(i)
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else if err != store.ErrSlotTaken {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Errorf("expected exactly 1 success, got %d", successes)
	}
}

func TestPromoteToAdmin(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	u := &model.User{ID: uuid.New().String(), Email: "p@x.com", Role: model.RolePatient, CreatedAt: time.Now()}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateUser(ctx, &model.User{ID: uuid.New().String(), Email: "p@x.com"}); err != store.ErrEmailTaken {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
	if err := s.PromoteToAdmin(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	got, err := s.UserByEmail(ctx, "p@x.com")
	if err != nil || !got.IsAdmin() {
		t.Fatalf("expected admin, got %+v %v", got, err)
	}
	if err := s.PromoteToAdmin(ctx, "nope"); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTreatmentsListedInInsertOrder(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	// ids sort the other way round, so only createdAt can give this order
	base := time.Now().UTC().Truncate(time.Millisecond)
	names := []string{"Fillings", "Cleaning", "Braces"}
	for i, name := range names {
		tr := &model.TreatmentOption{
			ID: fmt.Sprintf("z-%d", 9-i), Name: name, Slots: []string{"9:00"},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.CreateTreatment(ctx, tr); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.ListTreatments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != len(names) {
		t.Fatalf("expected %d treatments, got %d", len(names), len(list))
	}
	for i, tr := range list {
		if tr.Name != names[i] {
			t.Errorf("position %d: expected %s, got %s", i, names[i], tr.Name)
		}
	}
}
