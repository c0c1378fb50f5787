// Package mongostore keeps the Credential Store in MongoDB. Conflict rules
// are unique indexes, so a booking insert either lands or fails atomically.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"doctors-portal-api/internal/model"
	"doctors-portal-api/internal/store"
)

const (
	idxPatientDay = "uniq_patient_day"
	idxSlot       = "uniq_slot"
	idxUserEmail  = "uniq_user_email"
	idxTreatment  = "uniq_treatment_name"
)

type Store struct {
	client     *mongo.Client
	treatments *mongo.Collection
	bookings   *mongo.Collection
	users      *mongo.Collection
	doctors    *mongo.Collection
}

func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(database)
	return &Store{
		client:     client,
		treatments: db.Collection("appointmentOptions"),
		bookings:   db.Collection("bookings"),
		users:      db.Collection("users"),
		doctors:    db.Collection("doctors"),
	}, nil
}

func (s *Store) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx, nil) }

// EnsureIndexes must run before serving; without the unique indexes the
// booking rules are not enforced.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "treatment", Value: 1}, {Key: "appointmentDate", Value: 1}},
			Options: options.Index().SetName(idxPatientDay).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "treatment", Value: 1}, {Key: "appointmentDate", Value: 1}, {Key: "slot", Value: 1}},
			Options: options.Index().SetName(idxSlot).SetUnique(true),
		},
	}); err != nil {
		return fmt.Errorf("booking indexes: %w", err)
	}
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName(idxUserEmail).SetUnique(true),
	}); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	if _, err := s.treatments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetName(idxTreatment).SetUnique(true),
	}); err != nil {
		return fmt.Errorf("treatment indexes: %w", err)
	}
	return nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		msg := err.Error()
		switch {
		case strings.Contains(msg, idxPatientDay):
			return store.ErrDuplicateBooking
		case strings.Contains(msg, idxSlot):
			return store.ErrSlotTaken
		case strings.Contains(msg, idxUserEmail):
			return store.ErrEmailTaken
		case strings.Contains(msg, idxTreatment):
			return store.ErrTreatmentExists
		}
	}
	return err
}

func findAll[T any](ctx context.Context, c *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) InsertBooking(ctx context.Context, b *model.Booking) error {
	_, err := s.bookings.InsertOne(ctx, b)
	return mapErr(err)
}

func (s *Store) BookingsOnDate(ctx context.Context, date string) ([]model.Booking, error) {
	return findAll[model.Booking](ctx, s.bookings, bson.M{"appointmentDate": date},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (s *Store) BookingsByEmail(ctx context.Context, email string) ([]model.Booking, error) {
	return findAll[model.Booking](ctx, s.bookings, bson.M{"email": email},
		options.Find().SetSort(bson.D{{Key: "appointmentDate", Value: 1}, {Key: "createdAt", Value: 1}}))
}

func (s *Store) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := s.bookings.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, mapErr(err)
	}
	return &b, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.users.InsertOne(ctx, u)
	return mapErr(err)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	return findAll[model.User](ctx, s.users, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (s *Store) PromoteToAdmin(ctx context.Context, id string) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"role": model.RoleAdmin}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListTreatments(ctx context.Context) ([]model.TreatmentOption, error) {
	// natural order is not insertion order in mongo
	return findAll[model.TreatmentOption](ctx, s.treatments, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
}

func (s *Store) CreateTreatment(ctx context.Context, t *model.TreatmentOption) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.treatments.InsertOne(ctx, t)
	return mapErr(err)
}

func (s *Store) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	return findAll[model.Doctor](ctx, s.doctors, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (s *Store) CreateDoctor(ctx context.Context, d *model.Doctor) error {
	_, err := s.doctors.InsertOne(ctx, d)
	return err
}

func (s *Store) DeleteDoctor(ctx context.Context, id string) error {
	res, err := s.doctors.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
