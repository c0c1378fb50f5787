package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateBooking = errors.New("patient already booked this treatment on that day")
	ErrSlotTaken        = errors.New("slot already booked")
	ErrEmailTaken       = errors.New("email already registered")
	ErrTreatmentExists  = errors.New("treatment already exists")
)

// constraint names from migrations/001_init.sql
const (
	patientDayKey = "bookings_patient_day_key"
	slotKey       = "bookings_slot_key"
	userEmailKey  = "users_email_key"
	treatmentKey  = "treatments_name_key"
)

//go:embed migrations/001_init.sql
var initSQL string

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, initSQL)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// mapErr turns driver errors into the package sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case patientDayKey:
			return ErrDuplicateBooking
		case slotKey:
			return ErrSlotTaken
		case userEmailKey:
			return ErrEmailTaken
		case treatmentKey:
			return ErrTreatmentExists
		}
	}
	return err
}
