package store

import (
	"context"
	"time"

	"doctors-portal-api/internal/model"
)

func (s *Store) ListTreatments(ctx context.Context) ([]model.TreatmentOption, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, price, slots, created_at FROM treatments ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.TreatmentOption{}
	for rows.Next() {
		var t model.TreatmentOption
		if err := rows.Scan(&t.ID, &t.Name, &t.Price, &t.Slots, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CreateTreatment(ctx context.Context, t *model.TreatmentOption) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO treatments (id, name, price, slots, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.Name, t.Price, t.Slots, createdAt(t.CreatedAt),
	)
	return mapErr(err)
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
