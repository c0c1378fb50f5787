package store

import (
	"context"

	"doctors-portal-api/internal/model"
)

func (s *Store) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, specialty, img, created_at FROM doctors ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Doctor{}
	for rows.Next() {
		var d model.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.Specialty, &d.Image, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) CreateDoctor(ctx context.Context, d *model.Doctor) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO doctors (id, name, email, specialty, img, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		d.ID, d.Name, d.Email, d.Specialty, d.Image, d.CreatedAt,
	)
	return err
}

func (s *Store) DeleteDoctor(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
