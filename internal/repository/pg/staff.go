package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/geethamultiplex/theaterfood/internal/model"
)

func (r *Repository) GetStaffByLogin(ctx context.Context, login string) (*model.Staff, error) {
	var staff model.Staff

	err := r.executeWithRetryConnection(ctx, func(ctx context.Context, db *sql.DB) error {
		return db.QueryRowContext(ctx, `SELECT id, login, password, created_at FROM staff WHERE login = $1`, login).
			Scan(&staff.ID, &staff.Login, &staff.Password, &staff.CreatedAt)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrStaffNotFound
		}
		return nil, err
	}

	return &staff, nil
}

func (r *Repository) CreateStaff(ctx context.Context, staff model.Staff) (int64, error) {
	var id int64

	err := r.executeWithRetryConnection(ctx, func(ctx context.Context, db *sql.DB) error {
		return db.QueryRowContext(ctx, `INSERT INTO staff (login, password) VALUES ($1, $2) RETURNING id`,
			staff.Login,
			staff.Password,
		).Scan(&id)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, model.ErrStaffAlreadyExists
		}
		return 0, err
	}

	return id, nil
}
