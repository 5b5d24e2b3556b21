package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/phone-store-api/internal/model"
)

type StaffRepository interface {
	Create(ctx context.Context, staff *model.Staff) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Staff, error)
	GetByEmail(ctx context.Context, email string) (*model.Staff, error)
	ListActiveByType(ctx context.Context, staffType string) ([]model.Staff, error)
}

type pgStaffRepo struct{ pool *pgxpool.Pool }

func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &pgStaffRepo{pool: pool}
}

func (r *pgStaffRepo) Create(ctx context.Context, staff *model.Staff) error {
	staff.ID = uuid.New()
	staff.Active = true
	err := r.pool.QueryRow(ctx,
		`INSERT INTO staff (id, name, email, password_hash, staff_type, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, TRUE, NOW()) RETURNING created_at`,
		staff.ID, staff.Name, staff.Email, staff.Password, staff.StaffType,
	).Scan(&staff.CreatedAt)
	if err != nil {
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

func (r *pgStaffRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	return r.getOne(ctx, `SELECT id, name, email, password_hash, staff_type, is_active, created_at FROM staff WHERE id = $1`, id)
}

func (r *pgStaffRepo) GetByEmail(ctx context.Context, email string) (*model.Staff, error) {
	return r.getOne(ctx, `SELECT id, name, email, password_hash, staff_type, is_active, created_at FROM staff WHERE email = $1`, email)
}

func (r *pgStaffRepo) getOne(ctx context.Context, query string, arg any) (*model.Staff, error) {
	s := &model.Staff{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&s.ID, &s.Name, &s.Email, &s.Password, &s.StaffType, &s.Active, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get staff: %w", err)
	}
	return s, nil
}

func (r *pgStaffRepo) ListActiveByType(ctx context.Context, staffType string) ([]model.Staff, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, staff_type, is_active, created_at
		 FROM staff WHERE staff_type = $1 AND is_active ORDER BY name`, staffType,
	)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var staff []model.Staff
	for rows.Next() {
		var s model.Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.StaffType, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		staff = append(staff, s)
	}
	return staff, rows.Err()
}
