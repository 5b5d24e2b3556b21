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

type CustomerRepository interface {
	Create(ctx context.Context, tx pgx.Tx, customer *model.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	GetByEmail(ctx context.Context, email string) (*model.Customer, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type pgCustomerRepo struct{ pool *pgxpool.Pool }

func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &pgCustomerRepo{pool: pool}
}

const customerColumns = `id, name, email, password_hash, phone, address, is_active, created_at, updated_at`

func (r *pgCustomerRepo) Create(ctx context.Context, tx pgx.Tx, customer *model.Customer) error {
	customer.ID = uuid.New()
	customer.Active = true
	query := `INSERT INTO customers (id, name, email, password_hash, phone, address, is_active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := on(r.pool, tx).QueryRow(ctx, query,
		customer.ID, customer.Name, customer.Email, customer.Password, customer.Phone, customer.Address,
	).Scan(&customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (r *pgCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
}

func (r *pgCustomerRepo) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE email = $1`, email)
}

func (r *pgCustomerRepo) getOne(ctx context.Context, query string, arg any) (*model.Customer, error) {
	c := &model.Customer{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&c.ID, &c.Name, &c.Email, &c.Password, &c.Phone, &c.Address, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *pgCustomerRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE customers SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active,
	)
	if err != nil {
		return fmt.Errorf("set customer active: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
