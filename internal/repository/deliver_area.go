package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/phone-store-api/internal/model"
)

type DeliverAreaRepository interface {
	GetByDistrict(ctx context.Context, district string) (*model.DeliverArea, error)
	List(ctx context.Context) ([]model.DeliverArea, error)
}

type pgDeliverAreaRepo struct{ pool *pgxpool.Pool }

func NewDeliverAreaRepository(pool *pgxpool.Pool) DeliverAreaRepository {
	return &pgDeliverAreaRepo{pool: pool}
}

func (r *pgDeliverAreaRepo) GetByDistrict(ctx context.Context, district string) (*model.DeliverArea, error) {
	a := &model.DeliverArea{}
	err := r.pool.QueryRow(ctx,
		`SELECT district, shipping_cost FROM deliver_areas WHERE lower(district) = lower($1)`, district,
	).Scan(&a.District, &a.ShippingCost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get deliver area: %w", err)
	}
	return a, nil
}

func (r *pgDeliverAreaRepo) List(ctx context.Context) ([]model.DeliverArea, error) {
	rows, err := r.pool.Query(ctx, `SELECT district, shipping_cost FROM deliver_areas ORDER BY district`)
	if err != nil {
		return nil, fmt.Errorf("list deliver areas: %w", err)
	}
	defer rows.Close()

	var areas []model.DeliverArea
	for rows.Next() {
		var a model.DeliverArea
		if err := rows.Scan(&a.District, &a.ShippingCost); err != nil {
			return nil, fmt.Errorf("scan deliver area: %w", err)
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}
