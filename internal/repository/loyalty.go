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

type LoyaltyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, customerID uuid.UUID, badge string) error
	GetByCustomer(ctx context.Context, customerID uuid.UUID) (*model.LoyaltyProgram, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, customerID uuid.UUID) (*model.LoyaltyProgram, error)
	Update(ctx context.Context, tx pgx.Tx, program *model.LoyaltyProgram) error
	// RecordAward reports false when the order already earned points.
	RecordAward(ctx context.Context, tx pgx.Tx, orderID, customerID uuid.UUID, points int) (bool, error)
}

type pgLoyaltyRepo struct{ pool *pgxpool.Pool }

func NewLoyaltyRepository(pool *pgxpool.Pool) LoyaltyRepository {
	return &pgLoyaltyRepo{pool: pool}
}

func (r *pgLoyaltyRepo) Create(ctx context.Context, tx pgx.Tx, customerID uuid.UUID, badge string) error {
	_, err := on(r.pool, tx).Exec(ctx,
		`INSERT INTO loyalty_programs (customer_id, badge, total_points, current_points, points_redeemed, updated_at)
		 VALUES ($1, $2, 0, 0, 0, NOW())`, customerID, badge,
	)
	if err != nil {
		return fmt.Errorf("create loyalty program: %w", err)
	}
	return nil
}

func (r *pgLoyaltyRepo) GetByCustomer(ctx context.Context, customerID uuid.UUID) (*model.LoyaltyProgram, error) {
	return r.get(ctx, r.pool, `SELECT customer_id, badge, total_points, current_points, points_redeemed, updated_at
		FROM loyalty_programs WHERE customer_id = $1`, customerID)
}

func (r *pgLoyaltyRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, customerID uuid.UUID) (*model.LoyaltyProgram, error) {
	return r.get(ctx, on(r.pool, tx), `SELECT customer_id, badge, total_points, current_points, points_redeemed, updated_at
		FROM loyalty_programs WHERE customer_id = $1 FOR UPDATE`, customerID)
}

func (r *pgLoyaltyRepo) get(ctx context.Context, q querier, query string, customerID uuid.UUID) (*model.LoyaltyProgram, error) {
	p := &model.LoyaltyProgram{}
	err := q.QueryRow(ctx, query, customerID).Scan(
		&p.CustomerID, &p.Badge, &p.TotalPoints, &p.CurrentPoints, &p.PointsRedeemed, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get loyalty program: %w", err)
	}
	return p, nil
}

func (r *pgLoyaltyRepo) Update(ctx context.Context, tx pgx.Tx, program *model.LoyaltyProgram) error {
	err := on(r.pool, tx).QueryRow(ctx,
		`UPDATE loyalty_programs SET badge = $2, total_points = $3, current_points = $4, points_redeemed = $5, updated_at = NOW()
		 WHERE customer_id = $1 RETURNING updated_at`,
		program.CustomerID, program.Badge, program.TotalPoints, program.CurrentPoints, program.PointsRedeemed,
	).Scan(&program.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update loyalty program: %w", err)
	}
	return nil
}

func (r *pgLoyaltyRepo) RecordAward(ctx context.Context, tx pgx.Tx, orderID, customerID uuid.UUID, points int) (bool, error) {
	tag, err := on(r.pool, tx).Exec(ctx,
		`INSERT INTO loyalty_awards (order_id, customer_id, points, awarded_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (order_id) DO NOTHING`, orderID, customerID, points,
	)
	if err != nil {
		return false, fmt.Errorf("record loyalty award: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
