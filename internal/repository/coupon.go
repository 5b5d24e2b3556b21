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

type CouponRepository interface {
	Create(ctx context.Context, coupon *model.CouponCode) error
	List(ctx context.Context) ([]model.CouponCode, error)
	GetByCode(ctx context.Context, code string) (*model.CouponCode, error)
	HasUsage(ctx context.Context, couponID, customerID uuid.UUID) (bool, error)
	// IncrementUsed bumps used_count only while it is below usage_limit and
	// reports whether a slot was taken.
	IncrementUsed(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) (bool, error)
	// RecordUsage reports false when the customer already redeemed the coupon.
	RecordUsage(ctx context.Context, tx pgx.Tx, couponID, customerID, orderID uuid.UUID) (bool, error)
}

type pgCouponRepo struct{ pool *pgxpool.Pool }

func NewCouponRepository(pool *pgxpool.Pool) CouponRepository {
	return &pgCouponRepo{pool: pool}
}

const couponColumns = `id, code, discount_type, discount_value, usage_limit, used_count, expiry_date, is_active, user_group, created_at`

func scanCoupon(row pgx.Row, c *model.CouponCode) error {
	return row.Scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.UsageLimit, &c.UsedCount,
		&c.ExpiryDate, &c.Active, &c.UserGroup, &c.CreatedAt)
}

func (r *pgCouponRepo) Create(ctx context.Context, coupon *model.CouponCode) error {
	coupon.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO coupon_codes (id, code, discount_type, discount_value, usage_limit, used_count, expiry_date, is_active, user_group, created_at)
		 VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8, NOW()) RETURNING created_at`,
		coupon.ID, coupon.Code, coupon.DiscountType, coupon.DiscountValue, coupon.UsageLimit,
		coupon.ExpiryDate, coupon.Active, coupon.UserGroup,
	).Scan(&coupon.CreatedAt)
	if err != nil {
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

func (r *pgCouponRepo) List(ctx context.Context) ([]model.CouponCode, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+couponColumns+` FROM coupon_codes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	var coupons []model.CouponCode
	for rows.Next() {
		var c model.CouponCode
		if err := scanCoupon(rows, &c); err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func (r *pgCouponRepo) GetByCode(ctx context.Context, code string) (*model.CouponCode, error) {
	c := &model.CouponCode{}
	err := scanCoupon(r.pool.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupon_codes WHERE code = $1`, code), c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return c, nil
}

func (r *pgCouponRepo) HasUsage(ctx context.Context, couponID, customerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM coupon_usages WHERE coupon_code_id = $1 AND customer_id = $2)`,
		couponID, customerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check coupon usage: %w", err)
	}
	return exists, nil
}

func (r *pgCouponRepo) IncrementUsed(ctx context.Context, tx pgx.Tx, couponID uuid.UUID) (bool, error) {
	ct, err := on(r.pool, tx).Exec(ctx,
		`UPDATE coupon_codes SET used_count = used_count + 1 WHERE id = $1 AND used_count < usage_limit`,
		couponID,
	)
	if err != nil {
		return false, fmt.Errorf("increment coupon usage: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *pgCouponRepo) RecordUsage(ctx context.Context, tx pgx.Tx, couponID, customerID, orderID uuid.UUID) (bool, error) {
	ct, err := on(r.pool, tx).Exec(ctx,
		`INSERT INTO coupon_usages (coupon_code_id, customer_id, order_id, used_at) VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (coupon_code_id, customer_id) DO NOTHING`,
		couponID, customerID, orderID,
	)
	if err != nil {
		return false, fmt.Errorf("record coupon usage: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}
