package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/phone-store-api/internal/model"
)

type CartRepository interface {
	ListLines(ctx context.Context, customerID uuid.UUID) ([]model.CartLine, error)
	AddItem(ctx context.Context, customerID, itemID uuid.UUID, quantity int) error
	SetQuantity(ctx context.Context, customerID, itemID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) error
	Clear(ctx context.Context, tx pgx.Tx, customerID uuid.UUID) error
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

func (r *pgCartRepo) ListLines(ctx context.Context, customerID uuid.UUID) ([]model.CartLine, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ci.item_id, i.name, i.image, i.sell_price, i.discount, ci.quantity
		 FROM cart_items ci JOIN items i ON i.id = ci.item_id
		 WHERE ci.customer_id = $1 AND ci.quantity > 0
		 ORDER BY i.name`, customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	var lines []model.CartLine
	for rows.Next() {
		var l model.CartLine
		if err := rows.Scan(&l.ItemID, &l.Name, &l.Image, &l.SellPrice, &l.Discount, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *pgCartRepo) AddItem(ctx context.Context, customerID, itemID uuid.UUID, quantity int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO cart_items (customer_id, item_id, quantity) VALUES ($1, $2, $3)
		 ON CONFLICT (customer_id, item_id) DO UPDATE SET quantity = cart_items.quantity + $3`,
		customerID, itemID, quantity,
	)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) SetQuantity(ctx context.Context, customerID, itemID uuid.UUID, quantity int) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE customer_id = $1 AND item_id = $2`,
		customerID, itemID, quantity,
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCartRepo) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) error {
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE customer_id = $1 AND item_id = $2`, customerID, itemID,
	)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCartRepo) Clear(ctx context.Context, tx pgx.Tx, customerID uuid.UUID) error {
	_, err := on(r.pool, tx).Exec(ctx, `DELETE FROM cart_items WHERE customer_id = $1`, customerID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
