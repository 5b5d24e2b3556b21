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

// OrderFilter holds the back-office equality filters. Empty fields match all.
type OrderFilter struct {
	District string
	Status   string
}

type OrderRepository interface {
	Create(ctx context.Context, tx pgx.Tx, order *model.Order) error
	CreateItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error
	CreateDelivering(ctx context.Context, tx pgx.Tx, d *model.Delivering) error
	CreatePayment(ctx context.Context, tx pgx.Tx, p *model.Payment) error
	SetPaymentToken(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, token string) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]model.OrderSummary, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, status model.PaymentStatus) error
	CreateCancellation(ctx context.Context, tx pgx.Tx, c *model.Cancellation) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

func (r *pgOrderRepo) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	order.ID = uuid.New()
	err := on(r.pool, tx).QueryRow(ctx,
		`INSERT INTO orders (id, customer_id, total, payment_method, status, order_date)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING order_date`,
		order.ID, order.CustomerID, order.Total, order.PaymentMethod, order.Status,
	).Scan(&order.OrderDate)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) CreateItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	q := on(r.pool, tx)
	for _, it := range items {
		_, err := q.Exec(ctx,
			`INSERT INTO order_items (order_id, item_id, quantity, item_price, discount)
			 VALUES ($1, $2, $3, $4, $5)`,
			it.OrderID, it.ItemID, it.Quantity, it.ItemPrice, it.Discount,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *pgOrderRepo) CreateDelivering(ctx context.Context, tx pgx.Tx, d *model.Delivering) error {
	_, err := on(r.pool, tx).Exec(ctx,
		`INSERT INTO deliverings (order_id, name, address, city, district, zip, phone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.OrderID, d.Name, d.Address, d.City, d.District, d.Zip, d.Phone,
	)
	if err != nil {
		return fmt.Errorf("insert delivering: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) CreatePayment(ctx context.Context, tx pgx.Tx, p *model.Payment) error {
	_, err := on(r.pool, tx).Exec(ctx,
		`INSERT INTO payments (order_id, status, payment_date, token) VALUES ($1, $2, $3, $4)`,
		p.OrderID, p.Status, p.PaymentDate, p.Token,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) SetPaymentToken(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, token string) error {
	_, err := on(r.pool, tx).Exec(ctx, `UPDATE payments SET token = $2 WHERE order_id = $1`, orderID, token)
	if err != nil {
		return fmt.Errorf("set payment token: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := r.getOrder(ctx, r.pool,
		`SELECT id, customer_id, total, payment_method, status, order_date FROM orders WHERE id = $1`, id)
	if err != nil || order == nil {
		return order, err
	}

	if order.Items, err = r.listItems(ctx, r.pool, id); err != nil {
		return nil, err
	}

	d := &model.Delivering{OrderID: id}
	err = r.pool.QueryRow(ctx,
		`SELECT name, address, city, district, zip, phone FROM deliverings WHERE order_id = $1`, id,
	).Scan(&d.Name, &d.Address, &d.City, &d.District, &d.Zip, &d.Phone)
	switch {
	case err == nil:
		order.Delivering = d
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("get delivering: %w", err)
	}

	p := &model.Payment{OrderID: id}
	err = r.pool.QueryRow(ctx,
		`SELECT status, payment_date, COALESCE(token, '') FROM payments WHERE order_id = $1`, id,
	).Scan(&p.Status, &p.PaymentDate, &p.Token)
	switch {
	case err == nil:
		order.Payment = p
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return order, nil
}

func (r *pgOrderRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	q := on(r.pool, tx)
	order, err := r.getOrder(ctx, q,
		`SELECT id, customer_id, total, payment_method, status, order_date FROM orders WHERE id = $1 FOR UPDATE`, id)
	if err != nil || order == nil {
		return order, err
	}
	if order.Items, err = r.listItems(ctx, q, id); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *pgOrderRepo) getOrder(ctx context.Context, q querier, query string, id uuid.UUID) (*model.Order, error) {
	o := &model.Order{}
	err := q.QueryRow(ctx, query, id).Scan(&o.ID, &o.CustomerID, &o.Total, &o.PaymentMethod, &o.Status, &o.OrderDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (r *pgOrderRepo) listItems(ctx context.Context, q querier, orderID uuid.UUID) ([]model.OrderItem, error) {
	rows, err := q.Query(ctx,
		`SELECT oi.item_id, COALESCE(i.name, ''), oi.quantity, oi.item_price, oi.discount
		 FROM order_items oi LEFT JOIN items i ON i.id = oi.item_id
		 WHERE oi.order_id = $1`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		it := model.OrderItem{OrderID: orderID}
		if err := rows.Scan(&it.ItemID, &it.Name, &it.Quantity, &it.ItemPrice, &it.Discount); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *pgOrderRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, total, payment_method, status, order_date
		 FROM orders WHERE customer_id = $1 ORDER BY order_date DESC`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o := model.Order{CustomerID: customerID}
		if err := rows.Scan(&o.ID, &o.Total, &o.PaymentMethod, &o.Status, &o.OrderDate); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *pgOrderRepo) List(ctx context.Context, filter OrderFilter) ([]model.OrderSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT o.id, o.customer_id, c.name, o.total, o.payment_method, o.status,
		        COALESCE(p.status, 'pending'), COALESCE(d.district, ''), o.order_date
		 FROM orders o
		 JOIN customers c ON c.id = o.customer_id
		 LEFT JOIN deliverings d ON d.order_id = o.id
		 LEFT JOIN payments p ON p.order_id = o.id
		 WHERE ($1 = '' OR d.district = $1) AND ($2 = '' OR o.status = $2)
		 ORDER BY o.order_date DESC`,
		filter.District, filter.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.OrderSummary
	for rows.Next() {
		var s model.OrderSummary
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.CustomerName, &s.Total, &s.PaymentMethod,
			&s.Status, &s.PaymentStatus, &s.District, &s.OrderDate); err != nil {
			return nil, fmt.Errorf("scan order summary: %w", err)
		}
		orders = append(orders, s)
	}
	return orders, rows.Err()
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) error {
	ct, err := on(r.pool, tx).Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdatePaymentStatus stamps payment_date in the same statement when the
// payment becomes completed.
func (r *pgOrderRepo) UpdatePaymentStatus(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, status model.PaymentStatus) error {
	ct, err := on(r.pool, tx).Exec(ctx,
		`UPDATE payments
		 SET status = $2,
		     payment_date = CASE WHEN $2 = 'completed' THEN NOW() ELSE payment_date END
		 WHERE order_id = $1`,
		orderID, string(status),
	)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgOrderRepo) CreateCancellation(ctx context.Context, tx pgx.Tx, c *model.Cancellation) error {
	c.ID = uuid.New()
	err := on(r.pool, tx).QueryRow(ctx,
		`INSERT INTO cancellations (id, order_id, reason, status, user_type, actor_id, cancel_date)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW()) RETURNING cancel_date`,
		c.ID, c.OrderID, c.Reason, c.Status, c.UserType, c.ActorID,
	).Scan(&c.CancelDate)
	if err != nil {
		return fmt.Errorf("insert cancellation: %w", err)
	}
	return nil
}
