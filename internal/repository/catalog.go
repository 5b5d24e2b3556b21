package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/phone-store-api/internal/model"
)

// ItemFilter narrows a storefront item listing. Repair parts are never listed.
type ItemFilter struct {
	CategoryID *uuid.UUID
	Search     string
	SortBy     string
	Limit      int
	Offset     int
}

type CatalogRepository interface {
	ListCategories(ctx context.Context, excludeType string) ([]model.Category, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]model.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error)
	CreateItem(ctx context.Context, item *model.Item) error
	UpdateItem(ctx context.Context, item *model.Item) error
	DecrementStock(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, quantity int) error
	RestoreStock(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, quantity int) error
}

// itemSorts maps the accepted sortBy values onto fixed ORDER BY clauses.
var itemSorts = map[string]string{
	"newest":     "i.created_at DESC",
	"oldest":     "i.created_at ASC",
	"price_asc":  "i.sell_price ASC",
	"price_desc": "i.sell_price DESC",
	"name_asc":   "i.name ASC",
	"name_desc":  "i.name DESC",
}

const defaultItemSort = "newest"

func itemOrderBy(sortBy string) string {
	if clause, ok := itemSorts[sortBy]; ok {
		return clause
	}
	return itemSorts[defaultItemSort]
}

type pgCatalogRepo struct{ pool *pgxpool.Pool }

func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &pgCatalogRepo{pool: pool}
}

func (r *pgCatalogRepo) ListCategories(ctx context.Context, excludeType string) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, type FROM categories WHERE ($1 = '' OR type <> $1) ORDER BY name`, excludeType,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

const itemColumns = `i.id, i.name, i.brand, i.category_id, c.type, i.sell_price, i.discount,
	i.stock_quantity, i.description, i.image, i.created_at, i.updated_at`

func scanItem(row pgx.Row, it *model.Item) error {
	return row.Scan(
		&it.ID, &it.Name, &it.Brand, &it.CategoryID, &it.CategoryType, &it.SellPrice, &it.Discount,
		&it.Stock, &it.Description, &it.Image, &it.CreatedAt, &it.UpdatedAt,
	)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes a search term match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *pgCatalogRepo) ListItems(ctx context.Context, filter ItemFilter) ([]model.Item, error) {
	query := fmt.Sprintf(`SELECT %s
		FROM items i JOIN categories c ON c.id = i.category_id
		WHERE c.type <> $1
		  AND ($2::uuid IS NULL OR i.category_id = $2)
		  AND ($3 = '' OR i.name ILIKE '%%' || $3 || '%%' ESCAPE '\')
		ORDER BY %s LIMIT $4 OFFSET $5`, itemColumns, itemOrderBy(filter.SortBy))

	rows, err := r.pool.Query(ctx, query,
		model.CategoryRepairPart, filter.CategoryID, escapeLike(filter.Search), filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var it model.Item
		if err := scanItem(rows, &it); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *pgCatalogRepo) GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	it := &model.Item{}
	err := scanItem(r.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items i JOIN categories c ON c.id = i.category_id WHERE i.id = $1`, id,
	), it)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

func (r *pgCatalogRepo) CreateItem(ctx context.Context, item *model.Item) error {
	item.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO items (id, name, brand, category_id, sell_price, discount, stock_quantity, description, image, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		 RETURNING created_at, updated_at, (SELECT type FROM categories WHERE id = $4)`,
		item.ID, item.Name, item.Brand, item.CategoryID, item.SellPrice, item.Discount,
		item.Stock, item.Description, item.Image,
	).Scan(&item.CreatedAt, &item.UpdatedAt, &item.CategoryType)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

func (r *pgCatalogRepo) UpdateItem(ctx context.Context, item *model.Item) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE items SET name=$2, brand=$3, sell_price=$4, discount=$5, stock_quantity=$6,
		 description=$7, image=$8, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		item.ID, item.Name, item.Brand, item.SellPrice, item.Discount, item.Stock, item.Description, item.Image,
	).Scan(&item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func (r *pgCatalogRepo) DecrementStock(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, quantity int) error {
	ct, err := on(r.pool, tx).Exec(ctx,
		`UPDATE items SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		 WHERE id = $1 AND stock_quantity >= $2`,
		itemID, quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (r *pgCatalogRepo) RestoreStock(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, quantity int) error {
	_, err := on(r.pool, tx).Exec(ctx,
		`UPDATE items SET stock_quantity = stock_quantity + $2, updated_at = NOW() WHERE id = $1`,
		itemID, quantity,
	)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	return nil
}

var ErrInsufficientStock = errors.New("insufficient stock")
