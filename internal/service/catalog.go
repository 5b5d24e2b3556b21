package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/model"
	"github.com/flicky/phone-store-api/internal/repository"
)

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrInvalidCategory = errors.New("invalid category id")
	ErrInvalidDiscount = errors.New("discount must be between 0 and 100")
	ErrInvalidPrice    = errors.New("sell price must be positive")
)

const itemCacheTTL = 60 * time.Second

type CatalogService struct {
	catalog     repository.CatalogRepository
	redisClient *redis.Client
}

func NewCatalogService(catalog repository.CatalogRepository, redisClient *redis.Client) *CatalogService {
	return &CatalogService{catalog: catalog, redisClient: redisClient}
}

// ListCategories hides repair parts unless includeRepairParts is set.
func (s *CatalogService) ListCategories(ctx context.Context, includeRepairParts bool) ([]dto.CategoryResponse, error) {
	exclude := model.CategoryRepairPart
	if includeRepairParts {
		exclude = ""
	}
	categories, err := s.catalog.ListCategories(ctx, exclude)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]dto.CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, dto.CategoryResponse{ID: c.ID, Name: c.Name, Type: c.Type})
	}
	return out, nil
}

func (s *CatalogService) ListItems(ctx context.Context, req dto.ListItemsRequest) (*dto.ItemListResponse, error) {
	filter := repository.ItemFilter{
		Search: strings.TrimSpace(req.Search),
		SortBy: req.SortBy,
		Limit:  req.Limit,
		Offset: (req.Page - 1) * req.Limit,
	}
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, ErrInvalidCategory
		}
		filter.CategoryID = &id
	}

	items, err := s.catalog.ListItems(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	out := make([]dto.ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, toItemResponse(&items[i]))
	}
	return &dto.ItemListResponse{Items: out, Page: req.Page, Limit: req.Limit}, nil
}

func (s *CatalogService) GetItem(ctx context.Context, id uuid.UUID) (*dto.ItemResponse, error) {
	cacheKey := itemCacheKey(id)

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.ItemResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	item, err := s.catalog.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if item == nil || item.CategoryType == model.CategoryRepairPart {
		return nil, ErrItemNotFound
	}

	resp := toItemResponse(item)
	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, itemCacheTTL)
		}
	}
	return &resp, nil
}

func (s *CatalogService) CreateItem(ctx context.Context, req dto.CreateItemRequest) (*dto.ItemResponse, error) {
	if err := validatePricing(req.SellPrice, req.Discount); err != nil {
		return nil, err
	}
	item := &model.Item{
		Name:        strings.TrimSpace(req.Name),
		Brand:       strings.TrimSpace(req.Brand),
		CategoryID:  req.CategoryID,
		SellPrice:   req.SellPrice,
		Discount:    req.Discount,
		Stock:       req.Stock,
		Description: req.Description,
		Image:       req.Image,
	}
	if err := s.catalog.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	resp := toItemResponse(item)
	return &resp, nil
}

// UpdateItem edits the live catalog row only. Order items keep the prices
// they were snapshotted with.
func (s *CatalogService) UpdateItem(ctx context.Context, id uuid.UUID, req dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	item, err := s.catalog.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Brand != nil {
		item.Brand = *req.Brand
	}
	if req.SellPrice != nil {
		item.SellPrice = *req.SellPrice
	}
	if req.Discount != nil {
		item.Discount = *req.Discount
	}
	if req.Stock != nil {
		item.Stock = *req.Stock
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Image != nil {
		item.Image = *req.Image
	}
	if err := validatePricing(item.SellPrice, item.Discount); err != nil {
		return nil, err
	}

	if err := s.catalog.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	s.InvalidateItems(ctx, id)
	resp := toItemResponse(item)
	return &resp, nil
}

// InvalidateItems drops the cached views of the given items.
func (s *CatalogService) InvalidateItems(ctx context.Context, ids ...uuid.UUID) {
	if s.redisClient == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, itemCacheKey(id))
	}
	s.redisClient.Del(ctx, keys...)
}

func itemCacheKey(id uuid.UUID) string { return "item:" + id.String() }

func validatePricing(sellPrice, discount decimal.Decimal) error {
	if !sellPrice.IsPositive() {
		return ErrInvalidPrice
	}
	if discount.IsNegative() || discount.GreaterThan(hundred) {
		return ErrInvalidDiscount
	}
	return nil
}

func toItemResponse(it *model.Item) dto.ItemResponse {
	return dto.ItemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Brand:       it.Brand,
		CategoryID:  it.CategoryID,
		SellPrice:   it.SellPrice,
		Discount:    it.Discount,
		FinalPrice:  UnitPrice(it.SellPrice, it.Discount),
		Stock:       it.Stock,
		Description: it.Description,
		Image:       it.Image,
		CreatedAt:   it.CreatedAt,
	}
}
