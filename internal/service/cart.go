package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/model"
	"github.com/flicky/phone-store-api/internal/repository"
)

var ErrCartItemNotFound = errors.New("cart item not found")

type CartService struct {
	cartRepo    repository.CartRepository
	catalogRepo repository.CatalogRepository
}

func NewCartService(cartRepo repository.CartRepository, catalogRepo repository.CatalogRepository) *CartService {
	return &CartService{cartRepo: cartRepo, catalogRepo: catalogRepo}
}

func (s *CartService) GetCart(ctx context.Context, customerID uuid.UUID) (*dto.CartResponse, error) {
	lines, err := s.cartRepo.ListLines(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	resp := &dto.CartResponse{Items: make([]dto.CartLineResponse, 0, len(lines)), Total: CartSubtotal(lines)}
	for _, l := range lines {
		resp.Items = append(resp.Items, dto.CartLineResponse{
			ItemID:    l.ItemID,
			Name:      l.Name,
			Image:     l.Image,
			SellPrice: l.SellPrice,
			Discount:  l.Discount,
			UnitPrice: UnitPrice(l.SellPrice, l.Discount),
			Quantity:  l.Quantity,
			Subtotal:  LineTotal(l.SellPrice, l.Discount, l.Quantity),
		})
	}
	return resp, nil
}

func (s *CartService) AddItem(ctx context.Context, customerID, itemID uuid.UUID, quantity int) error {
	item, err := s.catalogRepo.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}
	if item == nil || item.CategoryType == model.CategoryRepairPart {
		return ErrItemNotFound
	}
	return s.cartRepo.AddItem(ctx, customerID, itemID, quantity)
}

func (s *CartService) UpdateItem(ctx context.Context, customerID, itemID uuid.UUID, quantity int) error {
	if err := s.cartRepo.SetQuantity(ctx, customerID, itemID, quantity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCartItemNotFound
		}
		return err
	}
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) error {
	if err := s.cartRepo.RemoveItem(ctx, customerID, itemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCartItemNotFound
		}
		return err
	}
	return nil
}
