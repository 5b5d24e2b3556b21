package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/model"
	"github.com/flicky/phone-store-api/internal/repository"
)

var (
	ErrInvalidStatus     = errors.New("invalid status")
	ErrUseCancelEndpoint = errors.New("use the cancel endpoint to cancel an order")
)

var settableOrderStatuses = map[model.OrderStatus]bool{
	model.OrderStatusPending:    true,
	model.OrderStatusProcessing: true,
	model.OrderStatusDispatched: true,
	model.OrderStatusDelivered:  true,
}

var paymentStatuses = map[model.PaymentStatus]bool{
	model.PaymentStatusPending:   true,
	model.PaymentStatusCompleted: true,
	model.PaymentStatusFailed:    true,
	model.PaymentStatusRefunded:  true,
}

type AdminOrderService struct {
	txm         repository.Transactor
	orderRepo   repository.OrderRepository
	catalogRepo repository.CatalogRepository
	cache       ItemCache
	publisher   Publisher
}

func NewAdminOrderService(txm repository.Transactor, orderRepo repository.OrderRepository, catalogRepo repository.CatalogRepository, cache ItemCache, publisher Publisher) *AdminOrderService {
	return &AdminOrderService{txm: txm, orderRepo: orderRepo, catalogRepo: catalogRepo, cache: cache, publisher: publisher}
}

func (s *AdminOrderService) ListOrders(ctx context.Context, req dto.ListOrdersRequest) ([]dto.OrderSummaryResponse, error) {
	summaries, err := s.orderRepo.List(ctx, repository.OrderFilter{
		District: strings.TrimSpace(req.District),
		Status:   strings.TrimSpace(req.Status),
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]dto.OrderSummaryResponse, 0, len(summaries))
	for _, o := range summaries {
		out = append(out, dto.OrderSummaryResponse{
			ID:            o.ID,
			CustomerID:    o.CustomerID,
			CustomerName:  o.CustomerName,
			Total:         o.Total,
			PaymentMethod: o.PaymentMethod,
			Status:        o.Status,
			PaymentStatus: o.PaymentStatus,
			District:      o.District,
			OrderDate:     o.OrderDate,
		})
	}
	return out, nil
}

func (s *AdminOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

// UpdateOrderStatus overwrites the status with no transition rules. Marking
// an order delivered queues the loyalty award once the update has committed.
// The event is queued on every delivered update, so repeating the update
// retries a failed publish; the award itself is once per order.
func (s *AdminOrderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string) error {
	next := model.OrderStatus(status)
	if next == model.OrderStatusCancelled {
		return ErrUseCancelEndpoint
	}
	if !settableOrderStatuses[next] {
		return ErrInvalidStatus
	}

	var order *model.Order
	err := s.txm.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = s.orderRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		return s.orderRepo.UpdateStatus(ctx, tx, id, next)
	})
	if err != nil {
		return err
	}

	if next != model.OrderStatusDelivered || s.publisher == nil {
		return nil
	}
	if err := s.publisher.Publish(ctx, newEvent(model.EventOrderDelivered, order.ID, order.CustomerID, "")); err != nil {
		return fmt.Errorf("queue order delivered event: %w", err)
	}
	return nil
}

func (s *AdminOrderService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status string) error {
	next := model.PaymentStatus(status)
	if !paymentStatuses[next] {
		return ErrInvalidStatus
	}
	if err := s.orderRepo.UpdatePaymentStatus(ctx, nil, id, next); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return err
	}
	return nil
}

func (s *AdminOrderService) CancelOrder(ctx context.Context, id uuid.UUID, reason string, staffID uuid.UUID) error {
	return cancelOrder(ctx, s.txm, s.orderRepo, s.catalogRepo, s.cache, cancelRequest{
		orderID: id, reason: reason, userType: model.ActorStaff, actorID: staffID,
	})
}

// CompletePayment records a confirmed online payment. A pending order moves
// to processing; orders already past pending keep their status.
func (s *AdminOrderService) CompletePayment(ctx context.Context, orderID uuid.UUID) error {
	return s.txm.WithTx(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.GetForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if err := s.orderRepo.UpdatePaymentStatus(ctx, tx, orderID, model.PaymentStatusCompleted); err != nil {
			return err
		}
		if order.Status != model.OrderStatusPending {
			return nil
		}
		return s.orderRepo.UpdateStatus(ctx, tx, orderID, model.OrderStatusProcessing)
	})
}
