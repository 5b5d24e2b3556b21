package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/model"
	"github.com/flicky/phone-store-api/internal/payment"
	"github.com/flicky/phone-store-api/internal/repository"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrDistrictRequired     = errors.New("district is required")
	ErrShippingRequired     = errors.New("name, phone and address are required")
	ErrDeliveryAreaNotFound = errors.New("delivery area not found")
	ErrOutOfStock           = errors.New("not enough stock for one or more items")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderAccessDenied    = errors.New("access denied")
	ErrOrderNotCancellable  = errors.New("only pending orders can be cancelled")
	ErrPaymentUnavailable   = errors.New("online payment is not available")
)

const (
	cancellationApproved = "approved"
	checkoutTimeout      = 15 * time.Second
)

// ItemCache drops cached item views once stock has changed.
type ItemCache interface {
	InvalidateItems(ctx context.Context, ids ...uuid.UUID)
}

type OrderService struct {
	txm         repository.Transactor
	cartRepo    repository.CartRepository
	catalogRepo repository.CatalogRepository
	orderRepo   repository.OrderRepository
	areaRepo    repository.DeliverAreaRepository
	coupons     *CouponService
	gateway     payment.Gateway
	cache       ItemCache
	strictArea  bool
	frontendURL string
}

func NewOrderService(
	txm repository.Transactor,
	cartRepo repository.CartRepository,
	catalogRepo repository.CatalogRepository,
	orderRepo repository.OrderRepository,
	areaRepo repository.DeliverAreaRepository,
	coupons *CouponService,
	gateway payment.Gateway,
	cache ItemCache,
	strictArea bool,
	frontendURL string,
) *OrderService {
	return &OrderService{
		txm: txm, cartRepo: cartRepo, catalogRepo: catalogRepo, orderRepo: orderRepo,
		areaRepo: areaRepo, coupons: coupons, gateway: gateway, cache: cache,
		strictArea: strictArea, frontendURL: frontendURL,
	}
}

// PlaceOrder turns the customer's cart into an order. Everything from the
// order row to the checkout session token is written in one transaction, so
// a failed gateway call leaves no trace. The gateway call is bounded by
// checkoutTimeout since the transaction holds the item row locks meanwhile.
// origin is the storefront origin used for checkout redirects.
func (s *OrderService) PlaceOrder(ctx context.Context, customerID uuid.UUID, req dto.PlaceOrderRequest, origin string) (*dto.PlaceOrderResponse, error) {
	shipping := &model.Delivering{
		Name:     strings.TrimSpace(req.Name),
		Address:  strings.TrimSpace(req.Address),
		City:     strings.TrimSpace(req.City),
		District: strings.TrimSpace(req.District),
		Zip:      strings.TrimSpace(req.Zip),
		Phone:    strings.TrimSpace(req.Phone),
	}
	method := model.PaymentMethod(req.PaymentMethod)
	if shipping.Name == "" || shipping.Phone == "" || (method != model.PaymentMethodPickup && shipping.Address == "") {
		return nil, ErrShippingRequired
	}
	if method == model.PaymentMethodOnline && s.gateway == nil {
		return nil, ErrPaymentUnavailable
	}

	lines, err := s.cartRepo.ListLines(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	subtotal := CartSubtotal(lines)

	shippingCost, err := s.DeliveryCost(ctx, shipping.District)
	if err != nil && !(errors.Is(err, ErrDeliveryAreaNotFound) && !s.strictArea) {
		return nil, err
	}

	var quote *CouponQuote
	couponDiscount := decimal.Zero
	if code := strings.TrimSpace(req.CouponCode); code != "" {
		if quote, err = s.coupons.Evaluate(ctx, customerID, code); err != nil {
			return nil, err
		}
		couponDiscount = quote.Discount
		if quote.FreeShipping {
			shippingCost = decimal.Zero
		}
	}

	order := &model.Order{
		CustomerID:    customerID,
		Total:         OrderTotal(subtotal, shippingCost, couponDiscount),
		PaymentMethod: method,
		Status:        model.OrderStatusPending,
	}
	resp := &dto.PlaceOrderResponse{
		Subtotal:       subtotal,
		ShippingCost:   shippingCost,
		CouponDiscount: couponDiscount,
		Total:          order.Total,
	}

	err = s.txm.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return err
		}

		items := make([]model.OrderItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, model.OrderItem{
				OrderID: order.ID, ItemID: l.ItemID, Name: l.Name,
				Quantity: l.Quantity, ItemPrice: l.SellPrice, Discount: l.Discount,
			})
		}
		if err := s.orderRepo.CreateItems(ctx, tx, items); err != nil {
			return err
		}

		shipping.OrderID = order.ID
		if err := s.orderRepo.CreateDelivering(ctx, tx, shipping); err != nil {
			return err
		}
		if err := s.orderRepo.CreatePayment(ctx, tx, &model.Payment{OrderID: order.ID, Status: model.PaymentStatusPending}); err != nil {
			return err
		}

		for _, l := range lines {
			if err := s.catalogRepo.DecrementStock(ctx, tx, l.ItemID, l.Quantity); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return ErrOutOfStock
				}
				return err
			}
		}

		if quote != nil {
			if err := s.coupons.Redeem(ctx, tx, quote.Coupon.ID, customerID, order.ID); err != nil {
				return err
			}
		}

		if err := s.cartRepo.Clear(ctx, tx, customerID); err != nil {
			return err
		}

		if method != model.PaymentMethodOnline {
			return nil
		}
		checkoutCtx, cancel := context.WithTimeout(ctx, checkoutTimeout)
		defer cancel()
		session, err := s.gateway.CreateCheckoutSession(checkoutCtx, s.checkoutRequest(order.ID, lines, shippingCost, couponDiscount, origin))
		if err != nil {
			return fmt.Errorf("create checkout session: %w", err)
		}
		if err := s.orderRepo.SetPaymentToken(ctx, tx, order.ID, session.ID); err != nil {
			return err
		}
		resp.IsPaymentRequired = true
		resp.SessionURL = session.URL
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ItemID)
	}
	invalidate(ctx, s.cache, ids)

	resp.OrderID = order.ID
	return resp, nil
}

func (s *OrderService) checkoutRequest(orderID uuid.UUID, lines []model.CartLine, shippingCost, discount decimal.Decimal, origin string) payment.CheckoutRequest {
	base := strings.TrimRight(origin, "/")
	if base == "" {
		base = strings.TrimRight(s.frontendURL, "/")
	}
	req := payment.CheckoutRequest{
		OrderID:      orderID,
		ShippingCost: shippingCost,
		Discount:     discount,
		SuccessURL:   base + "/orders/success?orderId=" + orderID.String(),
		CancelURL:    base + "/orders/cancel?orderId=" + orderID.String(),
	}
	for _, l := range lines {
		req.Items = append(req.Items, payment.LineItem{
			Name: l.Name, UnitPrice: UnitPrice(l.SellPrice, l.Discount), Quantity: l.Quantity,
		})
	}
	return req
}

// DeliveryCost returns the shipping cost for a district.
func (s *OrderService) DeliveryCost(ctx context.Context, district string) (decimal.Decimal, error) {
	district = strings.TrimSpace(district)
	if district == "" {
		return decimal.Zero, ErrDistrictRequired
	}
	area, err := s.areaRepo.GetByDistrict(ctx, district)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get delivery area: %w", err)
	}
	if area == nil {
		return decimal.Zero, ErrDeliveryAreaNotFound
	}
	return area.ShippingCost, nil
}

func (s *OrderService) ListDeliverAreas(ctx context.Context) ([]dto.DeliverAreaResponse, error) {
	areas, err := s.areaRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list delivery areas: %w", err)
	}
	out := make([]dto.DeliverAreaResponse, 0, len(areas))
	for _, a := range areas {
		out = append(out, dto.DeliverAreaResponse{District: a.District, ShippingCost: a.ShippingCost})
	}
	return out, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, customerID uuid.UUID) ([]dto.OrderResponse, error) {
	orders, err := s.orderRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return out, nil
}

func (s *OrderService) GetMyOrder(ctx context.Context, customerID, orderID uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.CustomerID != customerID {
		return nil, ErrOrderAccessDenied
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) CancelMyOrder(ctx context.Context, customerID, orderID uuid.UUID, reason string) error {
	return cancelOrder(ctx, s.txm, s.orderRepo, s.catalogRepo, s.cache, cancelRequest{
		orderID: orderID, reason: reason, userType: model.ActorCustomer, actorID: customerID, ownerOnly: true,
	})
}

type cancelRequest struct {
	orderID   uuid.UUID
	reason    string
	userType  string
	actorID   uuid.UUID
	ownerOnly bool
}

// cancelOrder locks the order row, so two cancels of the same order cannot
// both restore stock.
func cancelOrder(ctx context.Context, txm repository.Transactor, orders repository.OrderRepository, catalog repository.CatalogRepository, cache ItemCache, req cancelRequest) error {
	reason := strings.TrimSpace(req.reason)
	if reason == "" {
		return ErrMissingFields
	}
	var restored []uuid.UUID
	err := txm.WithTx(ctx, func(tx pgx.Tx) error {
		order, err := orders.GetForUpdate(ctx, tx, req.orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if req.ownerOnly && order.CustomerID != req.actorID {
			return ErrOrderAccessDenied
		}
		if order.Status != model.OrderStatusPending {
			return ErrOrderNotCancellable
		}

		if err := orders.CreateCancellation(ctx, tx, &model.Cancellation{
			OrderID: order.ID, Reason: reason, Status: cancellationApproved,
			UserType: req.userType, ActorID: req.actorID,
		}); err != nil {
			return err
		}
		if err := orders.UpdateStatus(ctx, tx, order.ID, model.OrderStatusCancelled); err != nil {
			return err
		}
		for _, it := range order.Items {
			if err := catalog.RestoreStock(ctx, tx, it.ItemID, it.Quantity); err != nil {
				return err
			}
			restored = append(restored, it.ItemID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	invalidate(ctx, cache, restored)
	return nil
}

func invalidate(ctx context.Context, cache ItemCache, ids []uuid.UUID) {
	if cache != nil && len(ids) > 0 {
		cache.InvalidateItems(ctx, ids...)
	}
}

func toOrderResponse(o *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status,
		OrderDate:     o.OrderDate,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ItemID: it.ItemID, Name: it.Name, Quantity: it.Quantity,
			ItemPrice: it.ItemPrice, Discount: it.Discount,
		})
	}
	if dl := o.Delivering; dl != nil {
		resp.Delivering = &dto.DeliveringResponse{
			Name: dl.Name, Address: dl.Address, City: dl.City,
			District: dl.District, Zip: dl.Zip, Phone: dl.Phone,
		}
	}
	if p := o.Payment; p != nil {
		resp.Payment = &dto.PaymentResponse{Status: p.Status, PaymentDate: p.PaymentDate}
	}
	return resp
}
