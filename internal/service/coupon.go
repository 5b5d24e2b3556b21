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
	"github.com/flicky/phone-store-api/internal/repository"
)

var (
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrCouponExpired      = errors.New("coupon has expired")
	ErrCouponLimitReached = errors.New("coupon usage limit reached")
	ErrCouponAlreadyUsed  = errors.New("coupon already used")
	ErrCouponIneligible   = errors.New("coupon is not available for your loyalty tier")
	ErrCouponExists       = errors.New("coupon code already exists")
)

// CouponQuote is the effect of an eligible coupon on an order.
type CouponQuote struct {
	Coupon       *model.CouponCode
	Discount     decimal.Decimal
	FreeShipping bool
}

type CouponService struct {
	coupons repository.CouponRepository
	loyalty repository.LoyaltyRepository
	now     func() time.Time
}

func NewCouponService(coupons repository.CouponRepository, loyalty repository.LoyaltyRepository) *CouponService {
	return &CouponService{coupons: coupons, loyalty: loyalty, now: time.Now}
}

// Evaluate runs the eligibility checks in order: existence, expiry, usage
// limit, prior usage by this customer, loyalty tier.
func (s *CouponService) Evaluate(ctx context.Context, customerID uuid.UUID, code string) (*CouponQuote, error) {
	coupon, err := s.coupons.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil || !coupon.Active {
		return nil, ErrCouponNotFound
	}
	if coupon.ExpiryDate.Before(s.now()) {
		return nil, ErrCouponExpired
	}
	if coupon.UsedCount >= coupon.UsageLimit {
		return nil, ErrCouponLimitReached
	}

	used, err := s.coupons.HasUsage(ctx, coupon.ID, customerID)
	if err != nil {
		return nil, fmt.Errorf("check coupon usage: %w", err)
	}
	if used {
		return nil, ErrCouponAlreadyUsed
	}

	if coupon.UserGroup != "" && coupon.UserGroup != model.UserGroupAll {
		program, err := s.loyalty.GetByCustomer(ctx, customerID)
		if err != nil {
			return nil, fmt.Errorf("get loyalty program: %w", err)
		}
		if program == nil || program.Badge != coupon.UserGroup {
			return nil, ErrCouponIneligible
		}
	}

	return &CouponQuote{
		Coupon:       coupon,
		Discount:     coupon.DiscountValue,
		FreeShipping: coupon.DiscountType == model.DiscountFreeShipping,
	}, nil
}

func (s *CouponService) Validate(ctx context.Context, customerID uuid.UUID, req dto.ValidateCouponRequest) (*dto.CouponQuoteResponse, error) {
	quote, err := s.Evaluate(ctx, customerID, req.Code)
	if err != nil {
		return nil, err
	}
	discount := quote.Discount
	if !req.Subtotal.IsZero() && discount.GreaterThan(req.Subtotal) {
		discount = req.Subtotal
	}
	return &dto.CouponQuoteResponse{
		Code:         quote.Coupon.Code,
		DiscountType: quote.Coupon.DiscountType,
		Discount:     discount,
		FreeShipping: quote.FreeShipping,
	}, nil
}

// Redeem claims one usage slot and the per-customer usage row inside tx.
// Losing either race maps back to the same errors Evaluate reports.
func (s *CouponService) Redeem(ctx context.Context, tx pgx.Tx, couponID, customerID, orderID uuid.UUID) error {
	ok, err := s.coupons.IncrementUsed(ctx, tx, couponID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCouponLimitReached
	}
	ok, err = s.coupons.RecordUsage(ctx, tx, couponID, customerID, orderID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCouponAlreadyUsed
	}
	return nil
}

func (s *CouponService) Create(ctx context.Context, req dto.CreateCouponRequest) (*dto.CouponResponse, error) {
	coupon := &model.CouponCode{
		Code:          strings.TrimSpace(req.Code),
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		UsageLimit:    req.UsageLimit,
		ExpiryDate:    req.ExpiryDate,
		Active:        true,
		UserGroup:     strings.TrimSpace(req.UserGroup),
	}
	if coupon.Code == "" {
		return nil, ErrMissingFields
	}
	if coupon.DiscountValue.IsNegative() {
		return nil, ErrInvalidDiscount
	}
	if coupon.UserGroup == "" {
		coupon.UserGroup = model.UserGroupAll
	}

	if err := s.coupons.Create(ctx, coupon); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrCouponExists
		}
		return nil, fmt.Errorf("create coupon: %w", err)
	}
	resp := toCouponResponse(coupon)
	return &resp, nil
}

func (s *CouponService) List(ctx context.Context) ([]dto.CouponResponse, error) {
	coupons, err := s.coupons.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	out := make([]dto.CouponResponse, 0, len(coupons))
	for i := range coupons {
		out = append(out, toCouponResponse(&coupons[i]))
	}
	return out, nil
}

func toCouponResponse(c *model.CouponCode) dto.CouponResponse {
	return dto.CouponResponse{
		ID:            c.ID,
		Code:          c.Code,
		DiscountType:  c.DiscountType,
		DiscountValue: c.DiscountValue,
		UsageLimit:    c.UsageLimit,
		UsedCount:     c.UsedCount,
		ExpiryDate:    c.ExpiryDate,
		IsActive:      c.Active,
		UserGroup:     c.UserGroup,
	}
}
