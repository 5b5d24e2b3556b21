package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/model"
	"github.com/flicky/phone-store-api/internal/repository"
)

var ErrLoyaltyNotFound = errors.New("loyalty program not found")

// LoyaltyRules configures point earning, redemption and tiers.
type LoyaltyRules struct {
	EarnPercent     int64
	RedeemCap       int64
	SilverThreshold int
	GoldThreshold   int
}

type LoyaltyService struct {
	txm     repository.Transactor
	loyalty repository.LoyaltyRepository
	rules   LoyaltyRules
}

func NewLoyaltyService(txm repository.Transactor, loyalty repository.LoyaltyRepository, rules LoyaltyRules) *LoyaltyService {
	return &LoyaltyService{txm: txm, loyalty: loyalty, rules: rules}
}

func (s *LoyaltyService) GetProgram(ctx context.Context, customerID uuid.UUID) (*dto.LoyaltyResponse, error) {
	p, err := s.loyalty.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get loyalty program: %w", err)
	}
	if p == nil {
		return nil, ErrLoyaltyNotFound
	}
	return &dto.LoyaltyResponse{
		Badge:          p.Badge,
		TotalPoints:    p.TotalPoints,
		CurrentPoints:  p.CurrentPoints,
		PointsRedeemed: p.PointsRedeemed,
		UpdatedAt:      p.UpdatedAt,
	}, nil
}

// RedemptionQuote reports how many points could offset the subtotal, one
// point per currency unit, capped at RedeemCap percent of the subtotal.
// Nothing is deducted.
func (s *LoyaltyService) RedemptionQuote(ctx context.Context, customerID uuid.UUID, subtotal decimal.Decimal) (*dto.LoyaltyQuoteResponse, error) {
	p, err := s.loyalty.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get loyalty program: %w", err)
	}
	if p == nil {
		return nil, ErrLoyaltyNotFound
	}
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}

	limit := subtotal.Mul(decimal.NewFromInt(s.rules.RedeemCap)).Div(hundred).Floor().IntPart()
	points := int64(p.CurrentPoints)
	if points > limit {
		points = limit
	}
	return &dto.LoyaltyQuoteResponse{
		CurrentPoints:    p.CurrentPoints,
		RedeemablePoints: int(points),
		Discount:         decimal.NewFromInt(points),
	}, nil
}

// PointsFor is floor(total * EarnPercent / 100).
func (s *LoyaltyService) PointsFor(total decimal.Decimal) int {
	if !total.IsPositive() {
		return 0
	}
	return int(total.Mul(decimal.NewFromInt(s.rules.EarnPercent)).Div(hundred).Floor().IntPart())
}

func (s *LoyaltyService) BadgeFor(totalPoints int) string {
	switch {
	case totalPoints >= s.rules.GoldThreshold:
		return model.BadgeGold
	case totalPoints >= s.rules.SilverThreshold:
		return model.BadgeSilver
	default:
		return model.BadgeBronze
	}
}

// AwardForOrder credits points for a delivered order, at most once per order.
// It returns 0 when the order was already awarded. A customer without a
// program row gets one created.
func (s *LoyaltyService) AwardForOrder(ctx context.Context, orderID, customerID uuid.UUID, total decimal.Decimal) (int, error) {
	points := s.PointsFor(total)
	if points == 0 {
		return 0, nil
	}

	awarded := 0
	err := s.txm.WithTx(ctx, func(tx pgx.Tx) error {
		p, err := s.loyalty.GetForUpdate(ctx, tx, customerID)
		if err != nil {
			return err
		}
		recorded, err := s.loyalty.RecordAward(ctx, tx, orderID, customerID, points)
		if err != nil || !recorded {
			return err
		}
		if p == nil {
			if err := s.loyalty.Create(ctx, tx, customerID, model.BadgeBronze); err != nil {
				return err
			}
			p = &model.LoyaltyProgram{CustomerID: customerID, Badge: model.BadgeBronze}
		}
		p.TotalPoints += points
		p.CurrentPoints += points
		p.Badge = s.BadgeFor(p.TotalPoints)
		if err := s.loyalty.Update(ctx, tx, p); err != nil {
			return err
		}
		awarded = points
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("award loyalty points: %w", err)
	}
	return awarded, nil
}
