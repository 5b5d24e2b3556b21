// Package payment talks to the hosted checkout provider.
package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

// LineItem is one cart row priced after the catalog discount.
type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

type CheckoutRequest struct {
	OrderID      uuid.UUID
	Items        []LineItem
	ShippingCost decimal.Decimal
	// Discount is a one-off amount taken off the whole order; zero for none.
	Discount   decimal.Decimal
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// CompletedCheckout is the decoded payload of a successful checkout webhook.
type CompletedCheckout struct {
	EventID   string
	SessionID string
	OrderID   uuid.UUID
	Paid      bool
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ParseWebhook verifies the payload signature. It returns nil, nil for
	// event types the store does not act on.
	ParseWebhook(payload []byte, signature string) (*CompletedCheckout, error)
}

// MinorUnits converts an amount to the smallest currency unit, rounding half
// away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
