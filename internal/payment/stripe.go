package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const orderIDMetadataKey = "order_id"

type StripeGateway struct {
	api           *client.API
	currency      string
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret, currency string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, currency: currency, webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata(orderIDMetadataKey, req.OrderID.String())

	for _, it := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
				},
				UnitAmount: stripe.Int64(MinorUnits(it.UnitPrice)),
			},
			Quantity: stripe.Int64(int64(it.Quantity)),
		})
	}

	params.ShippingOptions = []*stripe.CheckoutSessionShippingOptionParams{{
		ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
			Type:        stripe.String("fixed_amount"),
			DisplayName: stripe.String("Delivery"),
			FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
				Amount:   stripe.Int64(MinorUnits(req.ShippingCost)),
				Currency: stripe.String(g.currency),
			},
		},
	}}

	if req.Discount.IsPositive() {
		couponParams := &stripe.CouponParams{
			AmountOff:      stripe.Int64(MinorUnits(req.Discount)),
			Currency:       stripe.String(g.currency),
			Duration:       stripe.String(string(stripe.CouponDurationOnce)),
			MaxRedemptions: stripe.Int64(1),
		}
		couponParams.Context = ctx
		c, err := g.api.Coupons.New(couponParams)
		if err != nil {
			return nil, fmt.Errorf("create stripe coupon: %w", err)
		}
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{{Coupon: stripe.String(c.ID)}}
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		for _, d := range params.Discounts {
			g.deleteCoupon(*d.Coupon)
		}
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// deleteCoupon removes a one-time coupon whose checkout session was never
// created. It runs on a fresh context because the request context may be the
// reason the session failed.
func (g *StripeGateway) deleteCoupon(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	params := &stripe.CouponParams{}
	params.Context = ctx
	_, _ = g.api.Coupons.Del(id, params)
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

// ParseWebhook accepts events from any account API version. Only the
// checkout session id, metadata and payment_status are read, and those are
// stable across versions.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*CompletedCheckout, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	if string(event.Type) != "checkout.session.completed" {
		return nil, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	orderID, err := uuid.Parse(s.Metadata[orderIDMetadataKey])
	if err != nil {
		return nil, fmt.Errorf("checkout session %s: bad order id: %w", s.ID, err)
	}
	return &CompletedCheckout{
		EventID:   event.ID,
		SessionID: s.ID,
		OrderID:   orderID,
		Paid:      s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}, nil
}
