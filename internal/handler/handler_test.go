package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/model"
	"github.com/flicky/phone-store-api/internal/payment"
	"github.com/flicky/phone-store-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var discardLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) dto.Envelope {
	t.Helper()
	var env dto.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", service.ErrEmptyCart, http.StatusBadRequest, service.ErrEmptyCart.Error()},
		{"wrapped", fmt.Errorf("place order: %w", service.ErrOutOfStock), http.StatusConflict, service.ErrOutOfStock.Error()},
		{"auth", service.ErrInvalidCredentials, http.StatusUnauthorized, service.ErrInvalidCredentials.Error()},
		{"forbidden", service.ErrOrderAccessDenied, http.StatusForbidden, service.ErrOrderAccessDenied.Error()},
		{"not found", service.ErrItemNotFound, http.StatusNotFound, service.ErrItemNotFound.Error()},
		{"expired", service.ErrCouponExpired, http.StatusGone, service.ErrCouponExpired.Error()},
		{"unexpected", errors.New("connection reset by peer"), http.StatusInternalServerError, genericError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", func(c *gin.Context) { writeError(c, discardLog, tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			env := decodeEnvelope(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantMsg, env.Message)
		})
	}
}

func TestPathID_Invalid(t *testing.T) {
	r := gin.New()
	r.GET("/orders/:id", func(c *gin.Context) {
		if _, ok := pathID(c, "id"); ok {
			respond(c, http.StatusOK, "", nil)
		}
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid id", decodeEnvelope(t, w).Message)
}

func TestReadyz(t *testing.T) {
	ok := Dependency{Name: "postgres", Check: func(context.Context) error { return nil }}
	down := Dependency{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: refused") }}

	r := gin.New()
	r.GET("/ready-all", NewHealthHandler(ok).Readyz)
	r.GET("/ready-some", NewHealthHandler(ok, down).Readyz)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready-all", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready-some", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, map[string]any{"postgres": "connected", "redis": "unavailable"}, env.Data)
}

type stubGateway struct {
	checkout *payment.CompletedCheckout
	err      error
}

func (g *stubGateway) CreateCheckoutSession(context.Context, payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	return nil, errors.New("not used")
}

func (g *stubGateway) ParseWebhook([]byte, string) (*payment.CompletedCheckout, error) {
	return g.checkout, g.err
}

type recordingPublisher struct {
	events []model.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e model.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func postWebhook(h *PaymentHandler) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/api/payments/webhook", h.Webhook)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPaymentWebhook(t *testing.T) {
	orderID := uuid.New()

	t.Run("paid checkout is queued", func(t *testing.T) {
		pub := &recordingPublisher{}
		gw := &stubGateway{checkout: &payment.CompletedCheckout{
			EventID: "evt_1", SessionID: "cs_1", OrderID: orderID, Paid: true,
		}}

		w := postWebhook(NewPaymentHandler(gw, pub, discardLog))

		assert.Equal(t, http.StatusOK, w.Code)
		require.Len(t, pub.events, 1)
		assert.Equal(t, model.Event{
			ID: "evt_1", Type: model.EventPaymentCompleted, OrderID: orderID, Reference: "cs_1",
		}, pub.events[0])
	})

	t.Run("bad signature", func(t *testing.T) {
		pub := &recordingPublisher{}
		w := postWebhook(NewPaymentHandler(&stubGateway{err: payment.ErrInvalidSignature}, pub, discardLog))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, pub.events)
	})

	t.Run("unrelated event is acknowledged", func(t *testing.T) {
		pub := &recordingPublisher{}
		w := postWebhook(NewPaymentHandler(&stubGateway{}, pub, discardLog))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ignored", decodeEnvelope(t, w).Message)
		assert.Empty(t, pub.events)
	})

	t.Run("publish failure asks for a retry", func(t *testing.T) {
		pub := &recordingPublisher{err: errors.New("channel closed")}
		gw := &stubGateway{checkout: &payment.CompletedCheckout{EventID: "evt_2", OrderID: orderID, Paid: true}}

		w := postWebhook(NewPaymentHandler(gw, pub, discardLog))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
