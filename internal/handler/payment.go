package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/phone-store-api/internal/model"
	"github.com/flicky/phone-store-api/internal/payment"
	"github.com/flicky/phone-store-api/internal/service"
)

const maxWebhookBody = 64 << 10

type PaymentHandler struct {
	gateway   payment.Gateway
	publisher service.Publisher
	log       *slog.Logger
}

func NewPaymentHandler(gateway payment.Gateway, publisher service.Publisher, log *slog.Logger) *PaymentHandler {
	return &PaymentHandler{gateway: gateway, publisher: publisher, log: log}
}

// Webhook verifies a provider callback and queues the payment for the
// worker. Any 2xx tells the provider to stop retrying.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		fail(c, http.StatusBadRequest, "unreadable body")
		return
	}

	checkout, err := h.gateway.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			fail(c, http.StatusBadRequest, "invalid signature")
			return
		}
		h.log.Error("parse webhook", "error", err)
		fail(c, http.StatusBadRequest, "invalid payload")
		return
	}
	if checkout == nil || !checkout.Paid || checkout.OrderID == uuid.Nil {
		respond(c, http.StatusOK, "ignored", nil)
		return
	}

	event := model.Event{
		ID:        checkout.EventID,
		Type:      model.EventPaymentCompleted,
		OrderID:   checkout.OrderID,
		Reference: checkout.SessionID,
	}
	if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
		h.log.Error("publish payment event", "order_id", checkout.OrderID, "error", err)
		fail(c, http.StatusInternalServerError, genericError)
		return
	}

	h.log.Info("payment completed", "order_id", checkout.OrderID, "session_id", checkout.SessionID)
	respond(c, http.StatusOK, "received", nil)
}
