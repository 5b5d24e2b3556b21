package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/flicky/phone-store-api/internal/middleware"
	"github.com/flicky/phone-store-api/internal/service"
)

type LoyaltyHandler struct {
	svc *service.LoyaltyService
	log *slog.Logger
}

func NewLoyaltyHandler(svc *service.LoyaltyService, log *slog.Logger) *LoyaltyHandler {
	return &LoyaltyHandler{svc: svc, log: log}
}

func (h *LoyaltyHandler) GetProgram(c *gin.Context) {
	program, err := h.svc.GetProgram(c.Request.Context(), middleware.GetActorID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", program)
}

func (h *LoyaltyHandler) Quote(c *gin.Context) {
	subtotal, err := decimal.NewFromString(c.Query("subtotal"))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid subtotal")
		return
	}
	quote, err := h.svc.RedemptionQuote(c.Request.Context(), middleware.GetActorID(c), subtotal)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", quote)
}
