package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/middleware"
	"github.com/flicky/phone-store-api/internal/service"
)

type CartHandler struct {
	svc *service.CartService
	log *slog.Logger
}

func NewCartHandler(svc *service.CartService, log *slog.Logger) *CartHandler {
	return &CartHandler{svc: svc, log: log}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.svc.GetCart(c.Request.Context(), middleware.GetActorID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", cart)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.AddItem(c.Request.Context(), middleware.GetActorID(c), req.ItemID, req.Quantity); err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Item added to cart", nil)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	var req dto.UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.UpdateItem(c.Request.Context(), middleware.GetActorID(c), itemID, req.Quantity); err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Cart updated", nil)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	if err := h.svc.RemoveItem(c.Request.Context(), middleware.GetActorID(c), itemID); err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Item removed from cart", nil)
}
