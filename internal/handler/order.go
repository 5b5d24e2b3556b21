package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/middleware"
	"github.com/flicky/phone-store-api/internal/service"
)

type OrderHandler struct {
	orderService  *service.OrderService
	couponService *service.CouponService
	log           *slog.Logger
}

func NewOrderHandler(orderService *service.OrderService, couponService *service.CouponService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, couponService: couponService, log: log}
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.orderService.PlaceOrder(c.Request.Context(), middleware.GetActorID(c), req, c.GetHeader("Origin"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Order placed successfully", resp)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderService.ListMyOrders(c.Request.Context(), middleware.GetActorID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetMyOrder(c.Request.Context(), middleware.GetActorID(c), orderID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", order)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.orderService.CancelMyOrder(c.Request.Context(), middleware.GetActorID(c), orderID, req.Reason); err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Order cancelled", nil)
}

func (h *OrderHandler) DeliveryCost(c *gin.Context) {
	district := c.Query("district")
	cost, err := h.orderService.DeliveryCost(c.Request.Context(), district)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", dto.DeliverAreaResponse{District: district, ShippingCost: cost})
}

func (h *OrderHandler) ListDeliverAreas(c *gin.Context) {
	areas, err := h.orderService.ListDeliverAreas(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", areas)
}

func (h *OrderHandler) ValidateCoupon(c *gin.Context) {
	var req dto.ValidateCouponRequest
	if !bindJSON(c, &req) {
		return
	}
	quote, err := h.couponService.Validate(c.Request.Context(), middleware.GetActorID(c), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Coupon applied", quote)
}
