package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/middleware"
	"github.com/flicky/phone-store-api/internal/service"
)

type AdminHandler struct {
	orders  *service.AdminOrderService
	coupons *service.CouponService
	log     *slog.Logger
}

func NewAdminHandler(orders *service.AdminOrderService, coupons *service.CouponService, log *slog.Logger) *AdminHandler {
	return &AdminHandler{orders: orders, coupons: coupons, log: log}
}

func (h *AdminHandler) ListOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid query: "+err.Error())
		return
	}
	orders, err := h.orders.ListOrders(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", orders)
}

func (h *AdminHandler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", order)
}

func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.orders.UpdateOrderStatus(c.Request.Context(), id, req.Status); err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Order status updated", nil)
}

func (h *AdminHandler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePaymentStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.orders.UpdatePaymentStatus(c.Request.Context(), id, req.Status); err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Payment status updated", nil)
}

func (h *AdminHandler) CancelOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.orders.CancelOrder(c.Request.Context(), id, req.Reason, middleware.GetActorID(c)); err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Order cancelled", nil)
}

func (h *AdminHandler) ListCoupons(c *gin.Context) {
	coupons, err := h.coupons.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", coupons)
}

func (h *AdminHandler) CreateCoupon(c *gin.Context) {
	var req dto.CreateCouponRequest
	if !bindJSON(c, &req) {
		return
	}
	coupon, err := h.coupons.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Coupon created", coupon)
}
