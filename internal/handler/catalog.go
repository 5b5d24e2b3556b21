package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/service"
)

type CatalogHandler struct {
	svc *service.CatalogService
	log *slog.Logger
}

func NewCatalogHandler(svc *service.CatalogService, log *slog.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, log: log}
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.svc.ListCategories(c.Request.Context(), false)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", categories)
}

func (h *CatalogHandler) ListItems(c *gin.Context) {
	var req dto.ListItemsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid query: "+err.Error())
		return
	}
	resp, err := h.svc.ListItems(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", resp)
}

func (h *CatalogHandler) GetItem(c *gin.Context) {
	id, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	item, err := h.svc.GetItem(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", item)
}

func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req dto.CreateItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.CreateItem(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Item created", item)
}

func (h *CatalogHandler) UpdateItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.UpdateItem(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Item updated", item)
}
