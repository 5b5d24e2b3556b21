package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/middleware"
	"github.com/flicky/phone-store-api/internal/service"
)

type RepairHandler struct {
	svc *service.RepairService
	log *slog.Logger
}

func NewRepairHandler(svc *service.RepairService, log *slog.Logger) *RepairHandler {
	return &RepairHandler{svc: svc, log: log}
}

func (h *RepairHandler) ListTechnicians(c *gin.Context) {
	techs, err := h.svc.ListTechnicians(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", techs)
}

func (h *RepairHandler) CheckAvailability(c *gin.Context) {
	var req dto.AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusBadRequest, "technicianId and appointmentDate are required")
		return
	}
	resp, err := h.svc.CheckAvailability(c.Request.Context(), req.TechnicianID, req.AppointmentDate)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, resp.Message, resp)
}

func (h *RepairHandler) Submit(c *gin.Context) {
	var req dto.SubmitRepairRequest
	if !bindJSON(c, &req) {
		return
	}
	rr, err := h.svc.SubmitRequest(c.Request.Context(), middleware.GetActorID(c), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Repair request submitted", rr)
}

func (h *RepairHandler) ListMine(c *gin.Context) {
	requests, err := h.svc.ListMyRequests(c.Request.Context(), middleware.GetActorID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", requests)
}

func (h *RepairHandler) ListForStaff(c *gin.Context) {
	requests, err := h.svc.ListForStaff(c.Request.Context(), middleware.GetActorID(c), middleware.GetRole(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "", requests)
}

func (h *RepairHandler) Respond(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RespondRepairRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.svc.Respond(c.Request.Context(), id, middleware.GetActorID(c), middleware.GetRole(c), req.Status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Repair request "+req.Status, nil)
}

func (h *RepairHandler) UpdateRepair(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateRepairRequest
	if !bindJSON(c, &req) {
		return
	}
	repair, err := h.svc.UpdateRepair(c.Request.Context(), id, middleware.GetActorID(c), middleware.GetRole(c), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Repair updated", repair)
}
