package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/phone-store-api/internal/dto"
	"github.com/flicky/phone-store-api/internal/service"
)

const genericError = "Something went wrong, please try again later"

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrMissingCredentials, http.StatusBadRequest},
	{service.ErrMissingFields, http.StatusBadRequest},
	{service.ErrInvalidCategory, http.StatusBadRequest},
	{service.ErrInvalidDiscount, http.StatusBadRequest},
	{service.ErrInvalidPrice, http.StatusBadRequest},
	{service.ErrEmptyCart, http.StatusBadRequest},
	{service.ErrDistrictRequired, http.StatusBadRequest},
	{service.ErrShippingRequired, http.StatusBadRequest},
	{service.ErrPaymentUnavailable, http.StatusBadRequest},
	{service.ErrOrderNotCancellable, http.StatusBadRequest},
	{service.ErrInvalidStatus, http.StatusBadRequest},
	{service.ErrUseCancelEndpoint, http.StatusBadRequest},
	{service.ErrInvalidTechnician, http.StatusBadRequest},
	{service.ErrOutsideWorkingHours, http.StatusBadRequest},
	{service.ErrAppointmentInPast, http.StatusBadRequest},
	{service.ErrRepairNotPending, http.StatusBadRequest},
	{service.ErrRepairNotAccepted, http.StatusBadRequest},

	{service.ErrInvalidCredentials, http.StatusUnauthorized},

	{service.ErrAccountInactive, http.StatusForbidden},
	{service.ErrOrderAccessDenied, http.StatusForbidden},
	{service.ErrCouponIneligible, http.StatusForbidden},
	{service.ErrRepairForbidden, http.StatusForbidden},

	{service.ErrAccountNotFound, http.StatusNotFound},
	{service.ErrCustomerNotFound, http.StatusNotFound},
	{service.ErrItemNotFound, http.StatusNotFound},
	{service.ErrCartItemNotFound, http.StatusNotFound},
	{service.ErrDeliveryAreaNotFound, http.StatusNotFound},
	{service.ErrOrderNotFound, http.StatusNotFound},
	{service.ErrCouponNotFound, http.StatusNotFound},
	{service.ErrLoyaltyNotFound, http.StatusNotFound},
	{service.ErrTechnicianNotFound, http.StatusNotFound},
	{service.ErrRepairNotFound, http.StatusNotFound},

	{service.ErrEmailTaken, http.StatusConflict},
	{service.ErrCouponExists, http.StatusConflict},
	{service.ErrCouponLimitReached, http.StatusConflict},
	{service.ErrCouponAlreadyUsed, http.StatusConflict},
	{service.ErrOutOfStock, http.StatusConflict},
	{service.ErrTechnicianUnavailable, http.StatusConflict},

	{service.ErrCouponExpired, http.StatusGone},
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, dto.Envelope{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, dto.Envelope{Success: false, Message: message})
}

// writeError maps known service errors to their status. Anything else is
// logged and reported as a generic 500.
func writeError(c *gin.Context, log *slog.Logger, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			fail(c, e.status, e.err.Error())
			return
		}
	}
	log.Error("request failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"error", err,
	)
	fail(c, http.StatusInternalServerError, genericError)
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
