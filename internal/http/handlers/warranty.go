package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mosesedem/servixing-sub001/internal/http/middleware"
	"github.com/Mosesedem/servixing-sub001/internal/http/validation"
	"github.com/Mosesedem/servixing-sub001/internal/modules/payments"
	"github.com/Mosesedem/servixing-sub001/internal/shared/apperr"
)

type WarrantyHandler struct {
	Status *payments.StatusService
	Logger *slog.Logger
}

func NewWarrantyHandler(status *payments.StatusService, logger *slog.Logger) *WarrantyHandler {
	return &WarrantyHandler{Status: status, Logger: logger}
}

type warrantyStatusRequest struct {
	PaymentID    string `json:"paymentId"`
	Email        string `json:"email"`
	SerialNumber string `json:"serialNumber"`
	IMEI         string `json:"imei"`
}

// POST /api/warranty/status
//
// Accepts either a payment id or customer identifiers. A paid payment with
// no recorded check gets one created on the spot, so polling this endpoint
// always converges on a final answer.
func (h *WarrantyHandler) GetStatus(c *gin.Context) {
	var req warrantyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fields := validation.FromBindError(err, &req)
		middleware.Fail(c, apperr.InvalidErr("Invalid status request.", fields))
		return
	}

	out, err := h.Status.Get(c.Request.Context(), payments.StatusQuery{
		PaymentID:    req.PaymentID,
		Email:        req.Email,
		SerialNumber: req.SerialNumber,
		IMEI:         req.IMEI,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "data": out})
}
