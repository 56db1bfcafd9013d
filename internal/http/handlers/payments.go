package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Mosesedem/servixing-sub001/internal/http/middleware"
	"github.com/Mosesedem/servixing-sub001/internal/http/validation"
	"github.com/Mosesedem/servixing-sub001/internal/modules/email"
	"github.com/Mosesedem/servixing-sub001/internal/modules/payments"
	"github.com/Mosesedem/servixing-sub001/internal/modules/users"
	"github.com/Mosesedem/servixing-sub001/internal/shared/apperr"
)

type PaymentHandler struct {
	Payments *payments.Service
	Verify   *payments.VerifyService
	Refunds  *payments.RefundService
	Store    payments.Store
	Notifier *email.Notifier
	Logger   *slog.Logger
}

func NewPaymentHandler(svc *payments.Service, verify *payments.VerifyService, refunds *payments.RefundService, store payments.Store, notifier *email.Notifier, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		Payments: svc,
		Verify:   verify,
		Refunds:  refunds,
		Store:    store,
		Notifier: notifier,
		Logger:   logger,
	}
}

type initializePaymentRequest struct {
	Provider     string          `json:"provider" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Currency     string          `json:"currency"`
	Email        string          `json:"email" binding:"required,email"`
	WorkOrderID  *string         `json:"workOrderId"`
	Service      string          `json:"service"`
	Brand        string          `json:"brand"`
	SerialNumber string          `json:"serialNumber"`
	IMEI         string          `json:"imei"`

	Metadata map[string]any `json:"metadata"`
}

// POST /api/payments/initialize
func (h *PaymentHandler) Initialize(c *gin.Context) {
	var req initializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fields := validation.FromBindError(err, &req)
		middleware.Fail(c, apperr.InvalidErr("Invalid payment request.", fields))
		return
	}

	in := payments.InitializeInput{
		Provider:     req.Provider,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Email:        req.Email,
		WorkOrderID:  req.WorkOrderID,
		Service:      req.Service,
		Brand:        req.Brand,
		SerialNumber: req.SerialNumber,
		IMEI:         req.IMEI,
		Extra:        req.Metadata,
	}
	if u, ok := middleware.CurrentUser(c); ok {
		in.UserID = &u.ID
	}

	out, err := h.Payments.Initialize(c.Request.Context(), in)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "data": out})
}

type verifyPaymentRequest struct {
	Reference string `json:"reference" binding:"required"`
}

// POST /api/payments/verify
//
// Safe to call repeatedly; only the first confirmation transitions the
// payment and triggers the warranty check.
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fields := validation.FromBindError(err, &req)
		middleware.Fail(c, apperr.InvalidErr("Payment reference is required.", fields))
		return
	}

	out, err := h.Verify.Verify(c.Request.Context(), req.Reference)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	if out.Status == payments.GatewaySuccess {
		h.sendReceipt(c, out)
		h.sendWarrantyResult(c, out)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "data": out})
}

// GET /api/payments/:id
//
// Owned payments are visible to their owner and to admins. Payments made
// without an account are addressable by ID only.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	p, err := h.Store.PaymentByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, payments.ErrPaymentNotFound) {
		middleware.Fail(c, apperr.NotFoundErr("Payment not found."))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	if p.UserID != nil {
		u, ok := middleware.CurrentUser(c)
		if !ok || (u.ID != *p.UserID && u.Role != users.RoleAdmin) {
			middleware.Fail(c, apperr.ForbiddenErr("You do not have access to this payment."))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "data": p.Summary()})
}

// POST /api/payments/:id/refund  (admin)
func (h *PaymentHandler) Refund(c *gin.Context) {
	sum, err := h.Refunds.Refund(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "data": sum})
}

func (h *PaymentHandler) sendReceipt(c *gin.Context, out payments.VerifyOutput) {
	md := payments.ParseMetadata(out.Payment.Metadata)
	if md.Email == "" {
		return
	}
	h.Notifier.PaymentReceipt(c.Request.Context(), email.ReceiptData{
		To:        md.Email,
		Name:      h.recipientName(c),
		Reference: out.Payment.ProviderReference,
		Amount:    out.Payment.Currency + " " + out.Payment.Amount.StringFixed(2),
		Service:   md.Service,
	})
}

func (h *PaymentHandler) recipientName(c *gin.Context) string {
	if u, ok := middleware.CurrentUser(c); ok {
		if usr, err := h.Store.UserByID(c.Request.Context(), u.ID); err == nil && usr != nil {
			return usr.DisplayName()
		}
	}
	return ""
}

func (h *PaymentHandler) sendWarrantyResult(c *gin.Context, out payments.VerifyOutput) {
	chk := out.WarrantyCheck
	if chk == nil || !chk.Finished() {
		return
	}
	md := payments.ParseMetadata(out.Payment.Metadata)
	if md.Email == "" {
		return
	}
	expiry := ""
	if chk.WarrantyExpiry != nil {
		expiry = chk.WarrantyExpiry.Format("2006-01-02")
	}
	h.Notifier.WarrantyResult(c.Request.Context(), email.WarrantyResultData{
		To:           md.Email,
		DeviceBrand:  md.Brand,
		SerialNumber: md.SerialNumber,
		Status:       chk.Status,
		Expiry:       expiry,
	})
}
