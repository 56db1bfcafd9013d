package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mosesedem/servixing-sub001/internal/modules/payments"
)

type WebhookHandler struct {
	Logger     *slog.Logger
	Gateways   *payments.Gateways
	WebhookSvc *payments.WebhookService
}

func NewWebhookHandler(logger *slog.Logger, gws *payments.Gateways, svc *payments.WebhookService) *WebhookHandler {
	return &WebhookHandler{Logger: logger, Gateways: gws, WebhookSvc: svc}
}

// POST /webhooks/:provider
// Body is raw JSON; signature header validated by the gateway adapter.
func (h *WebhookHandler) Handle(c *gin.Context) {
	gw, err := h.Gateways.For(c.Param("provider"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "unknown provider"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	ev, err := gw.VerifyAndParseWebhook(c.Request.Header, body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid signature or payload"})
		return
	}

	if err := h.WebhookSvc.Handle(c.Request.Context(), gw.Name(), ev, body); err != nil {
		// 500 tells the provider to retry delivery
		h.Logger.Error("webhook apply failed", "event_id", ev.EventID, "type", ev.Type, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
