package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mosesedem/servixing-sub001/internal/config"
	"github.com/Mosesedem/servixing-sub001/internal/shared/apperr"
)

type EtegramGateway struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	callbackURL   string
	http          *http.Client
}

var _ Gateway = (*EtegramGateway)(nil)

func NewEtegramGateway(cfg config.ProviderConfig, timeout time.Duration) *EtegramGateway {
	return &EtegramGateway{
		baseURL:       cfg.BaseURL,
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		callbackURL:   cfg.CallbackURL,
		http:          &http.Client{Timeout: timeout},
	}
}

func (g *EtegramGateway) Name() string { return ProviderEtegram }

func (g *EtegramGateway) Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, error) {
	payload := map[string]any{
		"email":        req.Email,
		"amount":       req.Amount.StringFixed(2),
		"currency":     req.Currency,
		"reference":    req.Reference,
		"redirect_url": req.CallbackURL,
		"metadata":     req.Metadata,
	}
	if req.CallbackURL == "" {
		payload["redirect_url"] = g.callbackURL
	}

	var out struct {
		Success bool `json:"success"`
		Data    struct {
			CheckoutURL string `json:"checkout_url"`
			AccessCode  string `json:"access_code"`
			Reference   string `json:"reference"`
		} `json:"data"`
		Message string `json:"message"`
	}
	if _, err := g.call(ctx, http.MethodPost, "/api/v1/transactions/initiate", payload, &out); err != nil {
		return InitializeResponse{}, err
	}
	if !out.Success {
		return InitializeResponse{}, apperr.UnavailableErr("Payment provider rejected the request.", fmt.Errorf("etegram: %s", out.Message))
	}

	return InitializeResponse{
		AuthorizationURL: out.Data.CheckoutURL,
		AccessCode:       out.Data.AccessCode,
		Reference:        out.Data.Reference,
	}, nil
}

func (g *EtegramGateway) Verify(ctx context.Context, reference string) (VerifyResult, error) {
	var out struct {
		Success bool `json:"success"`
		Data    struct {
			Status   string `json:"status"` // successful|failed|pending
			Amount   string `json:"amount"`
			Currency string `json:"currency"`
			PaidAt   string `json:"paid_at"`
		} `json:"data"`
	}

	raw, err := g.call(ctx, http.MethodGet, "/api/v1/transactions/verify/"+reference, nil, &out)
	if err != nil {
		return VerifyResult{}, err
	}
	if !out.Success {
		return VerifyResult{}, apperr.NotFoundErr("Payment reference not found.")
	}

	status := GatewayPending
	switch out.Data.Status {
	case "successful", "success":
		status = GatewaySuccess
	case "failed":
		status = GatewayFailed
	}

	amount, _ := decimal.NewFromString(out.Data.Amount)
	var paidAt *time.Time
	if t, err := time.Parse(time.RFC3339, out.Data.PaidAt); err == nil {
		paidAt = &t
	}

	return VerifyResult{Status: status, Amount: amount, Currency: out.Data.Currency, PaidAt: paidAt, Raw: raw}, nil
}

func (g *EtegramGateway) Refund(ctx context.Context, reference string, amount decimal.Decimal) error {
	payload := map[string]any{"reference": reference}
	if amount.IsPositive() {
		payload["amount"] = amount.StringFixed(2)
	}

	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if _, err := g.call(ctx, http.MethodPost, "/api/v1/transactions/refund", payload, &out); err != nil {
		return err
	}
	if !out.Success {
		return apperr.UnavailableErr("Payment provider rejected the refund.", fmt.Errorf("etegram: %s", out.Message))
	}
	return nil
}

// VerifyAndParseWebhook checks the x-etegram-signature header (HMAC-SHA256 of
// the raw body).
func (g *EtegramGateway) VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error) {
	sig := headers.Get("x-etegram-signature")
	if sig == "" {
		return WebhookEvent{}, fmt.Errorf("etegram webhook: missing signature")
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return WebhookEvent{}, fmt.Errorf("etegram webhook: signature mismatch")
	}

	var payload struct {
		Event string `json:"event"` // transaction.successful|transaction.failed
		ID    string `json:"id"`
		Data  struct {
			Reference string `json:"reference"`
			Amount    string `json:"amount"`
			Currency  string `json:"currency"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookEvent{}, fmt.Errorf("etegram webhook: %w", err)
	}
	// Without an id two distinct deliveries would collide on the dedupe
	// ledger and the second would be silently dropped.
	if payload.ID == "" {
		return WebhookEvent{}, fmt.Errorf("etegram webhook: missing event id")
	}

	amount, _ := decimal.NewFromString(payload.Data.Amount)
	ev := WebhookEvent{
		EventID:   payload.ID,
		Reference: payload.Data.Reference,
		Amount:    amount,
		Currency:  payload.Data.Currency,
	}
	switch payload.Event {
	case "transaction.successful":
		ev.Type = EventPaymentSuccess
	case "transaction.failed":
		ev.Type = EventPaymentFailed
	default:
		ev.Type = payload.Event
	}
	return ev, nil
}

func (g *EtegramGateway) call(ctx context.Context, method, path string, payload any, out any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := g.http.Do(req)
	if err != nil {
		return nil, apperr.UnavailableErr("Payment provider is unreachable.", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, apperr.UnavailableErr("Payment provider is unreachable.", err)
	}

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, apperr.NotFoundErr("Payment reference not found.")
	case res.StatusCode >= 500:
		return nil, apperr.UnavailableErr("Payment provider is unavailable.", fmt.Errorf("etegram: status %d", res.StatusCode))
	case res.StatusCode >= 400:
		return nil, apperr.InvalidErr("Payment provider rejected the request.", nil)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, apperr.UnavailableErr("Payment provider returned an unreadable response.", err)
		}
	}
	return raw, nil
}
