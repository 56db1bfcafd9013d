package payments

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mosesedem/servixing-sub001/internal/config"
	"github.com/Mosesedem/servixing-sub001/internal/shared/apperr"
)

type FlutterwaveGateway struct {
	baseURL       string
	secretKey     string
	webhookSecret string // verif-hash value
	callbackURL   string
	http          *http.Client
}

var _ Gateway = (*FlutterwaveGateway)(nil)

func NewFlutterwaveGateway(cfg config.ProviderConfig, timeout time.Duration) *FlutterwaveGateway {
	return &FlutterwaveGateway{
		baseURL:       cfg.BaseURL,
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		callbackURL:   cfg.CallbackURL,
		http:          &http.Client{Timeout: timeout},
	}
}

func (g *FlutterwaveGateway) Name() string { return ProviderFlutterwave }

func (g *FlutterwaveGateway) Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, error) {
	redirect := req.CallbackURL
	if redirect == "" {
		redirect = g.callbackURL
	}
	payload := map[string]any{
		"tx_ref":       req.Reference,
		"amount":       req.Amount.StringFixed(2),
		"currency":     req.Currency,
		"redirect_url": redirect,
		"customer":     map[string]any{"email": req.Email},
		"meta":         req.Metadata,
	}

	var out struct {
		Status  string `json:"status"` // success|error
		Message string `json:"message"`
		Data    struct {
			Link string `json:"link"`
		} `json:"data"`
	}
	if _, err := g.call(ctx, http.MethodPost, "/payments", payload, &out); err != nil {
		return InitializeResponse{}, err
	}
	if out.Status != "success" {
		return InitializeResponse{}, apperr.UnavailableErr("Payment provider rejected the request.", fmt.Errorf("flutterwave: %s", out.Message))
	}

	return InitializeResponse{
		AuthorizationURL: out.Data.Link,
		Reference:        req.Reference,
	}, nil
}

func (g *FlutterwaveGateway) Verify(ctx context.Context, reference string) (VerifyResult, error) {
	var out struct {
		Status string `json:"status"`
		Data   struct {
			Status      string  `json:"status"` // successful|failed|pending
			Amount      float64 `json:"amount"`
			Currency    string  `json:"currency"`
			CreatedAt   string  `json:"created_at"`
			FlwRef      string  `json:"flw_ref"`
			ChargedAmnt float64 `json:"charged_amount"`
		} `json:"data"`
	}

	path := "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(reference)
	raw, err := g.call(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		return VerifyResult{}, err
	}
	if out.Status != "success" {
		return VerifyResult{}, apperr.NotFoundErr("Payment reference not found.")
	}

	status := GatewayPending
	switch out.Data.Status {
	case "successful":
		status = GatewaySuccess
	case "failed":
		status = GatewayFailed
	}

	var paidAt *time.Time
	if t, err := time.Parse(time.RFC3339, out.Data.CreatedAt); err == nil {
		paidAt = &t
	}

	return VerifyResult{
		Status:   status,
		Amount:   decimal.NewFromFloat(out.Data.Amount),
		Currency: out.Data.Currency,
		PaidAt:   paidAt,
		Raw:      raw,
	}, nil
}

func (g *FlutterwaveGateway) Refund(ctx context.Context, reference string, amount decimal.Decimal) error {
	payload := map[string]any{"tx_ref": reference}
	if amount.IsPositive() {
		payload["amount"] = amount.StringFixed(2)
	}

	var out struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if _, err := g.call(ctx, http.MethodPost, "/refunds", payload, &out); err != nil {
		return err
	}
	if out.Status != "success" {
		return apperr.UnavailableErr("Payment provider rejected the refund.", fmt.Errorf("flutterwave: %s", out.Message))
	}
	return nil
}

// VerifyAndParseWebhook compares the verif-hash header against the configured
// webhook secret (Flutterwave sends a static hash, not an HMAC).
func (g *FlutterwaveGateway) VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error) {
	hash := headers.Get("verif-hash")
	if hash == "" || subtle.ConstantTimeCompare([]byte(hash), []byte(g.webhookSecret)) != 1 {
		return WebhookEvent{}, fmt.Errorf("flutterwave webhook: bad verif-hash")
	}

	var payload struct {
		Event string `json:"event"` // charge.completed
		Data  struct {
			ID       int64   `json:"id"`
			TxRef    string  `json:"tx_ref"`
			Status   string  `json:"status"`
			Amount   float64 `json:"amount"`
			Currency string  `json:"currency"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookEvent{}, fmt.Errorf("flutterwave webhook: %w", err)
	}

	ev := WebhookEvent{
		EventID:   fmt.Sprintf("%s:%d", payload.Event, payload.Data.ID),
		Reference: payload.Data.TxRef,
		Amount:    decimal.NewFromFloat(payload.Data.Amount),
		Currency:  payload.Data.Currency,
	}
	switch {
	case payload.Event == "charge.completed" && payload.Data.Status == "successful":
		ev.Type = EventPaymentSuccess
	case payload.Event == "charge.completed":
		ev.Type = EventPaymentFailed
	default:
		ev.Type = payload.Event
	}
	return ev, nil
}

func (g *FlutterwaveGateway) call(ctx context.Context, method, path string, payload any, out any) (json.RawMessage, error) {
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
		return nil, apperr.UnavailableErr("Payment provider is unavailable.", fmt.Errorf("flutterwave: status %d", res.StatusCode))
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
