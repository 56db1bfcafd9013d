package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
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

type PaystackGateway struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	callbackURL   string
	http          *http.Client
}

var _ Gateway = (*PaystackGateway)(nil)

func NewPaystackGateway(cfg config.ProviderConfig, timeout time.Duration) *PaystackGateway {
	secret := cfg.WebhookSecret
	if secret == "" {
		// Paystack signs webhooks with the account secret key.
		secret = cfg.SecretKey
	}
	return &PaystackGateway{
		baseURL:       cfg.BaseURL,
		secretKey:     cfg.SecretKey,
		webhookSecret: secret,
		callbackURL:   cfg.CallbackURL,
		http:          &http.Client{Timeout: timeout},
	}
}

func (g *PaystackGateway) Name() string { return ProviderPaystack }

func (g *PaystackGateway) Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, error) {
	payload := map[string]any{
		"email":     req.Email,
		"amount":    toSubunits(req.Amount), // kobo
		"currency":  req.Currency,
		"reference": req.Reference,
		"metadata":  req.Metadata,
	}
	if req.CallbackURL != "" {
		payload["callback_url"] = req.CallbackURL
	} else if g.callbackURL != "" {
		payload["callback_url"] = g.callbackURL
	}

	var out struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			AuthorizationURL string `json:"authorization_url"`
			AccessCode       string `json:"access_code"`
			Reference        string `json:"reference"`
		} `json:"data"`
	}
	if err := g.call(ctx, http.MethodPost, "/transaction/initialize", payload, &out); err != nil {
		return InitializeResponse{}, err
	}
	if !out.Status {
		return InitializeResponse{}, apperr.UnavailableErr("Payment provider rejected the request.", fmt.Errorf("paystack: %s", out.Message))
	}

	return InitializeResponse{
		AuthorizationURL: out.Data.AuthorizationURL,
		AccessCode:       out.Data.AccessCode,
		Reference:        out.Data.Reference,
	}, nil
}

func (g *PaystackGateway) Verify(ctx context.Context, reference string) (VerifyResult, error) {
	var out struct {
		Status bool   `json:"status"`
		Msg    string `json:"message"`
		Data   struct {
			Status   string `json:"status"` // success|failed|abandoned|pending|ongoing
			Amount   int64  `json:"amount"` // kobo
			Currency string `json:"currency"`
			PaidAt   string `json:"paid_at"`
		} `json:"data"`
	}

	raw, err := g.callRaw(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &out)
	if err != nil {
		return VerifyResult{}, err
	}
	if !out.Status {
		return VerifyResult{}, apperr.NotFoundErr("Payment reference not found.")
	}

	status := GatewayPending
	switch out.Data.Status {
	case "success":
		status = GatewaySuccess
	case "failed", "abandoned", "reversed":
		status = GatewayFailed
	}

	var paidAt *time.Time
	if t, err := time.Parse(time.RFC3339, out.Data.PaidAt); err == nil {
		paidAt = &t
	}

	return VerifyResult{
		Status:   status,
		Amount:   fromSubunits(out.Data.Amount),
		Currency: out.Data.Currency,
		PaidAt:   paidAt,
		Raw:      raw,
	}, nil
}

func (g *PaystackGateway) Refund(ctx context.Context, reference string, amount decimal.Decimal) error {
	payload := map[string]any{"transaction": reference}
	if amount.IsPositive() {
		payload["amount"] = toSubunits(amount)
	}

	var out struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
	}
	if err := g.call(ctx, http.MethodPost, "/refund", payload, &out); err != nil {
		return err
	}
	if !out.Status {
		return apperr.UnavailableErr("Payment provider rejected the refund.", fmt.Errorf("paystack: %s", out.Message))
	}
	return nil
}

// VerifyAndParseWebhook checks the x-paystack-signature header (HMAC-SHA512
// of the raw body) and normalizes the event.
func (g *PaystackGateway) VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error) {
	sig := headers.Get("x-paystack-signature")
	if sig == "" {
		return WebhookEvent{}, fmt.Errorf("paystack webhook: missing signature")
	}

	mac := hmac.New(sha512.New, []byte(g.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return WebhookEvent{}, fmt.Errorf("paystack webhook: signature mismatch")
	}

	var payload struct {
		Event string `json:"event"`
		Data  struct {
			ID        int64  `json:"id"`
			Reference string `json:"reference"`
			Amount    int64  `json:"amount"`
			Currency  string `json:"currency"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookEvent{}, fmt.Errorf("paystack webhook: %w", err)
	}

	ev := WebhookEvent{
		EventID:   fmt.Sprintf("%s:%d", payload.Event, payload.Data.ID),
		Reference: payload.Data.Reference,
		Amount:    fromSubunits(payload.Data.Amount),
		Currency:  payload.Data.Currency,
	}
	switch payload.Event {
	case "charge.success":
		ev.Type = EventPaymentSuccess
	case "charge.failed":
		ev.Type = EventPaymentFailed
	default:
		ev.Type = payload.Event
	}
	return ev, nil
}

func (g *PaystackGateway) call(ctx context.Context, method, path string, payload any, out any) error {
	_, err := g.callRaw(ctx, method, path, payload, out)
	return err
}

func (g *PaystackGateway) callRaw(ctx context.Context, method, path string, payload any, out any) (json.RawMessage, error) {
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
		return nil, apperr.UnavailableErr("Payment provider is unavailable.", fmt.Errorf("paystack: status %d", res.StatusCode))
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

// Providers bill in minor currency units.
func toSubunits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func fromSubunits(n int64) decimal.Decimal {
	return decimal.NewFromInt(n).Div(decimal.NewFromInt(100))
}
