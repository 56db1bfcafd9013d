package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mosesedem/servixing-sub001/internal/shared/apperr"
)

// Gateway-side verification outcomes, normalized across providers.
const (
	GatewaySuccess = "success"
	GatewayFailed  = "failed"
	GatewayPending = "pending"
)

// Normalized webhook event types.
const (
	EventPaymentSuccess = "payment.success"
	EventPaymentFailed  = "payment.failed"
)

type InitializeRequest struct {
	Reference   string
	Amount      decimal.Decimal
	Currency    string
	Email       string
	CallbackURL string
	Metadata    map[string]any
}

type InitializeResponse struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// VerifyResult is the normalized answer to "what does the provider say about
// this reference". Raw keeps the provider payload for the audit trail.
type VerifyResult struct {
	Status   string
	Amount   decimal.Decimal
	Currency string
	PaidAt   *time.Time
	Raw      json.RawMessage
}

type WebhookEvent struct {
	EventID   string
	Type      string // EventPaymentSuccess | EventPaymentFailed
	Reference string
	Amount    decimal.Decimal
	Currency  string
}

// Gateway normalizes one upstream payment provider. Implementations never
// touch the data store; transport failures surface as apperr.Unavailable so
// callers retry instead of misreading an outage as a failed payment.
type Gateway interface {
	Name() string
	Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, error)
	Verify(ctx context.Context, reference string) (VerifyResult, error)
	Refund(ctx context.Context, reference string, amount decimal.Decimal) error

	// Webhook: verify signature + parse event
	VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error)
}

// Gateways resolves a Gateway by provider name.
type Gateways struct {
	byName map[string]Gateway
}

func NewGateways(gws ...Gateway) *Gateways {
	m := make(map[string]Gateway, len(gws))
	for _, g := range gws {
		m[g.Name()] = g
	}
	return &Gateways{byName: m}
}

func (g *Gateways) For(provider string) (Gateway, error) {
	gw, ok := g.byName[provider]
	if !ok {
		return nil, apperr.InvalidErr("Unknown payment provider.", map[string]string{"provider": provider})
	}
	return gw, nil
}
