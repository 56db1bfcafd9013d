package payments

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mosesedem/servixing-sub001/internal/shared/apperr"
)

// Service handles payment initialization: a pending Payment row plus a
// provider checkout session. The provider reference is assigned here and
// never changes afterwards.
type Service struct {
	store    Store
	gateways *Gateways
	logger   *slog.Logger
}

func NewService(store Store, gateways *Gateways, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, gateways: gateways, logger: logger}
}

type InitializeInput struct {
	Provider    string
	Amount      decimal.Decimal
	Currency    string
	Email       string
	UserID      *string
	WorkOrderID *string

	// Typed metadata; Service drives the post-payment behavior.
	Service      string
	Brand        string
	SerialNumber string
	IMEI         string
	Extra        map[string]any
}

type InitializeOutput struct {
	AuthorizationURL string `json:"authorizationUrl"`
	AccessCode       string `json:"accessCode,omitempty"`
	Reference        string `json:"reference"`
	PaymentID        string `json:"paymentId"`
}

func (s *Service) Initialize(ctx context.Context, in InitializeInput) (InitializeOutput, error) {
	fields := map[string]string{}
	if !in.Amount.IsPositive() {
		fields["amount"] = "must be greater than zero"
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		fields["email"] = "must be a valid email address"
	}
	if len(fields) > 0 {
		return InitializeOutput{}, apperr.InvalidErr("Invalid payment request.", fields)
	}

	gw, err := s.gateways.For(in.Provider)
	if err != nil {
		return InitializeOutput{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "NGN"
	}

	md := Metadata{
		Service:      in.Service,
		Brand:        in.Brand,
		SerialNumber: in.SerialNumber,
		IMEI:         in.IMEI,
		Email:        in.Email,
		Extra:        in.Extra,
	}.JSONMap()

	now := time.Now()
	p := &Payment{
		ID:                uuid.NewString(),
		WorkOrderID:       in.WorkOrderID,
		UserID:            in.UserID,
		Amount:            in.Amount,
		Currency:          currency,
		Provider:          gw.Name(),
		ProviderReference: newReference(),
		Status:            StatusPending,
		Metadata:          md,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		return InitializeOutput{}, apperr.Wrap(err)
	}

	resp, err := gw.Initialize(ctx, InitializeRequest{
		Reference: p.ProviderReference,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Email:     in.Email,
		Metadata:  map[string]any(md),
	})
	if err != nil {
		// The pending row stays; the caller retries with a fresh
		// initialization and this reference simply never confirms.
		return InitializeOutput{}, err
	}

	s.logger.InfoContext(ctx, "payment initialized",
		"payment_id", p.ID,
		"provider", p.Provider,
		"reference", p.ProviderReference,
		"amount", p.Amount.String(),
	)

	return InitializeOutput{
		AuthorizationURL: resp.AuthorizationURL,
		AccessCode:       resp.AccessCode,
		Reference:        p.ProviderReference,
		PaymentID:        p.ID,
	}, nil
}

func newReference() string {
	return "svx_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
