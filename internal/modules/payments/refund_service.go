package payments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Mosesedem/servixing-sub001/internal/shared/apperr"
)

// RefundService applies the only transition out of paid: paid -> refunded,
// mirrored onto the work order. Admin-initiated; full-amount only.
type RefundService struct {
	store    Store
	gateways *Gateways
	logger   *slog.Logger
}

func NewRefundService(store Store, gateways *Gateways, logger *slog.Logger) *RefundService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefundService{store: store, gateways: gateways, logger: logger}
}

func (s *RefundService) Refund(ctx context.Context, paymentID string) (Summary, error) {
	p, err := s.store.PaymentByID(ctx, paymentID)
	if errors.Is(err, ErrPaymentNotFound) {
		return Summary{}, apperr.NotFoundErr("Payment not found.")
	}
	if err != nil {
		return Summary{}, apperr.Wrap(err)
	}
	if p.Status != StatusPaid {
		return Summary{}, apperr.ConflictErr("Only paid payments can be refunded.")
	}

	gw, err := s.gateways.For(p.Provider)
	if err != nil {
		return Summary{}, err
	}

	// Provider first: if the refund call fails nothing local changes.
	if err := gw.Refund(ctx, p.ProviderReference, p.Amount); err != nil {
		return Summary{}, err
	}

	if err := s.store.MarkRefunded(ctx, p.ID, time.Now()); err != nil {
		if errors.Is(err, ErrNotTransitionable) {
			return Summary{}, apperr.ConflictErr("Payment changed state, reload and retry.")
		}
		return Summary{}, apperr.Wrap(err)
	}

	s.logger.InfoContext(ctx, "payment refunded",
		"payment_id", p.ID, "provider", p.Provider, "amount", p.Amount.String())

	p.Status = StatusRefunded
	return p.Summary(), nil
}
