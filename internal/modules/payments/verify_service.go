package payments

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/Mosesedem/servixing-sub001/internal/modules/warranty"
	"github.com/Mosesedem/servixing-sub001/internal/shared/apperr"
)

// VerifyService is the payment verification orchestrator. One verification
// runs RECEIVED -> PROVIDER_VERIFIED -> PERSISTED -> WARRANTY_EVALUATED ->
// DONE; the persist step is idempotent and the warranty step never undoes a
// committed payment.
type VerifyService struct {
	store    Store
	gateways *Gateways
	logger   *slog.Logger
	checks   checkCreator
}

func NewVerifyService(store Store, gateways *Gateways, lookup warranty.Lookup, logger *slog.Logger) *VerifyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerifyService{
		store:    store,
		gateways: gateways,
		logger:   logger,
		checks:   checkCreator{store: store, lookup: lookup, logger: logger},
	}
}

type VerifyOutput struct {
	Status        string          `json:"status"` // success|failed|pending
	Amount        decimal.Decimal `json:"amount"`
	Payment       Summary         `json:"payment"`
	WarrantyCheck *warranty.Check `json:"warrantyCheck,omitempty"`
}

func (s *VerifyService) Verify(ctx context.Context, reference string) (VerifyOutput, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return VerifyOutput{}, apperr.InvalidErr("Payment reference is required.", map[string]string{"reference": "required"})
	}

	p, err := s.store.PaymentByReference(ctx, reference)
	if errors.Is(err, ErrPaymentNotFound) {
		return VerifyOutput{}, apperr.NotFoundErr("Payment not found.")
	}
	if err != nil {
		return VerifyOutput{}, apperr.Wrap(err)
	}

	gw, err := s.gateways.For(p.Provider)
	if err != nil {
		return VerifyOutput{}, err
	}

	// Provider confirmation. Errors here (including timeouts) propagate as
	// retryable; an outage is never read as a failed payment.
	vr, err := gw.Verify(ctx, reference)
	if err != nil {
		return VerifyOutput{}, err
	}

	alreadyPaid := p.Status == StatusPaid
	if vr.Status != GatewaySuccess && !alreadyPaid {
		// Non-success outcomes touch nothing in the store.
		return VerifyOutput{Status: vr.Status, Amount: vr.Amount, Payment: p.Summary()}, nil
	}

	md := ParseMetadata(p.Metadata)

	if !alreadyPaid {
		in := MarkPaidInput{PaymentID: p.ID, At: time.Now()}
		if md.Service == ServiceWarrantyCheck && p.WorkOrderID == nil {
			in.Synthesize = &SynthesizeInput{
				UserID:       p.UserID,
				Brand:        md.Brand,
				SerialNumber: optional(md.SerialNumber),
				IMEI:         optional(md.IMEI),
				Amount:       p.Amount,
				Currency:     p.Currency,
				Metadata:     datatypes.JSONMap{"service": ServiceWarrantyCheck},
			}
		}

		res, err := s.store.MarkPaid(ctx, in)
		if errors.Is(err, ErrNotTransitionable) {
			// Failed and refunded are terminal; only a mid-flight racer is
			// worth retrying.
			msg := "Payment is being updated, retry the verification."
			if cur, curErr := s.store.PaymentByID(ctx, p.ID); curErr == nil {
				switch cur.Status {
				case StatusFailed:
					msg = "Payment was already marked failed and cannot be completed."
				case StatusRefunded:
					msg = "Payment was already refunded and cannot be completed."
				}
			}
			return VerifyOutput{}, apperr.ConflictErr(msg)
		}
		if errors.Is(err, ErrPaymentNotFound) {
			return VerifyOutput{}, apperr.NotFoundErr("Payment not found.")
		}
		if err != nil {
			return VerifyOutput{}, apperr.Wrap(err)
		}

		if res.Applied {
			s.logger.InfoContext(ctx, "payment verified",
				"payment_id", p.ID,
				"provider", p.Provider,
				"reference", reference,
				"amount", p.Amount.String(),
			)
		}

		// Refresh associations after the transition (and any synthesis).
		if p, err = s.store.PaymentByID(ctx, p.ID); err != nil {
			return VerifyOutput{}, apperr.Wrap(err)
		}
	}

	out := VerifyOutput{Status: GatewaySuccess, Amount: vr.Amount, Payment: p.Summary()}

	// Warranty evaluation is decoupled from the committed payment: a failure
	// here is logged and left for the status read path to self-heal.
	if md.Service == ServiceWarrantyCheck {
		check, err := s.checks.ensureCheck(ctx, p, warranty.InitiatedByPaymentVerify)
		if err != nil {
			s.logger.ErrorContext(ctx, "warranty evaluation failed after payment",
				"payment_id", p.ID, "err", err)
		} else {
			out.WarrantyCheck = check
		}
	}

	return out, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
