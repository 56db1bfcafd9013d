package payments

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Mosesedem/servixing-sub001/internal/modules/warranty"
	"github.com/Mosesedem/servixing-sub001/internal/modules/workorders"
	"github.com/Mosesedem/servixing-sub001/internal/shared/apperr"
)

// Status conditions returned to callers. PAYMENT_NOT_PAID is terminal for
// this request but not an error: the caller waits and polls again.
const (
	ConditionOK             = "OK"
	ConditionPaymentNotPaid = "PAYMENT_NOT_PAID"
	ConditionCheckPending   = "CHECK_PENDING"
)

// StatusService is the self-healing read path: a paid payment whose warranty
// check is missing gets one created on read instead of returning nothing.
type StatusService struct {
	store  Store
	logger *slog.Logger
	checks checkCreator
}

func NewStatusService(store Store, lookup warranty.Lookup, logger *slog.Logger) *StatusService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusService{
		store:  store,
		logger: logger,
		checks: checkCreator{store: store, lookup: lookup, logger: logger},
	}
}

type StatusQuery struct {
	PaymentID    string
	Email        string
	SerialNumber string
	IMEI         string
}

type StatusOutput struct {
	Condition string          `json:"condition"`
	Payment   *Summary        `json:"payment,omitempty"`
	Check     *warranty.Check `json:"warrantyCheck,omitempty"`
}

func (s *StatusService) Get(ctx context.Context, q StatusQuery) (StatusOutput, error) {
	if q.PaymentID != "" {
		return s.byPaymentID(ctx, q.PaymentID)
	}
	if q.Email == "" && q.SerialNumber == "" && q.IMEI == "" {
		return StatusOutput{}, apperr.InvalidErr("Provide a payment id, email, serial number or IMEI.", nil)
	}
	return s.search(ctx, q)
}

func (s *StatusService) byPaymentID(ctx context.Context, paymentID string) (StatusOutput, error) {
	p, err := s.store.PaymentByID(ctx, paymentID)
	if errors.Is(err, ErrPaymentNotFound) {
		return StatusOutput{}, apperr.NotFoundErr("Payment not found.")
	}
	if err != nil {
		return StatusOutput{}, apperr.Wrap(err)
	}
	summary := p.Summary()

	// An existing check answers the query regardless of payment state.
	if p.WorkOrderID != nil {
		check, err := s.store.LatestCheck(ctx, *p.WorkOrderID)
		if err != nil {
			return StatusOutput{}, apperr.Wrap(err)
		}
		if check != nil {
			return StatusOutput{Condition: ConditionOK, Payment: &summary, Check: check}, nil
		}
	}

	// Guard: no paid third-party lookups for unpaid orders.
	if !s.confirmedPaid(p) {
		return StatusOutput{Condition: ConditionPaymentNotPaid, Payment: &summary}, nil
	}

	if p.WorkOrder == nil || p.WorkOrder.Device == nil {
		return StatusOutput{Condition: ConditionCheckPending, Payment: &summary}, nil
	}

	check, err := s.checks.ensureCheck(ctx, p, warranty.InitiatedByPaymentAuto)
	if err != nil {
		return StatusOutput{}, apperr.Wrap(err)
	}
	if check == nil {
		return StatusOutput{Condition: ConditionCheckPending, Payment: &summary}, nil
	}

	s.logger.InfoContext(ctx, "warranty check self-healed on read",
		"payment_id", p.ID, "check_id", check.ID)
	return StatusOutput{Condition: ConditionOK, Payment: &summary, Check: check}, nil
}

func (s *StatusService) confirmedPaid(p *Payment) bool {
	if p.Status != StatusPaid {
		return false
	}
	if p.WorkOrder != nil && p.WorkOrder.PaymentStatus != workorders.PaymentPaid {
		return false
	}
	return true
}

// search is the public lookup: most recent check reachable from the given
// identifier, verbatim, with no self-healing.
func (s *StatusService) search(ctx context.Context, q StatusQuery) (StatusOutput, error) {
	check, err := s.store.SearchLatestCheck(ctx, CheckQuery{
		Email:        q.Email,
		SerialNumber: q.SerialNumber,
		IMEI:         q.IMEI,
	})
	if err != nil {
		return StatusOutput{}, apperr.Wrap(err)
	}
	if check == nil {
		return StatusOutput{}, apperr.NotFoundErr("No warranty check found.")
	}
	return StatusOutput{Condition: ConditionOK, Check: check}, nil
}
