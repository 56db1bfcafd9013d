package payments

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mosesedem/servixing-sub001/internal/modules/users"
	"github.com/Mosesedem/servixing-sub001/internal/modules/warranty"
	"github.com/Mosesedem/servixing-sub001/internal/modules/workorders"
)

// fakeStore is an in-memory Store with the same transition semantics as the
// real one, plus call counters for asserting side effects.
type fakeStore struct {
	payments map[string]*Payment // by ID
	checks   map[string]*warranty.Check
	users    map[string]*users.User

	searchResult *warranty.Check

	createPaymentCalls int
	markPaidCalls      int
	markFailedCalls    int
	markRefundedCalls  int
	createCheckCalls   int

	markPaidErr    error
	createCheckErr error
}

var _ Store = (*fakeStore)(nil)

func newFakeStore(ps ...*Payment) *fakeStore {
	s := &fakeStore{
		payments: map[string]*Payment{},
		checks:   map[string]*warranty.Check{},
		users:    map[string]*users.User{},
	}
	for _, p := range ps {
		s.payments[p.ID] = p
	}
	return s
}

func (s *fakeStore) CreatePayment(ctx context.Context, p *Payment) error {
	s.createPaymentCalls++
	s.payments[p.ID] = p
	return nil
}

func (s *fakeStore) PaymentByReference(ctx context.Context, reference string) (*Payment, error) {
	for _, p := range s.payments {
		if p.ProviderReference == reference {
			return p, nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (s *fakeStore) PaymentByID(ctx context.Context, id string) (*Payment, error) {
	p, ok := s.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

func (s *fakeStore) MarkPaid(ctx context.Context, in MarkPaidInput) (MarkPaidResult, error) {
	s.markPaidCalls++
	if s.markPaidErr != nil {
		return MarkPaidResult{}, s.markPaidErr
	}

	p, ok := s.payments[in.PaymentID]
	if !ok {
		return MarkPaidResult{}, ErrPaymentNotFound
	}
	if p.Status == StatusPaid {
		return MarkPaidResult{Applied: false, WorkOrderID: p.WorkOrderID}, nil
	}
	if p.Status != StatusPending {
		return MarkPaidResult{}, ErrNotTransitionable
	}

	p.Status = StatusPaid
	p.WebhookVerified = true
	p.WebhookVerifiedAt = &in.At

	if p.WorkOrderID == nil && in.Synthesize != nil {
		syn := in.Synthesize
		dev := &workorders.Device{
			ID:           uuid.NewString(),
			UserID:       syn.UserID,
			Brand:        syn.Brand,
			Model:        syn.Model,
			SerialNumber: syn.SerialNumber,
			IMEI:         syn.IMEI,
		}
		wo := &workorders.WorkOrder{
			ID:            uuid.NewString(),
			UserID:        syn.UserID,
			DeviceID:      &dev.ID,
			Status:        workorders.StatusReceived,
			PaymentStatus: workorders.PaymentPaid,
			TotalAmount:   syn.Amount,
			Currency:      syn.Currency,
			Metadata:      syn.Metadata,
			Device:        dev,
		}
		p.WorkOrderID = &wo.ID
		p.WorkOrder = wo
	} else if p.WorkOrder != nil {
		p.WorkOrder.PaymentStatus = workorders.PaymentPaid
	}

	return MarkPaidResult{Applied: true, WorkOrderID: p.WorkOrderID}, nil
}

func (s *fakeStore) MarkFailed(ctx context.Context, paymentID string) error {
	s.markFailedCalls++
	p, ok := s.payments[paymentID]
	if !ok {
		return ErrPaymentNotFound
	}
	if p.Status != StatusPending {
		return nil
	}
	p.Status = StatusFailed
	if p.WorkOrder != nil {
		p.WorkOrder.PaymentStatus = workorders.PaymentFailed
	}
	return nil
}

func (s *fakeStore) MarkRefunded(ctx context.Context, paymentID string, at time.Time) error {
	s.markRefundedCalls++
	p, ok := s.payments[paymentID]
	if !ok {
		return ErrPaymentNotFound
	}
	if p.Status != StatusPaid {
		return ErrNotTransitionable
	}
	p.Status = StatusRefunded
	if p.WorkOrder != nil {
		p.WorkOrder.PaymentStatus = workorders.PaymentRefunded
	}
	return nil
}

func (s *fakeStore) LatestCheck(ctx context.Context, workOrderID string) (*warranty.Check, error) {
	return s.checks[workOrderID], nil
}

func (s *fakeStore) CreateAutoCheck(ctx context.Context, c *warranty.Check) (*warranty.Check, error) {
	s.createCheckCalls++
	if s.createCheckErr != nil {
		return nil, s.createCheckErr
	}
	if c.DedupeKey != nil {
		if existing, ok := s.checks[*c.DedupeKey]; ok {
			return existing, nil
		}
		s.checks[*c.DedupeKey] = c
	}
	return c, nil
}

func (s *fakeStore) SearchLatestCheck(ctx context.Context, q CheckQuery) (*warranty.Check, error) {
	return s.searchResult, nil
}

func (s *fakeStore) UserByID(ctx context.Context, id string) (*users.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

// fakeGateway scripts provider answers.
type fakeGateway struct {
	name string

	initResp InitializeResponse
	initErr  error

	verifyResult VerifyResult
	verifyErr    error
	verifyCalls  int

	refundErr   error
	refundCalls int
}

var _ Gateway = (*fakeGateway)(nil)

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, error) {
	if g.initErr != nil {
		return InitializeResponse{}, g.initErr
	}
	resp := g.initResp
	if resp.Reference == "" {
		resp.Reference = req.Reference
	}
	return resp, nil
}

func (g *fakeGateway) Verify(ctx context.Context, reference string) (VerifyResult, error) {
	g.verifyCalls++
	if g.verifyErr != nil {
		return VerifyResult{}, g.verifyErr
	}
	return g.verifyResult, nil
}

func (g *fakeGateway) Refund(ctx context.Context, reference string, amount decimal.Decimal) error {
	g.refundCalls++
	return g.refundErr
}

func (g *fakeGateway) VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error) {
	return WebhookEvent{}, nil
}

// fakeLookup scripts warranty adapter answers.
type fakeLookup struct {
	result warranty.CheckResult
	err    error
	calls  int
}

var _ warranty.Lookup = (*fakeLookup)(nil)

func (l *fakeLookup) Check(ctx context.Context, in warranty.CheckInput) (warranty.CheckResult, error) {
	l.calls++
	if l.err != nil {
		return warranty.CheckResult{}, l.err
	}
	return l.result, nil
}

func strptr(s string) *string { return &s }
