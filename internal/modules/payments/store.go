package payments

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/Mosesedem/servixing-sub001/internal/modules/users"
	"github.com/Mosesedem/servixing-sub001/internal/modules/warranty"
)

// SynthesizeInput describes the device + work order pair created on the fly
// for a warranty-check purchase that arrived without a work order.
type SynthesizeInput struct {
	UserID       *string
	Brand        string
	Model        *string
	SerialNumber *string
	IMEI         *string
	Amount       decimal.Decimal
	Currency     string
	Metadata     datatypes.JSONMap
}

type MarkPaidInput struct {
	PaymentID string
	At        time.Time
	// When set and the payment has no work order yet, the device and work
	// order are created inside the same transaction as the status flip, so
	// only the verification that wins the race synthesizes them.
	Synthesize *SynthesizeInput
}

type MarkPaidResult struct {
	// Applied is false when the payment was already paid; the call is then
	// a no-op (idempotent replay), not an error.
	Applied     bool
	WorkOrderID *string
}

// CheckQuery is the public lookup form: any one of the three identifiers.
type CheckQuery struct {
	Email        string
	SerialNumber string
	IMEI         string
}

// Store is the persistence contract the verification core relies on. All
// multi-entity writes are atomic; MarkPaid and MarkRefunded guard their
// transitions with a row lock + compare-and-swap so concurrent verifications
// cannot double-apply.
type Store interface {
	CreatePayment(ctx context.Context, p *Payment) error
	// PaymentByReference loads a payment with its work order and device.
	PaymentByReference(ctx context.Context, reference string) (*Payment, error)
	PaymentByID(ctx context.Context, id string) (*Payment, error)

	// MarkPaid atomically sets payment status + webhook fields and mirrors
	// paid onto the attached (or synthesized) work order.
	MarkPaid(ctx context.Context, in MarkPaidInput) (MarkPaidResult, error)
	// MarkFailed applies pending->failed; a no-op for payments that already
	// reached a final state (transitions are forward only).
	MarkFailed(ctx context.Context, paymentID string) error
	// MarkRefunded applies paid->refunded; ErrNotTransitionable otherwise.
	MarkRefunded(ctx context.Context, paymentID string, at time.Time) error

	LatestCheck(ctx context.Context, workOrderID string) (*warranty.Check, error)
	// CreateAutoCheck inserts an auto-created warranty check. When a
	// concurrent creator won the dedupe race, the existing row is returned
	// instead; callers always get the single surviving check.
	CreateAutoCheck(ctx context.Context, c *warranty.Check) (*warranty.Check, error)
	// SearchLatestCheck finds the most recent check reachable from a user
	// email, device serial number or IMEI.
	SearchLatestCheck(ctx context.Context, q CheckQuery) (*warranty.Check, error)

	UserByID(ctx context.Context, id string) (*users.User, error)
}
