package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/Mosesedem/servixing-sub001/internal/modules/warranty"
	"github.com/Mosesedem/servixing-sub001/internal/modules/workorders"
	"github.com/Mosesedem/servixing-sub001/internal/shared/apperr"
)

func pendingWarrantyPayment() *Payment {
	return &Payment{
		ID:                "pay-1",
		Amount:            decimal.NewFromInt(5000),
		Currency:          "NGN",
		Provider:          ProviderPaystack,
		ProviderReference: "svx_abc",
		Status:            StatusPending,
		Metadata: datatypes.JSONMap{
			"service":       ServiceWarrantyCheck,
			"brand":         "Apple",
			"serial_number": "C02XYZ123",
			"email":         "ada@example.com",
		},
		CreatedAt: time.Now(),
	}
}

func newVerifyService(store *fakeStore, gw *fakeGateway, lookup *fakeLookup) *VerifyService {
	return NewVerifyService(store, NewGateways(gw), lookup, nil)
}

func TestVerifySuccessCreatesWorkOrderAndCheck(t *testing.T) {
	store := newFakeStore(pendingWarrantyPayment())
	gw := &fakeGateway{
		name:         ProviderPaystack,
		verifyResult: VerifyResult{Status: GatewaySuccess, Amount: decimal.NewFromInt(5000), Currency: "NGN"},
	}
	lookup := &fakeLookup{result: warranty.CheckResult{Status: warranty.RawActive, Provider: warranty.ProviderApple}}

	out, err := newVerifyService(store, gw, lookup).Verify(context.Background(), "svx_abc")
	require.NoError(t, err)

	assert.Equal(t, GatewaySuccess, out.Status)
	assert.Equal(t, StatusPaid, out.Payment.Status)
	assert.Equal(t, 1, store.markPaidCalls)

	p := store.payments["pay-1"]
	require.NotNil(t, p.WorkOrderID)
	require.NotNil(t, p.WorkOrder)
	assert.Equal(t, workorders.PaymentPaid, p.WorkOrder.PaymentStatus)
	require.NotNil(t, p.WorkOrder.Device)
	assert.Equal(t, "Apple", p.WorkOrder.Device.Brand)

	require.NotNil(t, out.WarrantyCheck)
	assert.Equal(t, warranty.StatusSuccess, out.WarrantyCheck.Status)
	assert.Equal(t, warranty.InitiatedByPaymentVerify, out.WarrantyCheck.InitiatedBy)
	assert.Equal(t, 1, lookup.calls)
}

func TestVerifyIsIdempotent(t *testing.T) {
	store := newFakeStore(pendingWarrantyPayment())
	gw := &fakeGateway{
		name:         ProviderPaystack,
		verifyResult: VerifyResult{Status: GatewaySuccess, Amount: decimal.NewFromInt(5000)},
	}
	lookup := &fakeLookup{result: warranty.CheckResult{Status: warranty.RawActive, Provider: warranty.ProviderApple}}
	svc := newVerifyService(store, gw, lookup)

	first, err := svc.Verify(context.Background(), "svx_abc")
	require.NoError(t, err)
	second, err := svc.Verify(context.Background(), "svx_abc")
	require.NoError(t, err)

	assert.Equal(t, GatewaySuccess, second.Status)
	// Already-paid short-circuits: no second transition, no second lookup.
	assert.Equal(t, 1, store.markPaidCalls)
	assert.Equal(t, 1, lookup.calls)
	require.NotNil(t, second.WarrantyCheck)
	assert.Equal(t, first.WarrantyCheck.ID, second.WarrantyCheck.ID)
}

func TestVerifyNonSuccessTouchesNothing(t *testing.T) {
	store := newFakeStore(pendingWarrantyPayment())
	gw := &fakeGateway{
		name:         ProviderPaystack,
		verifyResult: VerifyResult{Status: GatewayFailed, Amount: decimal.NewFromInt(5000)},
	}
	lookup := &fakeLookup{}

	out, err := newVerifyService(store, gw, lookup).Verify(context.Background(), "svx_abc")
	require.NoError(t, err)

	assert.Equal(t, GatewayFailed, out.Status)
	assert.Equal(t, StatusPending, store.payments["pay-1"].Status)
	assert.Zero(t, store.markPaidCalls)
	assert.Zero(t, lookup.calls)
	assert.Nil(t, out.WarrantyCheck)
}

func TestVerifyProviderOutagePropagates(t *testing.T) {
	store := newFakeStore(pendingWarrantyPayment())
	gw := &fakeGateway{
		name:      ProviderPaystack,
		verifyErr: apperr.UnavailableErr("Payment provider is unavailable.", nil),
	}

	_, err := newVerifyService(store, gw, &fakeLookup{}).Verify(context.Background(), "svx_abc")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Unavailable))
	// An outage is not a failed payment.
	assert.Equal(t, StatusPending, store.payments["pay-1"].Status)
	assert.Zero(t, store.markPaidCalls)
}

func TestVerifyUnknownReference(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{name: ProviderPaystack}

	_, err := newVerifyService(store, gw, &fakeLookup{}).Verify(context.Background(), "svx_missing")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
	assert.Zero(t, gw.verifyCalls)
}

func TestVerifyWarrantyFailureDoesNotUndoPayment(t *testing.T) {
	store := newFakeStore(pendingWarrantyPayment())
	store.createCheckErr = errors.New("db write lost")
	gw := &fakeGateway{
		name:         ProviderPaystack,
		verifyResult: VerifyResult{Status: GatewaySuccess, Amount: decimal.NewFromInt(5000)},
	}
	lookup := &fakeLookup{result: warranty.CheckResult{Status: warranty.RawActive, Provider: warranty.ProviderApple}}

	out, err := newVerifyService(store, gw, lookup).Verify(context.Background(), "svx_abc")
	require.NoError(t, err)

	// Payment stays committed; the check is left for the read path to heal.
	assert.Equal(t, GatewaySuccess, out.Status)
	assert.Equal(t, StatusPaid, store.payments["pay-1"].Status)
	assert.Nil(t, out.WarrantyCheck)
}

func TestVerifyConcurrentTransitionConflicts(t *testing.T) {
	store := newFakeStore(pendingWarrantyPayment())
	store.markPaidErr = ErrNotTransitionable
	gw := &fakeGateway{
		name:         ProviderPaystack,
		verifyResult: VerifyResult{Status: GatewaySuccess, Amount: decimal.NewFromInt(5000)},
	}

	_, err := newVerifyService(store, gw, &fakeLookup{}).Verify(context.Background(), "svx_abc")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
	assert.Contains(t, apperr.PublicMessage(err), "retry")
}

func TestVerifyFailedPaymentIsTerminal(t *testing.T) {
	p := pendingWarrantyPayment()
	p.Status = StatusFailed
	store := newFakeStore(p)
	gw := &fakeGateway{
		name:         ProviderPaystack,
		verifyResult: VerifyResult{Status: GatewaySuccess, Amount: decimal.NewFromInt(5000)},
	}

	// The provider reporting success later cannot resurrect a failed payment,
	// so the caller must not be told to retry.
	_, err := newVerifyService(store, gw, &fakeLookup{}).Verify(context.Background(), "svx_abc")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
	assert.Contains(t, apperr.PublicMessage(err), "failed")
	assert.NotContains(t, apperr.PublicMessage(err), "retry")
	assert.Equal(t, StatusFailed, store.payments["pay-1"].Status)
}

func TestVerifyBrandMissingRecordsFailedCheck(t *testing.T) {
	p := pendingWarrantyPayment()
	p.Metadata = datatypes.JSONMap{"service": ServiceWarrantyCheck, "serial_number": "SN1"}
	store := newFakeStore(p)
	gw := &fakeGateway{
		name:         ProviderPaystack,
		verifyResult: VerifyResult{Status: GatewaySuccess, Amount: decimal.NewFromInt(5000)},
	}
	lookup := &fakeLookup{err: warranty.ErrBrandRequired}

	out, err := newVerifyService(store, gw, lookup).Verify(context.Background(), "svx_abc")
	require.NoError(t, err)

	require.NotNil(t, out.WarrantyCheck)
	assert.Equal(t, warranty.StatusFailed, out.WarrantyCheck.Status)
	require.NotNil(t, out.WarrantyCheck.ErrorMessage)
	assert.Contains(t, *out.WarrantyCheck.ErrorMessage, "brand")
}
