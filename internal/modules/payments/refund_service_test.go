package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mosesedem/servixing-sub001/internal/modules/workorders"
	"github.com/Mosesedem/servixing-sub001/internal/shared/apperr"
)

func TestRefundPaidPayment(t *testing.T) {
	p := paidPaymentWithDevice()
	store := newFakeStore(p)
	gw := &fakeGateway{name: ProviderPaystack}
	svc := NewRefundService(store, NewGateways(gw), nil)

	sum, err := svc.Refund(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusRefunded, sum.Status)
	assert.Equal(t, 1, gw.refundCalls)
	assert.Equal(t, StatusRefunded, store.payments[p.ID].Status)
	assert.Equal(t, workorders.PaymentRefunded, store.payments[p.ID].WorkOrder.PaymentStatus)
}

func TestRefundRejectsNonPaid(t *testing.T) {
	p := paidPaymentWithDevice()
	p.Status = StatusPending
	store := newFakeStore(p)
	gw := &fakeGateway{name: ProviderPaystack}
	svc := NewRefundService(store, NewGateways(gw), nil)

	_, err := svc.Refund(context.Background(), p.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
	assert.Zero(t, gw.refundCalls)
}

func TestRefundGatewayFailureChangesNothing(t *testing.T) {
	p := paidPaymentWithDevice()
	store := newFakeStore(p)
	gw := &fakeGateway{
		name:      ProviderPaystack,
		refundErr: apperr.UnavailableErr("Payment provider is unavailable.", nil),
	}
	svc := NewRefundService(store, NewGateways(gw), nil)

	_, err := svc.Refund(context.Background(), p.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Unavailable))
	assert.Equal(t, StatusPaid, store.payments[p.ID].Status)
	assert.Zero(t, store.markRefundedCalls)
}

func TestRefundUnknownPayment(t *testing.T) {
	svc := NewRefundService(newFakeStore(), NewGateways(&fakeGateway{name: ProviderPaystack}), nil)

	_, err := svc.Refund(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}
