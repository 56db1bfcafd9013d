package payments

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/Mosesedem/servixing-sub001/internal/shared/apperr"
)

func TestInitializeValidation(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{name: ProviderPaystack}
	svc := NewService(store, NewGateways(gw), nil)

	_, err := svc.Initialize(context.Background(), InitializeInput{
		Provider: ProviderPaystack,
		Amount:   decimal.Zero,
		Email:    "not-an-email",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Invalid))

	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, ae.Fields, "amount")
	assert.Contains(t, ae.Fields, "email")
	assert.Zero(t, store.createPaymentCalls)
}

func TestInitializeUnknownProvider(t *testing.T) {
	svc := NewService(newFakeStore(), NewGateways(), nil)

	_, err := svc.Initialize(context.Background(), InitializeInput{
		Provider: "cowrieshells",
		Amount:   decimal.NewFromInt(100),
		Email:    "ada@example.com",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Invalid))
}

func TestInitializeCreatesPendingPayment(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{
		name:     ProviderPaystack,
		initResp: InitializeResponse{AuthorizationURL: "https://checkout.paystack.com/abc", AccessCode: "ac_1"},
	}
	svc := NewService(store, NewGateways(gw), nil)

	out, err := svc.Initialize(context.Background(), InitializeInput{
		Provider:     ProviderPaystack,
		Amount:       decimal.NewFromInt(5000),
		Email:        "ada@example.com",
		Service:      ServiceWarrantyCheck,
		Brand:        "Apple",
		SerialNumber: "C02XYZ123",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.Reference, "svx_"))
	assert.Equal(t, "https://checkout.paystack.com/abc", out.AuthorizationURL)

	p, err := store.PaymentByReference(context.Background(), out.Reference)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, "NGN", p.Currency) // default

	md := ParseMetadata(p.Metadata)
	assert.Equal(t, ServiceWarrantyCheck, md.Service)
	assert.Equal(t, "Apple", md.Brand)
	assert.Equal(t, "C02XYZ123", md.SerialNumber)
	assert.Equal(t, "ada@example.com", md.Email)
}

func TestInitializeKeepsPendingRowOnGatewayError(t *testing.T) {
	store := newFakeStore()
	gw := &fakeGateway{
		name:    ProviderPaystack,
		initErr: apperr.UnavailableErr("Payment provider is unavailable.", nil),
	}
	svc := NewService(store, NewGateways(gw), nil)

	_, err := svc.Initialize(context.Background(), InitializeInput{
		Provider: ProviderPaystack,
		Amount:   decimal.NewFromInt(100),
		Email:    "ada@example.com",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Unavailable))
	assert.Equal(t, 1, store.createPaymentCalls)
}

func TestParseMetadataKeyVariants(t *testing.T) {
	md := ParseMetadata(datatypes.JSONMap{
		"service":      ServiceWarrantyCheck,
		"serialNumber": "SN-camel",
		"imei":         "356789012345678",
		"custom":       "kept",
	})
	assert.Equal(t, "SN-camel", md.SerialNumber)
	assert.Equal(t, "356789012345678", md.IMEI)
	assert.Equal(t, "kept", md.Extra["custom"])

	md = ParseMetadata(datatypes.JSONMap{"serial_number": "SN-snake"})
	assert.Equal(t, "SN-snake", md.SerialNumber)
}
