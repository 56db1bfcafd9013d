package warranty

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBrandClient struct {
	provider   string
	configured bool
	result     brandResult
	err        error
	calls      int
}

func (f *fakeBrandClient) Provider() string { return f.provider }
func (f *fakeBrandClient) Configured() bool { return f.configured }
func (f *fakeBrandClient) Check(ctx context.Context, serial, imei string) (brandResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeBlacklist struct {
	configured bool
	status     string
	err        error
}

func (f *fakeBlacklist) Configured() bool { return f.configured }
func (f *fakeBlacklist) DeviceStatus(ctx context.Context, imei string) (string, error) {
	return f.status, f.err
}

func newTestService(client *fakeBrandClient, bl *fakeBlacklist) *Service {
	if bl == nil {
		bl = &fakeBlacklist{}
	}
	return &Service{
		clients:   []brandClient{client},
		blacklist: bl,
		logger:    slog.Default(),
	}
}

func TestCheckBrandRequired(t *testing.T) {
	svc := newTestService(&fakeBrandClient{provider: ProviderApple}, nil)

	_, err := svc.Check(context.Background(), CheckInput{SerialNumber: "C02XYZ"})
	assert.ErrorIs(t, err, ErrBrandRequired)

	_, err = svc.Check(context.Background(), CheckInput{Brand: "   "})
	assert.ErrorIs(t, err, ErrBrandRequired)
}

func TestCheckUnsupportedBrand(t *testing.T) {
	client := &fakeBrandClient{provider: ProviderApple, configured: true}
	svc := newTestService(client, nil)

	out, err := svc.Check(context.Background(), CheckInput{Brand: "Tecno", SerialNumber: "SN1"})
	require.NoError(t, err)
	assert.Equal(t, RawNotApplicable, out.Status)
	assert.Equal(t, ProviderCustom, out.Provider)
	assert.Zero(t, client.calls)
}

func TestCheckNoIdentifiers(t *testing.T) {
	client := &fakeBrandClient{provider: ProviderApple, configured: true}
	svc := newTestService(client, nil)

	out, err := svc.Check(context.Background(), CheckInput{Brand: "Apple"})
	require.NoError(t, err)
	assert.Equal(t, RawUnknown, out.Status)
	assert.Zero(t, client.calls)
}

func TestCheckUnconfiguredProvider(t *testing.T) {
	client := &fakeBrandClient{provider: ProviderApple, configured: false}
	svc := newTestService(client, nil)

	out, err := svc.Check(context.Background(), CheckInput{Brand: "Apple", SerialNumber: "SN1"})
	require.NoError(t, err)
	assert.Equal(t, RawRequiresVerification, out.Status)
	assert.Zero(t, client.calls)
}

func TestCheckProviderErrorDegrades(t *testing.T) {
	client := &fakeBrandClient{
		provider:   ProviderDell,
		configured: true,
		err:        errors.New("boom"),
	}
	svc := newTestService(client, nil)

	out, err := svc.Check(context.Background(), CheckInput{Brand: "Dell", SerialNumber: "TAG1"})
	require.NoError(t, err)
	assert.Equal(t, RawRequiresVerification, out.Status)
	assert.Equal(t, 1, client.calls)
}

func TestCheckSuccessfulLookup(t *testing.T) {
	expiry := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	client := &fakeBrandClient{
		provider:   ProviderApple,
		configured: true,
		result: brandResult{
			Status:     RawActive,
			ExpiryDate: &expiry,
			Raw:        map[string]any{"coverage": "AppleCare+"},
		},
	}
	svc := newTestService(client, nil)

	out, err := svc.Check(context.Background(), CheckInput{Brand: "iPhone 14", SerialNumber: "SN1"})
	require.NoError(t, err)
	assert.Equal(t, RawActive, out.Status)
	assert.Equal(t, ProviderApple, out.Provider)
	require.NotNil(t, out.ExpiryDate)
	assert.True(t, expiry.Equal(*out.ExpiryDate))
	assert.Equal(t, "AppleCare+", out.Raw["coverage"])
}

func TestCheckBlacklistEnrichment(t *testing.T) {
	client := &fakeBrandClient{
		provider:   ProviderSamsung,
		configured: true,
		result:     brandResult{Status: RawInWarranty},
	}
	bl := &fakeBlacklist{configured: true, status: "clean"}
	svc := newTestService(client, bl)

	out, err := svc.Check(context.Background(), CheckInput{Brand: "Samsung", IMEI: "356789012345678"})
	require.NoError(t, err)
	assert.Equal(t, RawInWarranty, out.Status)
	require.NotNil(t, out.DeviceStatus)
	assert.Equal(t, "clean", *out.DeviceStatus)
	assert.Equal(t, "clean", out.Raw["deviceStatus"])
}

func TestCheckBlacklistFailureIgnored(t *testing.T) {
	client := &fakeBrandClient{
		provider:   ProviderSamsung,
		configured: true,
		result:     brandResult{Status: RawActive},
	}
	bl := &fakeBlacklist{configured: true, err: errors.New("registry down")}
	svc := newTestService(client, bl)

	out, err := svc.Check(context.Background(), CheckInput{Brand: "Samsung", IMEI: "356789012345678"})
	require.NoError(t, err)
	assert.Equal(t, RawActive, out.Status)
	assert.Nil(t, out.DeviceStatus)
}
