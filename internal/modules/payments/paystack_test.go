package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mosesedem/servixing-sub001/internal/config"
)

func signPaystack(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func paystackForTest() *PaystackGateway {
	return NewPaystackGateway(config.ProviderConfig{
		BaseURL:       "https://api.paystack.test",
		SecretKey:     "sk_test",
		WebhookSecret: "whsec_test",
	}, time.Second)
}

func TestPaystackWebhookValidSignature(t *testing.T) {
	gw := paystackForTest()
	body := []byte(`{"event":"charge.success","data":{"id":42,"reference":"svx_abc","amount":500000,"currency":"NGN"}}`)

	h := http.Header{}
	h.Set("x-paystack-signature", signPaystack("whsec_test", body))

	ev, err := gw.VerifyAndParseWebhook(h, body)
	require.NoError(t, err)

	assert.Equal(t, EventPaymentSuccess, ev.Type)
	assert.Equal(t, "charge.success:42", ev.EventID)
	assert.Equal(t, "svx_abc", ev.Reference)
	assert.True(t, ev.Amount.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, "NGN", ev.Currency)
}

func TestPaystackWebhookFailedCharge(t *testing.T) {
	gw := paystackForTest()
	body := []byte(`{"event":"charge.failed","data":{"id":43,"reference":"svx_abc","amount":500000,"currency":"NGN"}}`)

	h := http.Header{}
	h.Set("x-paystack-signature", signPaystack("whsec_test", body))

	ev, err := gw.VerifyAndParseWebhook(h, body)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentFailed, ev.Type)
}

func TestPaystackWebhookRejectsBadSignature(t *testing.T) {
	gw := paystackForTest()
	body := []byte(`{"event":"charge.success","data":{"id":42}}`)

	h := http.Header{}
	h.Set("x-paystack-signature", signPaystack("wrong-secret", body))

	_, err := gw.VerifyAndParseWebhook(h, body)
	assert.Error(t, err)
}

func TestPaystackWebhookRejectsMissingSignature(t *testing.T) {
	gw := paystackForTest()

	_, err := gw.VerifyAndParseWebhook(http.Header{}, []byte(`{}`))
	assert.Error(t, err)
}

func TestSubunitConversion(t *testing.T) {
	assert.Equal(t, int64(500050), toSubunits(decimal.RequireFromString("5000.50")))
	assert.True(t, fromSubunits(500050).Equal(decimal.RequireFromString("5000.50")))
}
