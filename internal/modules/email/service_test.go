package email

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mosesedem/servixing-sub001/internal/mailer"
)

func TestPaymentReceipt(t *testing.T) {
	mock := &mailer.Mock{}
	n := NewNotifier(mock, "no-reply@servixing.local", "Servixing", false, nil)

	n.PaymentReceipt(context.Background(), ReceiptData{
		To:        "ada@example.com",
		Name:      "Ada",
		Reference: "svx_abc",
		Amount:    "NGN 5000.00",
	})

	require.Len(t, mock.Sent, 1)
	sent := mock.Sent[0]
	assert.Equal(t, []string{"ada@example.com"}, sent.To)
	assert.Contains(t, sent.Subject, "Payment Received")
	assert.Contains(t, sent.TextBody, "Hello Ada")
	assert.Contains(t, sent.TextBody, "svx_abc")
	assert.Contains(t, sent.HTMLBody, "NGN 5000.00")
}

func TestWarrantyResultIncludesExpiry(t *testing.T) {
	mock := &mailer.Mock{}
	n := NewNotifier(mock, "no-reply@servixing.local", "Servixing", false, nil)

	n.WarrantyResult(context.Background(), WarrantyResultData{
		To:           "ada@example.com",
		DeviceBrand:  "Apple",
		SerialNumber: "C02XYZ123",
		Status:       "success",
		Expiry:       "2027-03-01",
	})

	sent, ok := mock.Last()
	require.True(t, ok)
	assert.Contains(t, sent.TextBody, "2027-03-01")
	assert.Contains(t, sent.TextBody, "C02XYZ123")
}

func TestDisabledNotifierSendsNothing(t *testing.T) {
	mock := &mailer.Mock{}
	n := NewNotifier(mock, "no-reply@servixing.local", "Servixing", true, nil)

	n.PaymentReceipt(context.Background(), ReceiptData{To: "ada@example.com"})
	n.WarrantyResult(context.Background(), WarrantyResultData{To: "ada@example.com"})

	assert.Empty(t, mock.Sent)
}

func TestSendFailureIsSwallowed(t *testing.T) {
	mock := &mailer.Mock{Err: errors.New("smtp down")}
	n := NewNotifier(mock, "no-reply@servixing.local", "Servixing", false, nil)

	// Must not panic or propagate.
	n.PaymentReceipt(context.Background(), ReceiptData{To: "ada@example.com", Reference: "svx_x", Amount: "NGN 1.00"})

	_, ok := mock.Last()
	assert.False(t, ok)
}
