package email

import (
	"context"
	"log/slog"

	"github.com/Mosesedem/servixing-sub001/internal/mailer"
)

// Notifier composes the transactional emails sent after payment and warranty
// state changes. Delivery failures are logged, never propagated: a missed
// email must not fail a verified payment.
type Notifier struct {
	mailer   mailer.Service
	from     string
	fromName string
	disabled bool
	logger   *slog.Logger
}

func NewNotifier(m mailer.Service, from, fromName string, disabled bool, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{mailer: m, from: from, fromName: fromName, disabled: disabled, logger: logger}
}

type ReceiptData struct {
	To        string
	Name      string
	Reference string
	Amount    string // formatted, e.g. "NGN 5000.00"
	Service   string
}

func (n *Notifier) PaymentReceipt(ctx context.Context, d ReceiptData) {
	if n.disabled || d.To == "" {
		return
	}

	greeting := "Hello"
	if d.Name != "" {
		greeting = "Hello " + d.Name
	}

	serviceLine := ""
	if d.Service != "" {
		serviceLine = "\nService: " + d.Service
	}

	subject := "Payment Received - Servixing"
	textBody := greeting + ",\n\nWe received your payment.\n\nReference: " + d.Reference +
		"\nAmount: " + d.Amount + serviceLine + "\n\nThank you!"

	htmlBody := `
<html>
  <body style="font-family: sans-serif;">
    <h2>Payment Received</h2>
    <p>` + greeting + `,</p>
    <p>We received your payment.</p>
    <p><strong>Reference:</strong> ` + d.Reference + `</p>
    <p><strong>Amount:</strong> ` + d.Amount + `</p>
    ` + htmlService(d.Service) + `
    <p>Thank you!</p>
    <p>The Servixing Team</p>
  </body>
</html>
`

	n.send(ctx, d.To, subject, textBody, htmlBody)
}

func htmlService(service string) string {
	if service == "" {
		return ""
	}
	return `<p><strong>Service:</strong> ` + service + `</p>`
}

type WarrantyResultData struct {
	To           string
	Name         string
	DeviceBrand  string
	SerialNumber string
	Status       string // canonical check status
	Expiry       string // formatted date, "" when unknown
}

func (n *Notifier) WarrantyResult(ctx context.Context, d WarrantyResultData) {
	if n.disabled || d.To == "" {
		return
	}

	greeting := "Hello"
	if d.Name != "" {
		greeting = "Hello " + d.Name
	}

	expiryLine := ""
	if d.Expiry != "" {
		expiryLine = "\nWarranty expiry: " + d.Expiry
	}

	subject := "Warranty Check Result - Servixing"
	textBody := greeting + ",\n\nYour warranty check for " + d.DeviceBrand + " (" + d.SerialNumber + ") is complete.\n" +
		"Result: " + d.Status + expiryLine + "\n\nThank you!"

	htmlExpiry := ""
	if d.Expiry != "" {
		htmlExpiry = `<p><strong>Warranty expiry:</strong> ` + d.Expiry + `</p>`
	}

	htmlBody := `
<html>
  <body style="font-family: sans-serif;">
    <h2>Warranty Check Result</h2>
    <p>` + greeting + `,</p>
    <p>Your warranty check for <strong>` + d.DeviceBrand + `</strong> (` + d.SerialNumber + `) is complete.</p>
    <p><strong>Result:</strong> ` + d.Status + `</p>
    ` + htmlExpiry + `
    <p>Thank you!</p>
    <p>The Servixing Team</p>
  </body>
</html>
`

	n.send(ctx, d.To, subject, textBody, htmlBody)
}

func (n *Notifier) send(ctx context.Context, to, subject, textBody, htmlBody string) {
	err := n.mailer.Send(ctx, mailer.Email{
		From:     n.from,
		FromName: n.fromName,
		To:       []string{to},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	})
	if err != nil {
		n.logger.WarnContext(ctx, "notification email failed",
			"to", to, "subject", subject, "err", err)
	}
}
