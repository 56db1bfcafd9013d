package mailer

import "context"

type Service interface {
	Send(ctx context.Context, e Email) error
}

type Email struct {
	FromName string // optional: "Servixing"
	From     string // required: "no-reply@servixing.local"

	To []string

	Subject string

	TextBody string
	HTMLBody string
}
