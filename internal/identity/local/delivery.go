package local

import (
	"context"

	"github.com/dmitrijs2005/filedeck/internal/logging"
)

// Sender delivers one-time codes by SMS.
type Sender interface {
	SendSMS(ctx context.Context, phone, text string) error
}

// Mailer delivers transactional email.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// LogDelivery writes codes and mails to the log instead of sending them.
// It is the default for development setups.
type LogDelivery struct {
	Logger logging.Logger
}

func (d LogDelivery) SendSMS(ctx context.Context, phone, text string) error {
	d.Logger.Info(ctx, "sms", "to", phone, "text", text)
	return nil
}

func (d LogDelivery) SendMail(ctx context.Context, to, subject, body string) error {
	d.Logger.Info(ctx, "mail", "to", to, "subject", subject, "body", body)
	return nil
}
