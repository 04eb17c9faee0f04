package mailer

import (
	"context"

	"github.com/diagnosis/hotel-bookings/pkg/config"
)

type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Service interface {
	Send(ctx context.Context, msg Message) error
}

// New picks MailerSend when an API key is configured and dev mode is off,
// otherwise the logging mailer.
func New(cfg config.EmailConfig) Service {
	if cfg.DevMode || cfg.MailerSendKey == "" {
		return NewDevMailer()
	}
	return NewMailerSend(cfg.MailerSendKey, cfg.FromName, cfg.FromEmail)
}
