// Package notify sends BlogHub's emails: new-post notices to followers and
// password reset links.
package notify

import (
	"context"
	"fmt"
	"log"

	"gopkg.in/gomail.v2"

	"github.com/user/bloghub-go/config"
)

// Mailer is an email transport.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer sends mail through an SMTP relay. Each Send opens its own
// connection so the mailer is safe for concurrent use by the dispatcher workers.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogMailer only logs mails. It is used when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, _ string) error {
	log.Printf("[notify] (smtp disabled) mail to %s: %s", to, subject)
	return nil
}
