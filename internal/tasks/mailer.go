package tasks

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/logistyczniepl/marketplace/pkg/config"
)

// Mailer sends plain-text mail. The worker uses the SMTP implementation;
// tests substitute their own.
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *slog.Logger
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg config.SMTPConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	// Without SMTP credentials (local development) just log the mail.
	if !m.cfg.Configured() {
		m.logger.Info("mock email", "to", to, "subject", subject, "body", body)
		return nil
	}

	from := fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.Username)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	msg := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(m.cfg.Addr(), auth, m.cfg.Username, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}
