package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"

	"gopkg.in/gomail.v2"
)

// SMTPMailer delivers mail over SMTP via gomail.
type SMTPMailer struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
	logger   *slog.Logger
}

func NewSMTPMailer(host string, port int, username, password, from string, logger *slog.Logger) *SMTPMailer {
	// The sender may be configured as either a bare address or a name-addr
	// form like "HarvestHub <no-reply@example.com>". gomail expects the bare
	// address and display name separately, so split them here.
	address, name := from, "HarvestHub"
	if parsed, err := mail.ParseAddress(from); err == nil {
		address = parsed.Address
		if parsed.Name != "" {
			name = parsed.Name
		}
	}
	return &SMTPMailer{
		dialer:   gomail.NewDialer(host, port, username, password),
		from:     address,
		fromName: name,
		logger:   logger,
	}
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	m.logger.InfoContext(ctx, "email sent", "to", to, "subject", subject)
	return nil
}

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to, name, verificationURL string) error {
	body, err := renderTemplate("verification", templateData{Name: name, URL: verificationURL})
	if err != nil {
		return err
	}
	return m.send(ctx, to, subjectVerification, body)
}

func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, to, name, resetURL string) error {
	body, err := renderTemplate("password_reset", templateData{Name: name, URL: resetURL})
	if err != nil {
		return err
	}
	return m.send(ctx, to, subjectPasswordReset, body)
}

func (m *SMTPMailer) SendWelcomeEmail(ctx context.Context, to, name, shopURL string) error {
	body, err := renderTemplate("welcome", templateData{Name: name, URL: shopURL})
	if err != nil {
		return err
	}
	return m.send(ctx, to, subjectWelcome, body)
}
