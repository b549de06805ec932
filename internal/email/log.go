package email

import (
	"context"
	"log/slog"
)

// LogMailer stands in when SMTP is not configured. It writes the would-be
// message to the log so verification and reset links remain reachable during
// local development.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendVerificationEmail(ctx context.Context, to, name, verificationURL string) error {
	m.logger.InfoContext(ctx, "email not configured, logging verification link",
		"to", to, "name", name, "url", verificationURL)
	return nil
}

func (m *LogMailer) SendPasswordResetEmail(ctx context.Context, to, name, resetURL string) error {
	m.logger.InfoContext(ctx, "email not configured, logging password reset link",
		"to", to, "name", name, "url", resetURL)
	return nil
}

func (m *LogMailer) SendWelcomeEmail(ctx context.Context, to, name, shopURL string) error {
	m.logger.InfoContext(ctx, "email not configured, logging welcome message",
		"to", to, "name", name, "url", shopURL)
	return nil
}
