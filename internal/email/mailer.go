package email

import "context"

// Mailer delivers transactional mail. Callers treat delivery as a side
// channel: a send failure never has to abort the surrounding flow unless the
// caller decides it should.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, name, verificationURL string) error
	SendPasswordResetEmail(ctx context.Context, to, name, resetURL string) error
	SendWelcomeEmail(ctx context.Context, to, name, shopURL string) error
}
