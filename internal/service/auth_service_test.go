package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harvesthub/harvesthub-api/internal/config"
	"github.com/harvesthub/harvesthub-api/internal/domain"
	"github.com/harvesthub/harvesthub-api/internal/repository"
	"github.com/harvesthub/harvesthub-api/internal/security"
)

const testPassword = "CorrectHorse9!"

var (
	testHashOnce sync.Once
	testHash     string
)

// hashedTestPassword hashes once per process; bcrypt at production cost is
// too slow to repeat per subtest.
func hashedTestPassword(t *testing.T) string {
	t.Helper()
	testHashOnce.Do(func() {
		h, err := security.HashPassword(testPassword)
		if err != nil {
			t.Fatalf("hash test password: %v", err)
		}
		testHash = h
	})
	return testHash
}

type mailerStub struct {
	fail       bool
	verifyURLs []string
	resetURLs  []string
	welcomeTos []string
}

func (m *mailerStub) SendVerificationEmail(_ context.Context, _, _, url string) error {
	m.verifyURLs = append(m.verifyURLs, url)
	if m.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (m *mailerStub) SendPasswordResetEmail(_ context.Context, _, _, url string) error {
	m.resetURLs = append(m.resetURLs, url)
	if m.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (m *mailerStub) SendWelcomeEmail(_ context.Context, to, _, _ string) error {
	m.welcomeTos = append(m.welcomeTos, to)
	if m.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

type authFixture struct {
	t      *testing.T
	auth   *AuthService
	users  repository.UserRepository
	mailer *mailerStub
	jwt    *security.JWTManager
	clock  time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db := newServiceDB(t)

	cfg := &config.Config{
		FrontendURL:           "http://localhost:5173",
		EmailVerifyTokenTTL:   24 * time.Hour,
		PasswordResetTokenTTL: 10 * time.Minute,
	}
	fx := &authFixture{
		t:      t,
		users:  repository.NewUserRepository(db),
		mailer: &mailerStub{},
		jwt:    security.NewJWTManager("test-secret", 30*time.Minute),
		clock:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	fx.auth = NewAuthService(
		cfg,
		fx.users,
		fx.jwt,
		NewLockoutPolicy(5, 2*time.Hour),
		fx.mailer,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	fx.auth.now = func() time.Time { return fx.clock }
	return fx
}

func (fx *authFixture) advance(d time.Duration) { fx.clock = fx.clock.Add(d) }

func (fx *authFixture) seedAccount(email, phone string) *domain.User {
	fx.t.Helper()
	u := &domain.User{
		Name:     "Asha Patel",
		Email:    email,
		Phone:    phone,
		Password: hashedTestPassword(fx.t),
		Role:     domain.RoleUser,
		IsActive: true,
	}
	if err := fx.users.Create(u); err != nil {
		fx.t.Fatalf("seed account: %v", err)
	}
	return u
}

// lastTokenFrom strips the link prefix and returns the raw one-time token.
func lastTokenFrom(t *testing.T, urls []string) string {
	t.Helper()
	if len(urls) == 0 {
		t.Fatal("no email was sent")
	}
	url := urls[len(urls)-1]
	idx := strings.LastIndex(url, "/")
	if idx < 0 || idx == len(url)-1 {
		t.Fatalf("malformed link %q", url)
	}
	return url[idx+1:]
}

func TestAuthServiceRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account and sends verification link", func(t *testing.T) {
		fx := newAuthFixture(t)

		user, sent, err := fx.auth.Register(ctx, RegisterInput{
			Name: " Asha Patel ", Email: " Asha@Example.COM ", Password: testPassword, Phone: "9876543210",
		})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if !sent {
			t.Fatal("expected verification email to be sent")
		}
		if user.Email != "asha@example.com" {
			t.Fatalf("email not normalized: %q", user.Email)
		}
		if user.Name != "Asha Patel" {
			t.Fatalf("name not trimmed: %q", user.Name)
		}
		if user.Role != domain.RoleUser {
			t.Fatalf("unexpected role %q", user.Role)
		}
		if got := len(fx.mailer.verifyURLs); got != 1 {
			t.Fatalf("expected 1 verification email, got %d", got)
		}
		if !strings.HasPrefix(fx.mailer.verifyURLs[0], "http://localhost:5173/verify-email/") {
			t.Fatalf("unexpected link %q", fx.mailer.verifyURLs[0])
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.seedAccount("dupe@example.com", "9000000001")

		_, _, err := fx.auth.Register(ctx, RegisterInput{
			Name: "Other", Email: "DUPE@example.com", Password: testPassword, Phone: "9000000002",
		})
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}
	})

	t.Run("duplicate phone", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.seedAccount("first@example.com", "9000000001")

		_, _, err := fx.auth.Register(ctx, RegisterInput{
			Name: "Other", Email: "second@example.com", Password: testPassword, Phone: "9000000001",
		})
		if !errors.Is(err, ErrDuplicatePhone) {
			t.Fatalf("expected ErrDuplicatePhone, got %v", err)
		}
	})

	t.Run("email failure does not fail registration", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.mailer.fail = true

		user, sent, err := fx.auth.Register(ctx, RegisterInput{
			Name: "Asha", Email: "asha@example.com", Password: testPassword, Phone: "9876543210",
		})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if sent {
			t.Fatal("expected sent=false when delivery fails")
		}
		if _, err := fx.users.FindByID(user.ID); err != nil {
			t.Fatalf("account should exist: %v", err)
		}
	})
}

func TestAuthServiceLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		fx := newAuthFixture(t)
		_, err := fx.auth.Login(ctx, "nobody@example.com", testPassword)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("success resets counter and stamps last login", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := fx.seedAccount("shopper@example.com", "9000000001")

		if _, err := fx.auth.Login(ctx, "shopper@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}

		sess, err := fx.auth.Login(ctx, "Shopper@Example.com", testPassword)
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		claims, err := fx.jwt.Parse(sess.Token)
		if err != nil {
			t.Fatalf("parse issued token: %v", err)
		}
		if id, _ := claims.UserID(); id != u.ID {
			t.Fatalf("token subject = %d, want %d", id, u.ID)
		}

		stored, _ := fx.users.FindByID(u.ID)
		if stored.LoginAttempts != 0 {
			t.Fatalf("attempts = %d, want 0", stored.LoginAttempts)
		}
		if stored.LastLogin == nil || !stored.LastLogin.Equal(fx.clock) {
			t.Fatalf("last login = %v, want %v", stored.LastLogin, fx.clock)
		}
	})

	t.Run("success resets the failure counter", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := fx.seedAccount("shopper@example.com", "9000000001")

		// Zero prior failures and one-below-the-threshold both land at zero.
		for _, failures := range []int{0, 4} {
			if err := fx.users.UpdateFields(u.ID, map[string]any{"login_attempts": failures}); err != nil {
				t.Fatalf("seed %d failures: %v", failures, err)
			}
			if _, err := fx.auth.Login(ctx, "shopper@example.com", testPassword); err != nil {
				t.Fatalf("login with %d prior failures: %v", failures, err)
			}
			stored, _ := fx.users.FindByID(u.ID)
			if stored.LoginAttempts != 0 {
				t.Fatalf("attempts after login from %d = %d, want 0", failures, stored.LoginAttempts)
			}
			if stored.LockUntil != nil {
				t.Fatalf("lock until = %v, want nil", stored.LockUntil)
			}
		}
	})

	t.Run("five failures lock the account", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := fx.seedAccount("shopper@example.com", "9000000001")

		for i := 0; i < 5; i++ {
			if _, err := fx.auth.Login(ctx, "shopper@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
			}
		}

		// The correct password is still refused while the lock holds.
		if _, err := fx.auth.Login(ctx, "shopper@example.com", testPassword); !errors.Is(err, ErrAccountLocked) {
			t.Fatalf("expected ErrAccountLocked, got %v", err)
		}

		stored, _ := fx.users.FindByID(u.ID)
		if stored.LockUntil == nil || !stored.LockUntil.Equal(fx.clock.Add(2*time.Hour)) {
			t.Fatalf("lock until = %v, want %v", stored.LockUntil, fx.clock.Add(2*time.Hour))
		}
	})

	t.Run("expired lock allows login again", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.seedAccount("shopper@example.com", "9000000001")

		for i := 0; i < 5; i++ {
			fx.auth.Login(ctx, "shopper@example.com", "wrong-pass")
		}
		fx.advance(2*time.Hour + time.Minute)

		if _, err := fx.auth.Login(ctx, "shopper@example.com", testPassword); err != nil {
			t.Fatalf("login after lock expiry: %v", err)
		}
	})

	t.Run("deactivated account", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := fx.seedAccount("gone@example.com", "9000000001")
		if err := fx.users.UpdateFields(u.ID, map[string]any{"is_active": false}); err != nil {
			t.Fatalf("deactivate: %v", err)
		}

		if _, err := fx.auth.Login(ctx, "gone@example.com", testPassword); !errors.Is(err, ErrAccountDeactivated) {
			t.Fatalf("expected ErrAccountDeactivated, got %v", err)
		}
	})
}

func TestAuthServiceEmailVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("verify then welcome email", func(t *testing.T) {
		fx := newAuthFixture(t)
		user, _, err := fx.auth.Register(ctx, RegisterInput{
			Name: "Asha", Email: "asha@example.com", Password: testPassword, Phone: "9876543210",
		})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		raw := lastTokenFrom(t, fx.mailer.verifyURLs)

		if err := fx.auth.VerifyEmail(ctx, raw); err != nil {
			t.Fatalf("verify: %v", err)
		}
		stored, _ := fx.users.FindByID(user.ID)
		if !stored.EmailVerified {
			t.Fatal("account not marked verified")
		}
		if len(fx.mailer.welcomeTos) != 1 || fx.mailer.welcomeTos[0] != "asha@example.com" {
			t.Fatalf("welcome emails = %v", fx.mailer.welcomeTos)
		}

		// Second use of the same link fails.
		if err := fx.auth.VerifyEmail(ctx, raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken on reuse, got %v", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		fx := newAuthFixture(t)
		if _, _, err := fx.auth.Register(ctx, RegisterInput{
			Name: "Asha", Email: "asha@example.com", Password: testPassword, Phone: "9876543210",
		}); err != nil {
			t.Fatalf("register: %v", err)
		}
		raw := lastTokenFrom(t, fx.mailer.verifyURLs)
		fx.advance(25 * time.Hour)

		if err := fx.auth.VerifyEmail(ctx, raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("resend", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := fx.seedAccount("asha@example.com", "9876543210")

		if err := fx.auth.ResendVerification(ctx, u.ID); err != nil {
			t.Fatalf("resend: %v", err)
		}
		if len(fx.mailer.verifyURLs) != 1 {
			t.Fatalf("expected 1 verification email, got %d", len(fx.mailer.verifyURLs))
		}

		if err := fx.users.UpdateFields(u.ID, map[string]any{"email_verified": true}); err != nil {
			t.Fatalf("mark verified: %v", err)
		}
		if err := fx.auth.ResendVerification(ctx, u.ID); !errors.Is(err, ErrEmailAlreadyVerified) {
			t.Fatalf("expected ErrEmailAlreadyVerified, got %v", err)
		}
	})
}

func TestAuthServicePasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		fx := newAuthFixture(t)
		if err := fx.auth.ForgotPassword(ctx, "nobody@example.com"); !errors.Is(err, ErrEmailNotFound) {
			t.Fatalf("expected ErrEmailNotFound, got %v", err)
		}
	})

	t.Run("reset logs the user in and is single use", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := fx.seedAccount("asha@example.com", "9876543210")

		if err := fx.auth.ForgotPassword(ctx, "asha@example.com"); err != nil {
			t.Fatalf("forgot: %v", err)
		}
		raw := lastTokenFrom(t, fx.mailer.resetURLs)
		if !strings.HasPrefix(fx.mailer.resetURLs[0], "http://localhost:5173/reset-password/") {
			t.Fatalf("unexpected link %q", fx.mailer.resetURLs[0])
		}

		sess, err := fx.auth.ResetPassword(ctx, raw, "BrandNewPass7!")
		if err != nil {
			t.Fatalf("reset: %v", err)
		}
		if _, err := fx.jwt.Parse(sess.Token); err != nil {
			t.Fatalf("parse issued token: %v", err)
		}

		stored, _ := fx.users.FindByID(u.ID)
		if !security.VerifyPassword(stored.Password, "BrandNewPass7!") {
			t.Fatal("new password not in effect")
		}
		if security.VerifyPassword(stored.Password, testPassword) {
			t.Fatal("old password still valid")
		}

		if _, err := fx.auth.ResetPassword(ctx, raw, "AnotherPass8!"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken on reuse, got %v", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.seedAccount("asha@example.com", "9876543210")

		if err := fx.auth.ForgotPassword(ctx, "asha@example.com"); err != nil {
			t.Fatalf("forgot: %v", err)
		}
		raw := lastTokenFrom(t, fx.mailer.resetURLs)
		fx.advance(11 * time.Minute)

		if _, err := fx.auth.ResetPassword(ctx, raw, "BrandNewPass7!"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("delivery failure rolls the token back", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.seedAccount("asha@example.com", "9876543210")
		fx.mailer.fail = true

		if err := fx.auth.ForgotPassword(ctx, "asha@example.com"); !errors.Is(err, ErrEmailSendFailed) {
			t.Fatalf("expected ErrEmailSendFailed, got %v", err)
		}

		// The stub saw the link before failing; its token must be dead.
		raw := lastTokenFrom(t, fx.mailer.resetURLs)
		if _, err := fx.auth.ResetPassword(ctx, raw, "BrandNewPass7!"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected rolled-back token to be rejected, got %v", err)
		}
	})
}

func TestAuthServiceUpdatePassword(t *testing.T) {
	ctx := context.Background()
	fx := newAuthFixture(t)
	u := fx.seedAccount("asha@example.com", "9876543210")

	if _, err := fx.auth.UpdatePassword(ctx, u.ID, "not-the-password", "BrandNewPass7!"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}

	sess, err := fx.auth.UpdatePassword(ctx, u.ID, testPassword, "BrandNewPass7!")
	if err != nil {
		t.Fatalf("update password: %v", err)
	}
	if _, err := fx.jwt.Parse(sess.Token); err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	stored, _ := fx.users.FindByID(u.ID)
	if !security.VerifyPassword(stored.Password, "BrandNewPass7!") {
		t.Fatal("new password not in effect")
	}
}

func TestAuthServiceUpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("updates fields", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := fx.seedAccount("asha@example.com", "9876543210")

		updated, err := fx.auth.UpdateProfile(ctx, u.ID, ProfileUpdate{
			Name: "Asha P", Email: "New@Example.com", Address: "12 Market Road",
		})
		if err != nil {
			t.Fatalf("update profile: %v", err)
		}
		if updated.Name != "Asha P" || updated.Email != "new@example.com" || updated.Address != "12 Market Road" {
			t.Fatalf("unexpected profile %+v", updated)
		}
	})

	t.Run("email already taken", func(t *testing.T) {
		fx := newAuthFixture(t)
		fx.seedAccount("taken@example.com", "9000000001")
		u := fx.seedAccount("asha@example.com", "9876543210")

		if _, err := fx.auth.UpdateProfile(ctx, u.ID, ProfileUpdate{Email: "taken@example.com"}); !errors.Is(err, ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}
	})

	t.Run("same email is not a conflict", func(t *testing.T) {
		fx := newAuthFixture(t)
		u := fx.seedAccount("asha@example.com", "9876543210")

		if _, err := fx.auth.UpdateProfile(ctx, u.ID, ProfileUpdate{Email: "ASHA@example.com", Name: "Asha"}); err != nil {
			t.Fatalf("update profile: %v", err)
		}
	})
}

func TestAuthServiceRefreshToken(t *testing.T) {
	fx := newAuthFixture(t)
	u := fx.seedAccount("asha@example.com", "9876543210")

	sess, err := fx.auth.RefreshToken(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := fx.jwt.Parse(sess.Token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if id, _ := claims.UserID(); id != u.ID {
		t.Fatalf("token subject = %d, want %d", id, u.ID)
	}
}
