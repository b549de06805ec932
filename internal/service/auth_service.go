package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harvesthub/harvesthub-api/internal/config"
	"github.com/harvesthub/harvesthub-api/internal/domain"
	"github.com/harvesthub/harvesthub-api/internal/email"
	"github.com/harvesthub/harvesthub-api/internal/observability"
	"github.com/harvesthub/harvesthub-api/internal/repository"
	"github.com/harvesthub/harvesthub-api/internal/security"
)

var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrAccountLocked        = errors.New("account is temporarily locked")
	ErrAccountDeactivated   = errors.New("account has been deactivated")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrDuplicatePhone       = errors.New("phone already registered")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrEmailAlreadyVerified = errors.New("email is already verified")
	ErrEmailSendFailed      = errors.New("email could not be sent")
	ErrEmailNotFound        = errors.New("no user found with this email")
	ErrWrongPassword        = errors.New("current password is incorrect")
)

type AuthService struct {
	cfg     *config.Config
	users   repository.UserRepository
	jwt     *security.JWTManager
	lockout LockoutPolicy
	mailer  email.Mailer
	logger  *slog.Logger
	now     func() time.Time
}

func NewAuthService(
	cfg *config.Config,
	users repository.UserRepository,
	jwt *security.JWTManager,
	lockout LockoutPolicy,
	mailer email.Mailer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		cfg:     cfg,
		users:   users,
		jwt:     jwt,
		lockout: lockout,
		mailer:  mailer,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AuthSession is a freshly issued token plus the account it belongs to.
type AuthSession struct {
	Token string
	User  *domain.User
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Register creates the account and kicks off email verification. The
// returned bool reports whether the verification email went out; a delivery
// failure does not fail registration.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, bool, error) {
	normalized := strings.TrimSpace(strings.ToLower(in.Email))

	if existing, err := s.users.FindByEmailOrPhone(normalized, in.Phone); err == nil {
		if existing.Email == normalized {
			return nil, false, ErrDuplicateEmail
		}
		return nil, false, ErrDuplicatePhone
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, err
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    normalized,
		Phone:    in.Phone,
		Password: hash,
		Role:     domain.RoleUser,
		IsActive: true,
	}
	if err := s.users.Create(user); err != nil {
		return nil, false, err
	}
	observability.RecordRegistration(ctx, "created")

	sent := s.issueVerification(ctx, user) == nil
	return user, sent, nil
}

// issueVerification stores a fresh verification token and emails the link.
// Only the SHA-256 of the token is persisted.
func (s *AuthService) issueVerification(ctx context.Context, user *domain.User) error {
	raw, err := security.NewOneTimeToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.cfg.EmailVerifyTokenTTL)
	if err := s.users.SetVerificationToken(user.ID, security.HashToken(raw), expiresAt); err != nil {
		return err
	}

	verifyURL := s.cfg.FrontendURL + "/verify-email/" + raw
	if err := s.mailer.SendVerificationEmail(ctx, user.Email, user.Name, verifyURL); err != nil {
		observability.RecordEmailDelivery(ctx, "verification", "failed")
		s.logger.ErrorContext(ctx, "verification email failed", "user_id", user.ID, "error", err)
		return ErrEmailSendFailed
	}
	observability.RecordEmailDelivery(ctx, "verification", "sent")
	return nil
}

// Login authenticates credentials and enforces the lockout policy. Order of
// checks matters: the lock and deactivation gates run before password
// verification so a locked account leaks nothing about the password.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (*AuthSession, error) {
	user, err := s.users.FindByEmail(emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAuthLogin(ctx, "unknown_email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if s.lockout.IsLocked(user, now) {
		observability.RecordAuthLogin(ctx, "locked")
		return nil, ErrAccountLocked
	}
	if !user.IsActive {
		observability.RecordAuthLogin(ctx, "deactivated")
		return nil, ErrAccountDeactivated
	}

	if !security.VerifyPassword(user.Password, password) {
		update := s.lockout.OnFailure(user, now)
		lockUntil := now.Add(s.lockout.LockDuration)
		if err := s.users.RegisterFailedLogin(user.ID, now, s.lockout.MaxAttempts, lockUntil); err != nil {
			s.logger.ErrorContext(ctx, "record failed login", "user_id", user.ID, "error", err)
		}
		if update.LockUntil != nil && update.LockUntil.After(now) {
			observability.RecordLockoutEvent(ctx, "locked")
			s.logger.WarnContext(ctx, "account locked after repeated failures",
				"user_id", user.ID, "attempts", update.Attempts)
		}
		observability.RecordAuthLogin(ctx, "bad_password")
		return nil, ErrInvalidCredentials
	}

	if err := s.users.ResetLoginAttempts(user.ID, now); err != nil {
		return nil, err
	}
	user.LoginAttempts = 0
	user.LockUntil = nil
	user.LastLogin = &now

	observability.RecordAuthLogin(ctx, "success")
	return s.session(user)
}

func (s *AuthService) session(user *domain.User) (*AuthSession, error) {
	token, err := s.jwt.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	return &AuthSession{Token: token, User: user}, nil
}

// VerifyEmail consumes a verification token. The welcome email is best
// effort.
func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) error {
	user, err := s.users.ConsumeVerificationToken(security.HashToken(rawToken), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrTokenConsumed) {
			observability.RecordTokenFlowEvent(ctx, "email_verification", "rejected")
			return ErrInvalidToken
		}
		return err
	}
	observability.RecordTokenFlowEvent(ctx, "email_verification", "consumed")

	if err := s.mailer.SendWelcomeEmail(ctx, user.Email, user.Name, s.cfg.FrontendURL); err != nil {
		observability.RecordEmailDelivery(ctx, "welcome", "failed")
		s.logger.WarnContext(ctx, "welcome email failed", "user_id", user.ID, "error", err)
	} else {
		observability.RecordEmailDelivery(ctx, "welcome", "sent")
	}
	return nil
}

func (s *AuthService) ResendVerification(ctx context.Context, userID uint) error {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return ErrEmailAlreadyVerified
	}
	return s.issueVerification(ctx, user)
}

// ForgotPassword issues a reset token. Unlike registration, a delivery
// failure here rolls the token back so a dead address cannot hold a live
// reset token.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.users.FindByEmail(emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrEmailNotFound
		}
		return err
	}

	raw, err := security.NewOneTimeToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.cfg.PasswordResetTokenTTL)
	if err := s.users.SetResetToken(user.ID, security.HashToken(raw), expiresAt); err != nil {
		return err
	}

	resetURL := s.cfg.FrontendURL + "/reset-password/" + raw
	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, user.Name, resetURL); err != nil {
		observability.RecordEmailDelivery(ctx, "password_reset", "failed")
		s.logger.ErrorContext(ctx, "password reset email failed", "user_id", user.ID, "error", err)
		if clearErr := s.users.ClearResetToken(user.ID); clearErr != nil {
			s.logger.ErrorContext(ctx, "clear reset token", "user_id", user.ID, "error", clearErr)
		}
		return ErrEmailSendFailed
	}
	observability.RecordEmailDelivery(ctx, "password_reset", "sent")
	observability.RecordTokenFlowEvent(ctx, "password_reset", "issued")
	return nil
}

// ResetPassword consumes a reset token, replaces the credential and logs the
// user straight in.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) (*AuthSession, error) {
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.users.ConsumeResetToken(security.HashToken(rawToken), hash, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrTokenConsumed) {
			observability.RecordTokenFlowEvent(ctx, "password_reset", "rejected")
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	observability.RecordTokenFlowEvent(ctx, "password_reset", "consumed")
	user.Password = hash
	return s.session(user)
}

func (s *AuthService) UpdatePassword(ctx context.Context, userID uint, currentPassword, newPassword string) (*AuthSession, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if !security.VerifyPassword(user.Password, currentPassword) {
		return nil, ErrWrongPassword
	}
	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(user.ID, hash); err != nil {
		return nil, err
	}
	user.Password = hash
	return s.session(user)
}

type ProfileUpdate struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*domain.User, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != "" {
		updates["name"] = strings.TrimSpace(in.Name)
	}
	if in.Email != "" {
		normalized := strings.TrimSpace(strings.ToLower(in.Email))
		if normalized != user.Email {
			if _, err := s.users.FindByEmail(normalized); err == nil {
				return nil, ErrDuplicateEmail
			} else if !errors.Is(err, repository.ErrUserNotFound) {
				return nil, err
			}
			updates["email"] = normalized
		}
	}
	if in.Phone != "" {
		updates["phone"] = in.Phone
	}
	if in.Address != "" {
		updates["address"] = in.Address
	}
	if len(updates) > 0 {
		if err := s.users.UpdateFields(user.ID, updates); err != nil {
			return nil, err
		}
	}
	return s.users.FindByID(user.ID)
}

// RefreshToken issues a new session token for an already authenticated user.
func (s *AuthService) RefreshToken(ctx context.Context, userID uint) (*AuthSession, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

// Me loads the profile with addresses, cart and wishlist attached.
func (s *AuthService) Me(ctx context.Context, userID uint) (*domain.User, error) {
	return s.users.FindByIDWithCart(userID)
}
