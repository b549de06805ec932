package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harvesthub/harvesthub-api/internal/http/middleware"
	"github.com/harvesthub/harvesthub-api/internal/http/response"
	"github.com/harvesthub/harvesthub-api/internal/observability"
	"github.com/harvesthub/harvesthub-api/internal/repository"
	"github.com/harvesthub/harvesthub-api/internal/security"
	"github.com/harvesthub/harvesthub-api/internal/service"
)

type AuthHandler struct {
	auth    *service.AuthService
	cookies *security.CookieManager
}

func NewAuthHandler(auth *service.AuthService, cookies *security.CookieManager) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies}
}

// phonePattern matches Indian mobile numbers: ten digits starting 6-9.
var phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

const passwordSpecials = "@$!%*?&"

func validEmail(addr string) bool {
	_, err := mail.ParseAddress(strings.TrimSpace(addr))
	return err == nil
}

// passwordIssues validates new passwords: 8-128 characters with at least one
// uppercase letter, one lowercase letter, one digit and one special character.
func passwordIssues(pw string) []string {
	var errs []string
	if len(pw) < 8 || len(pw) > 128 {
		errs = append(errs, "Password must be between 8 and 128 characters")
	}
	var upper, lower, digit, special bool
	for _, c := range pw {
		switch {
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, c):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		errs = append(errs, "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character")
	}
	return errs
}

type sessionData struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

// writeSession sets the session cookie and returns the token alongside the
// public account fields.
func (h *AuthHandler) writeSession(w http.ResponseWriter, r *http.Request, status int, sess *service.AuthSession) {
	h.cookies.SetSessionCookie(w, sess.Token)
	msg := "Operation successful"
	if status == http.StatusOK {
		msg = "Login successful"
	}
	response.MessageData(w, r, status, msg, sessionData{
		Token: sess.Token,
		User:  newUserPayload(sess.User),
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
	}
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	var fieldErrs []string
	if n := len(strings.TrimSpace(body.Name)); n < 2 || n > 50 {
		fieldErrs = append(fieldErrs, "Name must be between 2 and 50 characters")
	}
	if !validEmail(body.Email) {
		fieldErrs = append(fieldErrs, "Please provide a valid email")
	}
	fieldErrs = append(fieldErrs, passwordIssues(body.Password)...)
	if !phonePattern.MatchString(body.Phone) {
		fieldErrs = append(fieldErrs, "Please provide a valid Indian mobile number")
	}
	if len(fieldErrs) > 0 {
		response.ValidationError(w, r, fieldErrs)
		return
	}

	user, sent, err := h.auth.Register(r.Context(), service.RegisterInput{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
		Phone:    body.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEmail):
			response.Error(w, r, http.StatusBadRequest, "User with this email already exists")
		case errors.Is(err, service.ErrDuplicatePhone):
			response.Error(w, r, http.StatusBadRequest, "User with this phone already exists")
		default:
			response.Error(w, r, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	observability.Audit(r, "auth.register", "email", strings.ToLower(strings.TrimSpace(body.Email)))
	msg := "User registered successfully. Please check your email to verify your account."
	if !sent {
		msg = "User registered successfully. Verification email could not be sent."
	}
	response.MessageData(w, r, http.StatusCreated, msg, map[string]any{"user": newUserPayload(user)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !validEmail(body.Email) || body.Password == "" {
		response.ValidationError(w, r, []string{"Please provide a valid email and password"})
		return
	}

	sess, err := h.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		status := "failure"
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(w, r, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, service.ErrAccountLocked):
			status = "locked"
			response.Error(w, r, http.StatusLocked, "Account is temporarily locked due to too many failed login attempts. Please try again later.")
		case errors.Is(err, service.ErrAccountDeactivated):
			status = "deactivated"
			response.Error(w, r, http.StatusForbidden, "Account has been deactivated. Please contact support.")
		default:
			status = "error"
			response.Error(w, r, http.StatusInternalServerError, "Login failed")
		}
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
		return
	}

	observability.Audit(r, "auth.login", "user_id", sess.User.ID)
	observability.RecordAuthRequestDuration(r.Context(), "login", "success", time.Since(start))
	h.writeSession(w, r, http.StatusOK, sess)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearSessionCookie(w)
	response.Message(w, r, http.StatusOK, "User logged out successfully")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	full, err := h.auth.Me(r.Context(), user.ID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "Could not load profile")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"user": full})
}

func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	sess, err := h.auth.RefreshToken(r.Context(), user.ID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "Could not refresh token")
		return
	}
	h.writeSession(w, r, http.StatusOK, sess)
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if err := h.auth.VerifyEmail(r.Context(), token); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			response.Error(w, r, http.StatusBadRequest, "Invalid or expired verification token")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Email verification failed")
		return
	}
	response.Message(w, r, http.StatusOK, "Email verified successfully")
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	if err := h.auth.ResendVerification(r.Context(), user.ID); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailAlreadyVerified):
			response.Error(w, r, http.StatusBadRequest, "Email is already verified")
		case errors.Is(err, service.ErrEmailSendFailed):
			response.Error(w, r, http.StatusInternalServerError, "Email could not be sent. Please try again.")
		default:
			response.Error(w, r, http.StatusInternalServerError, "Could not resend verification email")
		}
		return
	}
	response.Message(w, r, http.StatusOK, "Verification email sent")
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil || !validEmail(body.Email) {
		response.ValidationError(w, r, []string{"Please provide a valid email"})
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), body.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailNotFound):
			response.Error(w, r, http.StatusNotFound, "No user found with this email")
		case errors.Is(err, service.ErrEmailSendFailed):
			response.Error(w, r, http.StatusInternalServerError, "Email could not be sent. Please try again.")
		default:
			response.Error(w, r, http.StatusInternalServerError, "Could not start password reset")
		}
		return
	}
	response.Message(w, r, http.StatusOK, "Password reset email sent")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "resetToken")
	var body struct {
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := passwordIssues(body.Password); len(errs) > 0 {
		response.ValidationError(w, r, errs)
		return
	}

	sess, err := h.auth.ResetPassword(r.Context(), token, body.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			response.Error(w, r, http.StatusBadRequest, "Invalid or expired reset token")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Password reset failed")
		return
	}
	observability.Audit(r, "auth.password_reset", "user_id", sess.User.ID)
	h.writeSession(w, r, http.StatusOK, sess)
}

func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := passwordIssues(body.NewPassword); len(errs) > 0 {
		response.ValidationError(w, r, errs)
		return
	}

	sess, err := h.auth.UpdatePassword(r.Context(), user.ID, body.CurrentPassword, body.NewPassword)
	if err != nil {
		if errors.Is(err, service.ErrWrongPassword) {
			response.Error(w, r, http.StatusUnauthorized, "Current password is incorrect")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "Password update failed")
		return
	}
	h.writeSession(w, r, http.StatusOK, sess)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "Not authorized to access this route")
		return
	}
	var body struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Email != "" && !validEmail(body.Email) {
		response.ValidationError(w, r, []string{"Please provide a valid email"})
		return
	}
	if body.Phone != "" && !phonePattern.MatchString(body.Phone) {
		response.ValidationError(w, r, []string{"Please provide a valid Indian mobile number"})
		return
	}

	updated, err := h.auth.UpdateProfile(r.Context(), user.ID, service.ProfileUpdate{
		Name:    body.Name,
		Email:   body.Email,
		Phone:   body.Phone,
		Address: body.Address,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			response.Error(w, r, http.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrDuplicateEmail):
			response.Error(w, r, http.StatusBadRequest, "Email already exists")
		default:
			response.Error(w, r, http.StatusInternalServerError, "Profile update failed")
		}
		return
	}
	response.MessageData(w, r, http.StatusOK, "Profile updated successfully", map[string]any{"user": updated})
}
