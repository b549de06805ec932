package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/harvesthub/harvesthub-api/internal/domain"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrTokenConsumed = errors.New("one-time token not found")
)

type UserFilter struct {
	Role     string
	IsActive *bool
	Search   string
}

type UserRepository interface {
	Create(user *domain.User) error
	FindByID(id uint) (*domain.User, error)
	FindByIDWithCart(id uint) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
	FindByEmailOrPhone(email, phone string) (*domain.User, error)
	ListPaged(req PageRequest, filter UserFilter) (PageResult[domain.User], error)
	UpdateFields(id uint, updates map[string]any) error

	// RegisterFailedLogin applies one failed-attempt transition as a single
	// conditional update: an expired lock restarts the count at 1, otherwise
	// the counter increments and crossing the threshold sets the lock.
	RegisterFailedLogin(id uint, now time.Time, maxAttempts int, lockUntil time.Time) error
	ResetLoginAttempts(id uint, now time.Time) error

	SetVerificationToken(id uint, tokenHash string, expiresAt time.Time) error
	ConsumeVerificationToken(tokenHash string, now time.Time) (*domain.User, error)
	SetResetToken(id uint, tokenHash string, expiresAt time.Time) error
	ClearResetToken(id uint) error
	ConsumeResetToken(tokenHash, newPasswordHash string, now time.Time) (*domain.User, error)
	UpdatePassword(id uint, newHash string) error

	AddCartItem(userID, productID uint, quantity int, now time.Time) error
	UpdateCartItem(userID, productID uint, quantity int) error
	RemoveCartItem(userID, productID uint) error
	ClearCart(userID uint) error

	AddAddress(address *domain.UserAddress) error
	FindAddress(id uint) (*domain.UserAddress, error)
	UpdateAddress(address *domain.UserAddress) error
	DeleteAddress(id uint) error

	AddToWishlist(userID, productID uint) error
	RemoveFromWishlist(userID, productID uint) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(user *domain.User) error {
	return r.db.Create(user).Error
}

func (r *GormUserRepository) FindByID(id uint) (*domain.User, error) {
	var u domain.User
	if err := r.db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByIDWithCart(id uint) (*domain.User, error) {
	var u domain.User
	err := r.db.
		Preload("Addresses").
		Preload("Cart.Product").
		Preload("Wishlist").
		First(&u, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	normalized := strings.TrimSpace(strings.ToLower(email))
	if err := r.db.Where("email = ?", normalized).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindByEmailOrPhone(email, phone string) (*domain.User, error) {
	var u domain.User
	normalized := strings.TrimSpace(strings.ToLower(email))
	err := r.db.Where("email = ? OR phone = ?", normalized, phone).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) ListPaged(req PageRequest, filter UserFilter) (PageResult[domain.User], error) {
	normalized := req.normalize()
	result := PageResult[domain.User]{
		Page:     normalized.Page,
		PageSize: normalized.PageSize,
	}

	base := r.db.Model(&domain.User{})
	if filter.Role != "" {
		base = base.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		base = base.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", like, like, like)
	}

	if err := base.Count(&result.Total).Error; err != nil {
		return PageResult[domain.User]{}, err
	}
	if err := base.Order("created_at desc").Offset(normalized.Offset()).Limit(normalized.PageSize).Find(&result.Items).Error; err != nil {
		return PageResult[domain.User]{}, err
	}
	result.finish()
	return result, nil
}

func (r *GormUserRepository) UpdateFields(id uint, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.Model(&domain.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) RegisterFailedLogin(id uint, now time.Time, maxAttempts int, lockUntil time.Time) error {
	// One statement so that concurrent failures against the same account
	// cannot lose an increment. Column references on the right-hand side
	// read the pre-update row.
	res := r.db.Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"login_attempts": gorm.Expr(
			"CASE WHEN lock_until IS NOT NULL AND lock_until <= ? THEN 1 ELSE login_attempts + 1 END", now),
		"lock_until": gorm.Expr(
			"CASE WHEN lock_until IS NOT NULL AND lock_until <= ? THEN NULL"+
				" WHEN lock_until IS NULL AND login_attempts + 1 >= ? THEN ?"+
				" ELSE lock_until END",
			now, maxAttempts, lockUntil),
		"updated_at": now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) ResetLoginAttempts(id uint, now time.Time) error {
	return r.db.Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"login_attempts": 0,
		"lock_until":     nil,
		"last_login":     now,
		"updated_at":     now,
	}).Error
}

func (r *GormUserRepository) SetVerificationToken(id uint, tokenHash string, expiresAt time.Time) error {
	return r.UpdateFields(id, map[string]any{
		"email_verification_token": tokenHash,
		"email_verification_exp":   expiresAt,
	})
}

func (r *GormUserRepository) ConsumeVerificationToken(tokenHash string, now time.Time) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("email_verification_token = ? AND email_verification_exp > ?", tokenHash, now).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenConsumed
		}
		return nil, err
	}
	// Guarded update makes consumption single-use even under concurrent
	// presentations of the same token.
	res := r.db.Model(&domain.User{}).
		Where("id = ? AND email_verification_token = ?", u.ID, tokenHash).
		Updates(map[string]any{
			"email_verified":           true,
			"email_verification_token": "",
			"email_verification_exp":   nil,
			"updated_at":               now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrTokenConsumed
	}
	u.EmailVerified = true
	u.EmailVerificationToken = ""
	u.EmailVerificationExp = nil
	return &u, nil
}

func (r *GormUserRepository) SetResetToken(id uint, tokenHash string, expiresAt time.Time) error {
	return r.UpdateFields(id, map[string]any{
		"reset_password_token": tokenHash,
		"reset_password_exp":   expiresAt,
	})
}

func (r *GormUserRepository) ClearResetToken(id uint) error {
	return r.UpdateFields(id, map[string]any{
		"reset_password_token": "",
		"reset_password_exp":   nil,
	})
}

func (r *GormUserRepository) ConsumeResetToken(tokenHash, newPasswordHash string, now time.Time) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("reset_password_token = ? AND reset_password_exp > ?", tokenHash, now).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenConsumed
		}
		return nil, err
	}
	res := r.db.Model(&domain.User{}).
		Where("id = ? AND reset_password_token = ?", u.ID, tokenHash).
		Updates(map[string]any{
			"password":             newPasswordHash,
			"reset_password_token": "",
			"reset_password_exp":   nil,
			"updated_at":           now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrTokenConsumed
	}
	u.Password = newPasswordHash
	u.ResetPasswordToken = ""
	u.ResetPasswordExp = nil
	return &u, nil
}

func (r *GormUserRepository) UpdatePassword(id uint, newHash string) error {
	return r.UpdateFields(id, map[string]any{"password": newHash})
}
