package domain

import "time"

const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleVendor = "vendor"
)

// ValidRole reports membership in the fixed role enumeration.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleVendor:
		return true
	default:
		return false
	}
}

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:50;not null" json:"name"`
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone    string `gorm:"uniqueIndex;size:16;not null" json:"phone"`
	Password string `gorm:"size:255;not null" json:"-"`
	Address  string `gorm:"size:200" json:"address,omitempty"`
	Role     string `gorm:"size:16;not null;default:user" json:"role"`

	EmailVerified          bool       `gorm:"not null;default:false" json:"email_verified"`
	EmailVerificationToken string     `gorm:"size:64;index" json:"-"`
	EmailVerificationExp   *time.Time `json:"-"`

	ResetPasswordToken string     `gorm:"size:64;index" json:"-"`
	ResetPasswordExp   *time.Time `json:"-"`

	LoginAttempts int        `gorm:"not null;default:0" json:"-"`
	LockUntil     *time.Time `json:"-"`

	LastLogin *time.Time `json:"last_login,omitempty"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`

	Addresses []UserAddress `gorm:"constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
	Cart      []CartItem    `gorm:"constraint:OnDelete:CASCADE" json:"cart,omitempty"`
	Wishlist  []Product     `gorm:"many2many:user_wishlist" json:"wishlist,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserAddress struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Type      string    `gorm:"size:16;not null;default:home" json:"type"`
	Street    string    `gorm:"size:200;not null" json:"street"`
	City      string    `gorm:"size:80;not null" json:"city"`
	State     string    `gorm:"size:80;not null" json:"state"`
	Pincode   string    `gorm:"size:6;not null;index" json:"pincode"`
	IsDefault bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	AddedAt   time.Time `gorm:"not null" json:"added_at"`
}

// Owned is implemented by entities that belong to a single account. Handlers
// use it for self-or-admin checks instead of probing field names at runtime.
type Owned interface {
	OwnerID() uint
}

func (a UserAddress) OwnerID() uint { return a.UserID }
func (c CartItem) OwnerID() uint    { return c.UserID }
