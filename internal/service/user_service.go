package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/harvesthub/harvesthub-api/internal/domain"
	"github.com/harvesthub/harvesthub-api/internal/observability"
	"github.com/harvesthub/harvesthub-api/internal/repository"
)

var (
	ErrInvalidRole       = errors.New("invalid role")
	ErrSelfDeactivate    = errors.New("cannot deactivate your own account")
	ErrNotOwner          = errors.New("not authorized to access this resource")
	ErrInvalidQuantity   = errors.New("quantity must be greater than 0")
	ErrCartItemNotFound  = errors.New("item is not in the cart")
	ErrOutOfStock        = errors.New("product is out of stock")
	ErrLastAddress       = errors.New("cannot delete the only address")
	ErrAddressIncomplete = errors.New("street, city, state and pincode are required")
	ErrInvalidPincode    = errors.New("pincode must be a 6-digit number")
)

var pincodePattern = regexp.MustCompile(`^\d{6}$`)

type UserService struct {
	users    repository.UserRepository
	products repository.ProductRepository
	now      func() time.Time
}

func NewUserService(users repository.UserRepository, products repository.ProductRepository) *UserService {
	return &UserService{
		users:    users,
		products: products,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserService) List(ctx context.Context, req repository.PageRequest, filter repository.UserFilter) (repository.PageResult[domain.User], error) {
	return s.users.ListPaged(req, filter)
}

func (s *UserService) Get(ctx context.Context, id uint) (*domain.User, error) {
	return s.users.FindByIDWithCart(id)
}

type AdminUserUpdate struct {
	Role          *string
	IsActive      *bool
	EmailVerified *bool
}

// AdminUpdate changes the fields only operators may touch. An operator
// cannot deactivate their own account.
func (s *UserService) AdminUpdate(ctx context.Context, actorID, targetID uint, in AdminUserUpdate) (*domain.User, error) {
	if _, err := s.users.FindByID(targetID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Role != nil {
		if !domain.ValidRole(*in.Role) {
			return nil, ErrInvalidRole
		}
		updates["role"] = *in.Role
	}
	if in.IsActive != nil {
		if !*in.IsActive && actorID == targetID {
			return nil, ErrSelfDeactivate
		}
		updates["is_active"] = *in.IsActive
	}
	if in.EmailVerified != nil {
		updates["email_verified"] = *in.EmailVerified
	}
	if len(updates) > 0 {
		if err := s.users.UpdateFields(targetID, updates); err != nil {
			return nil, err
		}
	}
	return s.users.FindByID(targetID)
}

// Deactivate is the admin "delete": accounts are never physically removed.
func (s *UserService) Deactivate(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return ErrSelfDeactivate
	}
	if _, err := s.users.FindByID(targetID); err != nil {
		return err
	}
	return s.users.UpdateFields(targetID, map[string]any{"is_active": false})
}

type AddressInput struct {
	Type      string
	Street    string
	City      string
	State     string
	Pincode   string
	IsDefault bool
}

func (in AddressInput) validate() error {
	if strings.TrimSpace(in.Street) == "" || strings.TrimSpace(in.City) == "" ||
		strings.TrimSpace(in.State) == "" || strings.TrimSpace(in.Pincode) == "" {
		return ErrAddressIncomplete
	}
	if !pincodePattern.MatchString(strings.TrimSpace(in.Pincode)) {
		return ErrInvalidPincode
	}
	return nil
}

// AddAddress appends an address. The first address, or one flagged default,
// becomes the default and clears the flag elsewhere.
func (s *UserService) AddAddress(ctx context.Context, userID uint, in AddressInput) (*domain.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	owner, err := s.users.FindByIDWithCart(userID)
	if err != nil {
		return nil, err
	}

	makeDefault := in.IsDefault || len(owner.Addresses) == 0
	if makeDefault {
		if err := s.clearDefaultAddress(owner); err != nil {
			return nil, err
		}
	}

	addr := &domain.UserAddress{
		UserID:    userID,
		Type:      addressType(in.Type),
		Street:    strings.TrimSpace(in.Street),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		Pincode:   strings.TrimSpace(in.Pincode),
		IsDefault: makeDefault,
	}
	if err := s.users.AddAddress(addr); err != nil {
		return nil, err
	}
	return s.users.FindByIDWithCart(userID)
}

func (s *UserService) UpdateAddress(ctx context.Context, actor *domain.User, addressID uint, in AddressInput) (*domain.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	addr, err := s.users.FindAddress(addressID)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, addr) {
		return nil, ErrNotOwner
	}

	if in.IsDefault && !addr.IsDefault {
		owner, err := s.users.FindByIDWithCart(addr.UserID)
		if err != nil {
			return nil, err
		}
		if err := s.clearDefaultAddress(owner); err != nil {
			return nil, err
		}
	}

	addr.Type = addressType(in.Type)
	addr.Street = strings.TrimSpace(in.Street)
	addr.City = strings.TrimSpace(in.City)
	addr.State = strings.TrimSpace(in.State)
	addr.Pincode = strings.TrimSpace(in.Pincode)
	addr.IsDefault = in.IsDefault
	if err := s.users.UpdateAddress(addr); err != nil {
		return nil, err
	}
	return s.users.FindByIDWithCart(addr.UserID)
}

// DeleteAddress refuses to drop the last address and promotes the first
// remaining one when the default goes away.
func (s *UserService) DeleteAddress(ctx context.Context, actor *domain.User, addressID uint) (*domain.User, error) {
	addr, err := s.users.FindAddress(addressID)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, addr) {
		return nil, ErrNotOwner
	}
	owner, err := s.users.FindByIDWithCart(addr.UserID)
	if err != nil {
		return nil, err
	}
	if len(owner.Addresses) == 1 {
		return nil, ErrLastAddress
	}

	if err := s.users.DeleteAddress(addressID); err != nil {
		return nil, err
	}
	if addr.IsDefault {
		for _, remaining := range owner.Addresses {
			if remaining.ID == addressID {
				continue
			}
			promoted := remaining
			promoted.IsDefault = true
			if err := s.users.UpdateAddress(&promoted); err != nil {
				return nil, err
			}
			break
		}
	}
	return s.users.FindByIDWithCart(addr.UserID)
}

func (s *UserService) clearDefaultAddress(owner *domain.User) error {
	for _, a := range owner.Addresses {
		if !a.IsDefault {
			continue
		}
		cleared := a
		cleared.IsDefault = false
		if err := s.users.UpdateAddress(&cleared); err != nil {
			return err
		}
	}
	return nil
}

func addressType(t string) string {
	switch t {
	case "work", "other":
		return t
	default:
		return "home"
	}
}

// AddToCart merges quantities for an item already in the cart.
func (s *UserService) AddToCart(ctx context.Context, userID, productID uint, quantity int) (*domain.User, error) {
	if quantity < 1 {
		observability.RecordCartMutation(ctx, "add", "bad_request")
		return nil, ErrInvalidQuantity
	}
	product, err := s.products.FindActiveByID(productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		observability.RecordCartMutation(ctx, "add", "out_of_stock")
		return nil, ErrOutOfStock
	}
	if err := s.users.AddCartItem(userID, productID, quantity, s.now()); err != nil {
		return nil, err
	}
	observability.RecordCartMutation(ctx, "add", "success")
	return s.users.FindByIDWithCart(userID)
}

func (s *UserService) UpdateCartItem(ctx context.Context, userID, productID uint, quantity int) (*domain.User, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.products.FindActiveByID(productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, ErrOutOfStock
	}
	if err := s.users.UpdateCartItem(userID, productID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	observability.RecordCartMutation(ctx, "update", "success")
	return s.users.FindByIDWithCart(userID)
}

func (s *UserService) RemoveCartItem(ctx context.Context, userID, productID uint) (*domain.User, error) {
	if err := s.users.RemoveCartItem(userID, productID); err != nil {
		return nil, err
	}
	observability.RecordCartMutation(ctx, "remove", "success")
	return s.users.FindByIDWithCart(userID)
}

func (s *UserService) ClearCart(ctx context.Context, userID uint) error {
	if err := s.users.ClearCart(userID); err != nil {
		return err
	}
	observability.RecordCartMutation(ctx, "clear", "success")
	return nil
}

func (s *UserService) AddToWishlist(ctx context.Context, userID, productID uint) (*domain.User, error) {
	if _, err := s.products.FindActiveByID(productID); err != nil {
		return nil, err
	}
	if err := s.users.AddToWishlist(userID, productID); err != nil {
		return nil, err
	}
	return s.users.FindByIDWithCart(userID)
}

func (s *UserService) RemoveFromWishlist(ctx context.Context, userID, productID uint) (*domain.User, error) {
	if err := s.users.RemoveFromWishlist(userID, productID); err != nil {
		return nil, err
	}
	return s.users.FindByIDWithCart(userID)
}
