package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/harvesthub/harvesthub-api/internal/domain"
)

var ErrAddressNotFound = errors.New("address not found")

func (r *GormUserRepository) AddCartItem(userID, productID uint, quantity int, now time.Time) error {
	var existing domain.CartItem
	err := r.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&existing).Error
	if err == nil {
		return r.db.Model(&existing).Update("quantity", existing.Quantity+quantity).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(&domain.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   now,
	}).Error
}

func (r *GormUserRepository) UpdateCartItem(userID, productID uint, quantity int) error {
	res := r.db.Model(&domain.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormUserRepository) RemoveCartItem(userID, productID uint) error {
	return r.db.Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&domain.CartItem{}).Error
}

func (r *GormUserRepository) ClearCart(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&domain.CartItem{}).Error
}

func (r *GormUserRepository) AddAddress(address *domain.UserAddress) error {
	return r.db.Create(address).Error
}

func (r *GormUserRepository) FindAddress(id uint) (*domain.UserAddress, error) {
	var a domain.UserAddress
	if err := r.db.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *GormUserRepository) UpdateAddress(address *domain.UserAddress) error {
	return r.db.Save(address).Error
}

func (r *GormUserRepository) DeleteAddress(id uint) error {
	res := r.db.Delete(&domain.UserAddress{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAddressNotFound
	}
	return nil
}

func (r *GormUserRepository) AddToWishlist(userID, productID uint) error {
	u := domain.User{ID: userID}
	p := domain.Product{ID: productID}
	return r.db.Model(&u).Association("Wishlist").Append(&p)
}

func (r *GormUserRepository) RemoveFromWishlist(userID, productID uint) error {
	u := domain.User{ID: userID}
	p := domain.Product{ID: productID}
	return r.db.Model(&u).Association("Wishlist").Delete(&p)
}
