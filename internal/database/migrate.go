package database

import (
	"github.com/harvesthub/harvesthub-api/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.UserAddress{},
		&domain.CartItem{},
		&domain.Category{},
		&domain.Product{},
		&domain.Review{},
	)
}
