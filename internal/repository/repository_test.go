package repository

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/harvesthub/harvesthub-api/internal/domain"
)

func newRepositoryDBForTest(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.UserAddress{},
		&domain.CartItem{},
		&domain.Category{},
		&domain.Product{},
		&domain.Review{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, repo UserRepository, email string) *domain.User {
	t.Helper()
	u := &domain.User{
		Name:     "Test User",
		Email:    email,
		Phone:    "9" + fmt.Sprintf("%09d", len(email)),
		Password: "$2a$12$notarealhashnotarealhashnotarealhashnotarealhashxx",
		Role:     domain.RoleUser,
		IsActive: true,
	}
	if err := repo.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}
