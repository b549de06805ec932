package database

import (
	"fmt"
	"strings"

	"github.com/harvesthub/harvesthub-api/internal/domain"
	"github.com/harvesthub/harvesthub-api/internal/security"
	"github.com/harvesthub/harvesthub-api/internal/service"

	"gorm.io/gorm"
)

type SeedReport struct {
	CreatedCategories int  `json:"created_categories"`
	CreatedProducts   int  `json:"created_products"`
	CreatedAdmin      bool `json:"created_admin"`
}

type seedCategory struct {
	name        string
	description string
	icon        string
	products    []seedProduct
}

type seedProduct struct {
	name  string
	price float64
	unit  string
	brand string
}

var starterCatalog = []seedCategory{
	{
		name: "Fresh Fruits", description: "Seasonal fruit picked daily", icon: "apple",
		products: []seedProduct{
			{name: "Alphonso Mango", price: 450, unit: "per kg", brand: "Ratnagiri Farms"},
			{name: "Robusta Banana", price: 40, unit: "per dozen", brand: "HarvestHub"},
			{name: "Kashmiri Apple", price: 180, unit: "per kg", brand: "Valley Orchards"},
		},
	},
	{
		name: "Fresh Vegetables", description: "Farm vegetables, harvested this week", icon: "carrot",
		products: []seedProduct{
			{name: "Desi Tomato", price: 32, unit: "per kg", brand: "HarvestHub"},
			{name: "Baby Spinach", price: 45, unit: "per 250g", brand: "Greenleaf"},
			{name: "Red Onion", price: 28, unit: "per kg", brand: "HarvestHub"},
		},
	},
	{
		name: "Dairy & Eggs", description: "Milk, paneer and farm eggs", icon: "milk",
		products: []seedProduct{
			{name: "Malai Paneer", price: 95, unit: "per 200g", brand: "Nandan"},
			{name: "Free Range Eggs", price: 120, unit: "per dozen", brand: "Happy Hen"},
			{name: "Toned Milk", price: 28, unit: "per 500ml", brand: "Nandan"},
		},
	},
	{
		name: "Staples & Grains", description: "Rice, atta, dals and pulses", icon: "wheat",
		products: []seedProduct{
			{name: "Sona Masoori Rice", price: 68, unit: "per kg", brand: "Annapurna"},
			{name: "Whole Wheat Atta", price: 52, unit: "per kg", brand: "Annapurna"},
			{name: "Toor Dal", price: 140, unit: "per kg", brand: "Annapurna"},
		},
	},
}

// Seed loads the starter catalog and, when an email and password are given,
// a bootstrap admin. Safe to run repeatedly: existing rows are left alone.
func Seed(db *gorm.DB, adminEmail, adminPassword string) (*SeedReport, error) {
	report := &SeedReport{}

	for i, sc := range starterCatalog {
		category := domain.Category{
			Name:         sc.name,
			Slug:         service.Slugify(sc.name),
			Description:  sc.description,
			Icon:         sc.icon,
			DisplayOrder: i + 1,
			IsActive:     true,
		}
		res := db.Where("slug = ?", category.Slug).FirstOrCreate(&category)
		if res.Error != nil {
			return nil, fmt.Errorf("seed category %q: %w", sc.name, res.Error)
		}
		if res.RowsAffected > 0 {
			report.CreatedCategories++
		}

		for _, sp := range sc.products {
			product := domain.Product{
				Name:        sp.name,
				Description: fmt.Sprintf("%s from %s.", sp.name, sp.brand),
				Price:       sp.price,
				CategoryID:  category.ID,
				Brand:       sp.brand,
				Unit:        sp.unit,
				Stock:       100,
				IsActive:    true,
			}
			res := db.Where("name = ? AND category_id = ?", sp.name, category.ID).FirstOrCreate(&product)
			if res.Error != nil {
				return nil, fmt.Errorf("seed product %q: %w", sp.name, res.Error)
			}
			if res.RowsAffected > 0 {
				report.CreatedProducts++
			}
		}
	}

	email := strings.ToLower(strings.TrimSpace(adminEmail))
	if email != "" && adminPassword != "" {
		hash, err := security.HashPassword(adminPassword)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		admin := domain.User{
			Name:          "HarvestHub Admin",
			Email:         email,
			Phone:         "0000000000",
			Password:      hash,
			Role:          domain.RoleAdmin,
			EmailVerified: true,
			IsActive:      true,
		}
		res := db.Where("email = ?", email).FirstOrCreate(&admin)
		if res.Error != nil {
			return nil, fmt.Errorf("seed admin: %w", res.Error)
		}
		report.CreatedAdmin = res.RowsAffected > 0
	}

	return report, nil
}
