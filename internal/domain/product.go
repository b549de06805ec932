package domain

import "time"

type Product struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	Name          string  `gorm:"size:100;not null;index" json:"name"`
	Description   string  `gorm:"size:2000;not null" json:"description"`
	Price         float64 `gorm:"not null" json:"price"`
	OriginalPrice float64 `json:"original_price,omitempty"`
	CategoryID    uint    `gorm:"not null;index" json:"category_id"`
	Category      *Category
	Subcategory   string `gorm:"size:80;not null" json:"subcategory"`
	Brand         string `gorm:"size:80;not null" json:"brand"`
	Unit          string `gorm:"size:32;not null" json:"unit"`
	Stock         int    `gorm:"not null;default:0" json:"stock"`
	ImageURL      string `gorm:"size:1024" json:"image_url,omitempty"`

	Rating     float64 `gorm:"not null;default:0" json:"rating"`
	NumReviews int     `gorm:"not null;default:0" json:"num_reviews"`

	IsFeatured bool `gorm:"not null;default:false;index" json:"is_featured"`
	IsTrending bool `gorm:"not null;default:false;index" json:"is_trending"`
	IsActive   bool `gorm:"not null;default:true;index" json:"is_active"`

	VendorID uint `gorm:"index" json:"vendor_id,omitempty"`

	Reviews []Review `gorm:"constraint:OnDelete:CASCADE" json:"reviews,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_review_product_user" json:"product_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_review_product_user" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"size:1000" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p Product) OwnerID() uint { return p.VendorID }
func (r Review) OwnerID() uint  { return r.UserID }
