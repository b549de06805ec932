package domain

import "time"

type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:50;not null" json:"name"`
	Description string `gorm:"size:500" json:"description,omitempty"`
	Slug        string `gorm:"uniqueIndex;size:80;not null" json:"slug"`
	Image       string `gorm:"size:1024" json:"image,omitempty"`
	Icon        string `gorm:"size:64" json:"icon,omitempty"`

	ParentID *uint     `gorm:"index" json:"parent_id,omitempty"`
	Parent   *Category `json:"parent,omitempty"`

	DisplayOrder int  `gorm:"not null;default:0" json:"display_order"`
	IsActive     bool `gorm:"not null;default:true;index" json:"is_active"`
	IsFeatured   bool `gorm:"not null;default:false" json:"is_featured"`

	MetaTitle       string `gorm:"size:60" json:"meta_title,omitempty"`
	MetaDescription string `gorm:"size:160" json:"meta_description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryNode is a category plus its resolved children, produced by the
// in-memory tree build over a single query's rows.
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}
