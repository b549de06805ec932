package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/harvesthub/harvesthub-api/internal/domain"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoryRepository interface {
	Create(category *domain.Category) error
	FindByID(id uint) (*domain.Category, error)
	FindBySlug(slug string) (*domain.Category, error)
	ListActive() ([]domain.Category, error)
	ListAll() ([]domain.Category, error)
	ListFeatured(limit int) ([]domain.Category, error)
	Update(id uint, updates map[string]any) error
	SoftDelete(id uint) error
	Reorder(orders map[uint]int) error
}

type GormCategoryRepository struct{ db *gorm.DB }

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) Create(category *domain.Category) error {
	return r.db.Create(category).Error
}

func (r *GormCategoryRepository) FindByID(id uint) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *GormCategoryRepository) FindBySlug(slug string) (*domain.Category, error) {
	var c domain.Category
	err := r.db.Where("slug = ? AND is_active = ?", slug, true).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *GormCategoryRepository) ListActive() ([]domain.Category, error) {
	var items []domain.Category
	err := r.db.Where("is_active = ?", true).
		Order("display_order asc, name asc").Find(&items).Error
	return items, err
}

func (r *GormCategoryRepository) ListAll() ([]domain.Category, error) {
	var items []domain.Category
	err := r.db.Order("display_order asc, name asc").Find(&items).Error
	return items, err
}

func (r *GormCategoryRepository) ListFeatured(limit int) ([]domain.Category, error) {
	var items []domain.Category
	err := r.db.Where("is_active = ? AND is_featured = ?", true, true).
		Order("display_order asc").Limit(limit).Find(&items).Error
	return items, err
}

func (r *GormCategoryRepository) Update(id uint, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.Model(&domain.Category{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *GormCategoryRepository) SoftDelete(id uint) error {
	return r.Update(id, map[string]any{"is_active": false})
}

// Reorder applies new display positions in one transaction so a partial
// failure never leaves the listing half shuffled.
func (r *GormCategoryRepository) Reorder(orders map[uint]int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for id, pos := range orders {
			res := tx.Model(&domain.Category{}).Where("id = ?", id).
				Update("display_order", pos)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrCategoryNotFound
			}
		}
		return nil
	})
}
