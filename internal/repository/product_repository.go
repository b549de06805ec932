package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/harvesthub/harvesthub-api/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrReviewNotFound  = errors.New("review not found")
)

type ProductFilter struct {
	CategoryID uint
	Search     string
	MinPrice   float64
	MaxPrice   float64
	Sort       string
}

type ProductStats struct {
	TotalProducts int64   `json:"total_products"`
	OutOfStock    int64   `json:"out_of_stock"`
	Featured      int64   `json:"featured"`
	AveragePrice  float64 `json:"average_price"`
}

type ProductRepository interface {
	Create(product *domain.Product) error
	FindByID(id uint) (*domain.Product, error)
	FindActiveByID(id uint) (*domain.Product, error)
	ListPaged(req PageRequest, filter ProductFilter) (PageResult[domain.Product], error)
	ListFeatured(limit int) ([]domain.Product, error)
	ListTrending(limit int) ([]domain.Product, error)
	ListRelated(categoryID, excludeID uint, limit int) ([]domain.Product, error)
	Update(id uint, updates map[string]any) error
	SoftDelete(id uint) error
	CountByCategory(categoryID uint) (int64, error)
	Stats() (*ProductStats, error)

	CreateReview(review *domain.Review) error
	FindReview(productID, reviewID uint) (*domain.Review, error)
	FindUserReview(productID, userID uint) (*domain.Review, error)
	UpdateReview(review *domain.Review) error
	DeleteReview(productID, reviewID uint) error
	RecalculateRating(productID uint) error
}

type GormProductRepository struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) Create(product *domain.Product) error {
	return r.db.Create(product).Error
}

func (r *GormProductRepository) FindByID(id uint) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.Preload("Reviews").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *GormProductRepository) FindActiveByID(id uint) (*domain.Product, error) {
	var p domain.Product
	err := r.db.Preload("Reviews").Where("is_active = ?", true).First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *GormProductRepository) ListPaged(req PageRequest, filter ProductFilter) (PageResult[domain.Product], error) {
	normalized := req.normalize()
	result := PageResult[domain.Product]{
		Page:     normalized.Page,
		PageSize: normalized.PageSize,
	}

	base := r.db.Model(&domain.Product{}).Where("is_active = ?", true)
	if filter.CategoryID != 0 {
		base = base.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		base = base.Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(subcategory) LIKE ?", like, like, like)
	}
	if filter.MinPrice > 0 {
		base = base.Where("price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice > 0 {
		base = base.Where("price <= ?", filter.MaxPrice)
	}

	if err := base.Count(&result.Total).Error; err != nil {
		return PageResult[domain.Product]{}, err
	}
	err := base.Order(orderClause(filter.Sort)).Offset(normalized.Offset()).Limit(normalized.PageSize).Find(&result.Items).Error
	if err != nil {
		return PageResult[domain.Product]{}, err
	}
	result.finish()
	return result, nil
}

func orderClause(sort string) string {
	switch sort {
	case "price_asc":
		return "price asc"
	case "price_desc":
		return "price desc"
	case "rating":
		return "rating desc"
	case "newest":
		return "created_at desc"
	default:
		return "name asc"
	}
}

func (r *GormProductRepository) ListFeatured(limit int) ([]domain.Product, error) {
	var items []domain.Product
	err := r.db.Where("is_active = ? AND is_featured = ?", true, true).
		Order("rating desc").Limit(limit).Find(&items).Error
	return items, err
}

func (r *GormProductRepository) ListTrending(limit int) ([]domain.Product, error) {
	var items []domain.Product
	err := r.db.Where("is_active = ? AND is_trending = ?", true, true).
		Order("num_reviews desc").Limit(limit).Find(&items).Error
	return items, err
}

func (r *GormProductRepository) ListRelated(categoryID, excludeID uint, limit int) ([]domain.Product, error) {
	var items []domain.Product
	err := r.db.Where("is_active = ? AND category_id = ? AND id <> ?", true, categoryID, excludeID).
		Order("rating desc").Limit(limit).Find(&items).Error
	return items, err
}

func (r *GormProductRepository) Update(id uint, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.Model(&domain.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// SoftDelete flags the product inactive; catalog rows are never removed.
func (r *GormProductRepository) SoftDelete(id uint) error {
	return r.Update(id, map[string]any{"is_active": false})
}

func (r *GormProductRepository) CountByCategory(categoryID uint) (int64, error) {
	var n int64
	err := r.db.Model(&domain.Product{}).
		Where("category_id = ? AND is_active = ?", categoryID, true).Count(&n).Error
	return n, err
}

func (r *GormProductRepository) Stats() (*ProductStats, error) {
	stats := &ProductStats{}
	base := r.db.Model(&domain.Product{}).Where("is_active = ?", true)
	if err := base.Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&domain.Product{}).Where("is_active = ? AND stock = 0", true).Count(&stats.OutOfStock).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&domain.Product{}).Where("is_active = ? AND is_featured = ?", true, true).Count(&stats.Featured).Error; err != nil {
		return nil, err
	}
	row := r.db.Model(&domain.Product{}).Where("is_active = ?", true).Select("COALESCE(AVG(price), 0)").Row()
	if err := row.Scan(&stats.AveragePrice); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *GormProductRepository) CreateReview(review *domain.Review) error {
	return r.db.Create(review).Error
}

func (r *GormProductRepository) FindReview(productID, reviewID uint) (*domain.Review, error) {
	var rev domain.Review
	err := r.db.Where("product_id = ? AND id = ?", productID, reviewID).First(&rev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &rev, nil
}

func (r *GormProductRepository) FindUserReview(productID, userID uint) (*domain.Review, error) {
	var rev domain.Review
	err := r.db.Where("product_id = ? AND user_id = ?", productID, userID).First(&rev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &rev, nil
}

func (r *GormProductRepository) UpdateReview(review *domain.Review) error {
	return r.db.Save(review).Error
}

func (r *GormProductRepository) DeleteReview(productID, reviewID uint) error {
	res := r.db.Where("product_id = ?", productID).Delete(&domain.Review{}, reviewID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// RecalculateRating refreshes the embedded aggregate from review rows in a
// single statement.
func (r *GormProductRepository) RecalculateRating(productID uint) error {
	return r.db.Model(&domain.Product{}).Where("id = ?", productID).Updates(map[string]any{
		"rating":      gorm.Expr("COALESCE((SELECT AVG(rating) FROM reviews WHERE product_id = ?), 0)", productID),
		"num_reviews": gorm.Expr("(SELECT COUNT(*) FROM reviews WHERE product_id = ?)", productID),
	}).Error
}
