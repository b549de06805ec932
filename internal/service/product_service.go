package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/harvesthub/harvesthub-api/internal/domain"
	"github.com/harvesthub/harvesthub-api/internal/observability"
	"github.com/harvesthub/harvesthub-api/internal/repository"
)

var (
	ErrProductInvalidName  = errors.New("name must be between 2 and 100 characters")
	ErrProductInvalidPrice = errors.New("price must be greater than 0")
	ErrProductInvalidStock = errors.New("stock cannot be negative")
	ErrProductNoUpdates    = errors.New("no updates provided")

	ErrReviewInvalidRating = errors.New("rating must be between 1 and 5")
	ErrReviewExists        = errors.New("you have already reviewed this product")
	ErrReviewForbidden     = errors.New("not authorized to modify this review")
)

const (
	featuredProductLimit = 8
	relatedProductLimit  = 4
)

type CreateProductInput struct {
	Name          string
	Description   string
	Price         float64
	OriginalPrice float64
	CategoryID    uint
	Subcategory   string
	Brand         string
	Unit          string
	Stock         int
	ImageURL      string
	IsFeatured    bool
	IsTrending    bool
}

type UpdateProductInput struct {
	Name          *string
	Description   *string
	Price         *float64
	OriginalPrice *float64
	CategoryID    *uint
	Subcategory   *string
	Brand         *string
	Unit          *string
	Stock         *int
	ImageURL      *string
	IsFeatured    *bool
	IsTrending    *bool
}

// ProductDetail pairs a product with same-category suggestions for the
// detail page.
type ProductDetail struct {
	Product *domain.Product  `json:"product"`
	Related []domain.Product `json:"related_products"`
}

type ProductService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

func NewProductService(products repository.ProductRepository, categories repository.CategoryRepository) *ProductService {
	return &ProductService{products: products, categories: categories}
}

func (s *ProductService) List(ctx context.Context, req repository.PageRequest, filter repository.ProductFilter) (repository.PageResult[domain.Product], error) {
	start := time.Now()
	defer func() { observability.RecordCatalogRequestDuration(ctx, "products.list", time.Since(start)) }()

	res, err := s.products.ListPaged(req, filter)
	if err != nil {
		observability.RecordCatalogRequest(ctx, "products.list", "error")
		return repository.PageResult[domain.Product]{}, err
	}
	observability.RecordCatalogRequest(ctx, "products.list", "success")
	return res, nil
}

func (s *ProductService) Featured(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListFeatured(featuredProductLimit)
}

func (s *ProductService) Trending(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListTrending(featuredProductLimit)
}

// Get returns an active product with its reviews and a handful of related
// items from the same category.
func (s *ProductService) Get(ctx context.Context, id uint) (*ProductDetail, error) {
	product, err := s.products.FindActiveByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			observability.RecordCatalogRequest(ctx, "products.get", "not_found")
		}
		return nil, err
	}
	related, err := s.products.ListRelated(product.CategoryID, product.ID, relatedProductLimit)
	if err != nil {
		return nil, err
	}
	observability.RecordCatalogRequest(ctx, "products.get", "success")
	return &ProductDetail{Product: product, Related: related}, nil
}

func (s *ProductService) Create(ctx context.Context, vendorID uint, in CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if len(name) < 2 || len(name) > 100 {
		return nil, ErrProductInvalidName
	}
	if in.Price <= 0 {
		return nil, ErrProductInvalidPrice
	}
	if in.Stock < 0 {
		return nil, ErrProductInvalidStock
	}
	if _, err := s.categories.FindByID(in.CategoryID); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		CategoryID:    in.CategoryID,
		Subcategory:   strings.TrimSpace(in.Subcategory),
		Brand:         strings.TrimSpace(in.Brand),
		Unit:          strings.TrimSpace(in.Unit),
		Stock:         in.Stock,
		ImageURL:      in.ImageURL,
		IsFeatured:    in.IsFeatured,
		IsTrending:    in.IsTrending,
		IsActive:      true,
		VendorID:      vendorID,
	}
	if err := s.products.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id uint, in UpdateProductInput) (*domain.Product, error) {
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) < 2 || len(name) > 100 {
			return nil, ErrProductInvalidName
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		if *in.Price <= 0 {
			return nil, ErrProductInvalidPrice
		}
		updates["price"] = *in.Price
	}
	if in.OriginalPrice != nil {
		updates["original_price"] = *in.OriginalPrice
	}
	if in.CategoryID != nil {
		if _, err := s.categories.FindByID(*in.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *in.CategoryID
	}
	if in.Subcategory != nil {
		updates["subcategory"] = strings.TrimSpace(*in.Subcategory)
	}
	if in.Brand != nil {
		updates["brand"] = strings.TrimSpace(*in.Brand)
	}
	if in.Unit != nil {
		updates["unit"] = strings.TrimSpace(*in.Unit)
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, ErrProductInvalidStock
		}
		updates["stock"] = *in.Stock
	}
	if in.ImageURL != nil {
		updates["image_url"] = *in.ImageURL
	}
	if in.IsFeatured != nil {
		updates["is_featured"] = *in.IsFeatured
	}
	if in.IsTrending != nil {
		updates["is_trending"] = *in.IsTrending
	}
	if len(updates) == 0 {
		return nil, ErrProductNoUpdates
	}

	if err := s.products.Update(id, updates); err != nil {
		return nil, err
	}
	return s.products.FindByID(id)
}

func (s *ProductService) Delete(ctx context.Context, id uint) error {
	return s.products.SoftDelete(id)
}

func (s *ProductService) Stats(ctx context.Context) (*repository.ProductStats, error) {
	return s.products.Stats()
}

type ReviewInput struct {
	Rating  int
	Comment string
}

// AddReview stores one review per user per product and refreshes the
// embedded rating aggregate.
func (s *ProductService) AddReview(ctx context.Context, user *domain.User, productID uint, in ReviewInput) (*domain.Product, error) {
	if in.Rating < 1 || in.Rating > 5 {
		observability.RecordReviewMutation(ctx, "create", "bad_request")
		return nil, ErrReviewInvalidRating
	}
	if _, err := s.products.FindActiveByID(productID); err != nil {
		return nil, err
	}
	if _, err := s.products.FindUserReview(productID, user.ID); err == nil {
		observability.RecordReviewMutation(ctx, "create", "duplicate")
		return nil, ErrReviewExists
	} else if !errors.Is(err, repository.ErrReviewNotFound) {
		return nil, err
	}

	review := &domain.Review{
		ProductID: productID,
		UserID:    user.ID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	if err := s.products.CreateReview(review); err != nil {
		return nil, err
	}
	if err := s.products.RecalculateRating(productID); err != nil {
		return nil, err
	}
	observability.RecordReviewMutation(ctx, "create", "success")
	return s.products.FindByID(productID)
}

func (s *ProductService) UpdateReview(ctx context.Context, actor *domain.User, productID, reviewID uint, in ReviewInput) (*domain.Product, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrReviewInvalidRating
	}
	review, err := s.products.FindReview(productID, reviewID)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, review) {
		observability.RecordReviewMutation(ctx, "update", "forbidden")
		return nil, ErrReviewForbidden
	}

	review.Rating = in.Rating
	review.Comment = strings.TrimSpace(in.Comment)
	if err := s.products.UpdateReview(review); err != nil {
		return nil, err
	}
	if err := s.products.RecalculateRating(productID); err != nil {
		return nil, err
	}
	observability.RecordReviewMutation(ctx, "update", "success")
	return s.products.FindByID(productID)
}

func (s *ProductService) DeleteReview(ctx context.Context, actor *domain.User, productID, reviewID uint) error {
	review, err := s.products.FindReview(productID, reviewID)
	if err != nil {
		return err
	}
	if !canModify(actor, review) {
		observability.RecordReviewMutation(ctx, "delete", "forbidden")
		return ErrReviewForbidden
	}
	if err := s.products.DeleteReview(productID, reviewID); err != nil {
		return err
	}
	observability.RecordReviewMutation(ctx, "delete", "success")
	return s.products.RecalculateRating(productID)
}

// canModify grants owners and admins write access to an owned entity.
func canModify(actor *domain.User, entity domain.Owned) bool {
	return actor.Role == domain.RoleAdmin || entity.OwnerID() == actor.ID
}
