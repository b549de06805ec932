package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/harvesthub/harvesthub-api/internal/domain"
	"github.com/harvesthub/harvesthub-api/internal/observability"
	"github.com/harvesthub/harvesthub-api/internal/repository"
)

var (
	ErrCategoryInvalidName   = errors.New("name must be between 2 and 50 characters")
	ErrCategorySlugTaken     = errors.New("category with this name already exists")
	ErrCategoryParentMissing = errors.New("parent category not found")
	ErrCategorySelfParent    = errors.New("category cannot be its own parent")
	ErrCategoryCycle         = errors.New("cannot set a subcategory as parent")
	ErrCategoryHasChildren   = errors.New("cannot delete category that has subcategories")
	ErrCategoryHasProducts   = errors.New("cannot delete category that has products")
)

type CreateCategoryInput struct {
	Name            string
	Description     string
	Image           string
	Icon            string
	ParentID        *uint
	DisplayOrder    int
	IsFeatured      bool
	MetaTitle       string
	MetaDescription string
}

type UpdateCategoryInput struct {
	Name            *string
	Description     *string
	Image           *string
	Icon            *string
	ParentID        *uint
	DisplayOrder    *int
	IsFeatured      *bool
	IsActive        *bool
	MetaTitle       *string
	MetaDescription *string
}

// CategoryDetail adds the live product count to a single category lookup.
type CategoryDetail struct {
	Category     *domain.Category `json:"category"`
	ProductCount int64            `json:"product_count"`
}

type CategoryStats struct {
	Total         int64 `json:"total_categories"`
	Main          int64 `json:"main_categories"`
	Subcategories int64 `json:"subcategories"`
}

type CategoryService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
}

func NewCategoryService(categories repository.CategoryRepository, products repository.ProductRepository) *CategoryService {
	return &CategoryService{categories: categories, products: products}
}

func (s *CategoryService) ListActive(ctx context.Context) ([]domain.Category, error) {
	items, err := s.categories.ListActive()
	if err != nil {
		observability.RecordCatalogRequest(ctx, "categories.list", "error")
		return nil, err
	}
	observability.RecordCatalogRequest(ctx, "categories.list", "success")
	return items, nil
}

// Main returns top-level categories only.
func (s *CategoryService) Main(ctx context.Context) ([]domain.Category, error) {
	items, err := s.categories.ListActive()
	if err != nil {
		return nil, err
	}
	main := items[:0:0]
	for _, c := range items {
		if c.ParentID == nil {
			main = append(main, c)
		}
	}
	return main, nil
}

func (s *CategoryService) Subcategories(ctx context.Context, parentID uint) ([]domain.Category, error) {
	if _, err := s.categories.FindByID(parentID); err != nil {
		return nil, err
	}
	items, err := s.categories.ListActive()
	if err != nil {
		return nil, err
	}
	children := items[:0:0]
	for _, c := range items {
		if c.ParentID != nil && *c.ParentID == parentID {
			children = append(children, c)
		}
	}
	return children, nil
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*CategoryDetail, error) {
	category, err := s.categories.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, repository.ErrCategoryNotFound
	}
	count, err := s.products.CountByCategory(id)
	if err != nil {
		return nil, err
	}
	return &CategoryDetail{Category: category, ProductCount: count}, nil
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*CategoryDetail, error) {
	category, err := s.categories.FindBySlug(slug)
	if err != nil {
		return nil, err
	}
	count, err := s.products.CountByCategory(category.ID)
	if err != nil {
		return nil, err
	}
	return &CategoryDetail{Category: category, ProductCount: count}, nil
}

func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(in.Name)
	if len(name) < 2 || len(name) > 50 {
		return nil, ErrCategoryInvalidName
	}
	slug := Slugify(name)
	if taken, err := s.slugTaken(slug, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrCategorySlugTaken
	}
	if in.ParentID != nil {
		if _, err := s.categories.FindByID(*in.ParentID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, ErrCategoryParentMissing
			}
			return nil, err
		}
	}

	category := &domain.Category{
		Name:            name,
		Description:     strings.TrimSpace(in.Description),
		Slug:            slug,
		Image:           in.Image,
		Icon:            in.Icon,
		ParentID:        in.ParentID,
		DisplayOrder:    in.DisplayOrder,
		IsActive:        true,
		IsFeatured:      in.IsFeatured,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
	}
	if err := s.categories.Create(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id uint, in UpdateCategoryInput) (*domain.Category, error) {
	current, err := s.categories.FindByID(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) < 2 || len(name) > 50 {
			return nil, ErrCategoryInvalidName
		}
		if name != current.Name {
			slug := Slugify(name)
			if taken, err := s.slugTaken(slug, id); err != nil {
				return nil, err
			} else if taken {
				return nil, ErrCategorySlugTaken
			}
			updates["name"] = name
			updates["slug"] = slug
		}
	}
	if in.ParentID != nil {
		if err := s.validateParent(id, *in.ParentID); err != nil {
			return nil, err
		}
		updates["parent_id"] = *in.ParentID
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Image != nil {
		updates["image"] = *in.Image
	}
	if in.Icon != nil {
		updates["icon"] = *in.Icon
	}
	if in.DisplayOrder != nil {
		updates["display_order"] = *in.DisplayOrder
	}
	if in.IsFeatured != nil {
		updates["is_featured"] = *in.IsFeatured
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.MetaTitle != nil {
		updates["meta_title"] = *in.MetaTitle
	}
	if in.MetaDescription != nil {
		updates["meta_description"] = *in.MetaDescription
	}
	if len(updates) > 0 {
		if err := s.categories.Update(id, updates); err != nil {
			return nil, err
		}
	}
	return s.categories.FindByID(id)
}

// validateParent rejects self-parenting and one-level cycles: the new parent
// must not currently be a child of the category being updated.
func (s *CategoryService) validateParent(id, parentID uint) error {
	if parentID == id {
		return ErrCategorySelfParent
	}
	parent, err := s.categories.FindByID(parentID)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryParentMissing
		}
		return err
	}
	if parent.ParentID != nil && *parent.ParentID == id {
		return ErrCategoryCycle
	}
	return nil
}

// Delete soft-deletes. A category still referenced by subcategories or
// active products is kept.
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	if _, err := s.categories.FindByID(id); err != nil {
		return err
	}
	all, err := s.categories.ListAll()
	if err != nil {
		return err
	}
	for _, c := range all {
		if c.ParentID != nil && *c.ParentID == id && c.IsActive {
			return ErrCategoryHasChildren
		}
	}
	count, err := s.products.CountByCategory(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryHasProducts
	}
	return s.categories.SoftDelete(id)
}

// Reorder assigns display positions from the given id order, starting at 1.
func (s *CategoryService) Reorder(ctx context.Context, ids []uint) error {
	orders := make(map[uint]int, len(ids))
	for i, id := range ids {
		orders[id] = i + 1
	}
	return s.categories.Reorder(orders)
}

// Tree assembles the category hierarchy from one query's rows.
func (s *CategoryService) Tree(ctx context.Context) ([]*domain.CategoryNode, error) {
	items, err := s.categories.ListActive()
	if err != nil {
		return nil, err
	}

	nodes := make(map[uint]*domain.CategoryNode, len(items))
	for i := range items {
		nodes[items[i].ID] = &domain.CategoryNode{Category: items[i], Children: []*domain.CategoryNode{}}
	}
	roots := []*domain.CategoryNode{}
	for i := range items {
		node := nodes[items[i].ID]
		if pid := items[i].ParentID; pid != nil {
			if parent, ok := nodes[*pid]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

func (s *CategoryService) Stats(ctx context.Context) (*CategoryStats, error) {
	items, err := s.categories.ListActive()
	if err != nil {
		return nil, err
	}
	stats := &CategoryStats{Total: int64(len(items))}
	for _, c := range items {
		if c.ParentID == nil {
			stats.Main++
		} else {
			stats.Subcategories++
		}
	}
	return stats, nil
}

func (s *CategoryService) slugTaken(slug string, excludeID uint) (bool, error) {
	all, err := s.categories.ListAll()
	if err != nil {
		return false, err
	}
	for _, c := range all {
		if c.Slug == slug && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases, collapses non-alphanumerics to single hyphens and
// trims the ends.
func Slugify(name string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
