package repository

import (
	"errors"
	"testing"

	"github.com/harvesthub/harvesthub-api/internal/domain"
)

func TestCategoryLookupAndOrdering(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewCategoryRepository(db)

	veg := &domain.Category{Name: "Vegetables", Slug: "vegetables", DisplayOrder: 2, IsActive: true}
	fruits := &domain.Category{Name: "Fruits", Slug: "fruits", DisplayOrder: 1, IsActive: true, IsFeatured: true}
	hidden := &domain.Category{Name: "Seasonal", Slug: "seasonal", DisplayOrder: 3, IsActive: false}
	for _, c := range []*domain.Category{veg, fruits, hidden} {
		if err := repo.Create(c); err != nil {
			t.Fatalf("create %s: %v", c.Slug, err)
		}
	}

	bySlug, err := repo.FindBySlug("fruits")
	if err != nil {
		t.Fatalf("find by slug: %v", err)
	}
	if bySlug.ID != fruits.ID {
		t.Fatalf("slug lookup mismatch: got %d want %d", bySlug.ID, fruits.ID)
	}
	if _, err := repo.FindBySlug("seasonal"); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("inactive slug should miss, got %v", err)
	}

	active, err := repo.ListActive()
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 || active[0].Slug != "fruits" || active[1].Slug != "vegetables" {
		t.Fatalf("unexpected active order: %+v", active)
	}

	all, err := repo.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("list all: got %d want 3", len(all))
	}

	featured, err := repo.ListFeatured(5)
	if err != nil {
		t.Fatalf("list featured: %v", err)
	}
	if len(featured) != 1 || featured[0].Slug != "fruits" {
		t.Fatalf("unexpected featured: %+v", featured)
	}
}

func TestCategoryReorderIsAtomic(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewCategoryRepository(db)

	a := &domain.Category{Name: "A", Slug: "a", DisplayOrder: 1, IsActive: true}
	b := &domain.Category{Name: "B", Slug: "b", DisplayOrder: 2, IsActive: true}
	for _, c := range []*domain.Category{a, b} {
		if err := repo.Create(c); err != nil {
			t.Fatalf("create %s: %v", c.Slug, err)
		}
	}

	if err := repo.Reorder(map[uint]int{a.ID: 2, b.ID: 1}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	active, _ := repo.ListActive()
	if active[0].Slug != "b" || active[1].Slug != "a" {
		t.Fatalf("order not applied: %+v", active)
	}

	// An unknown id rolls the whole batch back.
	if err := repo.Reorder(map[uint]int{a.ID: 5, 9999: 1}); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
	reloaded, err := repo.FindByID(a.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.DisplayOrder == 5 {
		t.Fatal("partial reorder leaked through rollback")
	}
}

func TestCategorySoftDelete(t *testing.T) {
	db := newRepositoryDBForTest(t)
	repo := NewCategoryRepository(db)

	c := &domain.Category{Name: "Bakery", Slug: "bakery", IsActive: true}
	if err := repo.Create(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SoftDelete(c.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := repo.FindBySlug("bakery"); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("inactive category visible, got %v", err)
	}
	if _, err := repo.FindByID(c.ID); err != nil {
		t.Fatalf("admin lookup: %v", err)
	}
	if err := repo.Update(9999, map[string]any{"name": "x"}); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}
