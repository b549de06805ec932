package repository

import (
	"errors"
	"math"
	"testing"

	"github.com/harvesthub/harvesthub-api/internal/domain"
)

func seedCatalog(t *testing.T, products ProductRepository, categories CategoryRepository) (fruits, dairy *domain.Category) {
	t.Helper()

	fruits = &domain.Category{Name: "Fruits", Slug: "fruits", DisplayOrder: 1, IsActive: true}
	dairy = &domain.Category{Name: "Dairy", Slug: "dairy", DisplayOrder: 2, IsActive: true}
	for _, c := range []*domain.Category{fruits, dairy} {
		if err := categories.Create(c); err != nil {
			t.Fatalf("create category %s: %v", c.Slug, err)
		}
	}

	items := []*domain.Product{
		{Name: "Banana", Brand: "FreshFarm", Price: 40, CategoryID: fruits.ID, Unit: "dozen", Stock: 100, IsActive: true, IsFeatured: true, Rating: 4.5},
		{Name: "Apple", Brand: "Orchard", Price: 180, CategoryID: fruits.ID, Unit: "kg", Stock: 50, IsActive: true, IsTrending: true, NumReviews: 12},
		{Name: "Milk", Brand: "DailyDairy", Price: 60, CategoryID: dairy.ID, Unit: "litre", Stock: 0, IsActive: true},
		{Name: "Old Cheese", Brand: "DailyDairy", Price: 400, CategoryID: dairy.ID, Unit: "pack", Stock: 5, IsActive: false},
	}
	for _, p := range items {
		if err := products.Create(p); err != nil {
			t.Fatalf("create product %s: %v", p.Name, err)
		}
	}
	return fruits, dairy
}

func TestProductListPagedFilters(t *testing.T) {
	db := newRepositoryDBForTest(t)
	products := NewProductRepository(db)
	categories := NewCategoryRepository(db)
	fruits, _ := seedCatalog(t, products, categories)

	t.Run("excludes inactive", func(t *testing.T) {
		page, err := products.ListPaged(PageRequest{}, ProductFilter{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if page.Total != 3 {
			t.Fatalf("total: got %d want 3", page.Total)
		}
		for _, p := range page.Items {
			if !p.IsActive {
				t.Fatalf("inactive product leaked: %s", p.Name)
			}
		}
	})

	t.Run("category filter", func(t *testing.T) {
		page, err := products.ListPaged(PageRequest{}, ProductFilter{CategoryID: fruits.ID})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if page.Total != 2 {
			t.Fatalf("fruits total: got %d want 2", page.Total)
		}
	})

	t.Run("search matches brand", func(t *testing.T) {
		page, err := products.ListPaged(PageRequest{}, ProductFilter{Search: "dailydairy"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if page.Total != 1 || page.Items[0].Name != "Milk" {
			t.Fatalf("unexpected search result: %+v", page.Items)
		}
	})

	t.Run("price range", func(t *testing.T) {
		page, err := products.ListPaged(PageRequest{}, ProductFilter{MinPrice: 50, MaxPrice: 200})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if page.Total != 2 {
			t.Fatalf("price range total: got %d want 2", page.Total)
		}
	})

	t.Run("price sort", func(t *testing.T) {
		page, err := products.ListPaged(PageRequest{}, ProductFilter{Sort: "price_desc"})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		prev := math.Inf(1)
		for _, p := range page.Items {
			if p.Price > prev {
				t.Fatalf("prices not descending: %+v", page.Items)
			}
			prev = p.Price
		}
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := products.ListPaged(PageRequest{Page: 2, PageSize: 2}, ProductFilter{})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if page.TotalPages != 2 || len(page.Items) != 1 {
			t.Fatalf("unexpected second page: %+v", page)
		}
	})
}

func TestProductFeaturedAndTrending(t *testing.T) {
	db := newRepositoryDBForTest(t)
	products := NewProductRepository(db)
	categories := NewCategoryRepository(db)
	seedCatalog(t, products, categories)

	featured, err := products.ListFeatured(10)
	if err != nil {
		t.Fatalf("featured: %v", err)
	}
	if len(featured) != 1 || featured[0].Name != "Banana" {
		t.Fatalf("unexpected featured: %+v", featured)
	}

	trending, err := products.ListTrending(10)
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if len(trending) != 1 || trending[0].Name != "Apple" {
		t.Fatalf("unexpected trending: %+v", trending)
	}
}

func TestProductSoftDeleteHidesFromCatalog(t *testing.T) {
	db := newRepositoryDBForTest(t)
	products := NewProductRepository(db)
	categories := NewCategoryRepository(db)
	seedCatalog(t, products, categories)

	page, _ := products.ListPaged(PageRequest{}, ProductFilter{Search: "banana"})
	if page.Total != 1 {
		t.Fatalf("seed lookup failed: %+v", page)
	}
	id := page.Items[0].ID

	if err := products.SoftDelete(id); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := products.FindActiveByID(id); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("active lookup should miss, got %v", err)
	}
	// Admin lookup still sees the row.
	if _, err := products.FindByID(id); err != nil {
		t.Fatalf("admin lookup: %v", err)
	}

	if err := products.SoftDelete(9999); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestReviewLifecycleRecalculatesRating(t *testing.T) {
	db := newRepositoryDBForTest(t)
	products := NewProductRepository(db)
	categories := NewCategoryRepository(db)
	users := NewUserRepository(db)
	seedCatalog(t, products, categories)

	page, _ := products.ListPaged(PageRequest{}, ProductFilter{Search: "apple"})
	productID := page.Items[0].ID
	alice := seedUser(t, users, "alice@example.com")
	bob := seedUser(t, users, "bob@example.com")

	for _, rev := range []*domain.Review{
		{ProductID: productID, UserID: alice.ID, Rating: 5, Comment: "Crisp and sweet"},
		{ProductID: productID, UserID: bob.ID, Rating: 3},
	} {
		if err := products.CreateReview(rev); err != nil {
			t.Fatalf("create review: %v", err)
		}
	}
	if err := products.RecalculateRating(productID); err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	loaded, err := products.FindByID(productID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if loaded.NumReviews != 2 || loaded.Rating != 4 {
		t.Fatalf("aggregate mismatch: rating=%v reviews=%d", loaded.Rating, loaded.NumReviews)
	}
	if len(loaded.Reviews) != 2 {
		t.Fatalf("reviews not preloaded: %d", len(loaded.Reviews))
	}

	rev, err := products.FindReview(productID, loaded.Reviews[1].ID)
	if err != nil {
		t.Fatalf("find review: %v", err)
	}
	rev.Rating = 1
	if err := products.UpdateReview(rev); err != nil {
		t.Fatalf("update review: %v", err)
	}
	if err := products.DeleteReview(productID, loaded.Reviews[0].ID); err != nil {
		t.Fatalf("delete review: %v", err)
	}
	if err := products.RecalculateRating(productID); err != nil {
		t.Fatalf("recalculate after delete: %v", err)
	}

	loaded, _ = products.FindByID(productID)
	if loaded.NumReviews != 1 || loaded.Rating != 1 {
		t.Fatalf("aggregate after delete: rating=%v reviews=%d", loaded.Rating, loaded.NumReviews)
	}

	if err := products.DeleteReview(productID, 9999); !errors.Is(err, ErrReviewNotFound) {
		t.Fatalf("expected ErrReviewNotFound, got %v", err)
	}
}

func TestProductStats(t *testing.T) {
	db := newRepositoryDBForTest(t)
	products := NewProductRepository(db)
	categories := NewCategoryRepository(db)
	fruits, _ := seedCatalog(t, products, categories)

	stats, err := products.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalProducts != 3 || stats.OutOfStock != 1 || stats.Featured != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	n, err := products.CountByCategory(fruits.ID)
	if err != nil {
		t.Fatalf("count by category: %v", err)
	}
	if n != 2 {
		t.Fatalf("fruits count: got %d want 2", n)
	}
}
