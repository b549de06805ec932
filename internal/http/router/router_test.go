package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/harvesthub/harvesthub-api/internal/config"
	"github.com/harvesthub/harvesthub-api/internal/domain"
	"github.com/harvesthub/harvesthub-api/internal/health"
	"github.com/harvesthub/harvesthub-api/internal/http/handler"
	"github.com/harvesthub/harvesthub-api/internal/payment"
	"github.com/harvesthub/harvesthub-api/internal/repository"
	"github.com/harvesthub/harvesthub-api/internal/security"
	"github.com/harvesthub/harvesthub-api/internal/service"
)

const testPassword = "CorrectHorse9!"

var (
	hashOnce   sync.Once
	hashedPass string
)

func hashedTestPassword(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		h, err := security.HashPassword(testPassword)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		hashedPass = h
	})
	return hashedPass
}

type routerMailer struct{}

func (routerMailer) SendVerificationEmail(context.Context, string, string, string) error { return nil }
func (routerMailer) SendPasswordResetEmail(context.Context, string, string, string) error {
	return nil
}
func (routerMailer) SendWelcomeEmail(context.Context, string, string, string) error { return nil }

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

type apiFixture struct {
	t          *testing.T
	handler    http.Handler
	users      repository.UserRepository
	products   repository.ProductRepository
	categories repository.CategoryRepository
	jwt        *security.JWTManager
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.User{}, &domain.UserAddress{}, &domain.CartItem{},
		&domain.Category{}, &domain.Product{}, &domain.Review{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		Env:                   "test",
		FrontendURL:           "http://localhost:5173",
		EmailVerifyTokenTTL:   24 * time.Hour,
		PasswordResetTokenTTL: 10 * time.Minute,
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := repository.NewUserRepository(db)
	products := repository.NewProductRepository(db)
	categories := repository.NewCategoryRepository(db)

	jwtMgr := security.NewJWTManager("router-test-secret-0123456789abcdef", 30*time.Minute)
	lockout := service.NewLockoutPolicy(5, 2*time.Hour)

	authSvc := service.NewAuthService(cfg, users, jwtMgr, lockout, routerMailer{}, quiet)
	productSvc := service.NewProductService(products, categories)
	categorySvc := service.NewCategoryService(categories, products)
	userSvc := service.NewUserService(users, products)

	cookies := security.NewCookieManager(false, 30*24*time.Hour)
	gateways := payment.NewGateways(
		payment.NewRazorpayGateway("", "", ""),
		payment.NewStripeGateway("", ""),
	)

	h := NewRouter(Dependencies{
		AuthHandler:     handler.NewAuthHandler(authSvc, cookies),
		ProductHandler:  handler.NewProductHandler(productSvc),
		CategoryHandler: handler.NewCategoryHandler(categorySvc),
		UserHandler:     handler.NewUserHandler(userSvc),
		PaymentHandler:  handler.NewPaymentHandler(gateways, quiet),
		JWTManager:      jwtMgr,
		Users:           users,
		Lockout:         lockout,
		CORSOrigins:     []string{"http://localhost:5173"},
		Readiness:       health.NewReadiness(time.Second, 0),
	})

	return &apiFixture{
		t:          t,
		handler:    h,
		users:      users,
		products:   products,
		categories: categories,
		jwt:        jwtMgr,
	}
}

func (fx *apiFixture) seedUser(email, phone, role string) *domain.User {
	fx.t.Helper()
	u := &domain.User{
		Name:          "Test " + role,
		Email:         email,
		Phone:         phone,
		Password:      hashedTestPassword(fx.t),
		Role:          role,
		EmailVerified: true,
		IsActive:      true,
	}
	if err := fx.users.Create(u); err != nil {
		fx.t.Fatalf("seed user: %v", err)
	}
	return u
}

func (fx *apiFixture) tokenFor(u *domain.User) string {
	fx.t.Helper()
	tok, err := fx.jwt.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		fx.t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (fx *apiFixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	fx.t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			fx.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	fx.handler.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v body=%s", err, rr.Body.String())
	}
	return env
}

func TestHealthEndpoints(t *testing.T) {
	fx := newAPIFixture(t)

	if rr := fx.do(http.MethodGet, "/health/live", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", rr.Code)
	}
	if rr := fx.do(http.MethodGet, "/health/ready", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRegisterAndLoginFlow(t *testing.T) {
	fx := newAPIFixture(t)

	rr := fx.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     "Asha Rao",
		"email":    "asha@example.com",
		"password": testPassword,
		"phone":    "9876543210",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	env := decodeEnvelope(t, rr)
	if env.Message != "User registered successfully. Please check your email to verify your account." {
		t.Fatalf("unexpected register message %q", env.Message)
	}
	var reg struct {
		User struct {
			ID    uint   `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
			Phone string `json:"phone"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &reg); err != nil {
		t.Fatalf("decode register data: %v", err)
	}
	if reg.User.ID == 0 || reg.User.Email != "asha@example.com" || reg.User.Role != "user" {
		t.Fatalf("register response missing user summary: %s", env.Data)
	}

	t.Run("missing fields rejected", func(t *testing.T) {
		rr := fx.do(http.MethodPost, "/api/auth/register", "", map[string]any{
			"name": "A", "email": "nope", "password": "123", "phone": "abc",
		})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		env := decodeEnvelope(t, rr)
		if env.Message != "Validation failed" || len(env.Errors) != 5 {
			t.Fatalf("unexpected validation response: %+v", env)
		}
	})

	t.Run("weak password rejected", func(t *testing.T) {
		rr := fx.do(http.MethodPost, "/api/auth/register", "", map[string]any{
			"name": "Ravi Rao", "email": "ravi@example.com", "password": "alllowercase1", "phone": "9876500000",
		})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		env := decodeEnvelope(t, rr)
		want := "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character"
		if len(env.Errors) != 1 || env.Errors[0] != want {
			t.Fatalf("unexpected validation errors: %+v", env.Errors)
		}
	})

	t.Run("non-indian mobile rejected", func(t *testing.T) {
		rr := fx.do(http.MethodPost, "/api/auth/register", "", map[string]any{
			"name": "Ravi Rao", "email": "ravi@example.com", "password": testPassword, "phone": "1234567890",
		})
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
		env := decodeEnvelope(t, rr)
		if len(env.Errors) != 1 || env.Errors[0] != "Please provide a valid Indian mobile number" {
			t.Fatalf("unexpected validation errors: %+v", env.Errors)
		}
	})

	t.Run("login succeeds and sets cookie", func(t *testing.T) {
		rr := fx.do(http.MethodPost, "/api/auth/login", "", map[string]any{
			"email": "asha@example.com", "password": testPassword,
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
		}
		env := decodeEnvelope(t, rr)
		if env.Message != "Login successful" {
			t.Fatalf("unexpected message %q", env.Message)
		}
		if !strings.Contains(rr.Header().Get("Set-Cookie"), security.SessionCookieName+"=") {
			t.Fatalf("session cookie not set: %q", rr.Header().Get("Set-Cookie"))
		}
		var data struct {
			Token string `json:"token"`
			User  struct {
				Email string `json:"email"`
			} `json:"user"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if data.Token == "" || data.User.Email != "asha@example.com" {
			t.Fatalf("unexpected session payload: %s", env.Data)
		}
		if strings.Contains(strings.ToLower(string(env.Data)), `"password"`) {
			t.Fatal("password material leaked into session payload")
		}
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		rr := fx.do(http.MethodPost, "/api/auth/login", "", map[string]any{
			"email": "asha@example.com", "password": "WrongHorse1!",
		})
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
		if env := decodeEnvelope(t, rr); env.Message != "Invalid email or password" {
			t.Fatalf("unexpected message %q", env.Message)
		}
	})

	t.Run("me requires a session", func(t *testing.T) {
		if rr := fx.do(http.MethodGet, "/api/auth/me", "", nil); rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})
}

func TestRoleGates(t *testing.T) {
	fx := newAPIFixture(t)
	shopper := fx.seedUser("shopper@example.com", "9000000001", domain.RoleUser)
	vendor := fx.seedUser("vendor@example.com", "9000000002", domain.RoleVendor)
	admin := fx.seedUser("admin@example.com", "9000000003", domain.RoleAdmin)

	if err := fx.categories.Create(&domain.Category{Name: "Fruits", Slug: "fruits", IsActive: true}); err != nil {
		t.Fatalf("seed category: %v", err)
	}

	productBody := map[string]any{"name": "Alphonso Mango", "price": 450.0, "category_id": 1}

	t.Run("shopper cannot create products", func(t *testing.T) {
		rr := fx.do(http.MethodPost, "/api/products/", fx.tokenFor(shopper), productBody)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
		}
		env := decodeEnvelope(t, rr)
		if !strings.Contains(env.Message, "User role 'user' is not authorized") {
			t.Fatalf("unexpected message %q", env.Message)
		}
	})

	t.Run("vendor can create products", func(t *testing.T) {
		rr := fx.do(http.MethodPost, "/api/products/", fx.tokenFor(vendor), productBody)
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
		}
		if env := decodeEnvelope(t, rr); env.Message != "Product created successfully" {
			t.Fatalf("unexpected message %q", env.Message)
		}
	})

	t.Run("vendor cannot manage categories", func(t *testing.T) {
		rr := fx.do(http.MethodPost, "/api/categories/", fx.tokenFor(vendor), map[string]any{"name": "Dairy"})
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
	})

	t.Run("admin can manage categories", func(t *testing.T) {
		rr := fx.do(http.MethodPost, "/api/categories/", fx.tokenFor(admin), map[string]any{"name": "Dairy"})
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
		}
	})

	t.Run("user list is admin only", func(t *testing.T) {
		if rr := fx.do(http.MethodGet, "/api/users/", fx.tokenFor(shopper), nil); rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
		if rr := fx.do(http.MethodGet, "/api/users/", fx.tokenFor(admin), nil); rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})
}

func TestPublicCatalogRoutes(t *testing.T) {
	fx := newAPIFixture(t)
	if err := fx.categories.Create(&domain.Category{Name: "Fruits", Slug: "fruits", IsActive: true}); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	if err := fx.products.Create(&domain.Product{
		Name: "Banana", Price: 40, CategoryID: 1, Stock: 10, IsActive: true, IsFeatured: true,
	}); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	t.Run("list products", func(t *testing.T) {
		rr := fx.do(http.MethodGet, "/api/products/?page=1&limit=5", "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
		}
		env := decodeEnvelope(t, rr)
		var data struct {
			Products   []domain.Product `json:"products"`
			Pagination struct {
				Total int64 `json:"total"`
			} `json:"pagination"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if len(data.Products) != 1 || data.Pagination.Total != 1 {
			t.Fatalf("unexpected listing: %s", env.Data)
		}
	})

	t.Run("featured products", func(t *testing.T) {
		if rr := fx.do(http.MethodGet, "/api/products/featured", "", nil); rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})

	t.Run("unknown product 404", func(t *testing.T) {
		rr := fx.do(http.MethodGet, "/api/products/999", "", nil)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
		if env := decodeEnvelope(t, rr); env.Message != "Product not found" {
			t.Fatalf("unexpected message %q", env.Message)
		}
	})

	t.Run("category listing and slug lookup", func(t *testing.T) {
		if rr := fx.do(http.MethodGet, "/api/categories/", "", nil); rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if rr := fx.do(http.MethodGet, "/api/categories/slug/fruits", "", nil); rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
		}
	})

	t.Run("category admin stats gated", func(t *testing.T) {
		if rr := fx.do(http.MethodGet, "/api/categories/admin/stats", "", nil); rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})
}

func TestPaymentRoutes(t *testing.T) {
	fx := newAPIFixture(t)
	shopper := fx.seedUser("buyer@example.com", "9000000010", domain.RoleUser)
	admin := fx.seedUser("ops@example.com", "9000000011", domain.RoleAdmin)

	t.Run("razorpay order without configured gateway", func(t *testing.T) {
		rr := fx.do(http.MethodPost, "/api/payments/razorpay/create-order", fx.tokenFor(shopper), map[string]any{"amount": 499})
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d body=%s", rr.Code, rr.Body.String())
		}
		env := decodeEnvelope(t, rr)
		if env.Message != "Razorpay payment gateway not configured. Please contact support." {
			t.Fatalf("unexpected message %q", env.Message)
		}
	})

	t.Run("stripe intent without configured gateway", func(t *testing.T) {
		rr := fx.do(http.MethodPost, "/api/payments/stripe/create-intent", fx.tokenFor(shopper), map[string]any{"amount": 499})
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rr.Code)
		}
	})

	t.Run("webhooks reject when unconfigured", func(t *testing.T) {
		if rr := fx.do(http.MethodPost, "/api/payments/stripe/webhook", "", map[string]any{}); rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rr.Code)
		}
	})

	t.Run("cod confirm", func(t *testing.T) {
		rr := fx.do(http.MethodPost, "/api/payments/cod/confirm", fx.tokenFor(shopper), map[string]any{"order_id": "ord_42"})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
		}
		if env := decodeEnvelope(t, rr); env.Message != "COD order confirmed successfully" {
			t.Fatalf("unexpected message %q", env.Message)
		}
	})

	t.Run("history returns empty page", func(t *testing.T) {
		rr := fx.do(http.MethodGet, "/api/payments/history", fx.tokenFor(shopper), nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		env := decodeEnvelope(t, rr)
		var data struct {
			Payments []any `json:"payments"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if len(data.Payments) != 0 {
			t.Fatalf("expected empty history, got %s", env.Data)
		}
	})

	t.Run("refund is admin only", func(t *testing.T) {
		body := map[string]any{"payment_id": "pay_1", "amount": 100}
		if rr := fx.do(http.MethodPost, "/api/payments/refund", fx.tokenFor(shopper), body); rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rr.Code)
		}
		if rr := fx.do(http.MethodPost, "/api/payments/refund", fx.tokenFor(admin), body); rr.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", rr.Code)
		}
	})
}

func TestCartRoutes(t *testing.T) {
	fx := newAPIFixture(t)
	shopper := fx.seedUser("cart@example.com", "9000000020", domain.RoleUser)
	if err := fx.categories.Create(&domain.Category{Name: "Dairy", Slug: "dairy", IsActive: true}); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	if err := fx.products.Create(&domain.Product{
		Name: "Paneer", Price: 90, CategoryID: 1, Stock: 5, IsActive: true,
	}); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	token := fx.tokenFor(shopper)

	rr := fx.do(http.MethodPost, "/api/users/cart", token, map[string]any{"product_id": 1, "quantity": 2})
	if rr.Code != http.StatusOK {
		t.Fatalf("add to cart: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = fx.do(http.MethodPost, "/api/users/cart", token, map[string]any{"product_id": 1, "quantity": 9})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("stock gate: expected 400, got %d", rr.Code)
	}
	if env := decodeEnvelope(t, rr); env.Message != "Insufficient stock available" {
		t.Fatalf("unexpected message %q", env.Message)
	}

	rr = fx.do(http.MethodPut, "/api/users/cart/1", token, map[string]any{"quantity": 4})
	if rr.Code != http.StatusOK {
		t.Fatalf("update cart: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = fx.do(http.MethodDelete, "/api/users/cart/1", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("remove cart item: expected 200, got %d", rr.Code)
	}
}
