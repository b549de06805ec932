package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/harvesthub/harvesthub-api/internal/domain"
	"github.com/harvesthub/harvesthub-api/internal/health"
	"github.com/harvesthub/harvesthub-api/internal/http/handler"
	"github.com/harvesthub/harvesthub-api/internal/http/middleware"
	"github.com/harvesthub/harvesthub-api/internal/http/response"
	"github.com/harvesthub/harvesthub-api/internal/repository"
	"github.com/harvesthub/harvesthub-api/internal/security"
	"github.com/harvesthub/harvesthub-api/internal/service"
)

// APIRateLimiterFunc and AuthRateLimiterFunc are distinct names for the same
// middleware shape so injection can tell the two limiters apart.
type APIRateLimiterFunc func(http.Handler) http.Handler

type AuthRateLimiterFunc func(http.Handler) http.Handler

type Dependencies struct {
	AuthHandler     *handler.AuthHandler
	ProductHandler  *handler.ProductHandler
	CategoryHandler *handler.CategoryHandler
	UserHandler     *handler.UserHandler
	PaymentHandler  *handler.PaymentHandler

	JWTManager *security.JWTManager
	Users      repository.UserRepository
	Lockout    service.LockoutPolicy

	CORSOrigins []string

	APIRateLimiter  APIRateLimiterFunc
	AuthRateLimiter AuthRateLimiterFunc

	Readiness      *health.Readiness
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.APIRateLimiter != nil {
		r.Use(dep.APIRateLimiter)
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = func(next http.Handler) http.Handler { return next }
	}
	protect := middleware.Protect(dep.JWTManager, dep.Users, dep.Lockout)
	adminOnly := middleware.Authorize(domain.RoleAdmin)
	adminOrVendor := middleware.Authorize(domain.RoleAdmin, domain.RoleVendor)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ready, checks := dep.Readiness.Check(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": checks})
			return
		}
		response.JSON(w, r, http.StatusServiceUnavailable, map[string]any{"status": "unready", "checks": checks})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Post("/register", dep.AuthHandler.Register)
			r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
			r.Post("/logout", dep.AuthHandler.Logout)
			r.With(protect).Get("/me", dep.AuthHandler.Me)
			r.With(protect).Post("/refresh-token", dep.AuthHandler.RefreshToken)
			r.Get("/verify-email/{token}", dep.AuthHandler.VerifyEmail)
			r.With(protect).Post("/resend-verification", dep.AuthHandler.ResendVerification)
			r.With(authLimiter).Post("/forgot-password", dep.AuthHandler.ForgotPassword)
			r.With(authLimiter).Put("/reset-password/{resetToken}", dep.AuthHandler.ResetPassword)
			r.With(protect).Put("/update-password", dep.AuthHandler.UpdatePassword)
			r.With(protect).Put("/profile", dep.AuthHandler.UpdateProfile)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", dep.ProductHandler.List)
			r.Get("/featured", dep.ProductHandler.Featured)
			r.Get("/trending", dep.ProductHandler.Trending)
			r.With(protect, adminOnly).Get("/admin/stats", dep.ProductHandler.Stats)
			r.Get("/{id}", dep.ProductHandler.Get)
			r.With(protect, adminOrVendor).Post("/", dep.ProductHandler.Create)
			r.With(protect, adminOrVendor).Put("/{id}", dep.ProductHandler.Update)
			r.With(protect, adminOrVendor).Delete("/{id}", dep.ProductHandler.Delete)
			r.With(protect).Post("/{id}/reviews", dep.ProductHandler.AddReview)
			r.With(protect).Put("/{id}/reviews/{reviewId}", dep.ProductHandler.UpdateReview)
			r.With(protect).Delete("/{id}/reviews/{reviewId}", dep.ProductHandler.DeleteReview)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", dep.CategoryHandler.List)
			r.Get("/main", dep.CategoryHandler.Main)
			r.With(protect, adminOnly).Get("/admin/tree", dep.CategoryHandler.Tree)
			r.With(protect, adminOnly).Get("/admin/stats", dep.CategoryHandler.Stats)
			r.Get("/slug/{slug}", dep.CategoryHandler.GetBySlug)
			r.Get("/{id}/subcategories", dep.CategoryHandler.Subcategories)
			r.Get("/{id}", dep.CategoryHandler.Get)
			r.With(protect, adminOnly).Post("/", dep.CategoryHandler.Create)
			r.With(protect, adminOnly).Put("/reorder", dep.CategoryHandler.Reorder)
			r.With(protect, adminOnly).Put("/{id}", dep.CategoryHandler.Update)
			r.With(protect, adminOnly).Delete("/{id}", dep.CategoryHandler.Delete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(protect)
			r.With(adminOnly).Get("/", dep.UserHandler.List)

			r.Post("/cart", dep.UserHandler.AddToCart)
			r.Put("/cart/{productId}", dep.UserHandler.UpdateCartItem)
			r.Delete("/cart/{productId}", dep.UserHandler.RemoveCartItem)
			r.Delete("/cart", dep.UserHandler.ClearCart)
			r.Post("/wishlist", dep.UserHandler.AddToWishlist)
			r.Delete("/wishlist/{productId}", dep.UserHandler.RemoveFromWishlist)

			r.Get("/{id}", dep.UserHandler.Get)
			r.With(adminOnly).Put("/{id}", dep.UserHandler.AdminUpdate)
			r.With(adminOnly).Delete("/{id}", dep.UserHandler.Deactivate)
			r.Post("/{id}/addresses", dep.UserHandler.AddAddress)
			r.Put("/{id}/addresses/{addressId}", dep.UserHandler.UpdateAddress)
			r.Delete("/{id}/addresses/{addressId}", dep.UserHandler.DeleteAddress)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/stripe/webhook", dep.PaymentHandler.StripeWebhook)
			r.Post("/razorpay/webhook", dep.PaymentHandler.RazorpayWebhook)
			r.Group(func(r chi.Router) {
				r.Use(protect)
				r.Post("/razorpay/create-order", dep.PaymentHandler.CreateRazorpayOrder)
				r.Post("/razorpay/verify", dep.PaymentHandler.VerifyRazorpayPayment)
				r.Post("/stripe/create-intent", dep.PaymentHandler.CreateStripeIntent)
				r.Post("/stripe/confirm", dep.PaymentHandler.ConfirmStripePayment)
				r.Post("/cod/confirm", dep.PaymentHandler.ConfirmCOD)
				r.Get("/history", dep.PaymentHandler.History)
				r.With(adminOnly).Post("/refund", dep.PaymentHandler.Refund)
			})
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
