package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/harvesthub/harvesthub-api/internal/app"
	"github.com/harvesthub/harvesthub-api/internal/config"
	"github.com/harvesthub/harvesthub-api/internal/database"
	"github.com/harvesthub/harvesthub-api/internal/email"
	"github.com/harvesthub/harvesthub-api/internal/health"
	"github.com/harvesthub/harvesthub-api/internal/http/handler"
	"github.com/harvesthub/harvesthub-api/internal/http/middleware"
	"github.com/harvesthub/harvesthub-api/internal/http/router"
	"github.com/harvesthub/harvesthub-api/internal/observability"
	"github.com/harvesthub/harvesthub-api/internal/payment"
	"github.com/harvesthub/harvesthub-api/internal/repository"
	"github.com/harvesthub/harvesthub-api/internal/security"
	"github.com/harvesthub/harvesthub-api/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadiness,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewProductRepository,
	repository.NewCategoryRepository,
)

var SecuritySet = wire.NewSet(
	provideJWTManager,
	provideCookieManager,
)

var ServiceSet = wire.NewSet(
	provideLockoutPolicy,
	provideMailer,
	service.NewAuthService,
	service.NewUserService,
	service.NewProductService,
	service.NewCategoryService,
	providePaymentGateways,
)

var HTTPSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewProductHandler,
	handler.NewCategoryHandler,
	handler.NewUserHandler,
	handler.NewPaymentHandler,
	provideAPIRateLimiter,
	provideAuthRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if _, err := database.Seed(db, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if !cfg.RedisEnabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	maxAge := time.Duration(cfg.CookieExpireDays) * 24 * time.Hour
	return security.NewCookieManager(cfg.IsProduction(), maxAge)
}

func provideLockoutPolicy(cfg *config.Config) service.LockoutPolicy {
	return service.NewLockoutPolicy(cfg.LockoutMaxAttempts, cfg.LockoutDuration)
}

func provideMailer(cfg *config.Config, logger *slog.Logger) email.Mailer {
	if cfg.SMTPConfigured() {
		return email.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, logger)
	}
	return email.NewLogMailer(logger)
}

func providePaymentGateways(cfg *config.Config) *payment.Gateways {
	return payment.NewGateways(
		payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret),
		payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret),
	)
}

func provideAPIRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.APIRateLimiterFunc {
	if cfg.RedisEnabled && redisClient != nil {
		limiter := middleware.NewRedisFixedWindowLimiter(redisClient, "harvesthub:ratelimit:api")
		return middleware.NewDistributedRateLimiter(
			limiter,
			cfg.APIRateLimitPerWindow,
			cfg.APIRateLimitWindow,
			middleware.FailOpen,
			"api",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.APIRateLimitPerWindow, cfg.APIRateLimitWindow, "api").Middleware()
}

func provideAuthRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.AuthRateLimiterFunc {
	if cfg.RedisEnabled && redisClient != nil {
		limiter := middleware.NewRedisFixedWindowLimiter(redisClient, "harvesthub:ratelimit:auth")
		return middleware.NewDistributedRateLimiter(
			limiter,
			cfg.AuthRateLimitPerWindow,
			cfg.AuthRateLimitWindow,
			middleware.FailClosed,
			"auth",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.AuthRateLimitPerWindow, cfg.AuthRateLimitWindow, "auth").Middleware()
}

func provideReadiness(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.Readiness {
	probes := []health.Probe{health.DBProbe(db)}
	if cfg.RedisEnabled {
		probes = append(probes, health.RedisProbe(redisClient))
	}
	return health.NewReadiness(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, probes...)
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	productHandler *handler.ProductHandler,
	categoryHandler *handler.CategoryHandler,
	userHandler *handler.UserHandler,
	paymentHandler *handler.PaymentHandler,
	jwt *security.JWTManager,
	users repository.UserRepository,
	lockout service.LockoutPolicy,
	apiRateLimiter router.APIRateLimiterFunc,
	authRateLimiter router.AuthRateLimiterFunc,
	readiness *health.Readiness,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:     authHandler,
		ProductHandler:  productHandler,
		CategoryHandler: categoryHandler,
		UserHandler:     userHandler,
		PaymentHandler:  paymentHandler,
		JWTManager:      jwt,
		Users:           users,
		Lockout:         lockout,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		APIRateLimiter:  apiRateLimiter,
		AuthRateLimiter: authRateLimiter,
		Readiness:       readiness,
		EnableOTelHTTP:  cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
