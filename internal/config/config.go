package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string

	JWTSecret        string
	JWTTTL           time.Duration
	CookieExpireDays int

	FrontendURL        string
	CORSAllowedOrigins []string

	LockoutMaxAttempts int
	LockoutDuration    time.Duration

	EmailVerifyTokenTTL   time.Duration
	PasswordResetTokenTTL time.Duration

	APIRateLimitPerWindow  int
	APIRateLimitWindow     time.Duration
	AuthRateLimitPerWindow int
	AuthRateLimitWindow    time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	StripeSecretKey       string
	StripeWebhookSecret   string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ReadinessProbeTimeout  time.Duration
	ServerStartGracePeriod time.Duration

	ShutdownTimeout          time.Duration
	ShutdownHTTPDrainTimeout time.Duration

	BootstrapAdminEmail    string
	BootstrapAdminPassword string

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Env:      env,
		HTTPPort: getEnv("PORT", "5000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		CookieExpireDays: getEnvInt("JWT_COOKIE_EXPIRE", 30),

		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),

		LockoutMaxAttempts: getEnvInt("LOCKOUT_MAX_ATTEMPTS", 5),

		APIRateLimitPerWindow:  getEnvInt("API_RATE_LIMIT", 100),
		AuthRateLimitPerWindow: getEnvInt("AUTH_RATE_LIMIT", 20),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", "HarvestHub <no-reply@harvesthub.local>"),

		RazorpayKeyID:         os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		StripeSecretKey:       os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:   os.Getenv("STRIPE_WEBHOOK_SECRET"),

		BootstrapAdminEmail:    os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "harvesthub-api"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", false),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", false),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", false),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	jwtTTL, err := time.ParseDuration(getEnv("JWT_EXPIRE", "720h"))
	if err != nil {
		return nil, fmt.Errorf("parse JWT_EXPIRE: %w", err)
	}
	cfg.JWTTTL = jwtTTL

	lockoutDuration, err := time.ParseDuration(getEnv("LOCKOUT_DURATION", "2h"))
	if err != nil {
		return nil, fmt.Errorf("parse LOCKOUT_DURATION: %w", err)
	}
	cfg.LockoutDuration = lockoutDuration

	verifyTTL, err := time.ParseDuration(getEnv("EMAIL_VERIFY_TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("parse EMAIL_VERIFY_TOKEN_TTL: %w", err)
	}
	cfg.EmailVerifyTokenTTL = verifyTTL

	resetTTL, err := time.ParseDuration(getEnv("PASSWORD_RESET_TOKEN_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("parse PASSWORD_RESET_TOKEN_TTL: %w", err)
	}
	cfg.PasswordResetTokenTTL = resetTTL

	apiWindow, err := time.ParseDuration(getEnv("API_RATE_LIMIT_WINDOW", "15m"))
	if err != nil {
		return nil, fmt.Errorf("parse API_RATE_LIMIT_WINDOW: %w", err)
	}
	cfg.APIRateLimitWindow = apiWindow

	authWindow, err := time.ParseDuration(getEnv("AUTH_RATE_LIMIT_WINDOW", "15m"))
	if err != nil {
		return nil, fmt.Errorf("parse AUTH_RATE_LIMIT_WINDOW: %w", err)
	}
	cfg.AuthRateLimitWindow = authWindow

	probeTimeout, err := time.ParseDuration(getEnv("READINESS_PROBE_TIMEOUT", "2s"))
	if err != nil {
		return nil, fmt.Errorf("parse READINESS_PROBE_TIMEOUT: %w", err)
	}
	cfg.ReadinessProbeTimeout = probeTimeout

	gracePeriod, err := time.ParseDuration(getEnv("SERVER_START_GRACE_PERIOD", "0s"))
	if err != nil {
		return nil, fmt.Errorf("parse SERVER_START_GRACE_PERIOD: %w", err)
	}
	cfg.ServerStartGracePeriod = gracePeriod

	shutdownTimeout, err := time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "20s"))
	if err != nil {
		return nil, fmt.Errorf("parse SHUTDOWN_TIMEOUT: %w", err)
	}
	cfg.ShutdownTimeout = shutdownTimeout

	drainTimeout, err := time.ParseDuration(getEnv("SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("parse SHUTDOWN_HTTP_DRAIN_TIMEOUT: %w", err)
	}
	cfg.ShutdownHTTPDrainTimeout = drainTimeout

	metricsInterval, err := time.ParseDuration(getEnv("OTEL_METRICS_EXPORT_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("parse OTEL_METRICS_EXPORT_INTERVAL: %w", err)
	}
	cfg.OTELMetricsExportInterval = metricsInterval

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.JWTSecret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 chars")
	}
	if c.JWTTTL <= 0 || c.JWTTTL > 90*24*time.Hour {
		errs = append(errs, "JWT_EXPIRE must be between 1s and 90d")
	}
	if c.CookieExpireDays <= 0 {
		errs = append(errs, "JWT_COOKIE_EXPIRE must be > 0")
	}
	if c.LockoutMaxAttempts <= 0 {
		errs = append(errs, "LOCKOUT_MAX_ATTEMPTS must be > 0")
	}
	if c.LockoutDuration <= 0 {
		errs = append(errs, "LOCKOUT_DURATION must be > 0")
	}
	if c.EmailVerifyTokenTTL <= 0 {
		errs = append(errs, "EMAIL_VERIFY_TOKEN_TTL must be > 0")
	}
	if c.PasswordResetTokenTTL <= 0 {
		errs = append(errs, "PASSWORD_RESET_TOKEN_TTL must be > 0")
	}
	if c.APIRateLimitPerWindow <= 0 {
		errs = append(errs, "API_RATE_LIMIT must be > 0")
	}
	if c.AuthRateLimitPerWindow <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT must be > 0")
	}
	if c.FrontendURL == "" {
		errs = append(errs, "FRONTEND_URL is required")
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT must be > 0")
	}
	if c.ShutdownHTTPDrainTimeout <= 0 || c.ShutdownHTTPDrainTimeout > c.ShutdownTimeout {
		errs = append(errs, "SHUTDOWN_HTTP_DRAIN_TIMEOUT must be > 0 and <= SHUTDOWN_TIMEOUT")
	}
	if c.RedisEnabled && c.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required when REDIS_ENABLED=true")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// SMTPConfigured reports whether the email side-channel has real transport
// settings. Without them the mailer falls back to logging the links.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUsername != "" && c.SMTPPassword != ""
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
