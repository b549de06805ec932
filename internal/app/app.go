package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/harvesthub/harvesthub-api/internal/config"
	"github.com/harvesthub/harvesthub-api/internal/health"
	"github.com/harvesthub/harvesthub-api/internal/observability"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App bundles everything the api binary owns so main can start the server
// and tear the pieces down in order.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	DB            *gorm.DB
	Redis         redis.UniversalClient
	Readiness     *health.Readiness
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	readiness *health.Readiness,
) *App {
	return &App{
		Config:        cfg,
		Logger:        logger,
		Server:        server,
		Observability: runtime,
		DB:            db,
		Redis:         redisClient,
		Readiness:     readiness,
	}
}

// Shutdown drains HTTP traffic, flushes telemetry, then closes the redis and
// database connections. Errors are logged rather than returned so one failing
// stage never skips the rest.
func (a *App) Shutdown(ctx context.Context) {
	drainCtx, cancel := context.WithTimeout(ctx, a.Config.ShutdownHTTPDrainTimeout)
	if err := a.Server.Shutdown(drainCtx); err != nil {
		a.Logger.Error("failed to shutdown http server", "error", err)
	}
	cancel()

	if a.Observability != nil {
		if err := a.Observability.Shutdown(ctx); err != nil {
			a.Logger.Error("failed to shutdown observability", "error", err)
		}
	}

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("failed to close redis client", "error", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Logger.Error("failed to close database connection", "error", err)
			}
		}
	}
}
