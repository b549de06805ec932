package health

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type dbProbe struct {
	db *gorm.DB
}

func DBProbe(db *gorm.DB) Probe {
	if db == nil {
		return nil
	}
	return &dbProbe{db: db}
}

func (p *dbProbe) Name() string { return "postgres" }

func (p *dbProbe) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type redisProbe struct {
	client redis.UniversalClient
}

// RedisProbe is nil when redis is not part of the deployment; NewReadiness
// drops nil probes.
func RedisProbe(client redis.UniversalClient) Probe {
	if client == nil {
		return nil
	}
	return &redisProbe{client: client}
}

func (p *redisProbe) Name() string { return "redis" }

func (p *redisProbe) Ping(ctx context.Context) error {
	if p.client == nil {
		return errors.New("redis not configured")
	}
	return p.client.Ping(ctx).Err()
}
