package observability

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var redisInstrumentationOnce sync.Once

// InstrumentRedisClient wires command observability into the rate-limit
// Redis client. Safe to call multiple times; instrumentation is installed
// once per process.
func InstrumentRedisClient(client redis.UniversalClient, logger *slog.Logger) {
	if client == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	redisInstrumentationOnce.Do(func() {
		hook, err := newRedisMetricsHook(client)
		if err != nil {
			logger.Warn("redis observability instrumentation disabled", "error", err)
			return
		}
		client.AddHook(hook)
		logger.Info("redis observability instrumentation enabled")
	})
}

type redisMetricsHook struct {
	cmdTotal   metric.Int64Counter
	cmdErrors  metric.Int64Counter
	cmdLatency metric.Float64Histogram
}

func newRedisMetricsHook(client redis.UniversalClient) (*redisMetricsHook, error) {
	meter := otel.Meter("harvesthub-api")

	cmdTotal, err := meter.Int64Counter(
		"redis.command.total",
		metric.WithDescription("Total number of Redis commands executed"),
	)
	if err != nil {
		return nil, err
	}
	cmdErrors, err := meter.Int64Counter(
		"redis.command.errors",
		metric.WithDescription("Total number of Redis command errors"),
	)
	if err != nil {
		return nil, err
	}
	cmdLatency, err := meter.Float64Histogram(
		"redis.command.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Redis command latency in seconds"),
	)
	if err != nil {
		return nil, err
	}

	poolSaturationGauge, err := meter.Float64ObservableGauge(
		"redis.pool.saturation",
		metric.WithUnit("1"),
		metric.WithDescription("Redis pool saturation ratio (used_conns / total_conns)"),
	)
	if err != nil {
		return nil, err
	}

	hook := &redisMetricsHook{
		cmdTotal:   cmdTotal,
		cmdErrors:  cmdErrors,
		cmdLatency: cmdLatency,
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, observer metric.Observer) error {
		stats := client.PoolStats()
		if stats != nil && stats.TotalConns > 0 {
			used := stats.TotalConns - stats.IdleConns
			observer.ObserveFloat64(poolSaturationGauge, clampRatio(float64(used)/float64(stats.TotalConns)))
		}
		return nil
	}, poolSaturationGauge)
	if err != nil {
		return nil, err
	}

	return hook, nil
}

func (h *redisMetricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *redisMetricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		duration := time.Since(start)

		command := strings.ToLower(cmd.Name())
		status := redisCommandStatus(err)

		h.cmdTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("command", command),
			attribute.String("status", status),
		))
		if err != nil && err != redis.Nil {
			h.cmdErrors.Add(ctx, 1, metric.WithAttributes(
				attribute.String("command", command),
				attribute.String("error_type", classifyRedisError(err)),
			))
		}
		h.cmdLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("command", command),
			attribute.String("status", status),
		))
		return err
	}
}

func (h *redisMetricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		duration := time.Since(start)

		h.cmdLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("command", "pipeline"),
			attribute.String("status", redisCommandStatus(err)),
		))
		for _, cmd := range cmds {
			command := strings.ToLower(cmd.Name())
			cmdErr := cmd.Err()
			h.cmdTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("command", command),
				attribute.String("status", redisCommandStatus(cmdErr)),
			))
			if cmdErr != nil && cmdErr != redis.Nil {
				h.cmdErrors.Add(ctx, 1, metric.WithAttributes(
					attribute.String("command", command),
					attribute.String("error_type", classifyRedisError(cmdErr)),
				))
			}
		}
		return err
	}
}

func redisCommandStatus(err error) string {
	switch err {
	case nil:
		return "success"
	case redis.Nil:
		return "miss"
	default:
		return "error"
	}
}

func classifyRedisError(err error) string {
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"):
		return "timeout"
	case strings.Contains(errStr, "connection"):
		return "connection"
	default:
		return "other"
	}
}

func clampRatio(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
