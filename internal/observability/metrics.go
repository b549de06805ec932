package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harvesthub/harvesthub-api/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
)

type AppMetrics struct {
	authLoginCounter         metric.Int64Counter
	authLockoutCounter       metric.Int64Counter
	authRegistrationCounter  metric.Int64Counter
	authTokenFlowCounter     metric.Int64Counter
	tokenValidationCounter   metric.Int64Counter
	authReqDuration          metric.Float64Histogram
	emailDeliveryCounter     metric.Int64Counter
	rateLimitDecisionCounter metric.Int64Counter
	rateLimitRetryAfter      metric.Float64Histogram
	catalogRequestCounter    metric.Int64Counter
	catalogReqDuration       metric.Float64Histogram
	cartMutationCounter      metric.Int64Counter
	reviewMutationCounter    metric.Int64Counter
	paymentEventCounter      metric.Int64Counter
	healthCheckResultCounter metric.Int64Counter
	healthCheckDuration      metric.Float64Histogram
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "auth.request.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	m, err := newAppMetrics(mp.Meter("harvesthub-api"))
	if err != nil {
		return nil, err
	}

	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func newAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	loginCounter, err := meter.Int64Counter("auth.login.attempts")
	if err != nil {
		return nil, err
	}
	lockoutCounter, err := meter.Int64Counter("auth.lockout.events")
	if err != nil {
		return nil, err
	}
	registrationCounter, err := meter.Int64Counter("auth.registration.events")
	if err != nil {
		return nil, err
	}
	tokenFlowCounter, err := meter.Int64Counter("auth.token_flow.events")
	if err != nil {
		return nil, err
	}
	tokenValidationCounter, err := meter.Int64Counter("auth.session_token.validation.events")
	if err != nil {
		return nil, err
	}
	authReqDuration, err := meter.Float64Histogram(
		"auth.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of auth endpoint requests in seconds"),
	)
	if err != nil {
		return nil, err
	}
	emailDeliveryCounter, err := meter.Int64Counter("email.delivery.events")
	if err != nil {
		return nil, err
	}
	rateLimitDecisionCounter, err := meter.Int64Counter("http.rate_limit.decisions")
	if err != nil {
		return nil, err
	}
	rateLimitRetryAfter, err := meter.Float64Histogram(
		"http.rate_limit.retry_after",
		metric.WithUnit("s"),
		metric.WithDescription("Retry-after duration in seconds for throttled requests"),
	)
	if err != nil {
		return nil, err
	}
	catalogRequestCounter, err := meter.Int64Counter("catalog.requests")
	if err != nil {
		return nil, err
	}
	catalogReqDuration, err := meter.Float64Histogram(
		"catalog.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of catalog endpoint requests in seconds"),
	)
	if err != nil {
		return nil, err
	}
	cartMutationCounter, err := meter.Int64Counter("cart.mutations")
	if err != nil {
		return nil, err
	}
	reviewMutationCounter, err := meter.Int64Counter("catalog.review.mutations")
	if err != nil {
		return nil, err
	}
	paymentEventCounter, err := meter.Int64Counter("payment.gateway.events")
	if err != nil {
		return nil, err
	}
	healthCheckResultCounter, err := meter.Int64Counter("health.check.results")
	if err != nil {
		return nil, err
	}
	healthCheckDuration, err := meter.Float64Histogram(
		"health.check.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of health dependency checks in seconds"),
	)
	if err != nil {
		return nil, err
	}

	return &AppMetrics{
		authLoginCounter:         loginCounter,
		authLockoutCounter:       lockoutCounter,
		authRegistrationCounter:  registrationCounter,
		authTokenFlowCounter:     tokenFlowCounter,
		tokenValidationCounter:   tokenValidationCounter,
		authReqDuration:          authReqDuration,
		emailDeliveryCounter:     emailDeliveryCounter,
		rateLimitDecisionCounter: rateLimitDecisionCounter,
		rateLimitRetryAfter:      rateLimitRetryAfter,
		catalogRequestCounter:    catalogRequestCounter,
		catalogReqDuration:       catalogReqDuration,
		cartMutationCounter:      cartMutationCounter,
		reviewMutationCounter:    reviewMutationCounter,
		paymentEventCounter:      paymentEventCounter,
		healthCheckResultCounter: healthCheckResultCounter,
		healthCheckDuration:      healthCheckDuration,
	}, nil
}

func RecordAuthLogin(ctx context.Context, status string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.authLoginCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordLockoutEvent(ctx context.Context, event string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.authLockoutCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}

func RecordRegistration(ctx context.Context, status string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.authRegistrationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordTokenFlowEvent covers the one-time token flows: email verification
// and password reset.
func RecordTokenFlowEvent(ctx context.Context, flow, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.authTokenFlowCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flow", flow),
		attribute.String("outcome", outcome),
	))
}

func RecordTokenValidation(ctx context.Context, outcome, source string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.tokenValidationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("source", source),
	))
}

func RecordAuthRequestDuration(ctx context.Context, endpoint, status string, d time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.authReqDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status", status),
	))
}

func RecordEmailDelivery(ctx context.Context, kind, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.emailDeliveryCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, decision, mode string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("decision", decision),
		attribute.String("mode", mode),
	))
}

func RecordRateLimitRetryAfter(ctx context.Context, scope string, d time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.rateLimitRetryAfter.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("scope", scope),
	))
}

func RecordCatalogRequest(ctx context.Context, endpoint, status string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.catalogRequestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status", status),
	))
}

func RecordCatalogRequestDuration(ctx context.Context, endpoint string, d time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.catalogReqDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("endpoint", endpoint),
	))
}

func RecordCartMutation(ctx context.Context, action, status string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.cartMutationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("status", status),
	))
}

func RecordReviewMutation(ctx context.Context, action, status string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.reviewMutationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("status", status),
	))
}

func RecordPaymentEvent(ctx context.Context, gateway, action, outcome string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.paymentEventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("gateway", gateway),
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

func RecordHealthCheckResult(ctx context.Context, dependency, status string) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.healthCheckResultCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dependency", dependency),
		attribute.String("status", status),
	))
}

func RecordHealthCheckDuration(ctx context.Context, dependency string, d time.Duration) {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	if m == nil {
		return
	}
	m.healthCheckDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("dependency", dependency),
	))
}
