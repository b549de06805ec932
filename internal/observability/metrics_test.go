package observability

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordMetricHelpersNoPanicWhenUninitialized(t *testing.T) {
	ctx := context.Background()
	metricsMu.Lock()
	appMetrics = nil
	metricsMu.Unlock()

	// Smoke-call every helper with appMetrics=nil; they should all no-op safely.
	RecordAuthLogin(ctx, "success")
	RecordLockoutEvent(ctx, "locked")
	RecordRegistration(ctx, "success")
	RecordTokenFlowEvent(ctx, "email_verification", "consumed")
	RecordTokenValidation(ctx, "ok", "header")
	RecordAuthRequestDuration(ctx, "login", "success", 10*time.Millisecond)
	RecordEmailDelivery(ctx, "verification", "sent")
	RecordRateLimitDecision(ctx, "auth", "allow", "redis")
	RecordRateLimitRetryAfter(ctx, "auth", time.Second)
	RecordCatalogRequest(ctx, "list_products", "success")
	RecordCatalogRequestDuration(ctx, "list_products", 5*time.Millisecond)
	RecordCartMutation(ctx, "add", "success")
	RecordReviewMutation(ctx, "create", "success")
	RecordPaymentEvent(ctx, "razorpay", "create_order", "success")
	RecordHealthCheckResult(ctx, "db", "ready")
	RecordHealthCheckDuration(ctx, "db", 5*time.Millisecond)
}

func TestRecordMetricHelpersEmitDataPoints(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()

	m, err := newAppMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatalf("build metrics: %v", err)
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()
	defer func() {
		metricsMu.Lock()
		appMetrics = nil
		metricsMu.Unlock()
	}()

	RecordAuthLogin(ctx, "success")
	RecordAuthLogin(ctx, "locked")
	RecordLockoutEvent(ctx, "locked")
	RecordPaymentEvent(ctx, "stripe", "create_intent", "success")
	RecordAuthRequestDuration(ctx, "login", "success", 25*time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, metricRecord := range sm.Metrics {
			found[metricRecord.Name] = true
			if metricRecord.Name == "auth.login.attempts" {
				sum, ok := metricRecord.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("unexpected data type for login counter: %T", metricRecord.Data)
				}
				if len(sum.DataPoints) != 2 {
					t.Fatalf("expected 2 login series, got %d", len(sum.DataPoints))
				}
			}
		}
	}
	for _, name := range []string{
		"auth.login.attempts",
		"auth.lockout.events",
		"payment.gateway.events",
		"auth.request.duration",
	} {
		if !found[name] {
			t.Fatalf("metric %s not collected", name)
		}
	}
}
