package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestTraceContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&traceContextHandler{next: slog.NewJSONHandler(&buf, nil)})

	t.Run("no span leaves the line clean", func(t *testing.T) {
		buf.Reset()
		logger.InfoContext(context.Background(), "startup")
		if strings.Contains(buf.String(), "trace_id") {
			t.Fatalf("unexpected correlation fields: %s", buf.String())
		}
	})

	t.Run("active span is stamped on the line", func(t *testing.T) {
		buf.Reset()
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    trace.TraceID{0x01},
			SpanID:     trace.SpanID{0x02},
			TraceFlags: trace.FlagsSampled,
		})
		ctx := trace.ContextWithSpanContext(context.Background(), sc)
		logger.InfoContext(ctx, "request handled")
		out := buf.String()
		if !strings.Contains(out, sc.TraceID().String()) || !strings.Contains(out, sc.SpanID().String()) {
			t.Fatalf("trace correlation missing: %s", out)
		}
	})
}
