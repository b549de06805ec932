package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestStructuredRequestLogger(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("logs one line per request", func(t *testing.T) {
		buf := captureLogs(t)
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.RemoteAddr = "10.1.2.3:54321"
		StructuredRequestLogger(next).ServeHTTP(httptest.NewRecorder(), req)

		var line struct {
			Msg      string `json:"msg"`
			Method   string `json:"method"`
			Status   int    `json:"status"`
			ClientIP string `json:"client_ip"`
		}
		if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
			t.Fatalf("decode log line: %v (%s)", err, buf.String())
		}
		if line.Msg != "http.request" || line.Method != http.MethodGet || line.Status != http.StatusTeapot {
			t.Fatalf("unexpected log line: %s", buf.String())
		}
		if line.ClientIP != "10.1.2.3" {
			t.Fatalf("client_ip = %q, want bare host", line.ClientIP)
		}
	})

	t.Run("health probes are not logged", func(t *testing.T) {
		for _, path := range []string{"/health/live", "/health/ready"} {
			buf := captureLogs(t)
			req := httptest.NewRequest(http.MethodGet, path, nil)
			StructuredRequestLogger(next).ServeHTTP(httptest.NewRecorder(), req)
			if strings.TrimSpace(buf.String()) != "" {
				t.Fatalf("%s produced a log line: %s", path, buf.String())
			}
		}
	})
}
