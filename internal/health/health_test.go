package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubProbe struct {
	name string
	err  error
}

func (p stubProbe) Name() string               { return p.name }
func (p stubProbe) Ping(context.Context) error { return p.err }

func TestReadinessAllHealthy(t *testing.T) {
	r := NewReadiness(200*time.Millisecond, 0,
		stubProbe{name: "postgres"},
		stubProbe{name: "redis"},
	)
	ready, statuses := r.Check(context.Background())
	if !ready {
		t.Fatal("expected ready")
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy || s.Error != "" {
			t.Fatalf("unexpected status %+v", s)
		}
	}
}

func TestReadinessFailingProbe(t *testing.T) {
	r := NewReadiness(200*time.Millisecond, 0,
		stubProbe{name: "postgres"},
		stubProbe{name: "redis", err: errors.New("connection refused")},
	)
	ready, statuses := r.Check(context.Background())
	if ready {
		t.Fatal("expected unready")
	}
	if statuses[1].Healthy || statuses[1].Error != "connection refused" {
		t.Fatalf("unexpected status %+v", statuses[1])
	}
}

func TestReadinessStartupGrace(t *testing.T) {
	r := NewReadiness(200*time.Millisecond, 2*time.Second, stubProbe{name: "postgres"})
	ready, statuses := r.Check(context.Background())
	if ready {
		t.Fatal("expected unready during grace period")
	}
	if len(statuses) != 1 || statuses[0].Name != "startup_grace" {
		t.Fatalf("unexpected statuses: %+v", statuses)
	}
}

func TestReadinessDropsNilProbes(t *testing.T) {
	r := NewReadiness(200*time.Millisecond, 0, stubProbe{name: "postgres"}, nil)
	ready, statuses := r.Check(context.Background())
	if !ready || len(statuses) != 1 {
		t.Fatalf("nil probe should be skipped: ready=%v statuses=%+v", ready, statuses)
	}
}
