package health

import (
	"context"
	"time"

	"github.com/harvesthub/harvesthub-api/internal/observability"
)

// Probe is a single dependency the API needs before serving traffic.
type Probe interface {
	Name() string
	Ping(ctx context.Context) error
}

type ProbeStatus struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// Readiness runs every registered probe with a per-probe timeout. A grace
// period right after boot reports unready so load balancers wait for
// migrations and cache warmup.
type Readiness struct {
	probes  []Probe
	timeout time.Duration
	grace   time.Duration
	started time.Time
}

func NewReadiness(timeout, grace time.Duration, probes ...Probe) *Readiness {
	if timeout <= 0 {
		timeout = time.Second
	}
	active := make([]Probe, 0, len(probes))
	for _, p := range probes {
		if p != nil {
			active = append(active, p)
		}
	}
	return &Readiness{
		probes:  active,
		timeout: timeout,
		grace:   grace,
		started: time.Now(),
	}
}

func (r *Readiness) Check(ctx context.Context) (bool, []ProbeStatus) {
	if r == nil {
		return true, nil
	}
	if r.grace > 0 && time.Since(r.started) < r.grace {
		return false, []ProbeStatus{{Name: "startup_grace", Error: "startup grace period active"}}
	}

	statuses := make([]ProbeStatus, 0, len(r.probes))
	ready := true
	for _, p := range r.probes {
		probeCtx, cancel := context.WithTimeout(ctx, r.timeout)
		start := time.Now()
		err := p.Ping(probeCtx)
		cancel()
		observability.RecordHealthCheckDuration(ctx, p.Name(), time.Since(start))

		status := ProbeStatus{Name: p.Name(), Healthy: err == nil}
		if err != nil {
			status.Error = err.Error()
			ready = false
			observability.RecordHealthCheckResult(ctx, p.Name(), "unhealthy")
		} else {
			observability.RecordHealthCheckResult(ctx, p.Name(), "healthy")
		}
		statuses = append(statuses, status)
	}
	return ready, statuses
}
