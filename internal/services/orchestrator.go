// Package services implements the use-cases behind the CLI: backend
// orchestration with health-aware fallback, confidence-driven refinement,
// and the end-to-end prompt-to-verdict pipeline.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/caro-sh/caro/internal/domain"
	"github.com/caro-sh/caro/internal/ports"
)

// Orchestrator owns backend selection. It holds the ordered backend set, a
// TTL health cache it alone writes to, and a singleflight group so
// concurrent callers share one probe per backend.
type Orchestrator struct {
	backends []ports.Backend
	log      *zap.Logger

	mu     sync.Mutex
	health map[string]domain.HealthStatus

	probes singleflight.Group
	now    func() time.Time
}

// NewOrchestrator builds an orchestrator over the given backends. The slice
// order is the default fallback order; the embedded engine belongs last so
// it remains the floor of every chain.
func NewOrchestrator(backends []ports.Backend, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		backends: backends,
		log:      log,
		health:   make(map[string]domain.HealthStatus),
		now:      time.Now,
	}
}

// Generate walks the selection chain for the request and returns the first
// successful draft, the identity of the backend that produced it, and one
// warning per backend that was skipped or failed along the way.
func (o *Orchestrator) Generate(
	ctx context.Context,
	req domain.CommandRequest,
	override domain.BackendSelector,
	preferred domain.BackendSelector,
) (domain.GeneratedCommand, domain.BackendIdentity, []string, error) {
	chain := o.chain(override, preferred)

	var (
		warnings []string
		attempts []domain.BackendFailure
	)
	for _, backend := range chain {
		identity := backend.Identity()

		if !o.available(ctx, backend) {
			err := &domain.BackendUnavailableError{Backend: identity.Name, Reason: "health probe failed"}
			attempts = append(attempts, domain.BackendFailure{Backend: identity.Name, Err: err})
			warnings = append(warnings, fmt.Sprintf("backend %s unavailable, trying next", identity.Name))
			continue
		}

		start := o.now()
		result, err := backend.Generate(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return domain.GeneratedCommand{}, domain.BackendIdentity{}, warnings, err
			}
			o.recordHealth(identity.Name, domain.HealthUnavailable, o.now().Sub(start))
			attempts = append(attempts, domain.BackendFailure{Backend: identity.Name, Err: err})
			warnings = append(warnings, fmt.Sprintf("backend %s failed: %v", identity.Name, err))
			o.log.Warn("backend generation failed",
				zap.String("backend", identity.Name),
				zap.Error(err),
			)
			continue
		}

		o.recordHealth(identity.Name, domain.HealthHealthy, o.now().Sub(start))
		return result, identity, warnings, nil
	}

	return domain.GeneratedCommand{}, domain.BackendIdentity{}, warnings,
		&domain.NoBackendsAvailableError{Attempts: attempts}
}

// chain orders the backends for one request. An explicit override floats its
// family to the front, then the persisted preference, then the configured
// order. Nothing is removed: a failing override still falls through to the
// rest of the chain, and the embedded engine stays last.
func (o *Orchestrator) chain(override, preferred domain.BackendSelector) []ports.Backend {
	ordered := make([]ports.Backend, 0, len(o.backends))
	used := make(map[string]bool, len(o.backends))

	take := func(selector domain.BackendSelector) {
		if selector == "" {
			return
		}
		for _, b := range o.backends {
			identity := b.Identity()
			if used[identity.Name] || !selector.Matches(identity.Kind) {
				continue
			}
			ordered = append(ordered, b)
			used[identity.Name] = true
		}
	}

	take(override)
	take(preferred)
	for _, b := range o.backends {
		if !used[b.Identity().Name] {
			ordered = append(ordered, b)
		}
	}
	return ordered
}

// available answers from the health cache when the entry is fresh, otherwise
// probes the backend. Concurrent callers for the same backend share a single
// probe through the singleflight group.
func (o *Orchestrator) available(ctx context.Context, backend ports.Backend) bool {
	name := backend.Identity().Name

	o.mu.Lock()
	status, ok := o.health[name]
	o.mu.Unlock()
	if ok && status.Fresh(o.now(), domain.HealthTTL) {
		return status.State != domain.HealthUnavailable
	}

	alive, _, _ := o.probes.Do(name, func() (any, error) {
		start := o.now()
		up := backend.IsAvailable(ctx)
		state := domain.HealthHealthy
		if !up {
			state = domain.HealthUnavailable
		}
		o.recordHealth(name, state, o.now().Sub(start))
		return up, nil
	})
	return alive.(bool)
}

// recordHealth is the cache's single write path.
func (o *Orchestrator) recordHealth(name string, state domain.HealthState, latency time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.health[name] = domain.HealthStatus{
		State:       state,
		LastChecked: o.now(),
		Latency:     latency,
	}
}

// Health returns a snapshot of the cache for diagnostics.
func (o *Orchestrator) Health() map[string]domain.HealthStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]domain.HealthStatus, len(o.health))
	for k, v := range o.health {
		out[k] = v
	}
	return out
}

// Backends exposes the configured backends for diagnostics.
func (o *Orchestrator) Backends() []ports.Backend {
	return o.backends
}

// Shutdown releases every backend. The first error wins; later backends are
// still shut down.
func (o *Orchestrator) Shutdown() error {
	var first error
	for _, b := range o.backends {
		if err := b.Shutdown(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
