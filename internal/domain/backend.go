package domain

import "time"

// BackendKind enumerates the generation engines caro can drive.
type BackendKind string

const (
	KindEmbeddedGPU BackendKind = "embedded-gpu"
	KindEmbeddedCPU BackendKind = "embedded-cpu"
	KindOllama      BackendKind = "ollama"
	KindVllm        BackendKind = "vllm"
)

// IsEmbedded reports whether the kind is one of the embedded variants.
func (k BackendKind) IsEmbedded() bool {
	return k == KindEmbeddedGPU || k == KindEmbeddedCPU
}

// BackendSelector names a backend family for override and preference
// purposes ("embedded", "ollama", "vllm"). Empty means no selection.
type BackendSelector string

const (
	SelectEmbedded BackendSelector = "embedded"
	SelectOllama   BackendSelector = "ollama"
	SelectVllm     BackendSelector = "vllm"
)

// Matches reports whether the selector covers the given kind.
func (s BackendSelector) Matches(kind BackendKind) bool {
	switch s {
	case SelectEmbedded:
		return kind.IsEmbedded()
	case SelectOllama:
		return kind == KindOllama
	case SelectVllm:
		return kind == KindVllm
	default:
		return false
	}
}

// BackendIdentity is the static descriptor of a backend instance.
// Endpoint is empty for the embedded variants.
type BackendIdentity struct {
	Kind     BackendKind
	Name     string
	Endpoint string
}

// HealthState classifies a backend's cached liveness.
type HealthState string

const (
	HealthHealthy     HealthState = "healthy"
	HealthDegraded    HealthState = "degraded"
	HealthUnavailable HealthState = "unavailable"
)

// HealthStatus is a per-backend liveness cache entry. Owned exclusively by
// the orchestrator; backends report outcomes, the orchestrator writes status.
type HealthStatus struct {
	State       HealthState
	LastChecked time.Time
	Latency     time.Duration
}

// Fresh reports whether the entry is still within the given TTL.
func (h HealthStatus) Fresh(now time.Time, ttl time.Duration) bool {
	return !h.LastChecked.IsZero() && now.Sub(h.LastChecked) < ttl
}

// RetryPolicy controls how a remote backend retries before surfacing failure.
type RetryPolicy struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	BackoffMultiplier float64
}

// DefaultRetryPolicy is the remote-backend default: one initial attempt plus
// two retries with exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		BaseDelay:         500 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

// Delay returns the backoff delay before the given attempt (1-based).
// Attempt 1 has no delay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	delay := p.BaseDelay
	for i := 2; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.BackoffMultiplier)
	}
	return delay
}
