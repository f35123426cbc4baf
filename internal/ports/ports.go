// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and
// external adapters (infrastructure). The application depends on these
// abstractions, never on concrete backends, parsers, or stores.
package ports

import (
	"context"
	"time"

	"github.com/caro-sh/caro/internal/domain"
)

// Backend is the uniform capability contract every command-generation engine
// implements. Generate must never execute the resulting command or apply
// safety classification; validation is the SafetyValidator's job alone.
type Backend interface {
	// Generate produces a draft command for the request.
	Generate(ctx context.Context, req domain.CommandRequest) (domain.GeneratedCommand, error)
	// IsAvailable is a cheap, best-effort liveness probe.
	IsAvailable(ctx context.Context) bool
	// Identity returns the static descriptor of this backend instance.
	Identity() domain.BackendIdentity
	// Shutdown releases held resources. Idempotent.
	Shutdown() error
}

// SafetyValidator classifies a candidate command string by risk before it
// reaches a human or an executor.
type SafetyValidator interface {
	Validate(command string, shell domain.ShellType) domain.SafetyVerdict
}

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.config/caro/config.toml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// PlatformDetector supplies platform facts (OS, shell, utilities) for
// prompt construction and refinement.
type PlatformDetector interface {
	Detect(context.Context) domain.PlatformContext
}

// AuditEntry is one generated command plus its verdict, recorded by the CLI
// layer after processing. The core itself never persists verdicts.
type AuditEntry struct {
	ID          string
	Timestamp   time.Time
	Prompt      string
	Command     string
	Backend     string
	RiskLevel   domain.RiskLevel
	Allowed     bool
	Explanation string
	DurationMS  int64
}

// AuditRepository persists audit entries for `caro history`.
type AuditRepository interface {
	Record(ctx context.Context, entry AuditEntry) error
	Recent(ctx context.Context, limit int) ([]AuditEntry, error)
	Close() error
}
