// Package app wires application services with infrastructure adapters.
package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/caro-sh/caro/internal/infrastructure/backend"
	"github.com/caro-sh/caro/internal/infrastructure/config"
	"github.com/caro-sh/caro/internal/infrastructure/history"
	"github.com/caro-sh/caro/internal/infrastructure/platform"
	"github.com/caro-sh/caro/internal/infrastructure/safety"
	"github.com/caro-sh/caro/internal/pkg/logger"
	"github.com/caro-sh/caro/internal/ports"
	"github.com/caro-sh/caro/internal/services"
)

// Container holds the dependency graph behind the CLI.
type Container struct {
	Service      *services.Service
	Orchestrator *services.Orchestrator
	Config       ports.ConfigProvider
	Audit        ports.AuditRepository
	Registry     *safety.Registry
	Logger       *zap.Logger
}

// BuildContainer constructs the dependency graph. The remote backends are
// ordered before the embedded engine so the fallback chain always ends at
// something that cannot refuse.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	log, err := logger.New(verbose)
	if err != nil {
		return nil, err
	}

	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	registry, err := safety.NewRegistry(cfg.Safety.PatternsFile)
	if err != nil {
		return nil, err
	}
	validator := safety.NewValidator(registry, log)

	backends := []ports.Backend{
		backend.NewOllama(cfg.Ollama, log),
		backend.NewVllm(cfg.Vllm, log),
		backend.NewEmbedded(log),
	}
	orchestrator := services.NewOrchestrator(backends, log)

	audit := newAuditRepository("", log)

	svc := &services.Service{
		Config:       cfgLoader,
		Detector:     platform.NewDetector(),
		Validator:    validator,
		Orchestrator: orchestrator,
		Refiner:      services.NewRefiner(cfg.Refine, log),
		Audit:        audit,
		Logger:       log,
	}

	return &Container{
		Service:      svc,
		Orchestrator: orchestrator,
		Config:       cfgLoader,
		Audit:        audit,
		Registry:     registry,
		Logger:       log,
	}, nil
}

// newAuditRepository opens the audit store at path (empty means the default
// location). A failure degrades to no audit trail: the returned interface is
// nil, never a wrapped nil pointer, so nil checks downstream stay honest.
func newAuditRepository(path string, log *zap.Logger) ports.AuditRepository {
	store, err := history.NewAuditStore(path)
	if err != nil {
		log.Warn("audit store unavailable", zap.Error(err))
		return nil
	}
	return store
}

// Close releases backends and storage.
func (c *Container) Close() error {
	err := c.Orchestrator.Shutdown()
	if c.Audit != nil {
		if cerr := c.Audit.Close(); err == nil {
			err = cerr
		}
	}
	_ = c.Logger.Sync()
	return err
}
