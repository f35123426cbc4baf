package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/caro-sh/caro/internal/domain"
	"github.com/caro-sh/caro/internal/ports"
)

// ProcessRequest is one natural-language request entering the pipeline.
type ProcessRequest struct {
	Prompt string
	// Shell overrides the detected login shell when set.
	Shell domain.ShellType
	// BackendOverride forces a backend family for this request only.
	BackendOverride domain.BackendSelector
	// SkipRefine disables the refinement loop.
	SkipRefine bool
}

// ProcessResult carries everything the presentation layer needs: the final
// command, its safety verdict, which backend produced it, and any warnings
// accumulated while falling back.
type ProcessResult struct {
	RequestID   string
	Command     string
	Explanation string
	Confidence  float64
	Verdict     domain.SafetyVerdict
	Backend     domain.BackendIdentity
	Warnings    []string
	Iterations  int
	Duration    time.Duration
}

// Service wires the pipeline: configuration, platform detection, backend
// orchestration, refinement, safety validation, and audit recording.
type Service struct {
	Config       ports.ConfigProvider
	Detector     ports.PlatformDetector
	Validator    ports.SafetyValidator
	Orchestrator *Orchestrator
	Refiner      *Refiner
	Audit        ports.AuditRepository
	Logger       *zap.Logger
}

// Process runs one request end-to-end. Validation happens after generation
// and refinement; a blocked command still returns a full result so the
// caller can explain the verdict.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (ProcessResult, error) {
	if s.Config == nil || s.Detector == nil || s.Validator == nil || s.Orchestrator == nil {
		return ProcessResult{}, fmt.Errorf("services.Service dependencies not satisfied")
	}
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}

	start := time.Now()
	requestID := uuid.NewString()

	cfg, err := s.Config.Load(ctx)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("load config: %w", err)
	}

	platform := s.Detector.Detect(ctx)
	shell := req.Shell
	if shell == "" {
		shell = platform.Shell
	}

	cmdReq := domain.CommandRequest{
		Prompt:   req.Prompt,
		Shell:    shell,
		Platform: &platform,
	}

	draft, identity, warnings, err := s.Orchestrator.Generate(ctx, cmdReq, req.BackendOverride, cfg.PreferredBackend)
	if err != nil {
		return ProcessResult{RequestID: requestID, Warnings: warnings}, err
	}

	iterations := 0
	if s.Refiner != nil && !req.SkipRefine {
		if backend := s.backendByName(identity.Name); backend != nil {
			draft, iterations = s.Refiner.Refine(ctx, backend, cmdReq, draft)
		}
	}

	verdict := s.Validator.Validate(draft.Command, shell)
	duration := time.Since(start)

	log.Info("request processed",
		zap.String("request_id", requestID),
		zap.String("backend", identity.Name),
		zap.String("risk", verdict.Level.String()),
		zap.Bool("allowed", verdict.Allowed),
		zap.Int("refine_iterations", iterations),
		zap.Duration("duration", duration),
	)

	if s.Audit != nil {
		entry := ports.AuditEntry{
			ID:          requestID,
			Timestamp:   start.UTC(),
			Prompt:      req.Prompt,
			Command:     draft.Command,
			Backend:     identity.Name,
			RiskLevel:   verdict.Level,
			Allowed:     verdict.Allowed,
			Explanation: verdict.Explanation,
			DurationMS:  duration.Milliseconds(),
		}
		if err := s.Audit.Record(ctx, entry); err != nil {
			log.Warn("audit record failed", zap.Error(err))
		}
	}

	return ProcessResult{
		RequestID:   requestID,
		Command:     draft.Command,
		Explanation: draft.Explanation,
		Confidence:  draft.Confidence,
		Verdict:     verdict,
		Backend:     identity,
		Warnings:    warnings,
		Iterations:  iterations,
		Duration:    duration,
	}, nil
}

func (s *Service) backendByName(name string) ports.Backend {
	for _, b := range s.Orchestrator.Backends() {
		if b.Identity().Name == name {
			return b
		}
	}
	return nil
}
