package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/caro-sh/caro/internal/domain"
	"github.com/caro-sh/caro/internal/ports"
)

// fakeBackend is a scriptable ports.Backend for orchestration tests.
type fakeBackend struct {
	mu        sync.Mutex
	identity  domain.BackendIdentity
	available bool
	result    domain.GeneratedCommand
	err       error
	generate  func(domain.CommandRequest) (domain.GeneratedCommand, error)

	probeCalls    int
	generateCalls int
	prompts       []string
}

var _ ports.Backend = (*fakeBackend)(nil)

func (f *fakeBackend) Generate(_ context.Context, req domain.CommandRequest) (domain.GeneratedCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateCalls++
	f.prompts = append(f.prompts, req.Prompt)
	if f.generate != nil {
		return f.generate(req)
	}
	if f.err != nil {
		return domain.GeneratedCommand{}, f.err
	}
	return f.result, nil
}

func (f *fakeBackend) IsAvailable(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeCalls++
	return f.available
}

func (f *fakeBackend) Identity() domain.BackendIdentity { return f.identity }
func (f *fakeBackend) Shutdown() error                  { return nil }

func newFake(kind domain.BackendKind, available bool) *fakeBackend {
	return &fakeBackend{
		identity:  domain.BackendIdentity{Kind: kind, Name: string(kind)},
		available: available,
		result:    domain.GeneratedCommand{Command: "out-" + string(kind), Confidence: 0.9},
	}
}

func testRequest() domain.CommandRequest {
	return domain.CommandRequest{Prompt: "list files", Shell: domain.ShellBash}
}

func TestGenerateUsesFirstHealthyBackend(t *testing.T) {
	ollama := newFake(domain.KindOllama, true)
	embedded := newFake(domain.KindEmbeddedCPU, true)
	o := NewOrchestrator([]ports.Backend{ollama, embedded}, nil)

	got, identity, warnings, err := o.Generate(context.Background(), testRequest(), "", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if identity.Kind != domain.KindOllama || got.Command != "out-ollama" {
		t.Errorf("used %s with %q", identity.Name, got.Command)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if embedded.generateCalls != 0 {
		t.Error("embedded engine consulted despite healthy first backend")
	}
}

func TestGenerateFallsBackToEmbedded(t *testing.T) {
	ollama := newFake(domain.KindOllama, false)
	vllm := newFake(domain.KindVllm, true)
	vllm.err = &domain.MalformedResponseError{Backend: "vllm", Detail: "garbage"}
	embedded := newFake(domain.KindEmbeddedCPU, true)
	o := NewOrchestrator([]ports.Backend{ollama, vllm, embedded}, nil)

	got, identity, warnings, err := o.Generate(context.Background(), testRequest(), "", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !identity.Kind.IsEmbedded() || got.Command != "out-embedded-cpu" {
		t.Errorf("expected embedded fallback, used %s", identity.Name)
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want one per failed backend", warnings)
	}
	for i, name := range []string{"ollama", "vllm"} {
		if !strings.Contains(warnings[i], name) {
			t.Errorf("warning %d = %q, should name %s", i, warnings[i], name)
		}
	}
}

func TestGenerateAllFailTypedError(t *testing.T) {
	ollama := newFake(domain.KindOllama, false)
	vllm := newFake(domain.KindVllm, false)
	o := NewOrchestrator([]ports.Backend{ollama, vllm}, nil)

	_, _, _, err := o.Generate(context.Background(), testRequest(), "", "")

	var none *domain.NoBackendsAvailableError
	if !errors.As(err, &none) {
		t.Fatalf("error = %v, want NoBackendsAvailableError", err)
	}
	if len(none.Attempts) != 2 {
		t.Errorf("attempts = %d, want one per backend", len(none.Attempts))
	}
}

func TestGenerateOverrideFloatsFamilyToFront(t *testing.T) {
	ollama := newFake(domain.KindOllama, true)
	vllm := newFake(domain.KindVllm, true)
	embedded := newFake(domain.KindEmbeddedCPU, true)
	o := NewOrchestrator([]ports.Backend{ollama, vllm, embedded}, nil)

	_, identity, _, err := o.Generate(context.Background(), testRequest(), domain.SelectVllm, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if identity.Kind != domain.KindVllm {
		t.Errorf("override ignored, used %s", identity.Name)
	}
}

func TestGenerateOverrideStillFallsBack(t *testing.T) {
	ollama := newFake(domain.KindOllama, true)
	vllm := newFake(domain.KindVllm, false)
	embedded := newFake(domain.KindEmbeddedCPU, true)
	o := NewOrchestrator([]ports.Backend{ollama, vllm, embedded}, nil)

	_, identity, warnings, err := o.Generate(context.Background(), testRequest(), domain.SelectVllm, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if identity.Kind != domain.KindOllama {
		t.Errorf("expected fallback past dead override, used %s", identity.Name)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "vllm") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestGeneratePreferredBackendOrdering(t *testing.T) {
	ollama := newFake(domain.KindOllama, true)
	vllm := newFake(domain.KindVllm, true)
	o := NewOrchestrator([]ports.Backend{ollama, vllm}, nil)

	_, identity, _, err := o.Generate(context.Background(), testRequest(), "", domain.SelectVllm)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if identity.Kind != domain.KindVllm {
		t.Errorf("persisted preference ignored, used %s", identity.Name)
	}
}

func TestHealthCacheSuppressesProbesWithinTTL(t *testing.T) {
	ollama := newFake(domain.KindOllama, true)
	o := NewOrchestrator([]ports.Backend{ollama}, nil)

	now := time.Now()
	o.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if _, _, _, err := o.Generate(context.Background(), testRequest(), "", ""); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}
	if ollama.probeCalls != 1 {
		t.Errorf("probe calls = %d, want 1 within TTL", ollama.probeCalls)
	}

	// Past the TTL the next call probes again.
	now = now.Add(domain.HealthTTL + time.Second)
	if _, _, _, err := o.Generate(context.Background(), testRequest(), "", ""); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ollama.probeCalls != 2 {
		t.Errorf("probe calls = %d, want re-probe after TTL", ollama.probeCalls)
	}
}

func TestGenerationFailureMarksBackendUnhealthy(t *testing.T) {
	ollama := newFake(domain.KindOllama, true)
	ollama.err = &domain.BackendUnavailableError{Backend: "ollama", Reason: "connection failed"}
	embedded := newFake(domain.KindEmbeddedCPU, true)
	o := NewOrchestrator([]ports.Backend{ollama, embedded}, nil)

	if _, _, _, err := o.Generate(context.Background(), testRequest(), "", ""); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	status := o.Health()["ollama"]
	if status.State != domain.HealthUnavailable {
		t.Errorf("health state = %s, want unavailable", status.State)
	}

	// Within the TTL the failed backend is skipped without another attempt.
	before := ollama.generateCalls
	if _, identity, _, err := o.Generate(context.Background(), testRequest(), "", ""); err != nil {
		t.Fatalf("Generate: %v", err)
	} else if !identity.Kind.IsEmbedded() {
		t.Errorf("used %s, want embedded", identity.Name)
	}
	if ollama.generateCalls != before {
		t.Error("unhealthy backend retried within TTL")
	}
}
