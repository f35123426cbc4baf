package backend

import (
	"context"
	"runtime"
	"testing"

	"github.com/caro-sh/caro/internal/domain"
)

func TestEmbeddedAlwaysAvailable(t *testing.T) {
	e := NewEmbedded(nil)
	if !e.IsAvailable(context.Background()) {
		t.Fatal("embedded engine must always report available")
	}
}

func TestEmbeddedVariantMatchesHost(t *testing.T) {
	e := NewEmbedded(nil)
	want := domain.KindEmbeddedCPU
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		want = domain.KindEmbeddedGPU
	}
	if got := e.Identity().Kind; got != want {
		t.Fatalf("identity kind = %s, want %s", got, want)
	}
}

func TestEmbeddedRuleMatch(t *testing.T) {
	e := NewEmbedded(nil)
	got, err := e.Generate(context.Background(), domain.CommandRequest{
		Prompt: "list all files modified today",
		Shell:  domain.ShellBash,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.Command != "find . -type f -mtime 0" {
		t.Errorf("command = %q", got.Command)
	}
	if got.Confidence != embeddedRuleConfidence {
		t.Errorf("confidence = %v, want %v", got.Confidence, embeddedRuleConfidence)
	}
}

func TestEmbeddedRuleMatchVariantPhrasing(t *testing.T) {
	e := NewEmbedded(nil)
	got, err := e.Generate(context.Background(), domain.CommandRequest{
		Prompt: "show me all files that were modified today",
		Shell:  domain.ShellBash,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.Command != "find . -type f -mtime 0" {
		t.Errorf("command = %q", got.Command)
	}
}

func TestEmbeddedFallbackHasLowConfidence(t *testing.T) {
	e := NewEmbedded(nil)
	got, err := e.Generate(context.Background(), domain.CommandRequest{
		Prompt: "compile my rust project",
		Shell:  domain.ShellBash,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.Command == "" {
		t.Fatal("fallback must still produce a command")
	}
	if got.Confidence != embeddedFallbackConfidence {
		t.Errorf("confidence = %v, want %v", got.Confidence, embeddedFallbackConfidence)
	}
}

func TestEmbeddedPlatformVariantSelection(t *testing.T) {
	e := NewEmbedded(nil)
	darwin := &domain.PlatformContext{OS: "darwin", Architecture: "arm64"}
	got, err := e.Generate(context.Background(), domain.CommandRequest{
		Prompt:   "show processes using the most cpu",
		Shell:    domain.ShellZsh,
		Platform: darwin,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.Command != "ps aux -r | head -10" {
		t.Errorf("darwin variant not selected: %q", got.Command)
	}

	linux := &domain.PlatformContext{OS: "linux", Architecture: "amd64"}
	got, err = e.Generate(context.Background(), domain.CommandRequest{
		Prompt:   "show processes using the most cpu",
		Shell:    domain.ShellBash,
		Platform: linux,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.Command != "ps aux --sort=-%cpu | head -10" {
		t.Errorf("linux variant not selected: %q", got.Command)
	}
}

func TestEmbeddedHonorsCancelledContext(t *testing.T) {
	e := NewEmbedded(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Generate(ctx, domain.CommandRequest{Prompt: "list files"}); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
