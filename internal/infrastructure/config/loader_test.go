package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/caro-sh/caro/internal/domain"
)

func TestLoadWritesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	loader := NewFileLoader(path)

	cfg, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ollama.URL != "http://localhost:11434" {
		t.Errorf("ollama url = %q", cfg.Ollama.URL)
	}
	if cfg.Refine.MaxIterations != domain.DefaultMaxRefineIterations {
		t.Errorf("max iterations = %d", cfg.Refine.MaxIterations)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	// Second load reads the written file back.
	again, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if again.Ollama.URL != cfg.Ollama.URL {
		t.Error("reloaded config differs from written default")
	}
}

func TestLoadParsesUserFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
preferred_backend = "vllm"

[ollama]
url = "http://10.0.0.5:11434"
model = "codellama"

[vllm]
url = "https://inference.example.com"
model = "qwen2.5-coder"
credential_env = "MY_TOKEN"

[refine]
max_iterations = 4
confidence_threshold = 0.6
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewFileLoader(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PreferredBackend != domain.SelectVllm {
		t.Errorf("preferred backend = %q", cfg.PreferredBackend)
	}
	if cfg.Ollama.URL != "http://10.0.0.5:11434" || cfg.Ollama.Model != "codellama" {
		t.Errorf("ollama settings = %+v", cfg.Ollama)
	}
	if cfg.Vllm.CredentialEnv != "MY_TOKEN" {
		t.Errorf("vllm credential env = %q", cfg.Vllm.CredentialEnv)
	}
	if cfg.Refine.MaxIterations != 4 || cfg.Refine.ConfidenceThreshold != 0.6 {
		t.Errorf("refine settings = %+v", cfg.Refine)
	}
}

func TestLoadHydratesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("preferred_backend = \"ollama\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewFileLoader(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ollama.URL == "" || cfg.Ollama.Model == "" {
		t.Errorf("defaults not hydrated: %+v", cfg.Ollama)
	}
	if cfg.Refine.ConfidenceThreshold != domain.DefaultConfidenceThreshold {
		t.Errorf("confidence threshold = %v", cfg.Refine.ConfidenceThreshold)
	}
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("preferred_backend = [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileLoader(path).Load(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrideResolvesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alt.toml")
	t.Setenv("CARO_CONFIG", path)

	if _, err := NewFileLoader("").Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default not written to CARO_CONFIG path: %v", err)
	}
}
