// Package config loads the TOML configuration from
// ~/.config/caro/config.toml (overridable via CARO_CONFIG). A missing file is
// replaced with a written default so the first run leaves a file the user can
// edit.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/caro-sh/caro/internal/domain"
	"github.com/caro-sh/caro/internal/ports"
)

type FileLoader struct {
	overridePath string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

var _ ports.ConfigProvider = (*FileLoader)(nil)

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := defaultConfig()
			if err := writeDefault(path, cfg); err != nil {
				return domain.Config{}, err
			}
			return cfg, nil
		}
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}
	return hydrateDefaults(cfg), nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv("CARO_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(userConfigDir(), "caro", "config.toml")
}

func writeDefault(path string, cfg domain.Config) error {
	raw, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

func defaultConfig() domain.Config {
	return domain.Config{
		Ollama: domain.OllamaSettings{
			URL:   "http://localhost:11434",
			Model: "llama3.2",
		},
		Vllm: domain.VllmSettings{
			URL:           "http://localhost:8000",
			Model:         "qwen2.5-coder",
			CredentialEnv: "CARO_VLLM_TOKEN",
		},
		Refine: domain.RefineSettings{
			MaxIterations:       domain.DefaultMaxRefineIterations,
			ConfidenceThreshold: domain.DefaultConfidenceThreshold,
		},
	}
}

// hydrateDefaults fills gaps a hand-edited file may leave.
func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.Ollama.URL == "" {
		cfg.Ollama.URL = "http://localhost:11434"
	}
	if cfg.Ollama.Model == "" {
		cfg.Ollama.Model = "llama3.2"
	}
	if cfg.Vllm.Model == "" {
		cfg.Vllm.Model = "qwen2.5-coder"
	}
	if cfg.Refine.MaxIterations <= 0 {
		cfg.Refine.MaxIterations = domain.DefaultMaxRefineIterations
	}
	if cfg.Refine.ConfidenceThreshold <= 0 {
		cfg.Refine.ConfidenceThreshold = domain.DefaultConfidenceThreshold
	}
	if cfg.Safety.PatternsFile != "" {
		cfg.Safety.PatternsFile = expandPath(cfg.Safety.PatternsFile)
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(userHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return filepath.Join(userHomeDir(), ".config")
}

func userHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
