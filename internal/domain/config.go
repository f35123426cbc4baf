package domain

import "time"

// Config mirrors ~/.config/caro/config.toml.
type Config struct {
	PreferredBackend BackendSelector `toml:"preferred_backend"`
	Ollama           OllamaSettings  `toml:"ollama"`
	Vllm             VllmSettings    `toml:"vllm"`
	Safety           SafetySettings  `toml:"safety"`
	Refine           RefineSettings  `toml:"refine"`
}

// OllamaSettings configures the local-network backend.
type OllamaSettings struct {
	URL   string `toml:"url"`
	Model string `toml:"model"`
	// CredentialEnv names an environment variable holding a bearer token.
	// Usually empty for a local Ollama daemon.
	CredentialEnv string `toml:"credential_env"`
}

// VllmSettings configures the service-API backend.
type VllmSettings struct {
	URL           string `toml:"url"`
	Model         string `toml:"model"`
	CredentialEnv string `toml:"credential_env"`
}

// SafetySettings defines validator behavior.
type SafetySettings struct {
	// PatternsFile optionally points at a YAML file of custom danger
	// patterns merged into the registry at startup.
	PatternsFile string `toml:"patterns_file"`
}

// RefineSettings controls the refinement loop.
type RefineSettings struct {
	MaxIterations       int     `toml:"max_iterations"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
}

// Timing constants shared across the orchestrator and backends.
const (
	HealthTTL          = 60 * time.Second
	ProbeTimeout       = 2 * time.Second
	RemoteConnectLimit = 5 * time.Second
	RemoteTotalLimit   = 30 * time.Second

	DefaultMaxRefineIterations = 2
	DefaultConfidenceThreshold = 0.8
)
