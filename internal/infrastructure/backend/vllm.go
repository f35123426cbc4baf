package backend

import (
	"context"

	"go.uber.org/zap"

	"github.com/caro-sh/caro/internal/domain"
	"github.com/caro-sh/caro/internal/ports"
)

// Vllm talks to a vLLM server. Unlike Ollama these deployments normally sit
// behind bearer auth, resolved from the configured environment variable.
type Vllm struct {
	remoteCore
	baseURL string
}

var _ ports.Backend = (*Vllm)(nil)

func NewVllm(settings domain.VllmSettings, log *zap.Logger) *Vllm {
	if log == nil {
		log = zap.NewNop()
	}
	return &Vllm{
		remoteCore: remoteCore{
			identity: domain.BackendIdentity{
				Kind:     domain.KindVllm,
				Name:     string(domain.KindVllm),
				Endpoint: settings.URL,
			},
			client:        newRemoteClient(),
			policy:        domain.DefaultRetryPolicy(),
			model:         settings.Model,
			credentialEnv: settings.CredentialEnv,
			log:           log,
		},
		baseURL: settings.URL,
	}
}

func (v *Vllm) Generate(ctx context.Context, req domain.CommandRequest) (domain.GeneratedCommand, error) {
	return v.generate(ctx, joinURL(v.baseURL, "/v1/chat/completions"), req)
}

func (v *Vllm) IsAvailable(ctx context.Context) bool {
	return v.probe(ctx, joinURL(v.baseURL, "/v1/models"))
}
