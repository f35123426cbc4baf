package backend

import (
	"context"

	"go.uber.org/zap"

	"github.com/caro-sh/caro/internal/domain"
	"github.com/caro-sh/caro/internal/ports"
)

// Ollama talks to a local-network Ollama daemon through its OpenAI-compatible
// chat endpoint. Authentication is optional; most deployments run without it.
type Ollama struct {
	remoteCore
	baseURL string
}

var _ ports.Backend = (*Ollama)(nil)

func NewOllama(settings domain.OllamaSettings, log *zap.Logger) *Ollama {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ollama{
		remoteCore: remoteCore{
			identity: domain.BackendIdentity{
				Kind:     domain.KindOllama,
				Name:     string(domain.KindOllama),
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

func (o *Ollama) Generate(ctx context.Context, req domain.CommandRequest) (domain.GeneratedCommand, error) {
	return o.generate(ctx, joinURL(o.baseURL, "/v1/chat/completions"), req)
}

// IsAvailable probes the daemon's tag listing, the cheapest endpoint Ollama
// exposes.
func (o *Ollama) IsAvailable(ctx context.Context) bool {
	return o.probe(ctx, joinURL(o.baseURL, "/api/tags"))
}
