package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/caro-sh/caro/internal/domain"
)

const remoteMaxTokens = 512

// remoteCore holds the plumbing shared by the HTTP backends: the client
// with its connect/total budgets, the retry policy, and credential lookup.
type remoteCore struct {
	identity domain.BackendIdentity
	client   *http.Client
	policy   domain.RetryPolicy
	model    string
	// credentialEnv names the environment variable holding a bearer token.
	// Empty means unauthenticated (the local-network default).
	credentialEnv string
	log           *zap.Logger
}

func (c *remoteCore) Identity() domain.BackendIdentity { return c.identity }

// Shutdown implements ports.Backend. Safe to call repeatedly.
func (c *remoteCore) Shutdown() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *remoteCore) bearer() string {
	if c.credentialEnv == "" {
		return ""
	}
	return os.Getenv(c.credentialEnv)
}

// generate runs the chat call under the retry policy.
func (c *remoteCore) generate(ctx context.Context, endpoint string, req domain.CommandRequest) (domain.GeneratedCommand, error) {
	payload := chatRequest{
		Model:     c.model,
		Messages:  buildMessages(req),
		MaxTokens: remoteMaxTokens,
		Stream:    false,
	}
	return withRetry(ctx, c.policy, c.log, c.identity.Name, func(ctx context.Context) (domain.GeneratedCommand, error) {
		return c.generateOnce(ctx, endpoint, payload)
	})
}

func (c *remoteCore) generateOnce(ctx context.Context, endpoint string, payload chatRequest) (domain.GeneratedCommand, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.GeneratedCommand{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.GeneratedCommand{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token := c.bearer(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return domain.GeneratedCommand{}, c.translateTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return domain.GeneratedCommand{}, &domain.BackendUnavailableError{
			Backend: c.identity.Name,
			Reason:  fmt.Sprintf("service responded %s", resp.Status),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.GeneratedCommand{}, c.translateTransportError(err)
	}

	decoded, err := decodeChat(raw)
	if err != nil {
		return domain.GeneratedCommand{}, &domain.MalformedResponseError{
			Backend: c.identity.Name,
			Detail:  err.Error(),
		}
	}

	content := decoded.FirstMessage()
	if content == "" {
		return domain.GeneratedCommand{}, &domain.MalformedResponseError{
			Backend: c.identity.Name,
			Detail:  "empty completion",
		}
	}

	command, explanation := extractCommand(content)
	if command == "" {
		return domain.GeneratedCommand{}, &domain.MalformedResponseError{
			Backend: c.identity.Name,
			Detail:  "no command in completion",
		}
	}
	if explanation == "" {
		explanation = fmt.Sprintf("Generated by %s (%s)", c.identity.Name, c.model)
	}

	return domain.GeneratedCommand{
		Command:     command,
		Explanation: explanation,
		Confidence:  0.9,
	}, nil
}

// translateTransportError maps raw transport failures into the error
// taxonomy so callers never see a bare connection string.
func (c *remoteCore) translateTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return &domain.GenerationTimeoutError{
			Backend: c.identity.Name,
			Budget:  domain.RemoteTotalLimit,
		}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &domain.BackendUnavailableError{
		Backend: c.identity.Name,
		Reason:  "connection failed",
		Err:     err,
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// probe issues a cheap GET against a service endpoint with the short probe
// budget. Best effort: any 2xx-4xx response counts as alive.
func (c *remoteCore) probe(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, domain.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}
