// Package model provides the Ollama API client for local LLM access.
// Ollama exposes a generate endpoint at http://localhost:11434/api/generate.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nimbus-ai/nimbus/internal/errors"
)

// DefaultTimeout bounds every Ollama call. There is no retry: the assistant
// degrades to keyword routing on the raw input when the model is slow or down.
const DefaultTimeout = 10 * time.Second

// OllamaConfig configures the Ollama client.
type OllamaConfig struct {
	URL     string // e.g. http://localhost:11434/api/generate
	Model   string // e.g. "deepseek-r1:14b"
	Enabled bool
	Timeout time.Duration
}

// DefaultOllamaConfig returns the default configuration.
func DefaultOllamaConfig() *OllamaConfig {
	return &OllamaConfig{
		URL:     "http://localhost:11434/api/generate",
		Model:   "deepseek-r1:14b",
		Enabled: true,
		Timeout: DefaultTimeout,
	}
}

// OllamaClient implements Model against an Ollama generate endpoint.
type OllamaClient struct {
	cfg    *OllamaConfig
	client *http.Client
}

// NewOllamaClient creates a new Ollama client.
func NewOllamaClient(cfg *OllamaConfig) *OllamaClient {
	if cfg == nil {
		cfg = DefaultOllamaConfig()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &OllamaClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Generate sends a prompt to Ollama and returns the response.
func (c *OllamaClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	if c == nil || c.cfg == nil {
		return nil, errors.New(errors.CodeModelUnavailable, "ollama client not initialized", errors.CategorySystem)
	}

	if !c.IsAvailable() {
		return nil, errors.NewBuilder(errors.CodeModelUnavailable, "ollama is disabled").
			System().
			WithSuggestion("Set ollama_enabled to true in config.json").
			Build()
	}

	body := map[string]any{
		"model":  c.cfg.Model,
		"prompt": req.Prompt,
		"stream": false,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeModelInvalidResponse, "failed to marshal request", errors.CategoryPermanent)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNetworkUnavailable, "failed to create HTTP request", errors.CategoryExternal)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeModelTimeout, "ollama request failed", errors.CategoryExternal)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNetworkUnavailable, "failed to read response body", errors.CategoryExternal)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.External(errors.CodeModelUnavailable,
			fmt.Sprintf("ollama error (status %d): %s", resp.StatusCode, string(respBody)))
	}

	var ollamaResp ollamaResponse
	if err := json.Unmarshal(respBody, &ollamaResp); err != nil {
		return nil, errors.NewBuilder(errors.CodeModelInvalidResponse, "failed to parse ollama response").
			Permanent().
			Wrap(err).
			WithContext("response_body", string(respBody)).
			Build()
	}

	return &Response{
		Text:  ollamaResp.Response,
		Model: c.cfg.Model,
	}, nil
}

// IsAvailable reports whether the client is enabled and configured.
func (c *OllamaClient) IsAvailable() bool {
	return c != nil && c.cfg != nil && c.cfg.Enabled && c.cfg.URL != ""
}

// Name returns the model name.
func (c *OllamaClient) Name() string {
	if c.cfg != nil {
		return c.cfg.Model
	}
	return "ollama"
}

// Ping checks whether the Ollama endpoint answers at all; used by setup mode.
func (c *OllamaClient) Ping(ctx context.Context) error {
	if !c.IsAvailable() {
		return errors.New(errors.CodeModelUnavailable, "ollama is disabled", errors.CategorySystem)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CodeNetworkUnavailable, "ollama endpoint unreachable", errors.CategoryExternal)
	}
	resp.Body.Close()
	return nil
}

// ollamaResponse is the generate endpoint payload.
type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}
