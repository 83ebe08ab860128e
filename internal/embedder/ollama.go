package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OllamaEmbedder embeds text with a local Ollama server's /api/embed endpoint.
// It is safe for concurrent use.
type OllamaEmbedder struct {
	model string
	ep    endpoint
}

// OllamaConfig configures an OllamaEmbedder.
type OllamaConfig struct {
	// Host is the server base URL, e.g. "http://localhost:11434".
	Host string
	// Model is the embedding model, e.g. "nomic-embed-text".
	Model string
	// Timeout bounds one HTTP attempt. Zero means 60s; local models are slow
	// on the first call while they load.
	Timeout time.Duration
}

// NewOllamaEmbedder returns an embedder for cfg.
func NewOllamaEmbedder(cfg *OllamaConfig) *OllamaEmbedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaEmbedder{
		model: cfg.Model,
		ep: endpoint{
			client:   &http.Client{Timeout: timeout},
			url:      strings.TrimRight(cfg.Host, "/") + "/api/embed",
			attempts: defaultAttempts,
		},
	}
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// Embed returns one vector per text, in input order. An empty batch makes no
// request.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var out ollamaEmbedResponse
	if err := e.ep.post(ctx, ollamaEmbedRequest{Model: e.model, Input: texts}, &out); err != nil {
		return nil, fmt.Errorf("ollama embedder: %w", ollamaError(err))
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embedder: expected %d embeddings, got %d", len(texts), len(out.Embeddings))
	}
	return out.Embeddings, nil
}

// ollamaError adds the server's {"error": "..."} text to a status error.
func ollamaError(err error) error {
	var se *statusError
	if errors.As(err, &se) {
		var body ollamaEmbedResponse
		if json.Unmarshal(se.Body, &body) == nil && body.Error != "" {
			return fmt.Errorf("%s: %w", body.Error, err)
		}
	}
	return err
}
