// Package embedder implements rag.Embedder for the backends used to embed
// paper chunks and search queries: Ollama, OpenAI and Azure OpenAI. Each talks
// to its REST API over plain HTTP.
package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// OpenAIEmbedder embeds text with the OpenAI or Azure OpenAI embeddings API.
// It is safe for concurrent use.
type OpenAIEmbedder struct {
	model      string
	dimensions int
	ep         endpoint
}

// OpenAIConfig configures an OpenAIEmbedder.
type OpenAIConfig struct {
	// BaseURL is "https://api.openai.com/v1" for OpenAI or
	// "https://<resource>.openai.azure.com/openai" for Azure.
	BaseURL string
	APIKey  string
	// Model is the model name, or the deployment name on Azure.
	Model string
	// Dimensions truncates vectors server-side. Zero keeps the model default.
	Dimensions int
	// Azure switches to deployment URLs and the api-key header.
	Azure bool
	// APIVersion is required on Azure, e.g. "2025-04-01-preview".
	APIVersion string
	// Timeout bounds one HTTP attempt. Zero means 30s.
	Timeout time.Duration
}

// NewOpenAIEmbedder returns an embedder for cfg.
func NewOpenAIEmbedder(cfg *OpenAIConfig) *OpenAIEmbedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	target := base + "/embeddings"
	header := http.Header{}
	if cfg.Azure {
		target = base + "/deployments/" + url.PathEscape(cfg.Model) + "/embeddings?api-version=" + url.QueryEscape(cfg.APIVersion)
		header.Set("api-key", cfg.APIKey)
	} else {
		header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	return &OpenAIEmbedder{
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		ep: endpoint{
			client:   &http.Client{Timeout: timeout},
			url:      target,
			header:   header,
			attempts: defaultAttempts,
		},
	}
}

type openaiEmbedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openaiEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed returns one vector per text, in input order. An empty batch makes no
// request.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var out openaiEmbedResponse
	in := openaiEmbedRequest{Input: texts, Model: e.model, Dimensions: e.dimensions}
	if err := e.ep.post(ctx, in, &out); err != nil {
		return nil, fmt.Errorf("openai embedder: %w", openaiError(err))
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("openai embedder: expected %d embeddings, got %d", len(texts), len(out.Data))
	}

	// Data is not guaranteed to arrive in input order.
	vecs := make([][]float32, len(texts))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("openai embedder: index %d out of range [0, %d)", d.Index, len(texts))
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

// openaiError adds the API's error.message to a status error.
func openaiError(err error) error {
	var se *statusError
	if errors.As(err, &se) {
		var body openaiEmbedResponse
		if json.Unmarshal(se.Body, &body) == nil && body.Error != nil && body.Error.Message != "" {
			return fmt.Errorf("%s: %w", body.Error.Message, err)
		}
	}
	return err
}
