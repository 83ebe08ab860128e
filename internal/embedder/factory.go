package embedder

import (
	"fmt"
	"strings"
	"time"

	"github.com/54b3r/sbke-go/internal/config"
	"github.com/54b3r/sbke-go/internal/rag"
)

// Embedding backends.
const (
	backendOllama = "ollama"
	backendOpenAI = "openai"
	backendAzure  = "azure"
)

// Per-backend defaults. The Qdrant collection is created with the default
// dimensions on first run, so a different model needs EMBEDDING_DIMENSIONS.
const (
	defaultOllamaModel      = "nomic-embed-text"
	defaultOpenAIModel      = "text-embedding-3-small"
	defaultOllamaDimensions = 768
	defaultOpenAIDimensions = 1536
	defaultAzureAPIVersion  = "2025-04-01-preview"
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultOllamaHost       = "http://localhost:11434"
)

// settings is the embedding configuration resolved from the environment.
// EMBEDDING_* variables override whatever the chat provider's variables say.
type settings struct {
	backend    string
	model      string
	apiKey     string
	endpoint   string
	apiVersion string
	dimensions int
	timeout    time.Duration
}

// resolve reads the embedding settings for the active backend.
func resolve() settings {
	s := settings{
		backend:    resolveBackend(),
		apiKey:     config.String("EMBEDDING_API_KEY", ""),
		endpoint:   config.String("EMBEDDING_ENDPOINT", ""),
		apiVersion: config.String("AZURE_OPENAI_API_VERSION", defaultAzureAPIVersion),
		timeout:    config.Duration("EMBEDDING_TIMEOUT", 0),
	}

	switch s.backend {
	case backendOllama:
		s.model = config.String("EMBEDDING_MODEL", defaultOllamaModel)
		s.endpoint = firstNonEmpty(s.endpoint, config.String("OLLAMA_HOST", defaultOllamaHost))
	case backendOpenAI:
		s.model = config.String("EMBEDDING_MODEL", defaultOpenAIModel)
		s.apiKey = firstNonEmpty(s.apiKey, config.String("OPENAI_API_KEY", ""))
		s.endpoint = firstNonEmpty(s.endpoint, defaultOpenAIBaseURL)
	case backendAzure:
		s.model = config.String("EMBEDDING_MODEL", defaultOpenAIModel)
		s.apiKey = firstNonEmpty(s.apiKey, config.String("AZURE_OPENAI_API_KEY", ""))
		s.endpoint = firstNonEmpty(s.endpoint, config.String("AZURE_OPENAI_ENDPOINT", ""))
	}
	s.dimensions = DefaultDimensions(s.backend)
	return s
}

// check reports the first missing credential for the backend.
func (s settings) check() error {
	switch s.backend {
	case backendOllama:
		return nil
	case backendOpenAI:
		if s.apiKey == "" {
			return fmt.Errorf("embedder: no OpenAI API key found, set OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
	case backendAzure:
		if s.apiKey == "" {
			return fmt.Errorf("embedder: no Azure API key found, set AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		if s.endpoint == "" {
			return fmt.Errorf("embedder: no Azure endpoint found, set AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}
	default:
		return fmt.Errorf("embedder: unknown backend %q (valid: ollama, openai, azure)", s.backend)
	}
	return nil
}

// DefaultDimensions is the vector size for backend. EMBEDDING_DIMENSIONS
// always wins.
func DefaultDimensions(backend string) int {
	if v := config.Int("EMBEDDING_DIMENSIONS", 0); v > 0 {
		return v
	}
	if backend == backendOllama {
		return defaultOllamaDimensions
	}
	return defaultOpenAIDimensions
}

// NewFromEnv builds the embedder used for paper chunks and search queries.
//
// The backend is EMBEDDING_PROVIDER, else MODEL_PROVIDER when that is an
// embedding-capable backend (ollama, openai, azure), else ollama. Credentials
// and endpoints come from the chat provider's variables unless EMBEDDING_API_KEY
// or EMBEDDING_ENDPOINT is set. EMBEDDING_MODEL, EMBEDDING_DIMENSIONS and
// EMBEDDING_TIMEOUT override the defaults.
func NewFromEnv() (rag.Embedder, error) {
	s := resolve()
	if err := s.check(); err != nil {
		return nil, err
	}

	switch s.backend {
	case backendOllama:
		return NewOllamaEmbedder(&OllamaConfig{Host: s.endpoint, Model: s.model, Timeout: s.timeout}), nil
	case backendAzure:
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    strings.TrimRight(s.endpoint, "/") + "/openai",
			APIKey:     s.apiKey,
			Model:      s.model,
			Dimensions: s.dimensions,
			Azure:      true,
			APIVersion: s.apiVersion,
			Timeout:    s.timeout,
		}), nil
	default:
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    s.endpoint,
			APIKey:     s.apiKey,
			Model:      s.model,
			Dimensions: s.dimensions,
			Timeout:    s.timeout,
		}), nil
	}
}

// Backend returns the embedding backend NewFromEnv will construct.
func Backend() string { return resolveBackend() }

func resolveBackend() string {
	if b := config.String("EMBEDDING_PROVIDER", ""); b != "" {
		return strings.ToLower(b)
	}
	switch b := strings.ToLower(config.String("MODEL_PROVIDER", "")); b {
	case backendOllama, backendOpenAI, backendAzure:
		return b
	default:
		return backendOllama
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
