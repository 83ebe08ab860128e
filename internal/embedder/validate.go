package embedder

import (
	"log/slog"
	"os"
	"strings"
)

// chatModelFragments contains name fragments that identify chat/completion
// models which are NOT suitable for embedding.
var chatModelFragments = []string{
	"gpt-4",
	"gpt-3.5",
	"gpt-35",
	"o1",
	"o3",
	"llama3",
	"llama-3",
	"mistral",
	"mixtral",
	"gemma",
	"phi3",
	"claude",
	"deepseek",
	"qwen",
}

// looksLikeChatModel returns true when the model name resembles a known
// chat/completion model rather than a dedicated embedding model.
func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, fragment := range chatModelFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// Validate is a pre-flight check for the embedding configuration, run before
// the Qdrant collection is opened so a broken setup fails at startup rather
// than on the first ingested paper. It returns an error when required
// credentials are missing and logs a warning when EMBEDDING_MODEL looks like
// a chat model.
func Validate(log *slog.Logger) error {
	s := resolve()
	if err := s.check(); err != nil {
		return err
	}

	if model := os.Getenv("EMBEDDING_MODEL"); model != "" && looksLikeChatModel(model) {
		log.Warn("embedder: EMBEDDING_MODEL looks like a chat model, not an embedding model",
			slog.String("model", model),
			slog.String("hint", "use a dedicated embedding model e.g. nomic-embed-text, text-embedding-3-small"),
		)
	}

	return nil
}
