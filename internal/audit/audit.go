// Package audit writes one structured record per sbke command run: which
// command, which config file, and the environment that drives model, vector
// store and service behaviour. Credentials are reported as set or unset only.
package audit

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"
)

// secretSuffixes mark a variable as a credential.
var secretSuffixes = []string{"_API_KEY", "_SECRET_KEY", "_PUBLIC_KEY", "_TOKEN", "_PASSWORD"}

// auditGroups lists the variables recorded at command start, grouped by the
// component they configure. Order is stable so records diff cleanly.
var auditGroups = []struct {
	name string
	keys []string
}{
	{"model", []string{
		"MODEL_PROVIDER",
		"OLLAMA_HOST", "OLLAMA_MODEL",
		"OPENAI_API_KEY", "OPENAI_MODEL",
		"AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_DEPLOYMENT",
		"ARK_API_KEY", "ARK_MODEL",
		"GOOGLE_API_KEY", "GEMINI_MODEL",
	}},
	{"embedding", []string{"EMBEDDING_PROVIDER", "EMBEDDING_MODEL", "EMBEDDING_API_KEY"}},
	{"qdrant", []string{"QDRANT_HOST", "QDRANT_PORT", "QDRANT_COLLECTION", "QDRANT_API_KEY"}},
	{"service", []string{"SBKE_API_KEY", "SBKE_CACHE_DB", "SBKE_PDF_DIR", "LOG_LEVEL", "LOG_FORMAT"}},
	{"tracing", []string{"LANGFUSE_PUBLIC_KEY", "LANGFUSE_SECRET_KEY"}},
}

// LogCommandStart records the command, its config file and the sanitised
// environment.
func LogCommandStart(ctx context.Context, log *slog.Logger, command string, configPath string) {
	attrs := []slog.Attr{
		slog.String("command", command),
		slog.String("config_file", sanitiseConfigPath(configPath)),
	}
	for _, g := range auditGroups {
		vals := make([]any, 0, len(g.keys))
		for _, k := range g.keys {
			vals = append(vals, slog.String(k, SanitiseKey(k, os.Getenv(k))))
		}
		attrs = append(attrs, slog.Group(g.name, vals...))
	}
	log.LogAttrs(ctx, slog.LevelInfo, "audit: command start", attrs...)
}

// LogCommandEnd records how long a command ran and whether it failed.
func LogCommandEnd(ctx context.Context, log *slog.Logger, command string, started time.Time, err error) {
	attrs := []slog.Attr{
		slog.String("command", command),
		slog.Duration("elapsed", time.Since(started)),
		slog.Bool("ok", err == nil),
	}
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	log.LogAttrs(ctx, level, "audit: command end", attrs...)
}

// IsSecret reports whether key names a credential.
func IsSecret(key string) bool {
	for _, s := range secretSuffixes {
		if strings.HasSuffix(key, s) {
			return true
		}
	}
	return false
}

// SanitiseKey renders value for logging: "set"/"unset" for credentials, the
// value itself (or "unset") otherwise.
func SanitiseKey(key, value string) string {
	if IsSecret(key) {
		return presence(value)
	}
	if value == "" {
		return "unset"
	}
	return value
}

func presence(v string) string {
	if v != "" {
		return "set"
	}
	return "unset"
}

// sanitiseConfigPath shortens the home directory to "~". Empty is "none".
func sanitiseConfigPath(p string) string {
	if p == "" {
		return "none"
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" && strings.HasPrefix(p, home) {
		return "~" + p[len(home):]
	}
	return p
}
