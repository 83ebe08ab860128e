package commands

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/54b3r/sbke-go/internal/config"
	"github.com/54b3r/sbke-go/internal/logging"
	"github.com/54b3r/sbke-go/internal/provider"
	"github.com/54b3r/sbke-go/internal/server"
	"github.com/54b3r/sbke-go/internal/tracing"
)

// NewServeCmd constructs the `sbke serve` command, which starts the HTTP API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sbke HTTP API",
		Long: `Start the sbke HTTP API.

The server exposes reranked search, corpus analytics (trends, gaps, filters,
stats) and LLM insights (summaries, consensus, gap narratives) as JSON
endpoints. When no chat model can be initialised the insight endpoints return
503 and everything else keeps working.

Examples:
  sbke serve
  sbke serve --port 9000
  MODEL_PROVIDER=azure sbke serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			// Opt-in, no-op if keys are absent.
			flush, ok := tracing.Install(tracing.ConfigFromEnv())
			defer flush()
			log.Info("langfuse tracing", slog.Bool("enabled", ok))

			qs, emb, err := openVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer qs.Close()

			searchSvc, err := newSearchService(emb, qs)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			analyticsSvc, err := newAnalyticsService(qs)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			pingers := []server.Pinger{server.NewQdrantPinger(qs.Client())}
			deps := server.Deps{Search: searchSvc, Analytics: analyticsSvc}

			analyst, providerCfg, err := newAnalyst(ctx, log)
			if err != nil {
				log.Warn("serve: insights disabled", slog.Any("error", err))
			} else {
				deps.Analyst = analyst
			}
			if providerCfg != nil && providerCfg.Backend == provider.BackendOllama {
				pingers = append(pingers, server.NewOllamaPinger(providerCfg.Ollama.Host))
			}

			// Explicit flags win over SBKE_HOST / SBKE_PORT.
			if !cmd.Flags().Changed("host") {
				host = config.String("SBKE_HOST", host)
			}
			if !cmd.Flags().Changed("port") {
				port = config.Int("SBKE_PORT", port)
			}

			srv, err := server.New(deps, &server.Config{
				Host:       host,
				Port:       port,
				LLMTimeout: config.Duration("SBKE_LLM_TIMEOUT", 2*time.Minute),
				Logger:     log,
				Pingers:    pingers,
				RateLimit:  config.Float("SBKE_RATE_LIMIT", 0),
				RateBurst:  config.Int("SBKE_RATE_BURST", 0),
				APIKey:     config.String("SBKE_API_KEY", ""),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8000, "TCP port to listen on")

	return cmd
}
