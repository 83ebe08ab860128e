package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/sbke-go/internal/corpus"
	"github.com/54b3r/sbke-go/internal/insight"
	"github.com/54b3r/sbke-go/internal/logging"
	"github.com/54b3r/sbke-go/internal/search"
)

// NewSearchCmd constructs the `sbke search` command, which runs one reranked
// search and optionally summarises the results.
func NewSearchCmd() *cobra.Command {
	var topK int
	var year int
	var organisms []string
	var section string
	var summarize bool
	var persona string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a reranked semantic search over the indexed papers",
		Long: `Embed the query, fetch candidates from Qdrant and rerank them with the
section and recency boosts. Results are printed as JSON.

Examples:
  sbke search "bone density loss in microgravity"
  sbke search "plant root growth" --organism arabidopsis --year 2019
  sbke search "radiation DNA damage" --summarize --persona investor`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			qs, emb, err := openVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer qs.Close()

			svc, err := newSearchService(emb, qs)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			filter := &corpus.Filter{Year: year, Organisms: organisms, Section: strings.ToLower(section)}
			if filter.IsEmpty() {
				filter = nil
			}
			resp, err := svc.Search(ctx, search.Query{
				Text:   strings.Join(args, " "),
				TopK:   topK,
				Filter: filter,
			})
			if err != nil {
				return err
			}

			if !summarize {
				return printJSON(cmd.OutOrStdout(), resp)
			}

			analyst, _, err := newAnalyst(ctx, log)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			texts := make([]string, 0, len(resp.Results))
			for _, r := range resp.Results {
				texts = append(texts, r.Text)
			}
			summary, err := analyst.Summarize(ctx, texts, insight.ParsePersona(persona))
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), struct {
				*search.Response
				Summary *insight.Summary `json:"summary"`
			}{resp, summary})
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", search.DefaultTopK, "Maximum number of results (capped at 50)")
	cmd.Flags().IntVar(&year, "year", 0, "Restrict to a publication year")
	cmd.Flags().StringArrayVar(&organisms, "organism", nil, "Restrict to chunks mentioning an organism (repeatable)")
	cmd.Flags().StringVar(&section, "section", "", "Restrict to a paper section (abstract, methods, results, ...)")
	cmd.Flags().BoolVar(&summarize, "summarize", false, "Summarise the results with the configured LLM")
	cmd.Flags().StringVar(&persona, "persona", string(insight.PersonaScientist), "Summary audience: scientist, investor, architect")

	return cmd
}
