package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// NewPapersCmd constructs the `sbke papers` command group, which inspects
// and edits the processed-paper cache.
func NewPapersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "papers",
		Short: "Inspect the processed-paper cache",
	}
	cmd.AddCommand(newPapersListCmd(), newPapersForgetCmd())
	return cmd
}

func newPapersListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List papers recorded as processed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, err := openPaperCache()
			if err != nil {
				return fmt.Errorf("papers: %w", err)
			}
			defer cache.Close()

			papers, err := cache.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), papers)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PAPER\tYEAR\tCHUNKS\tPROCESSED\tTITLE")
			for _, p := range papers {
				year := "-"
				if p.Year > 0 {
					year = fmt.Sprint(p.Year)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
					p.PaperID, year, p.ChunkCount, p.ProcessedAt.Format(time.DateTime), p.Title)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newPapersForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <paper-id>...",
		Short: "Remove papers from the cache so the next ingest re-indexes them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openPaperCache()
			if err != nil {
				return fmt.Errorf("papers: %w", err)
			}
			defer cache.Close()

			for _, id := range args {
				if err := cache.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "forgot %s\n", id)
			}
			return nil
		},
	}
}
