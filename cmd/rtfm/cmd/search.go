package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	rerrors "github.com/hile/rtfm/internal/errors"
	"github.com/hile/rtfm/internal/rfcindex"
	"github.com/hile/rtfm/internal/search"
	"github.com/hile/rtfm/internal/ui"
)

const (
	sortRelevance = "relevance"
	sortNumber    = "number"
)

func newSearchCmd() *cobra.Command {
	var (
		body       bool
		sortBy     string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search [--body] <terms>...",
		Short: "Search RFC titles, or titles and text with --body",
		Long: `Search the local RFC cache. Every term must match.

By default only titles are searched. With --body the document text is searched
too; title matches are listed first, then RFCs that match only in their text.
Only downloaded and indexed documents are searched.`,
		Example: `  rtfm search tcp congestion
  rtfm search --body --sort number quic`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sortBy != sortRelevance && sortBy != sortNumber {
				return rerrors.InvalidOptionError("--sort", sortBy,
					fmt.Sprintf("use --sort %s or --sort %s", sortRelevance, sortNumber), nil)
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.Search.MaxResults
			}

			idx, err := openIndex(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer func() { _ = idx.Close() }()

			matches, err := idx.Find(cmd.Context(), search.Query{Terms: args, Body: body, Limit: limit})
			if err != nil {
				return err
			}
			if sortBy == sortNumber {
				slices.SortStableFunc(matches, func(a, b rfcindex.Match) int { return a.Number - b.Number })
			}

			renderer := ui.NewRecordRenderer(cmd.OutOrStdout(), noColor())
			if jsonOutput {
				return renderer.JSON(matches)
			}
			for _, m := range matches {
				renderer.Line(m.Record)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&body, "body", false, "Also search document text")
	cmd.Flags().StringVar(&sortBy, "sort", sortRelevance, "Result order: relevance or number")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results, 0 for all (default search.max_results)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
