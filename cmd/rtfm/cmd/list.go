package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hile/rtfm/internal/rfcindex"
	"github.com/hile/rtfm/internal/ui"
)

func newListCmd() *cobra.Command {
	var (
		missing    bool
		downloaded bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known RFCs in number order",
		Long: `List every RFC in the local catalog. Documents that are not downloaded
yet are dimmed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, err := openIndex(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer func() { _ = idx.Close() }()

			var records []rfcindex.Record
			for rec := range idx.All() {
				switch {
				case missing && rec.Exists:
					continue
				case downloaded && !rec.Exists:
					continue
				}
				records = append(records, rec)
			}

			renderer := ui.NewRecordRenderer(cmd.OutOrStdout(), noColor())
			if jsonOutput {
				if records == nil {
					records = []rfcindex.Record{}
				}
				return renderer.JSON(records)
			}
			renderer.Lines(records)
			return nil
		},
	}

	cmd.Flags().BoolVar(&missing, "missing", false, "Only RFCs that are not downloaded")
	cmd.Flags().BoolVar(&downloaded, "downloaded", false, "Only downloaded RFCs")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.MarkFlagsMutuallyExclusive("missing", "downloaded")

	return cmd
}
