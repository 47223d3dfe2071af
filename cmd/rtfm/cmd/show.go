package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	rerrors "github.com/hile/rtfm/internal/errors"
	"github.com/hile/rtfm/internal/pager"
	"github.com/hile/rtfm/internal/ui"
)

// displayDocument replaces the process with the pager. Replaced in tests.
var displayDocument = pager.Display

func newShowCmd() *cobra.Command {
	var titleOnly bool

	cmd := &cobra.Command{
		Use:   "show [--title] <number>",
		Short: "Show an RFC in the pager",
		Long: `Open a downloaded RFC in the pager: the 'pager' config setting, $PAGER,
or less. With --title only the index entry is printed.`,
		Example: `  rtfm show 793
  rtfm show --title 9293`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[0])
			if err != nil {
				return rerrors.InvalidNumberError(args[0])
			}

			idx, err := openIndex(cmd.Context(), false)
			if err != nil {
				return err
			}

			if titleOnly {
				rec, err := idx.GetByNumber(number)
				_ = idx.Close()
				if err != nil {
					return err
				}
				ui.NewRecordRenderer(cmd.OutOrStdout(), noColor()).Header(rec)
				return nil
			}

			path, err := idx.DocumentPath(number)
			_ = idx.Close()
			if err != nil {
				return err
			}

			// Nothing runs after a successful exec.
			logger.Debug("pager_exec", "rfc", number, "path", path)
			teardown()
			return displayDocument(path, cfg.Pager)
		},
	}

	cmd.Flags().BoolVar(&titleOnly, "title", false, "Print the index entry instead of the document")

	return cmd
}
