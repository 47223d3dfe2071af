package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	rerrors "github.com/hile/rtfm/internal/errors"
	"github.com/hile/rtfm/internal/logging"
)

func newLogsCmd() *cobra.Command {
	var (
		follow bool
		lines  int
		level  string
		filter string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the rtfm log",
		Long: `Show the last lines of the rtfm log file in the cache directory, or
follow it while an update or the MCP server runs.`,
		Example: `  rtfm logs -n 100
  rtfm logs --level warn
  rtfm logs -f --filter rfc_fetch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var pattern *regexp.Regexp
			if filter != "" {
				var err error
				if pattern, err = regexp.Compile(filter); err != nil {
					return rerrors.InvalidOptionError("--filter", filter, "use a Go regular expression, e.g. 'rfc_fetch|update'", err)
				}
			}

			path := logging.LogPath(cfg.ResolvedCacheDir())
			viewer := logging.NewViewer(logging.ViewerConfig{Level: level, Pattern: pattern, NoColor: noColor()})
			out := cmd.OutOrStdout()

			if !follow {
				entries, err := viewer.Tail(path, lines)
				if err != nil {
					return err
				}
				viewer.Print(out, entries)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			entries := make(chan logging.Entry, 100)
			errCh := make(chan error, 1)
			go func() { errCh <- viewer.Follow(ctx, path, entries) }()

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Following %s (Ctrl+C to stop)\n", path)
			for {
				select {
				case e := <-entries:
					_, _ = fmt.Fprintln(out, viewer.Format(e))
				case err := <-errCh:
					return err
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow new log lines")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&filter, "filter", "", "Only lines matching this regular expression")

	return cmd
}
