package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hile/rtfm/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var cacheSize int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the RFC cache to AI clients over MCP (stdio)",
		Long: `Run a Model Context Protocol server on stdin/stdout exposing the tools
rfc_search, rfc_show and rfc_status and rfc://<number> resources.

The server is read-only; keep the cache current with 'rtfm update'.
Nothing but protocol messages is written to stdout.`,
		Example: `  # Claude Code
  claude mcp add rtfm -- rtfm serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			idx, err := openIndex(ctx, false)
			if err != nil {
				return err
			}
			defer func() { _ = idx.Close() }()

			server, err := mcp.NewServer(idx, mcp.Options{CacheSize: cacheSize, Logger: logger})
			if err != nil {
				return err
			}
			return server.Serve(ctx)
		},
	}

	cmd.Flags().IntVar(&cacheSize, "cache-size", mcp.DefaultCacheSize, "Number of documents kept in memory")

	return cmd
}
