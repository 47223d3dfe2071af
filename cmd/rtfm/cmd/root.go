// Package cmd provides the CLI commands for rtfm.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hile/rtfm/internal/config"
	rerrors "github.com/hile/rtfm/internal/errors"
	"github.com/hile/rtfm/internal/logging"
	"github.com/hile/rtfm/internal/remote"
	"github.com/hile/rtfm/internal/rfcindex"
	"github.com/hile/rtfm/internal/search"
	"github.com/hile/rtfm/internal/ui"
	"github.com/hile/rtfm/pkg/version"
)

// Global flags and the state PersistentPreRunE builds from them.
var (
	configPath     string
	cacheDirFlag   string
	debugMode      bool
	noColorFlag    bool
	cfg            *config.Config
	logger         *slog.Logger
	loggingCleanup func()
)

// NewRootCmd creates the root command for the rtfm CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rtfm",
		Short: "Local RFC mirror with full-text search",
		Long: `rtfm keeps a local copy of the IETF RFC series and searches it.

Run 'rtfm update' once to download the RFC index and all documents, then
search titles with 'rtfm search', browse with 'rtfm list' and read a
document with 'rtfm show <number>'.`,
		Version:           version.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(*cobra.Command, []string) { teardown() },
	}

	cmd.SetVersionTemplate("rtfm version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.GetUserConfigPath()+")")
	cmd.PersistentFlags().StringVar(&cacheDirFlag, "cache-dir", "", "Cache directory (default "+config.DefaultCacheDir+")")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Debug logging to stderr and the log file")
	cmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")

	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	defer teardown()
	return NewRootCmd().Execute()
}

// setup loads the configuration and starts file logging.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return rerrors.ConfigError("failed to load configuration", err).
			WithSuggestion("Fix or remove " + userConfigPath())
	}
	if cacheDirFlag != "" {
		loaded.CacheDir = cacheDirFlag
	}
	cfg = loaded

	logCfg := logging.DefaultConfig(cfg.ResolvedCacheDir())
	logCfg.Level = cfg.Log.Level
	logCfg.MaxSizeMB = cfg.Log.MaxSizeMB
	logCfg.MaxFiles = cfg.Log.MaxFiles
	if debugMode {
		logCfg.Level = "debug"
		logCfg.WriteToStderr = true
	}

	l, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return rerrors.IOError("failed to set up logging", err)
	}
	logger = l
	loggingCleanup = cleanup
	slog.SetDefault(logger)

	logger.Debug("command_started",
		slog.String("command", cmd.CommandPath()),
		slog.String("cache_dir", cfg.ResolvedCacheDir()),
		slog.String("version", version.Version))
	return nil
}

// teardown flushes the log file. It is safe to call more than once.
func teardown() {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

// noColor reports whether output should be plain.
func noColor() bool {
	return noColorFlag || ui.DetectNoColor()
}

// newRemote builds the HTTP client for the configured mirror.
func newRemote() *remote.Client {
	return remote.NewClient(remote.Options{
		IndexURL:        cfg.Remote.IndexURL,
		DocumentBaseURL: cfg.Remote.DocumentBaseURL,
		Timeout:         cfg.RequestTimeout(),
		Retries:         cfg.Remote.Retries,
		UserAgent:       cfg.Remote.UserAgent,
		Logger:          logger,
	})
}

// openIndex opens the RFC index in the configured cache directory. Read-only
// commands pass withRemote=false.
func openIndex(ctx context.Context, withRemote bool) (*rfcindex.Index, error) {
	opts := rfcindex.Options{
		CacheDir:       cfg.ResolvedCacheDir(),
		Backend:        search.Backend(strings.ToLower(cfg.Search.Backend)),
		CommitInterval: cfg.Search.CommitInterval,
		Logger:         logger,
	}
	if withRemote {
		opts.Remote = newRemote()
	}

	idx, err := rfcindex.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open RFC cache: %w", err)
	}
	return idx, nil
}
