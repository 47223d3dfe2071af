package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hile/rtfm/internal/rfcindex"
	"github.com/hile/rtfm/internal/ui"
)

func newUpdateCmd() *cobra.Command {
	var (
		noDownload bool
		noIndex    bool
		plain      bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Sync the RFC index, download and index missing documents",
		Long: `Download the current RFC index, merge it into the local catalog,
fetch every document that is not cached yet and add new documents to the
search index.

Titles of known RFCs are refreshed on every update; RFCs are never removed.
A document that fails to download is reported and retried on the next update.
Interrupting an update keeps everything downloaded and indexed so far.`,
		Example: `  # Full update
  rtfm update

  # Only refresh the catalog
  rtfm update --no-download --no-index`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUpdate(cmd, rfcindex.RefreshOptions{SkipDownload: noDownload, SkipIndex: noIndex}, plain)
		},
	}

	cmd.Flags().BoolVar(&noDownload, "no-download", false, "Do not download missing documents")
	cmd.Flags().BoolVar(&noIndex, "no-index", false, "Do not update the search index")
	cmd.Flags().BoolVar(&plain, "plain", false, "Plain line output instead of the progress display")

	return cmd
}

func runUpdate(cmd *cobra.Command, opts rfcindex.RefreshOptions, plain bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	idx, err := openIndex(ctx, true)
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(plain),
		ui.WithNoColor(noColor()),
		ui.WithCacheDir(idx.CacheDir()),
		ui.WithInterrupt(cancel),
	))
	if err := renderer.Start(ctx); err != nil {
		return err
	}

	opts.OnPhase = func(p rfcindex.Phase) {
		switch p {
		case rfcindex.PhaseCatalog:
			renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageCatalog, Message: "fetching RFC index"})
		case rfcindex.PhaseDownload:
			renderer.UpdateProgress(ui.ProgressEvent{
				Stage:   ui.StageDownload,
				Message: fmt.Sprintf("%d RFCs known, downloading missing documents", idx.Count()),
			})
		case rfcindex.PhaseIndex:
			renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageIndex, Message: "updating search index"})
		}
	}
	opts.OnDownload = func(p rfcindex.DownloadProgress) {
		item := fmt.Sprintf("RFC %d", p.Number)
		if p.Err != nil {
			renderer.AddError(ui.ErrorEvent{Item: item, Err: p.Err})
		}
		renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageDownload, Current: p.Done, Total: p.Total, Item: item})
	}
	opts.OnIndex = func(done, total int) {
		renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageIndex, Current: done, Total: total})
	}

	start := time.Now()
	result, err := idx.Refresh(ctx, opts)
	if err != nil {
		_ = renderer.Stop()
		return err
	}

	renderer.Complete(ui.CompletionStats{
		Known:      idx.Count(),
		Added:      result.Catalog.Added,
		Updated:    result.Catalog.Updated,
		Downloaded: result.Download.Downloaded,
		Failed:     len(result.Download.Failed),
		Indexed:    result.Index.Indexed,
		Duration:   time.Since(start),
	})
	return renderer.Stop()
}
