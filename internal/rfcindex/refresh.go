package rfcindex

import (
	"context"
	"log/slog"

	"github.com/hile/rtfm/internal/catalog"
	"github.com/hile/rtfm/internal/search"
)

// RefreshOptions selects the steps of Refresh and receives progress.
type RefreshOptions struct {
	SkipDownload bool
	SkipIndex    bool

	// OnPhase is called when a step starts.
	OnPhase func(Phase)
	// OnDownload is called after each attempted document.
	OnDownload func(DownloadProgress)
	// OnIndex is called after each search index commit.
	OnIndex func(done, total int)
}

// Phase names a step of Refresh.
type Phase string

const (
	PhaseCatalog  Phase = "catalog"
	PhaseDownload Phase = "download"
	PhaseIndex    Phase = "index"
)

// RefreshResult is what a full refresh did.
type RefreshResult struct {
	Catalog  catalog.MergeStats   `json:"catalog"`
	Download DownloadResult       `json:"download"`
	Index    search.ReindexResult `json:"index"`
}

// Refresh runs the full update: sync the catalog, download missing documents,
// then index documents that are not searchable yet. Indexing only ever sees
// documents already on disk.
//
// The cache directory is locked for the duration; a writable index
// already holds the lock from Open. A catalog sync failure
// aborts the refresh; download failures are reported in the result.
func (x *Index) Refresh(ctx context.Context, opts RefreshOptions) (RefreshResult, error) {
	var result RefreshResult

	if x.lock == nil {
		lock := NewCacheLock(x.cacheDir)
		if err := lock.TryLock(); err != nil {
			return result, err
		}
		defer func() { _ = lock.Unlock() }()
	}

	if removed, err := x.docs.CleanTemp(); err != nil {
		x.logger.Warn("temp_cleanup_failed", slog.String("error", err.Error()))
	} else if removed > 0 {
		x.logger.Info("temp_files_removed", slog.Int("count", removed))
	}

	phase := func(p Phase) {
		if opts.OnPhase != nil {
			opts.OnPhase(p)
		}
	}

	phase(PhaseCatalog)
	stats, err := x.Update(ctx)
	if err != nil {
		return result, err
	}
	result.Catalog = stats

	if !opts.SkipDownload {
		phase(PhaseDownload)
		result.Download, err = x.DownloadMissing(ctx, opts.OnDownload)
		if err != nil {
			return result, err
		}
	}

	if !opts.SkipIndex {
		phase(PhaseIndex)
		result.Index, err = x.UpdateMissingIndexes(ctx, opts.OnIndex)
		if err != nil {
			return result, err
		}
	}

	return result, nil
}
