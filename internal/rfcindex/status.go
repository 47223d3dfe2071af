package rfcindex

import (
	"context"
	"time"

	"github.com/hile/rtfm/internal/docstore"
	"github.com/hile/rtfm/internal/search"
)

// StatusInfo describes the state of the local mirror.
type StatusInfo struct {
	CacheDir   string         `json:"cache_dir"`
	Backend    search.Backend `json:"backend"`
	Known      int            `json:"known"`
	Downloaded int            `json:"downloaded"`
	Searchable int            `json:"searchable"`
	Latest     int            `json:"latest"`
	LastSync   time.Time      `json:"last_sync,omitzero"`
	Disk       docstore.Usage `json:"disk"`
}

// Missing returns how many known RFCs have no local document.
func (s StatusInfo) Missing() int {
	return s.Known - s.Downloaded
}

// Status collects counts from the catalog, document store and search index.
func (x *Index) Status(ctx context.Context) (StatusInfo, error) {
	info := StatusInfo{
		CacheDir:   x.cacheDir,
		Backend:    x.backend,
		Known:      x.Count(),
		Downloaded: x.CountIndexed(),
		Latest:     x.catalog.Latest(),
	}

	indexed, err := x.engine.IndexedNumbers(ctx)
	if err != nil {
		return info, err
	}
	info.Searchable = len(indexed)

	if info.LastSync, err = x.store.LastSync(ctx); err != nil {
		return info, err
	}
	if info.Disk, err = x.docs.DiskUsage(); err != nil {
		return info, err
	}
	return info, nil
}
