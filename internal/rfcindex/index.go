// Package rfcindex is the entry point to the local RFC mirror. An Index owns
// a cache directory and coordinates the catalog of known RFCs, the downloaded
// documents and the full-text search index.
package rfcindex

import (
	"context"
	stderrors "errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hile/rtfm/internal/catalog"
	"github.com/hile/rtfm/internal/docstore"
	rerrors "github.com/hile/rtfm/internal/errors"
	"github.com/hile/rtfm/internal/search"
)

// Remote is the source of the RFC index and documents.
type Remote interface {
	FetchIndex(ctx context.Context) ([]catalog.Entry, error)
	FetchDocument(ctx context.Context, number int) ([]byte, error)
}

// Record is one known RFC plus its local state.
type Record struct {
	catalog.Entry
	// Path is where the document is (or would be) stored.
	Path string `json:"path"`
	// Exists reports whether the document has been downloaded.
	Exists bool `json:"exists"`
}

// Match is a search result.
type Match struct {
	Record
	Score float64 `json:"score"`
	Field string  `json:"field"`
}

// Options configures Open.
type Options struct {
	// CacheDir is created if it does not exist.
	CacheDir string
	// Remote may be nil for read-only use; Update then fails.
	Remote Remote
	// Backend selects the search engine when Engine is nil.
	Backend search.Backend
	// Engine overrides Backend. The Index closes it.
	Engine         search.Engine
	CommitInterval int
	Logger         *slog.Logger
}

// Index is the RFC mirror rooted at one cache directory. It is meant for
// sequential use by a single goroutine.
type Index struct {
	cacheDir       string
	backend        search.Backend
	commitInterval int
	remote         Remote
	catalog        *catalog.Catalog
	store          *catalog.Store
	docs           *docstore.Store
	engine         search.Engine
	logger         *slog.Logger
	// lock is held for the lifetime of a writable index.
	lock   *CacheLock
	closed bool
}

// Open loads the persisted catalog from opts.CacheDir (an absent catalog is
// an empty one) and opens the search index.
//
// An index with a Remote is a writer: it takes the cache lock before touching
// the search index and keeps it until Close, so a second writer fails fast
// with ERR_204_CACHE_LOCKED. Without a Remote the search index is opened
// read-only.
func Open(ctx context.Context, opts Options) (idx *Index, err error) {
	if opts.CacheDir == "" {
		return nil, rerrors.ConfigError("cache directory is not set", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
		return nil, rerrors.IOError(fmt.Sprintf("failed to create cache directory %s", opts.CacheDir), err)
	}

	var lock *CacheLock
	if opts.Remote != nil {
		lock = NewCacheLock(opts.CacheDir)
		if err := lock.TryLock(); err != nil {
			return nil, err
		}
		defer func() {
			if err != nil {
				_ = lock.Unlock()
			}
		}()
	}

	store, err := catalog.Open(filepath.Join(opts.CacheDir, catalog.FileName))
	if err != nil {
		return nil, rerrors.New(rerrors.ErrCodeCorruptIndex, "failed to open catalog", err)
	}
	entries, err := store.Load(ctx)
	if err != nil {
		_ = store.Close()
		return nil, rerrors.New(rerrors.ErrCodeCorruptIndex, "failed to load catalog", err)
	}

	backend := opts.Backend
	if backend == "" {
		backend = search.BackendBleve
	}
	engine := opts.Engine
	if engine == nil {
		engine, err = search.Open(backend, search.Path(opts.CacheDir, backend), search.Options{ReadOnly: lock == nil})
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	idx = &Index{
		cacheDir:       opts.CacheDir,
		backend:        backend,
		commitInterval: opts.CommitInterval,
		remote:         opts.Remote,
		catalog:        catalog.New(entries),
		store:          store,
		engine:         engine,
		logger:         logger,
		lock:           lock,
	}
	var fetcher docstore.Fetcher
	if opts.Remote != nil {
		fetcher = opts.Remote
	}
	idx.docs = docstore.New(filepath.Join(opts.CacheDir, docstore.DirName), fetcher)

	logger.Debug("rfc_index_opened",
		slog.String("cache_dir", opts.CacheDir),
		slog.String("backend", string(backend)),
		slog.Int("known", idx.catalog.Len()))
	return idx, nil
}

// CacheDir returns the cache directory.
func (x *Index) CacheDir() string {
	return x.cacheDir
}

// Update fetches the remote index and merges it into the catalog. New numbers
// are added and known numbers refreshed; nothing is removed. On failure the
// persisted catalog is left as it was.
func (x *Index) Update(ctx context.Context) (catalog.MergeStats, error) {
	if x.remote == nil {
		return catalog.MergeStats{}, rerrors.IndexUpdateError("no remote index source configured", nil)
	}

	entries, err := x.remote.FetchIndex(ctx)
	if err != nil {
		if !stderrors.Is(err, rerrors.ErrIndexUpdate) {
			err = rerrors.IndexUpdateError("error downloading RFC index", err)
		}
		x.logger.Error("catalog_update_failed", rerrors.LogAttrs(err)...)
		return catalog.MergeStats{}, err
	}

	stats, err := x.store.Merge(ctx, entries)
	if err != nil {
		err = rerrors.IndexUpdateError("failed to store RFC catalog", err)
		x.logger.Error("catalog_update_failed", rerrors.LogAttrs(err)...)
		return catalog.MergeStats{}, err
	}
	x.catalog.Apply(entries)

	x.logger.Info("catalog_updated",
		slog.Int("added", stats.Added),
		slog.Int("updated", stats.Updated),
		slog.Int("unchanged", stats.Unchanged),
		slog.Int("known", x.catalog.Len()))
	return stats, nil
}

// DownloadFailure is one document that could not be fetched.
type DownloadFailure struct {
	Number int   `json:"number"`
	Err    error `json:"-"`
}

// DownloadResult summarizes DownloadMissing.
type DownloadResult struct {
	Attempted  int               `json:"attempted"`
	Downloaded int               `json:"downloaded"`
	Failed     []DownloadFailure `json:"failed,omitempty"`
}

// DownloadProgress is reported after each attempted document.
type DownloadProgress struct {
	Number int
	Done   int
	Total  int
	Err    error
}

// DownloadMissing fetches every known RFC without a local document, in
// ascending order. A failed fetch is logged and recorded, and the pass
// continues with the next number. Only cancellation of ctx stops it early.
func (x *Index) DownloadMissing(ctx context.Context, progress func(DownloadProgress)) (DownloadResult, error) {
	var result DownloadResult

	missing := x.missingNumbers()
	for i, number := range missing {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		result.Attempted++
		err := x.docs.Fetch(ctx, number)
		if err != nil && ctx.Err() != nil {
			return result, ctx.Err()
		}
		if err != nil {
			if !stderrors.Is(err, rerrors.ErrFetch) {
				err = rerrors.FetchError(number, err)
			}
			x.logger.Warn("rfc_fetch_failed", rerrors.LogAttrs(err)...)
			result.Failed = append(result.Failed, DownloadFailure{Number: number, Err: err})
		} else {
			result.Downloaded++
			x.logger.Debug("rfc_fetched", slog.Int("rfc", number))
		}

		if progress != nil {
			progress(DownloadProgress{Number: number, Done: i + 1, Total: len(missing), Err: err})
		}
	}

	x.logger.Info("download_finished",
		slog.Int("attempted", result.Attempted),
		slog.Int("downloaded", result.Downloaded),
		slog.Int("failed", len(result.Failed)))
	return result, nil
}

func (x *Index) missingNumbers() []int {
	var missing []int
	for e := range x.catalog.All() {
		if !x.docs.Exists(e.Number) {
			missing = append(missing, e.Number)
		}
	}
	return missing
}

// UpdateMissingIndexes adds every downloaded RFC that is not yet searchable
// to the search index. Entries already indexed are left alone.
func (x *Index) UpdateMissingIndexes(ctx context.Context, progress func(done, total int)) (search.ReindexResult, error) {
	return search.ReindexMissing(ctx, x.engine, indexSource{x}, search.ReindexOptions{
		CommitInterval: x.commitInterval,
		Logger:         x.logger,
		Progress:       progress,
	})
}

// indexSource exposes downloaded documents to search.ReindexMissing.
type indexSource struct{ x *Index }

func (s indexSource) Candidates() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for e := range s.x.catalog.All() {
			if !s.x.docs.Exists(e.Number) {
				continue
			}
			if !yield(e.Number, indexedTitle(e)) {
				return
			}
		}
	}
}

// indexedTitle is the full citation, so authors, dates, status and DOI are
// searchable along with the title proper.
func indexedTitle(e catalog.Entry) string {
	if e.Description != "" {
		return e.Description
	}
	return e.Title
}

func (s indexSource) Body(number int) (string, error) {
	return s.x.docs.Read(number)
}

// GetByNumber returns the record for number.
func (x *Index) GetByNumber(number int) (Record, error) {
	if number < 1 {
		return Record{}, rerrors.InvalidNumberError(strconv.Itoa(number))
	}
	e, ok := x.catalog.Get(number)
	if !ok {
		return Record{}, rerrors.NotFoundError(number)
	}
	return x.record(e), nil
}

func (x *Index) record(e catalog.Entry) Record {
	return Record{Entry: e, Path: x.docs.Path(e.Number), Exists: x.docs.Exists(e.Number)}
}

// Search returns the RFCs whose title contains all terms, ranked by
// relevance. With body set, RFCs matching in their text follow the title
// matches.
func (x *Index) Search(ctx context.Context, terms []string, body bool) ([]Record, error) {
	matches, err := x.Find(ctx, search.Query{Terms: terms, Body: body})
	if err != nil {
		return nil, err
	}
	records := make([]Record, len(matches))
	for i, m := range matches {
		records[i] = m.Record
	}
	return records, nil
}

// Find runs q and resolves hits to records. Hits for numbers missing from
// the catalog are skipped.
func (x *Index) Find(ctx context.Context, q search.Query) ([]Match, error) {
	hits, err := x.engine.Query(ctx, q)
	if err != nil {
		if rerrors.GetCode(err) == "" {
			err = rerrors.SearchError("search failed", err)
		}
		return nil, err
	}

	matches := make([]Match, 0, len(hits))
	for _, h := range hits {
		e, ok := x.catalog.Get(h.Number)
		if !ok {
			x.logger.Debug("search_hit_not_in_catalog", slog.Int("rfc", h.Number))
			continue
		}
		matches = append(matches, Match{Record: x.record(e), Score: h.Score, Field: h.Field})
	}
	return matches, nil
}

// All yields every known RFC in ascending number order. Each call starts a
// new pass over the current catalog.
func (x *Index) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for e := range x.catalog.All() {
			if !yield(x.record(e)) {
				return
			}
		}
	}
}

// Count returns the number of known RFCs.
func (x *Index) Count() int {
	return x.catalog.Len()
}

// CountIndexed returns the number of known RFCs with a local document.
func (x *Index) CountIndexed() int {
	n := 0
	for e := range x.catalog.All() {
		if x.docs.Exists(e.Number) {
			n++
		}
	}
	return n
}

// Read returns the text of a downloaded RFC.
func (x *Index) Read(number int) (string, error) {
	rec, err := x.GetByNumber(number)
	if err != nil {
		return "", err
	}
	if !rec.Exists {
		return "", notDownloadedError(number)
	}
	text, err := x.docs.Read(number)
	if err != nil {
		return "", rerrors.IOError(fmt.Sprintf("failed to read RFC %d", number), err)
	}
	return text, nil
}

// DocumentPath returns the local file of a downloaded RFC.
func (x *Index) DocumentPath(number int) (string, error) {
	rec, err := x.GetByNumber(number)
	if err != nil {
		return "", err
	}
	if !rec.Exists {
		return "", notDownloadedError(number)
	}
	return rec.Path, nil
}

func notDownloadedError(number int) *rerrors.Error {
	return rerrors.New(rerrors.ErrCodeFileNotFound,
		fmt.Sprintf("RFC %d has not been downloaded", number), nil).
		WithDetail("rfc", strconv.Itoa(number)).
		WithSuggestion("run 'rtfm update' to download missing documents")
}

// Close releases the search index and the catalog database.
func (x *Index) Close() error {
	if x.closed {
		return nil
	}
	x.closed = true
	err := stderrors.Join(x.engine.Close(), x.store.Close())
	if x.lock != nil {
		err = stderrors.Join(err, x.lock.Unlock())
	}
	return err
}
