package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	bolt "go.etcd.io/bbolt"

	rerrors "github.com/hile/rtfm/internal/errors"
)

// TextAnalyzerName is the analyzer used for titles and bodies.
const TextAnalyzerName = "rfc_text"

// BleveEngine is an Engine backed by a bleve index.
type BleveEngine struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

// bleveDocument is what gets stored per RFC.
type bleveDocument struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

var errClosed = errors.New("search index is closed")

// OpenTimeout bounds the wait for a bleve index held open by another
// process. Writers hold it exclusively; readers share it.
var OpenTimeout = time.Second

func runtimeConfig(readOnly bool) map[string]interface{} {
	return map[string]interface{}{
		"bolt_timeout": OpenTimeout.String(),
		"read_only":    readOnly,
	}
}

// lockedError reports an index held by another rtfm process.
func lockedError(path string, err error) error {
	return rerrors.New(rerrors.ErrCodeCacheLocked,
		fmt.Sprintf("search index %s is in use by another rtfm process", path), err).
		WithSuggestion("an update or serve is running; retry when it has finished")
}

// validateIndexIntegrity checks an existing index directory before opening.
// It returns nil when the directory is absent (a new index will be created).
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

// isCorruptionError reports whether a bleve open error means the index is unusable.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unexpected end of JSON") ||
		strings.Contains(msg, "error parsing mapping JSON") ||
		strings.Contains(msg, "failed to load segment") ||
		strings.Contains(msg, "error opening bolt") ||
		errors.Is(err, bleve.ErrorIndexMetaCorrupt)
}

// NewBleveEngine opens or creates a writable bleve index at path; "" means
// in memory. A corrupted index directory is removed and recreated empty, to
// be refilled by ReindexMissing.
func NewBleveEngine(path string) (*BleveEngine, error) {
	return OpenBleveEngine(path, Options{})
}

// OpenBleveEngine is NewBleveEngine with options. A read-only engine never
// repairs or creates the index; a missing one is served empty from memory.
func OpenBleveEngine(path string, opts Options) (*BleveEngine, error) {
	indexMapping, err := newIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to create index mapping: %w", err)
	}

	var idx bleve.Index
	switch {
	case path == "":
		idx, err = bleve.NewMemOnly(indexMapping)
	case opts.ReadOnly:
		idx, err = bleve.OpenUsing(path, runtimeConfig(true))
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			idx, err = bleve.NewMemOnly(indexMapping)
		}
	default:
		idx, err = openWritable(path, indexMapping)
	}
	if errors.Is(err, bolt.ErrTimeout) {
		return nil, lockedError(path, err)
	}
	if err != nil {
		var coded *rerrors.Error
		if errors.As(err, &coded) {
			return nil, err
		}
		return nil, rerrors.New(rerrors.ErrCodeCorruptIndex, fmt.Sprintf("failed to open search index: %v", err), err)
	}

	return &BleveEngine{index: idx, path: path}, nil
}

func openWritable(path string, indexMapping mapping.IndexMapping) (bleve.Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, rerrors.IOError("failed to create search index directory", err)
	}

	if validErr := validateIndexIntegrity(path); validErr != nil {
		slog.Warn("search_index_corrupted",
			slog.String("path", path),
			slog.String("error", validErr.Error()))
		if removeErr := os.RemoveAll(path); removeErr != nil {
			return nil, rerrors.New(rerrors.ErrCodeCorruptIndex,
				fmt.Sprintf("search index corrupted at %s and cannot be removed: %v", path, validErr), removeErr)
		}
	}

	create := func() (bleve.Index, error) {
		return bleve.NewUsing(path, indexMapping, bleve.Config.DefaultIndexType, bleve.Config.DefaultKVStore, runtimeConfig(false))
	}

	idx, err := bleve.OpenUsing(path, runtimeConfig(false))
	switch {
	case errors.Is(err, bolt.ErrTimeout):
		// Held by another process; never treat as corruption.
		return nil, err
	case errors.Is(err, bleve.ErrorIndexPathDoesNotExist):
		return create()
	case isCorruptionError(err):
		slog.Warn("search_index_open_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		if removeErr := os.RemoveAll(path); removeErr != nil {
			return nil, rerrors.New(rerrors.ErrCodeCorruptIndex,
				fmt.Sprintf("search index corrupted at %s and cannot be removed: %v", path, err), removeErr)
		}
		slog.Info("search_index_cleared", slog.String("path", path))
		return create()
	}
	return idx, err
}

// newIndexMapping indexes title and content with a unicode, lowercased
// analyzer. Nothing is stored; hits only need the document ID.
func newIndexMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()

	err := im.AddCustomAnalyzer(TextAnalyzerName, map[string]any{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add custom analyzer: %w", err)
	}
	im.DefaultAnalyzer = TextAnalyzerName

	textField := func() *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = TextAnalyzerName
		fm.Store = false
		fm.IncludeTermVectors = false
		return fm
	}

	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false
	doc.AddFieldMappingsAt(FieldTitle, textField())
	doc.AddFieldMappingsAt(FieldContent, textField())
	im.DefaultMapping = doc

	return im, nil
}

// IndexDocument implements Engine.
func (b *BleveEngine) IndexDocument(ctx context.Context, doc Document) error {
	return b.IndexBatch(ctx, []Document{doc})
}

// IndexBatch implements Engine.
func (b *BleveEngine) IndexBatch(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errClosed
	}

	batch := b.index.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(strconv.Itoa(doc.Number), bleveDocument{Title: doc.Title, Content: doc.Body}); err != nil {
			return rerrors.SearchError(fmt.Sprintf("failed to index RFC %d", doc.Number), err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return rerrors.SearchError("failed to commit search index batch", err)
	}
	return nil
}

// Query implements Engine.
func (b *BleveEngine) Query(ctx context.Context, q Query) ([]Hit, error) {
	terms, err := normalizeTerms(q.Terms)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, errClosed
	}

	titleHits, err := b.queryField(ctx, FieldTitle, terms, q.Limit)
	if err != nil {
		return nil, err
	}
	if !q.Body {
		return mergeHits(titleHits, nil, q.Limit), nil
	}

	bodyHits, err := b.queryField(ctx, FieldContent, terms, 0)
	if err != nil {
		return nil, err
	}
	return mergeHits(titleHits, bodyHits, q.Limit), nil
}

// queryField finds documents whose field contains every term.
func (b *BleveEngine) queryField(ctx context.Context, field string, terms []string, limit int) ([]Hit, error) {
	match := bleve.NewMatchQuery(strings.Join(terms, " "))
	match.SetField(field)
	match.SetOperator(query.MatchQueryOperatorAnd)

	size := limit
	if size <= 0 {
		count, err := b.index.DocCount()
		if err != nil {
			return nil, rerrors.SearchError("failed to count indexed documents", err)
		}
		size = int(count)
	}
	if size == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequest(match)
	req.Size = size
	req.SortBy([]string{"-_score", "_id"})

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, rerrors.SearchError("search failed", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		number, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{Number: number, Score: h.Score, Field: field})
	}
	return hits, nil
}

// IndexedNumbers implements Engine.
func (b *BleveEngine) IndexedNumbers(ctx context.Context) ([]int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, errClosed
	}

	count, err := b.index.DocCount()
	if err != nil {
		return nil, rerrors.SearchError("failed to count indexed documents", err)
	}
	if count == 0 {
		return []int{}, nil
	}

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	req.Fields = []string{}

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, rerrors.SearchError("failed to list indexed documents", err)
	}

	numbers := make([]int, 0, len(result.Hits))
	for _, h := range result.Hits {
		if n, err := strconv.Atoi(h.ID); err == nil {
			numbers = append(numbers, n)
		}
	}
	sort.Ints(numbers)
	return numbers, nil
}

// Path returns the index directory ("" for in-memory indexes).
func (b *BleveEngine) Path() string {
	return b.path
}

// Close implements Engine.
func (b *BleveEngine) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

var _ Engine = (*BleveEngine)(nil)
