// Package search is the full-text layer over RFC titles and bodies.
//
// Two engines implement Engine: Bleve (the default) and SQLite FTS5. Both
// key entries by RFC number, so indexing a number again replaces its entry.
// The search index is a derived projection of the catalog and the document
// store and can always be rebuilt with ReindexMissing.
package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	rerrors "github.com/hile/rtfm/internal/errors"
)

// Backend names a search engine implementation.
type Backend string

const (
	// BackendBleve stores the index in a bleve (scorch) directory.
	BackendBleve Backend = "bleve"

	// BackendSQLite stores the index in an SQLite FTS5 table.
	BackendSQLite Backend = "sqlite"
)

// Field names shared by both engines.
const (
	FieldTitle   = "title"
	FieldContent = "content"
)

// Document is one RFC as fed to the index.
type Document struct {
	Number int
	Title  string
	Body   string
}

// Hit is a single query result.
type Hit struct {
	Number int     `json:"number"`
	Score  float64 `json:"score"`
	// Field is FieldTitle for title matches and FieldContent for body-only matches.
	Field string `json:"field"`
}

// Query selects RFCs whose title contains all Terms. With Body set, RFCs
// whose body contains all Terms are appended after the title matches.
type Query struct {
	Terms []string
	Body  bool
	// Limit caps the result count; 0 means unlimited.
	Limit int
}

// Engine is a full-text index keyed by RFC number.
type Engine interface {
	// IndexDocument inserts or replaces the entry for doc.Number.
	IndexDocument(ctx context.Context, doc Document) error

	// IndexBatch indexes docs and commits them together.
	IndexBatch(ctx context.Context, docs []Document) error

	// Query runs q and returns hits in rank order, without duplicates.
	Query(ctx context.Context, q Query) ([]Hit, error)

	// IndexedNumbers returns every indexed RFC number, ascending.
	IndexedNumbers(ctx context.Context) ([]int, error)

	// Close releases the index. It is safe to call more than once.
	Close() error
}

// Path returns the on-disk location of the index for backend in cacheDir.
func Path(cacheDir string, backend Backend) string {
	switch backend {
	case BackendSQLite:
		return filepath.Join(cacheDir, "index.db")
	default:
		return filepath.Join(cacheDir, "index.bleve")
	}
}

// Options tunes how an on-disk engine is opened.
type Options struct {
	// ReadOnly opens the index for queries only, so readers can run while
	// another reader (e.g. 'rtfm serve') has it open. SQLite arbitrates
	// readers and writers itself and ignores it.
	ReadOnly bool
}

// New opens (or creates) a writable engine of the given backend at path.
// An empty path gives an in-memory index.
func New(backend Backend, path string) (Engine, error) {
	return Open(backend, path, Options{})
}

// Open is New with options.
func Open(backend Backend, path string, opts Options) (Engine, error) {
	switch backend {
	case BackendBleve, "":
		return OpenBleveEngine(path, opts)
	case BackendSQLite:
		return NewSQLiteEngine(path)
	default:
		return nil, rerrors.ConfigError(
			fmt.Sprintf("unknown search backend: %s (valid options: bleve, sqlite)", backend), nil)
	}
}

// normalizeTerms drops blank terms. An empty result is a declared error.
func normalizeTerms(terms []string) ([]string, error) {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil, rerrors.New(rerrors.ErrCodeQueryEmpty, "no search terms given", nil).
			WithSuggestion("pass at least one search term")
	}
	return out, nil
}

// mergeHits appends body hits that are not already title hits and applies limit.
func mergeHits(title, body []Hit, limit int) []Hit {
	seen := make(map[int]struct{}, len(title))
	out := make([]Hit, 0, len(title)+len(body))
	for _, h := range title {
		if _, dup := seen[h.Number]; dup {
			continue
		}
		seen[h.Number] = struct{}{}
		out = append(out, h)
	}
	for _, h := range body {
		if _, dup := seen[h.Number]; dup {
			continue
		}
		seen[h.Number] = struct{}{}
		out = append(out, h)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
