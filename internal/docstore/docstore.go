// Package docstore manages the local copies of RFC text files.
//
// Documents live at <dir>/rfc<N>.txt. Writes go through a temporary file and
// a rename so a reader never sees a partially written document.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	rerrors "github.com/hile/rtfm/internal/errors"
)

// DirName is the document directory inside the cache directory.
const DirName = "files"

// Fetcher downloads the raw text of an RFC.
type Fetcher interface {
	FetchDocument(ctx context.Context, number int) ([]byte, error)
}

// ErrNoFetcher is returned by Fetch on a read-only store.
var ErrNoFetcher = errors.New("document store has no remote source")

// ErrEmptyDocument is the cause of a FetchError for an empty response body.
var ErrEmptyDocument = errors.New("empty document")

// Store is a directory of RFC documents.
type Store struct {
	dir string
	src Fetcher
}

// New returns a store rooted at dir that downloads from src. A nil src gives
// a read-only store. The directory is created on first write.
func New(dir string, src Fetcher) *Store {
	return &Store{dir: dir, src: src}
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns where RFC number is (or would be) stored.
func (s *Store) Path(number int) string {
	return filepath.Join(s.dir, fmt.Sprintf("rfc%d.txt", number))
}

// Exists reports whether RFC number has been downloaded.
func (s *Store) Exists(number int) bool {
	info, err := os.Stat(s.Path(number))
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Fetch downloads RFC number and stores it, replacing any previous copy.
// The download is not retried; on error the local copy is left unchanged.
func (s *Store) Fetch(ctx context.Context, number int) error {
	if s.src == nil {
		return ErrNoFetcher
	}
	data, err := s.src.FetchDocument(ctx, number)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return rerrors.FetchError(number, ErrEmptyDocument)
	}
	return s.Write(number, data)
}

// Write stores data as RFC number, replacing any previous copy atomically.
func (s *Store) Write(number int, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create document directory: %w", err)
	}

	target := s.Path(number)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", target, err)
	}
	return nil
}

// Read returns the text of RFC number. Files that are not valid UTF-8 are
// decoded as ISO-8859-1, which accepts any byte sequence.
func (s *Store) Read(number int) (string, error) {
	data, err := os.ReadFile(s.Path(number))
	if err != nil {
		return "", err
	}
	return Decode(data)
}

// Decode converts raw document bytes to text.
func Decode(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode ISO-8859-1: %w", err)
	}
	return string(text), nil
}

// Size returns the size in bytes of RFC number, or 0 if it is missing.
func (s *Store) Size(number int) int64 {
	info, err := os.Stat(s.Path(number))
	if err != nil {
		return 0
	}
	return info.Size()
}

// Usage summarizes the document directory.
type Usage struct {
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

// DiskUsage counts stored documents. Leftover temp files are ignored.
func (s *Store) DiskUsage() (Usage, error) {
	var u Usage
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return u, nil
		}
		return u, err
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || !isDocumentName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return u, err
		}
		u.Files++
		u.Bytes += info.Size()
	}
	return u, nil
}

// CleanTemp removes temp files left by interrupted writes.
func (s *Store) CleanTemp() (int, error) {
	removed := 0
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			if path != s.dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".tmp") {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
		return nil
	})
	return removed, err
}

func isDocumentName(name string) bool {
	return strings.HasPrefix(name, "rfc") && strings.HasSuffix(name, ".txt")
}
