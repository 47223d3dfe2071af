package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/hile/rtfm/internal/errors"
)

func TestValidateIndexIntegrity(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing directory is fine", func(t *testing.T) {
		assert.NoError(t, validateIndexIntegrity(filepath.Join(dir, "absent")))
	})

	t.Run("missing meta", func(t *testing.T) {
		p := filepath.Join(dir, "nometa")
		require.NoError(t, os.MkdirAll(p, 0o755))
		assert.Error(t, validateIndexIntegrity(p))
	})

	t.Run("empty meta", func(t *testing.T) {
		p := filepath.Join(dir, "empty")
		require.NoError(t, os.MkdirAll(p, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(p, "index_meta.json"), nil, 0o644))
		assert.Error(t, validateIndexIntegrity(p))
	})

	t.Run("garbage meta", func(t *testing.T) {
		p := filepath.Join(dir, "garbage")
		require.NoError(t, os.MkdirAll(p, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(p, "index_meta.json"), []byte("{not json"), 0o644))
		assert.Error(t, validateIndexIntegrity(p))
	})
}

func TestNewBleveEngine_RecoversFromCorruption(t *testing.T) {
	// Given: an index directory with a broken meta file
	path := filepath.Join(t.TempDir(), "index.bleve")
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "index_meta.json"), []byte("{"), 0o644))

	// When: opening it
	e, err := NewBleveEngine(path)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	// Then: a fresh empty index is usable
	indexed, err := e.IndexedNumbers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, indexed)
	require.NoError(t, e.IndexDocument(context.Background(), Document{Number: 1, Title: "Host Software"}))
	assert.Equal(t, path, e.Path())
}

// openWithin opens path in a goroutine and fails the test if it does not
// return within a few seconds.
func openWithin(t *testing.T, path string, opts Options) (*BleveEngine, error) {
	t.Helper()
	type result struct {
		e   *BleveEngine
		err error
	}
	done := make(chan result, 1)
	go func() {
		e, err := OpenBleveEngine(path, opts)
		done <- result{e, err}
	}()
	select {
	case r := <-done:
		if r.e != nil {
			t.Cleanup(func() { _ = r.e.Close() })
		}
		return r.e, r.err
	case <-time.After(5 * time.Second):
		t.Fatal("opening the search index blocked")
		return nil, nil
	}
}

func shortOpenTimeout(t *testing.T) {
	t.Helper()
	prev := OpenTimeout
	OpenTimeout = 100 * time.Millisecond
	t.Cleanup(func() { OpenTimeout = prev })
}

func TestOpenBleveEngine_HeldByWriter(t *testing.T) {
	shortOpenTimeout(t)

	// Given: an on-disk index open for writing
	path := filepath.Join(t.TempDir(), "index.bleve")
	writer, err := NewBleveEngine(path)
	require.NoError(t, err)
	require.NoError(t, writer.IndexDocument(context.Background(), corpus[0]))

	for _, readOnly := range []bool{false, true} {
		// When: a second writer or a reader opens it
		_, err := openWithin(t, path, Options{ReadOnly: readOnly})

		// Then: it gives up with a locked error instead of waiting
		require.Error(t, err, "read only: %v", readOnly)
		assert.ErrorIs(t, err, rerrors.ErrLocked)
	}

	// And: the index was left intact
	require.NoError(t, writer.Close())
	reopened, err := openWithin(t, path, Options{})
	require.NoError(t, err)
	indexed, err := reopened.IndexedNumbers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1000}, indexed)
}

func TestOpenBleveEngine_ReadersShare(t *testing.T) {
	shortOpenTimeout(t)

	// Given: a populated on-disk index
	path := filepath.Join(t.TempDir(), "index.bleve")
	writer, err := NewBleveEngine(path)
	require.NoError(t, err)
	require.NoError(t, writer.IndexBatch(context.Background(), corpus))
	require.NoError(t, writer.Close())

	// When: two readers open it at once
	a, err := openWithin(t, path, Options{ReadOnly: true})
	require.NoError(t, err)
	b, err := openWithin(t, path, Options{ReadOnly: true})
	require.NoError(t, err)

	// Then: both can query
	for _, e := range []*BleveEngine{a, b} {
		hits, err := e.Query(context.Background(), Query{Terms: []string{"border"}})
		require.NoError(t, err)
		assert.Equal(t, []int{1000}, numbers(hits))
	}

	// And: a writer waits for them and gives up
	_, err = openWithin(t, path, Options{})
	assert.ErrorIs(t, err, rerrors.ErrLocked)
}

func TestOpenBleveEngine_ReadOnlyMissingIndex(t *testing.T) {
	// Given: a cache without a search index
	path := filepath.Join(t.TempDir(), "index.bleve")

	// When: opening it read-only
	e, err := openWithin(t, path, Options{ReadOnly: true})
	require.NoError(t, err)

	// Then: it is empty and nothing was created on disk
	indexed, err := e.IndexedNumbers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, indexed)
	assert.NoDirExists(t, path)
}
