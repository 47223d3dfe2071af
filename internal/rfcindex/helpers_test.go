package rfcindex

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hile/rtfm/internal/catalog"
	"github.com/hile/rtfm/internal/search"
)

// fakeRemote serves a fixed index and a set of documents.
type fakeRemote struct {
	entries  []catalog.Entry
	docs     map[int]string
	indexErr error
	fetched  []int
}

func (f *fakeRemote) FetchIndex(context.Context) ([]catalog.Entry, error) {
	if f.indexErr != nil {
		return nil, f.indexErr
	}
	return f.entries, nil
}

func (f *fakeRemote) FetchDocument(_ context.Context, number int) ([]byte, error) {
	f.fetched = append(f.fetched, number)
	body, ok := f.docs[number]
	if !ok {
		return nil, errors.New("simulated network error")
	}
	return []byte(body), nil
}

func newRemote(titles map[int]string) *fakeRemote {
	f := &fakeRemote{docs: map[int]string{}}
	for n := 1; n <= 10000; n++ {
		if title, ok := titles[n]; ok {
			f.entries = append(f.entries, catalog.Entry{Number: n, Title: title})
			f.docs[n] = fmt.Sprintf("RFC %d\n\n%s\n", n, title)
		}
	}
	return f
}

func openIndex(t *testing.T, dir string, remote Remote) *Index {
	t.Helper()
	engine, err := search.New(search.BackendBleve, "")
	require.NoError(t, err)
	idx, err := Open(context.Background(), Options{CacheDir: dir, Remote: remote, Engine: engine})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}
