package logging

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `{"time":"2026-10-17T10:00:00Z","level":"DEBUG","msg":"rfc_fetched","rfc":1}
{"time":"2026-10-17T10:00:01Z","level":"WARN","msg":"rfc_fetch_failed","rfc":2324,"code":"ERR_301_FETCH_FAILED"}
not json
{"time":"2026-10-17T10:00:02Z","level":"INFO","msg":"download_finished","attempted":2}
`

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), LogFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestViewer_TailLastN(t *testing.T) {
	path := writeLog(t, sampleLog)
	v := NewViewer(ViewerConfig{NoColor: true})

	entries, err := v.Tail(path, 2)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].Valid)
	assert.Equal(t, "download_finished", entries[1].Msg)
}

func TestViewer_LevelFilter(t *testing.T) {
	path := writeLog(t, sampleLog)
	v := NewViewer(ViewerConfig{Level: "warn", NoColor: true})

	entries, err := v.Tail(path, 0)

	require.NoError(t, err)
	// Non-JSON lines are never level-filtered.
	require.Len(t, entries, 2)
	assert.Equal(t, "rfc_fetch_failed", entries[0].Msg)
	assert.Equal(t, "not json", entries[1].Raw)
}

func TestViewer_PatternFilter(t *testing.T) {
	path := writeLog(t, sampleLog)
	v := NewViewer(ViewerConfig{Pattern: regexp.MustCompile(`2324`), NoColor: true})

	entries, err := v.Tail(path, 50)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, float64(2324), entries[0].Attrs["rfc"])
}

func TestViewer_TailIncludesRotatedFile(t *testing.T) {
	path := writeLog(t, sampleLog)
	require.NoError(t, os.WriteFile(path+".1",
		[]byte(`{"time":"2026-10-16T09:00:00Z","level":"INFO","msg":"catalog_updated"}`+"\n"), 0o644))
	v := NewViewer(ViewerConfig{NoColor: true})

	entries, err := v.Tail(path, 0)

	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, "catalog_updated", entries[0].Msg)
}

func TestViewer_TailMissingFile(t *testing.T) {
	_, err := NewViewer(ViewerConfig{}).Tail(filepath.Join(t.TempDir(), "nope.log"), 10)
	assert.Error(t, err)
}

func TestViewer_FormatSortsAttributes(t *testing.T) {
	v := NewViewer(ViewerConfig{NoColor: true})
	e := v.parse(`{"time":"2026-10-17T10:00:01Z","level":"WARN","msg":"rfc_fetch_failed","rfc":2324,"code":"ERR_301"}`)

	out := v.Format(e)

	assert.True(t, strings.HasSuffix(out, " WARN  rfc_fetch_failed code=ERR_301 rfc=2324"), out)
}

func TestViewer_FollowSeesAppendedLines(t *testing.T) {
	// Given: a log being followed
	path := writeLog(t, sampleLog)
	v := NewViewer(ViewerConfig{NoColor: true, PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	entries := make(chan Entry, 10)
	done := make(chan error, 1)
	go func() { done <- v.Follow(ctx, path, entries) }()

	// When: a line is appended
	time.Sleep(50 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"time":"2026-10-17T10:00:03Z","level":"INFO","msg":"search_done"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Then: only the new entry is delivered
	select {
	case e := <-entries:
		assert.Equal(t, "search_done", e.Msg)
	case <-ctx.Done():
		t.Fatal("no entry received")
	}
	cancel()
	assert.NoError(t, <-done)
}
