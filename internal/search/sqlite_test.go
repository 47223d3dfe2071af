package search

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchExpr_QuotesTerms(t *testing.T) {
	assert.Equal(t, `title : "border" AND title : "gateway"`, matchExpr("title", []string{"border", "gateway"}))
	assert.Equal(t, `content : "say ""hi"""`, matchExpr("content", []string{`say "hi"`}))
}

func TestSQLiteEngine_PunctuationIsNotSyntax(t *testing.T) {
	// Given: an index with an HTTP RFC
	e, err := NewSQLiteEngine("")
	require.NoError(t, err)
	defer func() { _ = e.Close() }()
	require.NoError(t, e.IndexDocument(context.Background(), corpus[2]))

	// When: searching with punctuation and FTS5 keywords
	hits, err := e.Query(context.Background(), Query{Terms: []string{"HTTP/1.1"}})
	require.NoError(t, err)
	keywords, err := e.Query(context.Background(), Query{Terms: []string{"OR", "NEAR("}})

	// Then: terms are matched literally
	require.NoError(t, err)
	assert.Equal(t, []int{2616}, numbers(hits))
	assert.Empty(t, keywords)
}

func TestNewSQLiteEngine_RecoversFromCorruption(t *testing.T) {
	// Given: a file that is not a database
	path := filepath.Join(t.TempDir(), "index.db")
	require.NoError(t, os.WriteFile(path, []byte("definitely not sqlite"), 0o644))

	// When: opening it
	e, err := NewSQLiteEngine(path)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	// Then: the index was recreated empty
	indexed, err := e.IndexedNumbers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, indexed)
	assert.Equal(t, path, e.Path())
}

func TestSQLiteEngine_ReplaceKeysRowByNumber(t *testing.T) {
	// Given: an RFC indexed twice with different bodies
	e, err := NewSQLiteEngine("")
	require.NoError(t, err)
	defer func() { _ = e.Close() }()
	ctx := context.Background()
	require.NoError(t, e.IndexDocument(ctx, Document{Number: 793, Title: "TCP", Body: "old body"}))
	require.NoError(t, e.IndexDocument(ctx, Document{Number: 793, Title: "TCP", Body: "new body"}))

	// When: inspecting the FTS table
	var rows, rowid int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*), MAX(rowid) FROM rfc_fts`).Scan(&rows, &rowid))
	old, err := e.Query(ctx, Query{Terms: []string{"old"}, Body: true})
	require.NoError(t, err)

	// Then: one row, keyed by the RFC number, holding the new body
	assert.Equal(t, 1, rows)
	assert.Equal(t, 793, rowid)
	assert.Empty(t, old)
}

func TestNewSQLiteEngine_UpgradesOldSchema(t *testing.T) {
	// Given: a version 1 index with a separate number column
	path := filepath.Join(t.TempDir(), "index.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`
	CREATE TABLE schema_version (version INTEGER PRIMARY KEY);
	CREATE VIRTUAL TABLE rfc_fts USING fts5(number UNINDEXED, title, content);
	CREATE TABLE indexed (number INTEGER PRIMARY KEY);
	INSERT INTO schema_version (version) VALUES (1);
	INSERT INTO rfc_fts (number, title, content) VALUES (1, 'Host Software', 'body');
	INSERT INTO indexed (number) VALUES (1);
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// When: opening it
	e, err := NewSQLiteEngine(path)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	// Then: the table is rebuilt empty, ready for reindexing
	indexed, err := e.IndexedNumbers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, indexed)

	require.NoError(t, e.IndexDocument(context.Background(), Document{Number: 1, Title: "Host Software"}))
	indexed, err = e.IndexedNumbers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, indexed)
}
