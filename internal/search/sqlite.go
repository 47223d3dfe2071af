package search

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	rerrors "github.com/hile/rtfm/internal/errors"
)

// SQLiteEngine is an Engine backed by an SQLite FTS5 table.
type SQLiteEngine struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// validateSQLiteIntegrity checks an existing database before opening it.
func validateSQLiteIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master
	                   WHERE type='table' AND name='rfc_fts'`).Scan(&count)
	if err != nil {
		return fmt.Errorf("cannot query schema: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("FTS5 table 'rfc_fts' missing")
	}
	return nil
}

// NewSQLiteEngine opens or creates an FTS5 index at path; "" means in memory.
// A database failing its integrity check is removed and recreated empty.
func NewSQLiteEngine(path string) (*SQLiteEngine, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, rerrors.IOError("failed to create search index directory", err)
		}

		if validErr := validateSQLiteIntegrity(path); validErr != nil {
			slog.Warn("search_index_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))
			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, rerrors.New(rerrors.ErrCodeCorruptIndex,
					fmt.Sprintf("search index corrupted at %s and cannot be removed: %v", path, validErr), removeErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")
			slog.Info("search_index_cleared", slog.String("path", path))
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, rerrors.New(rerrors.ErrCodeCorruptIndex, "failed to open search index", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	e := &SQLiteEngine{db: db, path: path}
	if err := e.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return e, nil
}

// schemaVersion 2 keys rfc_fts rows by rowid = RFC number.
const schemaVersion = 2

func (s *SQLiteEngine) initSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return err
	}

	var version int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version); err != nil {
		return err
	}
	if version != 0 && version < schemaVersion {
		// Older layouts used autoincrement rowids; ReindexMissing refills the table.
		slog.Info("search_index_schema_upgrade",
			slog.Int("from", version),
			slog.Int("to", schemaVersion))
		if _, err := s.db.Exec(`
		DROP TABLE IF EXISTS rfc_fts;
		DROP TABLE IF EXISTS indexed;
		DELETE FROM schema_version;
		`); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(`
	-- rowid is the RFC number
	CREATE VIRTUAL TABLE IF NOT EXISTS rfc_fts USING fts5(
		title,
		content,
		tokenize='unicode61'
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (2);
	`)
	return err
}

// IndexDocument implements Engine.
func (s *SQLiteEngine) IndexDocument(ctx context.Context, doc Document) error {
	return s.IndexBatch(ctx, []Document{doc})
}

// IndexBatch implements Engine. The batch is one transaction.
func (s *SQLiteEngine) IndexBatch(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rerrors.SearchError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	// FTS5 tables have no REPLACE; delete by rowid first.
	del, err := tx.PrepareContext(ctx, `DELETE FROM rfc_fts WHERE rowid = ?`)
	if err != nil {
		return rerrors.SearchError("failed to prepare delete", err)
	}
	defer func() { _ = del.Close() }()

	ins, err := tx.PrepareContext(ctx, `INSERT INTO rfc_fts(rowid, title, content) VALUES (?, ?, ?)`)
	if err != nil {
		return rerrors.SearchError("failed to prepare insert", err)
	}
	defer func() { _ = ins.Close() }()

	for _, doc := range docs {
		if _, err := del.ExecContext(ctx, doc.Number); err != nil {
			return rerrors.SearchError(fmt.Sprintf("failed to replace RFC %d", doc.Number), err)
		}
		if _, err := ins.ExecContext(ctx, doc.Number, doc.Title, doc.Body); err != nil {
			return rerrors.SearchError(fmt.Sprintf("failed to index RFC %d", doc.Number), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return rerrors.SearchError("failed to commit search index batch", err)
	}
	return nil
}

// Query implements Engine.
func (s *SQLiteEngine) Query(ctx context.Context, q Query) ([]Hit, error) {
	terms, err := normalizeTerms(q.Terms)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed
	}

	titleHits, err := s.queryField(ctx, FieldTitle, terms, q.Limit)
	if err != nil {
		return nil, err
	}
	if !q.Body {
		return mergeHits(titleHits, nil, q.Limit), nil
	}

	bodyHits, err := s.queryField(ctx, FieldContent, terms, 0)
	if err != nil {
		return nil, err
	}
	return mergeHits(titleHits, bodyHits, q.Limit), nil
}

// matchExpr builds an FTS5 expression requiring every term in column.
// Terms are quoted so punctuation is never parsed as FTS5 syntax.
func matchExpr(column string, terms []string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = fmt.Sprintf(`%s : "%s"`, column, strings.ReplaceAll(t, `"`, `""`))
	}
	return strings.Join(parts, " AND ")
}

func (s *SQLiteEngine) queryField(ctx context.Context, column string, terms []string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	// bm25() is negative, lower is better.
	rows, err := s.db.QueryContext(ctx, `
		SELECT rowid, bm25(rfc_fts) AS score
		FROM rfc_fts
		WHERE rfc_fts MATCH ?
		ORDER BY score, rowid
		LIMIT ?`, matchExpr(column, terms), limit)
	if err != nil {
		return nil, rerrors.SearchError("search failed", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []Hit
	for rows.Next() {
		var (
			number int
			score  float64
		)
		if err := rows.Scan(&number, &score); err != nil {
			return nil, rerrors.SearchError("failed to scan result", err)
		}
		hits = append(hits, Hit{Number: number, Score: -score, Field: column})
	}
	if err := rows.Err(); err != nil {
		return nil, rerrors.SearchError("search failed", err)
	}
	return hits, nil
}

// IndexedNumbers implements Engine.
func (s *SQLiteEngine) IndexedNumbers(ctx context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT rowid FROM rfc_fts ORDER BY rowid`)
	if err != nil {
		return nil, rerrors.SearchError("failed to list indexed documents", err)
	}
	defer func() { _ = rows.Close() }()

	numbers := []int{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, rerrors.SearchError("failed to scan indexed number", err)
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

// Path returns the database path ("" for in-memory indexes).
func (s *SQLiteEngine) Path() string {
	return s.path
}

// Close implements Engine. The WAL is checkpointed first.
func (s *SQLiteEngine) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

var _ Engine = (*SQLiteEngine)(nil)
