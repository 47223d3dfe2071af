package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// FileName is the catalog database name inside the cache directory.
const FileName = "catalog.db"

const schema = `
CREATE TABLE IF NOT EXISTS rfcs (
	number      INTEGER PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	published   TEXT NOT NULL DEFAULT '',
	flags       TEXT NOT NULL DEFAULT '{}',
	first_seen  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS catalog_state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

const (
	stateLastSync = "last_sync"
	dateLayout    = "2006-01"
)

// Store persists the catalog in a SQLite database.
// Merges run in a single transaction so a failed update leaves the
// previously persisted catalog untouched.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the catalog database at path.
// An empty path opens a private in-memory database.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// Single connection: an in-memory database is per connection, and the
	// CLI is single-threaded anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create catalog schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database path ("" for in-memory stores).
func (s *Store) Path() string {
	return s.path
}

// Load reads every persisted entry in ascending number order.
func (s *Store) Load(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT number, title, description, published, flags FROM rfcs ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			published string
			flags     string
		)
		if err := rows.Scan(&e.Number, &e.Title, &e.Description, &published, &flags); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		if published != "" {
			e.Date, _ = time.Parse(dateLayout, published)
		}
		if flags != "" && flags != "{}" {
			if err := json.Unmarshal([]byte(flags), &e.Flags); err != nil {
				return nil, fmt.Errorf("corrupt flags for RFC %d: %w", e.Number, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Merge upserts entries in one transaction and records the sync time.
// Existing rows are overwritten, rows absent from entries are kept.
func (s *Store) Merge(ctx context.Context, entries []Entry) (MergeStats, error) {
	var stats MergeStats

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)

	lookup, err := tx.PrepareContext(ctx,
		`SELECT title, description, published, flags FROM rfcs WHERE number = ?`)
	if err != nil {
		return stats, fmt.Errorf("failed to prepare lookup: %w", err)
	}
	defer func() { _ = lookup.Close() }()

	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO rfcs (number, title, description, published, flags, first_seen, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			published = excluded.published,
			flags = excluded.flags,
			updated_at = excluded.updated_at`)
	if err != nil {
		return stats, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = upsert.Close() }()

	for _, e := range entries {
		published := ""
		if !e.Date.IsZero() {
			published = e.Date.Format(dateLayout)
		}
		flags := "{}"
		if len(e.Flags) > 0 {
			data, err := json.Marshal(e.Flags)
			if err != nil {
				return stats, fmt.Errorf("failed to encode flags for RFC %d: %w", e.Number, err)
			}
			flags = string(data)
		}

		var oldTitle, oldDesc, oldPublished, oldFlags string
		err := lookup.QueryRowContext(ctx, e.Number).Scan(&oldTitle, &oldDesc, &oldPublished, &oldFlags)
		switch {
		case err == sql.ErrNoRows:
			stats.Added++
		case err != nil:
			return stats, fmt.Errorf("failed to look up RFC %d: %w", e.Number, err)
		case oldTitle == e.Title && oldDesc == e.Description && oldPublished == published && oldFlags == flags:
			stats.Unchanged++
			continue
		default:
			stats.Updated++
		}

		if _, err := upsert.ExecContext(ctx, e.Number, e.Title, e.Description, published, flags, now, now); err != nil {
			return stats, fmt.Errorf("failed to store RFC %d: %w", e.Number, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO catalog_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, stateLastSync, now); err != nil {
		return stats, fmt.Errorf("failed to record sync time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit catalog: %w", err)
	}
	return stats, nil
}

// LastSync returns when Merge last committed, or the zero time if never.
func (s *Store) LastSync(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM catalog_state WHERE key = ?`, stateLastSync).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read sync time: %w", err)
	}
	return time.Parse(time.RFC3339, value)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
