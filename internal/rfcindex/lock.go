package rfcindex

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	rerrors "github.com/hile/rtfm/internal/errors"
)

// LockFileName is the lock file inside the cache directory.
const LockFileName = ".rtfm.lock"

// CacheLock is a cross-process lock on a cache directory. It keeps two
// concurrent refreshes from writing the same catalog and index.
type CacheLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewCacheLock creates a lock for cacheDir. Nothing is acquired yet.
func NewCacheLock(cacheDir string) *CacheLock {
	path := filepath.Join(cacheDir, LockFileName)
	return &CacheLock{path: path, flock: flock.New(path)}
}

// TryLock acquires the lock without blocking. A lock held elsewhere is
// reported as ERR_204_CACHE_LOCKED.
func (l *CacheLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return rerrors.IOError("failed to create lock directory", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return rerrors.IOError(fmt.Sprintf("failed to acquire %s", l.path), err)
	}
	if !acquired {
		return rerrors.New(rerrors.ErrCodeCacheLocked,
			fmt.Sprintf("cache directory %s is locked by another rtfm process", filepath.Dir(l.path)), nil).
			WithSuggestion("wait for the running update to finish")
	}
	l.locked = true
	return nil
}

// Unlock releases the lock. Unlocking an unheld lock is a no-op.
func (l *CacheLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *CacheLock) Path() string {
	return l.path
}

// IsLocked reports whether this process holds the lock.
func (l *CacheLock) IsLocked() bool {
	return l.locked
}
