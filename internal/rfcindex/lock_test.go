package rfcindex

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/hile/rtfm/internal/errors"
)

func TestCacheLock_TryLockAndUnlock(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	a := NewCacheLock(dir)
	b := NewCacheLock(dir)

	require.NoError(t, a.TryLock())
	assert.True(t, a.IsLocked())
	assert.Equal(t, filepath.Join(dir, LockFileName), a.Path())

	// Held elsewhere
	err := b.TryLock()
	assert.ErrorIs(t, err, rerrors.ErrLocked)
	assert.False(t, b.IsLocked())

	// Released
	require.NoError(t, a.Unlock())
	require.NoError(t, a.Unlock())
	require.NoError(t, b.TryLock())
	require.NoError(t, b.Unlock())
}
