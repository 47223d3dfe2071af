package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupConfigFile_NoConfig(t *testing.T) {
	backupPath, err := BackupConfigFile(filepath.Join(t.TempDir(), "config.yaml"))

	require.NoError(t, err)
	assert.Empty(t, backupPath)
}

func TestBackupConfigFile_CopiesContent(t *testing.T) {
	// Given: an existing config file
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "version: 1\ncache_dir: /srv/rfc\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// When: backing it up
	backupPath, err := BackupConfigFile(path)

	// Then: the backup holds the original bytes
	require.NoError(t, err)
	require.NotEmpty(t, backupPath)
	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestBackupConfigFile_PrunesOldBackups(t *testing.T) {
	// Given: more stale backups than MaxBackups
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))
	for i := 0; i < MaxBackups+2; i++ {
		stale := fmt.Sprintf("%s%s.2001010%d-000000.000", path, BackupSuffix, i)
		require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	}

	// When: taking a fresh backup
	fresh, err := BackupConfigFile(path)
	require.NoError(t, err)

	// Then: only the newest MaxBackups remain, including the fresh one
	backups, err := ListBackups(path)
	require.NoError(t, err)
	assert.Len(t, backups, MaxBackups)
	assert.Equal(t, fresh, backups[0])
}
