package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hile/rtfm/internal/config"
)

func TestConfigPath_UsesXDG(t *testing.T) {
	setupMirror(t)

	out, err := run(t, "--cache-dir", t.TempDir(), "config", "path")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "rtfm", "config.yaml")+"\n", out)
}

func TestConfigInit_CreatesThenRefusesThenBacksUp(t *testing.T) {
	setupMirror(t)
	cacheDir := t.TempDir()
	path := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "rtfm", "config.yaml")

	// When: creating the file
	out, err := run(t, "--cache-dir", cacheDir, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote configuration")
	require.FileExists(t, path)

	// Then: a second init leaves it alone
	out, err = run(t, "--cache-dir", cacheDir, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	// And: --force keeps user values and writes a backup
	require.NoError(t, os.WriteFile(path, []byte("pager: most\n"), 0o644))
	out, err = run(t, "--cache-dir", cacheDir, "config", "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Backup:")

	backups, err := config.ListBackups(path)
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	loaded, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "most", loaded.Pager)
	assert.Equal(t, config.BackendBleve, loaded.Search.Backend)
}

func TestConfigShow_ReflectsFlags(t *testing.T) {
	setupMirror(t)
	cacheDir := t.TempDir()

	out, err := run(t, "--cache-dir", cacheDir, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "cache_dir: "+cacheDir)
	assert.Contains(t, out, "backend: bleve")
}

func TestConfig_InvalidFileFails(t *testing.T) {
	setupMirror(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  backend: lucene\n"), 0o644))

	_, err := run(t, "--config", path, "--cache-dir", t.TempDir(), "status")

	assert.Error(t, err)
}

func TestVersion_Short(t *testing.T) {
	setupMirror(t)

	out, err := run(t, "--cache-dir", t.TempDir(), "version", "--short")

	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestVersion_ShowsConfiguredMirror(t *testing.T) {
	cacheDir := setupMirror(t)
	t.Setenv("RTFM_SEARCH_BACKEND", "sqlite")

	out, err := run(t, "--cache-dir", cacheDir, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "/rfc-index.txt\n")
	assert.Contains(t, out, "Documents:  http://")
	assert.Contains(t, out, "/rfc/rfc793.txt\n")
	assert.Contains(t, out, "User-Agent: rtfm/")
	assert.Contains(t, out, "Backend:    sqlite\n")
	assert.Contains(t, out, "Cache:      "+cacheDir+"\n")
}

func TestVersion_JSONIncludesMirror(t *testing.T) {
	cacheDir := setupMirror(t)

	out, err := run(t, "--cache-dir", cacheDir, "version", "--json")
	require.NoError(t, err)

	var report struct {
		Version string `json:"version"`
		Mirror  struct {
			IndexURL  string `json:"index_url"`
			UserAgent string `json:"user_agent"`
			CacheDir  string `json:"cache_dir"`
		} `json:"mirror"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.NotEmpty(t, report.Version)
	assert.True(t, strings.HasSuffix(report.Mirror.IndexURL, "/rfc-index.txt"))
	assert.Equal(t, "rtfm/"+report.Version, report.Mirror.UserAgent)
	assert.Equal(t, cacheDir, report.Mirror.CacheDir)
}
