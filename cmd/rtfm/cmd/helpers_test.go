package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testIndex = `
~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~

                                RFC INDEX
                                ---------

0001 Host Software. S. Crocker. April 1969. (Format: TXT, HTML)
     (Status: UNKNOWN) (DOI: 10.17487/RFC0001)

0793 Transmission Control Protocol. J. Postel. September 1981.
     (Format: TXT, HTML) (Obsoleted by RFC9293) (Updated-By: RFC1122)
     (Status: INTERNET STANDARD) (DOI: 10.17487/RFC0793)

2324 Hyper Text Coffee Pot Control Protocol (HTCPCP/1.0)
`

var testDocs = map[string]string{
	"/rfc/rfc1.txt":   "Network Working Group\n\nHost Software\n\nThe IMP interface.\n",
	"/rfc/rfc793.txt": "TRANSMISSION CONTROL PROTOCOL\n\nSequence numbers and windows.\n",
}

// setupMirror points the configuration at a test mirror and an isolated
// config directory, and returns a fresh cache directory.
func setupMirror(t *testing.T) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rfc-index.txt" {
			_, _ = w.Write([]byte(testIndex))
			return
		}
		body, ok := testDocs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("RTFM_INDEX_URL", srv.URL+"/rfc-index.txt")
	t.Setenv("RTFM_DOCUMENT_BASE_URL", srv.URL+"/rfc/")
	t.Setenv("RTFM_RETRIES", "0")
	t.Setenv("RTFM_SEARCH_BACKEND", "")
	t.Setenv("RTFM_CACHE_DIR", "")
	return t.TempDir()
}

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--no-color"}, args...))

	err := cmd.ExecuteContext(context.Background())
	teardown()
	return buf.String(), err
}

// updated returns a cache directory that has been through 'rtfm update'.
func updated(t *testing.T) string {
	t.Helper()
	cacheDir := setupMirror(t)
	out, err := run(t, "--cache-dir", cacheDir, "update", "--plain")
	if err != nil {
		t.Fatalf("update failed: %v\n%s", err, out)
	}
	return cacheDir
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
