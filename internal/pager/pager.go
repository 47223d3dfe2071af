// Package pager shows RFC documents through an external pager program.
package pager

import (
	"os"
	"os/exec"
	"strings"
	"syscall"

	rerrors "github.com/hile/rtfm/internal/errors"
)

// EnvVar selects the pager when the configuration does not.
const EnvVar = "PAGER"

// DefaultPager is used when neither configuration nor environment names one.
const DefaultPager = "less"

// Replaced in tests.
var (
	lookPath = exec.LookPath
	execve   = syscall.Exec
)

// Command resolves the pager command line: configured, then $PAGER, then
// less. The value may carry arguments, e.g. "less -R".
func Command(configured string) []string {
	for _, candidate := range []string{configured, os.Getenv(EnvVar)} {
		if fields := strings.Fields(candidate); len(fields) > 0 {
			return fields
		}
	}
	return []string{DefaultPager}
}

// Display replaces the current process with the pager showing path. It only
// returns on failure.
func Display(path, configured string) error {
	if _, err := os.Stat(path); err != nil {
		return rerrors.New(rerrors.ErrCodeFileNotFound, "document not available locally", err).
			WithDetail("path", path).
			WithSuggestion("Run 'rtfm update' to download missing documents")
	}

	argv := append(Command(configured), path)
	bin, err := lookPath(argv[0])
	if err != nil {
		return rerrors.ConfigError("pager not found: "+argv[0], err).
			WithSuggestion("Set $PAGER or 'pager' in the config file")
	}

	_ = os.Stdout.Sync()
	if err := execve(bin, argv, os.Environ()); err != nil {
		return rerrors.IOError("failed to start pager "+bin, err)
	}
	return nil
}
