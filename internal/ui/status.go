package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hile/rtfm/internal/rfcindex"
)

// StatusRenderer displays the state of the local mirror.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{out: out, styles: GetStyles(noColor)}
}

// Render writes a human-readable summary.
func (r *StatusRenderer) Render(info rfcindex.StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("RFC cache: "+info.CacheDir))

	_, _ = fmt.Fprintf(r.out, "  Known RFCs:   %d\n", info.Known)
	if info.Latest > 0 {
		_, _ = fmt.Fprintf(r.out, "  Latest:       RFC %d\n", info.Latest)
	}
	_, _ = fmt.Fprintf(r.out, "  Downloaded:   %d\n", info.Downloaded)
	if missing := info.Missing(); missing > 0 {
		_, _ = fmt.Fprintf(r.out, "  Missing:      %s\n", r.styles.Warning.Render(fmt.Sprintf("%d", missing)))
	}
	searchable := fmt.Sprintf("%d", info.Searchable)
	if info.Searchable < info.Downloaded {
		searchable = r.styles.Warning.Render(searchable)
	}
	_, _ = fmt.Fprintf(r.out, "  Searchable:   %s (%s)\n", searchable, info.Backend)

	lastSync := r.styles.Warning.Render("never")
	if !info.LastSync.IsZero() {
		lastSync = formatTime(info.LastSync)
	}
	_, _ = fmt.Fprintf(r.out, "  Last updated: %s\n", lastSync)
	_, _ = fmt.Fprintf(r.out, "  Disk usage:   %s in %d files\n", FormatBytes(info.Disk.Bytes), info.Disk.Files)

	if info.Known == 0 {
		_, _ = fmt.Fprintf(r.out, "\n  %s\n", r.styles.Dim.Render("Run 'rtfm update' to fetch the RFC index."))
	}
	return nil
}

// RenderJSON writes info as indented JSON.
func (r *StatusRenderer) RenderJSON(info rfcindex.StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// formatTime formats t relative to now.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	default:
		return t.Local().Format("2006-01-02 15:04")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// FormatBytes formats a byte count for humans.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
