package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Entry is a parsed JSON log line.
type Entry struct {
	Time  time.Time
	Level string
	Msg   string
	Attrs map[string]any
	// Raw is the line as read.
	Raw string
	// Valid is false for lines that are not JSON objects.
	Valid bool
}

// ViewerConfig configures a Viewer.
type ViewerConfig struct {
	// Level hides entries below it.
	Level string
	// Pattern hides lines it does not match.
	Pattern *regexp.Regexp
	NoColor bool
	// PollInterval is how often Follow checks for new lines.
	PollInterval time.Duration
}

// Viewer reads, filters and formats rtfm log files.
type Viewer struct {
	cfg    ViewerConfig
	levels map[string]lipgloss.Style
}

// NewViewer creates a viewer.
func NewViewer(cfg ViewerConfig) *Viewer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}
	v := &Viewer{cfg: cfg, levels: map[string]lipgloss.Style{}}
	if !cfg.NoColor {
		v.levels = map[string]lipgloss.Style{
			"DEBUG": lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			"INFO":  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
			"WARN":  lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
			"ERROR": lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		}
	}
	return v
}

// Tail returns the last n matching entries of the log at path. The newest
// rotated file is read too when the active one is short.
func (v *Viewer) Tail(path string, n int) ([]Entry, error) {
	var lines []string
	for _, p := range []string{path + ".1", path} {
		got, err := readLines(p)
		if err != nil {
			if os.IsNotExist(err) && p != path {
				continue
			}
			return nil, fmt.Errorf("failed to read log file: %w", err)
		}
		lines = append(lines, got...)
	}

	var entries []Entry
	for _, line := range lines {
		if e := v.parse(line); v.matches(e) {
			entries = append(entries, e)
		}
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// Follow sends entries appended to path until ctx is done. A rotated file is
// reopened from the start.
func (v *Viewer) Follow(ctx context.Context, path string, entries chan<- Entry) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}
	reader := bufio.NewReader(f)

	ticker := time.NewTicker(v.cfg.PollInterval)
	defer ticker.Stop()

	var partial string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		for {
			chunk, err := reader.ReadString('\n')
			partial += chunk
			if err != nil {
				break
			}
			line := strings.TrimSuffix(partial, "\n")
			partial = ""
			if line == "" {
				continue
			}
			if e := v.parse(line); v.matches(e) {
				select {
				case entries <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}

		if rotated(f, path) {
			next, err := os.Open(path)
			if err != nil {
				continue
			}
			_ = f.Close()
			f = next
			reader = bufio.NewReader(f)
			partial = ""
		}
	}
}

// rotated reports whether path no longer names the open file.
func rotated(f *os.File, path string) bool {
	openInfo, err := f.Stat()
	if err != nil {
		return false
	}
	pathInfo, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !os.SameFile(openInfo, pathInfo)
}

// Format renders an entry as "15:04:05.000 LEVEL msg key=value ...".
// Attributes are sorted by key.
func (v *Viewer) Format(e Entry) string {
	if !e.Valid {
		return e.Raw
	}

	level := fmt.Sprintf("%-5s", strings.ToUpper(e.Level))
	if style, ok := v.levels[strings.TrimSpace(level)]; ok {
		level = style.Render(level)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s", e.Time.Local().Format("15:04:05.000"), level, e.Msg)
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, e.Attrs[k])
	}
	return sb.String()
}

// Print writes entries to w, one per line.
func (v *Viewer) Print(w io.Writer, entries []Entry) {
	for _, e := range entries {
		_, _ = fmt.Fprintln(w, v.Format(e))
	}
}

func (v *Viewer) parse(line string) Entry {
	e := Entry{Raw: line}

	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		return e
	}
	e.Valid = true

	if t, ok := data["time"].(string); ok {
		e.Time, _ = time.Parse(time.RFC3339Nano, t)
	}
	e.Level, _ = data["level"].(string)
	e.Msg, _ = data["msg"].(string)

	e.Attrs = make(map[string]any, len(data))
	for k, val := range data {
		switch k {
		case "time", "level", "msg":
		default:
			e.Attrs[k] = val
		}
	}
	return e
}

func (v *Viewer) matches(e Entry) bool {
	if v.cfg.Level != "" && e.Valid && ParseLevel(e.Level) < ParseLevel(v.cfg.Level) {
		return false
	}
	if v.cfg.Pattern != nil && !v.cfg.Pattern.MatchString(e.Raw) {
		return false
	}
	return true
}
