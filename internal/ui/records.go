package ui

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hile/rtfm/internal/rfcindex"
)

// RecordRenderer prints RFC records for list, search and show --title.
type RecordRenderer struct {
	out    io.Writer
	styles Styles
}

// NewRecordRenderer creates a record renderer.
func NewRecordRenderer(out io.Writer, noColor bool) *RecordRenderer {
	return &RecordRenderer{out: out, styles: GetStyles(noColor)}
}

// Line writes one record as "  793 Title". Records without a local document
// are dimmed.
func (r *RecordRenderer) Line(rec rfcindex.Record) {
	title := rec.Title
	if !rec.Exists {
		title = r.styles.Dim.Render(title)
	}
	_, _ = fmt.Fprintf(r.out, "%s %s\n", r.styles.Number.Render(fmt.Sprintf("%5d", rec.Number)), title)
}

// Lines writes each record with Line and returns how many were written.
func (r *RecordRenderer) Lines(records []rfcindex.Record) int {
	for _, rec := range records {
		r.Line(rec)
	}
	return len(records)
}

// Header writes the metadata block of a single record.
func (r *RecordRenderer) Header(rec rfcindex.Record) {
	_, _ = fmt.Fprintf(r.out, "%s %s\n", r.styles.Header.Render(fmt.Sprintf("RFC %d", rec.Number)), rec.Title)

	if !rec.Date.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.styles.Label.Render("Published:"), rec.Date.Format("January 2006"))
	}
	for _, key := range []string{"Status", "Obsoletes", "Obsoleted by", "Updates", "Updated by", "DOI"} {
		if v := flag(rec, key); v != "" {
			_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.styles.Label.Render(key+":"), v)
		}
	}

	state := r.styles.Warning.Render("not downloaded")
	if rec.Exists {
		state = rec.Path
	}
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.styles.Label.Render("File:"), state)
}

// flag looks a flag up by key, accepting both "Updated by" and "Updated-By"
// spellings.
func flag(rec rfcindex.Record, key string) string {
	if v, ok := rec.Flags[key]; ok {
		return v
	}
	for k, v := range rec.Flags {
		if normalizeKey(k) == normalizeKey(key) {
			return v
		}
	}
	return ""
}

func normalizeKey(s string) string {
	b := []byte(s)
	out := b[:0]
	for _, c := range b {
		switch {
		case c == ' ' || c == '-' || c == '_':
			continue
		case c >= 'A' && c <= 'Z':
			out = append(out, c+'a'-'A')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// JSON writes v as indented JSON.
func (r *RecordRenderer) JSON(v any) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
