package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/hile/rtfm/internal/rfcindex"
	"github.com/hile/rtfm/internal/search"
)

// Limits for rfc_search.
const (
	defaultLimit = 20
	maxLimit     = 200
)

// clampLimit applies the default to non-positive limits and caps the rest.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return min(limit, maxLimit)
}

func published(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2006")
}

// toSearchResult converts a match for structured output.
func toSearchResult(m rfcindex.Match) SearchResult {
	return SearchResult{
		Number:     m.Number,
		Title:      m.Title,
		Published:  published(m.Date),
		Status:     m.Status(),
		Score:      m.Score,
		Field:      m.Field,
		Downloaded: m.Exists,
	}
}

// FormatSearchResults renders matches as markdown.
func FormatSearchResults(terms []string, matches []rfcindex.Match) string {
	var sb strings.Builder
	query := strings.Join(terms, " ")

	if len(matches) == 0 {
		fmt.Fprintf(&sb, "No RFCs found for: %s\n", query)
		return sb.String()
	}

	fmt.Fprintf(&sb, "## %d RFCs matching: %s\n\n", len(matches), query)
	for _, m := range matches {
		fmt.Fprintf(&sb, "- **RFC %d** %s", m.Number, m.Title)
		var meta []string
		if p := published(m.Date); p != "" {
			meta = append(meta, p)
		}
		if s := m.Status(); s != "" {
			meta = append(meta, s)
		}
		if m.Field == search.FieldContent {
			meta = append(meta, "body match")
		}
		if len(meta) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(meta, ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatStatus renders mirror state as markdown.
func FormatStatus(info rfcindex.StatusInfo) string {
	var sb strings.Builder
	sb.WriteString("## RFC mirror\n\n")
	fmt.Fprintf(&sb, "- Cache: %s\n", info.CacheDir)
	fmt.Fprintf(&sb, "- Known RFCs: %d (latest RFC %d)\n", info.Known, info.Latest)
	fmt.Fprintf(&sb, "- Downloaded: %d\n", info.Downloaded)
	fmt.Fprintf(&sb, "- Searchable: %d (%s)\n", info.Searchable, info.Backend)
	if info.LastSync.IsZero() {
		sb.WriteString("- Last updated: never. Run 'rtfm update' first.\n")
	} else {
		fmt.Fprintf(&sb, "- Last updated: %s\n", info.LastSync.UTC().Format(time.RFC3339))
	}
	return sb.String()
}
