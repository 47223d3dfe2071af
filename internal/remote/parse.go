package remote

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hile/rtfm/internal/catalog"
)

// skippedNumbers are index entries with no plain-text document to mirror.
var skippedNumbers = map[int]bool{
	8: true, 9: true, 51: true, 418: true, 530: true, 598: true,
}

const notIssued = "Not Issued."

var (
	entryStart  = regexp.MustCompile(`^(\d+)\s*(.+)$`)
	citationRe  = regexp.MustCompile(`^(?P<title>.*\.) (?P<date>[A-Z][a-z]+ \d+)\. (?P<flags>\(.*\))$`)
	headerLines = map[string]bool{"RFC INDEX": true}
)

// ParseError reports a malformed index file.
type ParseError struct {
	Line int
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unsupported file format at line %d: %q", e.Line, e.Text)
}

// ParseIndex reads an rfc-index.txt document.
//
// Blocks between lines starting with "~~~" are header text and ignored. An
// entry starts with a line beginning with the RFC number; following indented
// lines continue it. "Not Issued." entries and numbers without a text
// document are dropped.
func ParseIndex(r io.Reader) ([]catalog.Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		entries  []catalog.Entry
		inHeader bool
		current  int
		parts    []string
		skipping bool
		lineNo   int
	)

	flush := func() {
		if current > 0 && !skippedNumbers[current] {
			entries = append(entries, parseCitation(current, strings.Join(parts, " ")))
		}
		current, parts = 0, nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "~~~") {
			inHeader = !inHeader
			continue
		}
		trimmed := strings.TrimSpace(line)
		if inHeader || headerLines[trimmed] || strings.Trim(trimmed, "-") == "" {
			continue
		}

		if m := entryStart.FindStringSubmatch(line); m != nil {
			flush()
			number, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Text: line}
			}
			if strings.TrimSpace(m[2]) == notIssued {
				skipping = true
				continue
			}
			skipping = false
			current = number
			parts = []string{strings.TrimSpace(m[2])}
			continue
		}

		switch {
		case current > 0:
			parts = append(parts, trimmed)
		case skipping:
			// Continuation of a "Not Issued." entry.
		default:
			return nil, &ParseError{Line: lineNo, Text: line}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return entries, nil
}

// parseCitation splits the citation text into title, date and flags. Text that
// does not follow the usual layout is kept whole as the title.
func parseCitation(number int, text string) catalog.Entry {
	e := catalog.Entry{Number: number, Title: text, Description: text}

	m := citationRe.FindStringSubmatch(text)
	if m == nil {
		return e
	}

	e.Title = m[citationRe.SubexpIndex("title")]
	if date, err := time.Parse("January 2006", m[citationRe.SubexpIndex("date")]); err == nil {
		e.Date = date
	}
	e.Flags = parseFlags(m[citationRe.SubexpIndex("flags")])
	return e
}

// parseFlags turns "(Format: TXT) (Status: UNKNOWN)" into a map.
func parseFlags(s string) map[string]string {
	flags := make(map[string]string)
	for _, group := range strings.Split(s, ")") {
		group = strings.TrimLeft(group, " (")
		if group == "" {
			continue
		}
		key, value, ok := strings.Cut(group, ":")
		if !ok {
			continue
		}
		flags[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if len(flags) == 0 {
		return nil
	}
	return flags
}
