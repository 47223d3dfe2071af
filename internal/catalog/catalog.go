// Package catalog holds the set of known RFCs: the mapping from RFC number to
// the metadata published in the remote RFC index. The catalog only grows:
// numbers are added or refreshed, never removed.
package catalog

import (
	"iter"
	"maps"
	"slices"
	"sort"
	"time"
)

// Entry is one RFC as described by the remote index.
type Entry struct {
	Number int `json:"number"`
	// Title is the citation text before the publication date.
	Title string `json:"title"`
	// Description is the full, unparsed citation text.
	Description string `json:"description,omitempty"`
	// Date is the publication month; zero when the citation could not be parsed.
	Date time.Time `json:"date,omitzero"`
	// Flags holds the parenthesized key/value pairs, e.g. Status, Format, DOI.
	Flags map[string]string `json:"flags,omitempty"`
}

// Status returns the Status flag (e.g. "PROPOSED STANDARD"), or "".
func (e Entry) Status() string {
	return e.Flags["Status"]
}

// sameAs reports whether two entries carry identical metadata.
func (e Entry) sameAs(o Entry) bool {
	return e.Number == o.Number &&
		e.Title == o.Title &&
		e.Description == o.Description &&
		e.Date.Equal(o.Date) &&
		maps.Equal(e.Flags, o.Flags)
}

// MergeStats summarizes what a merge changed.
type MergeStats struct {
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// Catalog is the in-memory view of all known RFCs, kept sorted by number.
type Catalog struct {
	entries map[int]Entry
	numbers []int
}

// New builds a catalog from entries. Later duplicates win.
func New(entries []Entry) *Catalog {
	c := &Catalog{entries: make(map[int]Entry, len(entries))}
	c.Apply(entries)
	return c
}

// Apply merges entries: new numbers are added, known numbers are overwritten.
// Nothing is ever removed.
func (c *Catalog) Apply(entries []Entry) MergeStats {
	var stats MergeStats
	added := false

	for _, e := range entries {
		old, ok := c.entries[e.Number]
		switch {
		case !ok:
			stats.Added++
			added = true
			c.numbers = append(c.numbers, e.Number)
		case old.sameAs(e):
			stats.Unchanged++
		default:
			stats.Updated++
		}
		c.entries[e.Number] = e
	}

	if added {
		sort.Ints(c.numbers)
	}
	return stats
}

// Get returns the entry for number.
func (c *Catalog) Get(number int) (Entry, bool) {
	e, ok := c.entries[number]
	return e, ok
}

// Len returns the number of known RFCs.
func (c *Catalog) Len() int {
	return len(c.numbers)
}

// Latest returns the highest known RFC number, or 0 for an empty catalog.
func (c *Catalog) Latest() int {
	if len(c.numbers) == 0 {
		return 0
	}
	return c.numbers[len(c.numbers)-1]
}

// Numbers returns a copy of all known numbers, ascending.
func (c *Catalog) Numbers() []int {
	return slices.Clone(c.numbers)
}

// All yields entries in ascending number order. Each call starts a fresh pass
// over the catalog as it is when iteration begins.
func (c *Catalog) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, n := range slices.Clone(c.numbers) {
			if !yield(c.entries[n]) {
				return
			}
		}
	}
}
